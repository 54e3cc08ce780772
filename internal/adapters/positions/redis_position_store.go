package positions

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

// Per-truck hashes and the truck index live in separate namespaces under the
// prefix, so no truck id can name the index key.
const (
	defaultKeyPrefix = "fleet:position:"
	truckKeySegment  = "truck:"
	trucksSetSuffix  = "trucks"
)

// setIfNewer stores the payload unless the stored ping is newer. Timestamps
// are unix microseconds, which Lua numbers represent exactly.
//
// KEYS[1] position hash, KEYS[2] set of known trucks
// ARGV[1] recorded_at (µs), ARGV[2] payload, ARGV[3] truck id
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'recorded_at')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'recorded_at', ARGV[1], 'payload', ARGV[2])
redis.call('SADD', KEYS[2], ARGV[3])
return 1
`)

// RedisPositionStore keeps current truck positions in Redis so several API
// instances share one view of the fleet.
type RedisPositionStore struct {
	Client redis.UniversalClient
	Prefix string
}

func NewRedisPositionStore(client redis.UniversalClient) *RedisPositionStore {
	return &RedisPositionStore{Client: client, Prefix: defaultKeyPrefix}
}

type positionPayload struct {
	TruckID      string    `json:"truck_id"`
	AssignmentID *string   `json:"assignment_id,omitempty"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Speed        *float64  `json:"speed,omitempty"`
	Heading      *float64  `json:"heading,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *RedisPositionStore) key(truckID string) string {
	return s.Prefix + truckKeySegment + truckID
}

func (s *RedisPositionStore) trucksKey() string {
	return s.Prefix + trucksSetSuffix
}

func decodePosition(raw string) (domain.TruckPosition, error) {
	var p positionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.TruckPosition{}, err
	}
	return domain.TruckPosition{
		LocationPing: domain.LocationPing{
			TruckID:      p.TruckID,
			AssignmentID: p.AssignmentID,
			Lat:          p.Lat,
			Lng:          p.Lng,
			Speed:        p.Speed,
			Heading:      p.Heading,
			RecordedAt:   p.RecordedAt,
		},
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (s *RedisPositionStore) GetPosition(ctx context.Context, truckID string) (_ *domain.TruckPosition, err error) {
	defer obs.Time(ctx, "position.redis.GetPosition")(&err)

	raw, err := s.Client.HGet(ctx, s.key(truckID), "payload").Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get position of truck %s: %w", truckID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get position of truck %s: %w", truckID, err)
	}

	pos, err := decodePosition(raw)
	if err != nil {
		return nil, fmt.Errorf("get position of truck %s: decode: %w", truckID, err)
	}
	return &pos, nil
}

func (s *RedisPositionStore) SetPosition(ctx context.Context, pos domain.TruckPosition) (err error) {
	defer obs.Time(ctx, "position.redis.SetPosition")(&err)

	payload, err := json.Marshal(positionPayload{
		TruckID:      pos.TruckID,
		AssignmentID: pos.AssignmentID,
		Lat:          pos.Lat,
		Lng:          pos.Lng,
		Speed:        pos.Speed,
		Heading:      pos.Heading,
		RecordedAt:   pos.RecordedAt.UTC(),
		UpdatedAt:    pos.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("set position of truck %s: encode: %w", pos.TruckID, err)
	}

	keys := []string{s.key(pos.TruckID), s.trucksKey()}
	stored, err := setIfNewer.Run(ctx, s.Client, keys, pos.RecordedAt.UnixMicro(), string(payload), pos.TruckID).Int()
	if err != nil {
		return fmt.Errorf("set position of truck %s: %w", pos.TruckID, err)
	}
	if stored == 0 {
		return fmt.Errorf(
			"set position of truck %s: ping at %s is older than the stored position: %w",
			pos.TruckID, pos.RecordedAt.Format(time.RFC3339Nano), domain.ErrValidation,
		)
	}
	return nil
}

func (s *RedisPositionStore) ListPositions(ctx context.Context) (_ []domain.TruckPosition, err error) {
	defer obs.Time(ctx, "position.redis.ListPositions")(&err)

	trucks, err := s.Client.SMembers(ctx, s.trucksKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list positions: members: %w", err)
	}
	slices.Sort(trucks)

	pipe := s.Client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(trucks))
	for _, id := range trucks {
		cmds = append(cmds, pipe.HGet(ctx, s.key(id), "payload"))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	out := make([]domain.TruckPosition, 0, len(trucks))
	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list positions: truck %s: %w", trucks[i], err)
		}
		pos, err := decodePosition(raw)
		if err != nil {
			return nil, fmt.Errorf("list positions: truck %s: decode: %w", trucks[i], err)
		}
		out = append(out, pos)
	}
	return out, nil
}
