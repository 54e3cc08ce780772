package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"

	PositionsSQL    = "sql"
	PositionsRedis  = "redis"
	PositionsMemory = "memory"
)

type Config struct {
	AppEnv        string   `mapstructure:"app_env"`
	Port          string   `mapstructure:"port"`
	Store         string   `mapstructure:"store"`
	DatabaseURL   string   `mapstructure:"database_url"`
	SQLitePath    string   `mapstructure:"sqlite_path"`
	PositionStore string   `mapstructure:"position_store"`
	RedisURL      string   `mapstructure:"redis_url"`
	SeedPath      string   `mapstructure:"seed_path"`
	Tracking      Tracking `mapstructure:"tracking"`
}

// Tracking holds the thresholds the location evaluator and alert generator
// apply to every ping. PingHorizon bounds how far back ping history is read
// when looking for a prolonged stop.
type Tracking struct {
	DeviationThresholdMeters float64       `mapstructure:"deviation_threshold_meters"`
	StopRadiusMeters         float64       `mapstructure:"stop_radius_meters"`
	StopDuration             time.Duration `mapstructure:"stop_duration"`
	LateStartGrace           time.Duration `mapstructure:"late_start_grace"`
	PingHorizon              time.Duration `mapstructure:"ping_horizon"`
	AlertCooldown            time.Duration `mapstructure:"alert_cooldown"`
	NearbyRadiusMeters       float64       `mapstructure:"nearby_radius_meters"`
	NearbyFreshness          time.Duration `mapstructure:"nearby_freshness"`
}

// DefaultTracking returns the thresholds used when nothing is configured.
func DefaultTracking() Tracking {
	return Tracking{
		DeviationThresholdMeters: 150,
		StopRadiusMeters:         20,
		StopDuration:             10 * time.Minute,
		LateStartGrace:           5 * time.Minute,
		PingHorizon:              30 * time.Minute,
		AlertCooldown:            0,
		NearbyRadiusMeters:       1000,
		NearbyFreshness:          10 * time.Minute,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("store", StoreSQLite)
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", "data/fleet.db")
	v.SetDefault("position_store", PositionsSQL)
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("seed_path", "data/seeds/routes.json")

	t := DefaultTracking()
	v.SetDefault("tracking.deviation_threshold_meters", t.DeviationThresholdMeters)
	v.SetDefault("tracking.stop_radius_meters", t.StopRadiusMeters)
	v.SetDefault("tracking.stop_duration", t.StopDuration)
	v.SetDefault("tracking.late_start_grace", t.LateStartGrace)
	v.SetDefault("tracking.ping_horizon", t.PingHorizon)
	v.SetDefault("tracking.alert_cooldown", t.AlertCooldown)
	v.SetDefault("tracking.nearby_radius_meters", t.NearbyRadiusMeters)
	v.SetDefault("tracking.nearby_freshness", t.NearbyFreshness)
}

// Load reads .env (if present), then the process environment, then the YAML
// file named by CONFIG_FILE (if set). Environment variables win over the file.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects unknown backends and unusable thresholds.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required when STORE=sqlite")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE must be one of postgres, sqlite, memory; got %q", c.Store)
	}

	switch c.PositionStore {
	case PositionsSQL:
		if c.Store == StoreMemory {
			return errors.New("POSITION_STORE=sql needs a sql STORE")
		}
	case PositionsRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return errors.New("REDIS_URL is required when POSITION_STORE=redis")
		}
	case PositionsMemory:
	default:
		return fmt.Errorf("POSITION_STORE must be one of sql, redis, memory; got %q", c.PositionStore)
	}

	return c.Tracking.Validate()
}

func (t Tracking) Validate() error {
	switch {
	case !positiveFinite(t.DeviationThresholdMeters):
		return fmt.Errorf("tracking: deviation threshold must be positive, got %v", t.DeviationThresholdMeters)
	case !positiveFinite(t.StopRadiusMeters):
		return fmt.Errorf("tracking: stop radius must be positive, got %v", t.StopRadiusMeters)
	case t.StopDuration <= 0:
		return fmt.Errorf("tracking: stop duration must be positive, got %v", t.StopDuration)
	case t.LateStartGrace < 0:
		return fmt.Errorf("tracking: late start grace must not be negative, got %v", t.LateStartGrace)
	case t.PingHorizon < t.StopDuration:
		return fmt.Errorf("tracking: ping horizon %v is shorter than stop duration %v", t.PingHorizon, t.StopDuration)
	case t.AlertCooldown < 0:
		return fmt.Errorf("tracking: alert cooldown must not be negative, got %v", t.AlertCooldown)
	case !positiveFinite(t.NearbyRadiusMeters):
		return fmt.Errorf("tracking: nearby radius must be positive, got %v", t.NearbyRadiusMeters)
	case t.NearbyFreshness <= 0:
		return fmt.Errorf("tracking: nearby freshness must be positive, got %v", t.NearbyFreshness)
	}
	return nil
}

// NaN fails the comparison.
func positiveFinite(v float64) bool { return v > 0 && !math.IsInf(v, 1) }
