// Package app assembles stores and services from configuration. It is shared
// by the HTTP server and the database tool.
package app

import (
	"context"
	"errors"
	"fleet-tracking-service/internal/adapters/memory"
	"fleet-tracking-service/internal/adapters/positions"
	"fleet-tracking-service/internal/adapters/repositories"
	"fleet-tracking-service/internal/api"
	"fleet-tracking-service/internal/config"
	"fleet-tracking-service/internal/platform/db"
	"fleet-tracking-service/internal/platform/keylock"
	"fleet-tracking-service/internal/ports"
	"fleet-tracking-service/internal/services"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores is one implementation of every persistence port.
type Stores struct {
	Routes      ports.RouteRepository
	Assignments ports.AssignmentRepository
	History     ports.LocationHistoryRepository
	Positions   ports.PositionStore
	Alerts      ports.AlertRepository
	Drivers     ports.DriverIssueRepository
	Citizens    ports.CitizenIssueRepository
}

type App struct {
	Config   *config.Config
	DB       *sqlx.DB
	Redis    *redis.Client
	Stores   Stores
	Services api.Services
}

// OpenDatabase connects to the configured SQL store and migrates it. It
// returns nil for the memory store.
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)
	switch cfg.Store {
	case config.StorePostgres:
		conn, err = db.Open(cfg.DatabaseURL)
	case config.StoreSQLite:
		conn, err = db.OpenSQLite(cfg.SQLitePath)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(conn, log); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// New opens every backend the configuration names and wires the services.
// Callers must Close the returned App.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg}

	conn, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.DB = conn

	var mem *memory.Store
	if conn != nil {
		a.Stores = Stores{
			Routes:      repositories.NewSQLRouteRepository(conn),
			Assignments: repositories.NewSQLAssignmentRepository(conn),
			History:     repositories.NewSQLLocationHistoryRepository(conn),
			Alerts:      repositories.NewSQLAlertRepository(conn),
		}
		issues := repositories.NewSQLIssueRepository(conn)
		a.Stores.Drivers, a.Stores.Citizens = issues, issues
	} else {
		mem = memory.NewStore()
		a.Stores = Stores{
			Routes:      mem,
			Assignments: mem,
			History:     mem,
			Alerts:      mem,
			Drivers:     mem,
			Citizens:    mem,
		}
	}

	switch cfg.PositionStore {
	case config.PositionsSQL:
		if conn == nil {
			return nil, fmt.Errorf("app: position store %q needs a sql store", cfg.PositionStore)
		}
		a.Stores.Positions = positions.NewSQLPositionStore(conn)
	case config.PositionsRedis:
		client, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.Redis = client
		a.Stores.Positions = positions.NewRedisPositionStore(client)
	default:
		if mem == nil {
			mem = memory.NewStore()
		}
		a.Stores.Positions = mem
	}

	a.Services = Wire(a.Stores, cfg.Tracking, ports.SystemClock)

	log.Info("backends ready",
		zap.String("store", cfg.Store),
		zap.String("position_store", cfg.PositionStore),
	)
	return a, nil
}

// Wire builds the services on top of st.
func Wire(st Stores, policy config.Tracking, clock ports.Clock) api.Services {
	routeLocks := keylock.New()
	assignments := services.NewAssignmentService(st.Routes, st.Assignments, clock, routeLocks)
	alerts := services.NewAlertService(st.Alerts, st.Assignments, clock, policy.AlertCooldown)

	return api.Services{
		Routes:      services.NewRouteService(st.Routes, st.Assignments, clock, routeLocks),
		Assignments: assignments,
		Alerts:      alerts,
		Locations: services.NewLocationService(services.LocationDeps{
			Routes:      st.Routes,
			Assignments: st.Assignments,
			Lifecycle:   assignments,
			History:     st.History,
			Positions:   st.Positions,
			Alerts:      alerts,
			Clock:       clock,
		}, policy),
		Issues: services.NewIssueService(st.Drivers, st.Citizens, st.Assignments, clock),
	}
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Seed loads the route seed file into the route store.
func (a *App) Seed(ctx context.Context, path string) (int, error) {
	return repositories.SeedRoutesFromJSON(ctx, a.Stores.Routes, path, ports.SystemClock.Now())
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
