package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration for the database's dialect.
// It does not close db.
func Migrate(db *sqlx.DB, log *zap.Logger) error {
	log.Info("Running database migration", zap.String("driver", db.DriverName()))

	var (
		dir    string
		driver database.Driver
		err    error
	)
	switch db.DriverName() {
	case DriverPostgres:
		dir = "migrations/postgres"
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		dir = "migrations/sqlite"
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("migrate: unsupported driver %q", db.DriverName())
	}
	if err != nil {
		return fmt.Errorf("migrate: open %s driver: %w", db.DriverName(), err)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migrate: open embedded migrations %q: %w", dir, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), driver)
	if err != nil {
		return fmt.Errorf("migrate: init: %w", err)
	}
	m.Log = &migrationLogger{log: log}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Database migration: no change needed")
			return nil
		}
		log.Error("Database migration failed", zap.Error(err))
		return fmt.Errorf("migrate: up: %w", err)
	}

	version, _, _ := m.Version()
	log.Info("Database migration complete", zap.Uint("version", version))
	return nil
}

type migrationLogger struct {
	log *zap.Logger
}

func (l *migrationLogger) Printf(format string, v ...any) {
	l.log.Sugar().Debugf("DB Migration: "+format, v...)
}

func (l *migrationLogger) Verbose() bool { return false }
