package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, PositionsSQL, cfg.PositionStore)
	assert.Equal(t, DefaultTracking(), cfg.Tracking)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE", "memory")
	t.Setenv("POSITION_STORE", "memory")
	t.Setenv("TRACKING_DEVIATION_THRESHOLD_METERS", "300")
	t.Setenv("TRACKING_LATE_START_GRACE", "15m")
	t.Setenv("TRACKING_ALERT_COOLDOWN", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 300.0, cfg.Tracking.DeviationThresholdMeters)
	assert.Equal(t, 15*time.Minute, cfg.Tracking.LateStartGrace)
	assert.Equal(t, time.Hour, cfg.Tracking.AlertCooldown)
	assert.Equal(t, 20.0, cfg.Tracking.StopRadiusMeters)
}

func TestLoadFromFileIsOverriddenByEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\ntracking:\n  stop_radius_meters: 35\n  stop_duration: 20m\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 35.0, cfg.Tracking.StopRadiusMeters)
	assert.Equal(t, 20*time.Minute, cfg.Tracking.StopDuration)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Store: StoreSQLite, SQLitePath: "x.db", PositionStore: PositionsSQL, Tracking: DefaultTracking()}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown store", func(c *Config) { c.Store = "mongo" }},
		{"postgres without url", func(c *Config) { c.Store = StorePostgres }},
		{"sql positions on memory store", func(c *Config) { c.Store = StoreMemory }},
		{"redis without url", func(c *Config) { c.PositionStore = PositionsRedis }},
		{"zero deviation", func(c *Config) { c.Tracking.DeviationThresholdMeters = 0 }},
		{"NaN deviation", func(c *Config) { c.Tracking.DeviationThresholdMeters = math.NaN() }},
		{"NaN stop radius", func(c *Config) { c.Tracking.StopRadiusMeters = math.NaN() }},
		{"infinite nearby radius", func(c *Config) { c.Tracking.NearbyRadiusMeters = math.Inf(1) }},
		{"negative grace", func(c *Config) { c.Tracking.LateStartGrace = -time.Second }},
		{"horizon shorter than stop", func(c *Config) { c.Tracking.PingHorizon = time.Minute }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
