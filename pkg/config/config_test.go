package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prodj-booking", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 48*time.Hour, cfg.Booking.PendingTimeout)
	assert.Equal(t, 100, cfg.Booking.SweepBatchSize)
	assert.True(t, cfg.Booking.SweepEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKING_PENDING_TIMEOUT", "24h")
	t.Setenv("CRON_SECRET_TOKEN", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Booking.PendingTimeout)
	assert.Equal(t, "s3cret", cfg.Cron.SecretToken)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadWithPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9191\nBOOKING_SWEEP_BATCH_SIZE=10\n"), 0o600))

	cfg, err := LoadWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Booking.SweepBatchSize)

	_, err = LoadWithPath(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:     AppConfig{Name: "prodj-booking", Environment: "development"},
			Server:  ServerConfig{Port: 8080},
			JWT:     JWTConfig{Secret: "secret"},
			Booking: BookingConfig{PendingTimeout: 48 * time.Hour, SweepBatchSize: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Booking.PendingTimeout = 0 }, wantErr: true},
		{name: "zero batch", mutate: func(c *Config) { c.Booking.SweepBatchSize = 0 }, wantErr: true},
		{
			name: "production default jwt secret",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.JWT.Secret = defaultJWTSecret
				c.Cron.SecretToken = "x"
			},
			wantErr: true,
		},
		{
			name: "production without cron secret",
			mutate: func(c *Config) {
				c.App.Environment = "production"
			},
			wantErr: true,
		},
		{
			name: "production complete",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Cron.SecretToken = "x"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := &DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "prodj", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=prodj sslmode=disable", d.DSN())

	d.URL = "postgres://u:p@db/prodj"
	assert.Equal(t, "postgres://u:p@db/prodj", d.DSN())
}

func TestLogLevel(t *testing.T) {
	c := &Config{App: AppConfig{Environment: "production"}}
	assert.Equal(t, "production", c.LogLevel())
	c.App.LogLevel = "debug"
	assert.Equal(t, "debug", c.LogLevel())
}
