package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
}

func TestInferDriver(t *testing.T) {
	assert.Equal(t, DriverPostgres, InferDriver("postgres://u:p@db/cards?sslmode=disable"))
	assert.Equal(t, DriverPostgres, InferDriver("postgresql://db/cards"))
	assert.Equal(t, DriverPostgres, InferDriver("host=db dbname=cards sslmode=disable"))
	assert.Equal(t, DriverSQLite, InferDriver("./bizcard.db"))
	assert.Equal(t, DriverSQLite, InferDriver("file::memory:?cache=shared"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, false},
		{"no database", func(c *Config) { c.DatabaseURL = "" }, false},
		{"unknown blobs", func(c *Config) { c.BlobDriver = "s3" }, false},
		{"disk without dir", func(c *Config) { c.BlobDriver = BlobsDisk; c.BlobDir = "" }, false},
		{"bad quality", func(c *Config) { c.JPEGQuality = 0 }, false},
		{"bad base url", func(c *Config) { c.PublicBaseURL = "not a url" }, false},
		{"negative timeout", func(c *Config) { c.AcquireTimeout = -time.Second }, false},
		{"trailing slash", func(c *Config) { c.PublicBaseURL = "https://cards.example.com/" }, true},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, true},
		{"tiny ttl", func(c *Config) { c.SessionTTL = time.Nanosecond }, false},
		{"ttl below minimum", func(c *Config) { c.SessionTTL = MinSessionTTL - time.Second }, false},
		{"minimum ttl", func(c *Config) { c.SessionTTL = MinSessionTTL }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
				assert.NotContains(t, cfg.PublicBaseURL[len(cfg.PublicBaseURL)-1:], "/")
				assert.Positive(t, cfg.SessionTTL)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
