package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	BlobsSQL  = "sql"
	BlobsDisk = "disk"
)

// MinSessionTTL is the shortest idle lifetime accepted for a scan session
const MinSessionTTL = time.Minute

// Config holds the service settings assembled from flags and environment.
type Config struct {
	Port           string
	DatabaseURL    string
	DatabaseDriver string

	BlobDriver    string
	BlobDir       string
	PublicBaseURL string

	GeminiAPIKey      string
	GeminiModel       string
	ExtractionTimeout time.Duration

	AcquireTimeout time.Duration
	MaxDimension   int
	JPEGQuality    int
	Enhance        bool
	SessionTTL     time.Duration

	LogLevel string
	LogJSON  bool
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:              "8080",
		DatabaseURL:       "./bizcard.db",
		BlobDriver:        BlobsSQL,
		BlobDir:           "./blobs",
		ExtractionTimeout: 60 * time.Second,
		AcquireTimeout:    10 * time.Second,
		MaxDimension:      1600,
		JPEGQuality:       85,
		SessionTTL:        15 * time.Minute,
		LogLevel:          "info",
	}
}

// Validate fills inferred values and rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.DatabaseURL == "" {
		return errors.New("database url is required")
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = InferDriver(c.DatabaseURL)
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return errors.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}

	switch c.BlobDriver {
	case "":
		c.BlobDriver = BlobsSQL
	case BlobsSQL:
	case BlobsDisk:
		if c.BlobDir == "" {
			return errors.New("blob dir is required for the disk blob driver")
		}
	default:
		return errors.Errorf("unsupported blob driver %q", c.BlobDriver)
	}

	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:" + c.Port
	}
	u, err := url.Parse(c.PublicBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("invalid public base url %q", c.PublicBaseURL)
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.Errorf("jpeg quality %d out of range 1-100", c.JPEGQuality)
	}
	if c.MaxDimension < 0 {
		c.MaxDimension = 0
	}
	if c.ExtractionTimeout < 0 || c.AcquireTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 15 * time.Minute
	}
	if c.SessionTTL < MinSessionTTL {
		return errors.Errorf("scan session ttl %s is below the %s minimum", c.SessionTTL, MinSessionTTL)
	}
	return nil
}

// InferDriver picks the SQL driver from the shape of a database URL.
func InferDriver(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres
	}
	if strings.Contains(dsn, "host=") && strings.Contains(dsn, "dbname=") {
		return DriverPostgres
	}
	return DriverSQLite
}
