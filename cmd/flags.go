package cmd

import (
	"github.com/urfave/cli/v2"

	"bizcard/internal/config"
)

// ConfigFlags are the settings shared by every command that touches storage
// or the extraction model.
func ConfigFlags() []cli.Flag {
	d := config.Default()
	return []cli.Flag{
		&cli.StringFlag{Name: "port", Usage: "HTTP listen port", Value: d.Port, EnvVars: []string{"PORT"}},
		&cli.StringFlag{Name: "database-url", Usage: "sqlite path or postgres URL", Value: d.DatabaseURL, EnvVars: []string{"DATABASE_URL"}},
		&cli.StringFlag{Name: "database-driver", Usage: "sqlite3|postgres, inferred from the URL when empty", EnvVars: []string{"DATABASE_DRIVER"}},
		&cli.StringFlag{Name: "blob-driver", Usage: "sql|disk", Value: d.BlobDriver, EnvVars: []string{"BLOB_DRIVER"}},
		&cli.StringFlag{Name: "blob-dir", Usage: "directory for the disk blob driver", Value: d.BlobDir, EnvVars: []string{"BLOB_DIR"}},
		&cli.StringFlag{Name: "public-base-url", Usage: "base of blob references", EnvVars: []string{"PUBLIC_BASE_URL"}},
		&cli.StringFlag{Name: "gemini-api-key", Usage: "Gemini API key; extraction is disabled without it", EnvVars: []string{"GEMINI_API_KEY"}},
		&cli.StringFlag{Name: "gemini-model", Usage: "Gemini model name", EnvVars: []string{"GEMINI_MODEL"}},
		&cli.DurationFlag{Name: "extraction-timeout", Value: d.ExtractionTimeout, EnvVars: []string{"EXTRACTION_TIMEOUT"}},
		&cli.DurationFlag{Name: "camera-acquire-timeout", Value: d.AcquireTimeout, EnvVars: []string{"CAMERA_ACQUIRE_TIMEOUT"}},
		&cli.IntFlag{Name: "capture-max-dimension", Value: d.MaxDimension, EnvVars: []string{"CAPTURE_MAX_DIMENSION"}},
		&cli.IntFlag{Name: "capture-jpeg-quality", Value: d.JPEGQuality, EnvVars: []string{"CAPTURE_JPEG_QUALITY"}},
		&cli.BoolFlag{Name: "capture-enhance", Usage: "boost contrast and sharpen frames", EnvVars: []string{"CAPTURE_ENHANCE"}},
		&cli.DurationFlag{Name: "scan-session-ttl", Value: d.SessionTTL, EnvVars: []string{"SCAN_SESSION_TTL"}},
		&cli.StringFlag{Name: "log-level", Value: d.LogLevel, EnvVars: []string{"LOG_LEVEL"}},
		&cli.BoolFlag{Name: "log-json", EnvVars: []string{"LOG_JSON"}},
	}
}

// LoadConfig reads ConfigFlags from c and validates the result
func LoadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{
		Port:              c.String("port"),
		DatabaseURL:       c.String("database-url"),
		DatabaseDriver:    c.String("database-driver"),
		BlobDriver:        c.String("blob-driver"),
		BlobDir:           c.String("blob-dir"),
		PublicBaseURL:     c.String("public-base-url"),
		GeminiAPIKey:      c.String("gemini-api-key"),
		GeminiModel:       c.String("gemini-model"),
		ExtractionTimeout: c.Duration("extraction-timeout"),
		AcquireTimeout:    c.Duration("camera-acquire-timeout"),
		MaxDimension:      c.Int("capture-max-dimension"),
		JPEGQuality:       c.Int("capture-jpeg-quality"),
		Enhance:           c.Bool("capture-enhance"),
		SessionTTL:        c.Duration("scan-session-ttl"),
		LogLevel:          c.String("log-level"),
		LogJSON:           c.Bool("log-json"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
