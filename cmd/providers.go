package cmd

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"bizcard/internal/capture"
	"bizcard/internal/config"
	"bizcard/internal/database"
	"bizcard/internal/extraction"
	"bizcard/internal/store"
)

// OpenDB connects to the configured database
func OpenDB(ctx context.Context, cfg *config.Config, log *slog.Logger) (*database.DB, error) {
	return database.New(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, log)
}

// OpenBlobs opens the configured blob store
func OpenBlobs(cfg *config.Config, db *database.DB) (store.BlobStore, error) {
	refs := store.Refs{BaseURL: cfg.PublicBaseURL}
	if cfg.BlobDriver == config.BlobsDisk {
		return store.NewDiskBlobs(cfg.BlobDir, refs)
	}
	return store.NewSQLBlobs(db, refs), nil
}

// OpenExtraction connects to the extraction model. Without an API key the
// service still runs and every extraction fails.
func OpenExtraction(ctx context.Context, cfg *config.Config, log *slog.Logger) (extraction.Service, error) {
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; card extraction is disabled")
		return extraction.Unavailable{}, nil
	}
	return extraction.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExtractionTimeout, log)
}

// NewEncoder returns the frame encoder for cfg
func NewEncoder(cfg *config.Config) capture.Encoder {
	return capture.Encoder{MaxDimension: cfg.MaxDimension, Quality: cfg.JPEGQuality, Enhance: cfg.Enhance}
}

func ProvideLogger(cfg *config.Config) *slog.Logger {
	return NewLogger(cfg.LogLevel, cfg.LogJSON)
}

func ProvideDB(cfg *config.Config, log *slog.Logger, lc fx.Lifecycle) (*database.DB, error) {
	db, err := OpenDB(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

func ProvideRefs(cfg *config.Config) store.Refs {
	return store.Refs{BaseURL: cfg.PublicBaseURL}
}

func ProvideBlobs(cfg *config.Config, db *database.DB) (store.BlobStore, error) {
	return OpenBlobs(cfg, db)
}

func ProvideExtraction(cfg *config.Config, log *slog.Logger) (extraction.Service, error) {
	return OpenExtraction(context.Background(), cfg, log)
}
