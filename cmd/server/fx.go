package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"bizcard/cmd"
	"bizcard/internal/config"
	"bizcard/internal/extraction"
	"bizcard/internal/handlers"
	"bizcard/internal/service"
	"bizcard/internal/store"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(Options(cfg))
}

// Options is the dependency graph of the server.
func Options(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.WithLogger(func(l *slog.Logger) fxevent.Logger {
			if l == nil {
				// fx.ValidateApp runs without constructing providers
				l = slog.Default()
			}
			return &fxevent.SlogLogger{Logger: l}
		}),
		fx.Provide(
			func() *config.Config { return cfg },
			cmd.ProvideLogger,
			cmd.ProvideDB,
			cmd.ProvideRefs,
			cmd.ProvideBlobs,
			cmd.ProvideExtraction,
			store.NewDocuments,
			ProvideCards,
			ProvideProfiles,
			ProvideCardService,
			ProvideScanService,
			service.NewProfileService,
			ProvideRouter,
			ProvideHTTPServer,
		),
		fx.Invoke(func(*http.Server, *service.ScanService) {}),
	)
}

func ProvideCards(docs *store.Documents, log *slog.Logger) *store.Cards {
	return store.NewCards(docs, log)
}

func ProvideProfiles(docs *store.Documents) *store.Profiles {
	return store.NewProfiles(docs)
}

func ProvideCardService(cards *store.Cards, blobs store.BlobStore, refs store.Refs, ai extraction.Service, log *slog.Logger) *service.CardService {
	return service.NewCardService(cards, blobs, refs, ai, log)
}

func ProvideScanService(cfg *config.Config, ai extraction.Service, cards *service.CardService, log *slog.Logger, lc fx.Lifecycle) *service.ScanService {
	scans := service.NewScanService(ai, cards, service.ScanConfig{
		Encoder:        cmd.NewEncoder(cfg),
		AcquireTimeout: cfg.AcquireTimeout,
		TTL:            cfg.SessionTTL,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				scans.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stop context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stop.Done():
			}
			return nil
		},
	})
	return scans
}

func ProvideRouter(cards *service.CardService, scans *service.ScanService, profiles *service.ProfileService, blobs store.BlobStore, log *slog.Logger) http.Handler {
	return handlers.NewRouter(handlers.Deps{
		Cards:    cards,
		Scans:    scans,
		Profiles: profiles,
		Blobs:    blobs,
		Log:      log,
	})
}

func ProvideHTTPServer(cfg *config.Config, h http.Handler, log *slog.Logger, lc fx.Lifecycle) *http.Server {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("server starting", slog.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("server failed", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
