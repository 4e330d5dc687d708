package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bizcard/internal/models"
)

// OwnerHeader carries the authenticated user id set by the upstream auth proxy.
const OwnerHeader = "X-User-Id"

type ownerKey struct{}

// RequireOwner rejects requests without an owner and stores it on the context
func RequireOwner(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
			if owner == "" || strings.ContainsAny(owner, "/\\") {
				writeError(w, r, log, errNoOwner)
				return
			}
			ctx := context.WithValue(r.Context(), ownerKey{}, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Owner returns the owner stored by RequireOwner
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// language picks the UI language from the lang parameter, then Accept-Language
func language(r *http.Request) models.Language {
	if lang, ok := models.ParseLanguage(r.URL.Query().Get("lang")); ok {
		return lang
	}
	return models.NegotiateLanguage(r.Header.Get("Accept-Language"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging logs one line per request
func Logging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("took", time.Since(started)),
			)
		})
	}
}
