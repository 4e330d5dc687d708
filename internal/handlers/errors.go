package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"bizcard/internal/capture"
	"bizcard/internal/extraction"
	"bizcard/internal/service"
	"bizcard/internal/store"
)

// ErrorBody is the payload of every failed request
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure
type ErrorDetail struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

var errNoOwner = errors.New("missing X-User-Id header")

// classify maps an error onto an HTTP status and a status name
func classify(err error) (int, string) {
	var (
		perm *capture.PermissionError
		ext  *extraction.Error
		pers *store.PersistenceError
		bad  badRequest
	)
	switch {
	case errors.Is(err, errNoOwner):
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.As(err, &bad), errors.Is(err, capture.ErrInvalidImage):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.As(err, &perm):
		return http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, capture.ErrBusy):
		return http.StatusConflict, "ABORTED"
	case errors.Is(err, capture.ErrInvalidTransition), errors.Is(err, capture.ErrClosed),
		errors.Is(err, capture.ErrNoStream), errors.Is(err, capture.ErrNoFrame):
		return http.StatusConflict, "FAILED_PRECONDITION"
	case errors.As(err, &ext):
		return http.StatusBadGateway, "EXTRACTION_FAILED"
	case errors.As(err, &pers):
		return http.StatusInternalServerError, "INTERNAL"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// writeError logs err and writes the error envelope
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	code, status := classify(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		log.Error("request failed", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
		if code == http.StatusInternalServerError {
			msg = "internal error"
		}
	} else {
		log.Debug("request rejected", slog.String("path", r.URL.Path), slog.Int("status", code), slog.Any("error", err))
	}
	writeJSON(w, log, code, ErrorBody{Error: ErrorDetail{Code: code, Status: status, Message: msg}})
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("error encoding response", slog.Any("error", err))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON: " + err.Error())
	}
	return nil
}
