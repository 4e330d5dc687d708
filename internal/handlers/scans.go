package handlers

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"bizcard/internal/capture"
	"bizcard/internal/models"
	"bizcard/internal/service"
)

const maxImageBytes = 10 << 20

// ScanResponse is the state of a scan session
type ScanResponse struct {
	ID string `json:"id"`
	capture.Snapshot
}

type permissionRequest struct {
	Permission string `json:"permission"`
}

// ScanHandler handles the /api/scans and /api/extract endpoints
type ScanHandler struct {
	service *service.ScanService
	log     *slog.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(s *service.ScanService, log *slog.Logger) *ScanHandler {
	return &ScanHandler{service: s, log: log}
}

// respond writes the session state, or err if the operation failed
func (h *ScanHandler) respond(w http.ResponseWriter, r *http.Request, code int, err error) {
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	sess, err := h.service.Get(Owner(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, code, ScanResponse{ID: sess.ID, Snapshot: sess.Controller.Snapshot()})
}

// Start opens a session with the camera started
func (h *ScanHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Start(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, ScanResponse{ID: sess.ID, Snapshot: sess.Controller.Snapshot()})
}

// Get returns the session state
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, nil)
}

// Frame accepts the latest preview frame as a raw image body
func (h *ScanHandler) Frame(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImageBytes)
	err := h.service.Frame(Owner(r.Context()), mux.Vars(r)["id"], body)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Camera records the client's permission outcome
func (h *ScanHandler) Camera(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var granted bool
	switch req.Permission {
	case "granted":
		granted = true
	case "denied":
	default:
		writeError(w, r, h.log, badRequest(`permission must be "granted" or "denied"`))
		return
	}
	err := h.service.Permission(r.Context(), Owner(r.Context()), mux.Vars(r)["id"], granted)
	h.respond(w, r, http.StatusOK, err)
}

// Capture freezes the current side
func (h *ScanHandler) Capture(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.service.Capture(r.Context(), Owner(r.Context()), mux.Vars(r)["id"]))
}

// SkipBack finishes with the front side only
func (h *ScanHandler) SkipBack(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.service.SkipBack(Owner(r.Context()), mux.Vars(r)["id"]))
}

// Retake discards the captured sides
func (h *ScanHandler) Retake(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.service.Retake(r.Context(), Owner(r.Context()), mux.Vars(r)["id"]))
}

// Analyze extracts the card fields from the captured sides
func (h *ScanHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	_, err := h.service.Analyze(r.Context(), Owner(r.Context()), mux.Vars(r)["id"])
	h.respond(w, r, http.StatusOK, err)
}

// Save stores the reviewed card and ends the session
func (h *ScanHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	resp, err := h.service.Save(r.Context(), Owner(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, resp)
}

// Close ends the session
func (h *ScanHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Close(Owner(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Extract analyses multipart "front" and optional "back" photos in one call
func (h *ScanHandler) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxImageBytes)
	if err := r.ParseMultipartForm(2 * maxImageBytes); err != nil {
		writeError(w, r, h.log, badRequest("invalid multipart form: "+err.Error()))
		return
	}
	front, _, err := r.FormFile("front")
	if err != nil {
		writeError(w, r, h.log, badRequest("front image must be provided"))
		return
	}
	defer front.Close()

	var back multipart.File
	back, _, err = r.FormFile("back")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		back = nil
	case err != nil:
		writeError(w, r, h.log, badRequest("invalid back image"))
		return
	default:
		defer back.Close()
	}

	result, err := h.service.Extract(r.Context(), front, back)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, result)
}
