package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"bizcard/internal/store"
)

// BlobHandler serves stored images
type BlobHandler struct {
	blobs store.BlobStore
	log   *slog.Logger
}

// NewBlobHandler creates a new blob handler
func NewBlobHandler(blobs store.BlobStore, log *slog.Logger) *BlobHandler {
	return &BlobHandler{blobs: blobs, log: log}
}

// Serve writes the blob at the requested path
func (h *BlobHandler) Serve(w http.ResponseWriter, r *http.Request) {
	blob, err := h.blobs.Open(r.Context(), mux.Vars(r)["path"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, "", blob.UpdatedAt, bytes.NewReader(blob.Data))
}
