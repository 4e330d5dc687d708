package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"bizcard/internal/models"
	"bizcard/internal/service"
)

// ProfileHandler handles the /api/profile endpoints
type ProfileHandler struct {
	service *service.ProfileService
	log     *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(s *service.ProfileService, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: s, log: log}
}

// Get returns the owner's digital card
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.Get(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, card)
}

// Put replaces the owner's digital card
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	var card models.DigitalCard
	if err := decodeJSON(w, r, &card); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	saved, err := h.service.Put(r.Context(), Owner(r.Context()), card)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, saved)
}

// Avatar replaces the profile picture with a raw image body
func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.SetAvatar(r.Context(), Owner(r.Context()), http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, card)
}

// DeleteAvatar removes the profile picture
func (h *ProfileHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.DeleteAvatar(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, card)
}

// VCard downloads the digital card as a .vcf file
func (h *ProfileHandler) VCard(w http.ResponseWriter, r *http.Request) {
	vcard, err := h.service.VCard(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="card.vcf"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(vcard))
}

// QR returns a PNG QR code for the digital card
func (h *ProfileHandler) QR(w http.ResponseWriter, r *http.Request) {
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := h.service.QR(r.Context(), Owner(r.Context()), size)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
