package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"bizcard/internal/listing"
	"bizcard/internal/models"
	"bizcard/internal/service"
)

// CardHandler handles the /api/cards endpoints
type CardHandler struct {
	service *service.CardService
	log     *slog.Logger
}

// NewCardHandler creates a new card handler
func NewCardHandler(s *service.CardService, log *slog.Logger) *CardHandler {
	return &CardHandler{service: s, log: log}
}

// List returns the grouped listing with the available regions
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.service.List(r.Context(), Owner(r.Context()), listing.Query{
		Search:   q.Get("q"),
		Sort:     listing.ParseSort(q.Get("sort")),
		Region:   q.Get("region"),
		Language: language(r),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, view)
}

// Get returns one card
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.Get(r.Context(), Owner(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, card)
}

// Update edits the fields of a card
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.CardPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	card, err := h.service.Update(r.Context(), Owner(r.Context()), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, card)
}

// Delete removes a card and its images
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), Owner(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search answers a natural-language query over the owner's cards
func (h *CardHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, h.log, badRequest("query must be provided"))
		return
	}
	results, err := h.service.Search(r.Context(), Owner(r.Context()), req.Query, language(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, models.SearchResponse{Results: results})
}
