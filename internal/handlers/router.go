package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"bizcard/internal/service"
	"bizcard/internal/store"
)

// Deps are the services the router exposes
type Deps struct {
	Cards    *service.CardService
	Scans    *service.ScanService
	Profiles *service.ProfileService
	Blobs    store.BlobStore
	Log      *slog.Logger
}

// NewRouter wires every endpoint
func NewRouter(d Deps) *mux.Router {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	cards := NewCardHandler(d.Cards, log)
	scans := NewScanHandler(d.Scans, log)
	profile := NewProfileHandler(d.Profiles, log)
	blobs := NewBlobHandler(d.Blobs, log)

	router := mux.NewRouter()
	router.Use(Logging(log))

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	router.HandleFunc("/blobs/{path:.+}", blobs.Serve).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RequireOwner(log))

	api.HandleFunc("/scans", scans.Start).Methods("POST")
	api.HandleFunc("/scans/{id}", scans.Get).Methods("GET")
	api.HandleFunc("/scans/{id}", scans.Close).Methods("DELETE")
	api.HandleFunc("/scans/{id}/frame", scans.Frame).Methods("PUT")
	api.HandleFunc("/scans/{id}/camera", scans.Camera).Methods("POST")
	api.HandleFunc("/scans/{id}/capture", scans.Capture).Methods("POST")
	api.HandleFunc("/scans/{id}/skip-back", scans.SkipBack).Methods("POST")
	api.HandleFunc("/scans/{id}/retake", scans.Retake).Methods("POST")
	api.HandleFunc("/scans/{id}/analyze", scans.Analyze).Methods("POST")
	api.HandleFunc("/scans/{id}/save", scans.Save).Methods("POST")
	api.HandleFunc("/extract", scans.Extract).Methods("POST")

	api.HandleFunc("/cards", cards.List).Methods("GET")
	api.HandleFunc("/cards/search", cards.Search).Methods("POST")
	api.HandleFunc("/cards/{id}", cards.Get).Methods("GET")
	api.HandleFunc("/cards/{id}", cards.Update).Methods("PATCH")
	api.HandleFunc("/cards/{id}", cards.Delete).Methods("DELETE")

	api.HandleFunc("/profile", profile.Get).Methods("GET")
	api.HandleFunc("/profile", profile.Put).Methods("PUT")
	api.HandleFunc("/profile/avatar", profile.Avatar).Methods("PUT")
	api.HandleFunc("/profile/avatar", profile.DeleteAvatar).Methods("DELETE")
	api.HandleFunc("/profile/vcard", profile.VCard).Methods("GET")
	api.HandleFunc("/profile/qr", profile.QR).Methods("GET")

	return router
}
