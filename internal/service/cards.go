package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"bizcard/internal/capture"
	"bizcard/internal/extraction"
	"bizcard/internal/listing"
	"bizcard/internal/models"
	"bizcard/internal/store"
)

// CardService handles saving, editing, listing and searching scanned cards
type CardService struct {
	cards    *store.Cards
	blobs    store.BlobStore
	refs     store.Refs
	searcher extraction.Searcher
	log      *slog.Logger
	now      func() time.Time
}

// NewCardService creates a new card service
func NewCardService(cards *store.Cards, blobs store.BlobStore, refs store.Refs, searcher extraction.Searcher, log *slog.Logger) *CardService {
	if log == nil {
		log = slog.Default()
	}
	return &CardService{cards: cards, blobs: blobs, refs: refs, searcher: searcher, log: log, now: time.Now}
}

// List returns the display-ready listing of ownerID's cards
func (s *CardService) List(ctx context.Context, ownerID string, q listing.Query) (listing.View, error) {
	cards, err := s.cards.List(ctx, ownerID)
	if err != nil {
		return listing.View{}, err
	}
	return listing.Build(cards, q), nil
}

// Get returns one card
func (s *CardService) Get(ctx context.Context, ownerID, id string) (models.Card, error) {
	return s.cards.Get(ctx, ownerID, id)
}

// Update applies an edit to a saved card
func (s *CardService) Update(ctx context.Context, ownerID, id string, patch models.CardPatch) (models.Card, error) {
	return s.cards.Update(ctx, ownerID, id, patch)
}

// Save uploads the reviewed images and persists the card. The card id is
// chosen up front so the image paths can carry it. Possible duplicates are
// reported but never block the save.
func (s *CardService) Save(ctx context.Context, ownerID string, review capture.Review, req models.SaveCardRequest) (models.SaveCardResponse, error) {
	if ownerID == "" {
		return models.SaveCardResponse{}, errors.New("owner is required")
	}
	if review.Front.Empty() {
		return models.SaveCardResponse{}, errors.New("front image is required")
	}

	card := models.Card{
		ID:                 store.NewID(),
		OwnerID:            ownerID,
		Name:               review.Result.Name,
		Title:              review.Result.Title,
		CompanyName:        review.Result.CompanyName,
		Address:            review.Result.Address,
		Phone:              review.Result.Phone,
		Email:              review.Result.Email,
		CompanyDescription: review.Result.CompanyDescription,
		Notes:              req.Notes,
		CreatedAt:          models.NewTimestamp(s.now()),
	}
	if req.Edits != nil {
		req.Edits.Apply(&card)
	}

	var uploaded []string
	frontPath := store.CardImagePath(ownerID, card.ID, "front")
	ref, err := s.blobs.Upload(ctx, frontPath, review.Front.MIMEType, review.Front.Data)
	if err != nil {
		return models.SaveCardResponse{}, errors.Wrap(err, "upload front image")
	}
	uploaded = append(uploaded, frontPath)
	card.FrontImageRef = ref

	if review.Back != nil && !review.Back.Empty() {
		backPath := store.CardImagePath(ownerID, card.ID, "back")
		ref, err := s.blobs.Upload(ctx, backPath, review.Back.MIMEType, review.Back.Data)
		if err != nil {
			s.removeBlobs(ctx, uploaded...)
			return models.SaveCardResponse{}, errors.Wrap(err, "upload back image")
		}
		uploaded = append(uploaded, backPath)
		card.BackImageRef = ref
	}

	existing, err := s.cards.List(ctx, ownerID)
	if err != nil {
		s.log.Warn("duplicate check skipped", slog.String("owner", ownerID), slog.Any("error", err))
	}

	saved, err := s.cards.Create(ctx, card)
	if err != nil {
		s.removeBlobs(ctx, uploaded...)
		return models.SaveCardResponse{}, err
	}

	s.log.Info("card saved", slog.String("owner", ownerID), slog.String("id", saved.ID), slog.Bool("back", saved.BackImageRef != ""))
	return models.SaveCardResponse{Card: saved, Duplicates: FindDuplicates(existing, saved)}, nil
}

// Delete removes the card, then its images. Image cleanup is best effort: a
// failure is logged and the delete still succeeds.
func (s *CardService) Delete(ctx context.Context, ownerID, id string) error {
	card, err := s.cards.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	for _, ref := range []string{card.FrontImageRef, card.BackImageRef} {
		if ref == "" {
			continue
		}
		p, err := s.refs.Path(ref)
		if err != nil {
			s.log.Warn("card image not removed", slog.String("id", id), slog.String("ref", ref), slog.Any("error", err))
			continue
		}
		s.removeBlobs(ctx, p)
	}
	return nil
}

func (s *CardService) removeBlobs(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if err := s.blobs.Delete(ctx, p); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("orphaned blob", slog.String("path", p), slog.Any("error", err))
		}
	}
}

// Search answers a natural-language question over ownerID's cards
func (s *CardService) Search(ctx context.Context, ownerID, query string, lang models.Language) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("query is required")
	}
	cards, err := s.cards.List(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if len(cards) == 0 {
		return "No cards saved yet.", nil
	}
	return s.searcher.Search(ctx, query, CardDetails(cards, lang))
}

// CardDetails renders cards as the plain-text context given to the search model
func CardDetails(cards []models.Card, lang models.Language) string {
	var b strings.Builder
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- Name: %s; Title: %s; Company: %s",
			models.Localize(c.Name, lang), models.Localize(c.Title, lang), models.Localize(c.CompanyName, lang))
		if c.Phone != "" {
			fmt.Fprintf(&b, "; Phone: %s", c.Phone)
		}
		if c.Email != "" {
			fmt.Fprintf(&b, "; Email: %s", c.Email)
		}
		if addr := models.Localize(c.Address, lang); addr != "" {
			fmt.Fprintf(&b, "; Address: %s", addr)
		}
		if c.Notes != "" {
			fmt.Fprintf(&b, "; Notes: %s", c.Notes)
		}
	}
	return b.String()
}
