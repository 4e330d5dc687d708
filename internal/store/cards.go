package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/pkg/errors"

	"bizcard/internal/models"
)

const cardsCollection = "cards"

// Cards persists scanned cards. Every read goes through the field
// normalizer, so callers only ever see the bilingual shape.
type Cards struct {
	docs *Documents
	log  *slog.Logger
}

// NewCards creates a card repository
func NewCards(docs *Documents, log *slog.Logger) *Cards {
	if log == nil {
		log = slog.Default()
	}
	return &Cards{docs: docs, log: log}
}

// Create stores a new card under card.ID, allocating one if empty
func (c *Cards) Create(ctx context.Context, card models.Card) (models.Card, error) {
	if card.OwnerID == "" {
		return models.Card{}, errors.New("card owner is required")
	}
	if card.ID == "" {
		card.ID = NewID()
	}
	id, err := c.docs.Create(ctx, cardsCollection, card.OwnerID, card, WithID(card.ID))
	if err != nil {
		return models.Card{}, err
	}
	card.ID = id
	return card, nil
}

// Get returns one card of ownerID
func (c *Cards) Get(ctx context.Context, ownerID, id string) (models.Card, error) {
	doc, err := c.docs.Get(ctx, cardsCollection, id)
	if err != nil {
		return models.Card{}, err
	}
	if doc.OwnerID != ownerID {
		return models.Card{}, ErrNotFound
	}
	return c.decode(doc), nil
}

// List returns every card of ownerID
func (c *Cards) List(ctx context.Context, ownerID string) ([]models.Card, error) {
	docs, err := c.docs.Query(ctx, cardsCollection, ownerID)
	if err != nil {
		return nil, err
	}
	cards := make([]models.Card, 0, len(docs))
	for _, doc := range docs {
		cards = append(cards, c.decode(doc))
	}
	return cards, nil
}

// Update applies patch to a card of ownerID and returns the result
func (c *Cards) Update(ctx context.Context, ownerID, id string, patch models.CardPatch) (models.Card, error) {
	card, err := c.Get(ctx, ownerID, id)
	if err != nil {
		return models.Card{}, err
	}
	if patch.IsEmpty() {
		return card, nil
	}
	if err := c.docs.Update(ctx, cardsCollection, id, patch.Fields()); err != nil {
		return models.Card{}, err
	}
	patch.Apply(&card)
	return card, nil
}

// Delete removes a card of ownerID and returns what was deleted
func (c *Cards) Delete(ctx context.Context, ownerID, id string) (models.Card, error) {
	card, err := c.Get(ctx, ownerID, id)
	if err != nil {
		return models.Card{}, err
	}
	if err := c.docs.Delete(ctx, cardsCollection, id); err != nil {
		return models.Card{}, err
	}
	return card, nil
}

// decode reads a stored card. Fields are decoded one at a time so a single
// malformed attribute only blanks that attribute.
func (c *Cards) decode(doc Document) models.Card {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		c.log.Warn("unreadable card document", slog.String("id", doc.ID), slog.Any("error", err))
	}

	card := models.Card{
		ID:                 doc.ID,
		OwnerID:            doc.OwnerID,
		Name:               bilingual(fields["name"]),
		Title:              bilingual(fields["title"]),
		CompanyName:        bilingual(fields["companyName"]),
		Address:            bilingual(fields["address"]),
		Phone:              text(fields["phone"]),
		Email:              text(fields["email"]),
		CompanyDescription: text(fields["companyDescription"]),
		Notes:              text(fields["notes"]),
		FrontImageRef:      text(fields["cardFrontImageUrl"]),
		BackImageRef:       text(fields["cardBackImageUrl"]),
		CreatedAt:          models.NewTimestamp(models.ParseInstant(value(fields["createdAt"]))),
	}
	return card
}

func value(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func bilingual(raw json.RawMessage) models.Bilingual {
	return models.NormalizeField(value(raw))
}

// text reads a plain attribute; numbers, as some phone fields were stored,
// keep their literal form.
func text(raw json.RawMessage) string {
	switch v := value(raw).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
