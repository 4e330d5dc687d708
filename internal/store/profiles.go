package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"bizcard/internal/models"
)

const profilesCollection = "profiles"

// Profiles stores each owner's digital card, keyed by the owner id.
type Profiles struct {
	docs *Documents
}

// NewProfiles creates a profile repository
func NewProfiles(docs *Documents) *Profiles {
	return &Profiles{docs: docs}
}

// Get returns the digital card of ownerID, or ErrNotFound if none was saved
func (p *Profiles) Get(ctx context.Context, ownerID string) (models.DigitalCard, error) {
	doc, err := p.docs.Get(ctx, profilesCollection, ownerID)
	if err != nil {
		return models.DigitalCard{}, err
	}
	var card models.DigitalCard
	if err := json.Unmarshal(doc.Data, &card); err != nil {
		return models.DigitalCard{}, fail("get", errors.Wrap(err, "decode profile"))
	}
	return card, nil
}

// Put replaces the digital card of ownerID
func (p *Profiles) Put(ctx context.Context, ownerID string, card models.DigitalCard) error {
	return p.docs.Set(ctx, profilesCollection, ownerID, ownerID, card)
}
