package extraction

import (
	"context"

	"bizcard/internal/models"
)

// Extractor turns card images into structured bilingual contact data.
type Extractor interface {
	Extract(ctx context.Context, front models.Image, back *models.Image) (models.Extraction, error)
}

// Searcher answers natural-language questions over a user's card details.
type Searcher interface {
	Search(ctx context.Context, query, cardDetails string) (string, error)
}

// Service is the full AI capability used by the application.
type Service interface {
	Extractor
	Searcher
}

// Unavailable fails every call. It stands in when no API key is configured
// so the rest of the service still runs.
type Unavailable struct{}

// Extract always fails with ErrNotConfigured.
func (Unavailable) Extract(context.Context, models.Image, *models.Image) (models.Extraction, error) {
	return models.Extraction{}, fail("extract", ErrNotConfigured)
}

// Search always fails with ErrNotConfigured.
func (Unavailable) Search(context.Context, string, string) (string, error) {
	return "", fail("search", ErrNotConfigured)
}
