package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"bizcard/internal/database"
	"bizcard/internal/models"
	"bizcard/internal/store"
)

type fakeExtractor struct {
	mu     sync.Mutex
	result models.Extraction
	err    error
	calls  int
	back   bool
}

func (f *fakeExtractor) Extract(ctx context.Context, front models.Image, back *models.Image) (models.Extraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.back = back != nil
	if f.err != nil {
		return models.Extraction{}, f.err
	}
	return f.result, nil
}

type fakeSearcher struct {
	query, details string
}

func (f *fakeSearcher) Search(ctx context.Context, query, details string) (string, error) {
	f.query, f.details = query, details
	return "found it", nil
}

type flakyBlobs struct {
	store.BlobStore
	failDelete bool
}

func (f *flakyBlobs) Delete(ctx context.Context, p string) error {
	if f.failDelete {
		return &store.PersistenceError{Op: "delete", Err: context.DeadlineExceeded}
	}
	return f.BlobStore.Delete(ctx, p)
}

type fixture struct {
	cards    *store.Cards
	blobs    *flakyBlobs
	refs     store.Refs
	searcher *fakeSearcher
	service  *CardService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	docs := store.NewDocuments(db)
	refs := store.Refs{BaseURL: "http://test"}
	f := &fixture{
		cards:    store.NewCards(docs, nil),
		blobs:    &flakyBlobs{BlobStore: store.NewSQLBlobs(db, refs)},
		refs:     refs,
		searcher: &fakeSearcher{},
	}
	f.service = NewCardService(f.cards, f.blobs, refs, f.searcher, nil)
	f.profiles = NewProfileService(store.NewProfiles(docs), f.blobs)
	return f
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
