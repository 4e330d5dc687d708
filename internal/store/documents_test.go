package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentsLifecycle(t *testing.T) {
	ctx := context.Background()
	docs := NewDocuments(newTestDB(t))

	id, err := docs.Create(ctx, "cards", "u1", map[string]any{"name": "Alice", "notes": "met at expo"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	doc, err := docs.Get(ctx, "cards", id)
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.OwnerID)
	assert.JSONEq(t, `{"name":"Alice","notes":"met at expo"}`, string(doc.Data))

	require.NoError(t, docs.Update(ctx, "cards", id, map[string]any{"notes": "follow up"}))
	doc, err = docs.Get(ctx, "cards", id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Alice","notes":"follow up"}`, string(doc.Data))

	require.NoError(t, docs.Delete(ctx, "cards", id))
	_, err = docs.Get(ctx, "cards", id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, docs.Delete(ctx, "cards", id), ErrNotFound)
	assert.ErrorIs(t, docs.Update(ctx, "cards", id, map[string]any{"a": 1}), ErrNotFound)
}

func TestDocumentsCreateWithID(t *testing.T) {
	ctx := context.Background()
	docs := NewDocuments(newTestDB(t))

	id, err := docs.Create(ctx, "cards", "u1", json.RawMessage(`{"a":1}`), WithID("fixed"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	_, err = docs.Create(ctx, "cards", "u1", json.RawMessage(`{"a":2}`), WithID("fixed"))
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestDocumentsRejectNonObjects(t *testing.T) {
	docs := NewDocuments(newTestDB(t))
	for _, data := range []any{"text", []int{1}, nil, json.RawMessage(`null`)} {
		_, err := docs.Create(context.Background(), "cards", "u1", data)
		assert.Error(t, err)
	}
}

func TestDocumentsQueryScopedByOwnerAndCollection(t *testing.T) {
	ctx := context.Background()
	docs := NewDocuments(newTestDB(t))

	for _, owner := range []string{"u1", "u1", "u2"} {
		_, err := docs.Create(ctx, "cards", owner, map[string]any{"x": owner})
		require.NoError(t, err)
	}
	_, err := docs.Create(ctx, "profiles", "u1", map[string]any{})
	require.NoError(t, err)

	got, err := docs.Query(ctx, "cards", "u1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := docs.Query(ctx, "cards", "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDocumentsSet(t *testing.T) {
	ctx := context.Background()
	docs := NewDocuments(newTestDB(t))

	require.NoError(t, docs.Set(ctx, "profiles", "u1", "u1", map[string]any{"name": "A"}))
	require.NoError(t, docs.Set(ctx, "profiles", "u1", "u1", map[string]any{"title": "B"}))

	doc, err := docs.Get(ctx, "profiles", "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"B"}`, string(doc.Data))
}
