package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	for _, ok := range []string{"cards/u1/c1_front.jpg", "avatars/u1/profile.png"} {
		p, err := CleanPath(ok)
		require.NoError(t, err)
		assert.Equal(t, ok, p)
	}
	for _, bad := range []string{"", "/etc/passwd", "../secret", "cards/../../x", "a//b", "a\\b", "."} {
		_, err := CleanPath(bad)
		assert.Error(t, err, bad)
	}
}

func TestRefs(t *testing.T) {
	refs := Refs{BaseURL: "https://cards.example.com/"}
	ref := refs.For(CardImagePath("u1", "c1", "front"))
	assert.Equal(t, "https://cards.example.com/blobs/cards/u1/c1_front.jpg", ref)

	p, err := refs.Path(ref)
	require.NoError(t, err)
	assert.Equal(t, "cards/u1/c1_front.jpg", p)

	_, err = refs.Path("https://elsewhere.example.com/blobs/cards/u1/c1_front.jpg")
	assert.Error(t, err)
	_, err = refs.Path("https://cards.example.com/blobs/../x")
	assert.Error(t, err)
}

func testBlobStore(t *testing.T, blobs BlobStore) {
	ctx := context.Background()
	p := CardImagePath("u1", "c1", "front")

	ref, err := blobs.Upload(ctx, p, "image/jpeg", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, "http://test/blobs/"+p, ref)

	_, err = blobs.Upload(ctx, p, "image/jpeg", []byte("second"))
	require.NoError(t, err)

	b, err := blobs.Open(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), b.Data)
	assert.Equal(t, "image/jpeg", b.ContentType)

	require.NoError(t, blobs.Delete(ctx, p))
	_, err = blobs.Open(ctx, p)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, blobs.Delete(ctx, p), ErrNotFound)

	_, err = blobs.Upload(ctx, "../escape.jpg", "image/jpeg", []byte("x"))
	assert.Error(t, err)
}

func TestSQLBlobs(t *testing.T) {
	testBlobStore(t, NewSQLBlobs(newTestDB(t), Refs{BaseURL: "http://test"}))
}

func TestDiskBlobs(t *testing.T) {
	blobs, err := NewDiskBlobs(t.TempDir(), Refs{BaseURL: "http://test"})
	require.NoError(t, err)
	testBlobStore(t, blobs)
}
