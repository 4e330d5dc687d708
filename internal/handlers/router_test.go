package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizcard/internal/database"
	"bizcard/internal/extraction"
	"bizcard/internal/listing"
	"bizcard/internal/models"
	"bizcard/internal/service"
	"bizcard/internal/store"
)

type stubAI struct {
	result models.Extraction
	err    error
}

func (s *stubAI) Extract(ctx context.Context, front models.Image, back *models.Image) (models.Extraction, error) {
	return s.result, s.err
}

func (s *stubAI) Search(ctx context.Context, query, details string) (string, error) {
	return "answer for " + query, nil
}

func newServer(t *testing.T) (*httptest.Server, *stubAI) {
	t.Helper()
	db, err := database.New(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewUnstartedServer(nil)
	refs := store.Refs{BaseURL: "http://" + srv.Listener.Addr().String()}
	docs := store.NewDocuments(db)
	blobs := store.NewSQLBlobs(db, refs)
	ai := &stubAI{result: models.Extraction{
		Name:        models.Bilingual{En: "Alice Chen", Zh: "陳愛麗"},
		CompanyName: models.Bilingual{En: "Acme", Zh: "頂尖"},
		Address:     models.Bilingual{En: "1 Neihu Rd, Neihu District, Taipei", Zh: "台北市內湖區內湖路1號"},
		Email:       "alice@acme.test",
	}}

	cards := service.NewCardService(store.NewCards(docs, nil), blobs, refs, ai, nil)
	srv.Config.Handler = NewRouter(Deps{
		Cards:    cards,
		Scans:    service.NewScanService(ai, cards, service.ScanConfig{TTL: time.Minute}, nil),
		Profiles: service.NewProfileService(store.NewProfiles(docs), blobs),
		Blobs:    blobs,
	})
	srv.Start()
	t.Cleanup(srv.Close)
	return srv, ai
}

func pngBody(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 48, 32))
	for x := 0; x < 48; x++ {
		img.Set(x, x%32, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func call(t *testing.T, srv *httptest.Server, method, path, owner string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)
	resp := call(t, srv, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingOwner(t *testing.T) {
	srv, _ := newServer(t)
	resp := call(t, srv, "GET", "/api/cards", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[ErrorBody](t, resp)
	assert.Equal(t, 401, body.Error.Code)
	assert.Equal(t, "UNAUTHENTICATED", body.Error.Status)
}

func TestScanToListingFlow(t *testing.T) {
	srv, _ := newServer(t)

	resp := call(t, srv, "POST", "/api/scans", "u1", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	scan := decode[ScanResponse](t, resp)
	assert.Equal(t, "awaiting_front", scan.State.String())
	base := "/api/scans/" + scan.ID

	resp = call(t, srv, "POST", base+"/capture", "u1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "no frame yet")

	resp = call(t, srv, "PUT", base+"/frame", "u1", bytes.NewReader(pngBody(t)))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = call(t, srv, "POST", base+"/capture", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = call(t, srv, "POST", base+"/skip-back", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, "POST", base+"/analyze", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	scan = decode[ScanResponse](t, resp)
	assert.Equal(t, "reviewing", scan.State.String())
	require.NotNil(t, scan.Result)
	assert.Equal(t, "Alice Chen", scan.Result.Name.En)

	resp = call(t, srv, "POST", base+"/save", "u1", strings.NewReader(`{"notes":"met at expo"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	saved := decode[models.SaveCardResponse](t, resp)
	assert.Equal(t, "met at expo", saved.Card.Notes)

	resp = call(t, srv, "GET", base, "u1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "session ends on save")

	front, err := url.Parse(saved.Card.FrontImageRef)
	require.NoError(t, err)
	resp = call(t, srv, "GET", front.Path, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	resp = call(t, srv, "GET", "/api/cards?lang=zh&region="+url.QueryEscape("內湖區"), "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[listing.View](t, resp)
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "頂尖", view.Groups[0].Company)
	assert.Equal(t, 1, view.Matched)

	resp = call(t, srv, "GET", "/api/cards", "u2", nil)
	assert.Zero(t, decode[listing.View](t, resp).Total)

	resp = call(t, srv, "PATCH", "/api/cards/"+saved.Card.ID, "u1", strings.NewReader(`{"notes":"follow up","name":"Alice C."}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decode[models.Card](t, resp)
	assert.Equal(t, "follow up", edited.Notes)
	assert.Equal(t, models.Bilingual{En: "Alice C."}, edited.Name)

	resp = call(t, srv, "POST", "/api/cards/search", "u1", strings.NewReader(`{"query":"acme"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "answer for acme", decode[models.SearchResponse](t, resp).Results)

	resp = call(t, srv, "DELETE", "/api/cards/"+saved.Card.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = call(t, srv, "DELETE", "/api/cards/"+saved.Card.ID, "u1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = call(t, srv, "GET", "/api/cards/"+saved.Card.ID, "u1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = call(t, srv, "GET", front.Path, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScanPermissionDenied(t *testing.T) {
	srv, _ := newServer(t)
	scan := decode[ScanResponse](t, call(t, srv, "POST", "/api/scans", "u1", nil))
	base := "/api/scans/" + scan.ID

	resp := call(t, srv, "POST", base+"/camera", "u1", strings.NewReader(`{"permission":"denied"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	scan = decode[ScanResponse](t, resp)
	assert.Equal(t, "permission_denied", scan.State.String())
	assert.False(t, scan.CameraActive)

	resp = call(t, srv, "POST", base+"/capture", "u1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = call(t, srv, "POST", base+"/retake", "u1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", decode[ErrorBody](t, resp).Error.Status)

	resp = call(t, srv, "POST", base+"/camera", "u1", strings.NewReader(`{"permission":"granted"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "awaiting_front", decode[ScanResponse](t, resp).State.String())

	resp = call(t, srv, "POST", base+"/camera", "u1", strings.NewReader(`{"permission":"maybe"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, srv, "DELETE", base, "u1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestExtractionFailureIsRetryable(t *testing.T) {
	srv, ai := newServer(t)
	scan := decode[ScanResponse](t, call(t, srv, "POST", "/api/scans", "u1", nil))
	base := "/api/scans/" + scan.ID
	call(t, srv, "PUT", base+"/frame", "u1", bytes.NewReader(pngBody(t)))
	call(t, srv, "POST", base+"/capture", "u1", nil)
	call(t, srv, "POST", base+"/skip-back", "u1", nil)

	ai.err = &extraction.Error{Op: "extract", Err: extraction.ErrNoContactData}
	resp := call(t, srv, "POST", base+"/analyze", "u1", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "EXTRACTION_FAILED", decode[ErrorBody](t, resp).Error.Status)

	resp = call(t, srv, "GET", base, "u1", nil)
	assert.Equal(t, "captured", decode[ScanResponse](t, resp).State.String())

	ai.err = nil
	resp = call(t, srv, "POST", base+"/analyze", "u1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOneShotExtract(t *testing.T) {
	srv, _ := newServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("front", "front.png")
	require.NoError(t, err)
	part.Write(pngBody(t))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", srv.URL+"/api/extract", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(OwnerHeader, "u1")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice Chen", decode[models.Extraction](t, resp).Name.En)

	resp = call(t, srv, "POST", "/api/extract", "u1", strings.NewReader("x"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfileEndpoints(t *testing.T) {
	srv, _ := newServer(t)

	resp := call(t, srv, "GET", "/api/profile", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.DigitalCard{}, decode[models.DigitalCard](t, resp))

	resp = call(t, srv, "PUT", "/api/profile", "u1", strings.NewReader(`{"name":"Alice","email":"alice@acme.test"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, "PUT", "/api/profile/avatar", "u1", bytes.NewReader(pngBody(t)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avatar := decode[models.DigitalCard](t, resp).AvatarRef
	assert.Contains(t, avatar, "/blobs/avatars/u1/profile.png")

	// the avatar cannot be pointed elsewhere through the profile body
	resp = call(t, srv, "PUT", "/api/profile", "u1", strings.NewReader(`{"name":"Alice","avatarUrl":"http://x/blobs/avatars/u2/profile.png"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, avatar, decode[models.DigitalCard](t, resp).AvatarRef)

	resp = call(t, srv, "GET", "/api/profile/vcard", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vcard; charset=utf-8", resp.Header.Get("Content-Type"))
	vcard, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(vcard), "FN:Alice\r\n")

	resp = call(t, srv, "GET", "/api/profile/qr", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = call(t, srv, "DELETE", "/api/profile/avatar", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[models.DigitalCard](t, resp).AvatarRef)

	resp = call(t, srv, "PUT", "/api/profile", "u1", strings.NewReader(`{`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
