package store

import (
	"context"
	"database/sql"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"bizcard/internal/database"
)

// Blob is a stored binary object.
type Blob struct {
	Path        string
	ContentType string
	Data        []byte
	UpdatedAt   time.Time
}

// BlobStore keeps card images and avatars. Upload returns a reference that
// can be served from /blobs/{path}.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
	Open(ctx context.Context, path string) (Blob, error)
	Delete(ctx context.Context, path string) error
}

// Refs converts between blob paths and the public references stored on
// documents.
type Refs struct {
	BaseURL string
}

// For returns the public reference of path.
func (r Refs) For(p string) string {
	return strings.TrimRight(r.BaseURL, "/") + "/blobs/" + p
}

// Path extracts the blob path from a reference produced by For. Refs that
// point elsewhere are rejected.
func (r Refs) Path(ref string) (string, error) {
	prefix := strings.TrimRight(r.BaseURL, "/") + "/blobs/"
	if !strings.HasPrefix(ref, prefix) {
		return "", errors.Errorf("reference %q is not a local blob", ref)
	}
	return CleanPath(strings.TrimPrefix(ref, prefix))
}

// CleanPath validates a relative, slash separated blob path.
func CleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", errors.Errorf("invalid blob path %q", p)
	}
	clean := path.Clean(p)
	if clean != p || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", errors.Errorf("invalid blob path %q", p)
	}
	return clean, nil
}

// CardImagePath is where one side of a card image is stored.
func CardImagePath(ownerID, cardID, side string) string {
	return "cards/" + ownerID + "/" + cardID + "_" + side + ".jpg"
}

// AvatarPath is where an owner's profile picture is stored.
func AvatarPath(ownerID string) string {
	return "avatars/" + ownerID + "/profile.png"
}

// SQLBlobs stores blobs in the blobs table.
type SQLBlobs struct {
	db   *database.DB
	refs Refs
}

// NewSQLBlobs creates a blob store backed by db
func NewSQLBlobs(db *database.DB, refs Refs) *SQLBlobs {
	return &SQLBlobs{db: db, refs: refs}
}

// Upload stores data at p, replacing any previous blob
func (s *SQLBlobs) Upload(ctx context.Context, p, contentType string, data []byte) (string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return "", fail("upload", err)
	}
	query := `INSERT INTO blobs (path, content_type, data, updated_at) VALUES ($1, $2, $3, $4)
			  ON CONFLICT (path) DO UPDATE SET content_type = excluded.content_type, data = excluded.data, updated_at = excluded.updated_at`
	if _, err := s.db.Conn.ExecContext(ctx, query, p, contentType, data, time.Now().UTC()); err != nil {
		return "", fail("upload", errors.Wrapf(err, "store blob %s", p))
	}
	return s.refs.For(p), nil
}

// Open reads the blob at p
func (s *SQLBlobs) Open(ctx context.Context, p string) (Blob, error) {
	p, err := CleanPath(p)
	if err != nil {
		return Blob{}, ErrNotFound
	}
	b := Blob{Path: p}
	query := `SELECT content_type, data, updated_at FROM blobs WHERE path = $1`
	err = s.db.Conn.QueryRowContext(ctx, query, p).Scan(&b.ContentType, &b.Data, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, ErrNotFound
	}
	if err != nil {
		return Blob{}, fail("open", err)
	}
	return b, nil
}

// Delete removes the blob at p
func (s *SQLBlobs) Delete(ctx context.Context, p string) error {
	p, err := CleanPath(p)
	if err != nil {
		return fail("delete", err)
	}
	res, err := s.db.Conn.ExecContext(ctx, `DELETE FROM blobs WHERE path = $1`, p)
	if err != nil {
		return fail("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DiskBlobs stores blobs as files under a root directory. The content type
// is derived from the file extension.
type DiskBlobs struct {
	root string
	refs Refs
}

// NewDiskBlobs creates the root directory if needed
func NewDiskBlobs(root string, refs Refs) (*DiskBlobs, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create blob dir")
	}
	return &DiskBlobs{root: root, refs: refs}, nil
}

func (d *DiskBlobs) file(p string) (string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(p)), nil
}

// Upload writes data to the file for p, going through a temp file so
// readers never see a partial image
func (d *DiskBlobs) Upload(ctx context.Context, p, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fail("upload", err)
	}
	name, err := d.file(p)
	if err != nil {
		return "", fail("upload", err)
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", fail("upload", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), ".upload-*")
	if err != nil {
		return "", fail("upload", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fail("upload", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fail("upload", err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return "", fail("upload", err)
	}
	return d.refs.For(p), nil
}

// Open reads the file for p
func (d *DiskBlobs) Open(ctx context.Context, p string) (Blob, error) {
	name, err := d.file(p)
	if err != nil {
		return Blob{}, ErrNotFound
	}
	info, err := os.Stat(name)
	if errors.Is(err, os.ErrNotExist) {
		return Blob{}, ErrNotFound
	}
	if err != nil {
		return Blob{}, fail("open", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return Blob{}, fail("open", err)
	}
	ct := mime.TypeByExtension(path.Ext(p))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return Blob{Path: p, ContentType: ct, Data: data, UpdatedAt: info.ModTime()}, nil
}

// Delete removes the file for p
func (d *DiskBlobs) Delete(ctx context.Context, p string) error {
	name, err := d.file(p)
	if err != nil {
		return fail("delete", err)
	}
	err = os.Remove(name)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return fail("delete", err)
}
