package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bizcard/internal/database"
)

// Document is one stored record of a collection.
type Document struct {
	Collection string
	ID         string
	OwnerID    string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Documents is a schemaless document store over the documents table. Each
// document is a JSON object owned by one user.
type Documents struct {
	db  *database.DB
	now func() time.Time
}

// NewDocuments creates a document store
func NewDocuments(db *database.DB) *Documents {
	return &Documents{db: db, now: time.Now}
}

type createOptions struct {
	id string
}

// CreateOption customizes Create.
type CreateOption func(*createOptions)

// WithID stores the document under a caller-chosen id instead of a fresh one.
func WithID(id string) CreateOption {
	return func(o *createOptions) { o.id = id }
}

// NewID returns a fresh document id.
func NewID() string {
	return uuid.NewString()
}

// Create inserts data as a new document and returns its id
func (d *Documents) Create(ctx context.Context, collection, ownerID string, data any, opts ...CreateOption) (string, error) {
	o := createOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = NewID()
	}

	raw, err := encodeObject(data)
	if err != nil {
		return "", fail("create", err)
	}

	now := d.now().UTC()
	query := `INSERT INTO documents (collection, id, owner_id, data, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := d.db.Conn.ExecContext(ctx, query, collection, o.id, ownerID, string(raw), now, now); err != nil {
		return "", fail("create", errors.Wrapf(err, "insert %s/%s", collection, o.id))
	}
	return o.id, nil
}

// Set writes data under id, replacing any existing document
func (d *Documents) Set(ctx context.Context, collection, id, ownerID string, data any) error {
	raw, err := encodeObject(data)
	if err != nil {
		return fail("set", err)
	}
	now := d.now().UTC()
	query := `INSERT INTO documents (collection, id, owner_id, data, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (collection, id) DO UPDATE SET owner_id = excluded.owner_id, data = excluded.data, updated_at = excluded.updated_at`
	if _, err := d.db.Conn.ExecContext(ctx, query, collection, id, ownerID, string(raw), now, now); err != nil {
		return fail("set", errors.Wrapf(err, "upsert %s/%s", collection, id))
	}
	return nil
}

// Get returns a single document
func (d *Documents) Get(ctx context.Context, collection, id string) (Document, error) {
	query := `SELECT collection, id, owner_id, data, created_at, updated_at
			  FROM documents WHERE collection = $1 AND id = $2`
	doc, err := scanDocument(d.db.Conn.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fail("get", err)
	}
	return doc, nil
}

// Query returns every document of collection owned by ownerID, in insertion order
func (d *Documents) Query(ctx context.Context, collection, ownerID string) ([]Document, error) {
	query := `SELECT collection, id, owner_id, data, created_at, updated_at
			  FROM documents WHERE collection = $1 AND owner_id = $2
			  ORDER BY created_at, id`
	rows, err := d.db.Conn.QueryContext(ctx, query, collection, ownerID)
	if err != nil {
		return nil, fail("query", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fail("query", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("query", err)
	}
	return docs, nil
}

// Update merges fields into the top level of an existing document
func (d *Documents) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := d.db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return fail("update", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fail("update", err)
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(data), &merged); err != nil {
		return fail("update", errors.Wrapf(err, "stored document %s/%s is not an object", collection, id))
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return fail("update", errors.Wrapf(err, "encode field %q", k))
		}
		merged[k] = raw
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return fail("update", err)
	}

	query := `UPDATE documents SET data = $1, updated_at = $2 WHERE collection = $3 AND id = $4`
	if _, err := tx.ExecContext(ctx, query, string(out), d.now().UTC(), collection, id); err != nil {
		return fail("update", err)
	}
	if err := tx.Commit(); err != nil {
		return fail("update", err)
	}
	return nil
}

// Delete removes a document
func (d *Documents) Delete(ctx context.Context, collection, id string) error {
	res, err := d.db.Conn.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fail("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail("delete", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var doc Document
	var data string
	if err := row.Scan(&doc.Collection, &doc.ID, &doc.OwnerID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return Document{}, err
	}
	doc.Data = json.RawMessage(data)
	return doc, nil
}

// encodeObject marshals data and checks that it is a JSON object.
func encodeObject(data any) ([]byte, error) {
	var raw []byte
	switch v := data.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(data)
		if err != nil {
			return nil, errors.Wrap(err, "encode document")
		}
		raw = b
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, errors.New("document must be a JSON object")
	}
	return raw, nil
}
