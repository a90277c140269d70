// Package docstore is the document-store boundary: hierarchical collections
// of JSON records with save/load/delete semantics. The backing store is a
// single Postgres jsonb table; callers only see collection paths and ids.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/apperrors"
	"github.com/gridsync-io/gridsync-engine/pkg/database"
)

// Record is one document's fields.
type Record map[string]any

// Document pairs a record with its id within a collection.
type Document struct {
	ID     string
	Record Record
}

// Store defines the document-store contract the rest of the system depends
// on. Save must no-op when the record is deep-equal to the stored one
// ignoring timestamp fields; repositories rely on that to avoid redundant
// writes on refresh.
type Store interface {
	Save(ctx context.Context, collection, id string, rec Record) error
	Load(ctx context.Context, collection, id string) (Record, error)
	LoadAll(ctx context.Context, collection string) ([]Document, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteAll(ctx context.Context, collection string) error
}

// pgStore implements Store on a Postgres jsonb table.
type pgStore struct {
	db     *database.DB
	logger *zap.Logger
}

// New creates a Postgres-backed document store.
func New(db *database.DB, logger *zap.Logger) Store {
	return &pgStore{db: db, logger: logger}
}

// Save upserts a record. The record is sanitized (nil fields stripped)
// before the write; a write deep-equal to the stored record (ignoring
// timestamp fields) is skipped.
func (s *pgStore) Save(ctx context.Context, collection, id string, rec Record) error {
	if collection == "" || id == "" {
		return fmt.Errorf("collection and id are required")
	}

	sanitized := SanitizeRecord(rec)
	payload, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	existing, err := s.Load(ctx, collection, id)
	if err == nil && EqualIgnoringTimestamps(existing, sanitized) {
		s.logger.Debug("Skipping unchanged document",
			zap.String("collection", collection),
			zap.String("id", id))
		return nil
	}

	query := `
		INSERT INTO documents (collection, doc_id, record, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (collection, doc_id)
		DO UPDATE SET record = EXCLUDED.record, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, collection, id, payload); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Load retrieves one record. Returns apperrors.ErrNotFound when absent.
func (s *pgStore) Load(ctx context.Context, collection, id string) (Record, error) {
	query := `SELECT record FROM documents WHERE collection = $1 AND doc_id = $2`

	var payload []byte
	err := s.db.QueryRow(ctx, query, collection, id).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return rec, nil
}

// LoadAll retrieves every record in a collection, oldest first.
func (s *pgStore) LoadAll(ctx context.Context, collection string) ([]Document, error) {
	query := `
		SELECT doc_id, record FROM documents
		WHERE collection = $1
		ORDER BY created_at, doc_id`

	rows, err := s.db.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
		}
		docs = append(docs, Document{ID: id, Record: rec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}
	return docs, nil
}

// Delete removes one record. Deleting an absent record is not an error.
func (s *pgStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND doc_id = $2`
	if _, err := s.db.Exec(ctx, query, collection, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteAll removes every record in a collection.
func (s *pgStore) DeleteAll(ctx context.Context, collection string) error {
	query := `DELETE FROM documents WHERE collection = $1`
	if _, err := s.db.Exec(ctx, query, collection); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	return nil
}

// Encode converts a typed model into a Record through its JSON form.
// time.Time fields become RFC3339 strings, which is the store-native
// timestamp representation.
func Encode(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return rec, nil
}

// Decode converts a Record back into a typed model. RFC3339 strings decode
// back into time.Time fields.
func Decode(rec Record, dest any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// Ensure pgStore implements Store at compile time.
var _ Store = (*pgStore)(nil)
