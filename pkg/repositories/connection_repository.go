package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridsync-io/gridsync-engine/pkg/docstore"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// ConnectionRepository defines data access for Connection documents.
type ConnectionRepository interface {
	Save(ctx context.Context, conn *models.Connection) error
	Get(ctx context.Context, id uuid.UUID) (*models.Connection, error)
	List(ctx context.Context) ([]*models.Connection, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type connectionRepository struct {
	store docstore.Store
}

// NewConnectionRepository creates a connection repository over the store.
func NewConnectionRepository(store docstore.Store) ConnectionRepository {
	return &connectionRepository{store: store}
}

func (r *connectionRepository) Save(ctx context.Context, conn *models.Connection) error {
	rec, err := docstore.Encode(conn)
	if err != nil {
		return fmt.Errorf("failed to encode connection: %w", err)
	}
	return r.store.Save(ctx, connectionsCollection, conn.ID.String(), rec)
}

func (r *connectionRepository) Get(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	rec, err := r.store.Load(ctx, connectionsCollection, id.String())
	if err != nil {
		return nil, err
	}
	var conn models.Connection
	if err := docstore.Decode(rec, &conn); err != nil {
		return nil, fmt.Errorf("failed to decode connection %s: %w", id, err)
	}
	return &conn, nil
}

func (r *connectionRepository) List(ctx context.Context) ([]*models.Connection, error) {
	docs, err := r.store.LoadAll(ctx, connectionsCollection)
	if err != nil {
		return nil, err
	}
	conns := make([]*models.Connection, 0, len(docs))
	for _, d := range docs {
		var conn models.Connection
		if err := docstore.Decode(d.Record, &conn); err != nil {
			return nil, fmt.Errorf("failed to decode connection %s: %w", d.ID, err)
		}
		conns = append(conns, &conn)
	}
	return conns, nil
}

func (r *connectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, connectionsCollection, id.String())
}

// Ensure connectionRepository implements ConnectionRepository at compile time.
var _ ConnectionRepository = (*connectionRepository)(nil)
