package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridsync-io/gridsync-engine/pkg/docstore"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// DatabaseRepository defines data access for SheetDatabase documents under
// one connection.
type DatabaseRepository interface {
	Save(ctx context.Context, connectionID uuid.UUID, db *models.SheetDatabase) error
	Get(ctx context.Context, connectionID, id uuid.UUID) (*models.SheetDatabase, error)
	List(ctx context.Context, connectionID uuid.UUID) ([]*models.SheetDatabase, error)
	Delete(ctx context.Context, connectionID, id uuid.UUID) error
}

type databaseRepository struct {
	store docstore.Store
}

// NewDatabaseRepository creates a database repository over the store.
func NewDatabaseRepository(store docstore.Store) DatabaseRepository {
	return &databaseRepository{store: store}
}

func (r *databaseRepository) Save(ctx context.Context, connectionID uuid.UUID, db *models.SheetDatabase) error {
	rec, err := docstore.Encode(db)
	if err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}
	return r.store.Save(ctx, databasesCollection(connectionID), db.ID.String(), rec)
}

func (r *databaseRepository) Get(ctx context.Context, connectionID, id uuid.UUID) (*models.SheetDatabase, error) {
	rec, err := r.store.Load(ctx, databasesCollection(connectionID), id.String())
	if err != nil {
		return nil, err
	}
	var db models.SheetDatabase
	if err := docstore.Decode(rec, &db); err != nil {
		return nil, fmt.Errorf("failed to decode database %s: %w", id, err)
	}
	return &db, nil
}

func (r *databaseRepository) List(ctx context.Context, connectionID uuid.UUID) ([]*models.SheetDatabase, error) {
	docs, err := r.store.LoadAll(ctx, databasesCollection(connectionID))
	if err != nil {
		return nil, err
	}
	dbs := make([]*models.SheetDatabase, 0, len(docs))
	for _, d := range docs {
		var db models.SheetDatabase
		if err := docstore.Decode(d.Record, &db); err != nil {
			return nil, fmt.Errorf("failed to decode database %s: %w", d.ID, err)
		}
		dbs = append(dbs, &db)
	}
	return dbs, nil
}

func (r *databaseRepository) Delete(ctx context.Context, connectionID, id uuid.UUID) error {
	return r.store.Delete(ctx, databasesCollection(connectionID), id.String())
}

// Ensure databaseRepository implements DatabaseRepository at compile time.
var _ DatabaseRepository = (*databaseRepository)(nil)
