package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridsync-io/gridsync-engine/pkg/docstore"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// TableRepository defines data access for SheetTable documents under one
// database.
type TableRepository interface {
	Save(ctx context.Context, connectionID, databaseID uuid.UUID, table *models.SheetTable) error
	Get(ctx context.Context, connectionID, databaseID, id uuid.UUID) (*models.SheetTable, error)
	List(ctx context.Context, connectionID, databaseID uuid.UUID) ([]*models.SheetTable, error)
	Delete(ctx context.Context, connectionID, databaseID, id uuid.UUID) error
}

type tableRepository struct {
	store docstore.Store
}

// NewTableRepository creates a table repository over the store.
func NewTableRepository(store docstore.Store) TableRepository {
	return &tableRepository{store: store}
}

func (r *tableRepository) Save(ctx context.Context, connectionID, databaseID uuid.UUID, table *models.SheetTable) error {
	rec, err := docstore.Encode(table)
	if err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	return r.store.Save(ctx, tablesCollection(connectionID, databaseID), table.ID.String(), rec)
}

func (r *tableRepository) Get(ctx context.Context, connectionID, databaseID, id uuid.UUID) (*models.SheetTable, error) {
	rec, err := r.store.Load(ctx, tablesCollection(connectionID, databaseID), id.String())
	if err != nil {
		return nil, err
	}
	var table models.SheetTable
	if err := docstore.Decode(rec, &table); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", id, err)
	}
	return &table, nil
}

func (r *tableRepository) List(ctx context.Context, connectionID, databaseID uuid.UUID) ([]*models.SheetTable, error) {
	docs, err := r.store.LoadAll(ctx, tablesCollection(connectionID, databaseID))
	if err != nil {
		return nil, err
	}
	tables := make([]*models.SheetTable, 0, len(docs))
	for _, d := range docs {
		var table models.SheetTable
		if err := docstore.Decode(d.Record, &table); err != nil {
			return nil, fmt.Errorf("failed to decode table %s: %w", d.ID, err)
		}
		tables = append(tables, &table)
	}
	return tables, nil
}

func (r *tableRepository) Delete(ctx context.Context, connectionID, databaseID, id uuid.UUID) error {
	return r.store.Delete(ctx, tablesCollection(connectionID, databaseID), id.String())
}

// Ensure tableRepository implements TableRepository at compile time.
var _ TableRepository = (*tableRepository)(nil)
