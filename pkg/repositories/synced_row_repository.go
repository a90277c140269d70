package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridsync-io/gridsync-engine/pkg/docstore"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// SyncedRowRepository defines data access for a table's synced rows.
// Synchronization is full-replace: the orchestrator clears the collection
// and re-inserts the fresh batch.
type SyncedRowRepository interface {
	Save(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, row *models.SyncedRow) error
	List(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.SyncedRow, error)
	DeleteAll(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) error
}

type syncedRowRepository struct {
	store docstore.Store
}

// NewSyncedRowRepository creates a synced-row repository over the store.
func NewSyncedRowRepository(store docstore.Store) SyncedRowRepository {
	return &syncedRowRepository{store: store}
}

func (r *syncedRowRepository) Save(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, row *models.SyncedRow) error {
	rec, err := docstore.Encode(row)
	if err != nil {
		return fmt.Errorf("failed to encode synced row: %w", err)
	}
	return r.store.Save(ctx, syncedRowsCollection(connectionID, databaseID, tableID), row.DocID, rec)
}

func (r *syncedRowRepository) List(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.SyncedRow, error) {
	docs, err := r.store.LoadAll(ctx, syncedRowsCollection(connectionID, databaseID, tableID))
	if err != nil {
		return nil, err
	}
	rows := make([]*models.SyncedRow, 0, len(docs))
	for _, d := range docs {
		var row models.SyncedRow
		if err := docstore.Decode(d.Record, &row); err != nil {
			return nil, fmt.Errorf("failed to decode synced row %s: %w", d.ID, err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

func (r *syncedRowRepository) DeleteAll(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) error {
	return r.store.DeleteAll(ctx, syncedRowsCollection(connectionID, databaseID, tableID))
}

// Ensure syncedRowRepository implements SyncedRowRepository at compile time.
var _ SyncedRowRepository = (*syncedRowRepository)(nil)
