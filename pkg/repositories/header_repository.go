package repositories

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/gridsync-io/gridsync-engine/pkg/docstore"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// HeaderRepository defines data access for HeaderMapping documents under
// one table. List returns mappings ordered by column index; column index is
// the stable ordering key.
type HeaderRepository interface {
	Save(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, mapping *models.HeaderMapping) error
	SaveAll(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, mappings []*models.HeaderMapping) error
	List(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.HeaderMapping, error)
	Delete(ctx context.Context, connectionID, databaseID, tableID, id uuid.UUID) error
}

type headerRepository struct {
	store docstore.Store
}

// NewHeaderRepository creates a header repository over the store.
func NewHeaderRepository(store docstore.Store) HeaderRepository {
	return &headerRepository{store: store}
}

func (r *headerRepository) Save(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, mapping *models.HeaderMapping) error {
	rec, err := docstore.Encode(mapping)
	if err != nil {
		return fmt.Errorf("failed to encode header mapping: %w", err)
	}
	return r.store.Save(ctx, headersCollection(connectionID, databaseID, tableID), mapping.ID.String(), rec)
}

// SaveAll persists each mapping individually. The store skips unchanged
// documents, so re-saving a merged set only writes what actually changed.
func (r *headerRepository) SaveAll(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, mappings []*models.HeaderMapping) error {
	for _, m := range mappings {
		if err := r.Save(ctx, connectionID, databaseID, tableID, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *headerRepository) List(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.HeaderMapping, error) {
	docs, err := r.store.LoadAll(ctx, headersCollection(connectionID, databaseID, tableID))
	if err != nil {
		return nil, err
	}
	mappings := make([]*models.HeaderMapping, 0, len(docs))
	for _, d := range docs {
		var m models.HeaderMapping
		if err := docstore.Decode(d.Record, &m); err != nil {
			return nil, fmt.Errorf("failed to decode header mapping %s: %w", d.ID, err)
		}
		mappings = append(mappings, &m)
	}
	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].ColumnIndex < mappings[j].ColumnIndex
	})
	return mappings, nil
}

func (r *headerRepository) Delete(ctx context.Context, connectionID, databaseID, tableID, id uuid.UUID) error {
	return r.store.Delete(ctx, headersCollection(connectionID, databaseID, tableID), id.String())
}

// Ensure headerRepository implements HeaderRepository at compile time.
var _ HeaderRepository = (*headerRepository)(nil)
