package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/apperrors"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/repositories"
)

// TableService manages mapped sheet tabs under a database. A table's sheet
// name must exist in the owning database's cached tab list.
type TableService interface {
	Create(ctx context.Context, connectionID, databaseID uuid.UUID, table *models.SheetTable) (*models.SheetTable, error)
	Get(ctx context.Context, connectionID, databaseID, id uuid.UUID) (*models.SheetTable, error)
	List(ctx context.Context, connectionID, databaseID uuid.UUID) ([]*models.SheetTable, error)
	Update(ctx context.Context, connectionID, databaseID uuid.UUID, table *models.SheetTable) (*models.SheetTable, error)
	Delete(ctx context.Context, connectionID, databaseID, id uuid.UUID) error
}

type tableService struct {
	dbRepo     repositories.DatabaseRepository
	tableRepo  repositories.TableRepository
	headerRepo repositories.HeaderRepository
	rowRepo    repositories.SyncedRowRepository
	logger     *zap.Logger
}

// NewTableService creates a table service.
func NewTableService(
	dbRepo repositories.DatabaseRepository,
	tableRepo repositories.TableRepository,
	headerRepo repositories.HeaderRepository,
	rowRepo repositories.SyncedRowRepository,
	logger *zap.Logger,
) TableService {
	return &tableService{
		dbRepo:     dbRepo,
		tableRepo:  tableRepo,
		headerRepo: headerRepo,
		rowRepo:    rowRepo,
		logger:     logger,
	}
}

func (s *tableService) Create(ctx context.Context, connectionID, databaseID uuid.UUID, table *models.SheetTable) (*models.SheetTable, error) {
	if table.Name == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if table.SheetName == "" {
		return nil, fmt.Errorf("sheet name is required")
	}

	db, err := s.dbRepo.Get(ctx, connectionID, databaseID)
	if err != nil {
		return nil, err
	}
	if !db.HasSheet(table.SheetName) {
		return nil, fmt.Errorf("sheet %q: %w", table.SheetName, apperrors.ErrUnknownSheet)
	}

	now := time.Now()
	table.ID = uuid.New()
	table.DatabaseID = databaseID
	table.Status = models.StatusPending
	table.CreatedAt = now
	table.UpdatedAt = now

	if err := s.tableRepo.Save(ctx, connectionID, databaseID, table); err != nil {
		return nil, fmt.Errorf("failed to save table: %w", err)
	}

	s.logger.Info("table created",
		zap.String("table_id", table.ID.String()),
		zap.String("sheet_name", table.SheetName))
	return table, nil
}

func (s *tableService) Get(ctx context.Context, connectionID, databaseID, id uuid.UUID) (*models.SheetTable, error) {
	return s.tableRepo.Get(ctx, connectionID, databaseID, id)
}

func (s *tableService) List(ctx context.Context, connectionID, databaseID uuid.UUID) ([]*models.SheetTable, error) {
	return s.tableRepo.List(ctx, connectionID, databaseID)
}

func (s *tableService) Update(ctx context.Context, connectionID, databaseID uuid.UUID, table *models.SheetTable) (*models.SheetTable, error) {
	existing, err := s.tableRepo.Get(ctx, connectionID, databaseID, table.ID)
	if err != nil {
		return nil, err
	}

	if table.Name != "" {
		existing.Name = table.Name
	}
	if table.SheetName != "" && table.SheetName != existing.SheetName {
		db, err := s.dbRepo.Get(ctx, connectionID, databaseID)
		if err != nil {
			return nil, err
		}
		if !db.HasSheet(table.SheetName) {
			return nil, fmt.Errorf("sheet %q: %w", table.SheetName, apperrors.ErrUnknownSheet)
		}
		// A different tab means the headers and rows no longer apply.
		existing.SheetName = table.SheetName
		existing.Status = models.StatusPending
		existing.ErrorMessage = ""
		existing.RowCount = 0
		existing.LastSynced = time.Time{}
	}
	existing.UpdatedAt = time.Now()

	if err := s.tableRepo.Save(ctx, connectionID, databaseID, existing); err != nil {
		return nil, fmt.Errorf("failed to save table: %w", err)
	}
	return existing, nil
}

func (s *tableService) Delete(ctx context.Context, connectionID, databaseID, id uuid.UUID) error {
	mappings, err := s.headerRepo.List(ctx, connectionID, databaseID, id)
	if err != nil {
		return fmt.Errorf("failed to list header mappings for table %s: %w", id, err)
	}
	for _, m := range mappings {
		if err := s.headerRepo.Delete(ctx, connectionID, databaseID, id, m.ID); err != nil {
			return fmt.Errorf("failed to delete header mapping %s: %w", m.ID, err)
		}
	}
	if err := s.rowRepo.DeleteAll(ctx, connectionID, databaseID, id); err != nil {
		return fmt.Errorf("failed to delete synced rows for table %s: %w", id, err)
	}
	return s.tableRepo.Delete(ctx, connectionID, databaseID, id)
}

// Ensure tableService implements TableService at compile time.
var _ TableService = (*tableService)(nil)
