package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/apperrors"
	"github.com/gridsync-io/gridsync-engine/pkg/mapper"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/repositories"
	"github.com/gridsync-io/gridsync-engine/pkg/sheets"
)

// SyncResult summarizes one completed table sync.
type SyncResult struct {
	RowsSynced  int           `json:"rows_synced"`
	RowsSkipped int           `json:"rows_skipped"`
	Source      sheets.Method `json:"source"`
	Duration    time.Duration `json:"duration"`
}

// SyncService replaces a table's synced rows with the sheet's current data.
//
// A sync walks testing-access, fetching-data, clearing-old, writing-new in
// strict order. Preconditions (at least one enabled mapping, exactly one key
// mapping) are checked before any I/O; a violation leaves the store
// untouched. The old row set is cleared only after a non-empty fetch, so a
// transient failure never wipes existing data. There is no retry and no
// lock: the deployment assumes a single operator.
type SyncService interface {
	Sync(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) (*SyncResult, error)
	Rows(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.SyncedRow, error)
}

type syncService struct {
	connRepo   repositories.ConnectionRepository
	dbRepo     repositories.DatabaseRepository
	tableRepo  repositories.TableRepository
	headerRepo repositories.HeaderRepository
	rowRepo    repositories.SyncedRowRepository
	client     sheets.Client
	logger     *zap.Logger
}

// NewSyncService creates a sync service.
func NewSyncService(
	connRepo repositories.ConnectionRepository,
	dbRepo repositories.DatabaseRepository,
	tableRepo repositories.TableRepository,
	headerRepo repositories.HeaderRepository,
	rowRepo repositories.SyncedRowRepository,
	client sheets.Client,
	logger *zap.Logger,
) SyncService {
	return &syncService{
		connRepo:   connRepo,
		dbRepo:     dbRepo,
		tableRepo:  tableRepo,
		headerRepo: headerRepo,
		rowRepo:    rowRepo,
		client:     client,
		logger:     logger,
	}
}

func (s *syncService) Sync(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) (*SyncResult, error) {
	started := time.Now()

	conn, err := s.connRepo.Get(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	db, err := s.dbRepo.Get(ctx, connectionID, databaseID)
	if err != nil {
		return nil, err
	}
	table, err := s.tableRepo.Get(ctx, connectionID, databaseID, tableID)
	if err != nil {
		return nil, err
	}
	mappings, err := s.headerRepo.List(ctx, connectionID, databaseID, tableID)
	if err != nil {
		return nil, err
	}

	// Configuration faults abort before any network or store mutation.
	enabled := mapper.EnabledMappings(mappings)
	if len(enabled) == 0 {
		return nil, apperrors.ErrNoEnabledHeaders
	}
	keys := 0
	for _, m := range mappings {
		if m.IsKey {
			keys++
		}
	}
	if keys == 0 {
		return nil, apperrors.ErrNoKeyHeader
	}
	if keys > 1 {
		return nil, apperrors.ErrMultipleKeyHeaders
	}
	keyMapping := mapper.KeyMapping(mappings)

	table.Status = models.StatusTesting
	table.ErrorMessage = ""
	table.UpdatedAt = time.Now()
	if err := s.tableRepo.Save(ctx, connectionID, databaseID, table); err != nil {
		return nil, fmt.Errorf("failed to save table: %w", err)
	}

	if _, err := s.client.TestAccess(ctx, conn, db.SpreadsheetID); err != nil {
		// Provider text passed through untouched; the operator needs it.
		return nil, s.fail(ctx, connectionID, databaseID, table, err)
	}

	data, err := s.client.FetchData(ctx, conn, db.SpreadsheetID, table.SheetName)
	if err != nil {
		return nil, s.fail(ctx, connectionID, databaseID, table, err)
	}

	// Row 0 is the header row.
	if len(data.Rows) <= 1 {
		return nil, s.fail(ctx, connectionID, databaseID, table,
			fmt.Errorf("sheet %q: %w", table.SheetName, apperrors.ErrEmptySheetData))
	}
	dataRows := data.Rows[1:]

	if err := s.rowRepo.DeleteAll(ctx, connectionID, databaseID, tableID); err != nil {
		return nil, s.fail(ctx, connectionID, databaseID, table,
			fmt.Errorf("failed to clear synced rows: %w", err))
	}

	now := time.Now()
	written, skipped := 0, 0
	for i, cells := range dataRows {
		docID := mapper.Clean(cell(cells, keyMapping.ColumnIndex))
		if docID == "" {
			skipped++
			s.logger.Warn("row skipped: key cell sanitizes to empty",
				zap.String("table_id", tableID.String()),
				zap.Int("row", i+1))
			continue
		}

		fields := make(map[string]string, len(enabled))
		for _, m := range enabled {
			fields[m.VariableName] = cell(cells, m.ColumnIndex)
		}

		row := &models.SyncedRow{DocID: docID, Fields: fields, SyncedAt: now}
		if err := s.rowRepo.Save(ctx, connectionID, databaseID, tableID, row); err != nil {
			return nil, s.fail(ctx, connectionID, databaseID, table,
				fmt.Errorf("failed to save row %q: %w", docID, err))
		}
		written++
	}

	table.Status = models.StatusConnected
	table.ErrorMessage = ""
	table.RowCount = written
	table.LastSynced = now
	table.UpdatedAt = time.Now()
	if err := s.tableRepo.Save(ctx, connectionID, databaseID, table); err != nil {
		return nil, fmt.Errorf("failed to save table: %w", err)
	}

	result := &SyncResult{
		RowsSynced:  written,
		RowsSkipped: skipped,
		Source:      data.Source,
		Duration:    time.Since(started),
	}
	s.logger.Info("table synced",
		zap.String("table_id", tableID.String()),
		zap.Int("rows_synced", result.RowsSynced),
		zap.Int("rows_skipped", result.RowsSkipped),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (s *syncService) Rows(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.SyncedRow, error) {
	return s.rowRepo.List(ctx, connectionID, databaseID, tableID)
}

// fail records the terminal error on the table and returns it.
func (s *syncService) fail(ctx context.Context, connectionID, databaseID uuid.UUID, table *models.SheetTable, cause error) error {
	table.Status = models.StatusError
	table.ErrorMessage = cause.Error()
	table.UpdatedAt = time.Now()
	if err := s.tableRepo.Save(ctx, connectionID, databaseID, table); err != nil {
		s.logger.Error("failed to record sync failure",
			zap.String("table_id", table.ID.String()),
			zap.Error(err))
	}
	return cause
}

// cell returns the value at idx or "" when the row is short.
func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// Ensure syncService implements SyncService at compile time.
var _ SyncService = (*syncService)(nil)
