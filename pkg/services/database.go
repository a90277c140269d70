package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/repositories"
	"github.com/gridsync-io/gridsync-engine/pkg/sheets"
)

// DatabaseService manages registered spreadsheets under a connection.
type DatabaseService interface {
	Create(ctx context.Context, connectionID uuid.UUID, db *models.SheetDatabase) (*models.SheetDatabase, error)

	// Get returns the database, opportunistically re-probing its tab list
	// when the cached copy is older than the configured max age. A failed
	// re-probe keeps the stale list.
	Get(ctx context.Context, connectionID, id uuid.UUID) (*models.SheetDatabase, error)

	List(ctx context.Context, connectionID uuid.UUID) ([]*models.SheetDatabase, error)
	Update(ctx context.Context, connectionID uuid.UUID, db *models.SheetDatabase) (*models.SheetDatabase, error)
	Delete(ctx context.Context, connectionID, id uuid.UUID) error

	// RefreshSheets forces a tab-list probe regardless of cache age.
	RefreshSheets(ctx context.Context, connectionID, id uuid.UUID) (*models.SheetDatabase, error)
}

type databaseService struct {
	connRepo   repositories.ConnectionRepository
	dbRepo     repositories.DatabaseRepository
	tableRepo  repositories.TableRepository
	client     sheets.Client
	listMaxAge time.Duration
	logger     *zap.Logger
}

// NewDatabaseService creates a database service. listMaxAge bounds how long
// a cached tab list is trusted before Get re-probes it.
func NewDatabaseService(
	connRepo repositories.ConnectionRepository,
	dbRepo repositories.DatabaseRepository,
	tableRepo repositories.TableRepository,
	client sheets.Client,
	listMaxAge time.Duration,
	logger *zap.Logger,
) DatabaseService {
	return &databaseService{
		connRepo:   connRepo,
		dbRepo:     dbRepo,
		tableRepo:  tableRepo,
		client:     client,
		listMaxAge: listMaxAge,
		logger:     logger,
	}
}

func (s *databaseService) Create(ctx context.Context, connectionID uuid.UUID, db *models.SheetDatabase) (*models.SheetDatabase, error) {
	if db.Name == "" {
		return nil, fmt.Errorf("database name is required")
	}
	if db.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	conn, err := s.connRepo.Get(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	db.ID = uuid.New()
	db.ConnectionID = connectionID
	db.CreatedAt = now
	db.UpdatedAt = now

	s.probe(ctx, conn, db)

	if err := s.dbRepo.Save(ctx, connectionID, db); err != nil {
		return nil, fmt.Errorf("failed to save database: %w", err)
	}

	s.logger.Info("database registered",
		zap.String("database_id", db.ID.String()),
		zap.String("spreadsheet_id", db.SpreadsheetID),
		zap.String("status", db.Status))
	return db, nil
}

func (s *databaseService) Get(ctx context.Context, connectionID, id uuid.UUID) (*models.SheetDatabase, error) {
	db, err := s.dbRepo.Get(ctx, connectionID, id)
	if err != nil {
		return nil, err
	}

	if time.Since(db.SheetNamesFetchedAt) < s.listMaxAge && len(db.SheetNames) > 0 {
		return db, nil
	}

	conn, err := s.connRepo.Get(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	result, listErr := s.client.ListSheets(ctx, conn, db.SpreadsheetID)
	if listErr != nil {
		// Stale data beats no data here.
		s.logger.Warn("opportunistic sheet list refresh failed",
			zap.String("database_id", id.String()),
			zap.Error(listErr))
		return db, nil
	}

	s.applySheetList(db, result)
	if err := s.dbRepo.Save(ctx, connectionID, db); err != nil {
		return nil, fmt.Errorf("failed to save database: %w", err)
	}
	return db, nil
}

func (s *databaseService) List(ctx context.Context, connectionID uuid.UUID) ([]*models.SheetDatabase, error) {
	return s.dbRepo.List(ctx, connectionID)
}

func (s *databaseService) Update(ctx context.Context, connectionID uuid.UUID, db *models.SheetDatabase) (*models.SheetDatabase, error) {
	existing, err := s.dbRepo.Get(ctx, connectionID, db.ID)
	if err != nil {
		return nil, err
	}

	if db.Name != "" {
		existing.Name = db.Name
	}
	if db.SpreadsheetID != "" && db.SpreadsheetID != existing.SpreadsheetID {
		// Pointing at a different spreadsheet invalidates the cached tabs.
		existing.SpreadsheetID = db.SpreadsheetID
		existing.SheetNames = nil
		existing.SheetNamesFetchedAt = time.Time{}
		existing.Status = models.StatusPending
		existing.ErrorMessage = ""
	}
	existing.UpdatedAt = time.Now()

	if err := s.dbRepo.Save(ctx, connectionID, existing); err != nil {
		return nil, fmt.Errorf("failed to save database: %w", err)
	}
	return existing, nil
}

func (s *databaseService) Delete(ctx context.Context, connectionID, id uuid.UUID) error {
	tables, err := s.tableRepo.List(ctx, connectionID, id)
	if err != nil {
		return fmt.Errorf("failed to list tables for database %s: %w", id, err)
	}
	for _, table := range tables {
		if err := s.tableRepo.Delete(ctx, connectionID, id, table.ID); err != nil {
			return fmt.Errorf("failed to delete table %s: %w", table.ID, err)
		}
	}
	return s.dbRepo.Delete(ctx, connectionID, id)
}

func (s *databaseService) RefreshSheets(ctx context.Context, connectionID, id uuid.UUID) (*models.SheetDatabase, error) {
	db, err := s.dbRepo.Get(ctx, connectionID, id)
	if err != nil {
		return nil, err
	}
	conn, err := s.connRepo.Get(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	s.probe(ctx, conn, db)
	db.UpdatedAt = time.Now()

	if err := s.dbRepo.Save(ctx, connectionID, db); err != nil {
		return nil, fmt.Errorf("failed to save database: %w", err)
	}
	return db, nil
}

// probe tests reachability and refreshes the tab list, recording the
// outcome on the database record.
func (s *databaseService) probe(ctx context.Context, conn *models.Connection, db *models.SheetDatabase) {
	db.LastTested = time.Now()

	result, err := s.client.ListSheets(ctx, conn, db.SpreadsheetID)
	if err != nil {
		db.Status = models.StatusError
		db.ErrorMessage = err.Error()
		return
	}
	s.applySheetList(db, result)
}

func (s *databaseService) applySheetList(db *models.SheetDatabase, result *sheets.ListResult) {
	db.SheetNames = result.SheetNames
	db.SheetNamesFetchedAt = time.Now()
	db.ErrorMessage = ""
	if result.Source == sheets.MethodFallback {
		// Catalog data reached the operator; flagged so placeholder tabs
		// are distinguishable from live ones.
		db.Status = models.StatusFallback
	} else {
		db.Status = models.StatusConnected
	}
}

// Ensure databaseService implements DatabaseService at compile time.
var _ DatabaseService = (*databaseService)(nil)
