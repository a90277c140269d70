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

// HeaderUpdate carries the per-mapping fields an operator may change. Nil
// pointers leave the stored value alone.
type HeaderUpdate struct {
	VariableName *string `json:"variable_name,omitempty"`
	DataType     *string `json:"data_type,omitempty"`
	IsEnabled    *bool   `json:"is_enabled,omitempty"`
}

// HeaderService manages the column mappings of a table.
type HeaderService interface {
	// Probe fetches the sheet's header row and generates fresh mappings,
	// replacing none: it is meant for a table with no mappings yet. With
	// existing mappings it merges instead, preserving customization.
	Probe(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.HeaderMapping, error)

	List(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.HeaderMapping, error)
	Update(ctx context.Context, connectionID, databaseID, tableID, mappingID uuid.UUID, update *HeaderUpdate) (*models.HeaderMapping, error)

	// SetKey marks one mapping as the key column, clearing the flag on all
	// siblings and force-enabling the chosen mapping.
	SetKey(ctx context.Context, connectionID, databaseID, tableID, mappingID uuid.UUID) ([]*models.HeaderMapping, error)
}

type headerService struct {
	connRepo   repositories.ConnectionRepository
	dbRepo     repositories.DatabaseRepository
	tableRepo  repositories.TableRepository
	headerRepo repositories.HeaderRepository
	client     sheets.Client
	logger     *zap.Logger
}

// NewHeaderService creates a header service.
func NewHeaderService(
	connRepo repositories.ConnectionRepository,
	dbRepo repositories.DatabaseRepository,
	tableRepo repositories.TableRepository,
	headerRepo repositories.HeaderRepository,
	client sheets.Client,
	logger *zap.Logger,
) HeaderService {
	return &headerService{
		connRepo:   connRepo,
		dbRepo:     dbRepo,
		tableRepo:  tableRepo,
		headerRepo: headerRepo,
		client:     client,
		logger:     logger,
	}
}

func (s *headerService) Probe(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.HeaderMapping, error) {
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

	result, err := s.client.FetchHeaders(ctx, conn, db.SpreadsheetID, table.SheetName)
	if err != nil {
		table.Status = models.StatusError
		table.ErrorMessage = err.Error()
		table.UpdatedAt = time.Now()
		if saveErr := s.tableRepo.Save(ctx, connectionID, databaseID, table); saveErr != nil {
			s.logger.Error("failed to record header probe failure", zap.Error(saveErr))
		}
		return nil, err
	}

	existing, err := s.headerRepo.List(ctx, connectionID, databaseID, tableID)
	if err != nil {
		return nil, err
	}

	fresh := mapper.Generate(tableID, conn.Name, db.Name, table.Name, result.Headers)
	merged := fresh
	if len(existing) > 0 {
		merged = mapper.Merge(existing, fresh)
	}

	if err := s.headerRepo.SaveAll(ctx, connectionID, databaseID, tableID, merged); err != nil {
		return nil, fmt.Errorf("failed to save header mappings: %w", err)
	}

	table.HeaderCount = len(merged)
	table.ErrorMessage = ""
	if result.Source == sheets.MethodFallback {
		table.Status = models.StatusFallback
	} else if table.Status != models.StatusConnected {
		table.Status = models.StatusPending
	}
	table.UpdatedAt = time.Now()
	if err := s.tableRepo.Save(ctx, connectionID, databaseID, table); err != nil {
		return nil, fmt.Errorf("failed to save table: %w", err)
	}

	s.logger.Info("headers probed",
		zap.String("table_id", tableID.String()),
		zap.Int("header_count", len(merged)),
		zap.String("source", string(result.Source)))
	return s.headerRepo.List(ctx, connectionID, databaseID, tableID)
}

func (s *headerService) List(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.HeaderMapping, error) {
	return s.headerRepo.List(ctx, connectionID, databaseID, tableID)
}

func (s *headerService) Update(ctx context.Context, connectionID, databaseID, tableID, mappingID uuid.UUID, update *HeaderUpdate) (*models.HeaderMapping, error) {
	mappings, err := s.headerRepo.List(ctx, connectionID, databaseID, tableID)
	if err != nil {
		return nil, err
	}

	var target *models.HeaderMapping
	for _, m := range mappings {
		if m.ID == mappingID {
			target = m
			break
		}
	}
	if target == nil {
		return nil, apperrors.ErrNotFound
	}

	if update.VariableName != nil {
		name := mapper.Clean(*update.VariableName)
		if name == "" {
			return nil, fmt.Errorf("variable name sanitizes to empty")
		}
		target.VariableName = name
	}
	if update.DataType != nil {
		if !models.ValidDataType(*update.DataType) {
			return nil, fmt.Errorf("unknown data type %q", *update.DataType)
		}
		target.DataType = *update.DataType
	}
	if update.IsEnabled != nil {
		if !*update.IsEnabled && target.IsKey {
			return nil, fmt.Errorf("key column cannot be disabled: %w", apperrors.ErrConflict)
		}
		target.IsEnabled = *update.IsEnabled
	}

	if err := s.headerRepo.Save(ctx, connectionID, databaseID, tableID, target); err != nil {
		return nil, fmt.Errorf("failed to save header mapping: %w", err)
	}
	return target, nil
}

func (s *headerService) SetKey(ctx context.Context, connectionID, databaseID, tableID, mappingID uuid.UUID) ([]*models.HeaderMapping, error) {
	mappings, err := s.headerRepo.List(ctx, connectionID, databaseID, tableID)
	if err != nil {
		return nil, err
	}

	if !mapper.SetKey(mappings, mappingID) {
		return nil, apperrors.ErrNotFound
	}

	// The store skips unchanged siblings, so this writes at most two docs.
	if err := s.headerRepo.SaveAll(ctx, connectionID, databaseID, tableID, mappings); err != nil {
		return nil, fmt.Errorf("failed to save header mappings: %w", err)
	}
	return mappings, nil
}

// Ensure headerService implements HeaderService at compile time.
var _ HeaderService = (*headerService)(nil)
