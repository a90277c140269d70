package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/logging"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/repositories"
	"github.com/gridsync-io/gridsync-engine/pkg/sheets"
)

// ConnectionService manages Google Sheets credential sets.
type ConnectionService interface {
	Create(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Connection, error)
	List(ctx context.Context) ([]*models.Connection, error)
	Update(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Test probes the given spreadsheet with the connection's credentials
	// and records the outcome on the connection record. With an empty
	// spreadsheet id only the credential shape is validated.
	Test(ctx context.Context, id uuid.UUID, spreadsheetID string) (*models.Connection, error)
}

type connectionService struct {
	connRepo repositories.ConnectionRepository
	dbRepo   repositories.DatabaseRepository
	client   sheets.Client
	logger   *zap.Logger
}

// NewConnectionService creates a connection service.
func NewConnectionService(
	connRepo repositories.ConnectionRepository,
	dbRepo repositories.DatabaseRepository,
	client sheets.Client,
	logger *zap.Logger,
) ConnectionService {
	return &connectionService{
		connRepo: connRepo,
		dbRepo:   dbRepo,
		client:   client,
		logger:   logger,
	}
}

func (s *connectionService) Create(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	if conn.Name == "" {
		return nil, fmt.Errorf("connection name is required")
	}
	if conn.Region == "" {
		conn.Region = models.RegionUS
	}
	if !conn.HasServiceAccount() && !conn.HasAPIKey() {
		return nil, fmt.Errorf("connection needs either service account credentials or an API key")
	}

	now := time.Now()
	conn.ID = uuid.New()
	conn.Status = models.StatusPending
	conn.ErrorMessage = ""
	conn.CreatedAt = now
	conn.UpdatedAt = now

	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	s.logger.Info("connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("name", conn.Name))
	return conn, nil
}

func (s *connectionService) Get(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	return s.connRepo.Get(ctx, id)
}

func (s *connectionService) List(ctx context.Context) ([]*models.Connection, error) {
	return s.connRepo.List(ctx)
}

func (s *connectionService) Update(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	existing, err := s.connRepo.Get(ctx, conn.ID)
	if err != nil {
		return nil, err
	}

	if conn.Name != "" {
		existing.Name = conn.Name
	}
	if conn.Region != "" {
		existing.Region = conn.Region
	}
	if conn.APIKey != "" {
		existing.APIKey = conn.APIKey
	}
	if conn.ClientEmail != "" || conn.PrivateKey != "" || conn.ProjectID != "" {
		existing.ClientEmail = conn.ClientEmail
		existing.PrivateKey = conn.PrivateKey
		existing.ProjectID = conn.ProjectID
	}
	// Credential changes invalidate the last test result.
	existing.Status = models.StatusPending
	existing.ErrorMessage = ""
	existing.UpdatedAt = time.Now()

	if err := s.connRepo.Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}
	return existing, nil
}

func (s *connectionService) Delete(ctx context.Context, id uuid.UUID) error {
	dbs, err := s.dbRepo.List(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list databases for connection %s: %w", id, err)
	}
	for _, db := range dbs {
		if err := s.dbRepo.Delete(ctx, id, db.ID); err != nil {
			return fmt.Errorf("failed to delete database %s: %w", db.ID, err)
		}
	}
	return s.connRepo.Delete(ctx, id)
}

func (s *connectionService) Test(ctx context.Context, id uuid.UUID, spreadsheetID string) (*models.Connection, error) {
	conn, err := s.connRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	conn.Status = models.StatusTesting
	conn.ErrorMessage = ""
	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	conn.LastTested = time.Now()
	if spreadsheetID == "" {
		// No probe target: shape validation only.
		if conn.HasServiceAccount() || conn.HasAPIKey() {
			conn.Status = models.StatusConnected
		} else {
			conn.Status = models.StatusError
			conn.ErrorMessage = "connection has no usable credentials"
		}
	} else {
		result, accessErr := s.client.TestAccess(ctx, conn, spreadsheetID)
		if accessErr != nil {
			conn.Status = models.StatusError
			conn.ErrorMessage = accessErr.Error()
			s.logger.Warn("connection test failed",
				zap.String("connection_id", id.String()),
				zap.String("error", logging.SanitizeMessage(accessErr.Error())))
		} else {
			conn.Status = models.StatusConnected
			s.logger.Info("connection test succeeded",
				zap.String("connection_id", id.String()),
				zap.String("spreadsheet_title", result.SpreadsheetTitle),
				zap.String("source", string(result.Source)))
		}
	}
	conn.UpdatedAt = time.Now()

	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}
	return conn, nil
}

// Ensure connectionService implements ConnectionService at compile time.
var _ ConnectionService = (*connectionService)(nil)
