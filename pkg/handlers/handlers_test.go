package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/apperrors"
	"github.com/gridsync-io/gridsync-engine/pkg/auth"
	"github.com/gridsync-io/gridsync-engine/pkg/config"
	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/services"
)

// Shared test wiring: a session manager with one admin and one viewer, and
// a login helper producing the session cookie.

func testAuth(t *testing.T) (*auth.Manager, *middleware.AuthMiddleware) {
	t.Helper()
	mgr := auth.NewManager(&config.AuthConfig{
		SessionSecret:        "test-secret",
		SessionMaxAgeMinutes: 60,
		Users: []config.UserConfig{
			{Username: "ops", DisplayName: "Ops", Password: "ops-pw", Role: models.RoleAdmin},
			{Username: "finance", DisplayName: "Finance", Password: "fin-pw", Role: models.RoleViewer, Screens: []string{"dashboard"}},
			{Username: "intern", DisplayName: "Intern", Password: "intern-pw", Role: models.RoleViewer, Screens: []string{"tables"}},
		},
	}, "local")
	return mgr, middleware.NewAuthMiddleware(mgr)
}

func loginAs(t *testing.T, mgr *auth.Manager, username, password string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	if _, err := mgr.Login(w, r, username, password); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}
	return cookies[0]
}

// Stub services for handler tests.

type stubConnectionService struct {
	conns   map[uuid.UUID]*models.Connection
	testErr error
}

func (s *stubConnectionService) Create(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	conn.ID = uuid.New()
	conn.Status = models.StatusPending
	if s.conns == nil {
		s.conns = map[uuid.UUID]*models.Connection{}
	}
	s.conns[conn.ID] = conn
	return conn, nil
}

func (s *stubConnectionService) Get(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	if c, ok := s.conns[id]; ok {
		return c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (s *stubConnectionService) List(ctx context.Context) ([]*models.Connection, error) {
	var out []*models.Connection
	for _, c := range s.conns {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubConnectionService) Update(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	return conn, nil
}

func (s *stubConnectionService) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.conns, id)
	return nil
}

func (s *stubConnectionService) Test(ctx context.Context, id uuid.UUID, spreadsheetID string) (*models.Connection, error) {
	if s.testErr != nil {
		return nil, s.testErr
	}
	c, ok := s.conns[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c.Status = models.StatusConnected
	return c, nil
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }

func nopLogger() *zap.Logger { return zap.NewNop() }

var _ services.ConnectionService = (*stubConnectionService)(nil)
