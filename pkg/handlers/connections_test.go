package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

func newConnectionsMux(t *testing.T, svc *stubConnectionService) (*http.ServeMux, *http.Cookie, *http.Cookie) {
	t.Helper()
	mgr, authMW := testAuth(t)
	mux := http.NewServeMux()
	NewConnectionsHandler(svc, nopLogger()).RegisterRoutes(mux, authMW)
	admin := loginAs(t, mgr, "ops", "ops-pw")
	viewer := loginAs(t, mgr, "finance", "fin-pw")
	return mux, admin, viewer
}

func TestConnections_CreateAndGet(t *testing.T) {
	svc := &stubConnectionService{}
	mux, admin, _ := newConnectionsMux(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/connections",
		jsonBody(`{"name":"Main","api_key":"AIzaKey"}`))
	req.AddCookie(admin)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp ApiResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected success, got %+v", resp)
	}

	data, _ := resp.Data.(map[string]any)
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatal("no id in response")
	}
	if _, present := data["api_key"]; present {
		t.Error("api key leaked into response")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/connections/"+id, nil)
	getReq.AddCookie(admin)
	getW := httptest.NewRecorder()
	mux.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", getW.Code)
	}
}

func TestConnections_AnonymousRejected(t *testing.T) {
	mux, _, _ := newConnectionsMux(t, &stubConnectionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestConnections_ViewerCannotMutate(t *testing.T) {
	mux, _, viewer := newConnectionsMux(t, &stubConnectionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/connections",
		jsonBody(`{"name":"Main","api_key":"k"}`))
	req.AddCookie(viewer)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	listReq.AddCookie(viewer)
	listW := httptest.NewRecorder()
	mux.ServeHTTP(listW, listReq)
	if listW.Code != http.StatusOK {
		t.Fatalf("viewer read rejected: %d", listW.Code)
	}
}

func TestConnections_NotFound(t *testing.T) {
	mux, admin, _ := newConnectionsMux(t, &stubConnectionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/connections/"+uuid.NewString(), nil)
	req.AddCookie(admin)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestConnections_InvalidID(t *testing.T) {
	mux, admin, _ := newConnectionsMux(t, &stubConnectionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/connections/not-a-uuid", nil)
	req.AddCookie(admin)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestConnections_TestSurfacesProviderError(t *testing.T) {
	svc := &stubConnectionService{
		conns:   map[uuid.UUID]*models.Connection{},
		testErr: errors.New("API key rejected (401): verify the key"),
	}
	id := uuid.New()
	svc.conns[id] = &models.Connection{ID: id, Name: "Main"}
	mux, admin, _ := newConnectionsMux(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/connections/"+id.String()+"/test", jsonBody(`{}`))
	req.AddCookie(admin)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp ApiResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Message != "API key rejected (401): verify the key" {
		t.Errorf("provider text not surfaced: %q", resp.Message)
	}
}
