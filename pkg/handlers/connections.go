package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/services"
)

// ConnectionsHandler handles connection CRUD and credential testing.
type ConnectionsHandler struct {
	svc    services.ConnectionService
	logger *zap.Logger
}

// NewConnectionsHandler creates a connections handler.
func NewConnectionsHandler(svc services.ConnectionService, logger *zap.Logger) *ConnectionsHandler {
	return &ConnectionsHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the connection routes on the given mux. Reads
// need a login; mutations need the admin role.
func (h *ConnectionsHandler) RegisterRoutes(mux *http.ServeMux, authMW *middleware.AuthMiddleware) {
	mux.HandleFunc("GET /api/connections", authMW.RequireUser(h.List))
	mux.HandleFunc("POST /api/connections", authMW.RequireAdmin(h.Create))
	mux.HandleFunc("GET /api/connections/{cid}", authMW.RequireUser(h.Get))
	mux.HandleFunc("PUT /api/connections/{cid}", authMW.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE /api/connections/{cid}", authMW.RequireAdmin(h.Delete))
	mux.HandleFunc("POST /api/connections/{cid}/test", authMW.RequireAdmin(h.Test))
}

// connectionView hides credential material from API responses.
type connectionView struct {
	*models.Connection
	APIKey     string `json:"api_key,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	HasAPIKey  bool   `json:"has_api_key"`
	HasSA      bool   `json:"has_service_account"`
}

func viewConnection(c *models.Connection) *connectionView {
	return &connectionView{
		Connection: c,
		HasAPIKey:  c.HasAPIKey(),
		HasSA:      c.HasServiceAccount(),
	}
}

func viewConnections(conns []*models.Connection) []*connectionView {
	views := make([]*connectionView, len(conns))
	for i, c := range conns {
		views[i] = viewConnection(c)
	}
	return views
}

// List handles GET /api/connections.
func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	conns, err := h.svc.List(r.Context())
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: viewConnections(conns)})
}

// Create handles POST /api/connections.
func (h *ConnectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	created, err := h.svc.Create(r.Context(), &conn)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	_ = WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: viewConnection(created)})
}

// Get handles GET /api/connections/{cid}.
func (h *ConnectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	conn, err := h.svc.Get(r.Context(), id)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: viewConnection(conn)})
}

// Update handles PUT /api/connections/{cid}.
func (h *ConnectionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	conn.ID = id

	updated, err := h.svc.Update(r.Context(), &conn)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: viewConnection(updated)})
}

// Delete handles DELETE /api/connections/{cid}.
func (h *ConnectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "connection deleted"})
}

type testConnectionRequest struct {
	SpreadsheetID string `json:"spreadsheet_id"`
}

// Test handles POST /api/connections/{cid}/test.
func (h *ConnectionsHandler) Test(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	var req testConnectionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	conn, err := h.svc.Test(r.Context(), id, req.SpreadsheetID)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: viewConnection(conn)})
}
