package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/services"
)

// DatabasesHandler handles spreadsheet registration under a connection.
type DatabasesHandler struct {
	svc    services.DatabaseService
	logger *zap.Logger
}

// NewDatabasesHandler creates a databases handler.
func NewDatabasesHandler(svc services.DatabaseService, logger *zap.Logger) *DatabasesHandler {
	return &DatabasesHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the database routes on the given mux.
func (h *DatabasesHandler) RegisterRoutes(mux *http.ServeMux, authMW *middleware.AuthMiddleware) {
	base := "/api/connections/{cid}/databases"
	mux.HandleFunc("GET "+base, authMW.RequireUser(h.List))
	mux.HandleFunc("POST "+base, authMW.RequireAdmin(h.Create))
	mux.HandleFunc("GET "+base+"/{did}", authMW.RequireUser(h.Get))
	mux.HandleFunc("PUT "+base+"/{did}", authMW.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE "+base+"/{did}", authMW.RequireAdmin(h.Delete))
	mux.HandleFunc("POST "+base+"/{did}/refresh-sheets", authMW.RequireAdmin(h.RefreshSheets))
}

// List handles GET /api/connections/{cid}/databases.
func (h *DatabasesHandler) List(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	dbs, err := h.svc.List(r.Context(), cid)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: dbs})
}

// Create handles POST /api/connections/{cid}/databases.
func (h *DatabasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	var db models.SheetDatabase
	if err := json.NewDecoder(r.Body).Decode(&db); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	created, err := h.svc.Create(r.Context(), cid, &db)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created})
}

// Get handles GET /api/connections/{cid}/databases/{did}.
func (h *DatabasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	db, err := h.svc.Get(r.Context(), cid, did)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: db})
}

// Update handles PUT /api/connections/{cid}/databases/{did}.
func (h *DatabasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	var db models.SheetDatabase
	if err := json.NewDecoder(r.Body).Decode(&db); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	db.ID = did

	updated, err := h.svc.Update(r.Context(), cid, &db)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated})
}

// Delete handles DELETE /api/connections/{cid}/databases/{did}.
func (h *DatabasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), cid, did); err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "database deleted"})
}

// RefreshSheets handles POST /api/connections/{cid}/databases/{did}/refresh-sheets.
func (h *DatabasesHandler) RefreshSheets(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	db, err := h.svc.RefreshSheets(r.Context(), cid, did)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: db})
}
