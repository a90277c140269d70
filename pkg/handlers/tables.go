package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/services"
)

// TablesHandler handles sheet-tab mapping under a database.
type TablesHandler struct {
	svc    services.TableService
	logger *zap.Logger
}

// NewTablesHandler creates a tables handler.
func NewTablesHandler(svc services.TableService, logger *zap.Logger) *TablesHandler {
	return &TablesHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the table routes on the given mux.
func (h *TablesHandler) RegisterRoutes(mux *http.ServeMux, authMW *middleware.AuthMiddleware) {
	base := "/api/connections/{cid}/databases/{did}/tables"
	mux.HandleFunc("GET "+base, authMW.RequireUser(h.List))
	mux.HandleFunc("POST "+base, authMW.RequireAdmin(h.Create))
	mux.HandleFunc("GET "+base+"/{tid}", authMW.RequireUser(h.Get))
	mux.HandleFunc("PUT "+base+"/{tid}", authMW.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE "+base+"/{tid}", authMW.RequireAdmin(h.Delete))
}

// List handles GET .../tables.
func (h *TablesHandler) List(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	tables, err := h.svc.List(r.Context(), cid, did)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: tables})
}

// Create handles POST .../tables.
func (h *TablesHandler) Create(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	var table models.SheetTable
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	created, err := h.svc.Create(r.Context(), cid, did, &table)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created})
}

// Get handles GET .../tables/{tid}.
func (h *TablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	tid, ok := pathUUID(w, r, "tid")
	if !ok {
		return
	}
	table, err := h.svc.Get(r.Context(), cid, did, tid)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: table})
}

// Update handles PUT .../tables/{tid}.
func (h *TablesHandler) Update(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	tid, ok := pathUUID(w, r, "tid")
	if !ok {
		return
	}
	var table models.SheetTable
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	table.ID = tid

	updated, err := h.svc.Update(r.Context(), cid, did, &table)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated})
}

// Delete handles DELETE .../tables/{tid}.
func (h *TablesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	did, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	tid, ok := pathUUID(w, r, "tid")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), cid, did, tid); err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "table deleted"})
}
