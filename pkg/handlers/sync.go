package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
	"github.com/gridsync-io/gridsync-engine/pkg/services"
)

// SyncHandler triggers table syncs and serves synced rows.
type SyncHandler struct {
	svc    services.SyncService
	logger *zap.Logger
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(svc services.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the sync routes on the given mux.
func (h *SyncHandler) RegisterRoutes(mux *http.ServeMux, authMW *middleware.AuthMiddleware) {
	base := "/api/connections/{cid}/databases/{did}/tables/{tid}"
	mux.HandleFunc("POST "+base+"/sync", authMW.RequireAdmin(h.Sync))
	mux.HandleFunc("GET "+base+"/rows", authMW.RequireUser(h.Rows))
}

// Sync handles POST .../sync. The sync runs inline; the response carries
// the outcome.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	cid, did, tid, ok := tablePath(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Sync(r.Context(), cid, did, tid)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result})
}

// Rows handles GET .../rows.
func (h *SyncHandler) Rows(w http.ResponseWriter, r *http.Request) {
	cid, did, tid, ok := tablePath(w, r)
	if !ok {
		return
	}

	rows, err := h.svc.Rows(r.Context(), cid, did, tid)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: rows})
}
