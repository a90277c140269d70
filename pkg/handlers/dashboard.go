package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
	"github.com/gridsync-io/gridsync-engine/pkg/services"
)

// DashboardHandler serves KPI summaries over synced rows.
type DashboardHandler struct {
	svc    services.DashboardService
	logger *zap.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(svc services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the dashboard routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMW *middleware.AuthMiddleware) {
	mux.HandleFunc("POST /api/dashboard/summary", authMW.RequireUser(h.Summary))
}

// Summary handles POST /api/dashboard/summary. The body is an
// AggregationQuery naming the table and the field hints.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	if !user.CanAccess("dashboard") {
		_ = ErrorResponse(w, http.StatusForbidden, "forbidden", "dashboard screen not allowed for this account")
		return
	}

	var query services.AggregationQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	summary, err := h.svc.Summarize(r.Context(), &query)
	if err != nil {
		// The dashboard never hard-fails the page: surface an empty
		// summary and log the cause.
		h.logger.Warn("dashboard summary degraded", zap.Error(err))
		summary = &services.DashboardSummary{}
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary})
}
