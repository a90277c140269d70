package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
	"github.com/gridsync-io/gridsync-engine/pkg/services"
)

// HeadersHandler handles a table's column mappings.
type HeadersHandler struct {
	svc    services.HeaderService
	logger *zap.Logger
}

// NewHeadersHandler creates a headers handler.
func NewHeadersHandler(svc services.HeaderService, logger *zap.Logger) *HeadersHandler {
	return &HeadersHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the header-mapping routes on the given mux.
func (h *HeadersHandler) RegisterRoutes(mux *http.ServeMux, authMW *middleware.AuthMiddleware) {
	base := "/api/connections/{cid}/databases/{did}/tables/{tid}/headers"
	mux.HandleFunc("GET "+base, authMW.RequireUser(h.List))
	mux.HandleFunc("POST "+base+"/probe", authMW.RequireAdmin(h.Probe))
	mux.HandleFunc("PUT "+base+"/{hid}", authMW.RequireAdmin(h.Update))
	mux.HandleFunc("POST "+base+"/{hid}/set-key", authMW.RequireAdmin(h.SetKey))
}

func tablePath(w http.ResponseWriter, r *http.Request) (cid, did, tid uuid.UUID, ok bool) {
	c, ok := pathUUID(w, r, "cid")
	if !ok {
		return
	}
	d, ok := pathUUID(w, r, "did")
	if !ok {
		return
	}
	t, ok := pathUUID(w, r, "tid")
	if !ok {
		return
	}
	return c, d, t, true
}

// List handles GET .../headers.
func (h *HeadersHandler) List(w http.ResponseWriter, r *http.Request) {
	cid, did, tid, ok := tablePath(w, r)
	if !ok {
		return
	}
	mappings, err := h.svc.List(r.Context(), cid, did, tid)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: mappings})
}

// Probe handles POST .../headers/probe. It fetches the sheet's header row
// and generates or merges the mapping set.
func (h *HeadersHandler) Probe(w http.ResponseWriter, r *http.Request) {
	cid, did, tid, ok := tablePath(w, r)
	if !ok {
		return
	}
	mappings, err := h.svc.Probe(r.Context(), cid, did, tid)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: mappings})
}

// Update handles PUT .../headers/{hid}.
func (h *HeadersHandler) Update(w http.ResponseWriter, r *http.Request) {
	cid, did, tid, ok := tablePath(w, r)
	if !ok {
		return
	}
	hid, ok := pathUUID(w, r, "hid")
	if !ok {
		return
	}
	var update services.HeaderUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	mapping, err := h.svc.Update(r.Context(), cid, did, tid, hid, &update)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: mapping})
}

// SetKey handles POST .../headers/{hid}/set-key.
func (h *HeadersHandler) SetKey(w http.ResponseWriter, r *http.Request) {
	cid, did, tid, ok := tablePath(w, r)
	if !ok {
		return
	}
	hid, ok := pathUUID(w, r, "hid")
	if !ok {
		return
	}
	mappings, err := h.svc.SetKey(r.Context(), cid, did, tid, hid)
	if err != nil {
		_ = serviceErrorResponse(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: mappings})
}
