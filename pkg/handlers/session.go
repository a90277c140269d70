package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/auth"
	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
)

// SessionHandler handles operator login and logout.
type SessionHandler struct {
	sessions *auth.Manager
	logger   *zap.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions *auth.Manager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers the session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux, authMW *middleware.AuthMiddleware) {
	mux.HandleFunc("POST /api/session", h.Login)
	mux.HandleFunc("DELETE /api/session", h.Logout)
	mux.HandleFunc("GET /api/session", authMW.RequireUser(h.Current))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/session.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.sessions.Login(w, r, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			_ = ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
			return
		}
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	h.logger.Info("operator logged in", zap.String("username", user.Username))
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to encode login response", zap.Error(err))
	}
}

// Logout handles DELETE /api/session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to clear session")
		return
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "logged out"}); err != nil {
		h.logger.Error("Failed to encode logout response", zap.Error(err))
	}
}

// Current handles GET /api/session.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to encode session response", zap.Error(err))
	}
}
