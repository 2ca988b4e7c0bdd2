package handler

import (
	"encoding/json"
	"net/http"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/service"
	"github.com/plmware/forecast-api/internal/session"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login exchanges credentials for a bearer token and the user it names
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Logout acknowledges a logout. Tokens are upstream-issued and this
// service holds no session state, so the client discards its copy; the
// event is still logged for the audit trail.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userCtx, ok := session.FromContext(r.Context()); ok {
		h.logger.Info("User logged out",
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("role", string(userCtx.Role)),
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user decoded from the bearer token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := session.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, userCtx.ToDTO())
}
