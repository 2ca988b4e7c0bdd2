package handler

import (
	"encoding/json"
	"net/http"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/service"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	freezeService *service.FreezeService
	logger        *zap.Logger
}

func NewSettingsHandler(freezeService *service.FreezeService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		freezeService: freezeService,
		logger:        logger,
	}
}

// FreezeStatus returns the freeze window and whether the caller may edit
func (h *SettingsHandler) FreezeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.freezeService.Status(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// SetFreezeWindow updates the editable day-of-month span. Sales heads only.
func (h *SettingsHandler) SetFreezeWindow(w http.ResponseWriter, r *http.Request) {
	var req domain.SetFreezeWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	window := domain.FreezeWindow{StartDay: req.StartDay, EndDay: req.EndDay}
	if err := h.freezeService.SetWindow(r.Context(), window); err != nil {
		respondServiceError(w, err)
		return
	}

	status, err := h.freezeService.Status(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}
