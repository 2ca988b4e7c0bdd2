package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/service"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	logger         *zap.Logger
}

func NewProjectHandler(projectService *service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// Create registers a new project forecast
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	created, err := h.projectService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Get returns a single project record
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.projectService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// Update replaces an existing project forecast
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	var req domain.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	updated, err := h.projectService.Update(r.Context(), projectID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Delete removes a project forecast
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	if err := h.projectService.Delete(r.Context(), projectID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReplaceForecasts swaps all monthly amounts of one record for a year
func (h *ProjectHandler) ReplaceForecasts(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	var req domain.ReplaceForecastsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.projectService.ReplaceForecasts(r.Context(), projectID, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckOPForecast reports whether an OP id submission would conflict
// with or aggregate onto an existing forecast.
func (h *ProjectHandler) CheckOPForecast(w http.ResponseWriter, r *http.Request) {
	opID := r.URL.Query().Get("op_id")
	if opID == "" {
		respondWithError(w, http.StatusBadRequest, "op_id is required")
		return
	}
	forecastType := domain.ForecastType(r.URL.Query().Get("forecast_type"))
	if forecastType != domain.ForecastTypeOB && forecastType != domain.ForecastTypeTB {
		respondWithError(w, http.StatusBadRequest, "forecast_type must be OB or TB")
		return
	}
	year := queryYear(r)

	result, err := h.projectService.CheckOPForecast(r.Context(), opID, year, forecastType)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// EditableMonths reports which fiscal months of a year are open for entry
func (h *ProjectHandler) EditableMonths(w http.ResponseWriter, r *http.Request) {
	year := queryYear(r)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"year":   year,
		"months": h.projectService.EditableMonths(year),
	})
}
