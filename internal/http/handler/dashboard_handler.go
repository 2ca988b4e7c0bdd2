package handler

import (
	"encoding/json"
	"net/http"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	rates            *service.RatesCache
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, rates *service.RatesCache, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		rates:            rates,
		logger:           logger,
	}
}

// Series returns every chart series for the selection, months in fiscal
// order April through March.
func (h *DashboardHandler) Series(w http.ResponseWriter, r *http.Request) {
	year := queryYear(r)
	sel := querySelection(r)

	series, err := h.dashboardService.Series(r.Context(), year, sel)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, series)
}

// Summary returns the filtered dataset's totals and group breakdowns
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	year := queryYear(r)
	sel := querySelection(r)

	summary, err := h.dashboardService.Summary(r.Context(), year, sel)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// ExchangeRates returns the conversion table for a fiscal year
func (h *DashboardHandler) ExchangeRates(w http.ResponseWriter, r *http.Request) {
	year := queryYear(r)

	table, err := h.rates.Table(r.Context(), year)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"rates": table,
	})
}

// SetExchangeRates replaces a fiscal year's conversion table. Sales heads only.
func (h *DashboardHandler) SetExchangeRates(w http.ResponseWriter, r *http.Request) {
	var req domain.SetExchangeRatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.rates.Update(r.Context(), &req); err != nil {
		respondServiceError(w, err)
		return
	}

	table, err := h.rates.Table(r.Context(), req.Year)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"year":  req.Year,
		"rates": table,
	})
}
