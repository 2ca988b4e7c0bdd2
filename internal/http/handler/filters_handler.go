package handler

import (
	"net/http"

	"github.com/plmware/forecast-api/internal/service"
	"go.uber.org/zap"
)

type FiltersHandler struct {
	filtersService *service.FiltersService
	logger         *zap.Logger
}

func NewFiltersHandler(filtersService *service.FiltersService, logger *zap.Logger) *FiltersHandler {
	return &FiltersHandler{
		filtersService: filtersService,
		logger:         logger,
	}
}

// Options applies the caller's full filter selection and returns every
// dimension's available options plus any stale selections.
func (h *FiltersHandler) Options(w http.ResponseWriter, r *http.Request) {
	year := queryYear(r)
	sel := querySelection(r)

	resp, err := h.filtersService.Options(r.Context(), year, sel)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// FormOptions returns every dropdown the project form needs in one response
func (h *FiltersHandler) FormOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.filtersService.FormOptions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, opts)
}

// SourceCountries lists countries for a region
func (h *FiltersHandler) SourceCountries(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	countries, err := h.filtersService.SourceCountries(r.Context(), region)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, countries)
}

// CustomerNames lists customers for a customer group
func (h *FiltersHandler) CustomerNames(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("customer_group")

	names, err := h.filtersService.CustomerNames(r.Context(), group)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, names)
}
