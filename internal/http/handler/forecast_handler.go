package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/service"
	"go.uber.org/zap"
)

type ForecastHandler struct {
	forecastService *service.ForecastService
	exportService   *service.ExportService
	importService   *service.ImportService
	maxUploadBytes  int64
	logger          *zap.Logger
}

func NewForecastHandler(
	forecastService *service.ForecastService,
	exportService *service.ExportService,
	importService *service.ImportService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *ForecastHandler {
	return &ForecastHandler{
		forecastService: forecastService,
		exportService:   exportService,
		importService:   importService,
		maxUploadBytes:  maxUploadBytes,
		logger:          logger,
	}
}

// List returns one page of the filtered forecast listing
func (h *ForecastHandler) List(w http.ResponseWriter, r *http.Request) {
	year := queryYear(r)
	sel := querySelection(r)
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", service.DefaultPageSize)

	result, err := h.forecastService.List(r.Context(), year, sel, page, pageSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// SaveEdits applies a buffer of per-record edits, stopping at the first
// failure. A partial run still reports which records went through.
func (h *ForecastHandler) SaveEdits(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveEditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.forecastService.SaveEdits(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	status := http.StatusOK
	if result.FailedID != "" {
		// Some records were updated, some were not
		status = http.StatusMultiStatus
	}
	respondJSON(w, status, result)
}

// Export streams the filtered listing as an xlsx attachment
func (h *ForecastHandler) Export(w http.ResponseWriter, r *http.Request) {
	year := queryYear(r)
	sel := querySelection(r)

	reportType := domain.ReportType(r.URL.Query().Get("report_type"))
	if reportType == "" {
		reportType = domain.ReportForecastUSD
	}

	data, filename, err := h.exportService.Export(r.Context(), year, sel, reportType)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportActuals accepts an actuals workbook and forwards it upstream
// after local validation.
func (h *ForecastHandler) ImportActuals(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid or oversized upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := h.importService.Import(r.Context(), header.Filename, data)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
