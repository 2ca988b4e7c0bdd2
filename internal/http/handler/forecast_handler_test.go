package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/http/handler"
	"github.com/plmware/forecast-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDatasetGateway struct {
	records []domain.Record
}

func (g *stubDatasetGateway) UserProjects(ctx context.Context, year int) ([]domain.Record, error) {
	return g.records, nil
}

type stubEditGateway struct{}

func (g *stubEditGateway) UpdateEditedForecast(ctx context.Context, projectID string, year int, edit domain.RecordEdit, entries []domain.ForecastEntry) error {
	return nil
}

func listingRecords(n int) []domain.Record {
	year := domain.CurrentFiscalYear(time.Now())
	records := make([]domain.Record, n)
	for i := range records {
		records[i] = domain.Record{
			ID:           fmt.Sprintf("p%03d", i),
			ProjectName:  fmt.Sprintf("Project %03d", i),
			Region:       "EMEA",
			ForecastType: domain.ForecastTypeOB,
			FiscalYear:   year,
		}
	}
	records[n-1].Region = "APAC"
	return records
}

func newForecastHandler(records []domain.Record) *handler.ForecastHandler {
	logger := zap.NewNop()
	datasets := service.NewDatasetService(&stubDatasetGateway{records: records}, time.Minute, logger)
	freeze := service.NewFreezeService(&memFreezeStore{window: domain.FreezeWindow{StartDay: 1, EndDay: 31}}, logger)
	forecasts := service.NewForecastService(datasets, &stubEditGateway{}, freeze, logger)
	exports := service.NewExportService(datasets, logger)
	imports := service.NewImportService(nil, logger)
	return handler.NewForecastHandler(forecasts, exports, imports, 10<<20, logger)
}

func TestForecastHandlerList(t *testing.T) {
	h := newForecastHandler(listingRecords(25))

	t.Run("defaults to page one of ten", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, requestAs(http.MethodGet, "/api/v1/forecast", "", domain.RoleProjectManager))

		require.Equal(t, http.StatusOK, rec.Code)

		var page domain.ListPage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 10, page.PageSize)
		assert.Equal(t, 25, page.TotalItems)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Items, 10)
		assert.Equal(t, "p000", page.Items[0].ID)
	})

	t.Run("page and size parameters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, requestAs(http.MethodGet, "/api/v1/forecast?page=2&page_size=20", "", domain.RoleProjectManager))

		require.Equal(t, http.StatusOK, rec.Code)

		var page domain.ListPage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		assert.Equal(t, 2, page.Page)
		require.Len(t, page.Items, 5)
		assert.Equal(t, "p020", page.Items[0].ID)
	})

	t.Run("filter parameters narrow the listing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, requestAs(http.MethodGet, "/api/v1/forecast?region=APAC", "", domain.RoleProjectManager))

		require.Equal(t, http.StatusOK, rec.Code)

		var page domain.ListPage
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		assert.Equal(t, 1, page.TotalItems)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "p024", page.Items[0].ID)
	})

	t.Run("unauthenticated requests are rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/forecast", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestForecastHandlerSaveEditsRejectsMalformedBody(t *testing.T) {
	h := newForecastHandler(listingRecords(2))

	rec := httptest.NewRecorder()
	h.SaveEdits(rec, requestAs(http.MethodPut, "/api/v1/forecast/edits", "{", domain.RoleProjectManager))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecastHandlerExport(t *testing.T) {
	h := newForecastHandler(listingRecords(3))

	rec := httptest.NewRecorder()
	h.Export(rec, requestAs(http.MethodGet, "/api/v1/forecast/export", "", domain.RoleProjectManager))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "PLM_Forecast_FY-")
	assert.NotEmpty(t, rec.Body.Bytes())
}
