package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEditGateway struct {
	updated  []string
	failOnID string
}

func (f *fakeEditGateway) UpdateEditedForecast(ctx context.Context, projectID string, year int, edit domain.RecordEdit, entries []domain.ForecastEntry) error {
	if projectID == f.failOnID {
		return errors.New("record locked upstream")
	}
	f.updated = append(f.updated, projectID)
	return nil
}

func newForecastService(gateway *fakeEditGateway, datasets *fakeDatasetGateway, store *fakeFreezeStore) *service.ForecastService {
	logger := zap.NewNop()
	freeze := service.NewFreezeService(store, logger)
	datasetService := service.NewDatasetService(datasets, time.Minute, logger)
	return service.NewForecastService(datasetService, gateway, freeze, logger)
}

func recordsOfSize(n int) []domain.Record {
	records := make([]domain.Record, n)
	for i := range records {
		records[i] = domain.Record{
			ID:           fmt.Sprintf("p%03d", i),
			ForecastType: domain.ForecastTypeOB,
			FiscalYear:   2025,
		}
	}
	return records
}

func TestPaginate(t *testing.T) {
	records := recordsOfSize(25)

	tests := []struct {
		name      string
		page      int
		pageSize  int
		wantPage  int
		wantItems int
		wantTotal int
		wantPages int
		wantFirst string
	}{
		{name: "first page", page: 1, pageSize: 10, wantPage: 1, wantItems: 10, wantTotal: 25, wantPages: 3, wantFirst: "p000"},
		{name: "last page is partial", page: 3, pageSize: 10, wantPage: 3, wantItems: 5, wantTotal: 25, wantPages: 3, wantFirst: "p020"},
		{name: "page past the end clamps to last", page: 99, pageSize: 10, wantPage: 3, wantItems: 5, wantTotal: 25, wantPages: 3, wantFirst: "p020"},
		{name: "page below one clamps to first", page: 0, pageSize: 10, wantPage: 1, wantItems: 10, wantTotal: 25, wantPages: 3, wantFirst: "p000"},
		{name: "zero size falls back to default", page: 1, pageSize: 0, wantPage: 1, wantItems: 10, wantTotal: 25, wantPages: 3, wantFirst: "p000"},
		{name: "oversized page size is capped", page: 1, pageSize: 1000, wantPage: 1, wantItems: 25, wantTotal: 25, wantPages: 1, wantFirst: "p000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := service.Paginate(records, tc.page, tc.pageSize)

			assert.Equal(t, tc.wantPage, got.Page)
			assert.Equal(t, tc.wantTotal, got.TotalItems)
			assert.Equal(t, tc.wantPages, got.TotalPages)
			require.Len(t, got.Items, tc.wantItems)
			assert.Equal(t, tc.wantFirst, got.Items[0].ID)
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	got := service.Paginate(nil, 5, 10)

	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 1, got.TotalPages)
	assert.Zero(t, got.TotalItems)
	assert.Empty(t, got.Items)
}

func TestForecastServiceList(t *testing.T) {
	records := recordsOfSize(12)
	records[3].Region = "EMEA"
	datasets := &fakeDatasetGateway{records: records}
	svc := newForecastService(&fakeEditGateway{}, datasets, alwaysOpen())

	sel := domain.Selection{domain.DimRegion: "EMEA"}
	page, err := svc.List(ctxWithRole(domain.RoleProjectManager), 2025, sel, 1, 10)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p003", page.Items[0].ID)
}

func TestSaveEdits(t *testing.T) {
	futureYear := domain.CurrentFiscalYear(time.Now()) + 1

	editFor := func(amount int64) domain.RecordEdit {
		return domain.RecordEdit{
			ForecastType: domain.ForecastTypeOB,
			Forecasts:    domain.MonthAmounts{4: decimal.NewFromInt(amount)},
		}
	}

	t.Run("applies edits in deterministic ID order", func(t *testing.T) {
		gateway := &fakeEditGateway{}
		svc := newForecastService(gateway, &fakeDatasetGateway{}, alwaysOpen())

		result, err := svc.SaveEdits(ctxWithRole(domain.RoleProjectManager), &domain.SaveEditsRequest{
			Year: futureYear,
			Edits: map[string]domain.RecordEdit{
				"p3": editFor(300),
				"p1": editFor(100),
				"p2": editFor(200),
			},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2", "p3"}, result.Updated)
		assert.Empty(t, result.FailedID)
	})

	t.Run("stops at the first failure and reports it", func(t *testing.T) {
		gateway := &fakeEditGateway{failOnID: "p2"}
		svc := newForecastService(gateway, &fakeDatasetGateway{}, alwaysOpen())

		result, err := svc.SaveEdits(ctxWithRole(domain.RoleProjectManager), &domain.SaveEditsRequest{
			Year: futureYear,
			Edits: map[string]domain.RecordEdit{
				"p1": editFor(100),
				"p2": editFor(200),
				"p3": editFor(300),
			},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, result.Updated, "records before the failure stay updated")
		assert.Equal(t, "p2", result.FailedID)
		assert.Contains(t, result.Error, "record locked upstream")
		assert.NotContains(t, gateway.updated, "p3", "records after the failure are not attempted")
	})

	t.Run("closed months are rejected up front", func(t *testing.T) {
		gateway := &fakeEditGateway{}
		svc := newForecastService(gateway, &fakeDatasetGateway{}, alwaysOpen())

		_, err := svc.SaveEdits(ctxWithRole(domain.RoleProjectManager), &domain.SaveEditsRequest{
			Year: domain.CurrentFiscalYear(time.Now()) - 2,
			Edits: map[string]domain.RecordEdit{
				"p1": editFor(100),
			},
		})

		assert.ErrorIs(t, err, service.ErrInvalidInput)
		assert.Empty(t, gateway.updated, "nothing is written when any month is closed")
	})

	t.Run("frozen window blocks the whole save", func(t *testing.T) {
		gateway := &fakeEditGateway{}
		svc := newForecastService(gateway, &fakeDatasetGateway{}, neverOpen())

		_, err := svc.SaveEdits(ctxWithRole(domain.RoleProjectManager), &domain.SaveEditsRequest{
			Year:  futureYear,
			Edits: map[string]domain.RecordEdit{"p1": editFor(100)},
		})

		assert.ErrorIs(t, err, service.ErrEditingFrozen)
	})

	t.Run("requires a session", func(t *testing.T) {
		svc := newForecastService(&fakeEditGateway{}, &fakeDatasetGateway{}, alwaysOpen())
		_, err := svc.SaveEdits(context.Background(), &domain.SaveEditsRequest{
			Year:  futureYear,
			Edits: map[string]domain.RecordEdit{"p1": editFor(100)},
		})
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})
}
