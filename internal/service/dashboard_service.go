package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/filter"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DashboardService builds the chart series for one fiscal year out of the
// caller's filtered dataset. Amounts are totaled in USD and then scaled
// to the selected display currency.
type DashboardService struct {
	datasets *DatasetService
	rates    *RatesCache
	logger   *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(datasets *DatasetService, rates *RatesCache, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		datasets: datasets,
		rates:    rates,
		logger:   logger,
	}
}

// Series computes every dashboard series for the selection. Months run
// in fiscal order, April first. The cumulative series stop at the first
// gap after data ends so chart lines do not flatline into the future.
func (s *DashboardService) Series(ctx context.Context, year int, sel domain.Selection) (*domain.DashboardSeries, error) {
	records, err := s.datasets.Records(ctx, year)
	if err != nil {
		return nil, err
	}
	filtered := filter.FilteredSet(records, sel)

	displayRate, err := s.displayRate(ctx, year, sel.Get(domain.DimDisplayCurrency))
	if err != nil {
		return nil, err
	}

	// USD maps need no per-record conversion; the PO amounts are in each
	// record's native currency and go through the year's rate table first.
	ones := map[string]decimal.Decimal{}
	forecast := scale(filter.MonthlyTotals(filtered, func(r *domain.Record) domain.MonthAmounts { return r.ForecastsUSD }, ones), displayRate)
	actuals := scale(filter.MonthlyTotals(filtered, func(r *domain.Record) domain.MonthAmounts { return r.Actuals }, ones), displayRate)

	rates, err := s.rates.Table(ctx, year)
	if err != nil {
		return nil, err
	}
	forecastPO := scale(filter.MonthlyTotals(filtered, func(r *domain.Record) domain.MonthAmounts { return r.ForecastsPO }, rates), displayRate)

	labels := make([]string, len(domain.FiscalMonths))
	for i, month := range domain.FiscalMonths {
		labels[i] = domain.MonthColumnLabel(year, month)
	}

	series := &domain.DashboardSeries{
		FiscalYear:         year,
		Labels:             labels,
		Forecast:           forecast,
		ForecastPO:         forecastPO,
		Actuals:            actuals,
		Variance:           filter.Variance(forecast, actuals),
		CumulativeForecast: filter.Cumulative(forecast),
		CumulativeActuals:  filter.Cumulative(actuals),
		Quarters:           quarterRollup(forecast, actuals),
		TotalForecast:      filter.Sum(forecast),
		TotalActuals:       filter.Sum(actuals),
	}

	return series, nil
}

// Summary totals the filtered dataset and breaks it down by region,
// vertical, status and forecast type for the overview tiles.
func (s *DashboardService) Summary(ctx context.Context, year int, sel domain.Selection) (*domain.DashboardSummary, error) {
	records, err := s.datasets.Records(ctx, year)
	if err != nil {
		return nil, err
	}
	filtered := filter.FilteredSet(records, sel)

	displayRate, err := s.displayRate(ctx, year, sel.Get(domain.DimDisplayCurrency))
	if err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		FiscalYear:     year,
		Records:        len(filtered),
		ByRegion:       breakdown(filtered, displayRate, func(r *domain.Record) string { return r.Region }),
		ByVertical:     breakdown(filtered, displayRate, func(r *domain.Record) string { return r.Vertical }),
		ByStatus:       breakdown(filtered, displayRate, func(r *domain.Record) string { return string(r.Status) }),
		ByForecastType: breakdown(filtered, displayRate, func(r *domain.Record) string { return string(r.ForecastType) }),
	}
	for _, slice := range summary.ByForecastType {
		summary.TotalForecast += slice.Forecast
		summary.TotalActuals += slice.Actual
	}

	return summary, nil
}

// breakdown groups records by a key and totals each group. Records with
// an empty key are skipped, matching how option lists treat absent
// values. Groups come out sorted by name.
func breakdown(records []domain.Record, displayRate float64, key func(*domain.Record) string) []domain.BreakdownSlice {
	totals := make(map[string]*domain.BreakdownSlice)
	names := make([]string, 0)
	for i := range records {
		r := &records[i]
		name := key(r)
		if name == "" {
			continue
		}
		slice, ok := totals[name]
		if !ok {
			slice = &domain.BreakdownSlice{Name: name}
			totals[name] = slice
			names = append(names, name)
		}
		slice.Records++
		slice.Forecast += r.ForecastsUSD.Sum().InexactFloat64() * displayRate
		slice.Actual += r.Actuals.Sum().InexactFloat64() * displayRate
	}

	sort.Strings(names)
	out := make([]domain.BreakdownSlice, len(names))
	for i, name := range names {
		out[i] = *totals[name]
	}
	return out
}

// displayRate resolves the USD-to-display-currency factor. The rate
// table stores how many USD one unit of the currency is worth, so
// going from USD to the display currency divides by it. USD and an
// empty selection scale by one.
func (s *DashboardService) displayRate(ctx context.Context, year int, currency string) (float64, error) {
	if currency == "" || currency == domain.SelectAll || currency == filter.DefaultDisplayCurrency {
		return 1, nil
	}
	rate, ok, err := s.rates.Rate(ctx, year, currency)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve display currency rate: %w", err)
	}
	if !ok || rate.IsZero() {
		s.logger.Warn("No usable exchange rate for display currency, falling back to USD",
			zap.String("currency", currency),
			zap.Int("year", year),
		)
		return 1, nil
	}
	return decimal.NewFromInt(1).Div(rate).InexactFloat64(), nil
}

// quarterRollup sums the fiscal-ordered series into the four quarters.
// Positions 0-2 are Q1 (Apr-Jun) through positions 9-11 for Q4 (Jan-Mar).
func quarterRollup(forecast, actuals []float64) []domain.QuarterAmounts {
	out := make([]domain.QuarterAmounts, len(domain.Quarters))
	for qi, q := range domain.Quarters {
		qa := domain.QuarterAmounts{Quarter: q.Name}
		for i := qi * 3; i < qi*3+3 && i < len(forecast); i++ {
			qa.Forecast += forecast[i]
		}
		for i := qi * 3; i < qi*3+3 && i < len(actuals); i++ {
			qa.Actual += actuals[i]
		}
		out[qi] = qa
	}
	return out
}

func scale(values []float64, factor float64) []float64 {
	if factor == 1 {
		return values
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}
