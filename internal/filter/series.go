package filter

import (
	"github.com/plmware/forecast-api/internal/domain"
	"github.com/shopspring/decimal"
)

// MonthlyTotals sums one amount map across records in fiscal month order,
// April first. Records are converted to the display currency with the
// given rate table before summing; currencies without a rate fall back to
// a factor of one.
func MonthlyTotals(records []domain.Record, pick func(*domain.Record) domain.MonthAmounts, rates map[string]decimal.Decimal) []float64 {
	totals := make([]float64, len(domain.FiscalMonths))
	for i := range records {
		rec := &records[i]
		amounts := pick(rec)
		if amounts == nil {
			continue
		}
		rate := decimal.NewFromInt(1)
		if r, ok := rates[rec.Currency]; ok && !r.IsZero() {
			rate = r
		}
		for idx, month := range domain.FiscalMonths {
			totals[idx] += amounts.At(month).Mul(rate).InexactFloat64()
		}
	}
	return totals
}

// Cumulative builds the running-total series for a chart. A zero month
// carries the previous total forward once; the series stops at the next
// gap so the chart line ends where the data does instead of flatlining
// across empty months.
func Cumulative(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	prev := 0.0
	gapped := false

	for _, v := range values {
		if v == 0 {
			if len(out) == 0 {
				out = append(out, 0)
				continue
			}
			if gapped {
				break
			}
			out = append(out, prev)
			gapped = true
			continue
		}
		prev += v
		out = append(out, prev)
	}

	return out
}

// Variance is the per-month actual-minus-forecast series. Months without
// actuals report zero variance rather than a misleading negative.
func Variance(forecast, actuals []float64) []float64 {
	n := len(forecast)
	if len(actuals) < n {
		n = len(actuals)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if actuals[i] > 0 {
			out[i] = actuals[i] - forecast[i]
		}
	}
	return out
}

// Sum totals a series
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
