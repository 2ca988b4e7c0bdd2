package domain

import (
	"fmt"
	"time"
)

// The fiscal year runs April through March. Fiscal year N covers
// April N through March N+1, so calendar months 1-3 belong to
// calendar year N+1.

// FiscalMonths lists calendar month numbers in fiscal order, April first
var FiscalMonths = [12]int{4, 5, 6, 7, 8, 9, 10, 11, 12, 1, 2, 3}

// MonthLabels maps calendar month numbers to short display labels
var MonthLabels = map[int]string{
	1: "Jan", 2: "Feb", 3: "Mar", 4: "Apr", 5: "May", 6: "Jun",
	7: "Jul", 8: "Aug", 9: "Sep", 10: "Oct", 11: "Nov", 12: "Dec",
}

// Quarters lists fiscal quarters in order with their calendar months
var Quarters = []struct {
	Name   string
	Months [3]int
}{
	{"Q1", [3]int{4, 5, 6}},
	{"Q2", [3]int{7, 8, 9}},
	{"Q3", [3]int{10, 11, 12}},
	{"Q4", [3]int{1, 2, 3}},
}

// CalendarYear returns the calendar year a fiscal month falls in.
// January through March land in the year after the fiscal year start.
func CalendarYear(fiscalYear, month int) int {
	if month >= 1 && month <= 3 {
		return fiscalYear + 1
	}
	return fiscalYear
}

// CurrentFiscalYear returns the fiscal year the given time falls in
func CurrentFiscalYear(now time.Time) int {
	if now.Month() < time.April {
		return now.Year() - 1
	}
	return now.Year()
}

// QuarterOf returns the fiscal quarter name ("Q1".."Q4") for a calendar month
func QuarterOf(month int) string {
	switch {
	case month >= 4 && month <= 6:
		return "Q1"
	case month >= 7 && month <= 9:
		return "Q2"
	case month >= 10 && month <= 12:
		return "Q3"
	default:
		return "Q4"
	}
}

// QuarterSum totals a quarter's months, treating absent months as zero
func QuarterSum(amounts MonthAmounts, months [3]int) float64 {
	total := 0.0
	for _, m := range months {
		total += amounts.At(m).InexactFloat64()
	}
	return total
}

// MonthEditable reports whether a fiscal month is still open for entry:
// its calendar position must be the current month or later.
func MonthEditable(fiscalYear, month int, now time.Time) bool {
	y := CalendarYear(fiscalYear, month)
	if y != now.Year() {
		return y > now.Year()
	}
	return month >= int(now.Month())
}

// FiscalYearLabel formats a fiscal year for display, e.g. "FY-26" for 2026
func FiscalYearLabel(fiscalYear int) string {
	return fmt.Sprintf("FY-%02d", fiscalYear%100)
}

// MonthColumnLabel formats a month header for listings and exports,
// e.g. "Apr'25" for April of fiscal year 2025.
func MonthColumnLabel(fiscalYear, month int) string {
	return fmt.Sprintf("%s'%02d", MonthLabels[month], CalendarYear(fiscalYear, month)%100)
}
