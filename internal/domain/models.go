package domain

import (
	"github.com/shopspring/decimal"
)

// Role identifies the permission tier carried in the session token
type Role string

const (
	// RoleProjectManager can create forecasts for projects assigned to them
	RoleProjectManager Role = "PM"
	// RoleClusterHead can edit all projects in their cluster
	RoleClusterHead Role = "CH"
	// RoleSalesHead can edit everything, including outside the freeze window
	RoleSalesHead Role = "SH"
)

// IsPrivileged reports whether the role bypasses the freeze window
func (r Role) IsPrivileged() bool {
	return r == RoleSalesHead
}

// Valid reports whether the role is one of the known tiers
func (r Role) Valid() bool {
	switch r {
	case RoleProjectManager, RoleClusterHead, RoleSalesHead:
		return true
	}
	return false
}

// ForecastType distinguishes order-backed entries, which are tied to a
// confirmed project, from target-based entries.
type ForecastType string

const (
	ForecastTypeOB ForecastType = "OB"
	ForecastTypeTB ForecastType = "TB"
)

// Status is the project lifecycle status
type Status string

const (
	StatusPlanned     Status = "Planned"
	StatusInExecution Status = "In-Execution"
	StatusTechClosed  Status = "Technically-Closed"
	StatusClosed      Status = "Closed"
)

// ReportType selects which amount columns an export includes
type ReportType string

const (
	ReportForecastUSD ReportType = "forecast_usd"
	ReportForecastPO  ReportType = "forecast_po"
	ReportActual      ReportType = "actual"
	ReportAll         ReportType = "all"
)

// Valid reports whether the report type is one of the known selections
func (t ReportType) Valid() bool {
	switch t {
	case ReportForecastUSD, ReportForecastPO, ReportActual, ReportAll:
		return true
	}
	return false
}

// EntityRef is a referenced entity carried inside a project record,
// such as the responsible manager or the cluster the project belongs to.
// Identity comparisons use ID; display and sorting use Name.
type EntityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MonthAmounts maps a calendar month number (1-12) to an amount.
// An absent month means no value, which is distinct from an explicit zero.
type MonthAmounts map[int]decimal.Decimal

// Sum returns the total across all present months
func (m MonthAmounts) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

// At returns the amount for a month, defaulting absent months to zero
func (m MonthAmounts) At(month int) decimal.Decimal {
	if v, ok := m[month]; ok {
		return v
	}
	return decimal.Zero
}

// Record is one project row of the forecast dataset as served by the
// upstream backend. It carries the filterable dimensions and the
// per-month amount maps for a single fiscal year.
type Record struct {
	ID            string       `json:"id"`
	ProjectName   string       `json:"project_name"`
	ProjectNumber string       `json:"project_number,omitempty"`
	OPID          string       `json:"op_id,omitempty"`
	ForecastType  ForecastType `json:"forecast_type"`
	Region        string       `json:"region,omitempty"`
	SourceCountry string       `json:"source_country,omitempty"`
	Vertical      string       `json:"vertical,omitempty"`
	Status        Status       `json:"status,omitempty"`
	Currency      string       `json:"currency,omitempty"`
	CustomerGroup string       `json:"customer_group,omitempty"`
	CustomerName  string       `json:"customer_name,omitempty"`
	Manager       *EntityRef   `json:"manager,omitempty"`
	Cluster       *EntityRef   `json:"cluster,omitempty"`
	FiscalYear    int          `json:"fiscal_year"`

	// Amount maps are keyed by calendar month (1-12)
	ForecastsUSD MonthAmounts `json:"forecasts_usd,omitempty"`
	ForecastsPO  MonthAmounts `json:"forecasts_po,omitempty"`
	Actuals      MonthAmounts `json:"actuals,omitempty"`
}

// AmountsFor returns the amount map matching a report type. ReportAll has
// no single map and returns nil.
func (r *Record) AmountsFor(t ReportType) MonthAmounts {
	switch t {
	case ReportForecastUSD:
		return r.ForecastsUSD
	case ReportForecastPO:
		return r.ForecastsPO
	case ReportActual:
		return r.Actuals
	}
	return nil
}

// ExchangeRate is a currency conversion rate to USD for one fiscal year
type ExchangeRate struct {
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Year     int             `json:"year,omitempty"`
}

// FreezeWindow is the day-of-month span during which forecast editing
// is open for non-privileged roles. Days are inclusive on both ends.
type FreezeWindow struct {
	StartDay int `json:"start_day"`
	EndDay   int `json:"end_day"`
}

// Contains reports whether the given day of month falls inside the window
func (w FreezeWindow) Contains(day int) bool {
	return day >= w.StartDay && day <= w.EndDay
}
