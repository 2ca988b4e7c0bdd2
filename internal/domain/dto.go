package domain

import (
	"github.com/shopspring/decimal"
)

// Request and response bodies for the HTTP API

// LoginRequest carries user credentials for the upstream login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the bearer token and the user it identifies
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// UserDTO is the authenticated user as decoded from the token
type UserDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// CreateProjectRequest is the payload for registering a new project
// forecast. Every entry carries an OP id; order-backed entries also
// require a project number, target-based entries do not.
type CreateProjectRequest struct {
	ProjectName   string       `json:"project_name" validate:"required,max=200"`
	ForecastType  ForecastType `json:"forecast_type" validate:"required,oneof=OB TB"`
	ProjectNumber string       `json:"project_number,omitempty"`
	OPID          string       `json:"op_id,omitempty"`
	Region        string       `json:"region" validate:"required"`
	SourceCountry string       `json:"source_country,omitempty"`
	Vertical      string       `json:"vertical" validate:"required"`
	Currency      string       `json:"currency" validate:"required"`
	CustomerGroup string       `json:"customer_group" validate:"required"`
	CustomerName  string       `json:"customer_name,omitempty"`
	ClusterID     string       `json:"cluster_id" validate:"required"`
	ManagerID     string       `json:"manager_id" validate:"required"`
	Year          int          `json:"year" validate:"required,gte=2000,lte=2100"`

	// Forecasts keyed by calendar month; only positive amounts are
	// forwarded upstream
	Forecasts MonthAmounts `json:"forecasts"`

	// ConfirmAggregation acknowledges that amounts for an existing OP id
	// will be added onto the existing forecast rather than replace it
	ConfirmAggregation bool `json:"confirm_aggregation,omitempty"`
}

// ForecastEntry is a single month amount as submitted upstream
type ForecastEntry struct {
	ForecastType  ForecastType    `json:"forecast_type"`
	SourceCountry string          `json:"source_country,omitempty"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Amount        decimal.Decimal `json:"amount"`
}

// CheckOPForecastResult describes what submitting a given OP id would do
type CheckOPForecastResult struct {
	Exists        bool   `json:"exists"`
	IsNewOP       bool   `json:"is_new_op"`
	WillAggregate bool   `json:"will_aggregate"`
	Message       string `json:"message,omitempty"`
}

// ReplaceForecastsRequest swaps all monthly amounts of one record for a
// fiscal year.
type ReplaceForecastsRequest struct {
	ForecastType  ForecastType `json:"forecast_type" validate:"required,oneof=OB TB"`
	Year          int          `json:"year" validate:"required,gte=2000,lte=2100"`
	SourceCountry string       `json:"source_country,omitempty"`
	Forecasts     MonthAmounts `json:"forecasts" validate:"required"`
}

// SetExchangeRatesRequest replaces the conversion table for a fiscal year
type SetExchangeRatesRequest struct {
	Year  int            `json:"year" validate:"required,gte=2000,lte=2100"`
	Rates []ExchangeRate `json:"rates" validate:"required,min=1"`
}

// RecordEdit is the sparse set of changed month amounts for one record
type RecordEdit struct {
	ForecastType ForecastType `json:"forecast_type"`
	Forecasts    MonthAmounts `json:"forecasts" validate:"required"`
}

// SaveEditsRequest applies buffered edits, one record at a time
type SaveEditsRequest struct {
	Year  int                   `json:"year" validate:"required"`
	Edits map[string]RecordEdit `json:"edits" validate:"required,min=1"`
}

// SaveEditsResult reports which records were updated before a failure,
// if any, stopped the run.
type SaveEditsResult struct {
	Updated  []string `json:"updated"`
	FailedID string   `json:"failed_id,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ListPage is one page of the forecast listing
type ListPage struct {
	Items      []Record `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalItems int      `json:"total_items"`
	TotalPages int      `json:"total_pages"`
}

// OptionsResponse maps each dimension to its currently available options
type OptionsResponse struct {
	Options map[Dimension][]Option `json:"options"`
	// Stale lists dimensions whose selected value is absent from the
	// current option set; the selection is kept, not reset.
	Stale []Dimension `json:"stale,omitempty"`
}

// FormOptions bundles every dropdown a project form needs
type FormOptions struct {
	Regions        []string    `json:"regions"`
	SourceCountry  []string    `json:"source_countries"`
	Verticals      []string    `json:"verticals"`
	Currencies     []string    `json:"currencies"`
	CustomerGroups []string    `json:"customer_groups"`
	CustomerNames  []string    `json:"customer_names"`
	Clusters       []EntityRef `json:"clusters"`
	Managers       []EntityRef `json:"managers"`
	Statuses       []string    `json:"statuses"`
	Years          []int       `json:"years"`
	ForecastTypes  []string    `json:"forecast_types"`
	OPIDs          []string    `json:"op_ids"`
}

// QuarterAmounts is one fiscal quarter's rollup
type QuarterAmounts struct {
	Quarter  string  `json:"quarter"`
	Forecast float64 `json:"forecast"`
	Actual   float64 `json:"actual"`
}

// DashboardSeries carries every chart series for one fiscal year,
// months ordered April through March.
type DashboardSeries struct {
	FiscalYear         int              `json:"fiscal_year"`
	Labels             []string         `json:"labels"`
	Forecast           []float64        `json:"forecast"`
	ForecastPO         []float64        `json:"forecast_po"`
	Actuals            []float64        `json:"actuals"`
	Variance           []float64        `json:"variance"`
	CumulativeForecast []float64        `json:"cumulative_forecast"`
	CumulativeActuals  []float64        `json:"cumulative_actuals"`
	Quarters           []QuarterAmounts `json:"quarters"`
	TotalForecast      float64          `json:"total_forecast"`
	TotalActuals       float64          `json:"total_actuals"`
}

// BreakdownSlice is one group's share of the filtered dataset
type BreakdownSlice struct {
	Name     string  `json:"name"`
	Forecast float64 `json:"forecast"`
	Actual   float64 `json:"actual"`
	Records  int     `json:"records"`
}

// DashboardSummary is the headline view of the filtered dataset: totals
// plus per-group breakdowns for the overview tiles.
type DashboardSummary struct {
	FiscalYear     int              `json:"fiscal_year"`
	Records        int              `json:"records"`
	TotalForecast  float64          `json:"total_forecast"`
	TotalActuals   float64          `json:"total_actuals"`
	ByRegion       []BreakdownSlice `json:"by_region"`
	ByVertical     []BreakdownSlice `json:"by_vertical"`
	ByStatus       []BreakdownSlice `json:"by_status"`
	ByForecastType []BreakdownSlice `json:"by_forecast_type"`
}

// SetFreezeWindowRequest updates the editable day-of-month span
type SetFreezeWindowRequest struct {
	StartDay int `json:"start_day" validate:"required,gte=1,lte=31"`
	EndDay   int `json:"end_day" validate:"required,gte=1,lte=31,gtefield=StartDay"`
}

// FreezeStatus reports the window and whether editing is currently open
// for the requesting user.
type FreezeStatus struct {
	Window   FreezeWindow `json:"window"`
	Editable bool         `json:"editable"`
}

// ImportResult summarizes an actuals workbook upload
type ImportResult struct {
	Rows     int      `json:"rows"`
	Projects int      `json:"projects"`
	Months   []string `json:"months"`
	Warnings []string `json:"warnings,omitempty"`
}
