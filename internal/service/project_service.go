package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/session"
	"go.uber.org/zap"
)

// Identifier formats enforced before anything is sent upstream
var (
	projectNumberPattern = regexp.MustCompile(`^DP\d{6}$`)
	opIDPattern          = regexp.MustCompile(`^OP\d{6}$`)
)

// ProjectGateway is the upstream surface the project service needs
type ProjectGateway interface {
	Project(ctx context.Context, projectID string) (*domain.Record, error)
	CreateProject(ctx context.Context, req *domain.CreateProjectRequest, entries []domain.ForecastEntry) (*domain.Record, error)
	UpdateProject(ctx context.Context, projectID string, req *domain.CreateProjectRequest, entries []domain.ForecastEntry) (*domain.Record, error)
	DeleteProject(ctx context.Context, projectID string) error
	ReplaceForecasts(ctx context.Context, projectID string, year int, forecastType domain.ForecastType, entries []domain.ForecastEntry) error
	CheckOPForecast(ctx context.Context, opID string, year int, forecastType domain.ForecastType) (*domain.CheckOPForecastResult, error)
}

// ProjectService handles project forecast registration
type ProjectService struct {
	gateway  ProjectGateway
	freeze   *FreezeService
	datasets *DatasetService
	logger   *zap.Logger
	now      func() time.Time
}

// NewProjectService creates a new ProjectService
func NewProjectService(gateway ProjectGateway, freeze *FreezeService, datasets *DatasetService, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		gateway:  gateway,
		freeze:   freeze,
		datasets: datasets,
		logger:   logger,
		now:      time.Now,
	}
}

// Get fetches a single project record
func (s *ProjectService) Get(ctx context.Context, projectID string) (*domain.Record, error) {
	if projectID == "" {
		return nil, ErrInvalidInput
	}
	record, err := s.gateway.Project(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return record, nil
}

// ValidateProjectNumber checks the DP-number format
func ValidateProjectNumber(number string) error {
	if !projectNumberPattern.MatchString(number) {
		return ErrInvalidProjectNumber
	}
	return nil
}

// ValidateOPID checks the OP-id format
func ValidateOPID(opID string) error {
	if !opIDPattern.MatchString(opID) {
		return ErrInvalidOPID
	}
	return nil
}

// validate applies the identifier rules: every submission names a valid
// OP id, and order-backed entries must additionally carry a project
// number. A project number on a target-based entry is optional but is
// still checked for format when present.
func (s *ProjectService) validate(req *domain.CreateProjectRequest) error {
	if req.OPID == "" {
		return ErrInvalidOPID
	}
	if err := ValidateOPID(req.OPID); err != nil {
		return err
	}

	switch req.ForecastType {
	case domain.ForecastTypeOB:
		if req.ProjectNumber == "" {
			return ErrProjectNumberRequired
		}
	case domain.ForecastTypeTB:
	default:
		return ErrInvalidInput
	}

	if req.ProjectNumber != "" {
		if err := ValidateProjectNumber(req.ProjectNumber); err != nil {
			return err
		}
	}
	return nil
}

// buildEntries turns the month/amount map into the upstream submission
// list. Only strictly positive amounts are sent; zeroes and negatives are
// silently dropped rather than rejected, matching how the form behaves.
func buildEntries(req *domain.CreateProjectRequest) []domain.ForecastEntry {
	var entries []domain.ForecastEntry
	for _, month := range domain.FiscalMonths {
		amount, ok := req.Forecasts[month]
		if !ok || !amount.IsPositive() {
			continue
		}
		entries = append(entries, domain.ForecastEntry{
			ForecastType:  req.ForecastType,
			SourceCountry: req.SourceCountry,
			Year:          req.Year,
			Month:         month,
			Amount:        amount,
		})
	}
	return entries
}

// CheckOPForecast reports what submitting an OP id for the given
// forecast type would do upstream.
func (s *ProjectService) CheckOPForecast(ctx context.Context, opID string, year int, forecastType domain.ForecastType) (*domain.CheckOPForecastResult, error) {
	if err := ValidateOPID(opID); err != nil {
		return nil, err
	}
	result, err := s.gateway.CheckOPForecast(ctx, opID, year, forecastType)
	if err != nil {
		return nil, fmt.Errorf("failed to check OP forecast: %w", err)
	}
	return result, nil
}

// Create registers a new project forecast. The OP id is checked
// upstream first: an id already registered for the forecast type is a
// conflict, and an order-backed id that would aggregate onto an
// existing forecast needs the caller's explicit confirmation. Without
// it the submission is refused, never silently merged.
func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.Record, error) {
	user, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if err := s.validate(req); err != nil {
		return nil, err
	}

	if err := s.freeze.CheckEditable(ctx); err != nil {
		return nil, err
	}

	entries := buildEntries(req)
	if len(entries) == 0 {
		return nil, ErrNoPositiveAmounts
	}

	check, err := s.gateway.CheckOPForecast(ctx, req.OPID, req.Year, req.ForecastType)
	if err != nil {
		return nil, fmt.Errorf("failed to check OP forecast: %w", err)
	}
	if check.Exists {
		return nil, ErrOPForecastExists
	}
	if req.ForecastType == domain.ForecastTypeOB && check.WillAggregate && !req.ConfirmAggregation {
		return nil, ErrConfirmationRequired
	}

	created, err := s.gateway.CreateProject(ctx, req, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	// The cached dataset no longer reflects upstream
	s.datasets.Invalidate(ctx)

	s.logger.Info("Project forecast created",
		zap.String("user_id", user.UserID.String()),
		zap.String("project_name", req.ProjectName),
		zap.String("forecast_type", string(req.ForecastType)),
		zap.Int("year", req.Year),
		zap.Int("months", len(entries)),
	)

	return created, nil
}

// Update replaces an existing project forecast's master data and monthly
// amounts. The identifier rules are re-checked; the aggregation check is
// not, since the record already exists.
func (s *ProjectService) Update(ctx context.Context, projectID string, req *domain.CreateProjectRequest) (*domain.Record, error) {
	user, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if projectID == "" {
		return nil, ErrInvalidInput
	}

	if err := s.validate(req); err != nil {
		return nil, err
	}

	if err := s.freeze.CheckEditable(ctx); err != nil {
		return nil, err
	}

	entries := buildEntries(req)
	if len(entries) == 0 {
		return nil, ErrNoPositiveAmounts
	}

	updated, err := s.gateway.UpdateProject(ctx, projectID, req, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.datasets.Invalidate(ctx)

	s.logger.Info("Project forecast updated",
		zap.String("user_id", user.UserID.String()),
		zap.String("project_id", projectID),
		zap.Int("year", req.Year),
		zap.Int("months", len(entries)),
	)

	return updated, nil
}

// Delete removes a project forecast upstream
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	user, ok := session.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if projectID == "" {
		return ErrInvalidInput
	}

	if err := s.freeze.CheckEditable(ctx); err != nil {
		return err
	}

	if err := s.gateway.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.datasets.Invalidate(ctx)

	s.logger.Info("Project forecast deleted",
		zap.String("user_id", user.UserID.String()),
		zap.String("project_id", projectID),
	)
	return nil
}

// ReplaceForecasts swaps all of a record's monthly amounts for one fiscal
// year. Non-positive amounts are dropped the same way the create flow
// drops them; at least one positive month must remain.
func (s *ProjectService) ReplaceForecasts(ctx context.Context, projectID string, req *domain.ReplaceForecastsRequest) error {
	user, ok := session.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if projectID == "" {
		return ErrInvalidInput
	}

	if err := s.freeze.CheckEditable(ctx); err != nil {
		return err
	}

	var entries []domain.ForecastEntry
	for _, month := range domain.FiscalMonths {
		amount, ok := req.Forecasts[month]
		if !ok || !amount.IsPositive() {
			continue
		}
		entries = append(entries, domain.ForecastEntry{
			ForecastType:  req.ForecastType,
			SourceCountry: req.SourceCountry,
			Year:          req.Year,
			Month:         month,
			Amount:        amount,
		})
	}
	if len(entries) == 0 {
		return ErrNoPositiveAmounts
	}

	if err := s.gateway.ReplaceForecasts(ctx, projectID, req.Year, req.ForecastType, entries); err != nil {
		return fmt.Errorf("failed to replace forecasts: %w", err)
	}

	s.datasets.Invalidate(ctx)

	s.logger.Info("Project forecasts replaced",
		zap.String("user_id", user.UserID.String()),
		zap.String("project_id", projectID),
		zap.Int("year", req.Year),
		zap.Int("months", len(entries)),
	)
	return nil
}

// EditableMonths reports, per fiscal month of the given year, whether the
// month is still open for entry. Past calendar months are closed.
func (s *ProjectService) EditableMonths(year int) map[int]bool {
	now := s.now()
	out := make(map[int]bool, len(domain.FiscalMonths))
	for _, month := range domain.FiscalMonths {
		out[month] = domain.MonthEditable(year, month, now)
	}
	return out
}
