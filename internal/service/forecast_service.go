package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/filter"
	"github.com/plmware/forecast-api/internal/session"
	"go.uber.org/zap"
)

// Listing page sizes offered to clients; DefaultPageSize applies when the
// client sends none.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// EditGateway is the upstream surface the forecast listing needs
type EditGateway interface {
	UpdateEditedForecast(ctx context.Context, projectID string, year int, edit domain.RecordEdit, entries []domain.ForecastEntry) error
}

// ForecastService serves the paginated forecast listing and applies
// buffered edits.
type ForecastService struct {
	datasets *DatasetService
	gateway  EditGateway
	freeze   *FreezeService
	logger   *zap.Logger
	now      func() time.Time
}

// NewForecastService creates a new ForecastService
func NewForecastService(datasets *DatasetService, gateway EditGateway, freeze *FreezeService, logger *zap.Logger) *ForecastService {
	return &ForecastService{
		datasets: datasets,
		gateway:  gateway,
		freeze:   freeze,
		logger:   logger,
		now:      time.Now,
	}
}

// Paginate slices records into one page. Pagination never re-filters or
// re-sorts; it is a pure window over the already-filtered set. Out of
// range pages clamp to the nearest valid page.
func Paginate(records []domain.Record, page, pageSize int) domain.ListPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return domain.ListPage{
		Items:      records[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// List returns one page of the caller's filtered listing
func (s *ForecastService) List(ctx context.Context, year int, sel domain.Selection, page, pageSize int) (*domain.ListPage, error) {
	records, err := s.datasets.Records(ctx, year)
	if err != nil {
		return nil, err
	}

	filtered := filter.FilteredSet(records, sel)
	result := Paginate(filtered, page, pageSize)
	return &result, nil
}

// SaveEdits applies a buffer of per-record edits upstream, one record at
// a time. The run stops at the first failure; records updated before it
// stay updated, and the result names the record that failed.
func (s *ForecastService) SaveEdits(ctx context.Context, req *domain.SaveEditsRequest) (*domain.SaveEditsResult, error) {
	user, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if err := s.freeze.CheckEditable(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	for id, edit := range req.Edits {
		for month := range edit.Forecasts {
			if !domain.MonthEditable(req.Year, month, now) {
				return nil, fmt.Errorf("%w: month %d of %d is closed for editing (record %s)",
					ErrInvalidInput, month, req.Year, id)
			}
		}
	}

	result := &domain.SaveEditsResult{}

	// Deterministic order so a partial failure is reproducible
	for _, id := range sortedEditIDs(req.Edits) {
		edit := req.Edits[id]
		entries := editEntries(req.Year, edit)

		if err := s.gateway.UpdateEditedForecast(ctx, id, req.Year, edit, entries); err != nil {
			result.FailedID = id
			result.Error = err.Error()
			s.logger.Warn("Forecast edit run stopped",
				zap.String("user_id", user.UserID.String()),
				zap.String("failed_record", id),
				zap.Int("updated_before_failure", len(result.Updated)),
				zap.Error(err),
			)
			break
		}
		result.Updated = append(result.Updated, id)
	}

	if len(result.Updated) > 0 {
		s.datasets.Invalidate(ctx)
	}

	s.logger.Info("Forecast edits applied",
		zap.String("user_id", user.UserID.String()),
		zap.Int("year", req.Year),
		zap.Int("updated", len(result.Updated)),
		zap.Bool("partial", result.FailedID != ""),
	)

	return result, nil
}

func editEntries(year int, edit domain.RecordEdit) []domain.ForecastEntry {
	var entries []domain.ForecastEntry
	for _, month := range domain.FiscalMonths {
		amount, ok := edit.Forecasts[month]
		if !ok {
			continue
		}
		entries = append(entries, domain.ForecastEntry{
			ForecastType: edit.ForecastType,
			Year:         year,
			Month:        month,
			Amount:       amount,
		})
	}
	return entries
}

func sortedEditIDs(edits map[string]domain.RecordEdit) []string {
	ids := make([]string, 0, len(edits))
	for id := range edits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
