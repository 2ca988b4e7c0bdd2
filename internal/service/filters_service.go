package service

import (
	"context"
	"fmt"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/filter"
	"go.uber.org/zap"
)

// OptionsGateway fetches dropdown lists that are not derivable from the
// user's dataset, such as region-scoped country lists.
type OptionsGateway interface {
	SourceCountries(ctx context.Context, region string) ([]string, error)
	CustomerNames(ctx context.Context, customerGroup string) ([]string, error)
	FormOptions(ctx context.Context) (*domain.FormOptions, error)
}

// FiltersService computes faceted filter state over the caller's dataset
type FiltersService struct {
	datasets *DatasetService
	gateway  OptionsGateway
	logger   *zap.Logger
}

// NewFiltersService creates a new FiltersService
func NewFiltersService(datasets *DatasetService, gateway OptionsGateway, logger *zap.Logger) *FiltersService {
	return &FiltersService{
		datasets: datasets,
		gateway:  gateway,
		logger:   logger,
	}
}

// Options applies the client's full filter selection and returns every
// dimension's available options plus any stale selections. The selected
// value of each dimension is excluded from its own narrowing, so users
// can always widen a choice they already made.
func (s *FiltersService) Options(ctx context.Context, year int, sel domain.Selection) (*domain.OptionsResponse, error) {
	records, err := s.datasets.Records(ctx, year)
	if err != nil {
		return nil, err
	}

	engine := filter.NewEngine(records)
	snap := engine.Apply(sel)

	return &domain.OptionsResponse{
		Options: snap.Options,
		Stale:   snap.Stale,
	}, nil
}

// Matching returns the records the selection matches, in dataset order
func (s *FiltersService) Matching(ctx context.Context, year int, sel domain.Selection) ([]domain.Record, error) {
	records, err := s.datasets.Records(ctx, year)
	if err != nil {
		return nil, err
	}
	return filter.FilteredSet(records, sel), nil
}

// SourceCountries lists countries for a region, for the cascading form field
func (s *FiltersService) SourceCountries(ctx context.Context, region string) ([]string, error) {
	countries, err := s.gateway.SourceCountries(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source countries: %w", err)
	}
	return countries, nil
}

// CustomerNames lists customers for a group, for the cascading form field
func (s *FiltersService) CustomerNames(ctx context.Context, customerGroup string) ([]string, error) {
	names, err := s.gateway.CustomerNames(ctx, customerGroup)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer names: %w", err)
	}
	return names, nil
}

// FormOptions fetches every dropdown the project form needs in one join
func (s *FiltersService) FormOptions(ctx context.Context) (*domain.FormOptions, error) {
	opts, err := s.gateway.FormOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form options: %w", err)
	}
	return opts, nil
}
