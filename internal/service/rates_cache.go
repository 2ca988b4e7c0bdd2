package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RatesGateway reads and writes the exchange rate table on the backend
type RatesGateway interface {
	ExchangeRates(ctx context.Context, year int) ([]domain.ExchangeRate, error)
	SetExchangeRates(ctx context.Context, year int, rates []domain.ExchangeRate) error
}

// RatesCache holds the per-year exchange rate tables. The scheduler
// refreshes it in the background; a cold lookup fetches on demand.
type RatesCache struct {
	gateway RatesGateway
	logger  *zap.Logger

	mu        sync.RWMutex
	byYear    map[int]map[string]decimal.Decimal
	refreshed map[int]time.Time
}

// NewRatesCache creates a new RatesCache
func NewRatesCache(gateway RatesGateway, logger *zap.Logger) *RatesCache {
	return &RatesCache{
		gateway:   gateway,
		logger:    logger,
		byYear:    make(map[int]map[string]decimal.Decimal),
		refreshed: make(map[int]time.Time),
	}
}

// Rate returns the USD conversion rate for a currency in a fiscal year.
// The second return reports whether the currency is known at all.
func (c *RatesCache) Rate(ctx context.Context, year int, currency string) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	table, ok := c.byYear[year]
	c.mu.RUnlock()

	if !ok {
		if err := c.Refresh(ctx, year); err != nil {
			return decimal.Zero, false, err
		}
		c.mu.RLock()
		table = c.byYear[year]
		c.mu.RUnlock()
	}

	rate, found := table[currency]
	return rate, found, nil
}

// Table returns the whole rate table for a year, fetching it if cold
func (c *RatesCache) Table(ctx context.Context, year int) (map[string]decimal.Decimal, error) {
	c.mu.RLock()
	table, ok := c.byYear[year]
	c.mu.RUnlock()

	if ok {
		return table, nil
	}
	if err := c.Refresh(ctx, year); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byYear[year], nil
}

// Refresh re-fetches the rate table for one year
func (c *RatesCache) Refresh(ctx context.Context, year int) error {
	rates, err := c.gateway.ExchangeRates(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to fetch exchange rates: %w", err)
	}

	table := make(map[string]decimal.Decimal, len(rates))
	for _, r := range rates {
		table[r.Currency] = r.Rate
	}

	c.mu.Lock()
	c.byYear[year] = table
	c.refreshed[year] = time.Now()
	c.mu.Unlock()

	c.logger.Debug("Exchange rates refreshed",
		zap.Int("year", year),
		zap.Int("currencies", len(table)),
	)
	return nil
}

// Update replaces the backend's conversion table for a year and refreshes
// the local copy so dashboards pick the new rates up immediately. Sales
// heads only.
func (c *RatesCache) Update(ctx context.Context, req *domain.SetExchangeRatesRequest) error {
	user, ok := session.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !user.Role.IsPrivileged() {
		return ErrPermissionDenied
	}

	if err := c.gateway.SetExchangeRates(ctx, req.Year, req.Rates); err != nil {
		return fmt.Errorf("failed to update exchange rates: %w", err)
	}

	c.logger.Info("Exchange rates updated",
		zap.String("user_id", user.UserID.String()),
		zap.Int("year", req.Year),
		zap.Int("currencies", len(req.Rates)),
	)

	return c.Refresh(ctx, req.Year)
}

// RefreshAll re-fetches every year already present in the cache. Called
// by the scheduler so long-lived processes keep current rates.
func (c *RatesCache) RefreshAll(ctx context.Context) error {
	c.mu.RLock()
	years := make([]int, 0, len(c.byYear))
	for year := range c.byYear {
		years = append(years, year)
	}
	c.mu.RUnlock()

	if len(years) == 0 {
		// Nothing cached yet; warm the current fiscal year
		years = []int{domain.CurrentFiscalYear(time.Now())}
	}

	for _, year := range years {
		if err := c.Refresh(ctx, year); err != nil {
			return err
		}
	}
	return nil
}
