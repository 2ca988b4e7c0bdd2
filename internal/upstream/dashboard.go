package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/plmware/forecast-api/internal/domain"
)

// ExchangeRates fetches the currency conversion table for a fiscal year
func (c *Client) ExchangeRates(ctx context.Context, year int) ([]domain.ExchangeRate, error) {
	query := url.Values{}
	if year > 0 {
		query.Set("year", strconv.Itoa(year))
	}

	var rates []domain.ExchangeRate
	if err := c.get(ctx, "/api/dashboard/exchange-rates", query, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// setExchangeRatesPayload replaces a fiscal year's conversion table
type setExchangeRatesPayload struct {
	Year  int                   `json:"year"`
	Rates []domain.ExchangeRate `json:"rates"`
}

// SetExchangeRates replaces the conversion table for a fiscal year
func (c *Client) SetExchangeRates(ctx context.Context, year int, rates []domain.ExchangeRate) error {
	payload := setExchangeRatesPayload{Year: year, Rates: rates}
	return c.put(ctx, "/api/dashboard/exchange-rates", payload, nil)
}
