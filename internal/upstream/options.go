package upstream

import (
	"context"
	"net/url"

	"github.com/plmware/forecast-api/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Dropdown endpoints. Each returns the full value list for one form
// field; FormOptions fetches them all at once.

// Regions lists the selectable regions
func (c *Client) Regions(ctx context.Context) ([]string, error) {
	return c.stringList(ctx, "/api/filters/regions", nil)
}

// SourceCountries lists countries, optionally narrowed to one region
func (c *Client) SourceCountries(ctx context.Context, region string) ([]string, error) {
	var query url.Values
	if region != "" && region != domain.SelectAll {
		query = url.Values{"region": []string{region}}
	}
	return c.stringList(ctx, "/api/filters/source-countries", query)
}

// Verticals lists the selectable verticals
func (c *Client) Verticals(ctx context.Context) ([]string, error) {
	return c.stringList(ctx, "/api/filters/verticals", nil)
}

// Currencies lists the selectable currencies
func (c *Client) Currencies(ctx context.Context) ([]string, error) {
	return c.stringList(ctx, "/api/filters/currencies", nil)
}

// CustomerGroups lists the selectable customer groups
func (c *Client) CustomerGroups(ctx context.Context) ([]string, error) {
	return c.stringList(ctx, "/api/filters/customer-groups", nil)
}

// CustomerNames lists customer names, optionally narrowed to one group
func (c *Client) CustomerNames(ctx context.Context, customerGroup string) ([]string, error) {
	var query url.Values
	if customerGroup != "" && customerGroup != domain.SelectAll {
		query = url.Values{"customer_group": []string{customerGroup}}
	}
	return c.stringList(ctx, "/api/filters/customer-names", query)
}

// Clusters lists the selectable clusters with their identifiers
func (c *Client) Clusters(ctx context.Context) ([]domain.EntityRef, error) {
	return c.entityList(ctx, "/api/filters/clusters")
}

// Managers lists the selectable managers with their identifiers
func (c *Client) Managers(ctx context.Context) ([]domain.EntityRef, error) {
	return c.entityList(ctx, "/api/filters/managers")
}

// Statuses lists the selectable project statuses
func (c *Client) Statuses(ctx context.Context) ([]string, error) {
	return c.stringList(ctx, "/api/filters/statuses", nil)
}

// Years lists the fiscal years that have data
func (c *Client) Years(ctx context.Context) ([]int, error) {
	var years []int
	if err := c.get(ctx, "/api/filters/years", nil, &years); err != nil {
		return nil, err
	}
	return years, nil
}

// ForecastTypes lists the selectable forecast types
func (c *Client) ForecastTypes(ctx context.Context) ([]string, error) {
	return c.stringList(ctx, "/api/filters/forecast-types", nil)
}

// OPIDs lists the OP identifiers known to the backend
func (c *Client) OPIDs(ctx context.Context) ([]string, error) {
	return c.stringList(ctx, "/api/filters/op-ids", nil)
}

// FormOptions fetches every dropdown concurrently. Any single failure
// fails the whole join: a form with half its dropdowns empty is worse
// than an error the caller can retry.
func (c *Client) FormOptions(ctx context.Context) (*domain.FormOptions, error) {
	var opts domain.FormOptions

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { opts.Regions, err = c.Regions(ctx); return })
	g.Go(func() (err error) { opts.SourceCountry, err = c.SourceCountries(ctx, ""); return })
	g.Go(func() (err error) { opts.Verticals, err = c.Verticals(ctx); return })
	g.Go(func() (err error) { opts.Currencies, err = c.Currencies(ctx); return })
	g.Go(func() (err error) { opts.CustomerGroups, err = c.CustomerGroups(ctx); return })
	g.Go(func() (err error) { opts.CustomerNames, err = c.CustomerNames(ctx, ""); return })
	g.Go(func() (err error) { opts.Clusters, err = c.Clusters(ctx); return })
	g.Go(func() (err error) { opts.Managers, err = c.Managers(ctx); return })
	g.Go(func() (err error) { opts.Statuses, err = c.Statuses(ctx); return })
	g.Go(func() (err error) { opts.Years, err = c.Years(ctx); return })
	g.Go(func() (err error) { opts.ForecastTypes, err = c.ForecastTypes(ctx); return })
	g.Go(func() (err error) { opts.OPIDs, err = c.OPIDs(ctx); return })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (c *Client) stringList(ctx context.Context, path string, query url.Values) ([]string, error) {
	var values []string
	if err := c.get(ctx, path, query, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (c *Client) entityList(ctx context.Context, path string) ([]domain.EntityRef, error) {
	var values []domain.EntityRef
	if err := c.get(ctx, path, nil, &values); err != nil {
		return nil, err
	}
	return values, nil
}
