// Package filter implements the faceted filter engine over the forecast
// dataset. Every dimension is driven by one rule table entry, so adding a
// dimension means adding a rule, not touching the matching code.
package filter

import (
	"sort"
	"strconv"

	"github.com/plmware/forecast-api/internal/domain"
)

// rule describes how one dimension reads and matches a record. Scalar
// dimensions compare the extracted string; entity dimensions compare the
// referenced entity's ID but display and sort by its name.
type rule struct {
	dim    domain.Dimension
	kind   domain.OptionKind
	scalar func(*domain.Record) string
	entity func(*domain.Record) *domain.EntityRef
}

// rules lists every dataset-backed dimension in display order. The
// display currency is deliberately absent: it only changes how amounts
// are converted, never which records match.
var rules = []rule{
	{dim: domain.DimYear, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return strconv.Itoa(r.FiscalYear)
	}},
	{dim: domain.DimForecastType, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return string(r.ForecastType)
	}},
	{dim: domain.DimRegion, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return r.Region
	}},
	{dim: domain.DimSourceCountry, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return r.SourceCountry
	}},
	{dim: domain.DimStatus, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return string(r.Status)
	}},
	{dim: domain.DimVertical, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return r.Vertical
	}},
	{dim: domain.DimCurrency, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return r.Currency
	}},
	{dim: domain.DimCustomerGroup, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return r.CustomerGroup
	}},
	{dim: domain.DimCustomerName, kind: domain.OptionScalar, scalar: func(r *domain.Record) string {
		return r.CustomerName
	}},
	{dim: domain.DimCluster, kind: domain.OptionEntity, entity: func(r *domain.Record) *domain.EntityRef {
		return r.Cluster
	}},
	{dim: domain.DimManager, kind: domain.OptionEntity, entity: func(r *domain.Record) *domain.EntityRef {
		return r.Manager
	}},
}

// Dimensions returns the dataset-backed dimensions in display order
func Dimensions() []domain.Dimension {
	dims := make([]domain.Dimension, len(rules))
	for i, r := range rules {
		dims[i] = r.dim
	}
	return dims
}

func ruleFor(dim domain.Dimension) (rule, bool) {
	for _, r := range rules {
		if r.dim == dim {
			return r, true
		}
	}
	return rule{}, false
}

// matchesRule reports whether a record satisfies one dimension's selected
// value. Records missing the value (empty string or nil reference) never
// match a concrete selection.
func matchesRule(r rule, rec *domain.Record, selected string) bool {
	if selected == domain.SelectAll {
		return true
	}
	if r.kind == domain.OptionEntity {
		ref := r.entity(rec)
		return ref != nil && ref.ID == selected
	}
	return r.scalar(rec) != "" && r.scalar(rec) == selected
}

// Matches reports whether a record satisfies every dimension of the
// selection simultaneously.
func Matches(rec *domain.Record, sel domain.Selection) bool {
	for _, r := range rules {
		if !matchesRule(r, rec, sel.Get(r.dim)) {
			return false
		}
	}
	return true
}

// FilteredSet returns the records matching the selection, preserving
// dataset order.
func FilteredSet(records []domain.Record, sel domain.Selection) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for i := range records {
		if Matches(&records[i], sel) {
			out = append(out, records[i])
		}
	}
	return out
}

// AvailableOptions computes the option list for one dimension. The
// dimension's own selection is ignored while the others stay applied, so
// a user can always widen a choice they already made. Values absent from
// every matching record are excluded.
func AvailableOptions(records []domain.Record, sel domain.Selection, dim domain.Dimension) []domain.Option {
	r, ok := ruleFor(dim)
	if !ok {
		return nil
	}

	// Self-exclusion: compute against the selection with this dimension
	// reset to "all"
	scoped := sel.With(dim, domain.SelectAll)

	seen := make(map[string]bool)
	var opts []domain.Option

	for i := range records {
		rec := &records[i]
		if !Matches(rec, scoped) {
			continue
		}
		if r.kind == domain.OptionEntity {
			ref := r.entity(rec)
			if ref == nil || ref.ID == "" || seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			opts = append(opts, domain.EntityOption(*ref))
		} else {
			val := r.scalar(rec)
			if val == "" || seen[val] {
				continue
			}
			seen[val] = true
			opts = append(opts, domain.ScalarOption(val))
		}
	}

	sortOptions(dim, opts)
	return opts
}

// sortOptions orders options for display: years newest first, everything
// else by name.
func sortOptions(dim domain.Dimension, opts []domain.Option) {
	if dim == domain.DimYear {
		sort.Slice(opts, func(i, j int) bool {
			a, _ := strconv.Atoi(opts[i].Name)
			b, _ := strconv.Atoi(opts[j].Name)
			return a > b
		})
		return
	}
	sort.Slice(opts, func(i, j int) bool {
		return opts[i].Name < opts[j].Name
	})
}
