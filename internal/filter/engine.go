package filter

import (
	"strconv"
	"sync"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
)

// DefaultDisplayCurrency is the conversion currency a fresh selection uses
const DefaultDisplayCurrency = "USD"

// Snapshot is one consistent view of the engine: the selection, the
// records it matches, every dimension's option list, and any dimensions
// whose selected value has gone stale.
type Snapshot struct {
	Selection domain.Selection
	Filtered  []domain.Record
	Options   map[domain.Dimension][]domain.Option
	// Stale lists dimensions whose selected value no longer appears in
	// their option list. The selection is kept as-is; it simply matches
	// nothing until the user changes it.
	Stale []domain.Dimension
}

// Observer receives a snapshot after every recompute
type Observer func(Snapshot)

// Engine holds the dataset and the current selection for one user
// session. All mutations recompute exactly once and notify observers
// with a consistent snapshot, so a reset never produces intermediate
// states.
type Engine struct {
	mu        sync.RWMutex
	records   []domain.Record
	selection domain.Selection
	observers []Observer
	now       func() time.Time
}

// NewEngine creates an engine with the default selection
func NewEngine(records []domain.Record) *Engine {
	e := &Engine{
		records: records,
		now:     time.Now,
	}
	e.selection = e.defaultSelection()
	return e
}

// defaultSelection is every dimension unfiltered except the fiscal year,
// which starts at the current one, and the display currency.
func (e *Engine) defaultSelection() domain.Selection {
	sel := domain.Selection{}
	for _, dim := range Dimensions() {
		sel[dim] = domain.SelectAll
	}
	sel[domain.DimYear] = strconv.Itoa(domain.CurrentFiscalYear(e.now()))
	sel[domain.DimDisplayCurrency] = DefaultDisplayCurrency
	return sel
}

// Subscribe registers an observer for future snapshots
func (e *Engine) Subscribe(obs Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, obs)
}

// SetRecords replaces the dataset, keeping the current selection
func (e *Engine) SetRecords(records []domain.Record) Snapshot {
	e.mu.Lock()
	e.records = records
	snap := e.snapshotLocked()
	obs := e.observers
	e.mu.Unlock()

	notify(obs, snap)
	return snap
}

// Set changes one dimension and recomputes. Narrowing a parent dimension
// resets its dependent child in the same step: a region change clears the
// source country, a customer group change clears the customer name.
func (e *Engine) Set(dim domain.Dimension, value string) Snapshot {
	if value == "" {
		value = domain.SelectAll
	}

	e.mu.Lock()
	e.selection = e.selection.With(dim, value)
	switch dim {
	case domain.DimRegion:
		e.selection[domain.DimSourceCountry] = domain.SelectAll
	case domain.DimCustomerGroup:
		e.selection[domain.DimCustomerName] = domain.SelectAll
	}
	snap := e.snapshotLocked()
	obs := e.observers
	e.mu.Unlock()

	notify(obs, snap)
	return snap
}

// Apply replaces the whole selection at once, filling dimensions the
// caller omitted with "all". Used when a client sends its full filter
// state in one request.
func (e *Engine) Apply(sel domain.Selection) Snapshot {
	e.mu.Lock()
	next := e.defaultSelection()
	for dim, value := range sel {
		if value != "" {
			next[dim] = value
		}
	}
	e.selection = next
	snap := e.snapshotLocked()
	obs := e.observers
	e.mu.Unlock()

	notify(obs, snap)
	return snap
}

// Reset restores the default selection as a single atomic step with one
// recompute and one notification.
func (e *Engine) Reset() Snapshot {
	e.mu.Lock()
	e.selection = e.defaultSelection()
	snap := e.snapshotLocked()
	obs := e.observers
	e.mu.Unlock()

	notify(obs, snap)
	return snap
}

// Selection returns a copy of the current selection
func (e *Engine) Selection() domain.Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selection.Clone()
}

// Snapshot recomputes and returns the current view without mutating
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Selection: e.selection.Clone(),
		Filtered:  FilteredSet(e.records, e.selection),
		Options:   make(map[domain.Dimension][]domain.Option, len(rules)),
	}

	for _, dim := range Dimensions() {
		opts := AvailableOptions(e.records, e.selection, dim)
		snap.Options[dim] = opts

		selected := e.selection.Get(dim)
		if selected == domain.SelectAll {
			continue
		}
		found := false
		for _, o := range opts {
			if o.SelectionValue() == selected {
				found = true
				break
			}
		}
		if !found {
			snap.Stale = append(snap.Stale, dim)
		}
	}

	return snap
}

func notify(observers []Observer, snap Snapshot) {
	for _, obs := range observers {
		obs(snap)
	}
}
