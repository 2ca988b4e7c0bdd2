package filter_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineDefaults(t *testing.T) {
	e := filter.NewEngine(testRecords())
	sel := e.Selection()

	assert.Equal(t, strconv.Itoa(domain.CurrentFiscalYear(time.Now())), sel.Get(domain.DimYear))
	assert.Equal(t, filter.DefaultDisplayCurrency, sel.Get(domain.DimDisplayCurrency))
	assert.True(t, sel.IsAll(domain.DimRegion))
	assert.True(t, sel.IsAll(domain.DimManager))
}

func TestEngineSetCascades(t *testing.T) {
	e := filter.NewEngine(testRecords())

	t.Run("region change resets source country", func(t *testing.T) {
		e.Set(domain.DimSourceCountry, "Germany")
		snap := e.Set(domain.DimRegion, "APAC")

		assert.Equal(t, "APAC", snap.Selection.Get(domain.DimRegion))
		assert.True(t, snap.Selection.IsAll(domain.DimSourceCountry))
	})

	t.Run("customer group change resets customer name", func(t *testing.T) {
		e.Set(domain.DimCustomerName, "Nari KK")
		snap := e.Set(domain.DimCustomerGroup, "Volk Group")

		assert.True(t, snap.Selection.IsAll(domain.DimCustomerName))
	})

	t.Run("empty value means unfiltered", func(t *testing.T) {
		snap := e.Set(domain.DimRegion, "")
		assert.True(t, snap.Selection.IsAll(domain.DimRegion))
	})
}

func TestEngineApply(t *testing.T) {
	e := filter.NewEngine(testRecords())
	e.Set(domain.DimVertical, "Automotive")

	snap := e.Apply(domain.Selection{
		domain.DimYear:   "2025",
		domain.DimRegion: "EMEA",
	})

	assert.Equal(t, "EMEA", snap.Selection.Get(domain.DimRegion))
	// Dimensions omitted from the applied selection fall back to "all",
	// including ones set before.
	assert.True(t, snap.Selection.IsAll(domain.DimVertical))
	require.Len(t, snap.Filtered, 2)
}

func TestEngineReset(t *testing.T) {
	e := filter.NewEngine(testRecords())
	e.Apply(domain.Selection{
		domain.DimYear:            "2024",
		domain.DimRegion:          "APAC",
		domain.DimDisplayCurrency: "JPY",
	})

	var notifications int
	e.Subscribe(func(filter.Snapshot) { notifications++ })

	snap := e.Reset()

	assert.Equal(t, 1, notifications, "reset recomputes and notifies exactly once")
	assert.True(t, snap.Selection.IsAll(domain.DimRegion))
	assert.Equal(t, strconv.Itoa(domain.CurrentFiscalYear(time.Now())), snap.Selection.Get(domain.DimYear))
	assert.Equal(t, filter.DefaultDisplayCurrency, snap.Selection.Get(domain.DimDisplayCurrency))
}

func TestEngineStaleSelection(t *testing.T) {
	e := filter.NewEngine(testRecords())

	// Vertical valid under EMEA, then the region moves away from it
	e.Apply(domain.Selection{
		domain.DimYear:     "2025",
		domain.DimRegion:   "EMEA",
		domain.DimVertical: "Aerospace",
	})
	snap := e.Set(domain.DimRegion, "APAC")

	assert.Equal(t, "Aerospace", snap.Selection.Get(domain.DimVertical), "stale selection is kept")
	assert.Contains(t, snap.Stale, domain.DimVertical)
	assert.Empty(t, snap.Filtered, "stale selection matches nothing")
}

func TestEngineSetRecords(t *testing.T) {
	e := filter.NewEngine(nil)
	e.Apply(domain.Selection{domain.DimYear: "2025"})

	snap := e.SetRecords(testRecords())

	assert.Equal(t, "2025", snap.Selection.Get(domain.DimYear), "selection survives a dataset swap")
	require.Len(t, snap.Filtered, 3)
}

func TestEngineObservers(t *testing.T) {
	e := filter.NewEngine(testRecords())

	var seen []filter.Snapshot
	e.Subscribe(func(s filter.Snapshot) { seen = append(seen, s) })

	e.Set(domain.DimRegion, "EMEA")
	e.Set(domain.DimVertical, "Automotive")

	require.Len(t, seen, 2)
	assert.Equal(t, "EMEA", seen[1].Selection.Get(domain.DimRegion))
	assert.Equal(t, "Automotive", seen[1].Selection.Get(domain.DimVertical))
}
