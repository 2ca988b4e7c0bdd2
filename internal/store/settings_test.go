package store_test

import (
	"path/filepath"
	"testing"

	"github.com/plmware/forecast-api/internal/config"
	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *store.SettingsStore {
	t.Helper()

	cfg := &config.SettingsConfig{Path: filepath.Join(t.TempDir(), "settings.db")}
	s, err := store.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSettingsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("greeting", "hello"))

	value, ok, err := s.Get("greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", value)

	// Overwrite keeps a single row
	require.NoError(t, s.Set("greeting", "goodbye"))
	value, _, err = s.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "goodbye", value)
}

func TestFreezeWindowDefaults(t *testing.T) {
	s := openTestStore(t)

	w, err := s.FreezeWindow()
	require.NoError(t, err)
	assert.Equal(t, domain.FreezeWindow{StartDay: 5, EndDay: 15}, w)
}

func TestSetFreezeWindow(t *testing.T) {
	t.Run("persists across reads", func(t *testing.T) {
		s := openTestStore(t)
		want := domain.FreezeWindow{StartDay: 3, EndDay: 22}

		require.NoError(t, s.SetFreezeWindow(want))

		got, err := s.FreezeWindow()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("rejects days outside the month", func(t *testing.T) {
		s := openTestStore(t)

		assert.Error(t, s.SetFreezeWindow(domain.FreezeWindow{StartDay: 0, EndDay: 10}))
		assert.Error(t, s.SetFreezeWindow(domain.FreezeWindow{StartDay: 1, EndDay: 32}))
	})

	t.Run("rejects inverted windows", func(t *testing.T) {
		s := openTestStore(t)

		assert.Error(t, s.SetFreezeWindow(domain.FreezeWindow{StartDay: 20, EndDay: 10}))

		// Stored defaults stay intact after a rejected update
		w, err := s.FreezeWindow()
		require.NoError(t, err)
		assert.Equal(t, domain.FreezeWindow{StartDay: 5, EndDay: 15}, w)
	})
}
