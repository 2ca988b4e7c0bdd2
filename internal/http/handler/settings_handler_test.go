package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/http/handler"
	"github.com/plmware/forecast-api/internal/service"
	"github.com/plmware/forecast-api/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memFreezeStore struct {
	window domain.FreezeWindow
}

func (s *memFreezeStore) FreezeWindow() (domain.FreezeWindow, error) {
	return s.window, nil
}

func (s *memFreezeStore) SetFreezeWindow(w domain.FreezeWindow) error {
	s.window = w
	return nil
}

func newSettingsHandler(store service.FreezeStore) *handler.SettingsHandler {
	logger := zap.NewNop()
	return handler.NewSettingsHandler(service.NewFreezeService(store, logger), logger)
}

func requestAs(method, target, body string, role domain.Role) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := session.WithUserContext(req.Context(), &session.UserContext{Role: role})
	return req.WithContext(ctx)
}

func TestSettingsHandlerFreezeStatus(t *testing.T) {
	h := newSettingsHandler(&memFreezeStore{window: domain.FreezeWindow{StartDay: 1, EndDay: 31}})

	rec := httptest.NewRecorder()
	h.FreezeStatus(rec, requestAs(http.MethodGet, "/api/v1/settings/freeze", "", domain.RoleProjectManager))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status domain.FreezeStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, 1, status.Window.StartDay)
	assert.Equal(t, 31, status.Window.EndDay)
	assert.True(t, status.Editable)
}

func TestSettingsHandlerSetFreezeWindow(t *testing.T) {
	store := &memFreezeStore{window: domain.FreezeWindow{StartDay: 5, EndDay: 15}}
	h := newSettingsHandler(store)

	t.Run("sales head updates the window", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"start_day": 3, "end_day": 20}`
		h.SetFreezeWindow(rec, requestAs(http.MethodPut, "/api/v1/settings/freeze", body, domain.RoleSalesHead))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.FreezeWindow{StartDay: 3, EndDay: 20}, store.window)
	})

	t.Run("other roles are forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"start_day": 1, "end_day": 10}`
		h.SetFreezeWindow(rec, requestAs(http.MethodPut, "/api/v1/settings/freeze", body, domain.RoleProjectManager))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, domain.FreezeWindow{StartDay: 3, EndDay: 20}, store.window)
	})

	t.Run("inverted span fails validation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"start_day": 20, "end_day": 5}`
		h.SetFreezeWindow(rec, requestAs(http.MethodPut, "/api/v1/settings/freeze", body, domain.RoleSalesHead))

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var apiErr domain.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Contains(t, apiErr.Errors, "end_day")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.SetFreezeWindow(rec, requestAs(http.MethodPut, "/api/v1/settings/freeze", "{", domain.RoleSalesHead))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
