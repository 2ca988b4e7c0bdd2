package service_test

import (
	"context"
	"testing"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFreezeServiceStatus(t *testing.T) {
	t.Run("inside the window editing is open", func(t *testing.T) {
		svc := service.NewFreezeService(alwaysOpen(), zap.NewNop())

		status, err := svc.Status(ctxWithRole(domain.RoleProjectManager))
		require.NoError(t, err)
		assert.True(t, status.Editable)
	})

	t.Run("outside the window editing is closed", func(t *testing.T) {
		svc := service.NewFreezeService(neverOpen(), zap.NewNop())

		status, err := svc.Status(ctxWithRole(domain.RoleClusterHead))
		require.NoError(t, err)
		assert.False(t, status.Editable)
	})

	t.Run("sales head is always editable", func(t *testing.T) {
		svc := service.NewFreezeService(neverOpen(), zap.NewNop())

		status, err := svc.Status(ctxWithRole(domain.RoleSalesHead))
		require.NoError(t, err)
		assert.True(t, status.Editable)
	})

	t.Run("no session falls back to the window alone", func(t *testing.T) {
		svc := service.NewFreezeService(neverOpen(), zap.NewNop())

		status, err := svc.Status(context.Background())
		require.NoError(t, err)
		assert.False(t, status.Editable)
	})
}

func TestFreezeServiceCheckEditable(t *testing.T) {
	svc := service.NewFreezeService(neverOpen(), zap.NewNop())

	assert.ErrorIs(t, svc.CheckEditable(ctxWithRole(domain.RoleProjectManager)), service.ErrEditingFrozen)
	assert.NoError(t, svc.CheckEditable(ctxWithRole(domain.RoleSalesHead)))
}

func TestFreezeServiceSetWindow(t *testing.T) {
	newWindow := domain.FreezeWindow{StartDay: 3, EndDay: 20}

	t.Run("sales head may change the window", func(t *testing.T) {
		store := alwaysOpen()
		svc := service.NewFreezeService(store, zap.NewNop())

		require.NoError(t, svc.SetWindow(ctxWithRole(domain.RoleSalesHead), newWindow))
		assert.Equal(t, newWindow, store.window)
	})

	t.Run("other roles are denied", func(t *testing.T) {
		store := alwaysOpen()
		svc := service.NewFreezeService(store, zap.NewNop())

		assert.ErrorIs(t, svc.SetWindow(ctxWithRole(domain.RoleProjectManager), newWindow), service.ErrPermissionDenied)
		assert.ErrorIs(t, svc.SetWindow(ctxWithRole(domain.RoleClusterHead), newWindow), service.ErrPermissionDenied)
		assert.NotEqual(t, newWindow, store.window)
	})

	t.Run("no session is unauthorized", func(t *testing.T) {
		svc := service.NewFreezeService(alwaysOpen(), zap.NewNop())
		assert.ErrorIs(t, svc.SetWindow(context.Background(), newWindow), service.ErrUnauthorized)
	})
}
