package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/session"
)

// Shared fakes for the service tests

// fakeFreezeStore serves a fixed window from memory
type fakeFreezeStore struct {
	window domain.FreezeWindow
	setErr error
}

func (f *fakeFreezeStore) FreezeWindow() (domain.FreezeWindow, error) {
	return f.window, nil
}

func (f *fakeFreezeStore) SetFreezeWindow(w domain.FreezeWindow) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.window = w
	return nil
}

// alwaysOpen never excludes any day of the month
func alwaysOpen() *fakeFreezeStore {
	return &fakeFreezeStore{window: domain.FreezeWindow{StartDay: 1, EndDay: 31}}
}

// neverOpen excludes every day of the month
func neverOpen() *fakeFreezeStore {
	return &fakeFreezeStore{window: domain.FreezeWindow{StartDay: 1, EndDay: 0}}
}

func ctxWithRole(role domain.Role) context.Context {
	return session.WithUserContext(context.Background(), &session.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Test User",
		Role:        role,
		Token:       "test-token",
	})
}
