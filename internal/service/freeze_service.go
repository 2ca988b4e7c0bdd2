package service

import (
	"context"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/session"
	"go.uber.org/zap"
)

// FreezeService gates forecast writes on the monthly editing window.
// The window is a day-of-month span stored locally; sales heads bypass it.
type FreezeService struct {
	store  FreezeStore
	logger *zap.Logger
	now    func() time.Time
}

// FreezeStore persists the freeze window
type FreezeStore interface {
	FreezeWindow() (domain.FreezeWindow, error)
	SetFreezeWindow(w domain.FreezeWindow) error
}

// NewFreezeService creates a new FreezeService
func NewFreezeService(store FreezeStore, logger *zap.Logger) *FreezeService {
	return &FreezeService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Window returns the current freeze window
func (s *FreezeService) Window() (domain.FreezeWindow, error) {
	return s.store.FreezeWindow()
}

// Status returns the window together with whether the calling user may
// edit right now.
func (s *FreezeService) Status(ctx context.Context) (*domain.FreezeStatus, error) {
	w, err := s.store.FreezeWindow()
	if err != nil {
		return nil, err
	}

	editable := w.Contains(s.now().Day())
	if user, ok := session.FromContext(ctx); ok && user.Role.IsPrivileged() {
		editable = true
	}

	return &domain.FreezeStatus{Window: w, Editable: editable}, nil
}

// CheckEditable returns ErrEditingFrozen when the calling user may not
// write forecasts right now.
func (s *FreezeService) CheckEditable(ctx context.Context) error {
	status, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if !status.Editable {
		return ErrEditingFrozen
	}
	return nil
}

// SetWindow updates the freeze window. Only sales heads may change it.
func (s *FreezeService) SetWindow(ctx context.Context, w domain.FreezeWindow) error {
	user, ok := session.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !user.Role.IsPrivileged() {
		return ErrPermissionDenied
	}

	if err := s.store.SetFreezeWindow(w); err != nil {
		return err
	}

	s.logger.Info("Freeze window changed",
		zap.String("user_id", user.UserID.String()),
		zap.Int("start_day", w.StartDay),
		zap.Int("end_day", w.EndDay),
	)
	return nil
}
