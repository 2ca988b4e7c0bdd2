package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/session"
	"go.uber.org/zap"
)

// DatasetGateway fetches a user's project records from the backend
type DatasetGateway interface {
	UserProjects(ctx context.Context, year int) ([]domain.Record, error)
}

// DatasetService caches each user's dataset snapshot for a short TTL.
// The backend scopes records by role, so snapshots are keyed per user and
// never shared between them.
type DatasetService struct {
	gateway DatasetGateway
	ttl     time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]*datasetEntry
}

type datasetEntry struct {
	records []domain.Record
	fetched time.Time
}

// NewDatasetService creates a new DatasetService
func NewDatasetService(gateway DatasetGateway, ttl time.Duration, logger *zap.Logger) *DatasetService {
	return &DatasetService{
		gateway: gateway,
		ttl:     ttl,
		logger:  logger,
		cache:   make(map[string]*datasetEntry),
	}
}

// Records returns the caller's dataset for a fiscal year, serving a
// cached snapshot when one is still fresh.
func (s *DatasetService) Records(ctx context.Context, year int) ([]domain.Record, error) {
	user, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	key := fmt.Sprintf("%s|%d", user.UserID, year)

	s.mu.Lock()
	entry, hit := s.cache[key]
	if hit && time.Since(entry.fetched) < s.ttl {
		records := entry.records
		s.mu.Unlock()
		return records, nil
	}
	s.mu.Unlock()

	records, err := s.gateway.UserProjects(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user projects: %w", err)
	}

	s.mu.Lock()
	s.cache[key] = &datasetEntry{records: records, fetched: time.Now()}
	s.mu.Unlock()

	s.logger.Debug("Dataset snapshot refreshed",
		zap.String("user_id", user.UserID.String()),
		zap.Int("year", year),
		zap.Int("records", len(records)),
	)

	return records, nil
}

// Invalidate drops every cached snapshot for a user, e.g. after a write
func (s *DatasetService) Invalidate(ctx context.Context) {
	user, ok := session.FromContext(ctx)
	if !ok {
		return
	}
	prefix := user.UserID.String() + "|"

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.cache {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.cache, key)
		}
	}
}

// Sweep evicts expired snapshots and returns how many were removed.
// Called periodically by the scheduler.
func (s *DatasetService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.cache {
		if now.Sub(entry.fetched) >= s.ttl {
			delete(s.cache, key)
			removed++
		}
	}
	return removed
}
