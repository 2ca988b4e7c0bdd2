package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job names registered with the scheduler
const (
	RatesRefreshJobName = "rates_refresh"
	DatasetSweepJobName = "dataset_sweep"
)

// Default timeout for a single refresh run
const defaultRefreshTimeout = 30 * time.Second

// RatesRefresher re-fetches the cached exchange rate tables.
// The interface keeps the job from importing the service package.
type RatesRefresher interface {
	RefreshAll(ctx context.Context) error
}

// DatasetSweeper evicts expired dataset snapshots
type DatasetSweeper interface {
	Sweep(now time.Time) int
}

// RatesRefreshJob keeps the exchange rate cache current so dashboards in
// long-lived processes do not serve stale conversions.
type RatesRefreshJob struct {
	rates   RatesRefresher
	logger  *zap.Logger
	timeout time.Duration
}

// NewRatesRefreshJob creates a new rates refresh job
func NewRatesRefreshJob(rates RatesRefresher, logger *zap.Logger) *RatesRefreshJob {
	return &RatesRefreshJob{
		rates:   rates,
		logger:  logger,
		timeout: defaultRefreshTimeout,
	}
}

// Run executes one refresh. Called by the scheduler.
func (j *RatesRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.rates.RefreshAll(ctx); err != nil {
		j.logger.Warn("exchange rate refresh failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}

	j.logger.Debug("exchange rate refresh completed",
		zap.Duration("duration", time.Since(start)))
}

// DatasetSweepJob evicts expired per-user dataset snapshots so the cache
// does not grow with every user who ever logged in.
type DatasetSweepJob struct {
	datasets DatasetSweeper
	logger   *zap.Logger
}

// NewDatasetSweepJob creates a new dataset sweep job
func NewDatasetSweepJob(datasets DatasetSweeper, logger *zap.Logger) *DatasetSweepJob {
	return &DatasetSweepJob{datasets: datasets, logger: logger}
}

// Run executes one sweep. Called by the scheduler.
func (j *DatasetSweepJob) Run() {
	removed := j.datasets.Sweep(time.Now())
	if removed > 0 {
		j.logger.Debug("dataset snapshots evicted", zap.Int("removed", removed))
	}
}
