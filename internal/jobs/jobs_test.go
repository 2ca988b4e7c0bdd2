package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plmware/forecast-api/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshAll(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakeSweeper struct {
	removed int
	sweeps  int
}

func (f *fakeSweeper) Sweep(now time.Time) int {
	f.sweeps++
	return f.removed
}

func TestRatesRefreshJobRun(t *testing.T) {
	refresher := &fakeRefresher{}
	job := jobs.NewRatesRefreshJob(refresher, zap.NewNop())

	job.Run()
	assert.Equal(t, 1, refresher.calls)
}

func TestRatesRefreshJobSwallowsErrors(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("upstream down")}
	job := jobs.NewRatesRefreshJob(refresher, zap.NewNop())

	assert.NotPanics(t, job.Run)
	assert.Equal(t, 1, refresher.calls)
}

func TestDatasetSweepJobRun(t *testing.T) {
	sweeper := &fakeSweeper{removed: 3}
	job := jobs.NewDatasetSweepJob(sweeper, zap.NewNop())

	job.Run()
	assert.Equal(t, 1, sweeper.sweeps)
}

func TestSchedulerAddJob(t *testing.T) {
	sched := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, sched.AddJob(jobs.RatesRefreshJobName, "@hourly", func() {}))

	t.Run("duplicate names are rejected", func(t *testing.T) {
		err := sched.AddJob(jobs.RatesRefreshJobName, "@hourly", func() {})
		assert.Error(t, err)
	})

	t.Run("invalid expressions are rejected", func(t *testing.T) {
		err := sched.AddJob("broken", "not a cron expr", func() {})
		assert.Error(t, err)
	})
}

func TestSchedulerRunsJobs(t *testing.T) {
	sched := jobs.NewScheduler(zap.NewNop())

	ran := make(chan struct{})
	var once bool
	require.NoError(t, sched.AddJob("tick", "* * * * * *", func() {
		if !once {
			once = true
			close(ran)
		}
	}))

	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}
