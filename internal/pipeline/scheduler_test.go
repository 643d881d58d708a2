package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/audit"
)

// countingRunner records Generate invocations and returns a minimal report.
type countingRunner struct {
	mu    sync.Mutex
	calls []struct {
		actor           string
		periodStart     time.Time
		periodEnd       time.Time
		sendImmediately bool
	}
	err error
}

func (r *countingRunner) Generate(_ context.Context, actor string, periodStart, periodEnd time.Time, _ *uuid.UUID, sendImmediately bool) (*GeneratedReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, struct {
		actor           string
		periodStart     time.Time
		periodEnd       time.Time
		sendImmediately bool
	}{actor, periodStart, periodEnd, sendImmediately})
	return &GeneratedReport{ID: uuid.New(), PeriodStart: periodStart, PeriodEnd: periodEnd}, nil
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestScheduler(runner *countingRunner, cfg *stubSettings, repo *fakeRepo, now time.Time) *Scheduler {
	s := NewScheduler(runner, cfg, repo, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestTickRunsOncePerDay(t *testing.T) {
	runner := &countingRunner{}
	repo := newFakeRepo()
	now := time.Date(2024, 7, 2, 6, 1, 0, 0, time.UTC)
	scheduler := newTestScheduler(runner, defaultStubSettings(), repo, now)

	for i := 0; i < 5; i++ {
		scheduler.Tick(context.Background())
	}

	assert.Equal(t, 1, runner.count())

	runner.mu.Lock()
	call := runner.calls[0]
	runner.mu.Unlock()
	assert.Equal(t, audit.SystemActor, call.actor)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), call.periodStart)
	assert.Equal(t, time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), call.periodEnd)
	assert.True(t, call.sendImmediately)

	marker, err := repo.GetRunMarker(context.Background(), "2024-07-02")
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.NotNil(t, marker.ReportID)
}

func TestTickSkipsWhenDisabled(t *testing.T) {
	runner := &countingRunner{}
	cfg := defaultStubSettings()
	cfg.schedule.Enabled = false
	now := time.Date(2024, 7, 2, 6, 1, 0, 0, time.UTC)
	scheduler := newTestScheduler(runner, cfg, newFakeRepo(), now)

	for i := 0; i < 10; i++ {
		scheduler.Tick(context.Background())
	}

	assert.Equal(t, 0, runner.count())
}

func TestTickWaitsForGenerationTime(t *testing.T) {
	runner := &countingRunner{}
	now := time.Date(2024, 7, 2, 5, 59, 0, 0, time.UTC)
	scheduler := newTestScheduler(runner, defaultStubSettings(), newFakeRepo(), now)

	scheduler.Tick(context.Background())

	assert.Equal(t, 0, runner.count())
}

func TestTickSkipsWhenMarkerExists(t *testing.T) {
	runner := &countingRunner{}
	repo := newFakeRepo()
	reportID := uuid.New()
	require.NoError(t, repo.CreateRunMarker(context.Background(), &RunMarker{
		RunDate:  "2024-07-02",
		ReportID: &reportID,
	}))
	now := time.Date(2024, 7, 2, 6, 1, 0, 0, time.UTC)
	scheduler := newTestScheduler(runner, defaultStubSettings(), repo, now)

	scheduler.Tick(context.Background())

	assert.Equal(t, 0, runner.count())
}

func TestTickReconcilesReportWithoutMarker(t *testing.T) {
	runner := &countingRunner{}
	repo := newFakeRepo()
	existing := &GeneratedReport{
		ID:          uuid.New(),
		PeriodStart: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), existing))
	now := time.Date(2024, 7, 2, 6, 1, 0, 0, time.UTC)
	scheduler := newTestScheduler(runner, defaultStubSettings(), repo, now)

	scheduler.Tick(context.Background())

	assert.Equal(t, 0, runner.count())
	marker, err := repo.GetRunMarker(context.Background(), "2024-07-02")
	require.NoError(t, err)
	require.NotNil(t, marker)
	require.NotNil(t, marker.ReportID)
	assert.Equal(t, existing.ID, *marker.ReportID)
}

func TestTickRetriesAfterFatalRunFailure(t *testing.T) {
	runner := &countingRunner{err: errors.New("database unavailable")}
	repo := newFakeRepo()
	now := time.Date(2024, 7, 2, 6, 1, 0, 0, time.UTC)
	scheduler := newTestScheduler(runner, defaultStubSettings(), repo, now)

	scheduler.Tick(context.Background())

	marker, err := repo.GetRunMarker(context.Background(), "2024-07-02")
	require.NoError(t, err)
	assert.Nil(t, marker)

	// Next tick retries once the source recovers.
	runner.err = nil
	scheduler.Tick(context.Background())
	assert.Equal(t, 1, runner.count())
}
