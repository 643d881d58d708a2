package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/audit"
)

// reportRunner is the slice of the orchestrator the scheduler drives.
type reportRunner interface {
	Generate(ctx context.Context, actor string, periodStart, periodEnd time.Time, templateID *uuid.UUID, sendImmediately bool) (*GeneratedReport, error)
}

// Scheduler triggers at most one report run per calendar day. It polls every
// minute and fires once the configured generation time has passed, guarded by
// a persisted run marker so a restart within the same day cannot rerun.
type Scheduler struct {
	runner   reportRunner
	settings SettingsStore
	reports  Repository
	logger   *zap.Logger

	cron *cron.Cron
	now  func() time.Time

	mu       sync.Mutex
	inFlight bool
}

// NewScheduler creates a new report scheduler
func NewScheduler(runner reportRunner, settingsStore SettingsStore, reports Repository, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		settings: settingsStore,
		reports:  reports,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins the minute poll loop.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("* * * * *", func() {
		s.Tick(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Report scheduler started")
	return nil
}

// Stop halts the poll loop. Already-running ticks finish on their own.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.logger.Info("Report scheduler stopped")
}

// Tick evaluates the schedule once. Exposed for tests; the cron loop calls it
// every minute. Overlapping ticks collapse to one, and manual pipeline calls
// are never blocked since the scheduler holds no lock shared with them.
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	cfg, err := s.settings.GetScheduleConfig(ctx)
	if err != nil {
		s.logger.Error("Failed to read schedule config", zap.Error(err))
		return
	}
	if !cfg.Enabled {
		return
	}

	now := s.now()
	generationTime, err := time.Parse("15:04:05", cfg.GenerationTime)
	if err != nil {
		s.logger.Error("Invalid generation time in schedule config",
			zap.String("generation_time", cfg.GenerationTime),
			zap.Error(err))
		return
	}

	threshold := time.Date(now.Year(), now.Month(), now.Day(),
		generationTime.Hour(), generationTime.Minute(), generationTime.Second(), 0, now.Location())
	if now.Before(threshold) {
		return
	}

	runDate := now.Format("2006-01-02")
	marker, err := s.reports.GetRunMarker(ctx, runDate)
	if err != nil {
		s.logger.Error("Failed to read run marker", zap.Error(err))
		return
	}
	if marker != nil {
		if marker.ReportID == nil {
			s.logger.Warn("Run marker exists without a report",
				zap.String("run_date", runDate))
		}
		return
	}

	periodEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	periodStart := periodEnd.AddDate(0, 0, -1)

	// A report without a marker means a previous run crashed between the two
	// writes. Reconcile by marking instead of rerunning.
	existing, err := s.reports.FindByPeriod(ctx, periodStart, periodEnd)
	if err != nil {
		s.logger.Error("Failed to check for existing report", zap.Error(err))
		return
	}
	if existing != nil {
		s.logger.Warn("Found report without a run marker, reconciling",
			zap.String("report_id", existing.ID.String()),
			zap.String("run_date", runDate))
		s.writeMarker(ctx, runDate, existing.ID)
		return
	}

	s.logger.Info("Starting scheduled report run",
		zap.String("run_date", runDate),
		zap.Time("period_start", periodStart))

	report, err := s.runner.Generate(ctx, audit.SystemActor, periodStart, periodEnd, nil, true)
	if err != nil {
		// Fatal run failure: no report row exists, so leaving the marker
		// unwritten lets the next tick retry.
		s.logger.Error("Scheduled report run failed", zap.Error(err))
		return
	}

	s.writeMarker(ctx, runDate, report.ID)
}

func (s *Scheduler) writeMarker(ctx context.Context, runDate string, reportID uuid.UUID) {
	err := s.reports.CreateRunMarker(ctx, &RunMarker{
		RunDate:   runDate,
		ReportID:  &reportID,
		CreatedAt: s.now(),
	})
	if err != nil {
		// The next tick sees report-without-marker and reconciles.
		s.logger.Error("Failed to persist run marker",
			zap.String("run_date", runDate),
			zap.Error(err))
	}
}
