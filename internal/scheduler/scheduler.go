package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the dashboard operation the scheduler drives. It reports false
// when it declined to run because a user-initiated fetch was still pending.
type Refresher interface {
	RefreshIfIdle(ctx context.Context) (models.ViewState, bool)
}

// Scheduler re-runs the weather pipeline for the current city on a fixed
// interval. A run that is still in flight when the next tick fires causes
// that tick to be skipped.
type Scheduler struct {
	refresher Refresher
	logger    *zap.Logger
	interval  time.Duration
	timeout   time.Duration
	cron      *cron.Cron
	entryID   cron.EntryID

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

func NewScheduler(refresher Refresher, interval, timeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		logger:    logger,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start registers the refresh job. An interval of zero disables scheduling.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.interval <= 0 {
		s.logger.Info("Scheduler disabled")
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{s.logger}),
		cron.SkipIfStillRunning(cronLogger{s.logger}),
	))
	id, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runRefresh)
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	c.Start()
	s.cron = c
	s.entryID = id
	s.running = true

	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.Time("next_run", c.Entry(id).Next))
	return nil
}

func (s *Scheduler) runRefresh() {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startTime := time.Now()
	state, ran := s.refresher.RefreshIfIdle(ctx)
	if !ran {
		s.logger.Info("Scheduled refresh skipped, dashboard busy",
			zap.String("city", state.City))
		return
	}

	if state.LastError != "" {
		s.logger.Warn("Scheduled refresh failed",
			zap.String("city", state.City),
			zap.String("message", state.LastError),
			zap.Duration("duration", time.Since(startTime)))
		return
	}
	s.logger.Info("Scheduled refresh completed",
		zap.String("city", state.City),
		zap.Duration("duration", time.Since(startTime)))
}

// Stop halts scheduling and waits for an in-flight refresh to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-c.Stop().Done()
}

// ForceRun triggers a refresh outside the schedule.
func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering refresh")
	go s.runRefresh()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"interval": s.interval.String(),
		"last_run": s.lastRun,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
