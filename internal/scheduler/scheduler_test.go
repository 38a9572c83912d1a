package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls int32
	busy  bool
}

func (r *countingRefresher) RefreshIfIdle(ctx context.Context) (models.ViewState, bool) {
	atomic.AddInt32(&r.calls, 1)
	return models.ViewState{City: "Allahabad", Loading: r.busy}, !r.busy
}

func TestSchedulerRefreshesOnInterval(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(r, time.Second, time.Second, zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&r.calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if atomic.LoadInt32(&r.calls) == 0 {
		t.Fatal("refresh was never called")
	}

	status := s.GetStatus()
	if status["running"] != true {
		t.Errorf("status = %v", status)
	}
}

func TestSchedulerDisabledWithZeroInterval(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(r, 0, time.Second, zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()

	if status := s.GetStatus(); status["running"] != false {
		t.Errorf("status = %v", status)
	}
	if n := atomic.LoadInt32(&r.calls); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestForceRun(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(r, 0, time.Second, zap.NewNop())

	s.ForceRun()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&r.calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&r.calls) != 1 {
		t.Errorf("calls = %d, want 1", atomic.LoadInt32(&r.calls))
	}
}

func TestRunRefreshToleratesBusyDashboard(t *testing.T) {
	r := &countingRefresher{busy: true}
	s := NewScheduler(r, time.Minute, time.Second, zap.NewNop())

	s.runRefresh()

	if n := atomic.LoadInt32(&r.calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
	if status := s.GetStatus(); status["last_run"].(time.Time).IsZero() {
		t.Errorf("last_run not recorded: %v", status)
	}
}
