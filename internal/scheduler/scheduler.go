package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"neuralnews/internal/collector"
)

// ErrFetchInProgress is returned when a manual trigger arrives while an
// orchestration run is already executing. Overlapping runs are rejected
// because the store's dedup check is not atomic with the insert.
var ErrFetchInProgress = errors.New("scheduler: a fetch run is already in progress")

// DefaultIntervalMinutes is used when Start is given a non-positive interval.
const DefaultIntervalMinutes = 45

// FetchRunner is the orchestration entry point the scheduler drives.
type FetchRunner interface {
	FetchAll(ctx context.Context) (collector.RunSummary, error)
}

// Scheduler fires the orchestrator on a fixed cadence anchored to a named
// timezone, and exposes a manual trigger that shares the same in-flight
// guard as the cron firings.
type Scheduler struct {
	cron   *cron.Cron
	runner FetchRunner

	mu       sync.Mutex
	entry    cron.EntryID
	running  bool
	interval int

	inFlight atomic.Bool
}

func New(runner FetchRunner, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
	}
}

// Start registers the recurring trigger and moves the scheduler to running.
// Calling Start while already running replaces the previous cadence.
func (s *Scheduler) Start(intervalMinutes int) error {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}

	spec := fmt.Sprintf("*/%d * * * *", intervalMinutes)
	entry, err := s.cron.AddFunc(spec, s.runScheduled)
	if err != nil {
		return fmt.Errorf("scheduler: register trigger: %w", err)
	}
	s.entry = entry
	s.interval = intervalMinutes

	if !s.running {
		s.cron.Start()
		s.running = true
	}

	log.Printf("scheduler started: fetching every %d minutes", intervalMinutes)
	return nil
}

// Stop cancels the recurring trigger. Calling Stop while stopped is a no-op.
// An in-flight run is allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}
	s.cron.Stop()
	s.running = false
	log.Println("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval reports the currently configured cadence in minutes.
func (s *Scheduler) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interval == 0 {
		return DefaultIntervalMinutes
	}
	return s.interval
}

// TriggerFetch runs the orchestrator immediately, independent of the
// schedule and of the running state. A concurrent run is rejected with
// ErrFetchInProgress rather than allowed to race.
func (s *Scheduler) TriggerFetch(ctx context.Context) (collector.RunSummary, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return collector.RunSummary{}, ErrFetchInProgress
	}
	defer s.inFlight.Store(false)

	log.Println("manual fetch triggered")
	return s.runner.FetchAll(ctx)
}

// runScheduled is the cron callback. Failures are logged and never
// deregister the trigger; a firing that overlaps an ongoing run is skipped.
func (s *Scheduler) runScheduled() {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Println("scheduled fetch skipped: previous run still in progress")
		return
	}
	defer s.inFlight.Store(false)

	log.Println("scheduled fetch starting...")
	if _, err := s.runner.FetchAll(context.Background()); err != nil {
		log.Printf("scheduled fetch failed: %v", err)
	}
}
