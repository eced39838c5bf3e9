package detect

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default debounce windows for document mutations and navigations
const (
	DefaultMutationDebounce   = 500 * time.Millisecond
	DefaultNavigationDebounce = 250 * time.Millisecond
)

// State is the observable scheduler state
type State int

const (
	StateIdle State = iota
	StateScanning
	StateScanningQueued
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateScanningQueued:
		return "scanning+queued"
	default:
		return "idle"
	}
}

// SchedulerOptions tunes the scheduler debounce windows
type SchedulerOptions struct {
	MutationDebounce   time.Duration
	NavigationDebounce time.Duration
	// OnNavigate runs before the scan that follows a navigation
	OnNavigate func(url string)
}

// Scheduler serializes scans. A trigger that arrives while a scan is running
// is folded into a single follow-up scan.
type Scheduler struct {
	scan       func(ctx context.Context)
	onNavigate func(url string)

	mutation   *debouncer
	navigation *debouncer

	mu       sync.Mutex
	ctx      context.Context
	scanning bool
	queued   bool
	stopped  bool
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler that runs scan on every trigger
func NewScheduler(scan func(ctx context.Context), opts SchedulerOptions) *Scheduler {
	if opts.MutationDebounce <= 0 {
		opts.MutationDebounce = DefaultMutationDebounce
	}
	if opts.NavigationDebounce <= 0 {
		opts.NavigationDebounce = DefaultNavigationDebounce
	}
	return &Scheduler{
		scan:       scan,
		onNavigate: opts.OnNavigate,
		mutation:   &debouncer{delay: opts.MutationDebounce},
		navigation: &debouncer{delay: opts.NavigationDebounce},
		ctx:        context.Background(),
	}
}

// Start binds the context every scan runs under and triggers the initial scan
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.Trigger()
}

// Trigger requests a scan now. It is a no-op once the scheduler is stopped.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.scanning {
		s.queued = true
		s.mu.Unlock()
		return
	}
	s.scanning = true
	s.queued = false
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(ctx)
}

// NotifyMutation schedules a debounced scan after a document mutation
func (s *Scheduler) NotifyMutation() {
	s.mutation.call(s.Trigger)
}

// NotifyNavigation schedules a debounced navigation reset followed by a scan.
// Only the last URL of a burst is reported to OnNavigate.
func (s *Scheduler) NotifyNavigation(url string) {
	s.navigation.call(func() {
		if s.onNavigate != nil {
			s.onNavigate(url)
		}
		s.Trigger()
	})
}

// State reports whether a scan is running and whether another is queued
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.scanning && s.queued:
		return StateScanningQueued
	case s.scanning:
		return StateScanning
	}
	return StateIdle
}

// Wait blocks until the running scan and any queued follow-up have finished
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Stop cancels pending debounced triggers and refuses new ones. A running
// scan is not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.mutation.stop()
	s.navigation.stop()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		s.runScan(ctx)

		s.mu.Lock()
		if !s.queued || ctx.Err() != nil {
			s.scanning = false
			s.queued = false
			s.mu.Unlock()
			return
		}
		s.queued = false
		ctx = s.ctx
		s.mu.Unlock()
	}
}

func (s *Scheduler) runScan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scan panicked", "panic", r)
		}
	}()
	s.scan(ctx)
}

// debouncer runs the most recent call once delay has passed without another call
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	stopped bool
}

func (d *debouncer) call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
