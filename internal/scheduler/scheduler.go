// Package scheduler runs sync passes once at start and then on a fixed
// interval, never more than one at a time.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	ErrNotIdle = errors.New("scheduler already running")
	ErrStopped = errors.New("scheduler stopped")
)

type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Runner runs one complete pass and reports how many items are visible
// afterwards. *paginator.Paginator is a Runner.
type Runner interface {
	RunPass(ctx context.Context) (int, error)
}

// Result describes one finished pass.
type Result struct {
	Items    int
	Err      error
	Manual   bool
	Started  time.Time
	Duration time.Duration
}

type Options struct {
	// OnResult is called after every pass, success or failure, before the
	// next pass may start. It should not block for long.
	OnResult func(Result)
}

type Scheduler struct {
	runner   Runner
	onResult func(Result)
	// One pass at a time, periodic or manual.
	sem *semaphore.Weighted

	mu       sync.Mutex
	state    State
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func New(r Runner, opts Options) *Scheduler {
	return &Scheduler{
		runner:   r,
		onResult: opts.OnResult,
		sem:      semaphore.NewWeighted(1),
	}
}

// Start runs a pass immediately in the background and, when interval > 0,
// schedules each following pass interval after the previous one finished.
// With interval <= 0 only the first pass runs and the scheduler returns to
// Idle. Cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Stopped:
		return ErrStopped
	case Running:
		return ErrNotIdle
	}

	s.state = Running
	s.interval = interval
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	slog.Info("Scheduler started", "interval", interval)

	go s.loop(ctx, s.stop, s.done)
	return nil
}

// Stop prevents any further pass from being scheduled. A pass already in
// flight runs to completion and its result is applied. Stop is terminal.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Stopped {
		return
	}
	s.state = Stopped
	if s.stop != nil {
		close(s.stop)
	}
	slog.Info("Scheduler stopped")
}

// Trigger runs a pass on the calling goroutine, waiting for any pass already
// in flight to finish first.
func (s *Scheduler) Trigger(ctx context.Context) (int, error) {
	if s.State() == Stopped {
		return 0, ErrStopped
	}
	res, ran := s.run(ctx, nil, true)
	if !ran {
		return 0, ErrStopped
	}
	return res.Items, res.Err
}

// SetInterval changes the delay used the next time a pass is scheduled. A
// timer that is already armed keeps its original delay.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the background loop started by the last Start has exited.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		if _, ran := s.run(ctx, stop, false); !ran {
			if ctx.Err() != nil {
				s.Stop()
			}
			return
		}

		s.mu.Lock()
		if s.state != Running {
			s.mu.Unlock()
			return
		}
		interval := s.interval
		if interval <= 0 {
			s.state = Idle
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			s.Stop()
			return
		case <-timer.C:
		}
	}
}

// run holds the pass semaphore for one pass. When stop is non-nil and closes
// while waiting for the semaphore, the pass is skipped and ran is false.
func (s *Scheduler) run(ctx context.Context, stop <-chan struct{}, manual bool) (res Result, ran bool) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		res = Result{Err: err, Manual: manual, Started: time.Now()}
		s.report(res)
		return res, stop == nil
	}
	defer s.sem.Release(1)

	if stop != nil {
		select {
		case <-stop:
			return Result{}, false
		default:
		}
	}

	start := time.Now()
	n, err := s.runner.RunPass(ctx)
	res = Result{Items: n, Err: err, Manual: manual, Started: start, Duration: time.Since(start)}
	s.report(res)
	return res, true
}

func (s *Scheduler) report(res Result) {
	if res.Err != nil {
		slog.Warn("Sync pass failed", "manual", res.Manual, "took", res.Duration, "error", res.Err)
	} else {
		slog.Info("Sync pass finished", "manual", res.Manual, "items", res.Items, "took", res.Duration)
	}
	if s.onResult != nil {
		s.onResult(res)
	}
}
