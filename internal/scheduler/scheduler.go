// Package scheduler runs a job immediately and then on every tick, never overlapping.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"solarintel/internal/logger"
)

// ErrInvalidInterval is returned for a non-positive interval.
var ErrInvalidInterval = errors.New("interval must be positive")

// Job is one collection cycle.
type Job func(ctx context.Context, cycle int64) error

// Ticker delivers ticks. *time.Ticker satisfies it through NewTimeTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Scheduler owns a job, its period, a cycle counter and a running flag.
type Scheduler struct {
	name      string
	interval  time.Duration
	job       Job
	log       *logger.Logger
	newTicker func(time.Duration) Ticker

	mu      sync.Mutex
	cycles  atomic.Int64
	running atomic.Bool
	lastErr error
	lastRun time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTicker replaces the ticker factory. Tests use it to drive cycles by hand.
func WithTicker(factory func(time.Duration) Ticker) Option {
	return func(s *Scheduler) {
		s.newTicker = factory
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// New creates a scheduler.
func New(name string, interval time.Duration, job Job, opts ...Option) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}

	s := &Scheduler{
		name:      name,
		interval:  interval,
		job:       job,
		log:       logger.Discard(),
		newTicker: NewTimeTicker,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.With("scheduler", name)

	return s, nil
}

// Run executes the job now and then on every tick until ctx is done.
// Cycles run on the calling goroutine, so a tick that arrives during a cycle
// is dropped and the next cycle starts on the first tick after completion.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started", "interval", s.interval.String())

	s.RunOnce(ctx)

	ticker := s.newTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", "cycles", s.Cycles())

			return ctx.Err()
		case <-ticker.C():
			if ctx.Err() != nil {
				continue
			}

			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single cycle. Errors and panics are logged with the cycle
// number and returned; they never propagate as panics. A call made while a
// cycle is already running is skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (err error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("cycle skipped, previous cycle still running")

		return nil
	}
	defer s.running.Store(false)

	cycle := s.cycles.Add(1)
	start := time.Now()
	log := s.log.With("cycle", cycle)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle %d panicked: %v", cycle, r)
		}

		if err != nil {
			log.Error("cycle failed", "started_at", start.UTC().Format(time.RFC3339), "error", err)
		} else {
			log.Debug("cycle finished", "duration", time.Since(start).String())
		}

		s.mu.Lock()
		s.lastErr = err
		s.lastRun = start
		s.mu.Unlock()
	}()

	return s.job(ctx, cycle)
}

// Cycles returns the number of cycles started.
func (s *Scheduler) Cycles() int64 {
	return s.cycles.Load()
}

// Running reports whether a cycle is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Name returns the scheduler name.
func (s *Scheduler) Name() string {
	return s.name
}

// Interval returns the period between ticks.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// LastResult returns the start time and error of the most recent cycle.
func (s *Scheduler) LastResult() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastRun, s.lastErr
}
