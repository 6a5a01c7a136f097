package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"filingwatch/internal/service"
)

// Outcome is the message posted to the presentation inbox when a pass ends.
type Outcome struct {
	Status   string    `json:"status"`
	Inserted int       `json:"inserted"`
	Failed   int       `json:"failed"`
	Error    string    `json:"error,omitempty"`
	Trigger  string    `json:"trigger"`
	At       time.Time `json:"at"`
}

type request struct {
	reason  string
	symbols []string
}

// Syncer is the single pass the scheduler drives. *service.SyncService is
// the production implementation.
type Syncer interface {
	RunOnce(ctx context.Context, symbols []string) (service.SyncResult, error)
}

// Scheduler drives sync passes: a fixed-interval timer plus on-demand
// triggers, with at-most-one-concurrent-run semantics. While a pass runs, new
// triggers are dropped, not queued; the interval timer re-arms from
// completion time so a slow pass never causes a back-to-back re-run.
type Scheduler struct {
	syncer   Syncer
	logger   *zap.Logger
	interval time.Duration
	timeout  time.Duration

	trigger chan request
	results chan Outcome
	running atomic.Bool

	mu   sync.Mutex
	last *Outcome
}

func New(syncer Syncer, logger *zap.Logger, interval, timeout time.Duration) *Scheduler {
	if interval < 30*time.Second {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		syncer:   syncer,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
		trigger:  make(chan request, 1),
		results:  make(chan Outcome, 16),
	}
}

// Trigger requests an immediate pass, optionally narrowed to symbols (used
// when a ticker is added to the watchlist). Returns false when the request
// was coalesced into a pass already running or pending.
func (s *Scheduler) Trigger(reason string, symbols ...string) bool {
	if s.running.Load() {
		return false
	}
	select {
	case s.trigger <- request{reason: reason, symbols: symbols}:
		return true
	default:
		return false
	}
}

// Results is the presentation inbox. The consumer drains it between UI
// turns; outcomes are dropped rather than blocking the scheduler.
func (s *Scheduler) Results() <-chan Outcome {
	return s.results
}

func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastOutcome returns the most recent completed pass, or nil before the
// first one.
func (s *Scheduler) LastOutcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := *s.last
	return &out
}

// Run owns the timer loop until ctx is cancelled. Passes execute inside the
// loop goroutine, which is what enforces at-most-one-concurrent system-wide.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.runPass(ctx, request{reason: "interval"})
		case req := <-s.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			s.runPass(ctx, req)
		}
		// Drop any trigger that arrived while the pass was running.
		select {
		case <-s.trigger:
		default:
		}
		timer.Reset(s.interval)
	}
}

func (s *Scheduler) runPass(ctx context.Context, req request) {
	s.running.Store(true)
	defer s.running.Store(false)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.syncer.RunOnce(runCtx, req.symbols)
	outcome := Outcome{
		Inserted: result.Inserted,
		Failed:   result.Failed,
		Trigger:  req.reason,
		At:       time.Now().UTC(),
	}
	if err != nil {
		// Wholesale failures are transient from the scheduler's view; the
		// next interval retries. The presentation layer gets a short
		// message, not the error chain.
		outcome.Status = "sync failed, will retry"
		outcome.Error = err.Error()
		if s.logger != nil {
			s.logger.Warn("sync pass failed",
				zap.String("trigger", req.reason),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
		}
	} else {
		outcome.Status = result.Status()
		if s.logger != nil {
			s.logger.Info("sync pass completed",
				zap.String("trigger", req.reason),
				zap.Int("inserted", result.Inserted),
				zap.Int("failed", result.Failed),
				zap.Duration("elapsed", time.Since(start)))
		}
	}

	s.mu.Lock()
	s.last = &outcome
	s.mu.Unlock()

	select {
	case s.results <- outcome:
	default:
	}
}
