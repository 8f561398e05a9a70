package syncer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okeanos/obol/internal/family"
)

const (
	// catchUpDelay is the short pause before the second startup pass, so a
	// device that just came online converges quickly.
	catchUpDelay = 5 * time.Second

	// syncInterval is the steady-state cadence between full passes.
	syncInterval = 30 * time.Second

	// interestInterval is how often the interest accrual check runs after
	// the one at startup.
	interestInterval = 24 * time.Hour
)

// Scheduler decides when synchronization happens; the family service does
// the work. Triggers: startup, a catch-up pass shortly after, a fixed
// interval, an external Wake (device became visible again), and ForceSync.
// Passes never overlap: a trigger firing mid-pass is dropped, not queued,
// since the next tick covers it.
type Scheduler struct {
	svc    *family.Service
	logger *slog.Logger

	catchUp  time.Duration
	interval time.Duration

	wake     chan struct{}
	inFlight atomic.Bool

	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(svc *family.Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		svc:      svc,
		logger:   logger,
		catchUp:  catchUpDelay,
		interval: syncInterval,
		wake:     make(chan struct{}, 1),
	}
}

// Start launches the scheduling loop. It runs the startup pass before
// returning so callers observe a synchronized state immediately after
// Start; later passes run on the loop goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.pass(ctx)

	go func() {
		defer close(s.done)

		catchUp := time.NewTimer(s.catchUp)
		defer catchUp.Stop()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		interest := time.NewTicker(interestInterval)
		defer interest.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-catchUp.C:
				s.pass(ctx)
			case <-ticker.C:
				s.pass(ctx)
			case <-s.wake:
				s.pass(ctx)
			case <-interest.C:
				if err := s.svc.AccrueInterest(); err != nil {
					s.logger.Error("interest accrual", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Wake requests an immediate pass, coalescing with any pending request.
// The HTTP layer calls it when a client reports returning to visibility.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// ForceSync pulls the remote document and overwrites local state when
// reachable, regardless of local divergence. Returns whether a remote
// document was applied; an unreachable remote surfaces as an error.
func (s *Scheduler) ForceSync(ctx context.Context) (bool, error) {
	return s.svc.ManualSync(ctx)
}

func (s *Scheduler) pass(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer s.inFlight.Store(false)

	// Another process sharing the database may have written since the last
	// pass; pick that up before pushing.
	s.svc.ReloadLocal()
	s.svc.SyncPass(ctx)
}
