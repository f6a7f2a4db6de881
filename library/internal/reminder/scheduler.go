package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/config"
	"github.com/Astemirdum/library-circulation/library/internal/metrics"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/notify"
)

type DueLoans interface {
	FindDueBetween(ctx context.Context, from, to time.Time) ([]model.Loan, error)
}

// Scheduler periodically notifies users whose loans are due within the
// configured window. Scans never overlap and take no entity locks.
type Scheduler struct {
	loans    DueLoans
	notifier notify.Notifier
	cfg      config.Reminder
	now      func() time.Time
	log      *zap.Logger

	scan sync.Mutex

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func NewScheduler(loans DueLoans, notifier notify.Notifier, cfg config.Reminder, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		loans:    loans,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		log:      log.Named("reminder"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the scan loop. Calling Start on a running scheduler is a
// no-op. Scans run under a context that Stop does not cancel, so a scan that
// has begun always reaches every due loan.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		s.log.Error("reminder scheduler not started", zap.Duration("interval", s.cfg.Interval))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	scanCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
			}
			// a tick and shutdown can be ready together
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			default:
			}
			if _, err := s.RunOnce(scanCtx); err != nil {
				s.log.Error("reminder scan", zap.Error(err))
			}
		}
	}()
	s.log.Info("reminder scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("window", s.cfg.Window))
}

// Stop prevents new scans and waits for an in-flight scan to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	s.wg.Wait()
	s.log.Info("reminder scheduler stopped")
}

// RunOnce notifies every loan due in [now, now+window) and returns how many
// notifications were delivered. A failed notification is logged and skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	s.scan.Lock()
	defer s.scan.Unlock()

	start := time.Now()
	defer func() {
		metrics.ReminderScanDuration.Observe(time.Since(start).Seconds())
	}()

	from := s.now()
	loans, err := s.loans.FindDueBetween(ctx, from, from.Add(s.cfg.Window))
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := s.notifier.Notify(ctx, loan); err != nil {
			s.log.Warn("notify", zap.Int64("loan_id", loan.ID), zap.Error(err))
			continue
		}
		sent++
	}
	metrics.RemindersSent.Add(float64(sent))
	if len(loans) > 0 {
		s.log.Debug("reminder scan done", zap.Int("due", len(loans)), zap.Int("sent", sent))
	}
	return sent, nil
}
