// Package worker runs the periodic background jobs of the ledger.
package worker

import (
	"context"
	"time"

	"fintrack/internal/log"
)

// DueProcessor raises notifications for recurring transactions that came due.
// An empty userID covers every user.
type DueProcessor interface {
	ProcessDue(ctx context.Context, userID string, now time.Time) (int, error)
}

// RecurringWorker checks recurring transactions on a fixed interval.
type RecurringWorker struct {
	processor DueProcessor
	interval  time.Duration
	logger    *log.Logger
	now       func() time.Time
}

func NewRecurringWorker(processor DueProcessor, interval time.Duration, logger *log.Logger) *RecurringWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RecurringWorker{
		processor: processor,
		interval:  interval,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// RunOnce performs a single check and returns the number of notifications raised.
func (w *RecurringWorker) RunOnce(ctx context.Context) (int, error) {
	return w.check(ctx, w.now())
}

// Run checks once at startup and then on every tick until ctx is done.
func (w *RecurringWorker) Run(ctx context.Context) {
	w.logger.Info("Running initial recurring transaction check...")
	_, _ = w.check(ctx, w.now())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Recurring worker stopped", log.FieldOperation, log.OpShutdown)
			return
		case <-ticker.C:
			now := w.now()
			if _, err := w.check(ctx, now); err == nil {
				w.logger.Debug("Next recurring check scheduled", "next_check", now.Add(w.interval).Format("15:04:05"))
			}
		}
	}
}

func (w *RecurringWorker) check(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	count, err := w.processor.ProcessDue(ctx, "", now)
	if err != nil {
		w.logger.ErrorContext(ctx, "Recurring transaction check failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRecurrence)
		return count, err
	}
	w.logger.InfoContext(ctx, "Recurring transaction check complete",
		"notifications_sent", count,
		log.FieldDuration, time.Since(start).Milliseconds(),
		log.FieldOperation, log.OpRecurrence)
	return count, nil
}
