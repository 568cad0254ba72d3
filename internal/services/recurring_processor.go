package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// RecurringProcessor notifies owners of recurring transactions that are due.
// Transactions are never mutated, so every run re-notifies until the
// transaction ends.
type RecurringProcessor struct {
	transactions storage.TransactionStore
	notifier     *Notifier
}

func NewRecurringProcessor(transactions storage.TransactionStore, notifier *Notifier) *RecurringProcessor {
	return &RecurringProcessor{
		transactions: transactions,
		notifier:     notifier,
	}
}

// ProcessDue checks the recurring transactions of userID, or of every user
// when userID is empty, and returns how many were due.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, userID string, now time.Time) (int, error) {
	if p.transactions == nil || p.notifier == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	recurring, err := p.transactions.ListTransactions(ctx, storage.TransactionFilter{
		UserID:    userID,
		Recurring: true,
	})
	if err != nil {
		return 0, fmt.Errorf("list recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Checking recurring transactions",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpRecurrence,
		"total_recurring", len(recurring),
		"check_time", now.Format(time.RFC3339))

	due := 0
	for _, t := range recurring {
		if t.Ended(now) {
			continue
		}
		checker, err := GetDuenessChecker(t.RecurrencePattern)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check if transaction is due",
				log.FieldTransactionID, t.ID,
				log.FieldError, err)
			continue
		}
		if !checker.IsDue(t.CreatedAt, now) {
			continue
		}

		p.notifier.Emit(ctx, t.UserID, SectionTransaction, "Recurring Transaction Due", dueMessage(t))
		due++
	}

	slog.InfoContext(ctx, "Recurring transaction check complete",
		log.FieldComponent, log.ComponentWorker,
		"due", due,
		"total_checked", len(recurring))

	return due, nil
}

func dueMessage(t core.Transaction) string {
	return fmt.Sprintf("Your %s %s transaction of %.2f %s for %s is due",
		t.RecurrencePattern, t.Type, t.Amount, t.Currency, t.Category)
}
