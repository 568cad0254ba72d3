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

// Notification sections
const (
	SectionBudget      = "Budget"
	SectionGoals       = "Goals"
	SectionTransaction = "Transaction"
)

// LowBalanceThreshold is the remaining amount under which a budget is
// reported as very low. Both ledgers share it.
const LowBalanceThreshold = 5000.0

// BalanceLevel classifies a budget balance after a debit.
type BalanceLevel int

const (
	BalanceOK BalanceLevel = iota
	BalanceLow
	BalanceExhausted
)

// BalanceAlert returns the alert level for a remaining amount.
func BalanceAlert(remaining float64) BalanceLevel {
	switch {
	case remaining <= 0:
		return BalanceExhausted
	case remaining < LowBalanceThreshold:
		return BalanceLow
	default:
		return BalanceOK
	}
}

// Notifier stores notifications and forwards them to the publisher when one
// is configured. Emit never fails the caller.
type Notifier struct {
	store     storage.NotificationStore
	publisher Publisher
	now       func() time.Time
}

func NewNotifier(store storage.NotificationStore, publisher Publisher) *Notifier {
	return &Notifier{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Emit records one notification for userID.
func (n *Notifier) Emit(ctx context.Context, userID, section, title, message string) {
	note := core.Notification{
		UserID:    userID,
		Section:   section,
		Title:     title,
		Message:   message,
		CreatedAt: n.now().UTC(),
	}

	if err := n.store.CreateNotification(ctx, &note); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to store notification", err,
			log.ComponentNotification, log.OpNotify,
			log.NewFields().WithUser(userID))
		return
	}

	slog.DebugContext(ctx, "Notification emitted",
		log.FieldComponent, log.ComponentNotification,
		log.FieldUserID, userID,
		log.FieldSection, section,
		log.FieldTitle, title)

	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishNotification(ctx, note); err != nil {
		slog.WarnContext(ctx, "Failed to publish notification",
			log.FieldComponent, log.ComponentNotification,
			log.FieldUserID, userID,
			log.FieldError, err)
	}
}

// MonthlyBalance emits the exhausted or low alert for a monthly budget.
func (n *Notifier) MonthlyBalance(ctx context.Context, userID string, month core.Month, remaining float64) {
	switch BalanceAlert(remaining) {
	case BalanceExhausted:
		n.Emit(ctx, userID, SectionBudget, "Monthly Budget Exhausted",
			fmt.Sprintf("Monthly budget exhausted for the month %s", month))
	case BalanceLow:
		n.Emit(ctx, userID, SectionBudget, "Monthly Budget is very low",
			fmt.Sprintf("Monthly budget is very low for the month %s", month))
	}
}

// CategoryBalance emits the exhausted or low alert for a budget drawn
// down by expenses.
func (n *Notifier) CategoryBalance(ctx context.Context, b *core.Budget) {
	if b.Category.IsMonthly() {
		n.MonthlyBalance(ctx, b.UserID, b.Month, b.RemainingAmount)
		return
	}
	switch BalanceAlert(b.RemainingAmount) {
	case BalanceExhausted:
		n.Emit(ctx, b.UserID, SectionBudget, "Budget Exhausted",
			fmt.Sprintf("Budget for category '%s' exhausted for the month %s", b.Category, b.Month))
	case BalanceLow:
		n.Emit(ctx, b.UserID, SectionBudget, "Budget is very low",
			fmt.Sprintf("Budget for category '%s' is very low for the month %s", b.Category, b.Month))
	}
}

func (n *Notifier) List(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	notes, err := n.store.ListNotifications(ctx, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notes, nil
}

func (n *Notifier) MarkRead(ctx context.Context, userID, id string) (*core.Notification, error) {
	note, err := n.store.MarkNotificationRead(ctx, userID, id)
	if err != nil {
		return nil, lookupError(err, "Notification")
	}
	return note, nil
}
