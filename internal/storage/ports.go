// Package storage declares the persistence ports shared by every backend.
package storage

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate")
	ErrInsufficientFunds = errors.New("insufficient remaining amount")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidData       = errors.New("invalid data")
)

type (
	// BudgetFilter narrows ListBudgets. Zero fields are ignored.
	BudgetFilter struct {
		UserID   string
		Category core.Category
		Month    core.Month
	}

	// BudgetChange is applied to one budget in a single atomic write.
	// RemainingDelta is added to remaining_amount; a negative delta only
	// succeeds if the balance covers it, otherwise ErrInsufficientFunds.
	BudgetChange struct {
		Category       *core.Category
		Month          *core.Month
		Amount         *float64
		RemainingDelta float64
		UpdatedAt      time.Time
	}

	// TransactionFilter narrows ListTransactions. An empty UserID spans all users.
	TransactionFilter struct {
		UserID    string
		Type      core.TransactionType
		Category  core.Category
		Tag       string
		From      time.Time
		To        time.Time
		Recurring bool
	}

	UserStore interface {
		CreateUser(ctx context.Context, u *core.User) error
		GetUser(ctx context.Context, id string) (*core.User, error)
		GetUserByEmail(ctx context.Context, email string) (*core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		UpdateUser(ctx context.Context, u *core.User) error
		DeleteUser(ctx context.Context, id string) error
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b *core.Budget) error
		GetBudget(ctx context.Context, userID, id string) (*core.Budget, error)
		FindBudget(ctx context.Context, userID string, category core.Category, month core.Month) (*core.Budget, error)
		ListBudgets(ctx context.Context, f BudgetFilter) ([]core.Budget, error)
		ApplyBudgetChange(ctx context.Context, userID, id string, ch BudgetChange) (*core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id string) (*core.Budget, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t *core.Transaction) error
		GetTransaction(ctx context.Context, userID, id string) (*core.Transaction, error)
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		CountTransactions(ctx context.Context, userID string) (int64, error)
		UpdateTransaction(ctx context.Context, t *core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) (*core.Transaction, error)
		MonthlyTotals(ctx context.Context, userID string) ([]core.MonthlyTotal, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g *core.Goal) error
		GetGoal(ctx context.Context, userID, id string) (*core.Goal, error)
		ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error)
		UpdateGoal(ctx context.Context, g *core.Goal) error
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	NotificationStore interface {
		CreateNotification(ctx context.Context, n *core.Notification) error
		ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error)
		MarkNotificationRead(ctx context.Context, userID, id string) (*core.Notification, error)
	}

	// Store is the full set of ports a backend provides.
	Store interface {
		UserStore
		BudgetStore
		TransactionStore
		GoalStore
		NotificationStore
		Ping(ctx context.Context) error
		Close(ctx context.Context) error
	}
)
