// Package services holds the ledger, goal, report and user logic behind the
// HTTP handlers and the recurring worker.
package services

import (
	"context"
	"errors"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Converter turns an amount in one currency into another.
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to core.Currency) (float64, error)
}

// Publisher forwards stored notifications to an event bus.
type Publisher interface {
	PublishNotification(ctx context.Context, n core.Notification) error
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(u core.User) (string, error)
}

// lookupError turns store lookup failures into client errors for entity.
func lookupError(err error, entity string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return core.NotFound("%s not found", entity)
	case errors.Is(err, storage.ErrInvalidID):
		return core.Validation("Invalid %s id", strings.ToLower(entity))
	}
	return err
}

// baseCurrency is the currency a user's amounts are stored in.
func baseCurrency(u *core.User) core.Currency {
	if u.Currency == "" {
		return core.USD
	}
	return u.Currency
}

func invalidCurrency() error {
	return core.Validation("Invalid currency category, Please use following currency categories: %s", core.CurrencyList())
}

func invalidCategory() error {
	return core.Validation("Invalid budget category. Please use the following categories - %s", core.CategoryList())
}
