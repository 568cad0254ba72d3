package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type (
	CreateTransactionInput struct {
		Amount            float64    `json:"amount"`
		Currency          string     `json:"currency"`
		Type              string     `json:"transactionType"`
		Category          string     `json:"category"`
		Tags              []string   `json:"tags"`
		Date              *time.Time `json:"date"`
		IsRecurring       bool       `json:"isRecurring"`
		RecurrencePattern string     `json:"recurrencePattern"`
		EndDate           *time.Time `json:"endDate"`
	}

	// UpdateTransactionInput carries a partial update; nil fields are unchanged.
	UpdateTransactionInput struct {
		Amount            *float64   `json:"amount"`
		Currency          *string    `json:"currency"`
		Type              *string    `json:"transactionType"`
		Category          *string    `json:"category"`
		Tags              []string   `json:"tags"`
		Date              *time.Time `json:"date"`
		IsRecurring       *bool      `json:"isRecurring"`
		RecurrencePattern *string    `json:"recurrencePattern"`
		EndDate           *time.Time `json:"endDate"`
	}

	// TransactionView is a stored transaction with its amount restated in
	// the owner's current base currency.
	TransactionView struct {
		core.Transaction
		ConvertedAmount float64 `json:"convertedAmount"`
	}

	TransactionQuery struct {
		Type     string
		Category string
		Tag      string
	}
)

// TransactionService records income and expenses. Expenses draw down the
// category budget of the month they fall in.
type TransactionService struct {
	transactions storage.TransactionStore
	budgets      storage.BudgetStore
	users        storage.UserStore
	converter    Converter
	notifier     *Notifier
	now          func() time.Time
}

func NewTransactionService(transactions storage.TransactionStore, budgets storage.BudgetStore, users storage.UserStore, converter Converter, notifier *Notifier) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		budgets:      budgets,
		users:        users,
		converter:    converter,
		notifier:     notifier,
		now:          time.Now,
	}
}

func (s *TransactionService) Create(ctx context.Context, userID string, in CreateTransactionInput) (*core.Transaction, error) {
	if in.Amount == 0 || in.Currency == "" || in.Type == "" || in.Category == "" {
		return nil, core.Validation("Amount, currency, transaction type and category are required")
	}
	if in.IsRecurring && in.RecurrencePattern == "" {
		return nil, core.Validation("Recurrence pattern is required for recurring transactions")
	}
	pattern := core.RepetitionTypes(in.RecurrencePattern)
	if in.RecurrencePattern != "" && !pattern.IsValid() {
		return nil, core.Validation("Invalid recurrence pattern")
	}
	txType := core.TransactionType(in.Type)
	if !txType.IsValid() {
		return nil, core.Validation("Invalid transaction type")
	}
	category := core.Category(in.Category)
	if !category.IsValid() {
		return nil, invalidCategory()
	}
	currency := core.Currency(in.Currency)
	if !currency.IsValid() {
		return nil, invalidCurrency()
	}
	if in.Amount < 0 {
		return nil, core.Validation("Amount must be a positive number")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	count, err := s.transactions.CountTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	if count >= user.TransactionLimit {
		return nil, core.Rule("Transaction limit reached")
	}

	base := baseCurrency(user)
	amount, err := s.converter.Convert(ctx, in.Amount, currency, base)
	if err != nil {
		return nil, fmt.Errorf("convert transaction amount: %w", err)
	}
	amount = core.RoundCents(amount)

	now := s.now().UTC()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}

	t := &core.Transaction{
		UserID:      userID,
		Amount:      amount,
		Currency:    base,
		Type:        txType,
		Category:    category,
		Tags:        in.Tags,
		Date:        date,
		IsRecurring: in.IsRecurring,
		EndDate:     in.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsRecurring {
		t.RecurrencePattern = pattern
	}

	var debited *core.Budget
	if t.IsExpense() {
		debited, err = s.debit(ctx, userID, category, core.MonthOf(date), amount)
		if err != nil {
			return nil, err
		}
	}

	if err := s.transactions.CreateTransaction(ctx, t); err != nil {
		if debited != nil {
			s.restore(ctx, debited, amount)
		}
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if debited != nil {
		s.notifier.CategoryBalance(ctx, debited)
	}

	slog.InfoContext(ctx, "Transaction created",
		log.FieldComponent, log.ComponentTransaction,
		log.FieldUserID, userID,
		log.FieldTransactionID, t.ID,
		log.FieldCategory, string(category),
		log.FieldAmount, amount,
		log.FieldCurrency, string(base))

	return t, nil
}

// debit takes amount from the budget of category in month.
func (s *TransactionService) debit(ctx context.Context, userID string, category core.Category, month core.Month, amount float64) (*core.Budget, error) {
	b, err := s.budgets.FindBudget(ctx, userID, category, month)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.NotFound("Budget not found for category '%s'", category)
	}
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}
	return s.applyDelta(ctx, b, -amount)
}

func (s *TransactionService) applyDelta(ctx context.Context, b *core.Budget, delta float64) (*core.Budget, error) {
	updated, err := s.budgets.ApplyBudgetChange(ctx, b.UserID, b.ID, storage.BudgetChange{
		RemainingDelta: delta,
		UpdatedAt:      s.now().UTC(),
	})
	if errors.Is(err, storage.ErrInsufficientFunds) {
		return nil, core.Rule("Insufficient budget for category '%s'", b.Category)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.NotFound("Budget not found for category '%s'", b.Category)
	}
	if err != nil {
		return nil, fmt.Errorf("apply budget change: %w", err)
	}
	logBalance(ctx, updated, delta)
	return updated, nil
}

// restore credits back a debit whose follow-up write failed.
func (s *TransactionService) restore(ctx context.Context, b *core.Budget, amount float64) {
	if _, err := s.applyDelta(ctx, b, amount); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to restore budget", err,
			log.ComponentTransaction, log.OpDebit,
			log.NewFields().WithUser(b.UserID).WithBudget(b.ID, string(b.Category), string(b.Month), b.RemainingAmount))
	}
}

func (s *TransactionService) Update(ctx context.Context, userID, id string, in UpdateTransactionInput) (*core.Transaction, error) {
	old, err := s.transactions.GetTransaction(ctx, userID, id)
	if errors.Is(err, storage.ErrInvalidID) {
		return nil, core.Validation("Invalid transaction id")
	}
	if err != nil {
		return nil, lookupError(err, "Transaction")
	}

	next := *old
	if in.Type != nil {
		next.Type = core.TransactionType(*in.Type)
		if !next.Type.IsValid() {
			return nil, core.Validation("Invalid transaction type")
		}
	}
	if in.Category != nil {
		next.Category = core.Category(*in.Category)
		if !next.Category.IsValid() {
			return nil, invalidCategory()
		}
	}
	if in.IsRecurring != nil {
		next.IsRecurring = *in.IsRecurring
	}
	if in.RecurrencePattern != nil {
		next.RecurrencePattern = core.RepetitionTypes(*in.RecurrencePattern)
		if !next.RecurrencePattern.IsValid() {
			return nil, core.Validation("Invalid recurrence pattern")
		}
	}
	if next.IsRecurring && next.RecurrencePattern == "" {
		return nil, core.Validation("Recurrence pattern is required for recurring transactions")
	}
	if !next.IsRecurring {
		next.RecurrencePattern = ""
	}
	if in.Tags != nil {
		next.Tags = in.Tags
	}
	if in.Date != nil {
		next.Date = in.Date.UTC()
	}
	if in.EndDate != nil {
		next.EndDate = in.EndDate
	}

	if in.Amount != nil || in.Currency != nil {
		user, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return nil, lookupError(err, "User")
		}
		raw, from := old.Amount, old.Currency
		if in.Amount != nil {
			if *in.Amount <= 0 {
				return nil, core.Validation("Amount must be a positive number")
			}
			raw = *in.Amount
		}
		if in.Currency != nil {
			from = core.Currency(*in.Currency)
			if !from.IsValid() {
				return nil, invalidCurrency()
			}
		}
		base := baseCurrency(user)
		converted, err := s.converter.Convert(ctx, raw, from, base)
		if err != nil {
			return nil, fmt.Errorf("convert transaction amount: %w", err)
		}
		next.Amount = core.RoundCents(converted)
		next.Currency = base
	}
	next.UpdatedAt = s.now().UTC()

	undo, touched, err := s.rebalance(ctx, old, &next)
	if err != nil {
		return nil, err
	}

	if err := s.transactions.UpdateTransaction(ctx, &next); err != nil {
		undo()
		return nil, lookupError(err, "Transaction")
	}

	for _, b := range touched {
		s.notifier.CategoryBalance(ctx, b)
	}

	slog.InfoContext(ctx, "Transaction updated",
		log.FieldComponent, log.ComponentTransaction,
		log.FieldUserID, userID,
		log.FieldTransactionID, next.ID,
		log.FieldAmount, next.Amount)

	return &next, nil
}

// rebalance moves budget balances from the old expense to the new one. When
// both hit the same budget only the difference is applied. It returns an
// undo func for the applied changes and the budgets that were debited.
func (s *TransactionService) rebalance(ctx context.Context, old, next *core.Transaction) (func(), []*core.Budget, error) {
	noop := func() {}
	if !old.IsExpense() && !next.IsExpense() {
		return noop, nil, nil
	}

	oldMonth, nextMonth := core.MonthOf(old.Date), core.MonthOf(next.Date)
	sameBudget := old.IsExpense() && next.IsExpense() &&
		old.Category == next.Category && oldMonth == nextMonth

	if sameBudget {
		delta := decimal.NewFromFloat(next.Amount).Sub(decimal.NewFromFloat(old.Amount)).Round(2).InexactFloat64()
		if delta == 0 {
			return noop, nil, nil
		}
		b, err := s.budgets.FindBudget(ctx, next.UserID, next.Category, nextMonth)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, core.NotFound("Budget not found for category '%s'", next.Category)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("find budget: %w", err)
		}
		updated, err := s.applyDelta(ctx, b, -delta)
		if err != nil {
			return nil, nil, err
		}
		var touched []*core.Budget
		if delta > 0 {
			touched = append(touched, updated)
		}
		return func() { s.restore(ctx, updated, delta) }, touched, nil
	}

	var debited *core.Budget
	if next.IsExpense() {
		b, err := s.debit(ctx, next.UserID, next.Category, nextMonth, next.Amount)
		if err != nil {
			return nil, nil, err
		}
		debited = b
	}

	var credited *core.Budget
	if old.IsExpense() {
		b, err := s.budgets.FindBudget(ctx, old.UserID, old.Category, oldMonth)
		if err == nil {
			credited, err = s.applyDelta(ctx, b, old.Amount)
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			if debited != nil {
				s.restore(ctx, debited, next.Amount)
			}
			return nil, nil, fmt.Errorf("credit previous budget: %w", err)
		}
	}

	undo := func() {
		if debited != nil {
			s.restore(ctx, debited, next.Amount)
		}
		if credited != nil {
			if _, err := s.applyDelta(ctx, credited, -old.Amount); err != nil {
				log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to restore budget", err,
					log.ComponentTransaction, log.OpDebit,
					log.NewFields().WithUser(old.UserID).WithBudget(credited.ID, string(credited.Category), string(credited.Month), credited.RemainingAmount))
			}
		}
	}
	var touched []*core.Budget
	if debited != nil {
		touched = append(touched, debited)
	}
	return undo, touched, nil
}

// Delete removes a transaction. The budget it drew from is not credited.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	t, err := s.transactions.DeleteTransaction(ctx, userID, id)
	if errors.Is(err, storage.ErrInvalidID) {
		return core.Validation("Invalid transaction id")
	}
	if err != nil {
		return lookupError(err, "Transaction")
	}
	slog.InfoContext(ctx, "Transaction deleted",
		log.FieldComponent, log.ComponentTransaction,
		log.FieldUserID, userID,
		log.FieldTransactionID, t.ID)
	return nil
}

// List returns the user's transactions matching q, newest first.
func (s *TransactionService) List(ctx context.Context, userID string, q TransactionQuery) ([]TransactionView, error) {
	f := storage.TransactionFilter{
		UserID: userID,
		Tag:    q.Tag,
	}
	if q.Type != "" {
		f.Type = core.TransactionType(q.Type)
		if !f.Type.IsValid() {
			return nil, core.Validation("Invalid transaction type")
		}
	}
	if q.Category != "" {
		f.Category = core.Category(q.Category)
		if !f.Category.IsValid() {
			return nil, invalidCategory()
		}
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	txs, err := s.transactions.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	base := baseCurrency(user)
	out := make([]TransactionView, 0, len(txs))
	for _, t := range txs {
		converted := t.Amount
		if t.Currency != "" && t.Currency != base {
			v, err := s.converter.Convert(ctx, t.Amount, t.Currency, base)
			if err != nil {
				return nil, fmt.Errorf("convert transaction %s: %w", t.ID, err)
			}
			converted = core.RoundCents(v)
		}
		out = append(out, TransactionView{Transaction: t, ConvertedAmount: converted})
	}
	return out, nil
}

// Report sums the user's transactions dated in [from, to). Either bound
// may be zero.
func (s *TransactionService) Report(ctx context.Context, userID string, from, to time.Time) (*core.TransactionReport, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, core.Validation("Invalid date range")
	}
	txs, err := s.transactions.ListTransactions(ctx, storage.TransactionFilter{
		UserID: userID,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	income, expense := sumByType(txs)
	return &core.TransactionReport{
		TotalIncome:       income,
		TotalExpense:      expense,
		TotalTransactions: len(txs),
	}, nil
}

func sumByType(txs []core.Transaction) (income, expense float64) {
	in, out := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			in = in.Add(decimal.NewFromFloat(t.Amount))
		case core.Expense:
			out = out.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	return in.InexactFloat64(), out.InexactFloat64()
}
