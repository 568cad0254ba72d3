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
	CreateBudgetInput struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Month    string  `json:"month"`
	}

	// UpdateBudgetInput carries a partial update; nil fields are unchanged.
	UpdateBudgetInput struct {
		Category *string  `json:"category"`
		Amount   *float64 `json:"amount"`
		Currency *string  `json:"currency"`
		Month    *string  `json:"month"`
	}

	// CreatedBudget is a new budget plus the amount as it was submitted.
	CreatedBudget struct {
		core.Budget
		OriginalAmount   float64       `json:"originalAmount"`
		OriginalCurrency core.Currency `json:"originalCurrency"`
	}
)

// BudgetService maintains monthly budgets and the category budgets that
// draw them down.
type BudgetService struct {
	budgets   storage.BudgetStore
	goals     storage.GoalStore
	users     storage.UserStore
	converter Converter
	notifier  *Notifier
	now       func() time.Time
}

func NewBudgetService(budgets storage.BudgetStore, goals storage.GoalStore, users storage.UserStore, converter Converter, notifier *Notifier) *BudgetService {
	return &BudgetService{
		budgets:   budgets,
		goals:     goals,
		users:     users,
		converter: converter,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *BudgetService) currentMonth() core.Month {
	return core.MonthOf(s.now())
}

func (s *BudgetService) Create(ctx context.Context, userID string, in CreateBudgetInput) (*CreatedBudget, error) {
	if in.Category == "" && in.Month == "" {
		return nil, core.Validation("Budget should be monthly or category-specific, So month or category is required")
	}
	if in.Amount == 0 || in.Currency == "" {
		return nil, core.Validation("Amount and Currency are required")
	}
	if in.Amount < 0 {
		return nil, core.Validation("Amount must be a positive number")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	currency := core.Currency(in.Currency)
	if !currency.IsValid() {
		return nil, invalidCurrency()
	}

	category := core.CategoryMonthly
	if in.Category != "" {
		category = core.Category(in.Category)
		if !category.IsValid() {
			return nil, invalidCategory()
		}
	}

	month := s.currentMonth()
	if in.Month != "" {
		m, err := core.ParseMonth(in.Month)
		if err != nil {
			return nil, core.Validation("Invalid month format. Please use 'YYYY-MM' format.")
		}
		if m.Before(month) {
			return nil, core.Rule("Cannot create a budget for a past month.")
		}
		month = m
	}

	amount, err := s.converter.Convert(ctx, in.Amount, currency, baseCurrency(user))
	if err != nil {
		return nil, fmt.Errorf("convert budget amount: %w", err)
	}
	amount = core.RoundCents(amount)

	if _, err := s.budgets.FindBudget(ctx, userID, category, month); err == nil {
		return nil, duplicateBudget(category, month)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("check existing budget: %w", err)
	}

	now := s.now().UTC()
	var parent *core.Budget
	if !category.IsMonthly() {
		parent, err = s.debitParent(ctx, userID, month, amount, now,
			fmt.Sprintf("Monthly budget is not enough to create a budget for category '%s'", category))
		if err != nil {
			return nil, err
		}
	}

	b := &core.Budget{
		UserID:          userID,
		Category:        category,
		Amount:          amount,
		RemainingAmount: amount,
		Month:           month,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.budgets.CreateBudget(ctx, b); err != nil {
		if parent != nil {
			s.credit(ctx, parent, amount)
		}
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, duplicateBudget(category, month)
		}
		return nil, fmt.Errorf("create budget: %w", err)
	}

	if parent != nil {
		s.notifier.MonthlyBalance(ctx, userID, month, parent.RemainingAmount)
	}
	s.notifier.Emit(ctx, userID, SectionBudget, "Budget Created", fmt.Sprintf("New budget created for %s", category))

	slog.InfoContext(ctx, "Budget created",
		log.FieldComponent, log.ComponentBudget,
		log.FieldUserID, userID,
		log.FieldBudgetID, b.ID,
		log.FieldCategory, string(category),
		log.FieldMonth, string(month),
		log.FieldAmount, amount)

	return &CreatedBudget{
		Budget:           *b,
		OriginalAmount:   in.Amount,
		OriginalCurrency: currency,
	}, nil
}

// debitParent takes amount from the monthly budget of month in one
// conditional update and returns the parent after the debit.
func (s *BudgetService) debitParent(ctx context.Context, userID string, month core.Month, amount float64, at time.Time, shortMsg string) (*core.Budget, error) {
	parent, err := s.budgets.FindBudget(ctx, userID, core.CategoryMonthly, month)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.NotFound("Monthly budget not found for the month '%s', Please create a monthly budget first.", month)
	}
	if err != nil {
		return nil, fmt.Errorf("find monthly budget: %w", err)
	}
	if amount == 0 {
		return parent, nil
	}

	updated, err := s.budgets.ApplyBudgetChange(ctx, userID, parent.ID, storage.BudgetChange{
		RemainingDelta: -amount,
		UpdatedAt:      at,
	})
	if errors.Is(err, storage.ErrInsufficientFunds) {
		return nil, core.Rule("%s", shortMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("debit monthly budget: %w", err)
	}
	logBalance(ctx, updated, -amount)
	return updated, nil
}

// credit returns amount to b. Failures are logged; the caller has already
// failed and reports its own error.
func (s *BudgetService) credit(ctx context.Context, b *core.Budget, amount float64) {
	updated, err := s.budgets.ApplyBudgetChange(ctx, b.UserID, b.ID, storage.BudgetChange{
		RemainingDelta: amount,
		UpdatedAt:      s.now().UTC(),
	})
	if err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to credit budget", err,
			log.ComponentBudget, log.OpDebit,
			log.NewFields().WithUser(b.UserID).WithBudget(b.ID, string(b.Category), string(b.Month), b.RemainingAmount))
		return
	}
	logBalance(ctx, updated, amount)
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, in UpdateBudgetInput) (*core.Budget, error) {
	b, err := s.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return nil, lookupError(err, "Budget")
	}

	if in.Currency != nil && !core.Currency(*in.Currency).IsValid() {
		return nil, invalidCurrency()
	}

	amount := b.Amount
	if in.Amount != nil || in.Currency != nil {
		user, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return nil, lookupError(err, "User")
		}
		raw, from := b.Amount, baseCurrency(user)
		if in.Amount != nil {
			if *in.Amount <= 0 {
				return nil, core.Validation("Amount must be a positive number")
			}
			raw = *in.Amount
		}
		if in.Currency != nil {
			from = core.Currency(*in.Currency)
		}
		converted, err := s.converter.Convert(ctx, raw, from, baseCurrency(user))
		if err != nil {
			return nil, fmt.Errorf("convert budget amount: %w", err)
		}
		amount = core.RoundCents(converted)
	}

	month := b.Month
	if in.Month != nil {
		m, err := core.ParseMonth(*in.Month)
		if err != nil {
			return nil, core.Validation("Invalid month format. Please use 'YYYY-MM' format.")
		}
		if m.Before(s.currentMonth()) {
			return nil, core.Rule("Cannot update a budget to a past month.")
		}
		month = m
	}

	category := b.Category
	if in.Category != nil {
		next := core.Category(*in.Category)
		if b.Category.IsMonthly() && !next.IsMonthly() {
			return nil, core.Rule("Cannot change the category of a monthly budget")
		}
		if !next.IsValid() {
			return nil, invalidCategory()
		}
		if !b.Category.IsMonthly() && next.IsMonthly() {
			return nil, core.Rule("Cannot change a category budget into a monthly budget")
		}
		category = next
	}

	if category != b.Category || month != b.Month {
		existing, err := s.budgets.FindBudget(ctx, userID, category, month)
		if err == nil && existing.ID != b.ID {
			return nil, core.Rule("A budget for category '%s' already exists for the month '%s', Try choosing a different category or month.", category, month)
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("check existing budget: %w", err)
		}
	}

	delta := decimal.NewFromFloat(amount).Sub(decimal.NewFromFloat(b.Amount)).Round(2).InexactFloat64()
	if !core.Covers(b.RemainingAmount, -delta) {
		return nil, core.Rule("Budget amount cannot be lower than the amount already spent")
	}

	now := s.now().UTC()

	// A category budget moving to another month releases its whole amount
	// to the old parent and takes the new amount from the new one.
	var debited, released *core.Budget
	var debit float64
	if !b.Category.IsMonthly() {
		debit = delta
		if month != b.Month {
			debit = amount
		}
		if debit != 0 {
			shortMsg := fmt.Sprintf("Monthly budget is not enough to update the budget for category '%s'", category)
			if debit > 0 {
				debited, err = s.debitParent(ctx, userID, month, debit, now, shortMsg)
			} else {
				debited, err = s.creditParent(ctx, userID, month, -debit, now)
			}
			if err != nil {
				return nil, err
			}
		}
		if month != b.Month {
			if old, err := s.budgets.FindBudget(ctx, userID, core.CategoryMonthly, b.Month); err == nil {
				s.credit(ctx, old, b.Amount)
				released = old
			}
		}
	}

	change := storage.BudgetChange{
		RemainingDelta: delta,
		UpdatedAt:      now,
	}
	if category != b.Category {
		change.Category = &category
	}
	if month != b.Month {
		change.Month = &month
	}
	if amount != b.Amount {
		change.Amount = &amount
	}

	updated, err := s.budgets.ApplyBudgetChange(ctx, userID, b.ID, change)
	if err != nil {
		if debited != nil && debit != 0 {
			s.credit(ctx, debited, debit)
		}
		if released != nil {
			s.debitBack(ctx, released, b.Amount)
		}
		switch {
		case errors.Is(err, storage.ErrInsufficientFunds):
			return nil, core.Rule("Budget amount cannot be lower than the amount already spent")
		case errors.Is(err, storage.ErrDuplicate):
			return nil, core.Rule("A budget for category '%s' already exists for the month '%s', Try choosing a different category or month.", category, month)
		}
		return nil, lookupError(err, "Budget")
	}

	if debited != nil {
		s.notifier.MonthlyBalance(ctx, userID, month, debited.RemainingAmount)
	}
	s.notifier.Emit(ctx, userID, SectionBudget, "Budget Updated", fmt.Sprintf("Budget updated for %s", category))

	slog.InfoContext(ctx, "Budget updated",
		log.FieldComponent, log.ComponentBudget,
		log.FieldUserID, userID,
		log.FieldBudgetID, updated.ID,
		log.FieldAmount, updated.Amount,
		log.FieldRemaining, updated.RemainingAmount)

	return updated, nil
}

func (s *BudgetService) creditParent(ctx context.Context, userID string, month core.Month, amount float64, at time.Time) (*core.Budget, error) {
	parent, err := s.budgets.FindBudget(ctx, userID, core.CategoryMonthly, month)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.NotFound("Monthly budget not found for the month '%s', Please create a monthly budget first.", month)
	}
	if err != nil {
		return nil, fmt.Errorf("find monthly budget: %w", err)
	}
	updated, err := s.budgets.ApplyBudgetChange(ctx, userID, parent.ID, storage.BudgetChange{
		RemainingDelta: amount,
		UpdatedAt:      at,
	})
	if err != nil {
		return nil, fmt.Errorf("credit monthly budget: %w", err)
	}
	logBalance(ctx, updated, amount)
	return updated, nil
}

// debitBack reverses an earlier credit during compensation.
func (s *BudgetService) debitBack(ctx context.Context, b *core.Budget, amount float64) {
	if _, err := s.budgets.ApplyBudgetChange(ctx, b.UserID, b.ID, storage.BudgetChange{
		RemainingDelta: -amount,
		UpdatedAt:      s.now().UTC(),
	}); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to reverse budget credit", err,
			log.ComponentBudget, log.OpDebit,
			log.NewFields().WithUser(b.UserID).WithBudget(b.ID, string(b.Category), string(b.Month), b.RemainingAmount))
	}
}

// Delete removes a budget. Amounts it drew from its monthly budget stay drawn.
func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	b, err := s.budgets.DeleteBudget(ctx, userID, id)
	if err != nil {
		return lookupError(err, "Budget")
	}
	s.notifier.Emit(ctx, userID, SectionBudget, "Budget Deleted", fmt.Sprintf("budget deleted for %s", b.Category))
	return nil
}

func (s *BudgetService) List(ctx context.Context, userID, month, category string) ([]core.Budget, error) {
	budgets, err := s.budgets.ListBudgets(ctx, storage.BudgetFilter{
		UserID:   userID,
		Month:    core.Month(month),
		Category: core.Category(category),
	})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Report sums the budgets of one month.
func (s *BudgetService) Report(ctx context.Context, userID, month string) (*core.BudgetReport, error) {
	if month == "" {
		return nil, core.Validation("Month is required")
	}
	m, err := core.ParseMonth(month)
	if err != nil {
		return nil, core.Validation("Invalid month format. Please use 'YYYY-MM' format.")
	}

	budgets, err := s.budgets.ListBudgets(ctx, storage.BudgetFilter{UserID: userID, Month: m})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, core.NotFound("Budgets not found")
	}

	total := decimal.Zero
	for _, b := range budgets {
		total = total.Add(decimal.NewFromFloat(b.Amount))
	}
	return &core.BudgetReport{
		TotalBudget:     total.InexactFloat64(),
		TotalCategories: len(budgets),
		Data:            budgets,
	}, nil
}

// AllocateToGoals distributes the current month's leftover monthly budget
// across active goals by their allocation percentage.
func (s *BudgetService) AllocateToGoals(ctx context.Context, userID string) (*core.AllocationResult, error) {
	month := s.currentMonth()

	parent, err := s.budgets.FindBudget(ctx, userID, core.CategoryMonthly, month)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.NotFound("Monthly budget not found for the month '%s'", month)
	}
	if err != nil {
		return nil, fmt.Errorf("find monthly budget: %w", err)
	}
	if parent.RemainingAmount <= 0 {
		return nil, core.Rule("No remaining amount to allocate")
	}

	active, err := s.goals.ListGoals(ctx, userID, core.GoalActive)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if len(active) == 0 {
		return nil, core.NotFound("No active goals found for allocation")
	}

	totalPct := 0.0
	for i := range active {
		if active[i].AllocatableGoal() {
			totalPct += active[i].AutoAllocationPercentage
		}
	}
	factor := core.ScaleFactor(totalPct)

	// Every share is taken from the balance at the start of the sweep.
	base := parent.RemainingAmount
	now := s.now().UTC()
	allocated := decimal.Zero
	result := &core.AllocationResult{Month: month, Allocations: []core.Allocation{}}
	var funded []*core.Goal

	for i := range active {
		g := &active[i]
		if !g.AllocatableGoal() {
			continue
		}
		applied, completed := g.Contribute(core.Share(base, g.AutoAllocationPercentage, factor))
		if applied <= 0 {
			continue
		}
		g.UpdatedAt = now
		funded = append(funded, g)
		allocated = allocated.Add(decimal.NewFromFloat(applied))
		result.Allocations = append(result.Allocations, core.Allocation{
			GoalID:    g.ID,
			Name:      g.Name,
			Amount:    applied,
			Completed: completed,
		})
	}

	total := allocated.Round(2).InexactFloat64()
	remaining := parent.RemainingAmount
	if total > 0 {
		updated, err := s.budgets.ApplyBudgetChange(ctx, userID, parent.ID, storage.BudgetChange{
			RemainingDelta: -total,
			UpdatedAt:      now,
		})
		if errors.Is(err, storage.ErrInsufficientFunds) {
			return nil, core.Rule("No remaining amount to allocate")
		}
		if err != nil {
			return nil, fmt.Errorf("debit monthly budget: %w", err)
		}
		logBalance(ctx, updated, -total)
		remaining = updated.RemainingAmount
	}

	for i, g := range funded {
		if err := s.goals.UpdateGoal(ctx, g); err != nil {
			log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to save goal allocation", err,
				log.ComponentGoal, log.OpAllocate,
				log.NewFields().WithUser(userID).WithAmount(result.Allocations[i].Amount, ""))
			continue
		}
		if result.Allocations[i].Completed {
			s.notifier.Emit(ctx, userID, SectionGoals, "Goal Completed", fmt.Sprintf("Goal '%s' has been completed", g.Name))
		}
	}

	s.notifier.Emit(ctx, userID, SectionBudget, "Auto Allocation Complete",
		fmt.Sprintf("Remaining budget for %s has been allocated to your goals.", month))

	result.TotalAllocated = total
	result.Remaining = remaining

	slog.InfoContext(ctx, "Budget allocated to goals",
		log.FieldComponent, log.ComponentBudget,
		log.FieldOperation, log.OpAllocate,
		log.FieldUserID, userID,
		log.FieldMonth, string(month),
		"goals", len(result.Allocations),
		log.FieldAmount, total,
		log.FieldRemaining, remaining)

	return result, nil
}

func duplicateBudget(category core.Category, month core.Month) error {
	return core.Rule("A budget for category '%s' already exists for the month '%s', Try updating the existing budget instead or choose a different category or month.", category, month)
}

func logBalance(ctx context.Context, b *core.Budget, delta float64) {
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogBudgetDebit(ctx, b.UserID, b.ID, string(b.Category), string(b.Month), delta, b.RemainingAmount)
}
