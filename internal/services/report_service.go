package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type (
	SpendingReport struct {
		TotalSpending float64       `json:"totalSpending"`
		Currency      core.Currency `json:"currency"`
	}

	IncomeReport struct {
		TotalIncome float64       `json:"totalIncome"`
		Currency    core.Currency `json:"currency"`
	}
)

// ReportService aggregates a user's transactions, budgets and goals. It
// never writes.
type ReportService struct {
	transactions storage.TransactionStore
	budgets      storage.BudgetStore
	goals        storage.GoalStore
	users        storage.UserStore
	converter    Converter
}

func NewReportService(transactions storage.TransactionStore, budgets storage.BudgetStore, goals storage.GoalStore, users storage.UserStore, converter Converter) *ReportService {
	return &ReportService{
		transactions: transactions,
		budgets:      budgets,
		goals:        goals,
		users:        users,
		converter:    converter,
	}
}

// Monthly summarizes one calendar month. Goals are counted over all time.
func (s *ReportService) Monthly(ctx context.Context, userID, month string) (*core.FinancialSummary, error) {
	if month == "" {
		return nil, core.Validation("Month is required")
	}
	m, err := core.ParseMonth(month)
	if err != nil {
		return nil, core.Validation("Invalid month format. Please use 'YYYY-MM' format.")
	}
	from, to, err := m.Range()
	if err != nil {
		return nil, fmt.Errorf("month range: %w", err)
	}
	return s.summarize(ctx, userID,
		storage.TransactionFilter{UserID: userID, From: from, To: to},
		storage.BudgetFilter{UserID: userID, Month: m})
}

// Overall summarizes everything the user has recorded.
func (s *ReportService) Overall(ctx context.Context, userID string) (*core.FinancialSummary, error) {
	return s.summarize(ctx, userID,
		storage.TransactionFilter{UserID: userID},
		storage.BudgetFilter{UserID: userID})
}

func (s *ReportService) summarize(ctx context.Context, userID string, tf storage.TransactionFilter, bf storage.BudgetFilter) (*core.FinancialSummary, error) {
	txs, err := s.transactions.ListTransactions(ctx, tf)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := s.budgets.ListBudgets(ctx, bf)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	goals, err := s.goals.ListGoals(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	income, expense := sumByType(txs)
	total, remaining := decimal.Zero, decimal.Zero
	for _, b := range budgets {
		total = total.Add(decimal.NewFromFloat(b.Amount))
		remaining = remaining.Add(decimal.NewFromFloat(b.RemainingAmount))
	}
	completed := 0
	for _, g := range goals {
		if g.Status == core.GoalCompleted {
			completed++
		}
	}

	return &core.FinancialSummary{
		TotalIncome:       income,
		TotalExpense:      expense,
		TotalTransactions: len(txs),
		TotalBudget:       total.InexactFloat64(),
		RemainingBudget:   remaining.InexactFloat64(),
		TotalGoals:        len(goals),
		CompletedGoals:    completed,
	}, nil
}

// Spending sums every expense restated in the user's base currency.
func (s *ReportService) Spending(ctx context.Context, userID string) (*SpendingReport, error) {
	total, currency, err := s.convertedTotal(ctx, userID, core.Expense)
	if err != nil {
		return nil, err
	}
	return &SpendingReport{TotalSpending: total, Currency: currency}, nil
}

// Income sums every income restated in the user's base currency.
func (s *ReportService) Income(ctx context.Context, userID string) (*IncomeReport, error) {
	total, currency, err := s.convertedTotal(ctx, userID, core.Income)
	if err != nil {
		return nil, err
	}
	return &IncomeReport{TotalIncome: total, Currency: currency}, nil
}

func (s *ReportService) convertedTotal(ctx context.Context, userID string, txType core.TransactionType) (float64, core.Currency, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, "", lookupError(err, "User")
	}
	base := baseCurrency(user)

	txs, err := s.transactions.ListTransactions(ctx, storage.TransactionFilter{UserID: userID, Type: txType})
	if err != nil {
		return 0, "", fmt.Errorf("list transactions: %w", err)
	}

	total := decimal.Zero
	for _, t := range txs {
		amount := t.Amount
		if t.Currency != "" && t.Currency != base {
			amount, err = s.converter.Convert(ctx, t.Amount, t.Currency, base)
			if err != nil {
				return 0, "", fmt.Errorf("convert transaction %s: %w", t.ID, err)
			}
		}
		total = total.Add(decimal.NewFromFloat(amount))
	}
	return total.Round(2).InexactFloat64(), base, nil
}

// Trends returns per-month income and expense totals in chronological order.
func (s *ReportService) Trends(ctx context.Context, userID string) ([]core.MonthlyTotal, error) {
	totals, err := s.transactions.MonthlyTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	return totals, nil
}
