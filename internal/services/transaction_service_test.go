package services

import (
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateTransactionInput
		kind core.Kind
		msg  string
	}{
		{
			name: "missing fields",
			in:   CreateTransactionInput{Amount: 10, Currency: "LKR", Type: "income"},
			kind: core.KindValidation,
			msg:  "Amount, currency, transaction type and category are required",
		},
		{
			name: "recurring without pattern",
			in:   CreateTransactionInput{Amount: 10, Currency: "LKR", Type: "income", Category: "salary", IsRecurring: true},
			kind: core.KindValidation,
			msg:  "Recurrence pattern is required for recurring transactions",
		},
		{
			name: "bad pattern",
			in:   CreateTransactionInput{Amount: 10, Currency: "LKR", Type: "income", Category: "salary", IsRecurring: true, RecurrencePattern: "yearly"},
			kind: core.KindValidation,
			msg:  "Invalid recurrence pattern",
		},
		{
			name: "bad type",
			in:   CreateTransactionInput{Amount: 10, Currency: "LKR", Type: "transfer", Category: "salary"},
			kind: core.KindValidation,
			msg:  "Invalid transaction type",
		},
		{
			name: "bad category",
			in:   CreateTransactionInput{Amount: 10, Currency: "LKR", Type: "income", Category: "lottery"},
			kind: core.KindValidation,
		},
		{
			name: "bad currency",
			in:   CreateTransactionInput{Amount: 10, Currency: "DOGE", Type: "income", Category: "salary"},
			kind: core.KindValidation,
		},
		{
			name: "expense without budget",
			in:   CreateTransactionInput{Amount: 10, Currency: "LKR", Type: "expense", Category: "food"},
			kind: core.KindNotFound,
			msg:  "Budget not found for category 'food'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.txs.Create(f.ctx, f.user.ID, tt.in)
			assertError(t, err, tt.kind, tt.msg)
		})
	}
}

func TestCreateTransactionLimit(t *testing.T) {
	f := newFixture(t)
	f.user.TransactionLimit = 2
	if err := f.store.UpdateUser(f.ctx, f.user); err != nil {
		t.Fatalf("update user: %v", err)
	}

	in := CreateTransactionInput{Amount: 10, Currency: "LKR", Type: "income", Category: "salary"}
	for i := 0; i < 2; i++ {
		if _, err := f.txs.Create(f.ctx, f.user.ID, in); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	_, err := f.txs.Create(f.ctx, f.user.ID, in)
	assertError(t, err, core.KindRule, "Transaction limit reached")
}

func TestCreateTransactionConvertsToBaseCurrency(t *testing.T) {
	f := newFixture(t)

	tx, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{
		Amount: 10, Currency: "USD", Type: "income", Category: "salary", Tags: []string{"june"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Amount != 3000 || tx.Currency != core.LKR {
		t.Errorf("stored %v %s, want 3000 LKR", tx.Amount, tx.Currency)
	}
	if !tx.Date.Equal(fixtureNow) {
		t.Errorf("date = %v, want %v", tx.Date, fixtureNow)
	}
	if tx.RecurrencePattern != "" {
		t.Errorf("non-recurring transaction kept pattern %q", tx.RecurrencePattern)
	}
}

func TestCreateExpenseUsesTransactionMonth(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "", 10000, "2025-07")
	f.mustBudget(t, "food", 1000, "2025-06")
	f.mustBudget(t, "food", 1000, "2025-07")

	july := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	if _, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{
		Amount: 400, Currency: "LKR", Type: "expense", Category: "food", Date: &july,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := f.remaining(t, core.CategoryFood, "2025-07"); got != 600 {
		t.Errorf("july food = %v, want 600", got)
	}
	if got := f.remaining(t, core.CategoryFood, "2025-06"); got != 1000 {
		t.Errorf("june food = %v, want 1000", got)
	}
}

func TestExpenseExhaustsBudget(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "food", 500, "2025-06")

	if _, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{
		Amount: 500, Currency: "LKR", Type: "expense", Category: "food",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !f.hasTitle(t, "Budget Exhausted") {
		t.Errorf("expected Budget Exhausted, got %v", f.titles(t))
	}
	if len(f.publisher.sent) == 0 {
		t.Error("notifications were not published")
	}
}

func TestUpdateTransaction(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "food", 3000, "2025-06")
	f.mustBudget(t, "transport", 2000, "2025-06")

	tx, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{
		Amount: 1000, Currency: "LKR", Type: "expense", Category: "food",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.txs.Update(f.ctx, f.user.ID, tx.ID, UpdateTransactionInput{Amount: ptr(1500.0)}); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if got := f.remaining(t, core.CategoryFood, "2025-06"); got != 1500 {
		t.Errorf("food after grow = %v, want 1500", got)
	}

	if _, err := f.txs.Update(f.ctx, f.user.ID, tx.ID, UpdateTransactionInput{Amount: ptr(1200.0)}); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if got := f.remaining(t, core.CategoryFood, "2025-06"); got != 1800 {
		t.Errorf("food after shrink = %v, want 1800", got)
	}

	_, err = f.txs.Update(f.ctx, f.user.ID, tx.ID, UpdateTransactionInput{Amount: ptr(5000.0)})
	assertError(t, err, core.KindRule, "Insufficient budget for category 'food'")

	moved, err := f.txs.Update(f.ctx, f.user.ID, tx.ID, UpdateTransactionInput{Category: ptr("transport")})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Category != core.CategoryTransport {
		t.Errorf("category = %q", moved.Category)
	}
	if got := f.remaining(t, core.CategoryFood, "2025-06"); got != 3000 {
		t.Errorf("food after move = %v, want 3000", got)
	}
	if got := f.remaining(t, core.CategoryTransport, "2025-06"); got != 800 {
		t.Errorf("transport after move = %v, want 800", got)
	}

	if _, err := f.txs.Update(f.ctx, f.user.ID, tx.ID, UpdateTransactionInput{Type: ptr("income")}); err != nil {
		t.Fatalf("to income: %v", err)
	}
	if got := f.remaining(t, core.CategoryTransport, "2025-06"); got != 2000 {
		t.Errorf("transport after income = %v, want 2000", got)
	}
}

func TestUpdateTransactionLookups(t *testing.T) {
	f := newFixture(t)

	_, err := f.txs.Update(f.ctx, f.user.ID, "xyz", UpdateTransactionInput{})
	assertError(t, err, core.KindValidation, "Invalid transaction id")

	_, err = f.txs.Update(f.ctx, f.user.ID, "000000000000000000000000", UpdateTransactionInput{})
	assertError(t, err, core.KindNotFound, "Transaction not found")

	tx, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{Amount: 5, Currency: "LKR", Type: "income", Category: "salary"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = f.txs.Update(f.ctx, f.user.ID, tx.ID, UpdateTransactionInput{RecurrencePattern: ptr("hourly")})
	assertError(t, err, core.KindValidation, "Invalid recurrence pattern")

	_, err = f.txs.Update(f.ctx, f.user.ID, tx.ID, UpdateTransactionInput{IsRecurring: ptr(true)})
	assertError(t, err, core.KindValidation, "Recurrence pattern is required for recurring transactions")
}

func TestDeleteTransactionKeepsBudget(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "food", 3000, "2025-06")

	tx, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{Amount: 1000, Currency: "LKR", Type: "expense", Category: "food"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.txs.Delete(f.ctx, f.user.ID, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := f.remaining(t, core.CategoryFood, "2025-06"); got != 2000 {
		t.Errorf("food after delete = %v, want 2000", got)
	}
	if _, err := f.store.GetTransaction(f.ctx, f.user.ID, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("transaction still present: %v", err)
	}
	assertError(t, f.txs.Delete(f.ctx, f.user.ID, tx.ID), core.KindNotFound, "Transaction not found")
}

func TestListAndReport(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "food", 3000, "2025-06")

	inputs := []CreateTransactionInput{
		{Amount: 50000, Currency: "LKR", Type: "income", Category: "salary", Tags: []string{"work"}},
		{Amount: 1000, Currency: "LKR", Type: "expense", Category: "food", Tags: []string{"groceries"}},
		{Amount: 500, Currency: "LKR", Type: "expense", Category: "food", Tags: []string{"dining"}},
	}
	for _, in := range inputs {
		if _, err := f.txs.Create(f.ctx, f.user.ID, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		name string
		q    TransactionQuery
		want int
	}{
		{"all", TransactionQuery{}, 3},
		{"expenses", TransactionQuery{Type: "expense"}, 2},
		{"incomes", TransactionQuery{Type: "income"}, 1},
		{"category", TransactionQuery{Category: "food"}, 2},
		{"tag", TransactionQuery{Tag: "dining"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.txs.List(f.ctx, f.user.ID, tt.q)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	_, err := f.txs.List(f.ctx, f.user.ID, TransactionQuery{Type: "refund"})
	assertError(t, err, core.KindValidation, "Invalid transaction type")

	r, err := f.txs.Report(f.ctx, f.user.ID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.TotalIncome != 50000 || r.TotalExpense != 1500 || r.TotalTransactions != 3 {
		t.Errorf("report = %+v", r)
	}

	r, err = f.txs.Report(f.ctx, f.user.ID, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	if err != nil {
		t.Fatalf("empty report: %v", err)
	}
	if r.TotalTransactions != 0 {
		t.Errorf("july report = %+v, want empty", r)
	}
}

func TestListRestatesInCurrentBaseCurrency(t *testing.T) {
	f := newFixture(t)
	if _, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{Amount: 3000, Currency: "LKR", Type: "income", Category: "salary"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.users.UpdateProfile(f.ctx, f.user.ID, UpdateProfileInput{Currency: ptr("USD")}); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	got, err := f.txs.List(f.ctx, f.user.ID, TransactionQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Amount != 3000 || got[0].ConvertedAmount != 10 {
		t.Errorf("list = %+v, want 3000 LKR restated as 10", got)
	}
}

func TestRecurringProcessor(t *testing.T) {
	f := newFixture(t)

	end := fixtureNow.AddDate(0, 0, 3)
	inputs := []CreateTransactionInput{
		{Amount: 10, Currency: "LKR", Type: "income", Category: "salary", IsRecurring: true, RecurrencePattern: "daily"},
		{Amount: 10, Currency: "LKR", Type: "income", Category: "salary", IsRecurring: true, RecurrencePattern: "weekly"},
		{Amount: 10, Currency: "LKR", Type: "income", Category: "salary", IsRecurring: true, RecurrencePattern: "daily", EndDate: &end},
		{Amount: 10, Currency: "LKR", Type: "income", Category: "salary"},
	}
	for _, in := range inputs {
		if _, err := f.txs.Create(f.ctx, f.user.ID, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"same day", fixtureNow.Add(time.Hour), 0},
		{"after a day", fixtureNow.Add(25 * time.Hour), 2},
		{"repeat run re-notifies", fixtureNow.Add(26 * time.Hour), 2},
		{"after a week, one ended", fixtureNow.AddDate(0, 0, 8), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.recurring.ProcessDue(f.ctx, f.user.ID, tt.at)
			if err != nil {
				t.Fatalf("ProcessDue: %v", err)
			}
			if got != tt.want {
				t.Errorf("due = %d, want %d", got, tt.want)
			}
		})
	}

	if n := f.countTitle(t, "Recurring Transaction Due"); n != 6 {
		t.Errorf("due notifications = %d, want 6", n)
	}

	all, err := f.recurring.ProcessDue(f.ctx, "", fixtureNow.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("ProcessDue all users: %v", err)
	}
	if all != 2 {
		t.Errorf("all users due = %d, want 2", all)
	}
}
