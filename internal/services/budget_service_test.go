package services

import (
	"testing"

	"fintrack/internal/core"
)

func TestLedgerScenario(t *testing.T) {
	f := newFixture(t)
	const month = core.Month("2025-06")

	f.mustBudget(t, "", 10000, string(month))
	food := f.mustBudget(t, "food", 3000, string(month))

	if got := f.remaining(t, core.CategoryMonthly, month); got != 7000 {
		t.Fatalf("monthly remaining = %v, want 7000", got)
	}
	if food.RemainingAmount != food.Amount {
		t.Errorf("child remaining = %v, want %v", food.RemainingAmount, food.Amount)
	}

	_, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{
		Amount: 2000, Currency: "LKR", Type: "expense", Category: "food",
	})
	if err != nil {
		t.Fatalf("first expense: %v", err)
	}
	if got := f.remaining(t, core.CategoryFood, month); got != 1000 {
		t.Fatalf("food remaining = %v, want 1000", got)
	}

	_, err = f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{
		Amount: 1500, Currency: "LKR", Type: "expense", Category: "food",
	})
	assertError(t, err, core.KindRule, "Insufficient budget for category 'food'")

	if got := f.remaining(t, core.CategoryFood, month); got != 1000 {
		t.Errorf("food remaining after rejected expense = %v, want 1000", got)
	}
	if f.hasTitle(t, "Monthly Budget is very low") {
		t.Error("monthly budget at 7000 should not be reported low")
	}
	if !f.hasTitle(t, "Budget is very low") {
		t.Error("food budget at 1000 should be reported low")
	}
}

func TestCreateBudgetValidation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
		in    CreateBudgetInput
		kind  core.Kind
		msg   string
	}{
		{
			name: "neither month nor category",
			in:   CreateBudgetInput{Amount: 100, Currency: "LKR"},
			kind: core.KindValidation,
			msg:  "Budget should be monthly or category-specific, So month or category is required",
		},
		{
			name: "missing amount",
			in:   CreateBudgetInput{Currency: "LKR", Month: "2025-06"},
			kind: core.KindValidation,
			msg:  "Amount and Currency are required",
		},
		{
			name: "missing currency",
			in:   CreateBudgetInput{Amount: 100, Month: "2025-06"},
			kind: core.KindValidation,
			msg:  "Amount and Currency are required",
		},
		{
			name: "unknown currency",
			in:   CreateBudgetInput{Amount: 100, Currency: "XYZ", Month: "2025-06"},
			kind: core.KindValidation,
		},
		{
			name: "unknown category",
			in:   CreateBudgetInput{Amount: 100, Currency: "LKR", Category: "pets", Month: "2025-06"},
			kind: core.KindValidation,
		},
		{
			name: "malformed month",
			in:   CreateBudgetInput{Amount: 100, Currency: "LKR", Month: "2025-6"},
			kind: core.KindValidation,
			msg:  "Invalid month format. Please use 'YYYY-MM' format.",
		},
		{
			name: "past month",
			in:   CreateBudgetInput{Amount: 100, Currency: "LKR", Month: "2025-05"},
			kind: core.KindRule,
			msg:  "Cannot create a budget for a past month.",
		},
		{
			name: "category without monthly budget",
			in:   CreateBudgetInput{Amount: 100, Currency: "LKR", Category: "food", Month: "2025-07"},
			kind: core.KindNotFound,
			msg:  "Monthly budget not found for the month '2025-07', Please create a monthly budget first.",
		},
		{
			name: "monthly budget too small",
			setup: func(t *testing.T, f *fixture) {
				f.mustBudget(t, "", 500, "2025-06")
			},
			in:   CreateBudgetInput{Amount: 501, Currency: "LKR", Category: "food", Month: "2025-06"},
			kind: core.KindRule,
			msg:  "Monthly budget is not enough to create a budget for category 'food'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			_, err := f.budgets.Create(f.ctx, f.user.ID, tt.in)
			assertError(t, err, tt.kind, tt.msg)
		})
	}
}

func TestCreateBudgetDefaultsAndConversion(t *testing.T) {
	f := newFixture(t)

	b, err := f.budgets.Create(f.ctx, f.user.ID, CreateBudgetInput{Amount: 100, Currency: "USD", Month: "2025-06"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Category != core.CategoryMonthly {
		t.Errorf("category = %q, want monthly budget", b.Category)
	}
	if b.Amount != 30000 || b.RemainingAmount != 30000 {
		t.Errorf("amount = %v/%v, want 30000 LKR", b.Amount, b.RemainingAmount)
	}
	if b.OriginalAmount != 100 || b.OriginalCurrency != core.USD {
		t.Errorf("original = %v %s, want 100 USD", b.OriginalAmount, b.OriginalCurrency)
	}

	food, err := f.budgets.Create(f.ctx, f.user.ID, CreateBudgetInput{Category: "food", Amount: 10, Currency: "LKR"})
	if err != nil {
		t.Fatalf("create without month: %v", err)
	}
	if food.Month != "2025-06" {
		t.Errorf("month = %q, want current month", food.Month)
	}
	if !f.hasTitle(t, "Budget Created") {
		t.Error("expected Budget Created notification")
	}
}

func TestCreateBudgetDuplicate(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "food", 100, "2025-06")

	_, err := f.budgets.Create(f.ctx, f.user.ID, CreateBudgetInput{Category: "food", Amount: 100, Currency: "LKR", Month: "2025-06"})
	assertError(t, err, core.KindRule,
		"A budget for category 'food' already exists for the month '2025-06', Try updating the existing budget instead or choose a different category or month.")

	if got := f.remaining(t, core.CategoryMonthly, "2025-06"); got != 9900 {
		t.Errorf("monthly remaining = %v, want 9900", got)
	}
}

func TestCreateBudgetThresholds(t *testing.T) {
	tests := []struct {
		name      string
		child     float64
		wantTitle string
	}{
		{"above threshold", 1000, ""},
		{"below threshold", 6000, "Monthly Budget is very low"},
		{"exhausted", 10000, "Monthly Budget Exhausted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mustBudget(t, "", 10000, "2025-06")
			f.mustBudget(t, "housing", tt.child, "2025-06")

			low := f.hasTitle(t, "Monthly Budget is very low")
			exhausted := f.hasTitle(t, "Monthly Budget Exhausted")
			switch tt.wantTitle {
			case "":
				if low || exhausted {
					t.Error("unexpected balance notification")
				}
			default:
				if !f.hasTitle(t, tt.wantTitle) {
					t.Errorf("missing %q, got %v", tt.wantTitle, f.titles(t))
				}
			}
		})
	}
}

func TestCreateBudgetSpendsMonthlyToTheCent(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 100, "2025-06")
	f.mustBudget(t, "food", 99.7, "2025-06")
	if m := f.remaining(t, core.CategoryMonthly, "2025-06"); m != 0.3 {
		t.Fatalf("monthly remaining = %v, want 0.3", m)
	}

	f.mustBudget(t, "transport", 0.3, "2025-06")
	if m := f.remaining(t, core.CategoryMonthly, "2025-06"); m != 0 {
		t.Errorf("monthly remaining = %v, want 0", m)
	}
	if !f.hasTitle(t, "Monthly Budget Exhausted") {
		t.Errorf("missing exhausted alert, got %v", f.titles(t))
	}
}

func TestUpdateBudgetShrinkRechecksMonthly(t *testing.T) {
	tests := []struct {
		name     string
		shrinkTo float64
		wantLow  int
	}{
		{"still below threshold", 8000, 2},
		{"back above threshold", 2000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mustBudget(t, "", 10000, "2025-06")
			housing := f.mustBudget(t, "housing", 9000, "2025-06")
			if n := f.countTitle(t, "Monthly Budget is very low"); n != 1 {
				t.Fatalf("low alerts after create = %d, want 1", n)
			}

			if _, err := f.budgets.Update(f.ctx, f.user.ID, housing.ID, UpdateBudgetInput{Amount: ptr(tt.shrinkTo)}); err != nil {
				t.Fatalf("shrink: %v", err)
			}
			if n := f.countTitle(t, "Monthly Budget is very low"); n != tt.wantLow {
				t.Errorf("low alerts after shrink = %d, want %d", n, tt.wantLow)
			}
		})
	}
}

func TestUpdateBudget(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	food := f.mustBudget(t, "food", 3000, "2025-06")

	got, err := f.budgets.Update(f.ctx, f.user.ID, food.ID, UpdateBudgetInput{Amount: ptr(4000.0)})
	if err != nil {
		t.Fatalf("grow: %v", err)
	}
	if got.Amount != 4000 || got.RemainingAmount != 4000 {
		t.Errorf("food = %v/%v, want 4000/4000", got.Amount, got.RemainingAmount)
	}
	if m := f.remaining(t, core.CategoryMonthly, "2025-06"); m != 6000 {
		t.Errorf("monthly remaining = %v, want 6000", m)
	}

	if _, err := f.budgets.Update(f.ctx, f.user.ID, food.ID, UpdateBudgetInput{Amount: ptr(2000.0)}); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if m := f.remaining(t, core.CategoryMonthly, "2025-06"); m != 8000 {
		t.Errorf("monthly remaining after shrink = %v, want 8000", m)
	}

	if _, err := f.txs.Create(f.ctx, f.user.ID, CreateTransactionInput{
		Amount: 1500, Currency: "LKR", Type: "expense", Category: "food",
	}); err != nil {
		t.Fatalf("expense: %v", err)
	}
	_, err = f.budgets.Update(f.ctx, f.user.ID, food.ID, UpdateBudgetInput{Amount: ptr(1000.0)})
	assertError(t, err, core.KindRule, "Budget amount cannot be lower than the amount already spent")

	_, err = f.budgets.Update(f.ctx, f.user.ID, food.ID, UpdateBudgetInput{Amount: ptr(20000.0)})
	assertError(t, err, core.KindRule, "Monthly budget is not enough to update the budget for category 'food'")
	if m := f.remaining(t, core.CategoryMonthly, "2025-06"); m != 8000 {
		t.Errorf("monthly remaining after rejected update = %v, want 8000", m)
	}

	if !f.hasTitle(t, "Budget Updated") {
		t.Error("expected Budget Updated notification")
	}
}

func TestUpdateBudgetRules(t *testing.T) {
	f := newFixture(t)
	monthly := f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "food", 100, "2025-06")
	transport := f.mustBudget(t, "transport", 100, "2025-06")

	tests := []struct {
		name string
		id   string
		in   UpdateBudgetInput
		kind core.Kind
		msg  string
	}{
		{"unknown id", "000000000000000000000000", UpdateBudgetInput{}, core.KindNotFound, "Budget not found"},
		{"monthly category change", monthly.ID, UpdateBudgetInput{Category: ptr("food")}, core.KindRule, "Cannot change the category of a monthly budget"},
		{"past month", transport.ID, UpdateBudgetInput{Month: ptr("2025-01")}, core.KindRule, "Cannot update a budget to a past month."},
		{"collides with food", transport.ID, UpdateBudgetInput{Category: ptr("food")}, core.KindRule,
			"A budget for category 'food' already exists for the month '2025-06', Try choosing a different category or month."},
		{"bad currency", transport.ID, UpdateBudgetInput{Currency: ptr("BTC")}, core.KindValidation, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.budgets.Update(f.ctx, f.user.ID, tt.id, tt.in)
			assertError(t, err, tt.kind, tt.msg)
		})
	}

	// Renaming to its own key is not a duplicate.
	if _, err := f.budgets.Update(f.ctx, f.user.ID, transport.ID, UpdateBudgetInput{Category: ptr("transport")}); err != nil {
		t.Errorf("self update: %v", err)
	}
}

func TestUpdateBudgetMoveMonth(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "", 5000, "2025-07")
	food := f.mustBudget(t, "food", 1000, "2025-06")

	got, err := f.budgets.Update(f.ctx, f.user.ID, food.ID, UpdateBudgetInput{Month: ptr("2025-07")})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got.Month != "2025-07" {
		t.Errorf("month = %q, want 2025-07", got.Month)
	}
	if m := f.remaining(t, core.CategoryMonthly, "2025-06"); m != 10000 {
		t.Errorf("june remaining = %v, want 10000", m)
	}
	if m := f.remaining(t, core.CategoryMonthly, "2025-07"); m != 4000 {
		t.Errorf("july remaining = %v, want 4000", m)
	}
}

func TestDeleteBudgetKeepsParentBalance(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")
	food := f.mustBudget(t, "food", 3000, "2025-06")

	if err := f.budgets.Delete(f.ctx, f.user.ID, food.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m := f.remaining(t, core.CategoryMonthly, "2025-06"); m != 7000 {
		t.Errorf("monthly remaining = %v, want 7000", m)
	}
	if !f.hasTitle(t, "Budget Deleted") {
		t.Error("expected Budget Deleted notification")
	}

	err := f.budgets.Delete(f.ctx, f.user.ID, food.ID)
	assertError(t, err, core.KindNotFound, "Budget not found")

	err = f.budgets.Delete(f.ctx, f.user.ID, "not-an-id")
	assertError(t, err, core.KindValidation, "Invalid budget id")
}

func TestBudgetReport(t *testing.T) {
	f := newFixture(t)

	_, err := f.budgets.Report(f.ctx, f.user.ID, "")
	assertError(t, err, core.KindValidation, "Month is required")

	_, err = f.budgets.Report(f.ctx, f.user.ID, "2025-06")
	assertError(t, err, core.KindNotFound, "Budgets not found")

	f.mustBudget(t, "", 10000, "2025-06")
	f.mustBudget(t, "food", 2500.5, "2025-06")

	r, err := f.budgets.Report(f.ctx, f.user.ID, "2025-06")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.TotalBudget != 12500.5 || r.TotalCategories != 2 || len(r.Data) != 2 {
		t.Errorf("report = %+v", r)
	}
}

func TestAllocateToGoalsScalesOverHundred(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")

	target := fixtureNow.AddDate(1, 0, 0)
	for _, pct := range []float64{100, 50} {
		if _, err := f.goals.Create(f.ctx, f.user.ID, CreateGoalInput{
			Name: "goal", TargetAmount: 1e6, TargetDate: &target, AutoAllocationPercentage: ptr(pct),
		}); err != nil {
			t.Fatalf("create goal: %v", err)
		}
	}

	res, err := f.budgets.AllocateToGoals(f.ctx, f.user.ID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(res.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(res.Allocations))
	}
	if !approx(res.Allocations[0].Amount, 6666.66) || !approx(res.Allocations[1].Amount, 3333.33) {
		t.Errorf("shares = %v, %v", res.Allocations[0].Amount, res.Allocations[1].Amount)
	}
	if res.TotalAllocated > 10000 {
		t.Errorf("allocated %v exceeds remainder", res.TotalAllocated)
	}
	if m := f.remaining(t, core.CategoryMonthly, "2025-06"); !approx(m, 10000-res.TotalAllocated) || m < 0 {
		t.Errorf("monthly remaining = %v, want %v", m, 10000-res.TotalAllocated)
	}
	if !f.hasTitle(t, "Auto Allocation Complete") {
		t.Error("expected Auto Allocation Complete notification")
	}
}

func TestAllocateToGoalsClampsAndCompletes(t *testing.T) {
	f := newFixture(t)
	f.mustBudget(t, "", 10000, "2025-06")

	target := fixtureNow.AddDate(0, 6, 0)
	g, err := f.goals.Create(f.ctx, f.user.ID, CreateGoalInput{
		Name: "bike", TargetAmount: 1000, TargetDate: &target, AutoAllocationPercentage: ptr(50.0),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	res, err := f.budgets.AllocateToGoals(f.ctx, f.user.ID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if res.TotalAllocated != 1000 || res.Remaining != 9000 {
		t.Errorf("result = %+v, want 1000 allocated and 9000 remaining", res)
	}

	stored, err := f.store.GetGoal(f.ctx, f.user.ID, g.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if stored.CurrentAmount != stored.TargetAmount || stored.Status != core.GoalCompleted {
		t.Errorf("goal = %v/%v %s, want completed at target", stored.CurrentAmount, stored.TargetAmount, stored.Status)
	}
	if !f.hasTitle(t, "Goal Completed") {
		t.Error("expected Goal Completed notification")
	}

	_, err = f.budgets.AllocateToGoals(f.ctx, f.user.ID)
	assertError(t, err, core.KindNotFound, "No active goals found for allocation")
}

func TestAllocateToGoalsPreconditions(t *testing.T) {
	f := newFixture(t)

	_, err := f.budgets.AllocateToGoals(f.ctx, f.user.ID)
	assertError(t, err, core.KindNotFound, "Monthly budget not found for the month '2025-06'")

	f.mustBudget(t, "", 1000, "2025-06")
	_, err = f.budgets.AllocateToGoals(f.ctx, f.user.ID)
	assertError(t, err, core.KindNotFound, "No active goals found for allocation")

	f.mustBudget(t, "food", 1000, "2025-06")
	_, err = f.budgets.AllocateToGoals(f.ctx, f.user.ID)
	assertError(t, err, core.KindRule, "No remaining amount to allocate")
}
