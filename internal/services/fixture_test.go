package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

// fakeConverter pivots through USD like the real rate table.
type fakeConverter struct {
	rates map[core.Currency]float64
	err   error
}

func (c fakeConverter) Convert(_ context.Context, amount float64, from, to core.Currency) (float64, error) {
	if c.err != nil {
		return 0, c.err
	}
	if from == to {
		return amount, nil
	}
	rf, ok := c.rates[from]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %s", from)
	}
	rt, ok := c.rates[to]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %s", to)
	}
	return amount / rf * rt, nil
}

var testRates = map[core.Currency]float64{
	core.USD: 1,
	core.LKR: 300,
	core.EUR: 0.5,
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []core.Notification
	err  error
}

func (p *recordingPublisher) PublishNotification(_ context.Context, n core.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return p.err
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(u core.User) (string, error) {
	return "token-" + u.ID, nil
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	publisher *recordingPublisher
	notifier  *Notifier
	budgets   *BudgetService
	txs       *TransactionService
	goals     *GoalService
	reports   *ReportService
	users     *UserService
	recurring *RecurringProcessor
	user      *core.User
	now       time.Time
}

var fixtureNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:       context.Background(),
		store:     memory.New(),
		publisher: &recordingPublisher{},
		now:       fixtureNow,
	}
	clock := func() time.Time { return f.now }
	conv := fakeConverter{rates: testRates}

	f.notifier = NewNotifier(f.store, f.publisher)
	f.notifier.now = clock
	f.budgets = NewBudgetService(f.store, f.store, f.store, conv, f.notifier)
	f.budgets.now = clock
	f.txs = NewTransactionService(f.store, f.store, f.store, conv, f.notifier)
	f.txs.now = clock
	f.goals = NewGoalService(f.store, f.notifier)
	f.goals.now = clock
	f.reports = NewReportService(f.store, f.store, f.store, f.store, conv)
	f.users = NewUserService(f.store, fakeIssuer{}, 100)
	f.users.now = clock
	f.recurring = NewRecurringProcessor(f.store, f.notifier)

	f.user = &core.User{
		Name:             "Nimal",
		Email:            "nimal@example.com",
		Role:             core.RoleUser,
		Currency:         core.LKR,
		TransactionLimit: 100,
	}
	if err := f.store.CreateUser(f.ctx, f.user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return f
}

func (f *fixture) mustBudget(t *testing.T, category string, amount float64, month string) *CreatedBudget {
	t.Helper()
	b, err := f.budgets.Create(f.ctx, f.user.ID, CreateBudgetInput{
		Category: category,
		Amount:   amount,
		Currency: string(f.user.Currency),
		Month:    month,
	})
	if err != nil {
		t.Fatalf("create %q budget: %v", category, err)
	}
	return b
}

func (f *fixture) remaining(t *testing.T, category core.Category, month core.Month) float64 {
	t.Helper()
	b, err := f.store.FindBudget(f.ctx, f.user.ID, category, month)
	if err != nil {
		t.Fatalf("find %q budget: %v", category, err)
	}
	return b.RemainingAmount
}

func (f *fixture) titles(t *testing.T) []string {
	t.Helper()
	notes, err := f.store.ListNotifications(f.ctx, f.user.ID, false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

func (f *fixture) countTitle(t *testing.T, title string) int {
	t.Helper()
	n := 0
	for _, got := range f.titles(t) {
		if got == title {
			n++
		}
	}
	return n
}

func (f *fixture) hasTitle(t *testing.T, title string) bool {
	t.Helper()
	return slices.Contains(f.titles(t), title)
}

func assertError(t *testing.T, err error, kind core.Kind, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error %q, got nil", kind, message)
	}
	var e *core.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *core.Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Errorf("kind = %s, want %s (%v)", e.Kind, kind, err)
	}
	if message != "" && e.Message != message {
		t.Errorf("message = %q, want %q", e.Message, message)
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func ptr[T any](v T) *T {
	return &v
}
