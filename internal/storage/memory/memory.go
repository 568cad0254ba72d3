// Package memory implements every storage port in process memory. It backs
// DATA_BACKEND=memory and the service tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type Store struct {
	mu            sync.Mutex
	users         map[string]core.User
	budgets       map[string]core.Budget
	transactions  map[string]core.Transaction
	goals         map[string]core.Goal
	notifications map[string]core.Notification
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:         make(map[string]core.User),
		budgets:       make(map[string]core.Budget),
		transactions:  make(map[string]core.Transaction),
		goals:         make(map[string]core.Goal),
		notifications: make(map[string]core.Notification),
	}
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

// newID mirrors the document store so ids look the same on either backend.
func newID() string {
	return bson.NewObjectID().Hex()
}

func checkID(id string) error {
	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %q", storage.ErrInvalidID, id)
	}
	return nil
}

// Users

func (s *Store) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return storage.ErrDuplicate
		}
	}
	u.ID = newID()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*core.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u *core.User) error {
	if err := checkID(u.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return storage.ErrNotFound
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// Budgets

func (s *Store) CreateBudget(_ context.Context, b *core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findBudgetLocked(b.UserID, b.Category, b.Month, "") != nil {
		return storage.ErrDuplicate
	}
	b.ID = newID()
	s.budgets[b.ID] = *b
	return nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (*core.Budget, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &b, nil
}

func (s *Store) FindBudget(_ context.Context, userID string, category core.Category, month core.Month) (*core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.findBudgetLocked(userID, category, month, "")
	if b == nil {
		return nil, storage.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (s *Store) findBudgetLocked(userID string, category core.Category, month core.Month, exceptID string) *core.Budget {
	for id, b := range s.budgets {
		if id != exceptID && b.UserID == userID && b.Category == category && b.Month == month {
			return &b
		}
	}
	return nil
}

func (s *Store) ListBudgets(_ context.Context, f storage.BudgetFilter) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if f.Month != "" && b.Month != f.Month {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ApplyBudgetChange(_ context.Context, userID, id string, ch storage.BudgetChange) (*core.Budget, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return nil, storage.ErrNotFound
	}
	if ch.RemainingDelta < 0 && !core.Covers(b.RemainingAmount, -ch.RemainingDelta) {
		return nil, storage.ErrInsufficientFunds
	}
	category, month := b.Category, b.Month
	if ch.Category != nil {
		category = *ch.Category
	}
	if ch.Month != nil {
		month = *ch.Month
	}
	if s.findBudgetLocked(userID, category, month, id) != nil {
		return nil, storage.ErrDuplicate
	}
	b.Category, b.Month = category, month
	if ch.Amount != nil {
		b.Amount = *ch.Amount
	}
	b.RemainingAmount = core.AddCents(b.RemainingAmount, ch.RemainingDelta)
	if !ch.UpdatedAt.IsZero() {
		b.UpdatedAt = ch.UpdatedAt
	}
	s.budgets[id] = b
	return &b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) (*core.Budget, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return nil, storage.ErrNotFound
	}
	delete(s.budgets, id)
	return &b, nil
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, t *core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newID()
	s.transactions[t.ID] = cloneTransaction(*t)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (*core.Transaction, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, storage.ErrNotFound
	}
	t = cloneTransaction(t)
	return &t, nil
}

func (s *Store) ListTransactions(_ context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if matchTransaction(t, f) {
			out = append(out, cloneTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func matchTransaction(t core.Transaction, f storage.TransactionFilter) bool {
	switch {
	case f.UserID != "" && t.UserID != f.UserID:
		return false
	case f.Type != "" && t.Type != f.Type:
		return false
	case f.Category != "" && t.Category != f.Category:
		return false
	case f.Tag != "" && !slices.Contains(t.Tags, f.Tag):
		return false
	case !f.From.IsZero() && t.Date.Before(f.From):
		return false
	case !f.To.IsZero() && !t.Date.Before(f.To):
		return false
	case f.Recurring && !t.IsRecurring:
		return false
	}
	return true
}

func (s *Store) CountTransactions(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.transactions {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t *core.Transaction) error {
	if err := checkID(t.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		return storage.ErrNotFound
	}
	s.transactions[t.ID] = cloneTransaction(*t)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) (*core.Transaction, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, storage.ErrNotFound
	}
	delete(s.transactions, id)
	return &t, nil
}

func (s *Store) MonthlyTotals(_ context.Context, userID string) ([]core.MonthlyTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type key struct {
		year, month int
		typ         core.TransactionType
	}
	groups := make(map[key]*core.MonthlyTotal)
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		d := t.Date.UTC()
		k := key{d.Year(), int(d.Month()), t.Type}
		g, ok := groups[k]
		if !ok {
			g = &core.MonthlyTotal{Year: k.year, Month: k.month, Type: k.typ}
			groups[k] = g
		}
		g.Total += t.Amount
		g.Count++
	}
	out := make([]core.MonthlyTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func cloneTransaction(t core.Transaction) core.Transaction {
	t.Tags = append([]string(nil), t.Tags...)
	if t.EndDate != nil {
		end := *t.EndDate
		t.EndDate = &end
	}
	return t
}

// Goals

func (s *Store) CreateGoal(_ context.Context, g *core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = newID()
	s.goals[g.ID] = *g
	return nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (*core.Goal, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &g, nil
}

func (s *Store) ListGoals(_ context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID != userID || (status != "" && g.Status != status) {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateGoal(_ context.Context, g *core.Goal) error {
	if err := checkID(g.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[g.ID]
	if !ok || existing.UserID != g.UserID {
		return storage.ErrNotFound
	}
	s.goals[g.ID] = *g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

// Notifications

func (s *Store) CreateNotification(_ context.Context, n *core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = newID()
	s.notifications[n.ID] = *n
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	// ObjectIDs are time-ordered, so id order is insertion order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id string) (*core.Notification, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, storage.ErrNotFound
	}
	n.IsRead = true
	s.notifications[id] = n
	return &n, nil
}
