package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Store) CreateBudget(ctx context.Context, b *core.Budget) error {
	doc, err := budgetFromCore(b)
	if err != nil {
		return err
	}
	res, err := s.budgets.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert budget: %w", mapError(err))
	}
	b.ID = res.InsertedID.(bson.ObjectID).Hex()
	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (*core.Budget, error) {
	filter, err := ownerFilter(userID, id)
	if err != nil {
		return nil, err
	}
	var doc budgetDoc
	if err := s.budgets.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find budget %s: %w", id, mapError(err))
	}
	b := doc.toCore()
	return &b, nil
}

func (s *Store) FindBudget(ctx context.Context, userID string, category core.Category, month core.Month) (*core.Budget, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"userId": uid, "category": string(category), "month": string(month)}
	var doc budgetDoc
	if err := s.budgets.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find %s budget for %s: %w", category, month, mapError(err))
	}
	b := doc.toCore()
	return &b, nil
}

func (s *Store) ListBudgets(ctx context.Context, f storage.BudgetFilter) ([]core.Budget, error) {
	filter := bson.M{}
	if f.UserID != "" {
		uid, err := objectID(f.UserID)
		if err != nil {
			return nil, err
		}
		filter["userId"] = uid
	}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}
	if f.Month != "" {
		filter["month"] = string(f.Month)
	}

	opts := options.Find().SetSort(bson.D{{Key: "month", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.budgets.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", mapError(err))
	}
	var docs []budgetDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

// halfCent widens the debit floor so a stored remainder carrying binary
// error below a cent still covers a debit of the same cent amount.
const halfCent = 0.005

// budgetChangeQuery builds the filter and update pipeline for ch. The
// remainder is recomputed with $round so it always lands on whole cents.
// ok is false when ch changes nothing.
func budgetChangeQuery(owner bson.M, ch storage.BudgetChange) (filter bson.M, update bson.A, ok bool) {
	filter = bson.M{}
	for k, v := range owner {
		filter[k] = v
	}
	delta := core.RoundCents(ch.RemainingDelta)
	if delta < 0 {
		filter["remaining_amount"] = bson.M{"$gte": -delta - halfCent}
	}

	set := bson.M{}
	if ch.Category != nil {
		set["category"] = bson.M{"$literal": string(*ch.Category)}
	}
	if ch.Month != nil {
		set["month"] = bson.M{"$literal": string(*ch.Month)}
	}
	if ch.Amount != nil {
		set["amount"] = *ch.Amount
	}
	if !ch.UpdatedAt.IsZero() {
		set["updatedAt"] = ch.UpdatedAt
	}
	if delta != 0 {
		set["remaining_amount"] = bson.M{"$round": bson.A{
			bson.M{"$add": bson.A{"$remaining_amount", delta}}, 2,
		}}
	}
	if len(set) == 0 {
		return filter, nil, false
	}
	return filter, bson.A{bson.M{"$set": set}}, true
}

// ApplyBudgetChange performs the whole change as one FindOneAndUpdate. A
// debit adds remaining_amount >= debit to the filter, so concurrent debits
// can never take the balance below zero.
func (s *Store) ApplyBudgetChange(ctx context.Context, userID, id string, ch storage.BudgetChange) (*core.Budget, error) {
	owner, err := ownerFilter(userID, id)
	if err != nil {
		return nil, err
	}
	filter, update, ok := budgetChangeQuery(owner, ch)
	if !ok {
		return s.GetBudget(ctx, userID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc budgetDoc
	err = s.budgets.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Tell a missing budget apart from one that failed the floor.
		n, cerr := s.budgets.CountDocuments(ctx, owner)
		if cerr != nil {
			return nil, fmt.Errorf("count budget %s: %w", id, cerr)
		}
		if n == 0 {
			return nil, storage.ErrNotFound
		}
		return nil, storage.ErrInsufficientFunds
	}
	if err != nil {
		return nil, fmt.Errorf("update budget %s: %w", id, mapError(err))
	}
	b := doc.toCore()
	return &b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) (*core.Budget, error) {
	filter, err := ownerFilter(userID, id)
	if err != nil {
		return nil, err
	}
	var doc budgetDoc
	if err := s.budgets.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("delete budget %s: %w", id, mapError(err))
	}
	b := doc.toCore()
	return &b, nil
}
