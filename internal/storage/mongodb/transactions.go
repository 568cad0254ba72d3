package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Store) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	doc, err := transactionFromCore(t)
	if err != nil {
		return err
	}
	res, err := s.transactions.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", mapError(err))
	}
	t.ID = res.InsertedID.(bson.ObjectID).Hex()
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (*core.Transaction, error) {
	filter, err := ownerFilter(userID, id)
	if err != nil {
		return nil, err
	}
	var doc transactionDoc
	if err := s.transactions.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", id, mapError(err))
	}
	t := doc.toCore()
	return &t, nil
}

func transactionQuery(f storage.TransactionFilter) (bson.M, error) {
	filter := bson.M{}
	if f.UserID != "" {
		uid, err := objectID(f.UserID)
		if err != nil {
			return nil, err
		}
		filter["userId"] = uid
	}
	if f.Type != "" {
		filter["transactionType"] = string(f.Type)
	}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		date := bson.M{}
		if !f.From.IsZero() {
			date["$gte"] = f.From
		}
		if !f.To.IsZero() {
			date["$lt"] = f.To
		}
		filter["date"] = date
	}
	if f.Recurring {
		filter["isRecurring"] = true
	}
	return filter, nil
}

func (s *Store) ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	filter, err := transactionQuery(f)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.transactions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", mapError(err))
	}
	var docs []transactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) CountTransactions(ctx context.Context, userID string) (int64, error) {
	uid, err := objectID(userID)
	if err != nil {
		return 0, err
	}
	n, err := s.transactions.CountDocuments(ctx, bson.M{"userId": uid})
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", mapError(err))
	}
	return n, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	filter, err := ownerFilter(t.UserID, t.ID)
	if err != nil {
		return err
	}
	doc, err := transactionFromCore(t)
	if err != nil {
		return err
	}
	doc.ID = filter["_id"].(bson.ObjectID)
	res, err := s.transactions.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("replace transaction %s: %w", t.ID, mapError(err))
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) (*core.Transaction, error) {
	filter, err := ownerFilter(userID, id)
	if err != nil {
		return nil, err
	}
	var doc transactionDoc
	if err := s.transactions.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("delete transaction %s: %w", id, mapError(err))
	}
	t := doc.toCore()
	return &t, nil
}

// MonthlyTotals groups a user's transactions by calendar month and type.
func (s *Store) MonthlyTotals(ctx context.Context, userID string) ([]core.MonthlyTotal, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": uid}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$date"},
				"month": bson.M{"$month": "$date"},
				"type":  "$transactionType",
			},
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_id.year", Value: 1},
			{Key: "_id.month", Value: 1},
			{Key: "_id.type", Value: 1},
		}}},
	}
	cursor, err := s.transactions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate monthly totals: %w", mapError(err))
	}
	var docs []monthlyTotalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode monthly totals: %w", err)
	}
	out := make([]core.MonthlyTotal, 0, len(docs))
	for _, d := range docs {
		out = append(out, core.MonthlyTotal{
			Year:  d.Key.Year,
			Month: d.Key.Month,
			Type:  core.TransactionType(d.Key.Type),
			Total: d.Total,
			Count: d.Count,
		})
	}
	return out, nil
}
