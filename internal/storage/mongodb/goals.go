package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Store) CreateGoal(ctx context.Context, g *core.Goal) error {
	doc, err := goalFromCore(g)
	if err != nil {
		return err
	}
	res, err := s.goals.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert goal: %w", mapError(err))
	}
	g.ID = res.InsertedID.(bson.ObjectID).Hex()
	return nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (*core.Goal, error) {
	filter, err := ownerFilter(userID, id)
	if err != nil {
		return nil, err
	}
	var doc goalDoc
	if err := s.goals.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find goal %s: %w", id, mapError(err))
	}
	g := doc.toCore()
	return &g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"userId": uid}
	if status != "" {
		filter["status"] = string(status)
	}
	cursor, err := s.goals.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", mapError(err))
	}
	var docs []goalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode goals: %w", err)
	}
	out := make([]core.Goal, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g *core.Goal) error {
	filter, err := ownerFilter(g.UserID, g.ID)
	if err != nil {
		return err
	}
	doc, err := goalFromCore(g)
	if err != nil {
		return err
	}
	doc.ID = filter["_id"].(bson.ObjectID)
	res, err := s.goals.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("replace goal %s: %w", g.ID, mapError(err))
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	filter, err := ownerFilter(userID, id)
	if err != nil {
		return err
	}
	res, err := s.goals.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, mapError(err))
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
