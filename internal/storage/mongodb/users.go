package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	res, err := s.users.InsertOne(ctx, userFromCore(u))
	if err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}
	u.ID = res.InsertedID.(bson.ObjectID).Hex()
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*core.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, mapError(err))
	}
	u := doc.toCore()
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find user by email: %w", mapError(err))
	}
	u := doc.toCore()
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", mapError(err))
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]core.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	oid, err := objectID(u.ID)
	if err != nil {
		return err
	}
	doc := userFromCore(u)
	doc.ID = oid
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("replace user %s: %w", u.ID, mapError(err))
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, mapError(err))
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
