// Package mongodb implements the storage ports on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"fintrack/internal/storage"
)

const (
	usersCollection         = "users"
	budgetsCollection       = "budgets"
	transactionsCollection  = "transactions"
	goalsCollection         = "goals"
	notificationsCollection = "notifications"

	// documentValidationFailure is the server code for $jsonSchema rejections.
	documentValidationFailure = 121
)

type Store struct {
	client        *mongo.Client
	users         *mongo.Collection
	budgets       *mongo.Collection
	transactions  *mongo.Collection
	goals         *mongo.Collection
	notifications *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// Connect dials the deployment at uri and verifies it answers a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "database", database)
	return New(client, database), nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:        client,
		users:         db.Collection(usersCollection),
		budgets:       db.Collection(budgetsCollection),
		transactions:  db.Collection(transactionsCollection),
		goals:         db.Collection(goalsCollection),
		notifications: db.Collection(notificationsCollection),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", storage.ErrInvalidID, id)
	}
	return oid, nil
}

// ownerFilter scopes a lookup to one document owned by userID.
func ownerFilter(userID, id string) (bson.M, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid, "userId": uid}, nil
}

// mapError translates driver errors into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", storage.ErrDuplicate, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(documentValidationFailure) {
		return fmt.Errorf("%w: %v", storage.ErrInvalidData, err)
	}
	return err
}
