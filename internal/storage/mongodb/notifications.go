package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"fintrack/internal/core"
)

func (s *Store) CreateNotification(ctx context.Context, n *core.Notification) error {
	uid, err := objectID(n.UserID)
	if err != nil {
		return err
	}
	doc := notificationDoc{
		UserID:    uid,
		Section:   n.Section,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	res, err := s.notifications.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert notification: %w", mapError(err))
	}
	n.ID = res.InsertedID.(bson.ObjectID).Hex()
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"userId": uid}
	if unreadOnly {
		filter["isRead"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.notifications.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", mapError(err))
	}
	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	out := make([]core.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) (*core.Notification, error) {
	filter, err := ownerFilter(userID, id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc notificationDoc
	err = s.notifications.FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"isRead": true}}, opts).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("mark notification %s read: %w", id, mapError(err))
	}
	n := doc.toCore()
	return &n, nil
}
