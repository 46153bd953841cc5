package database

import (
	"context"
	"fmt"
	"time"

	"chatbug/backend/chat"
	"chatbug/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageStore is the append-only durable message log.
type MessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{col: db.Collection("messages")}
}

// Append persists a message, assigning its identifier and the server-side
// timestamp. Whatever timestamp or id the caller set is discarded.
func (s *MessageStore) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	msg.ID = primitive.NilObjectID
	msg.CreatedAt = time.Now().UTC()

	result, err := s.col.InsertOne(ctx, msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: insert message: %v", chat.ErrStoreUnavailable, err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg, nil
}

// Page returns up to limit messages of a room older than before (all of
// them when before is zero), oldest-first for rendering. hasMore is true
// when the page came back full, meaning an older page may exist.
func (s *MessageStore) Page(ctx context.Context, roomID string, before time.Time, limit int64) ([]models.Message, bool, error) {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, false, fmt.Errorf("room %q: %w", roomID, chat.ErrNotFound)
	}
	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{"room": oid}
	if !before.IsZero() {
		filter["createdAt"] = bson.M{"$lt": before}
	}
	// Newest-first to take the most recent window, ties broken by _id so
	// paging is stable within one timestamp.
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, fmt.Errorf("%w: find messages: %v", chat.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, false, fmt.Errorf("%w: decode messages: %v", chat.ErrStoreUnavailable, err)
	}

	hasMore := int64(len(messages)) == limit
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, hasMore, nil
}
