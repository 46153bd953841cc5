package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatbug/backend/chat"
	"chatbug/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomStore is the durable room directory. It is the sole writer to room
// membership and activity fields; concurrent writers to the same room are
// serialized through single-document atomic updates.
type RoomStore struct {
	col *mongo.Collection
}

func NewRoomStore(db *mongo.Database) *RoomStore {
	return &RoomStore{col: db.Collection("rooms")}
}

// CreateRoom inserts a room with the creator as its sole admin member.
func (s *RoomStore) CreateRoom(ctx context.Context, name, description string, roomType models.RoomType, creatorID primitive.ObjectID) (*models.Room, error) {
	if roomType == "" {
		roomType = models.RoomPublic
	}
	now := time.Now().UTC()
	room := models.Room{
		Name:        name,
		Description: description,
		Type:        roomType,
		CreatorID:   creatorID,
		Members: []models.RoomMember{
			{UserID: creatorID, Role: models.RoleAdmin},
		},
		LastActivity: now,
		CreatedAt:    now,
	}

	result, err := s.col.InsertOne(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("%w: insert room: %v", chat.ErrStoreUnavailable, err)
	}
	room.ID = result.InsertedID.(primitive.ObjectID)
	return &room, nil
}

// RoomByID fetches one room, returning chat.ErrNotFound for unknown or
// malformed ids.
func (s *RoomStore) RoomByID(ctx context.Context, roomID string) (*models.Room, error) {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, fmt.Errorf("room %q: %w", roomID, chat.ErrNotFound)
	}

	var room models.Room
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("room %s: %w", roomID, chat.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find room: %v", chat.ErrStoreUnavailable, err)
	}
	return &room, nil
}

// JoinRoom appends the user as a member with the member role. The filter
// excludes rooms that already contain the user, so two simultaneous joins
// for the same room and user cannot both succeed: the loser observes
// chat.ErrAlreadyMember.
func (s *RoomStore) JoinRoom(ctx context.Context, roomID, userID string) (*models.Room, error) {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, fmt.Errorf("room %q: %w", roomID, chat.ErrNotFound)
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", userID, chat.ErrNotFound)
	}

	filter := bson.M{"_id": oid, "members.user": bson.M{"$ne": uid}}
	update := bson.M{"$push": bson.M{"members": models.RoomMember{UserID: uid, Role: models.RoleMember}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room models.Room
	err = s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the room does not exist or the user is already a member;
		// a second read tells them apart.
		if _, lookupErr := s.RoomByID(ctx, roomID); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, fmt.Errorf("user %s in room %s: %w", userID, roomID, chat.ErrAlreadyMember)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: join room: %v", chat.ErrStoreUnavailable, err)
	}
	return &room, nil
}

// IsMember reports durable membership.
func (s *RoomStore) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := s.RoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}
	return room.HasMember(uid), nil
}

// IsAccessible reports whether the user may read and post: member or public.
func (s *RoomStore) IsAccessible(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := s.RoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return room.Type == models.RoomPublic, nil
	}
	return room.AccessibleBy(uid), nil
}

// TouchActivity moves the room's last-activity timestamp.
func (s *RoomStore) TouchActivity(ctx context.Context, roomID string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return fmt.Errorf("room %q: %w", roomID, chat.ErrNotFound)
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"lastActivity": at}})
	if err != nil {
		return fmt.Errorf("%w: touch activity: %v", chat.ErrStoreUnavailable, err)
	}
	return nil
}

// ListAccessible returns all public rooms plus the user's member rooms,
// most recently active first.
func (s *RoomStore) ListAccessible(ctx context.Context, userID string) ([]models.Room, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", userID, chat.ErrNotFound)
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"type": models.RoomPublic},
		bson.M{"members.user": uid},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "lastActivity", Value: -1}})

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list rooms: %v", chat.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var rooms []models.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("%w: decode rooms: %v", chat.ErrStoreUnavailable, err)
	}
	return rooms, nil
}

// MemberRoomIDs lists the ids of rooms the user is a durable member of,
// used to rebuild subscriptions when a connection comes up.
func (s *RoomStore) MemberRoomIDs(ctx context.Context, userID string) ([]string, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", userID, chat.ErrNotFound)
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.col.Find(ctx, bson.M{"members.user": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find memberships: %v", chat.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode memberships: %v", chat.ErrStoreUnavailable, err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}
