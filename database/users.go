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

// UserStore persists accounts and their presence fields.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection("users")}
}

// Create inserts a new user and returns it with its assigned id.
func (s *UserStore) Create(ctx context.Context, user models.User) (*models.User, error) {
	user.CreatedAt = time.Now().UTC()
	result, err := s.col.InsertOne(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: insert user: %v", chat.ErrStoreUnavailable, err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return &user, nil
}

// FindByID resolves a user by hex id, returning chat.ErrNotFound when the
// id is malformed or unknown.
func (s *UserStore) FindByID(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", userID, chat.ErrNotFound)
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail resolves a user by email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByUsername resolves a user by username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user: %w", chat.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", chat.ErrStoreUnavailable, err)
	}
	return &user, nil
}

// Search returns up to limit users whose username or email contains the
// query, case-insensitively. An empty query lists users unfiltered.
func (s *UserStore) Search(ctx context.Context, query string, limit int64) ([]models.User, error) {
	filter := bson.M{}
	if query != "" {
		regex := primitive.Regex{Pattern: query, Options: "i"}
		filter = bson.M{"$or": bson.A{
			bson.M{"username": regex},
			bson.M{"email": regex},
		}}
	}
	if limit <= 0 {
		limit = 20
	}

	cursor, err := s.col.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: search users: %v", chat.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("%w: decode users: %v", chat.ErrStoreUnavailable, err)
	}
	return users, nil
}

// SetOnlineStatus writes the presence fields on the durable record. A zero
// lastSeen leaves the existing timestamp untouched (used when going online).
func (s *UserStore) SetOnlineStatus(ctx context.Context, userID string, online bool, lastSeen time.Time) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("user %q: %w", userID, chat.ErrNotFound)
	}

	set := bson.M{"isOnline": online}
	if !lastSeen.IsZero() {
		set["lastSeen"] = lastSeen.UTC()
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("%w: update presence: %v", chat.ErrStoreUnavailable, err)
	}
	return nil
}
