package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rcs360-sync-layer/internal/domain"
	apperrors "rcs360-sync-layer/internal/errors"
	"rcs360-sync-layer/internal/infrastructure/repository/entity"
	"rcs360-sync-layer/internal/ports"
)

// MongoAuthStore implements AuthStore using a MongoDB collection keyed by uid.
type MongoAuthStore struct {
	usersCollection *mongo.Collection
}

// NewMongoAuthStore creates an auth store over the auth_users collection.
func NewMongoAuthStore(db *mongo.Database) ports.AuthStore {
	return &MongoAuthStore{
		usersCollection: db.Collection("auth_users"),
	}
}

// GetUser retrieves an identity by uid. A missing identity is reported with a
// not-found code so callers can treat it as the creation trigger.
func (s *MongoAuthStore) GetUser(ctx context.Context, uid string) (*domain.AuthUser, error) {
	var doc entity.MongoAuthUserDoc
	err := s.usersCollection.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.New(apperrors.CodeNotFound, "auth user %s not found", uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auth user: %w", err)
	}

	return doc.ToDomain(), nil
}

// CreateUser inserts a new identity.
func (s *MongoAuthStore) CreateUser(ctx context.Context, user *domain.AuthUser) error {
	doc := entity.MongoAuthUserDocFromDomain(user)
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if _, err := s.usersCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create auth user: %w", err)
	}

	return nil
}

// SetCustomClaims replaces the claim map for uid.
func (s *MongoAuthStore) SetCustomClaims(ctx context.Context, uid string, claims map[string]string) error {
	update := bson.M{
		"$set": bson.M{
			"customClaims": claims,
			"updatedAt":    time.Now(),
		},
	}

	result, err := s.usersCollection.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return fmt.Errorf("failed to set custom claims: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.New(apperrors.CodeNotFound, "auth user %s not found", uid)
	}

	return nil
}
