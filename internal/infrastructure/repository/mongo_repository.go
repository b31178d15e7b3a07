package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rcs360-sync-layer/internal/domain"
	"rcs360-sync-layer/internal/ports"
)

// MongoRepository implements ProfileRepository using MongoDB.
type MongoRepository struct {
	shopsCollection    *mongo.Collection
	webhooksCollection *mongo.Collection
}

// NewMongoRepository creates a new MongoDB repository.
func NewMongoRepository(db *mongo.Database) ports.ProfileRepository {
	return &MongoRepository{
		shopsCollection:    db.Collection("shops"),
		webhooksCollection: db.Collection("webhook_events"),
	}
}

// SaveProfile replaces the whole document keyed by shop domain. Fields absent
// from the payload are lost; that is the legacy contract callers rely on.
func (r *MongoRepository) SaveProfile(ctx context.Context, profile *domain.ShopProfile) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"shopDomain": profile.ShopDomain}

	_, err := r.shopsCollection.ReplaceOne(ctx, filter, profile, opts)
	if err != nil {
		return fmt.Errorf("failed to save shop profile: %w", err)
	}

	return nil
}

// MergeProfile upserts the sync fields only, keeping installedAt from the
// first write and leaving fields owned by other writers untouched.
func (r *MongoRepository) MergeProfile(ctx context.Context, profile *domain.ShopProfile) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shopDomain": profile.ShopDomain}
	update := bson.M{
		"$set": bson.M{
			"shopDomain":           profile.ShopDomain,
			"shopName":             profile.ShopName,
			"host":                 profile.Host,
			"customerCount":        profile.CustomerCount,
			"productCount":         profile.ProductCount,
			"collectionCount":      profile.CollectionCount,
			"abandonedCartCount":   profile.AbandonedCartCount,
			"source":               profile.Source,
			"lastSyncedAt":         profile.LastSyncedAt,
			"lastDatabaseUpdateAt": profile.LastDBUpdateAt,
			"lastShopifyResponse":  profile.LastResponse,
		},
		"$setOnInsert": bson.M{
			"installedAt":    profile.InstalledAt,
			"features":       profile.Features,
			"planName":       profile.PlanName,
			"exportHistory":  profile.ExportHistory,
			"scheduledTasks": profile.ScheduledTasks,
			"shopOwnerEmail": profile.ShopOwnerEmail,
			"dataHash":       profile.DataHash,
		},
	}

	_, err := r.shopsCollection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to merge shop profile: %w", err)
	}

	return nil
}

// GetProfile retrieves a profile by shop domain.
func (r *MongoRepository) GetProfile(ctx context.Context, shopDomain string) (*domain.ShopProfile, error) {
	var profile domain.ShopProfile
	filter := bson.M{"shopDomain": shopDomain}

	err := r.shopsCollection.FindOne(ctx, filter).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop profile: %w", err)
	}

	return &profile, nil
}

// LogWebhook records a processed webhook event.
func (r *MongoRepository) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	doc := bson.M{
		"topic":     event.Topic,
		"shop":      event.Shop,
		"payload":   event.Payload,
		"verified":  event.Verified,
		"createdAt": event.CreatedAt,
	}
	if event.CreatedAt.IsZero() {
		doc["createdAt"] = time.Now()
	}

	_, err := r.webhooksCollection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}

	return nil
}
