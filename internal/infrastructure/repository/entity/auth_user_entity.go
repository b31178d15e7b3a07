package entity

import (
	"time"

	"rcs360-sync-layer/internal/domain"
)

// MongoAuthUserDoc represents an auth identity in MongoDB.
type MongoAuthUserDoc struct {
	UID          string            `bson:"_id"`
	Email        string            `bson:"email"`
	CustomClaims map[string]string `bson:"customClaims"`
	CreatedAt    time.Time         `bson:"createdAt"`
	UpdatedAt    time.Time         `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoAuthUserDoc) ToDomain() *domain.AuthUser {
	return &domain.AuthUser{
		UID:          d.UID,
		Email:        d.Email,
		CustomClaims: d.CustomClaims,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoAuthUserDocFromDomain converts a domain entity to a MongoDB document.
func MongoAuthUserDocFromDomain(user *domain.AuthUser) *MongoAuthUserDoc {
	return &MongoAuthUserDoc{
		UID:          user.UID,
		Email:        user.Email,
		CustomClaims: user.CustomClaims,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}
