package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a user document from the users collection. This service only
// reads users, and only to expand references; the fields here are the
// projection it asks for.
type User struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	ImageURL string             `bson:"imageUrl" json:"imageUrl"`
}

// UserRepository defines the interface for user lookups.
type UserRepository interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*User, error)
}
