package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gatherly/internal/domain"
)

const usersCollection = "users"

type userRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) domain.UserRepository {
	return &userRepository{
		col: db.Collection(usersCollection),
	}
}

// FindByIDs batch-fetches users by id, projected down to the fields used
// for reference expansion. Missing ids are simply absent from the result.
func (r *userRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"name": 1, "imageUrl": 1})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(ids))
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
