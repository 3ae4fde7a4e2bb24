package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gatherly/internal/domain"
)

const eventsCollection = "events"

type eventRepository struct {
	col *mongo.Collection
}

func NewEventRepository(db *mongo.Database) domain.EventRepository {
	return &eventRepository{
		col: db.Collection(eventsCollection),
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	res, err := r.col.InsertOne(ctx, e)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = id
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Event, error) {
	e := &domain.Event{}
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	return r.find(ctx, bson.M{})
}

// SearchByName matches name as a case-insensitive substring. The text is
// quoted so it is a literal match, not a client-supplied pattern.
func (r *eventRepository) SearchByName(ctx context.Context, text string) ([]*domain.Event, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}}
	return r.find(ctx, filter)
}

func (r *eventRepository) ListByHost(ctx context.Context, hostID primitive.ObjectID) ([]*domain.Event, error) {
	return r.find(ctx, bson.M{"host": hostID})
}

func (r *eventRepository) ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]*domain.Event, error) {
	return r.find(ctx, bson.M{"participants.user": userID})
}

func (r *eventRepository) ListByFavorite(ctx context.Context, userID primitive.ObjectID) ([]*domain.Event, error) {
	return r.find(ctx, bson.M{"favoritesBy": userID})
}

func (r *eventRepository) find(ctx context.Context, filter bson.M) ([]*domain.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	events := make([]*domain.Event, 0)
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Upsert replaces the client-settable fields of the document with id, or
// inserts it with createdAt defaulted when absent. Returns the document as
// it stands after the write.
func (r *eventRepository) Upsert(ctx context.Context, id primitive.ObjectID, f *domain.EventFields, now time.Time) (*domain.Event, error) {
	update := bson.M{
		"$set": bson.M{
			"name":         f.Name,
			"description":  f.Description,
			"location":     f.Location,
			"imageUrl":     f.ImageURL,
			"startTime":    f.StartTime,
			"host":         f.Host,
			"participants": f.Participants,
			"favoritesBy":  f.FavoritesBy,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	e := &domain.Event{}
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Replace(ctx context.Context, e *domain.Event) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
