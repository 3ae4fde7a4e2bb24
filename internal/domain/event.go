package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"gatherly/internal/patch"
)

// Event is an event document as stored in the events collection.
type Event struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name         string               `bson:"name" json:"name"`
	Description  string               `bson:"description,omitempty" json:"description,omitempty"`
	Location     string               `bson:"location,omitempty" json:"location,omitempty"`
	ImageURL     string               `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	StartTime    *time.Time           `bson:"startTime,omitempty" json:"startTime,omitempty"`
	Host         primitive.ObjectID   `bson:"host,omitempty" json:"host"`
	Participants []Participant        `bson:"participants" json:"participants"`
	FavoritesBy  []primitive.ObjectID `bson:"favoritesBy" json:"favoritesBy"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Validate enforces the schema rules the store layer expects to hold.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("event validation failed: name is required")
	}
	return nil
}

// Participant is one entry in an event's participant list.
type Participant struct {
	User   primitive.ObjectID `bson:"user" json:"user"`
	Status string             `bson:"status,omitempty" json:"status,omitempty"`
}

// EventFields is the client-settable portion of an Event. It deliberately
// carries no identifier: decoding a request body into EventFields drops any
// client-supplied _id, which keeps event identifiers immutable.
type EventFields struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Location     string               `json:"location"`
	ImageURL     string               `json:"imageUrl"`
	StartTime    *time.Time           `json:"startTime"`
	Host         primitive.ObjectID   `json:"host"`
	Participants []Participant        `json:"participants"`
	FavoritesBy  []primitive.ObjectID `json:"favoritesBy"`
}

// Validate mirrors Event.Validate for incoming payloads.
func (f *EventFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("event validation failed: name is required")
	}
	return nil
}

// UserRef is the populated projection of a referenced user. An unresolved
// reference keeps only the id.
type UserRef struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// ParticipantView is a participant entry in an API response.
type ParticipantView struct {
	User   UserRef `json:"user"`
	Status string  `json:"status,omitempty"`
}

// EventView is an Event shaped for API responses, with reference fields
// expanded into UserRef projections.
type EventView struct {
	ID           string            `json:"_id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Location     string            `json:"location,omitempty"`
	ImageURL     string            `json:"imageUrl,omitempty"`
	StartTime    *time.Time        `json:"startTime,omitempty"`
	Host         *UserRef          `json:"host,omitempty"`
	Participants []ParticipantView `json:"participants"`
	FavoritesBy  []string          `json:"favoritesBy"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	SearchByName(ctx context.Context, text string) ([]*Event, error)
	ListByHost(ctx context.Context, hostID primitive.ObjectID) ([]*Event, error)
	ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]*Event, error)
	ListByFavorite(ctx context.Context, userID primitive.ObjectID) ([]*Event, error)
	Upsert(ctx context.Context, id primitive.ObjectID, fields *EventFields, now time.Time) (*Event, error)
	Replace(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// EventService drives the event resource operations exposed over HTTP.
type EventService interface {
	ListEvents(ctx context.Context) ([]*EventView, error)
	GetEvent(ctx context.Context, id string) (*EventView, error)
	CreateEvent(ctx context.Context, fields *EventFields) (*Event, error)
	UpsertEvent(ctx context.Context, id string, fields *EventFields) (*Event, error)
	PatchEvent(ctx context.Context, id string, ops []patch.Op) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
	SearchEvents(ctx context.Context, text string) ([]*EventView, error)
	ListEventsByHost(ctx context.Context, userID string) ([]*EventView, error)
	ListEventsByParticipant(ctx context.Context, userID string) ([]*EventView, error)
	ListEventsByFavorite(ctx context.Context, userID string) ([]*EventView, error)
}
