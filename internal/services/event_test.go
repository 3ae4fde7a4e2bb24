package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"gatherly/internal/domain"
	"gatherly/internal/patch"
)

const testTimeout = 5 * time.Second

// fakeEventRepo implements domain.EventRepository for service tests.
type fakeEventRepo struct {
	events     map[primitive.ObjectID]*domain.Event
	listResult []*domain.Event
	err        error // when set, every call fails with it

	created          *domain.Event
	replaced         *domain.Event
	deletedID        primitive.ObjectID
	deleteCalled     bool
	lastSearchText   string
	lastFilterID     primitive.ObjectID
	lastUpsertID     primitive.ObjectID
	lastUpsertFields *domain.EventFields
	lastUpsertNow    time.Time
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	e.ID = primitive.NewObjectID()
	f.created = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.events[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeEventRepo) SearchByName(ctx context.Context, text string) ([]*domain.Event, error) {
	f.lastSearchText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeEventRepo) ListByHost(ctx context.Context, hostID primitive.ObjectID) ([]*domain.Event, error) {
	f.lastFilterID = hostID
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeEventRepo) ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]*domain.Event, error) {
	f.lastFilterID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeEventRepo) ListByFavorite(ctx context.Context, userID primitive.ObjectID) ([]*domain.Event, error) {
	f.lastFilterID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeEventRepo) Upsert(ctx context.Context, id primitive.ObjectID, fields *domain.EventFields, now time.Time) (*domain.Event, error) {
	f.lastUpsertID = id
	f.lastUpsertFields = fields
	f.lastUpsertNow = now
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: id, Name: fields.Name, UpdatedAt: now}, nil
}

func (f *fakeEventRepo) Replace(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.replaced = e
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.deleteCalled = true
	f.deletedID = id
	if f.err != nil {
		return f.err
	}
	return nil
}

// fakeUserRepo implements domain.UserRepository for service tests.
type fakeUserRepo struct {
	users   []*domain.User
	err     error
	lastIDs []primitive.ObjectID
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	found := make([]*domain.User, 0, len(ids))
	for _, u := range f.users {
		for _, id := range ids {
			if u.ID == id {
				found = append(found, u)
			}
		}
	}
	return found, nil
}

func rawValue(s string) json.RawMessage { return json.RawMessage(s) }

func TestEventService_ListEvents(t *testing.T) {
	host := primitive.NewObjectID()
	e1 := &domain.Event{ID: primitive.NewObjectID(), Name: "One", Host: host}
	e2 := &domain.Event{ID: primitive.NewObjectID(), Name: "Two", Host: host}
	e3 := &domain.Event{ID: primitive.NewObjectID(), Name: "Hostless"}

	eventRepo := &fakeEventRepo{listResult: []*domain.Event{e1, e2, e3}}
	userRepo := &fakeUserRepo{users: []*domain.User{{ID: host, Name: "Ada", ImageURL: "https://img/ada.png"}}}
	svc := NewEventService(eventRepo, userRepo, testTimeout)

	views, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)

	require.NotNil(t, views[0].Host)
	assert.Equal(t, host.Hex(), views[0].Host.ID)
	assert.Equal(t, "Ada", views[0].Host.Name)
	assert.Equal(t, "https://img/ada.png", views[0].Host.ImageURL)
	assert.Equal(t, views[0].Host, views[1].Host)
	assert.Nil(t, views[2].Host, "hostless event stays unexpanded")

	assert.Len(t, userRepo.lastIDs, 1, "shared host must be fetched once")
}

func TestEventService_ListEvents_UnresolvedHostKeepsID(t *testing.T) {
	host := primitive.NewObjectID()
	eventRepo := &fakeEventRepo{listResult: []*domain.Event{{ID: primitive.NewObjectID(), Name: "Orphan", Host: host}}}
	svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

	views, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Host)
	assert.Equal(t, host.Hex(), views[0].Host.ID)
	assert.Empty(t, views[0].Host.Name)
}

func TestEventService_ListEvents_RepoError(t *testing.T) {
	eventRepo := &fakeEventRepo{err: assert.AnError}
	svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

	_, err := svc.ListEvents(context.Background())
	require.ErrorIs(t, err, assert.AnError)
}

func TestEventService_GetEvent(t *testing.T) {
	host := primitive.NewObjectID()
	known := primitive.NewObjectID()
	unknown := primitive.NewObjectID()
	event := &domain.Event{
		ID:   primitive.NewObjectID(),
		Name: "Launch Party",
		Host: host,
		Participants: []domain.Participant{
			{User: known, Status: "going"},
			{User: unknown},
		},
	}
	eventRepo := &fakeEventRepo{events: map[primitive.ObjectID]*domain.Event{event.ID: event}}
	userRepo := &fakeUserRepo{users: []*domain.User{
		{ID: host, Name: "Ada"},
		{ID: known, Name: "Grace", ImageURL: "https://img/grace.png"},
	}}
	svc := NewEventService(eventRepo, userRepo, testTimeout)

	view, err := svc.GetEvent(context.Background(), event.ID.Hex())
	require.NoError(t, err)

	require.NotNil(t, view.Host)
	assert.Equal(t, "Ada", view.Host.Name)
	require.Len(t, view.Participants, 2)
	assert.Equal(t, "Grace", view.Participants[0].User.Name)
	assert.Equal(t, "going", view.Participants[0].Status)
	assert.Equal(t, unknown.Hex(), view.Participants[1].User.ID)
	assert.Empty(t, view.Participants[1].User.Name, "unresolved participant stays unexpanded")
}

func TestEventService_GetEvent_NotFound(t *testing.T) {
	svc := NewEventService(&fakeEventRepo{}, &fakeUserRepo{}, testTimeout)

	_, err := svc.GetEvent(context.Background(), primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_GetEvent_MalformedID(t *testing.T) {
	svc := NewEventService(&fakeEventRepo{}, &fakeUserRepo{}, testTimeout)

	_, err := svc.GetEvent(context.Background(), "not-an-object-id")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound, "malformed ids are operation failures, not 404s")
}

func TestEventService_CreateEvent(t *testing.T) {
	host := primitive.NewObjectID()
	eventRepo := &fakeEventRepo{}
	svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

	event, err := svc.CreateEvent(context.Background(), &domain.EventFields{Name: "Launch Party", Host: host})
	require.NoError(t, err)

	assert.False(t, event.ID.IsZero(), "create must assign an id")
	assert.Equal(t, "Launch Party", event.Name)
	assert.Equal(t, host, event.Host)
	assert.False(t, event.CreatedAt.IsZero())
	assert.Equal(t, event.CreatedAt, event.UpdatedAt)
	assert.NotNil(t, event.Participants, "nil participants normalized to empty")
	assert.NotNil(t, event.FavoritesBy, "nil favoritesBy normalized to empty")
	assert.Same(t, event, eventRepo.created)
}

func TestEventService_CreateEvent_ValidationError(t *testing.T) {
	eventRepo := &fakeEventRepo{}
	svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

	_, err := svc.CreateEvent(context.Background(), &domain.EventFields{Name: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Nil(t, eventRepo.created, "nothing stored on validation failure")
}

func TestEventService_UpsertEvent(t *testing.T) {
	id := primitive.NewObjectID()
	eventRepo := &fakeEventRepo{}
	svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

	event, err := svc.UpsertEvent(context.Background(), id.Hex(), &domain.EventFields{Name: "Replaced"})
	require.NoError(t, err)

	assert.Equal(t, id, event.ID, "route id wins regardless of body")
	assert.Equal(t, id, eventRepo.lastUpsertID)
	require.NotNil(t, eventRepo.lastUpsertFields)
	assert.Equal(t, "Replaced", eventRepo.lastUpsertFields.Name)
	assert.NotNil(t, eventRepo.lastUpsertFields.Participants)
	assert.NotNil(t, eventRepo.lastUpsertFields.FavoritesBy)
	assert.False(t, eventRepo.lastUpsertNow.IsZero())
}

func TestEventService_UpsertEvent_MalformedID(t *testing.T) {
	svc := NewEventService(&fakeEventRepo{}, &fakeUserRepo{}, testTimeout)

	_, err := svc.UpsertEvent(context.Background(), "nope", &domain.EventFields{Name: "x"})
	require.Error(t, err)
}

func TestEventService_PatchEvent(t *testing.T) {
	id := primitive.NewObjectID()
	stored := &domain.Event{
		ID:           id,
		Name:         "Launch Party",
		Location:     "Berlin",
		Participants: []domain.Participant{},
		FavoritesBy:  []primitive.ObjectID{},
		CreatedAt:    time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond),
	}

	t.Run("replace name", func(t *testing.T) {
		eventRepo := &fakeEventRepo{events: map[primitive.ObjectID]*domain.Event{id: stored}}
		svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

		ops := []patch.Op{{Op: "replace", Path: "/name", Value: rawValue(`"Renamed"`)}}
		event, err := svc.PatchEvent(context.Background(), id.Hex(), ops)
		require.NoError(t, err)

		assert.Equal(t, id, event.ID)
		assert.Equal(t, "Renamed", event.Name)
		assert.Equal(t, "Berlin", event.Location, "untouched fields survive")
		assert.True(t, event.UpdatedAt.After(stored.CreatedAt))
		require.NotNil(t, eventRepo.replaced)
		assert.Equal(t, "Renamed", eventRepo.replaced.Name)
	})

	t.Run("id operations are dropped", func(t *testing.T) {
		eventRepo := &fakeEventRepo{events: map[primitive.ObjectID]*domain.Event{id: stored}}
		svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

		ops := []patch.Op{
			{Op: "replace", Path: "/_id", Value: rawValue(`"` + primitive.NewObjectID().Hex() + `"`)},
			{Op: "replace", Path: "/name", Value: rawValue(`"Renamed"`)},
		}
		event, err := svc.PatchEvent(context.Background(), id.Hex(), ops)
		require.NoError(t, err)
		assert.Equal(t, id, event.ID, "identifier is immutable")
		assert.Equal(t, "Renamed", event.Name)
	})

	t.Run("invalid path aborts without persisting", func(t *testing.T) {
		eventRepo := &fakeEventRepo{events: map[primitive.ObjectID]*domain.Event{id: stored}}
		svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

		ops := []patch.Op{{Op: "replace", Path: "/missing", Value: rawValue(`1`)}}
		_, err := svc.PatchEvent(context.Background(), id.Hex(), ops)
		require.Error(t, err)
		assert.Nil(t, eventRepo.replaced, "nothing persisted on patch failure")
	})

	t.Run("schema violation aborts without persisting", func(t *testing.T) {
		eventRepo := &fakeEventRepo{events: map[primitive.ObjectID]*domain.Event{id: stored}}
		svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

		ops := []patch.Op{{Op: "replace", Path: "/name", Value: rawValue(`""`)}}
		_, err := svc.PatchEvent(context.Background(), id.Hex(), ops)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
		assert.Nil(t, eventRepo.replaced)
	})

	t.Run("not found", func(t *testing.T) {
		eventRepo := &fakeEventRepo{}
		svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

		ops := []patch.Op{{Op: "replace", Path: "/name", Value: rawValue(`"x"`)}}
		_, err := svc.PatchEvent(context.Background(), primitive.NewObjectID().Hex(), ops)
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, eventRepo.replaced)
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	id := primitive.NewObjectID()
	eventRepo := &fakeEventRepo{events: map[primitive.ObjectID]*domain.Event{id: {ID: id, Name: "x"}}}
	svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

	require.NoError(t, svc.DeleteEvent(context.Background(), id.Hex()))
	assert.True(t, eventRepo.deleteCalled)
	assert.Equal(t, id, eventRepo.deletedID)
}

func TestEventService_DeleteEvent_NotFound(t *testing.T) {
	eventRepo := &fakeEventRepo{}
	svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

	err := svc.DeleteEvent(context.Background(), primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, eventRepo.deleteCalled, "no delete issued for a missing event")
}

func TestEventService_SearchEvents(t *testing.T) {
	host := primitive.NewObjectID()
	eventRepo := &fakeEventRepo{listResult: []*domain.Event{{ID: primitive.NewObjectID(), Name: "Launch Party", Host: host}}}
	userRepo := &fakeUserRepo{users: []*domain.User{{ID: host, Name: "Ada"}}}
	svc := NewEventService(eventRepo, userRepo, testTimeout)

	views, err := svc.SearchEvents(context.Background(), "launch")
	require.NoError(t, err)
	assert.Equal(t, "launch", eventRepo.lastSearchText)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Host)
	assert.Equal(t, "Ada", views[0].Host.Name)
}

func TestEventService_FilteredLists(t *testing.T) {
	userID := primitive.NewObjectID()

	tests := []struct {
		name string
		call func(svc domain.EventService, id string) ([]*domain.EventView, error)
	}{
		{"hosting", func(svc domain.EventService, id string) ([]*domain.EventView, error) {
			return svc.ListEventsByHost(context.Background(), id)
		}},
		{"going", func(svc domain.EventService, id string) ([]*domain.EventView, error) {
			return svc.ListEventsByParticipant(context.Background(), id)
		}},
		{"favorites", func(svc domain.EventService, id string) ([]*domain.EventView, error) {
			return svc.ListEventsByFavorite(context.Background(), id)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventRepo := &fakeEventRepo{listResult: []*domain.Event{{ID: primitive.NewObjectID(), Name: "x"}}}
			svc := NewEventService(eventRepo, &fakeUserRepo{}, testTimeout)

			views, err := tt.call(svc, userID.Hex())
			require.NoError(t, err)
			assert.Equal(t, userID, eventRepo.lastFilterID)
			assert.Len(t, views, 1)
		})
		t.Run(tt.name+" malformed id", func(t *testing.T) {
			svc := NewEventService(&fakeEventRepo{}, &fakeUserRepo{}, testTimeout)
			_, err := tt.call(svc, "not-hex")
			require.Error(t, err)
		})
	}
}
