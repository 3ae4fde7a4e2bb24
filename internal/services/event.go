package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"gatherly/internal/domain"
	"gatherly/internal/patch"
)

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, userRepo domain.UserRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		contextTimeout: timeout,
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return oid, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.populateHosts(ctx, events)
}

// GetEvent returns one event with both the host and every participant's
// user expanded. The other list operations expand the host only.
func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	e, err := s.eventRepo.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(e.Participants)+1)
	if !e.Host.IsZero() {
		ids = append(ids, e.Host)
	}
	for _, p := range e.Participants {
		ids = append(ids, p.User)
	}
	refs, err := s.userRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return newEventView(e, refs, true), nil
}

func (s *eventService) CreateEvent(ctx context.Context, f *domain.EventFields) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := f.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	e := &domain.Event{
		Name:         f.Name,
		Description:  f.Description,
		Location:     f.Location,
		ImageURL:     f.ImageURL,
		StartTime:    f.StartTime,
		Host:         f.Host,
		Participants: f.Participants,
		FavoritesBy:  f.FavoritesBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if e.Participants == nil {
		e.Participants = []domain.Participant{}
	}
	if e.FavoritesBy == nil {
		e.FavoritesBy = []primitive.ObjectID{}
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpsertEvent replaces the fields of the event with the given id, creating
// it when absent. The identifier comes from the route alone; EventFields
// cannot carry one.
func (s *eventService) UpsertEvent(ctx context.Context, id string, f *domain.EventFields) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Participants == nil {
		f.Participants = []domain.Participant{}
	}
	if f.FavoritesBy == nil {
		f.FavoritesBy = []primitive.ObjectID{}
	}
	return s.eventRepo.Upsert(ctx, oid, f, time.Now().UTC())
}

// PatchEvent fetches the event, applies the whole operation batch in
// memory, and persists the result. The fetch-then-save pair is
// last-write-wins at the document level; there is no version check.
func (s *eventService) PatchEvent(ctx context.Context, id string, ops []patch.Op) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	current, err := s.eventRepo.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	updated := &domain.Event{}
	if err := patch.Apply(current, patch.WithoutIDOps(ops), updated); err != nil {
		return nil, err
	}
	updated.ID = current.ID
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()
	if err := s.eventRepo.Replace(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if _, err := s.eventRepo.GetByID(ctx, oid); err != nil {
		return err
	}
	return s.eventRepo.Delete(ctx, oid)
}

func (s *eventService) SearchEvents(ctx context.Context, text string) ([]*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.SearchByName(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.populateHosts(ctx, events)
}

func (s *eventService) ListEventsByHost(ctx context.Context, userID string) ([]*domain.EventView, error) {
	return s.filteredList(ctx, userID, s.eventRepo.ListByHost)
}

func (s *eventService) ListEventsByParticipant(ctx context.Context, userID string) ([]*domain.EventView, error) {
	return s.filteredList(ctx, userID, s.eventRepo.ListByParticipant)
}

func (s *eventService) ListEventsByFavorite(ctx context.Context, userID string) ([]*domain.EventView, error) {
	return s.filteredList(ctx, userID, s.eventRepo.ListByFavorite)
}

func (s *eventService) filteredList(ctx context.Context, userID string, list func(context.Context, primitive.ObjectID) ([]*domain.Event, error)) ([]*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	events, err := list(ctx, oid)
	if err != nil {
		return nil, err
	}
	return s.populateHosts(ctx, events)
}

// populateHosts expands each event's host reference with a single batched
// users lookup. References without a matching user keep their id and stay
// unexpanded.
func (s *eventService) populateHosts(ctx context.Context, events []*domain.Event) ([]*domain.EventView, error) {
	ids := make([]primitive.ObjectID, 0, len(events))
	seen := make(map[primitive.ObjectID]struct{}, len(events))
	for _, e := range events {
		if e.Host.IsZero() {
			continue
		}
		if _, ok := seen[e.Host]; ok {
			continue
		}
		seen[e.Host] = struct{}{}
		ids = append(ids, e.Host)
	}
	refs, err := s.userRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]*domain.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, newEventView(e, refs, false))
	}
	return views, nil
}

func (s *eventService) userRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.UserRef, error) {
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	refs := make(map[primitive.ObjectID]domain.UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = domain.UserRef{ID: u.ID.Hex(), Name: u.Name, ImageURL: u.ImageURL}
	}
	return refs, nil
}

func newEventView(e *domain.Event, refs map[primitive.ObjectID]domain.UserRef, expandParticipants bool) *domain.EventView {
	v := &domain.EventView{
		ID:           e.ID.Hex(),
		Name:         e.Name,
		Description:  e.Description,
		Location:     e.Location,
		ImageURL:     e.ImageURL,
		StartTime:    e.StartTime,
		Participants: make([]domain.ParticipantView, 0, len(e.Participants)),
		FavoritesBy:  make([]string, 0, len(e.FavoritesBy)),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if !e.Host.IsZero() {
		ref, ok := refs[e.Host]
		if !ok {
			ref = domain.UserRef{ID: e.Host.Hex()}
		}
		v.Host = &ref
	}
	for _, p := range e.Participants {
		pv := domain.ParticipantView{User: domain.UserRef{ID: p.User.Hex()}, Status: p.Status}
		if expandParticipants {
			if ref, ok := refs[p.User]; ok {
				pv.User = ref
			}
		}
		v.Participants = append(v.Participants, pv)
	}
	for _, id := range e.FavoritesBy {
		v.FavoritesBy = append(v.FavoritesBy, id.Hex())
	}
	return v
}
