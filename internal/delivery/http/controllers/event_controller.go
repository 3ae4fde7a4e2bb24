package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/domain"
	"gatherly/internal/patch"
)

// EventController handles the event resource routes. Every handler ends in
// exactly one of 2xx, 404 (empty body), or 500 (error message as body).
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// fail logs the error and writes the flat 500 response with the raw error
// message as the body.
func (c *EventController) fail(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteError(w, http.StatusInternalServerError, err)
}

// decodeBody decodes the request body into dest. Unknown fields are
// dropped, so a client-supplied _id never reaches the store. Decode
// failures surface through the flat 500 path like any other operation
// failure.
func (c *EventController) decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		c.fail(w, r, err)
		return false
	}
	return true
}

// ListEvents godoc
// @Summary List all events
// @Description Returns every event, with the host reference expanded to {_id, name, imageUrl}.
// @Tags events
// @Produce json
// @Success 200 {array} domain.EventView
// @Failure 500 {string} string "error message"
// @Router /api/events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns one event with host and participants[].user expanded to {_id, name, imageUrl}.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} domain.EventView
// @Failure 404 "empty body"
// @Failure 500 {string} string "error message"
// @Router /api/events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Inserts a new event. The identifier and timestamps are server-assigned; any client-supplied _id is dropped.
// @Tags events
// @Accept json
// @Produce json
// @Param event body domain.EventFields true "Event fields"
// @Success 201 {object} domain.Event
// @Failure 500 {string} string "error message (includes validation errors)"
// @Router /api/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var fields domain.EventFields
	if !c.decodeBody(w, r, &fields) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), &fields)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, event)
}

// UpsertEvent godoc
// @Summary Replace or insert an event
// @Description Replaces the fields of the event with the route id, inserting it with defaults when absent. A client-supplied _id in the body is ignored; the route id wins.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param event body domain.EventFields true "Event fields"
// @Success 200 {object} domain.Event
// @Failure 500 {string} string "error message"
// @Router /api/events/{eventID} [put]
func (c *EventController) UpsertEvent(w http.ResponseWriter, r *http.Request) {
	var fields domain.EventFields
	if !c.decodeBody(w, r, &fields) {
		return
	}
	event, err := c.Service.UpsertEvent(r.Context(), r.PathValue("eventID"), &fields)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// PatchEvent godoc
// @Summary Apply a JSON-Patch to an event
// @Description Applies an ordered list of {op, path, value} operations. The batch is all-or-nothing: an invalid path, an unknown op, or a value violating the document shape persists nothing. Operations targeting /_id are dropped.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param operations body []patch.Op true "JSON-Patch operations"
// @Success 200 {object} domain.Event
// @Failure 404 "empty body"
// @Failure 500 {string} string "error message"
// @Router /api/events/{eventID} [patch]
func (c *EventController) PatchEvent(w http.ResponseWriter, r *http.Request) {
	var ops []patch.Op
	if !c.decodeBody(w, r, &ops) {
		return
	}
	event, err := c.Service.PatchEvent(r.Context(), r.PathValue("eventID"), ops)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags events
// @Param eventID path string true "Event ID"
// @Success 204 "empty body"
// @Failure 404 "empty body"
// @Failure 500 {string} string "error message"
// @Router /api/events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteEvent(r.Context(), r.PathValue("eventID")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchEvents godoc
// @Summary Search events by name
// @Description Returns events whose name contains the given text, case-insensitively. Substring containment, not full-text search.
// @Tags events
// @Produce json
// @Param text path string true "Search text"
// @Success 200 {array} domain.EventView
// @Failure 500 {string} string "error message"
// @Router /api/events/search/{text} [get]
func (c *EventController) SearchEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.SearchEvents(r.Context(), r.PathValue("text"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, events)
}

// ListEventsByHost godoc
// @Summary List events hosted by a user
// @Tags events
// @Produce json
// @Param userID path string true "Host user ID"
// @Success 200 {array} domain.EventView
// @Failure 500 {string} string "error message"
// @Router /api/events/hosting/{userID} [get]
func (c *EventController) ListEventsByHost(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEventsByHost(r.Context(), r.PathValue("userID"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, events)
}

// ListEventsByParticipant godoc
// @Summary List events a user is going to
// @Tags events
// @Produce json
// @Param userID path string true "Participant user ID"
// @Success 200 {array} domain.EventView
// @Failure 500 {string} string "error message"
// @Router /api/events/going/{userID} [get]
func (c *EventController) ListEventsByParticipant(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEventsByParticipant(r.Context(), r.PathValue("userID"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, events)
}

// ListEventsByFavorite godoc
// @Summary List events a user has favorited
// @Tags events
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {array} domain.EventView
// @Failure 500 {string} string "error message"
// @Router /api/events/favorites/{userID} [get]
func (c *EventController) ListEventsByFavorite(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEventsByFavorite(r.Context(), r.PathValue("userID"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, events)
}
