package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherly/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(eventController *controllers.EventController) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/events", eventController.ListEvents)
	mux.HandleFunc("POST /api/events", eventController.CreateEvent)
	mux.HandleFunc("GET /api/events/search/{text}", eventController.SearchEvents)
	mux.HandleFunc("GET /api/events/hosting/{userID}", eventController.ListEventsByHost)
	mux.HandleFunc("GET /api/events/going/{userID}", eventController.ListEventsByParticipant)
	mux.HandleFunc("GET /api/events/favorites/{userID}", eventController.ListEventsByFavorite)
	mux.HandleFunc("GET /api/events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("PUT /api/events/{eventID}", eventController.UpsertEvent)
	mux.HandleFunc("PATCH /api/events/{eventID}", eventController.PatchEvent)
	mux.HandleFunc("DELETE /api/events/{eventID}", eventController.DeleteEvent)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
