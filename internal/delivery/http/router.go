package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventlisting/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(events *controllers.EventController, requests *controllers.RequestController, users *controllers.UserController) *http.ServeMux {
	mux := http.NewServeMux()

	// Initiator
	mux.HandleFunc("POST /users/{userId}/events", events.CreateEvent)
	mux.HandleFunc("GET /users/{userId}/events", events.ListUserEvents)
	mux.HandleFunc("GET /users/{userId}/events/{eventId}", events.GetUserEvent)
	mux.HandleFunc("PATCH /users/{userId}/events/{eventId}", events.UpdateEventByUser)
	mux.HandleFunc("GET /users/{userId}/events/{eventId}/requests", requests.ListEventRequests)
	mux.HandleFunc("PATCH /users/{userId}/events/{eventId}/requests", requests.UpdateRequestStatuses)

	// Participant
	mux.HandleFunc("POST /users/{userId}/requests", requests.CreateRequest)
	mux.HandleFunc("GET /users/{userId}/requests", requests.ListUserRequests)
	mux.HandleFunc("PATCH /users/{userId}/requests/{requestId}/cancel", requests.CancelRequest)

	// Admin
	mux.HandleFunc("PATCH /admin/events/{eventId}", events.UpdateEventByAdmin)
	mux.HandleFunc("POST /admin/users", users.CreateUser)
	mux.HandleFunc("GET /admin/users/{userId}", users.GetUser)
	mux.HandleFunc("POST /admin/categories", users.CreateCategory)

	// Public
	mux.HandleFunc("GET /events/{eventId}", events.GetPublishedEvent)
	mux.HandleFunc("GET /categories/{catId}", users.GetCategory)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
