package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"eventlisting/internal/delivery/http/helpers"
	"eventlisting/internal/domain"
)

// CreateEventRequest is the request body for POST /users/{userId}/events.
type CreateEventRequest struct {
	Title             string           `json:"title"`
	Annotation        string           `json:"annotation"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	Location          *domain.Location `json:"location"`
	EventDate         time.Time        `json:"event_date"`
	Paid              bool             `json:"paid"`
	ParticipantLimit  int              `json:"participant_limit"`
	RequestModeration *bool            `json:"request_moderation"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	errs = helpers.CheckLength(errs, "title", c.Title, 3, 120)
	errs = helpers.CheckLength(errs, "annotation", c.Annotation, 20, 2000)
	errs = helpers.CheckLength(errs, "description", c.Description, 20, 7000)
	if _, err := uuid.Parse(c.Category); err != nil {
		errs = append(errs, "category must be a valid UUID")
	}
	if c.Location == nil {
		errs = append(errs, "location is required")
	} else {
		errs = validateLocation(errs, *c.Location)
	}
	if c.EventDate.IsZero() {
		errs = append(errs, "event_date is required")
	}
	if c.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

func (c CreateEventRequest) toInput() domain.NewEventInput {
	return domain.NewEventInput{
		Title:             c.Title,
		Annotation:        c.Annotation,
		Description:       c.Description,
		CategoryID:        c.Category,
		Location:          *c.Location,
		EventDate:         c.EventDate,
		Paid:              c.Paid,
		ParticipantLimit:  c.ParticipantLimit,
		RequestModeration: c.RequestModeration,
	}
}

// UpdateEventRequest is the request body for PATCH /users/{userId}/events/{eventId} and
// PATCH /admin/events/{eventId}. All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title             *string          `json:"title"`
	Annotation        *string          `json:"annotation"`
	Description       *string          `json:"description"`
	Category          *string          `json:"category"`
	Location          *domain.Location `json:"location"`
	EventDate         *time.Time       `json:"event_date"`
	Paid              *bool            `json:"paid"`
	ParticipantLimit  *int             `json:"participant_limit"`
	RequestModeration *bool            `json:"request_moderation"`
	StateAction       *string          `json:"state_action"`
}

// Validate implements Validator. Only present fields are checked.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil {
		errs = helpers.CheckLength(errs, "title", *u.Title, 3, 120)
	}
	if u.Annotation != nil {
		errs = helpers.CheckLength(errs, "annotation", *u.Annotation, 20, 2000)
	}
	if u.Description != nil {
		errs = helpers.CheckLength(errs, "description", *u.Description, 20, 7000)
	}
	if u.Category != nil {
		if _, err := uuid.Parse(*u.Category); err != nil {
			errs = append(errs, "category must be a valid UUID")
		}
	}
	if u.Location != nil {
		errs = validateLocation(errs, *u.Location)
	}
	if u.ParticipantLimit != nil && *u.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

func (u UpdateEventRequest) toInput() domain.UpdateEventInput {
	return domain.UpdateEventInput{
		Title:             u.Title,
		Annotation:        u.Annotation,
		Description:       u.Description,
		CategoryID:        u.Category,
		Location:          u.Location,
		EventDate:         u.EventDate,
		Paid:              u.Paid,
		ParticipantLimit:  u.ParticipantLimit,
		RequestModeration: u.RequestModeration,
	}
}

func validateLocation(errs []string, l domain.Location) []string {
	if l.Lat < -90 || l.Lat > 90 {
		errs = append(errs, "location.lat must be between -90 and 90")
	}
	if l.Lon < -180 || l.Lon > 180 {
		errs = append(errs, "location.lon must be between -180 and 180")
	}
	return errs
}

// EventSuccessResponse is the success response envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success response envelope for GET /users/{userId}/events.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

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

// CreateEvent godoc
// @Summary Create an event
// @Description Creates a PENDING event owned by the user. request_moderation defaults to true; participant_limit 0 means unlimited.
// @Tags events
// @Accept json
// @Produce json
// @Param userId path string true "Initiator ID (UUID)"
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (user or category)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, req.toInput())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListUserEvents godoc
// @Summary List the user's events
// @Description Returns events created by the user, newest first.
// @Tags events
// @Produce json
// @Param userId path string true "Initiator ID (UUID)"
// @Param from query int false "Rows to skip, rounded down to a whole page (default 0)"
// @Param size query int false "Page size (default 10, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/events [get]
func (c *EventController) ListUserEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	params, err := helpers.ParsePagination(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	events, err := c.Service.ListUserEvents(r.Context(), userID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetUserEvent godoc
// @Summary Get one of the user's events
// @Tags events
// @Produce json
// @Param userId path string true "Initiator ID (UUID)"
// @Param eventId path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/events/{eventId} [get]
func (c *EventController) GetUserEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId")
	if !ok {
		return
	}
	event, err := c.Service.GetUserEvent(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEventByUser godoc
// @Summary Update an event as its initiator
// @Description Edits a PENDING or CANCELED event. state_action may be SEND_TO_REVIEW or CANCEL_REVIEW.
// @Tags events
// @Accept json
// @Produce json
// @Param userId path string true "Initiator ID (UUID)"
// @Param eventId path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: forbidden (published event, not the initiator)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/events/{eventId} [patch]
func (c *EventController) UpdateEventByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var action *domain.UserStateAction
	if req.StateAction != nil {
		a, err := domain.ParseUserStateAction(*req.StateAction)
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		action = &a
	}
	event, err := c.Service.UpdateEventByUser(r.Context(), userID, eventID, req.toInput(), action)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEventByAdmin godoc
// @Summary Moderate an event
// @Description Edits any event. state_action may be PUBLISH_EVENT (from PENDING, at least 1h before start) or REJECT_EVENT (not once published).
// @Tags admin
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: forbidden (illegal transition)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventId} [patch]
func (c *EventController) UpdateEventByAdmin(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventId")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var action *domain.AdminStateAction
	if req.StateAction != nil {
		a, err := domain.ParseAdminStateAction(*req.StateAction)
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		action = &a
	}
	event, err := c.Service.UpdateEventByAdmin(r.Context(), eventID, req.toInput(), action)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// GetPublishedEvent godoc
// @Summary Get a published event
// @Description Public event page. Each call is reported to the stats service and counts one view.
// @Tags public
// @Produce json
// @Param eventId path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (missing or unpublished)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventId} [get]
func (c *EventController) GetPublishedEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventId")
	if !ok {
		return
	}
	hit := domain.Hit{URI: r.URL.RequestURI(), IP: clientIP(r)}
	event, err := c.Service.GetPublishedEvent(r.Context(), eventID, hit)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
