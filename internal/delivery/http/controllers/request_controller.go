package controllers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"eventlisting/internal/delivery/http/helpers"
	"eventlisting/internal/domain"
)

// UpdateRequestStatusesRequest is the request body for PATCH /users/{userId}/events/{eventId}/requests.
type UpdateRequestStatusesRequest struct {
	RequestIDs []string `json:"request_ids"`
	Status     string   `json:"status"`
}

// Validate implements Validator.
func (u UpdateRequestStatusesRequest) Validate() []string {
	var errs []string
	if len(u.RequestIDs) == 0 {
		errs = append(errs, "request_ids must not be empty")
	}
	for _, id := range u.RequestIDs {
		if _, err := uuid.Parse(id); err != nil {
			errs = append(errs, "request_ids must contain valid UUIDs")
			break
		}
	}
	if u.Status == "" {
		errs = append(errs, "status is required")
	}
	return errs
}

// RequestSuccessResponse is the success response envelope for single-request endpoints.
type RequestSuccessResponse struct {
	Data  *domain.Request   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RequestListSuccessResponse is the success response envelope for request lists.
type RequestListSuccessResponse struct {
	Data  []*domain.Request `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RequestStatusUpdateSuccessResponse is the success response envelope for batch decisions.
type RequestStatusUpdateSuccessResponse struct {
	Data  *domain.RequestStatusUpdateResult `json:"data"`
	Error *helpers.APIError                 `json:"error"`
}

type RequestController struct {
	Logger  *slog.Logger
	Service domain.RequestService
}

func NewRequestController(logger *slog.Logger, svc domain.RequestService) *RequestController {
	return &RequestController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateRequest godoc
// @Summary Request participation in an event
// @Description Confirmed immediately when the event has no limit or no moderation, otherwise PENDING.
// @Tags requests
// @Produce json
// @Param userId path string true "Requester ID (UUID)"
// @Param eventId query string true "Event ID (UUID)"
// @Success 201 {object} controllers.RequestSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: forbidden (duplicate, own event, unpublished, full)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/requests [post]
func (c *RequestController) CreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	eventID, ok := queryID(w, r, "eventId")
	if !ok {
		return
	}
	req, err := c.Service.CreateRequest(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, req)
}

// CancelRequest godoc
// @Summary Cancel a participation request
// @Description Cancelling an already cancelled request returns it unchanged.
// @Tags requests
// @Produce json
// @Param userId path string true "Requester ID (UUID)"
// @Param requestId path string true "Request ID (UUID)"
// @Success 200 {object} controllers.RequestSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: forbidden (strict ownership only)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/requests/{requestId}/cancel [patch]
func (c *RequestController) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	req, err := c.Service.CancelRequest(r.Context(), userID, requestID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, req)
}

// ListUserRequests godoc
// @Summary List the user's participation requests
// @Tags requests
// @Produce json
// @Param userId path string true "Requester ID (UUID)"
// @Success 200 {object} controllers.RequestListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/requests [get]
func (c *RequestController) ListUserRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	reqs, err := c.Service.ListUserRequests(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reqs)
}

// ListEventRequests godoc
// @Summary List requests for the initiator's event
// @Tags requests
// @Produce json
// @Param userId path string true "Initiator ID (UUID)"
// @Param eventId path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RequestListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: forbidden (not the initiator)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/events/{eventId}/requests [get]
func (c *RequestController) ListEventRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId")
	if !ok {
		return
	}
	reqs, err := c.Service.ListEventRequests(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reqs)
}

// UpdateRequestStatuses godoc
// @Summary Confirm or reject pending requests
// @Description Confirms in the given order while seats remain; the rest are rejected. Reaching the limit rejects every other pending request of the event.
// @Tags requests
// @Accept json
// @Produce json
// @Param userId path string true "Initiator ID (UUID)"
// @Param eventId path string true "Event ID (UUID)"
// @Param body body UpdateRequestStatusesRequest true "Request ids and target status (CONFIRMED or REJECTED)"
// @Success 200 {object} controllers.RequestStatusUpdateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: forbidden (limit reached, not pending, not the initiator)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userId}/events/{eventId}/requests [patch]
func (c *RequestController) UpdateRequestStatuses(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "eventId")
	if !ok {
		return
	}
	var req UpdateRequestStatusesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	status, err := domain.ParseDecisionStatus(req.Status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	result, err := c.Service.UpdateRequestStatuses(r.Context(), userID, eventID, req.RequestIDs, status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
