package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventState is the moderation state of an event.
type EventState string

const (
	EventStatePending   EventState = "PENDING"
	EventStatePublished EventState = "PUBLISHED"
	EventStateCanceled  EventState = "CANCELED"
)

// Lead times enforced by the event lifecycle.
const (
	// MinEventLeadTime is how far in the future an event date must be when it is created or changed.
	MinEventLeadTime = 2 * time.Hour
	// MinPublishLeadTime is how far after the publish instant the event must start.
	MinPublishLeadTime = 1 * time.Hour
)

// UserStateAction is a state change requested by the event initiator.
type UserStateAction string

const (
	UserActionSendToReview UserStateAction = "SEND_TO_REVIEW"
	UserActionCancelReview UserStateAction = "CANCEL_REVIEW"
)

// ParseUserStateAction decodes a raw action. Unknown values return ErrInvalidInput.
func ParseUserStateAction(s string) (UserStateAction, error) {
	switch a := UserStateAction(strings.ToUpper(strings.TrimSpace(s))); a {
	case UserActionSendToReview, UserActionCancelReview:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown state action %q", ErrInvalidInput, s)
}

// AdminStateAction is a moderation decision taken by an administrator.
type AdminStateAction string

const (
	AdminActionPublishEvent AdminStateAction = "PUBLISH_EVENT"
	AdminActionRejectEvent  AdminStateAction = "REJECT_EVENT"
)

// ParseAdminStateAction decodes a raw action. Unknown values return ErrInvalidInput.
func ParseAdminStateAction(s string) (AdminStateAction, error) {
	switch a := AdminStateAction(strings.ToUpper(strings.TrimSpace(s))); a {
	case AdminActionPublishEvent, AdminActionRejectEvent:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown state action %q", ErrInvalidInput, s)
}

// Location is the place an event happens at.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event represents a listed activity with a capacity and a moderation state.
// swagger:model Event
type Event struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	CategoryID        string     `json:"category_id"`
	InitiatorID       string     `json:"initiator_id"`
	Location          Location   `json:"location"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participant_limit"`
	RequestModeration bool       `json:"request_moderation"`
	State             EventState `json:"state"`
	EventDate         time.Time  `json:"event_date"`
	CreatedOn         time.Time  `json:"created_on"`
	PublishedOn       *time.Time `json:"published_on"`
	Views             int64      `json:"views"`
	ConfirmedRequests int        `json:"confirmed_requests"`
}

// NewEvent returns a PENDING event owned by initiatorID. ID is set by the repository on create.
func NewEvent(initiatorID string, in NewEventInput, createdOn time.Time) *Event {
	moderation := true
	if in.RequestModeration != nil {
		moderation = *in.RequestModeration
	}
	return &Event{
		Title:             in.Title,
		Annotation:        in.Annotation,
		Description:       in.Description,
		CategoryID:        in.CategoryID,
		InitiatorID:       initiatorID,
		Location:          in.Location,
		Paid:              in.Paid,
		ParticipantLimit:  in.ParticipantLimit,
		RequestModeration: moderation,
		State:             EventStatePending,
		EventDate:         in.EventDate,
		CreatedOn:         createdOn,
	}
}

// HasCapacityLimit reports whether confirmations count against a participant limit.
func (e *Event) HasCapacityLimit() bool {
	return e.ParticipantLimit > 0
}

// NewEventInput carries the fields of a new event submission.
type NewEventInput struct {
	Title             string
	Annotation        string
	Description       string
	CategoryID        string
	Location          Location
	EventDate         time.Time
	Paid              bool
	ParticipantLimit  int
	RequestModeration *bool
}

// UpdateEventInput carries optional field edits; nil fields stay unchanged.
type UpdateEventInput struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *string
	Location          *Location
	EventDate         *time.Time
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
}

// EventRepository defines storage operations for events.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByInitiatorID(ctx context.Context, initiatorID string, params PaginationParams) ([]*Event, error)
	// IncrementViews adds one to the view counter in a single storage-level update.
	IncrementViews(ctx context.Context, id string) error
}

// EventService defines event lifecycle operations.
type EventService interface {
	CreateEvent(ctx context.Context, userID string, in NewEventInput) (*Event, error)
	ListUserEvents(ctx context.Context, userID string, params PaginationParams) ([]*Event, error)
	GetUserEvent(ctx context.Context, userID, eventID string) (*Event, error)
	UpdateEventByUser(ctx context.Context, userID, eventID string, in UpdateEventInput, action *UserStateAction) (*Event, error)
	UpdateEventByAdmin(ctx context.Context, eventID string, in UpdateEventInput, action *AdminStateAction) (*Event, error)
	// GetPublishedEvent returns a published event, reporting the hit and counting the view.
	GetPublishedEvent(ctx context.Context, eventID string, hit Hit) (*Event, error)
}
