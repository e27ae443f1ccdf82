package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the status of a participation request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusConfirmed RequestStatus = "CONFIRMED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCanceled  RequestStatus = "CANCELED"
)

// ParseDecisionStatus decodes the target status of a batch decision.
// Only CONFIRMED and REJECTED are accepted.
func ParseDecisionStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case RequestStatusConfirmed, RequestStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: status must be CONFIRMED or REJECTED, got %q", ErrInvalidInput, s)
}

// Request is a user's ask to participate in an event.
// swagger:model Request
type Request struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event"`
	RequesterID string        `json:"requester"`
	Status      RequestStatus `json:"status"`
	Created     time.Time     `json:"created"`
}

// NewRequest returns a request with the given status. ID is set by the store on create.
func NewRequest(eventID, requesterID string, status RequestStatus, created time.Time) *Request {
	return &Request{
		EventID:     eventID,
		RequesterID: requesterID,
		Status:      status,
		Created:     created,
	}
}

// RequestStatusUpdateResult partitions the requests decided by one batch call.
// swagger:model RequestStatusUpdateResult
type RequestStatusUpdateResult struct {
	ConfirmedRequests []*Request `json:"confirmed_requests"`
	RejectedRequests  []*Request `json:"rejected_requests"`
}

// RequestRepository defines reads and single-row writes for requests outside the admission lock.
type RequestRepository interface {
	GetByID(ctx context.Context, id string) (*Request, error)
	ListByRequesterID(ctx context.Context, requesterID string) ([]*Request, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Request, error)
	UpdateStatus(ctx context.Context, id string, status RequestStatus) error
}

// AdmissionTx is the storage view inside one serialized unit of work for a single event.
// Every write made through it commits or rolls back together. The confirmed count is
// read once when the lock is taken and handed to the caller on the locked event.
type AdmissionTx interface {
	// FindActive returns the requester's non-canceled request for the event, or ErrNotFound.
	FindActive(ctx context.Context, requesterID string) (*Request, error)
	// GetRequests returns the named requests of this event in the order of ids.
	// ErrNotFound if any id is unknown or belongs to another event.
	GetRequests(ctx context.Context, ids []string) ([]*Request, error)
	CreateRequest(ctx context.Context, req *Request) error
	SaveStatuses(ctx context.Context, reqs []*Request) error
	// RejectPending rejects every PENDING request of the event and returns them.
	RejectPending(ctx context.Context) ([]*Request, error)
	UpdateEvent(ctx context.Context, event *Event) error
}

// AdmissionStore serializes every mutation of an event's confirmed-request count.
type AdmissionStore interface {
	// WithEventLock runs fn in one transaction holding an exclusive lock on the event.
	// fn receives the locked event; a non-nil error from fn rolls everything back.
	// ErrNotFound if the event does not exist.
	WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, event *Event, tx AdmissionTx) error) error
}

// RequestService defines participation-request operations.
type RequestService interface {
	CreateRequest(ctx context.Context, userID, eventID string) (*Request, error)
	CancelRequest(ctx context.Context, userID, requestID string) (*Request, error)
	ListUserRequests(ctx context.Context, userID string) ([]*Request, error)
	ListEventRequests(ctx context.Context, userID, eventID string) ([]*Request, error)
	UpdateRequestStatuses(ctx context.Context, userID, eventID string, requestIDs []string, status RequestStatus) (*RequestStatusUpdateResult, error)
}
