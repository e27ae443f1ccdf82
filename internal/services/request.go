package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventlisting/internal/domain"
)

type requestService struct {
	requestRepo     domain.RequestRepository
	eventRepo       domain.EventRepository
	userRepo        domain.UserRepository
	admission       domain.AdmissionStore
	emailService    domain.EmailService
	logger          *slog.Logger
	strictOwnership bool
	contextTimeout  time.Duration
	notifyTimeout   time.Duration
	now             func() time.Time
}

// NewRequestService returns a RequestService. With strictOwnership set, cancelling
// someone else's request is forbidden; otherwise it is allowed and logged.
func NewRequestService(requestRepo domain.RequestRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	admission domain.AdmissionStore,
	emailService domain.EmailService,
	logger *slog.Logger,
	strictOwnership bool,
	timeout time.Duration,
) domain.RequestService {
	return &requestService{
		requestRepo:     requestRepo,
		eventRepo:       eventRepo,
		userRepo:        userRepo,
		admission:       admission,
		emailService:    emailService,
		logger:          logger,
		strictOwnership: strictOwnership,
		contextTimeout:  timeout,
		notifyTimeout:   defaultNotifyTimeout,
		now:             time.Now,
	}
}

func (s *requestService) CreateRequest(ctx context.Context, userID, eventID string) (*domain.Request, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupError("get user", err)
	}

	var created *domain.Request
	err := s.admission.WithEventLock(ctx, eventID, func(ctx context.Context, event *domain.Event, tx domain.AdmissionTx) error {
		if event.InitiatorID == userID {
			return fmt.Errorf("%w: the initiator cannot request participation in their own event", domain.ErrForbidden)
		}
		if event.State != domain.EventStatePublished {
			return fmt.Errorf("%w: cannot participate in an unpublished event", domain.ErrForbidden)
		}
		_, err := tx.FindActive(ctx, userID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: request of user %s for event %s already exists", domain.ErrForbidden, userID, eventID)
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("find active request: %w", err)
		}
		if event.HasCapacityLimit() && event.ConfirmedRequests >= event.ParticipantLimit {
			return fmt.Errorf("%w: the participant limit has been reached", domain.ErrForbidden)
		}

		status := domain.RequestStatusPending
		if !event.RequestModeration || !event.HasCapacityLimit() {
			status = domain.RequestStatusConfirmed
		}
		req := domain.NewRequest(eventID, userID, status, s.now())
		if err := tx.CreateRequest(ctx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *requestService) CancelRequest(ctx context.Context, userID, requestID string) (*domain.Request, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupError("get user", err)
	}
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, lookupError("get request", err)
	}
	if req.RequesterID != userID {
		if s.strictOwnership {
			return nil, fmt.Errorf("%w: request %s belongs to another user", domain.ErrForbidden, requestID)
		}
		s.logger.WarnContext(ctx, "request cancelled by a user other than the requester",
			"request_id", requestID, "requester_id", req.RequesterID, "user_id", userID)
	}
	if req.Status == domain.RequestStatusCanceled {
		return req, nil
	}
	if err := s.requestRepo.UpdateStatus(ctx, requestID, domain.RequestStatusCanceled); err != nil {
		return nil, lookupError("cancel request", err)
	}
	req.Status = domain.RequestStatusCanceled
	return req, nil
}

func (s *requestService) ListUserRequests(ctx context.Context, userID string) ([]*domain.Request, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupError("get user", err)
	}
	reqs, err := s.requestRepo.ListByRequesterID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []*domain.Request{}
	}
	return reqs, nil
}

func (s *requestService) ListEventRequests(ctx context.Context, userID, eventID string) ([]*domain.Request, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupError("get user", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, lookupError("get event", err)
	}
	if event.InitiatorID != userID {
		return nil, fmt.Errorf("%w: only the initiator can view the event's requests", domain.ErrForbidden)
	}
	reqs, err := s.requestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []*domain.Request{}
	}
	return reqs, nil
}

func (s *requestService) UpdateRequestStatuses(ctx context.Context, userID, eventID string, requestIDs []string, status domain.RequestStatus) (*domain.RequestStatusUpdateResult, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if status != domain.RequestStatusConfirmed && status != domain.RequestStatusRejected {
		return nil, fmt.Errorf("%w: status must be CONFIRMED or REJECTED, got %q", domain.ErrInvalidInput, status)
	}
	if err := checkDistinct(requestIDs); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupError("get user", err)
	}

	result := &domain.RequestStatusUpdateResult{
		ConfirmedRequests: []*domain.Request{},
		RejectedRequests:  []*domain.Request{},
	}
	var eventTitle string
	err := s.admission.WithEventLock(ctx, eventID, func(ctx context.Context, event *domain.Event, tx domain.AdmissionTx) error {
		if event.InitiatorID != userID {
			return fmt.Errorf("%w: only the initiator can decide on requests", domain.ErrForbidden)
		}
		if status == domain.RequestStatusConfirmed && (!event.HasCapacityLimit() || !event.RequestModeration) {
			return fmt.Errorf("%w: requests to this event do not need confirmation", domain.ErrForbidden)
		}
		eventTitle = event.Title
		if len(requestIDs) == 0 {
			return nil
		}

		reqs, err := tx.GetRequests(ctx, requestIDs)
		if err != nil {
			return err
		}
		for _, req := range reqs {
			if req.Status != domain.RequestStatusPending {
				return fmt.Errorf("%w: request %s must have status PENDING, got %s", domain.ErrForbidden, req.ID, req.Status)
			}
		}

		if status == domain.RequestStatusRejected {
			for _, req := range reqs {
				req.Status = domain.RequestStatusRejected
			}
			if err := tx.SaveStatuses(ctx, reqs); err != nil {
				return fmt.Errorf("save statuses: %w", err)
			}
			result.RejectedRequests = append(result.RejectedRequests, reqs...)
			return nil
		}

		return confirmInOrder(ctx, tx, event, reqs, result)
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecisions(ctx, eventTitle, result)
	return result, nil
}

// confirmInOrder confirms reqs in input order while capacity remains and rejects the rest.
// Once the limit is reached every other pending request of the event is rejected too.
func confirmInOrder(ctx context.Context, tx domain.AdmissionTx, event *domain.Event, reqs []*domain.Request, result *domain.RequestStatusUpdateResult) error {
	confirmed := event.ConfirmedRequests
	limit := event.ParticipantLimit
	if confirmed >= limit {
		return fmt.Errorf("%w: the participant limit has been reached", domain.ErrForbidden)
	}

	for _, req := range reqs {
		if confirmed < limit {
			req.Status = domain.RequestStatusConfirmed
			confirmed++
			result.ConfirmedRequests = append(result.ConfirmedRequests, req)
		} else {
			req.Status = domain.RequestStatusRejected
			result.RejectedRequests = append(result.RejectedRequests, req)
		}
	}
	if err := tx.SaveStatuses(ctx, reqs); err != nil {
		return fmt.Errorf("save statuses: %w", err)
	}

	if confirmed >= limit {
		cascaded, err := tx.RejectPending(ctx)
		if err != nil {
			return fmt.Errorf("reject pending requests: %w", err)
		}
		result.RejectedRequests = append(result.RejectedRequests, cascaded...)
	}
	return nil
}

func checkDistinct(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: request %s is listed more than once", domain.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// notifyDecisions emails every decided requester. Failures are logged, never returned.
func (s *requestService) notifyDecisions(ctx context.Context, eventTitle string, result *domain.RequestStatusUpdateResult) {
	if s.emailService == nil {
		return
	}
	ctx, cancel := detached(ctx, s.notifyTimeout)
	defer cancel()
	send := func(req *domain.Request, confirmed bool) {
		user, err := s.userRepo.GetByID(ctx, req.RequesterID)
		if err != nil {
			s.logger.WarnContext(ctx, "decision email skipped", "request_id", req.ID, "error", err)
			return
		}
		data := &domain.RequestDecisionEmailData{
			Email:      user.Email,
			Name:       user.Name,
			EventTitle: eventTitle,
			RequestID:  req.ID,
			Confirmed:  confirmed,
		}
		if err := s.emailService.SendRequestDecision(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "decision email failed", "request_id", req.ID, "error", err)
		}
	}
	for _, req := range result.ConfirmedRequests {
		send(req, true)
	}
	for _, req := range result.RejectedRequests {
		send(req, false)
	}
}
