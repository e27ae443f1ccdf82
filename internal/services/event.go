package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventlisting/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	categoryRepo   domain.CategoryRepository
	admission      domain.AdmissionStore
	hits           domain.HitReporter
	logger         *slog.Logger
	contextTimeout time.Duration
	reportTimeout  time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	categoryRepo domain.CategoryRepository,
	admission domain.AdmissionStore,
	hits domain.HitReporter,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		categoryRepo:   categoryRepo,
		admission:      admission,
		hits:           hits,
		logger:         logger,
		contextTimeout: timeout,
		reportTimeout:  defaultReportTimeout,
		now:            time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, userID string, in domain.NewEventInput) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupError("get user", err)
	}
	if _, err := s.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
		return nil, lookupError("get category", err)
	}
	now := s.now()
	if err := validateNewEvent(in, now); err != nil {
		return nil, err
	}

	event := domain.NewEvent(userID, in, now)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListUserEvents(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupError("get user", err)
	}
	events, err := s.eventRepo.ListByInitiatorID(ctx, userID, params)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) GetUserEvent(ctx context.Context, userID, eventID string) (*domain.Event, error) {
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
		return nil, fmt.Errorf("%w: event %s of user %s", domain.ErrNotFound, eventID, userID)
	}
	return event, nil
}

func (s *eventService) UpdateEventByUser(ctx context.Context, userID, eventID string, in domain.UpdateEventInput, action *domain.UserStateAction) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupError("get user", err)
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	var updated *domain.Event
	err := s.admission.WithEventLock(ctx, eventID, func(ctx context.Context, event *domain.Event, tx domain.AdmissionTx) error {
		if event.InitiatorID != userID {
			return fmt.Errorf("%w: only the initiator can change the event", domain.ErrForbidden)
		}
		next, err := planUserUpdate(event, in, action, s.now())
		if err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, next); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *eventService) UpdateEventByAdmin(ctx context.Context, eventID string, in domain.UpdateEventInput, action *domain.AdminStateAction) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	var updated *domain.Event
	err := s.admission.WithEventLock(ctx, eventID, func(ctx context.Context, event *domain.Event, tx domain.AdmissionTx) error {
		next, err := planAdminUpdate(event, in, action, s.now())
		if err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, next); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if action != nil {
		s.logger.InfoContext(ctx, "event moderated", "event_id", eventID, "action", string(*action), "state", string(updated.State))
	}
	return updated, nil
}

func (s *eventService) GetPublishedEvent(ctx context.Context, eventID string, hit domain.Hit) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, lookupError("get event", err)
	}
	if event.State != domain.EventStatePublished {
		return nil, fmt.Errorf("%w: event %s is not published", domain.ErrNotFound, eventID)
	}

	if hit.Timestamp.IsZero() {
		hit.Timestamp = s.now()
	}

	if err := s.eventRepo.IncrementViews(ctx, eventID); err != nil {
		return nil, lookupError("increment views", err)
	}
	event, err = s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, lookupError("get event", err)
	}

	s.reportHit(ctx, hit)
	return event, nil
}

func (s *eventService) reportHit(ctx context.Context, hit domain.Hit) {
	if s.hits == nil {
		return
	}
	ctx, cancel := detached(ctx, s.reportTimeout)
	defer cancel()
	if err := s.hits.Report(ctx, hit); err != nil {
		s.logger.WarnContext(ctx, "report hit failed", "uri", hit.URI, "error", err)
	}
}

func (s *eventService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categoryRepo.GetByID(ctx, *categoryID); err != nil {
		return lookupError("get category", err)
	}
	return nil
}

// lookupError passes domain.ErrNotFound through and wraps anything else with op.
func lookupError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
