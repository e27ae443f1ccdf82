package services

import (
	"fmt"
	"time"

	"eventlisting/internal/domain"
)

// validateEventDate rejects dates closer than domain.MinEventLeadTime to now.
func validateEventDate(date, now time.Time) error {
	if date.Before(now.Add(domain.MinEventLeadTime)) {
		return fmt.Errorf("%w: event date must be at least %s in the future", domain.ErrInvalidInput, domain.MinEventLeadTime)
	}
	return nil
}

func validateParticipantLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: participant limit must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func validateNewEvent(in domain.NewEventInput, now time.Time) error {
	if err := validateEventDate(in.EventDate, now); err != nil {
		return err
	}
	return validateParticipantLimit(in.ParticipantLimit)
}

// validateEdits checks every requested field change against e without touching it.
func validateEdits(e *domain.Event, in domain.UpdateEventInput, now time.Time) error {
	if in.EventDate != nil {
		if err := validateEventDate(*in.EventDate, now); err != nil {
			return err
		}
	}
	if in.ParticipantLimit != nil {
		limit := *in.ParticipantLimit
		if err := validateParticipantLimit(limit); err != nil {
			return err
		}
		if limit > 0 && limit < e.ConfirmedRequests {
			return fmt.Errorf("%w: participant limit %d is below the %d confirmed requests", domain.ErrForbidden, limit, e.ConfirmedRequests)
		}
	}
	return nil
}

// applyEdits returns a copy of e with the non-nil fields of in applied.
func applyEdits(e *domain.Event, in domain.UpdateEventInput) *domain.Event {
	next := *e
	if in.Title != nil {
		next.Title = *in.Title
	}
	if in.Annotation != nil {
		next.Annotation = *in.Annotation
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.CategoryID != nil {
		next.CategoryID = *in.CategoryID
	}
	if in.Location != nil {
		next.Location = *in.Location
	}
	if in.EventDate != nil {
		next.EventDate = *in.EventDate
	}
	if in.Paid != nil {
		next.Paid = *in.Paid
	}
	if in.ParticipantLimit != nil {
		next.ParticipantLimit = *in.ParticipantLimit
	}
	if in.RequestModeration != nil {
		next.RequestModeration = *in.RequestModeration
	}
	return &next
}

// planUserUpdate returns the event as it will look after the initiator's change.
// e is never modified; an error means nothing may be persisted.
func planUserUpdate(e *domain.Event, in domain.UpdateEventInput, action *domain.UserStateAction, now time.Time) (*domain.Event, error) {
	if e.State != domain.EventStatePending && e.State != domain.EventStateCanceled {
		return nil, fmt.Errorf("%w: only pending or canceled events can be changed", domain.ErrForbidden)
	}
	if err := validateEdits(e, in, now); err != nil {
		return nil, err
	}
	next := applyEdits(e, in)
	if action != nil {
		switch *action {
		case domain.UserActionSendToReview:
			next.State = domain.EventStatePending
		case domain.UserActionCancelReview:
			next.State = domain.EventStateCanceled
		default:
			return nil, fmt.Errorf("%w: unknown state action %q", domain.ErrInvalidInput, *action)
		}
	}
	return next, nil
}

// planAdminUpdate returns the event as it will look after the moderation decision.
// e is never modified; an error means nothing may be persisted.
func planAdminUpdate(e *domain.Event, in domain.UpdateEventInput, action *domain.AdminStateAction, now time.Time) (*domain.Event, error) {
	if err := validateEdits(e, in, now); err != nil {
		return nil, err
	}
	next := applyEdits(e, in)
	if action == nil {
		return next, nil
	}
	switch *action {
	case domain.AdminActionPublishEvent:
		if e.State != domain.EventStatePending {
			return nil, fmt.Errorf("%w: cannot publish the event because it's not in the right state: %s", domain.ErrForbidden, e.State)
		}
		if next.EventDate.Before(now.Add(domain.MinPublishLeadTime)) {
			return nil, fmt.Errorf("%w: event must start at least %s after publication", domain.ErrForbidden, domain.MinPublishLeadTime)
		}
		published := now
		next.State = domain.EventStatePublished
		next.PublishedOn = &published
	case domain.AdminActionRejectEvent:
		if e.State == domain.EventStatePublished {
			return nil, fmt.Errorf("%w: cannot reject the event because it's already published", domain.ErrForbidden)
		}
		next.State = domain.EventStateCanceled
	default:
		return nil, fmt.Errorf("%w: unknown state action %q", domain.ErrInvalidInput, *action)
	}
	return next, nil
}
