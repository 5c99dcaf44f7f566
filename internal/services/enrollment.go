package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventlottery/internal/domain"
)

type enrollmentService struct {
	waitlistRepo domain.WaitlistRepository
	entrantRepo  domain.EntrantRepository
}

// NewEnrollmentService creates an EnrollmentService with the given
// repositories.
func NewEnrollmentService(waitlistRepo domain.WaitlistRepository, entrantRepo domain.EntrantRepository) domain.EnrollmentService {
	return &enrollmentService{
		waitlistRepo: waitlistRepo,
		entrantRepo:  entrantRepo,
	}
}

// Join runs the validation chain in a fixed order and short-circuits on the
// first failure: input, organizer self-join, profile registration, duplicate
// membership, registration window, capacity. Only then is the entrant written
// to the waiting set.
func (s *enrollmentService) Join(ctx context.Context, event *domain.Event, deviceID string) error {
	if event == nil || event.ID == "" || deviceID == "" {
		return domain.ErrInvalidInput
	}
	if event.OrganizerID != "" && event.OrganizerID == deviceID {
		return domain.ErrForbidden
	}

	entrant, err := s.entrantRepo.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrProfileIncomplete
		}
		return fmt.Errorf("get profile: %w", err)
	}
	if !entrant.Registered {
		return domain.ErrProfileIncomplete
	}

	joined, err := s.waitlistRepo.IsInState(ctx, event.ID, deviceID, domain.StateWaiting)
	if err != nil {
		return fmt.Errorf("check waitlist membership: %w", err)
	}
	if joined {
		return domain.ErrAlreadyJoined
	}

	now := time.Now()
	if !IsWithinRegistrationWindow(event, now) {
		return domain.ErrWindowClosed
	}

	count, err := s.waitlistRepo.CountByState(ctx, event.ID, domain.StateWaiting)
	if err != nil {
		return fmt.Errorf("count waitlist: %w", err)
	}
	if !HasCapacity(event, count) {
		return domain.ErrEventFull
	}

	if err := s.waitlistRepo.AddToWaiting(ctx, event.ID, deviceID, now); err != nil {
		return fmt.Errorf("join waitlist: %w", err)
	}
	return nil
}

// Leave reports ErrNotOnWaitlist when the entrant is not currently waiting.
// The removal itself is idempotent at the store level; the membership check
// is what makes the service-level call strict.
func (s *enrollmentService) Leave(ctx context.Context, eventID, deviceID string) error {
	if eventID == "" || deviceID == "" {
		return domain.ErrInvalidInput
	}

	waiting, err := s.waitlistRepo.IsInState(ctx, eventID, deviceID, domain.StateWaiting)
	if err != nil {
		return fmt.Errorf("check waitlist membership: %w", err)
	}
	if !waiting {
		return domain.ErrNotOnWaitlist
	}

	if err := s.waitlistRepo.RemoveFromWaiting(ctx, eventID, deviceID); err != nil {
		return fmt.Errorf("leave waitlist: %w", err)
	}
	return nil
}
