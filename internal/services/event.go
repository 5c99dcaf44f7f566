package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/domain"
)

type eventService struct {
	eventRepo    domain.EventRepository
	waitlistRepo domain.WaitlistRepository
}

// NewEventService creates an EventService with the given repositories.
func NewEventService(eventRepo domain.EventRepository, waitlistRepo domain.WaitlistRepository) domain.EventService {
	return &eventService{
		eventRepo:    eventRepo,
		waitlistRepo: waitlistRepo,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return domain.ErrInvalidInput
	}
	event.Name = strings.TrimSpace(event.Name)
	if event.Name == "" || event.OrganizerID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.QRCode == "" {
		// Payload encoded by the client into a scannable code.
		event.QRCode = uuid.NewString()
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *eventService) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	if organizerID == "" {
		return nil, domain.ErrInvalidInput
	}
	events, err := s.eventRepo.ListByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list events by organizer: %w", err)
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	if eventID == "" || callerID == "" {
		return nil, domain.ErrInvalidInput
	}
	if upd.IsEmpty() {
		return nil, domain.ErrInvalidInput
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != callerID {
		return nil, domain.ErrForbidden
	}

	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (s *eventService) ListMembers(ctx context.Context, eventID string, state domain.MembershipState) ([]*domain.WaitlistEntry, error) {
	if eventID == "" || !state.Valid() {
		return nil, domain.ErrInvalidInput
	}
	entries, err := s.waitlistRepo.ListByState(ctx, eventID, state)
	if err != nil {
		return nil, fmt.Errorf("list %s members: %w", state, err)
	}
	return entries, nil
}

func (s *eventService) MemberCounts(ctx context.Context, eventID string) (*domain.MemberCounts, error) {
	if eventID == "" {
		return nil, domain.ErrInvalidInput
	}
	counts := &domain.MemberCounts{}
	for _, st := range []struct {
		state domain.MembershipState
		dst   *int
	}{
		{domain.StateWaiting, &counts.Waiting},
		{domain.StateWinners, &counts.Winners},
		{domain.StateReplacementPool, &counts.ReplacementPool},
		{domain.StateAccepted, &counts.Accepted},
		{domain.StateCancelled, &counts.Cancelled},
	} {
		n, err := s.waitlistRepo.CountByState(ctx, eventID, st.state)
		if err != nil {
			return nil, fmt.Errorf("count %s members: %w", st.state, err)
		}
		*st.dst = n
	}
	return counts, nil
}
