package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventlottery/internal/domain"
)

type invitationService struct {
	waitlistRepo domain.WaitlistRepository
	entrantRepo  domain.EntrantRepository
	logger       *slog.Logger
}

// NewInvitationService creates an InvitationService with the given
// repositories.
func NewInvitationService(waitlistRepo domain.WaitlistRepository, entrantRepo domain.EntrantRepository, logger *slog.Logger) domain.InvitationService {
	return &invitationService{
		waitlistRepo: waitlistRepo,
		entrantRepo:  entrantRepo,
		logger:       logger,
	}
}

// Respond records a winner's accept/decline. The membership move and the
// notification update are two separate writes: when the second fails the
// first is not rolled back, and the outcome reports the partial completion
// so the caller can reconcile.
func (s *invitationService) Respond(ctx context.Context, eventID, deviceID, notificationID string, accept bool) (*domain.ResponseOutcome, error) {
	if eventID == "" || deviceID == "" || notificationID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	if err := s.waitlistRepo.ResolveWinnerResponse(ctx, eventID, deviceID, accept, now); err != nil {
		return nil, fmt.Errorf("resolve winner response: %w", err)
	}

	outcome := &domain.ResponseOutcome{
		EventID:             eventID,
		DeviceID:            deviceID,
		Accepted:            accept,
		NotificationUpdated: true,
	}

	response := domain.NotificationResponseDeclined
	if accept {
		response = domain.NotificationResponseAccepted
	}
	read := true
	upd := domain.NotificationUpdate{
		Read:        &read,
		Response:    &response,
		RespondedAt: &now,
	}
	if err := s.entrantRepo.UpdateNotification(ctx, deviceID, notificationID, upd); err != nil {
		s.logger.Error("notification update failed after membership move",
			"event_id", eventID, "device_id", deviceID, "notification_id", notificationID, "err", err)
		outcome.NotificationUpdated = false
		outcome.NotificationError = err.Error()
	}
	return outcome, nil
}
