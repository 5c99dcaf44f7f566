package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventlottery/internal/domain"
)

type entrantService struct {
	entrantRepo domain.EntrantRepository
}

// NewEntrantService creates an EntrantService with the given repository.
func NewEntrantService(entrantRepo domain.EntrantRepository) domain.EntrantService {
	return &entrantService{
		entrantRepo: entrantRepo,
	}
}

func (s *entrantService) GetProfile(ctx context.Context, deviceID string) (*domain.Entrant, error) {
	if deviceID == "" {
		return nil, domain.ErrInvalidInput
	}
	entrant, err := s.entrantRepo.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return entrant, nil
}

func (s *entrantService) UpsertProfile(ctx context.Context, deviceID string, upd domain.EntrantUpdate) (*domain.Entrant, error) {
	if deviceID == "" {
		return nil, domain.ErrInvalidInput
	}
	entrant, err := s.entrantRepo.Upsert(ctx, deviceID, upd)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return entrant, nil
}

func (s *entrantService) ClearProfile(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.entrantRepo.Clear(ctx, deviceID, time.Now()); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}

func (s *entrantService) SetBanned(ctx context.Context, deviceID string, banned bool) error {
	if deviceID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.entrantRepo.SetBanned(ctx, deviceID, banned); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("set banned: %w", err)
	}
	return nil
}

// IsBanned treats an unknown device id as not banned: someone who never
// registered cannot be banned as an entrant.
func (s *entrantService) IsBanned(ctx context.Context, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, domain.ErrInvalidInput
	}
	entrant, err := s.entrantRepo.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get profile: %w", err)
	}
	return entrant.Banned, nil
}

func (s *entrantService) ListNotifications(ctx context.Context, deviceID string) ([]*domain.Notification, error) {
	if deviceID == "" {
		return nil, domain.ErrInvalidInput
	}
	notifications, err := s.entrantRepo.ListNotifications(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (s *entrantService) MarkNotificationRead(ctx context.Context, deviceID, notificationID string) error {
	if deviceID == "" || notificationID == "" {
		return domain.ErrInvalidInput
	}
	read := true
	err := s.entrantRepo.UpdateNotification(ctx, deviceID, notificationID, domain.NotificationUpdate{Read: &read})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
