package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"eventlottery/internal/domain"
)

// DefaultReplacementPoolSize is used when the organizer does not ask for a
// specific pool size.
const DefaultReplacementPoolSize = 3

const winnerMessage = "Congratulations! You won. Proceed to signup."

type drawService struct {
	eventRepo    domain.EventRepository
	waitlistRepo domain.WaitlistRepository
	entrantRepo  domain.EntrantRepository
	mailer       domain.Mailer
	logger       *slog.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewDrawService creates the lottery engine. rng may be nil, in which case a
// time-seeded source is used; tests pass a fixed seed for repeatability.
// mailer may be nil to disable best-effort email delivery.
func NewDrawService(
	eventRepo domain.EventRepository,
	waitlistRepo domain.WaitlistRepository,
	entrantRepo domain.EntrantRepository,
	mailer domain.Mailer,
	logger *slog.Logger,
	rng *rand.Rand,
) domain.DrawService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &drawService{
		eventRepo:    eventRepo,
		waitlistRepo: waitlistRepo,
		entrantRepo:  entrantRepo,
		mailer:       mailer,
		logger:       logger,
		rng:          rng,
	}
}

// RunDraw selects winners and a replacement pool from the waiting list.
// The waiting list is shuffled uniformly (Fisher-Yates), the first
// numWinners entries win, the next replacementPoolSize entries form the
// pool, and everyone else stays waiting. The state move is one atomic batch;
// winner notifications are dispatched after commit and their failures never
// fail the draw.
func (s *drawService) RunDraw(ctx context.Context, eventID string, numWinners, replacementPoolSize int) (*domain.DrawResult, error) {
	if eventID == "" || numWinners <= 0 || replacementPoolSize < 0 {
		return nil, domain.ErrInvalidInput
	}

	// Advisory guard: the flag is flipped before the waiting list is read so
	// two concurrent draws cannot both allocate from the same snapshot.
	if err := s.eventRepo.TryBeginDraw(ctx, eventID); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.eventRepo.EndDraw(context.WithoutCancel(ctx), eventID); err != nil {
			s.logger.Error("failed to clear draw flag", "event_id", eventID, "err", err)
		}
	}()

	waiting, err := s.waitlistRepo.ListByState(ctx, eventID, domain.StateWaiting)
	if err != nil {
		return nil, fmt.Errorf("load waiting list: %w", err)
	}
	if len(waiting) == 0 {
		return nil, domain.ErrNoEntrants
	}

	ids := make([]string, len(waiting))
	for i, entry := range waiting {
		ids[i] = entry.DeviceID
	}
	s.mu.Lock()
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	s.mu.Unlock()

	winnerCount := min(numWinners, len(ids))
	replacementCount := min(replacementPoolSize, len(ids)-winnerCount)
	winners := ids[:winnerCount]
	replacements := ids[winnerCount : winnerCount+replacementCount]

	if err := s.waitlistRepo.MoveToWinnersAndPool(ctx, eventID, winners, replacements, time.Now()); err != nil {
		return nil, fmt.Errorf("commit draw: %w", err)
	}

	sent, failed := s.sendWinnerNotifications(ctx, eventID, winners)
	return &domain.DrawResult{
		WinnerIDs:           winners,
		ReplacementIDs:      replacements,
		NotificationsSent:   sent,
		NotificationsFailed: failed,
	}, nil
}

// sendWinnerNotifications skips winners who already hold a winner-category
// notification for this event, so re-running a dispatch does not spam. A
// failed existence check includes the winner anyway: a duplicate beats a
// missed invitation.
func (s *drawService) sendWinnerNotifications(ctx context.Context, eventID string, winnerIDs []string) (sent, failed int) {
	var toNotify []string
	for _, deviceID := range winnerIDs {
		notifications, err := s.entrantRepo.ListNotifications(ctx, deviceID)
		if err != nil {
			s.logger.Warn("could not check existing notifications, notifying anyway",
				"event_id", eventID, "device_id", deviceID, "err", err)
			toNotify = append(toNotify, deviceID)
			continue
		}
		already := false
		for _, n := range notifications {
			if n.EventID == eventID && n.Category == domain.NotificationCategoryWinner {
				already = true
				break
			}
		}
		if !already {
			toNotify = append(toNotify, deviceID)
		}
	}
	if len(toNotify) == 0 {
		return 0, 0
	}
	return s.dispatch(ctx, eventID, toNotify, winnerMessage, domain.NotificationCategoryWinner)
}

// dispatch fans out one inbox write per recipient and blocks until every
// write has resolved, success or failure.
func (s *drawService) dispatch(ctx context.Context, eventID string, deviceIDs []string, message, category string) (int, int) {
	var sent, failed atomic.Int64
	var wg sync.WaitGroup
	now := time.Now()
	for _, deviceID := range deviceIDs {
		wg.Add(1)
		go func(deviceID string) {
			defer wg.Done()
			if _, err := s.entrantRepo.AddNotification(ctx, deviceID, eventID, message, category, now); err != nil {
				failed.Add(1)
				s.logger.Error("failed to send notification",
					"event_id", eventID, "device_id", deviceID, "category", category, "err", err)
				return
			}
			sent.Add(1)
			s.emailBestEffort(ctx, deviceID, message)
		}(deviceID)
	}
	wg.Wait()
	return int(sent.Load()), int(failed.Load())
}

// emailBestEffort mirrors the inbox entry to the entrant's email address when
// a mailer is configured and the profile has one.
func (s *drawService) emailBestEffort(ctx context.Context, deviceID, message string) {
	if s.mailer == nil {
		return
	}
	entrant, err := s.entrantRepo.Get(ctx, deviceID)
	if err != nil || entrant.Email == "" {
		return
	}
	if err := s.mailer.Send(entrant.Email, "Event lottery update", message); err != nil {
		s.logger.Warn("email delivery failed", "device_id", deviceID, "err", err)
	}
}

// PromoteFromCancelled promotes one entrant from the replacement pool to the
// winners set. With an empty deviceID the first pool entry (store order, not
// re-randomized) is promoted.
func (s *drawService) PromoteFromCancelled(ctx context.Context, eventID, deviceID string) (string, error) {
	if eventID == "" {
		return "", domain.ErrInvalidInput
	}
	now := time.Now()
	if deviceID != "" {
		if err := s.waitlistRepo.PromoteReplacement(ctx, eventID, deviceID, now); err != nil {
			return "", err
		}
		return deviceID, nil
	}

	pool, err := s.waitlistRepo.ListByState(ctx, eventID, domain.StateReplacementPool)
	if err != nil {
		return "", fmt.Errorf("load replacement pool: %w", err)
	}
	if len(pool) == 0 {
		return "", domain.ErrEmptyPool
	}
	first := pool[0].DeviceID
	if err := s.waitlistRepo.PromoteReplacement(ctx, eventID, first, now); err != nil {
		return "", err
	}
	return first, nil
}

// NotifyCancelled broadcasts a cancelled-category message to every entrant in
// the cancelled set, with the same fan-out barrier as winner notifications.
func (s *drawService) NotifyCancelled(ctx context.Context, eventID, message string) (int, int, error) {
	if eventID == "" || message == "" {
		return 0, 0, domain.ErrInvalidInput
	}
	cancelled, err := s.waitlistRepo.ListByState(ctx, eventID, domain.StateCancelled)
	if err != nil {
		return 0, 0, fmt.Errorf("load cancelled set: %w", err)
	}
	if len(cancelled) == 0 {
		return 0, 0, nil
	}
	ids := make([]string, len(cancelled))
	for i, entry := range cancelled {
		ids[i] = entry.DeviceID
	}
	sent, failed := s.dispatch(ctx, eventID, ids, message, domain.NotificationCategoryCancelled)
	return sent, failed, nil
}
