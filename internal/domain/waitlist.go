package domain

import (
	"context"
	"time"
)

// MembershipState identifies which of the per-event sets an entrant occupies.
// An entrant is in at most one state per event at any time; the repository
// enforces this structurally.
type MembershipState string

const (
	StateWaiting         MembershipState = "waiting"
	StateWinners         MembershipState = "winners"
	StateReplacementPool MembershipState = "replacement_pool"
	StateAccepted        MembershipState = "accepted"
	StateCancelled       MembershipState = "cancelled"
)

// Valid reports whether s is one of the five membership states.
func (s MembershipState) Valid() bool {
	switch s {
	case StateWaiting, StateWinners, StateReplacementPool, StateAccepted, StateCancelled:
		return true
	}
	return false
}

// WaitlistEntry is an entrant's membership record for one event. Only the
// timestamp matching the current state is set.
// swagger:model WaitlistEntry
type WaitlistEntry struct {
	EventID       string          `json:"event_id"`
	DeviceID      string          `json:"device_id"`
	State         MembershipState `json:"state"`
	RequestTime   *time.Time      `json:"request_time,omitempty"`
	InvitedAt     *time.Time      `json:"invited_at,omitempty"`
	AddedToPoolAt *time.Time      `json:"added_to_pool_at,omitempty"`
	RespondedAt   *time.Time      `json:"responded_at,omitempty"`
	IsReplacement bool            `json:"is_replacement"`
}

// WaitlistRepository defines storage operations over the per-event membership
// sets. Multi-row moves are atomic: readers never observe an entrant absent
// from all sets or present in two.
type WaitlistRepository interface {
	IsInState(ctx context.Context, eventID, deviceID string, state MembershipState) (bool, error)
	CountByState(ctx context.Context, eventID string, state MembershipState) (int, error)
	// AddToWaiting is an idempotent upsert: re-joining refreshes the request
	// time, and an entrant in a terminal state moves back to waiting.
	AddToWaiting(ctx context.Context, eventID, deviceID string, requestTime time.Time) error
	// RemoveFromWaiting is idempotent at the store level; it does not report
	// whether a row existed.
	RemoveFromWaiting(ctx context.Context, eventID, deviceID string) error
	ListByState(ctx context.Context, eventID string, state MembershipState) ([]*WaitlistEntry, error)
	// MoveToWinnersAndPool moves the listed entrants out of waiting in a
	// single transaction: winners get invited_at=now, replacements get
	// added_to_pool_at=now. Returns ErrInvalidInput when winnerIDs is empty.
	MoveToWinnersAndPool(ctx context.Context, eventID string, winnerIDs, replacementIDs []string, now time.Time) error
	// PromoteReplacement moves one entrant from the replacement pool to
	// winners with is_replacement set. Returns ErrNotFound when there is no
	// membership row, ErrInvalidState when the entrant is not in the pool.
	PromoteReplacement(ctx context.Context, eventID, deviceID string, now time.Time) error
	// ResolveWinnerResponse writes the terminal state for a winner response.
	// It intentionally does not verify the entrant was in winners; callers
	// reach it through the invitation-notification flow.
	ResolveWinnerResponse(ctx context.Context, eventID, deviceID string, accepted bool, now time.Time) error
}

// DrawResult reports the outcome of a lottery draw. Notification counts are
// informational: dispatch failures never fail the draw.
// swagger:model DrawResult
type DrawResult struct {
	WinnerIDs           []string `json:"winner_ids"`
	ReplacementIDs      []string `json:"replacement_ids"`
	NotificationsSent   int      `json:"notifications_sent"`
	NotificationsFailed int      `json:"notifications_failed"`
}

// EnrollmentService validates and executes waitlist joins and leaves.
type EnrollmentService interface {
	// Join validates in order: input, organizer self-join, profile
	// registration, duplicate membership, registration window, capacity;
	// the first failure short-circuits.
	Join(ctx context.Context, event *Event, deviceID string) error
	// Leave fails with ErrNotOnWaitlist when the entrant is not waiting.
	Leave(ctx context.Context, eventID, deviceID string) error
}

// DrawService runs the lottery and manages replacement promotion.
type DrawService interface {
	RunDraw(ctx context.Context, eventID string, numWinners, replacementPoolSize int) (*DrawResult, error)
	// PromoteFromCancelled promotes the given pool entrant, or the first
	// pool entry when deviceID is empty. Returns the promoted id.
	PromoteFromCancelled(ctx context.Context, eventID, deviceID string) (string, error)
	// NotifyCancelled sends a cancelled-category notification to every
	// entrant in the cancelled set.
	NotifyCancelled(ctx context.Context, eventID, message string) (sent, failed int, err error)
}

// ResponseOutcome is the structured result of an invitation response. The
// membership move and the notification update are two separate writes; when
// the second fails the first is not rolled back, and NotificationUpdated is
// false with NotificationError carrying the reason.
// swagger:model ResponseOutcome
type ResponseOutcome struct {
	EventID             string `json:"event_id"`
	DeviceID            string `json:"device_id"`
	Accepted            bool   `json:"accepted"`
	NotificationUpdated bool   `json:"notification_updated"`
	NotificationError   string `json:"notification_error,omitempty"`
}

// InvitationService consumes winner accept/decline responses.
type InvitationService interface {
	Respond(ctx context.Context, eventID, deviceID, notificationID string, accept bool) (*ResponseOutcome, error)
}
