package domain

import "errors"

// Sentinel errors shared across services and repositories. Business-rule
// rejections are surfaced verbatim to the caller and are never retried;
// anything else wrapping a driver error is a store failure the caller may
// retry.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrProfileIncomplete = errors.New("profile registration required")
	ErrAlreadyJoined     = errors.New("already on waitlist")
	ErrNotOnWaitlist     = errors.New("not on waitlist")
	ErrWindowClosed      = errors.New("registration window is closed")
	ErrEventFull         = errors.New("event is full")
	ErrNoEntrants        = errors.New("no entrants on waitlist")
	ErrEmptyPool         = errors.New("replacement pool is empty")
	ErrInvalidState      = errors.New("entrant is not in the expected state")
	ErrDrawInProgress    = errors.New("a draw is already in progress for this event")
)
