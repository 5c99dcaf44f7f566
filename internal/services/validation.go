package services

import (
	"time"

	"eventlottery/internal/domain"
)

// IsWithinRegistrationWindow reports whether now falls inside the event's
// registration window. The window bounds are stored as strings; missing or
// unparseable values fail closed.
func IsWithinRegistrationWindow(event *domain.Event, now time.Time) bool {
	if event == nil {
		return false
	}
	if event.RegistrationOpen == "" || event.RegistrationClose == "" {
		return false
	}
	open, err := time.Parse(domain.TimeLayout, event.RegistrationOpen)
	if err != nil {
		return false
	}
	closeAt, err := time.Parse(domain.TimeLayout, event.RegistrationClose)
	if err != nil {
		return false
	}
	return !now.Before(open) && !now.After(closeAt)
}

// HasCapacity reports whether the event can take another waitlist entry.
// A nil or non-positive MaxCapacity means unlimited.
func HasCapacity(event *domain.Event, currentWaitingCount int) bool {
	if event == nil {
		return false
	}
	if event.MaxCapacity == nil || *event.MaxCapacity <= 0 {
		return true
	}
	return currentWaitingCount < *event.MaxCapacity
}
