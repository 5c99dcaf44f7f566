package domain

import (
	"context"
	"time"
)

// TimeLayout is the format used for the event schedule and registration
// window fields. The window fields are stored as strings and parsed at
// validation time; unparseable values fail closed.
const TimeLayout = "2006-01-02T15:04:05"

// Event represents a lottery event owned by an organizer.
// swagger:model Event
type Event struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Location          string    `json:"location"`
	EventDateTime     string    `json:"event_date_time"`
	RegistrationOpen  string    `json:"registration_open"`
	RegistrationClose string    `json:"registration_close"`
	OrganizerID       string    `json:"organizer_id"`
	MaxCapacity       *int      `json:"max_capacity"` // nil or <= 0 means unlimited
	Open              bool      `json:"open"`
	QRCode            string    `json:"qr_code"`
	DrawInProgress    bool      `json:"draw_in_progress"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is set by the
// repository on create.
func NewEvent(name, description, location, eventDateTime, registrationOpen, registrationClose, organizerID string, maxCapacity *int) *Event {
	return &Event{
		Name:              name,
		Description:       description,
		Location:          location,
		EventDateTime:     eventDateTime,
		RegistrationOpen:  registrationOpen,
		RegistrationClose: registrationClose,
		OrganizerID:       organizerID,
		MaxCapacity:       maxCapacity,
		Open:              true,
	}
}

// EventUpdate carries a partial event update. Nil fields keep their current
// value. A MaxCapacity of 0 or less clears the capacity limit.
type EventUpdate struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	Location          *string `json:"location"`
	EventDateTime     *string `json:"event_date_time"`
	RegistrationOpen  *string `json:"registration_open"`
	RegistrationClose *string `json:"registration_close"`
	MaxCapacity       *int    `json:"max_capacity"`
	Open              *bool   `json:"open"`
}

// IsEmpty reports whether the update contains no fields.
func (u EventUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Location == nil &&
		u.EventDateTime == nil && u.RegistrationOpen == nil && u.RegistrationClose == nil &&
		u.MaxCapacity == nil && u.Open == nil
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	ListByOrganizerID(ctx context.Context, organizerID string) ([]*Event, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	// TryBeginDraw atomically flips the per-event draw flag from false to
	// true. Returns ErrDrawInProgress if it is already set, ErrNotFound if
	// the event does not exist.
	TryBeginDraw(ctx context.Context, id string) error
	// EndDraw clears the draw flag. Safe to call when the flag is not set.
	EndDraw(ctx context.Context, id string) error
}

// MemberCounts reports how many entrants occupy each membership set of one
// event.
// swagger:model MemberCounts
type MemberCounts struct {
	Waiting         int `json:"waiting"`
	Winners         int `json:"winners"`
	ReplacementPool int `json:"replacement_pool"`
	Accepted        int `json:"accepted"`
	Cancelled       int `json:"cancelled"`
}

// EventService defines organizer-facing event operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	// UpdateEvent applies a partial update. Only the organizer may mutate
	// the event; anyone else gets ErrForbidden.
	UpdateEvent(ctx context.Context, eventID, callerID string, upd EventUpdate) (*Event, error)
	// ListMembers returns one membership set of the event in store order.
	ListMembers(ctx context.Context, eventID string, state MembershipState) ([]*WaitlistEntry, error)
	MemberCounts(ctx context.Context, eventID string) (*MemberCounts, error)
}
