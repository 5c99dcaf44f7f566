package domain

import (
	"context"
	"time"
)

// Entrant is a participant profile keyed by the opaque device id supplied by
// the client. Profiles are created lazily on first registration action and
// are cleared rather than deleted so membership and notification rows never
// dangle.
// swagger:model Entrant
type Entrant struct {
	DeviceID   string    `json:"device_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Registered bool      `json:"registered"`
	Banned     bool      `json:"banned"`
	CreatedAt  time.Time `json:"created_at"`
}

// EntrantUpdate carries a partial profile update with merge semantics: nil
// fields keep their stored value.
type EntrantUpdate struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Registered *bool   `json:"registered"`
}

// IsEmpty reports whether the update contains no fields.
func (u EntrantUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Registered == nil
}

// Notification categories written by the draw and cancellation flows.
const (
	NotificationCategoryWinner    = "winner"
	NotificationCategoryCancelled = "cancelled"
)

// Responses recorded on a winner notification.
const (
	NotificationResponseAccepted = "accepted"
	NotificationResponseDeclined = "declined"
)

// Notification is an inbox entry owned by one entrant.
// swagger:model Notification
type Notification struct {
	ID          string     `json:"id"`
	DeviceID    string     `json:"device_id"`
	EventID     string     `json:"event_id"`
	Message     string     `json:"message"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"created_at"`
	Read        bool       `json:"read"`
	Response    *string    `json:"response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// NotificationUpdate is a partial update of a notification's read/response
// state. An update with no fields is rejected with ErrInvalidInput.
type NotificationUpdate struct {
	Read        *bool
	Response    *string
	RespondedAt *time.Time
}

// IsEmpty reports whether the update contains no fields.
func (u NotificationUpdate) IsEmpty() bool {
	return u.Read == nil && u.Response == nil && u.RespondedAt == nil
}

// EntrantRepository defines storage for profiles and their notification
// inboxes.
type EntrantRepository interface {
	Get(ctx context.Context, deviceID string) (*Entrant, error)
	// Upsert creates the profile if absent and merges the supplied fields
	// otherwise. Returns the stored profile.
	Upsert(ctx context.Context, deviceID string, upd EntrantUpdate) (*Entrant, error)
	// Clear blanks personal fields and resets the registered flag while
	// preserving created_at; it creates the row when absent.
	Clear(ctx context.Context, deviceID string, now time.Time) error
	SetBanned(ctx context.Context, deviceID string, banned bool) error
	AddNotification(ctx context.Context, deviceID, eventID, message, category string, now time.Time) (string, error)
	// ListNotifications returns the inbox newest first.
	ListNotifications(ctx context.Context, deviceID string) ([]*Notification, error)
	UpdateNotification(ctx context.Context, deviceID, notificationID string, upd NotificationUpdate) error
}

// EntrantService defines profile and inbox operations.
type EntrantService interface {
	GetProfile(ctx context.Context, deviceID string) (*Entrant, error)
	UpsertProfile(ctx context.Context, deviceID string, upd EntrantUpdate) (*Entrant, error)
	ClearProfile(ctx context.Context, deviceID string) error
	SetBanned(ctx context.Context, deviceID string, banned bool) error
	// IsBanned treats an unknown device id as not banned.
	IsBanned(ctx context.Context, deviceID string) (bool, error)
	ListNotifications(ctx context.Context, deviceID string) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, deviceID, notificationID string) error
}
