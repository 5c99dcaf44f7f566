package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventlottery/internal/domain"
)

type entrantRepository struct {
	DB *sql.DB
}

func NewEntrantRepository(db *sql.DB) domain.EntrantRepository {
	return &entrantRepository{
		DB: db,
	}
}

func (r *entrantRepository) Get(ctx context.Context, deviceID string) (*domain.Entrant, error) {
	if deviceID == "" {
		return nil, domain.ErrInvalidInput
	}
	query := `
		SELECT device_id, name, email, phone, registered, banned, created_at
		FROM entrants
		WHERE device_id = $1
	`
	entrant := &domain.Entrant{}
	err := r.DB.QueryRowContext(ctx, query, deviceID).Scan(
		&entrant.DeviceID, &entrant.Name, &entrant.Email, &entrant.Phone,
		&entrant.Registered, &entrant.Banned, &entrant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return entrant, nil
}

func (r *entrantRepository) Upsert(ctx context.Context, deviceID string, upd domain.EntrantUpdate) (*domain.Entrant, error) {
	if deviceID == "" {
		return nil, domain.ErrInvalidInput
	}
	// Merge semantics: nil parameters keep the stored value on conflict and
	// fall back to zero values on first insert.
	query := `
		INSERT INTO entrants (device_id, name, email, phone, registered)
		VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''), COALESCE($5, FALSE))
		ON CONFLICT (device_id) DO UPDATE SET
			name = COALESCE($2, entrants.name),
			email = COALESCE($3, entrants.email),
			phone = COALESCE($4, entrants.phone),
			registered = COALESCE($5, entrants.registered)
		RETURNING device_id, name, email, phone, registered, banned, created_at
	`
	entrant := &domain.Entrant{}
	err := r.DB.QueryRowContext(ctx, query, deviceID, upd.Name, upd.Email, upd.Phone, upd.Registered).Scan(
		&entrant.DeviceID, &entrant.Name, &entrant.Email, &entrant.Phone,
		&entrant.Registered, &entrant.Banned, &entrant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entrant, nil
}

func (r *entrantRepository) Clear(ctx context.Context, deviceID string, now time.Time) error {
	if deviceID == "" {
		return domain.ErrInvalidInput
	}
	// The row is kept (and created when absent) so memberships and
	// notifications never reference a missing entrant. created_at survives.
	query := `
		INSERT INTO entrants (device_id, name, email, phone, registered, created_at)
		VALUES ($1, '', '', '', FALSE, $2)
		ON CONFLICT (device_id) DO UPDATE SET
			name = '',
			email = '',
			phone = '',
			registered = FALSE
	`
	_, err := r.DB.ExecContext(ctx, query, deviceID, now)
	return err
}

func (r *entrantRepository) SetBanned(ctx context.Context, deviceID string, banned bool) error {
	if deviceID == "" {
		return domain.ErrInvalidInput
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE entrants SET banned = $2 WHERE device_id = $1`, deviceID, banned)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *entrantRepository) AddNotification(ctx context.Context, deviceID, eventID, message, category string, now time.Time) (string, error) {
	if deviceID == "" || eventID == "" || message == "" {
		return "", domain.ErrInvalidInput
	}
	query := `
		INSERT INTO notifications (device_id, event_id, message, category, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id string
	if err := r.DB.QueryRowContext(ctx, query, deviceID, eventID, message, category, now).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *entrantRepository) ListNotifications(ctx context.Context, deviceID string) ([]*domain.Notification, error) {
	if deviceID == "" {
		return nil, domain.ErrInvalidInput
	}
	query := `
		SELECT id, device_id, event_id, message, category, created_at, read, response, responded_at
		FROM notifications
		WHERE device_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		var response sql.NullString
		var respondedAt sql.NullTime
		if err := rows.Scan(
			&n.ID, &n.DeviceID, &n.EventID, &n.Message, &n.Category,
			&n.CreatedAt, &n.Read, &response, &respondedAt,
		); err != nil {
			return nil, err
		}
		if response.Valid {
			v := response.String
			n.Response = &v
		}
		n.RespondedAt = nullTimePtr(respondedAt)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	return notifications, nil
}

func (r *entrantRepository) UpdateNotification(ctx context.Context, deviceID, notificationID string, upd domain.NotificationUpdate) error {
	if deviceID == "" || notificationID == "" {
		return domain.ErrInvalidInput
	}
	if upd.IsEmpty() {
		return domain.ErrInvalidInput
	}

	var sets []string
	args := []any{deviceID, notificationID}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Read != nil {
		add("read", *upd.Read)
	}
	if upd.Response != nil {
		add("response", *upd.Response)
	}
	if upd.RespondedAt != nil {
		add("responded_at", *upd.RespondedAt)
	}

	query := `UPDATE notifications SET ` + strings.Join(sets, ", ") + ` WHERE device_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
