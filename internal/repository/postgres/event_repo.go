package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventlottery/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, name, description, location, event_date_time, registration_open, registration_close, organizer_id, max_capacity, open, qr_code, draw_in_progress, created_at, updated_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	ev := &domain.Event{}
	var maxCapacity sql.NullInt64
	err := row.Scan(
		&ev.ID, &ev.Name, &ev.Description, &ev.Location,
		&ev.EventDateTime, &ev.RegistrationOpen, &ev.RegistrationClose,
		&ev.OrganizerID, &maxCapacity, &ev.Open, &ev.QRCode,
		&ev.DrawInProgress, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maxCapacity.Valid {
		v := int(maxCapacity.Int64)
		ev.MaxCapacity = &v
	}
	return ev, nil
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (name, description, location, event_date_time, registration_open, registration_close, organizer_id, max_capacity, open, qr_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var maxCapacity sql.NullInt64
	if event.MaxCapacity != nil && *event.MaxCapacity > 0 {
		maxCapacity = sql.NullInt64{Int64: int64(*event.MaxCapacity), Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query,
		event.Name, event.Description, event.Location,
		event.EventDateTime, event.RegistrationOpen, event.RegistrationClose,
		event.OrganizerID, maxCapacity, event.Open, event.QRCode,
		event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	ev, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ev, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC`
	return r.queryEvents(ctx, query)
}

func (r *eventRepository) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`
	return r.queryEvents(ctx, query, organizerID)
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	if upd.IsEmpty() {
		return nil, domain.ErrInvalidInput
	}

	sets := []string{"updated_at = now()"}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.EventDateTime != nil {
		add("event_date_time", *upd.EventDateTime)
	}
	if upd.RegistrationOpen != nil {
		add("registration_open", *upd.RegistrationOpen)
	}
	if upd.RegistrationClose != nil {
		add("registration_close", *upd.RegistrationClose)
	}
	if upd.MaxCapacity != nil {
		// Zero or negative clears the limit.
		var v sql.NullInt64
		if *upd.MaxCapacity > 0 {
			v = sql.NullInt64{Int64: int64(*upd.MaxCapacity), Valid: true}
		}
		add("max_capacity", v)
	}
	if upd.Open != nil {
		add("open", *upd.Open)
	}

	query := `UPDATE events SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + eventColumns
	ev, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ev, nil
}

func (r *eventRepository) TryBeginDraw(ctx context.Context, id string) error {
	query := `UPDATE events SET draw_in_progress = TRUE WHERE id = $1 AND draw_in_progress = FALSE`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Either the event does not exist or another draw holds the flag.
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrDrawInProgress
}

func (r *eventRepository) EndDraw(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE events SET draw_in_progress = FALSE WHERE id = $1`, id)
	return err
}
