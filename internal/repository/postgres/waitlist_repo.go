package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventlottery/internal/domain"
)

type waitlistRepository struct {
	DB *sql.DB
}

func NewWaitlistRepository(db *sql.DB) domain.WaitlistRepository {
	return &waitlistRepository{
		DB: db,
	}
}

// orderColumn maps a membership state to the timestamp that orders its
// listing. Pool order matters: unnamed promotion takes the first entry.
func orderColumn(state domain.MembershipState) string {
	switch state {
	case domain.StateWaiting:
		return "request_time"
	case domain.StateWinners:
		return "invited_at"
	case domain.StateReplacementPool:
		return "added_to_pool_at"
	default:
		return "responded_at"
	}
}

func (r *waitlistRepository) IsInState(ctx context.Context, eventID, deviceID string, state domain.MembershipState) (bool, error) {
	if eventID == "" || deviceID == "" || !state.Valid() {
		return false, domain.ErrInvalidInput
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM waitlist_entries
			WHERE event_id = $1 AND device_id = $2 AND state = $3
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, eventID, deviceID, string(state)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *waitlistRepository) CountByState(ctx context.Context, eventID string, state domain.MembershipState) (int, error) {
	if eventID == "" || !state.Valid() {
		return 0, domain.ErrInvalidInput
	}
	query := `SELECT COUNT(*) FROM waitlist_entries WHERE event_id = $1 AND state = $2`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, eventID, string(state)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *waitlistRepository) AddToWaiting(ctx context.Context, eventID, deviceID string, requestTime time.Time) error {
	if eventID == "" || deviceID == "" {
		return domain.ErrInvalidInput
	}
	// Upsert: re-joining refreshes the request time, and a terminal-state
	// entrant moves back to waiting with the other timestamps cleared.
	query := `
		INSERT INTO waitlist_entries (event_id, device_id, state, request_time)
		VALUES ($1, $2, 'waiting', $3)
		ON CONFLICT (event_id, device_id) DO UPDATE SET
			state = 'waiting',
			request_time = EXCLUDED.request_time,
			invited_at = NULL,
			added_to_pool_at = NULL,
			responded_at = NULL,
			is_replacement = FALSE
	`
	_, err := r.DB.ExecContext(ctx, query, eventID, deviceID, requestTime)
	return err
}

func (r *waitlistRepository) RemoveFromWaiting(ctx context.Context, eventID, deviceID string) error {
	if eventID == "" || deviceID == "" {
		return domain.ErrInvalidInput
	}
	query := `DELETE FROM waitlist_entries WHERE event_id = $1 AND device_id = $2 AND state = 'waiting'`
	_, err := r.DB.ExecContext(ctx, query, eventID, deviceID)
	return err
}

func (r *waitlistRepository) ListByState(ctx context.Context, eventID string, state domain.MembershipState) ([]*domain.WaitlistEntry, error) {
	if eventID == "" || !state.Valid() {
		return nil, domain.ErrInvalidInput
	}
	query := fmt.Sprintf(`
		SELECT event_id, device_id, state, request_time, invited_at, added_to_pool_at, responded_at, is_replacement
		FROM waitlist_entries
		WHERE event_id = $1 AND state = $2
		ORDER BY %s ASC
	`, orderColumn(state))
	rows, err := r.DB.QueryContext(ctx, query, eventID, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.WaitlistEntry
	for rows.Next() {
		entry := &domain.WaitlistEntry{}
		var requestTime, invitedAt, addedToPoolAt, respondedAt sql.NullTime
		if err := rows.Scan(
			&entry.EventID, &entry.DeviceID, &entry.State,
			&requestTime, &invitedAt, &addedToPoolAt, &respondedAt,
			&entry.IsReplacement,
		); err != nil {
			return nil, err
		}
		entry.RequestTime = nullTimePtr(requestTime)
		entry.InvitedAt = nullTimePtr(invitedAt)
		entry.AddedToPoolAt = nullTimePtr(addedToPoolAt)
		entry.RespondedAt = nullTimePtr(respondedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.WaitlistEntry{}
	}
	return entries, nil
}

func (r *waitlistRepository) MoveToWinnersAndPool(ctx context.Context, eventID string, winnerIDs, replacementIDs []string, now time.Time) error {
	if eventID == "" {
		return domain.ErrInvalidInput
	}
	if len(winnerIDs) == 0 {
		return domain.ErrInvalidInput
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	winnersQuery := `
		INSERT INTO waitlist_entries (event_id, device_id, state, invited_at)
		SELECT $1, unnest($2::text[]), 'winners', $3
		ON CONFLICT (event_id, device_id) DO UPDATE SET
			state = 'winners',
			invited_at = EXCLUDED.invited_at,
			request_time = NULL,
			added_to_pool_at = NULL,
			responded_at = NULL,
			is_replacement = FALSE
	`
	if _, err := tx.ExecContext(ctx, winnersQuery, eventID, pq.Array(winnerIDs), now); err != nil {
		return err
	}

	if len(replacementIDs) > 0 {
		poolQuery := `
			INSERT INTO waitlist_entries (event_id, device_id, state, added_to_pool_at)
			SELECT $1, unnest($2::text[]), 'replacement_pool', $3
			ON CONFLICT (event_id, device_id) DO UPDATE SET
				state = 'replacement_pool',
				added_to_pool_at = EXCLUDED.added_to_pool_at,
				request_time = NULL,
				invited_at = NULL,
				responded_at = NULL,
				is_replacement = FALSE
		`
		if _, err := tx.ExecContext(ctx, poolQuery, eventID, pq.Array(replacementIDs), now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *waitlistRepository) PromoteReplacement(ctx context.Context, eventID, deviceID string, now time.Time) error {
	if eventID == "" || deviceID == "" {
		return domain.ErrInvalidInput
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var state string
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM waitlist_entries WHERE event_id = $1 AND device_id = $2 FOR UPDATE`,
		eventID, deviceID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if domain.MembershipState(state) != domain.StateReplacementPool {
		return domain.ErrInvalidState
	}

	query := `
		UPDATE waitlist_entries
		SET state = 'winners', invited_at = $3, added_to_pool_at = NULL, is_replacement = TRUE
		WHERE event_id = $1 AND device_id = $2
	`
	if _, err := tx.ExecContext(ctx, query, eventID, deviceID, now); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *waitlistRepository) ResolveWinnerResponse(ctx context.Context, eventID, deviceID string, accepted bool, now time.Time) error {
	if eventID == "" || deviceID == "" {
		return domain.ErrInvalidInput
	}
	state := domain.StateCancelled
	if accepted {
		state = domain.StateAccepted
	}
	// Single upsert, no winners guard: the membership row gets the terminal
	// state whatever it held before. is_replacement is kept for audit.
	query := `
		INSERT INTO waitlist_entries (event_id, device_id, state, responded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, device_id) DO UPDATE SET
			state = EXCLUDED.state,
			responded_at = EXCLUDED.responded_at,
			request_time = NULL,
			invited_at = NULL,
			added_to_pool_at = NULL
	`
	_, err := r.DB.ExecContext(ctx, query, eventID, deviceID, string(state), now)
	return err
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
