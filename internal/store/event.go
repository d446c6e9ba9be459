package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eventdesk/apiserver/types"
)

const eventColumns = `id, title, description, event_date, event_time, location, capacity, user_id, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (types.Event, error) {
	var event types.Event
	var date time.Time
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&date,
		&event.Time,
		&event.Location,
		&event.Capacity,
		&event.UserID,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return types.Event{}, err
	}
	event.Date = types.NewDate(date)
	return event, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]types.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]types.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) List(ctx context.Context) ([]types.Event, error) {
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date, id`)
}

func (r *EventRepository) ListByOwner(ctx context.Context, userID int) ([]types.Event, error) {
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE user_id = $1 ORDER BY event_date, id`, userID)
}

func (r *EventRepository) Get(ctx context.Context, id int) (types.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Event{}, ErrNotFound
		}
		return types.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event types.Event) (types.Event, error) {
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `
		INSERT INTO events (title, description, event_date, event_time, location, capacity, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Date.String(),
		event.Time,
		event.Location,
		event.Capacity,
		event.UserID,
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.ID); err != nil {
		return types.Event{}, err
	}

	return event, nil
}

// Update overwrites the mutable fields of an event and returns the stored row.
func (r *EventRepository) Update(ctx context.Context, event types.Event) (types.Event, error) {
	const query = `
		UPDATE events
		SET title = $1,
			description = $2,
			event_date = $3,
			event_time = $4,
			location = $5,
			capacity = $6,
			updated_at = $7
		WHERE id = $8
		RETURNING ` + eventColumns
	row := r.db.QueryRowContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Date.String(),
		event.Time,
		event.Location,
		event.Capacity,
		time.Now(),
		event.ID,
	)
	updated, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Event{}, ErrNotFound
		}
		return types.Event{}, err
	}
	return updated, nil
}

// Delete removes an event together with its registrations and feedback in a
// single transaction and returns the number of event rows removed.
func (r *EventRepository) Delete(ctx context.Context, id int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feedback WHERE event_id = $1`, id); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1`, id); err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}
