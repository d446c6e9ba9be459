package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eventdesk/apiserver/types"
)

// RegistrationRepository handles persistence for event registrations.
type RegistrationRepository struct {
	db *sql.DB
}

func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int) ([]types.Registration, error) {
	const query = `
		SELECT id, event_id, user_id, username, email, contact_number, address, attended, created_at
		FROM registrations
		WHERE event_id = $1`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := make([]types.Registration, 0)
	for rows.Next() {
		var reg types.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.EventID,
			&reg.UserID,
			&reg.Username,
			&reg.Email,
			&reg.ContactNumber,
			&reg.Address,
			&reg.Attended,
			&reg.CreatedAt,
		); err != nil {
			return nil, err
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *RegistrationRepository) Exists(ctx context.Context, userID, eventID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a registration while holding a row lock on the event, so
// the capacity check and the insert cannot interleave with another
// registration for the same event.
func (r *RegistrationRepository) Create(ctx context.Context, reg types.Registration) (types.Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Registration{}, err
	}
	defer tx.Rollback()

	var capacity int
	err = tx.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, reg.EventID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Registration{}, ErrNotFound
		}
		return types.Registration{}, err
	}

	var taken int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM registrations WHERE event_id = $1`, reg.EventID).Scan(&taken); err != nil {
		return types.Registration{}, err
	}
	if taken >= capacity {
		return types.Registration{}, ErrCapacityReached
	}

	reg.CreatedAt = time.Now()
	const insert = `
		INSERT INTO registrations (event_id, user_id, username, email, contact_number, address, attended, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insert,
		reg.EventID,
		reg.UserID,
		reg.Username,
		reg.Email,
		reg.ContactNumber,
		reg.Address,
		reg.Attended,
		reg.CreatedAt,
	).Scan(&reg.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Registration{}, ErrDuplicate
		}
		return types.Registration{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Registration{}, err
	}
	return reg, nil
}
