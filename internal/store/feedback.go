package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eventdesk/apiserver/types"
)

// FeedbackRepository handles persistence for event feedback.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, fb types.Feedback) (types.Feedback, error) {
	now := time.Now()
	fb.CreatedAt = now
	fb.UpdatedAt = now

	const query = `
		INSERT INTO feedback (user_id, event_id, review, date_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		fb.UserID,
		fb.EventID,
		fb.Review,
		fb.DateTime,
		fb.CreatedAt,
		fb.UpdatedAt,
	).Scan(&fb.ID); err != nil {
		return types.Feedback{}, err
	}
	return fb, nil
}

func (r *FeedbackRepository) ListByEvent(ctx context.Context, eventID int) ([]types.Feedback, error) {
	const query = `
		SELECT f.id, f.user_id, f.event_id, u.username, f.review, f.date_time, f.created_at, f.updated_at
		FROM feedback f
		JOIN users u ON u.id = f.user_id
		WHERE f.event_id = $1
		ORDER BY f.date_time DESC, f.id DESC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.Feedback, 0)
	for rows.Next() {
		var fb types.Feedback
		if err := rows.Scan(
			&fb.ID,
			&fb.UserID,
			&fb.EventID,
			&fb.Username,
			&fb.Review,
			&fb.DateTime,
			&fb.CreatedAt,
			&fb.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *FeedbackRepository) ListByUser(ctx context.Context, userID int) ([]types.Feedback, error) {
	const query = `
		SELECT id, user_id, event_id, review, date_time, created_at, updated_at
		FROM feedback
		WHERE user_id = $1
		ORDER BY date_time DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.Feedback, 0)
	for rows.Next() {
		var fb types.Feedback
		if err := rows.Scan(
			&fb.ID,
			&fb.UserID,
			&fb.EventID,
			&fb.Review,
			&fb.DateTime,
			&fb.CreatedAt,
			&fb.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateReview replaces the review text of a feedback entry written by userID.
func (r *FeedbackRepository) UpdateReview(ctx context.Context, id, userID int, review string) (types.Feedback, error) {
	const query = `
		UPDATE feedback
		SET review = $1,
			updated_at = $2
		WHERE id = $3 AND user_id = $4
		RETURNING id, user_id, event_id, review, date_time, created_at, updated_at`
	var fb types.Feedback
	err := r.db.QueryRowContext(ctx, query, review, time.Now(), id, userID).Scan(
		&fb.ID,
		&fb.UserID,
		&fb.EventID,
		&fb.Review,
		&fb.DateTime,
		&fb.CreatedAt,
		&fb.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Feedback{}, ErrNotFound
		}
		return types.Feedback{}, err
	}
	return fb, nil
}

// Delete removes a feedback entry written by userID.
func (r *FeedbackRepository) Delete(ctx context.Context, id, userID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
