package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"whiskyrec/internal/models"
)

const feedbackColumns = `id, whisky1, whisky2, whisky3, recommended_whisky, feedback1, rating,
	feedback2, experience, submitted_at, submitted_by, outcome, error, created_at`

// InsertFeedback stores a feedback submission. A zero ID is replaced with a new one.
func (d *DB) InsertFeedback(ctx context.Context, s *models.FeedbackSubmission) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r := s.Record
	return d.Pool.QueryRow(ctx, `
		INSERT INTO feedback_submissions (id, whisky1, whisky2, whisky3, recommended_whisky, feedback1,
			rating, feedback2, experience, submitted_at, submitted_by, outcome, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`, s.ID, r.Whisky1, r.Whisky2, r.Whisky3, r.RecommendedWhisky, r.Feedback1,
		r.Rating, r.Feedback2, r.Experience, r.Timestamp, s.SubmittedBy, s.Outcome, s.Error,
	).Scan(&s.CreatedAt)
}

// GetFeedback returns one stored submission.
func (d *DB) GetFeedback(ctx context.Context, id uuid.UUID) (*models.FeedbackSubmission, error) {
	row := d.Pool.QueryRow(ctx, `SELECT `+feedbackColumns+` FROM feedback_submissions WHERE id = $1`, id)
	s, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListRecentFeedback returns the newest submissions first.
func (d *DB) ListRecentFeedback(ctx context.Context, limit int) ([]models.FeedbackSubmission, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback_submissions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FeedbackSubmission
	for rows.Next() {
		s, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CountFeedback returns submission totals grouped by feedback kind and outcome.
func (d *DB) CountFeedback(ctx context.Context) ([]models.FeedbackCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT feedback1, outcome, COUNT(*)
		FROM feedback_submissions
		GROUP BY feedback1, outcome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.FeedbackCount
	for rows.Next() {
		var c models.FeedbackCount
		if err := rows.Scan(&c.Feedback1, &c.Outcome, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func scanFeedback(row pgx.Row) (*models.FeedbackSubmission, error) {
	var s models.FeedbackSubmission
	r := &s.Record
	err := row.Scan(&s.ID, &r.Whisky1, &r.Whisky2, &r.Whisky3, &r.RecommendedWhisky, &r.Feedback1,
		&r.Rating, &r.Feedback2, &r.Experience, &r.Timestamp, &s.SubmittedBy, &s.Outcome, &s.Error, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
