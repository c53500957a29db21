package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"whiskyrec/internal/models"
)

// InsertRecommendation stores one recommend call. A zero ID is replaced with a new one.
func (d *DB) InsertRecommendation(ctx context.Context, r *models.Recommendation) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return d.Pool.QueryRow(ctx, `
		INSERT INTO recommendations (id, whisky_names, recommended_whisky, outcome, error)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, r.ID, r.WhiskyNames, r.RecommendedWhisky, r.Outcome, r.Error).Scan(&r.CreatedAt)
}

// GetRecommendation returns one stored recommend call.
func (d *DB) GetRecommendation(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	var r models.Recommendation
	err := d.Pool.QueryRow(ctx, `
		SELECT id, whisky_names, recommended_whisky, outcome, error, created_at
		FROM recommendations WHERE id = $1
	`, id).Scan(&r.ID, &r.WhiskyNames, &r.RecommendedWhisky, &r.Outcome, &r.Error, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecommendationNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListRecentRecommendations returns the newest recommend calls first.
func (d *DB) ListRecentRecommendations(ctx context.Context, limit int) ([]models.Recommendation, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, whisky_names, recommended_whisky, outcome, error, created_at
		FROM recommendations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Recommendation
	for rows.Next() {
		var r models.Recommendation
		if err := rows.Scan(&r.ID, &r.WhiskyNames, &r.RecommendedWhisky, &r.Outcome, &r.Error, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
