package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrFeedbackNotFound       = errors.New("feedback submission not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
)
