package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is a stored recommend call.
type Recommendation struct {
	ID                uuid.UUID `json:"id"`
	WhiskyNames       []string  `json:"whisky_names"`
	RecommendedWhisky string    `json:"recommended_whisky,omitempty"`
	Outcome           string    `json:"outcome"`
	Error             *string   `json:"error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Failed reports whether the backend call did not produce a recommendation.
func (r *Recommendation) Failed() bool {
	return r.Outcome != OutcomeDelivered
}
