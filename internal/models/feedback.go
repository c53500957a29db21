package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback outcome constants
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// FeedbackRecord is the body posted to the backend feedback endpoint.
// Rating is only set for "know" feedback, Feedback2 only for "dont-know".
type FeedbackRecord struct {
	Whisky1           string `json:"whisky1"`
	Whisky2           string `json:"whisky2"`
	Whisky3           string `json:"whisky3"`
	RecommendedWhisky string `json:"recommendedWhisky" validate:"required"`
	Feedback1         string `json:"feedback1" validate:"required,oneof=know dont-know"`
	Rating            *int   `json:"rating" validate:"omitempty,min=1,max=10"`
	Feedback2         string `json:"feedback2" validate:"max=1000"`
	Experience        string `json:"experience" validate:"omitempty,oneof=beginner enthusiast connoisseur"`
	Timestamp         string `json:"timestamp" validate:"required"`
}

// FeedbackSubmission is a stored copy of a FeedbackRecord and how delivery went.
type FeedbackSubmission struct {
	ID          uuid.UUID      `json:"id"`
	Record      FeedbackRecord `json:"record"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
	Outcome     string         `json:"outcome"`
	Error       *string        `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// FeedbackCount is the number of stored submissions per feedback kind and outcome.
type FeedbackCount struct {
	Feedback1 string
	Outcome   string
	Count     int64
}
