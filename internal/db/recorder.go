package db

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"whiskyrec/internal/models"
)

// Recorder stores audit rows in the background so page requests never wait on the database.
type Recorder struct {
	db *DB
	wg sync.WaitGroup
}

// NewRecorder creates a recorder backed by database.
func NewRecorder(database *DB) *Recorder {
	return &Recorder{db: database}
}

// RecordFeedback asynchronously stores a feedback submission.
func (r *Recorder) RecordFeedback(s models.FeedbackSubmission) {
	r.run(func(ctx context.Context) {
		if err := r.db.InsertFeedback(ctx, &s); err != nil {
			slog.Error("failed to record feedback", "feedback1", s.Record.Feedback1, "outcome", s.Outcome, "error", err)
		}
	})
}

// RecordRecommendation asynchronously stores a recommend call.
func (r *Recorder) RecordRecommendation(rec models.Recommendation) {
	r.run(func(ctx context.Context) {
		if err := r.db.InsertRecommendation(ctx, &rec); err != nil {
			slog.Error("failed to record recommendation", "outcome", rec.Outcome, "error", err)
		}
	})
}

func (r *Recorder) run(fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until pending writes finish. Called on shutdown.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
