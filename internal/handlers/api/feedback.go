package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"whiskyrec/internal/backend"
	"whiskyrec/internal/metrics"
	"whiskyrec/internal/models"
	"whiskyrec/internal/validation"
)

// FeedbackSender delivers a feedback record to the backend.
type FeedbackSender interface {
	SubmitFeedback(ctx context.Context, rec models.FeedbackRecord) error
}

// FeedbackRecorder stores feedback submissions.
type FeedbackRecorder interface {
	RecordFeedback(s models.FeedbackSubmission)
}

// FeedbackHandler forwards feedback records to the backend.
type FeedbackHandler struct {
	sender   FeedbackSender
	recorder FeedbackRecorder
}

// NewFeedbackHandler creates a new API feedback handler. recorder may be nil.
func NewFeedbackHandler(sender FeedbackSender, recorder FeedbackRecorder) *FeedbackHandler {
	return &FeedbackHandler{sender: sender, recorder: recorder}
}

// Submit validates a FeedbackRecord and posts it to the backend.
func (h *FeedbackHandler) Submit(c fiber.Ctx) error {
	var rec models.FeedbackRecord
	if err := c.Bind().JSON(&rec); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	// The branch that was not chosen carries nothing.
	if rec.Feedback1 == "dont-know" {
		rec.Rating = nil
	} else if rec.Feedback1 == "know" {
		rec.Feedback2 = ""
	}
	if err := validation.Struct(rec); err != nil {
		metrics.RecordFeedback(rec.Feedback1, models.OutcomeRejected)
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	sub := models.FeedbackSubmission{Record: rec, CreatedAt: time.Now()}
	if user, ok := c.Locals("user").(*models.User); ok {
		sub.SubmittedBy = user.Attribution()
	}

	if err := h.sender.SubmitFeedback(c.Context(), rec); err != nil {
		slog.Error("feedback submission failed", "error", err)
		msg := err.Error()
		sub.Outcome = models.OutcomeFailed
		sub.Error = &msg
		h.record(sub)
		metrics.RecordFeedback(rec.Feedback1, models.OutcomeFailed)
		if errors.Is(err, backend.ErrBackendUnavailable) {
			return jsonError(c, fiber.StatusServiceUnavailable, "feedback service unavailable")
		}
		return jsonError(c, fiber.StatusBadGateway, "failed to submit feedback")
	}

	sub.Outcome = models.OutcomeDelivered
	h.record(sub)
	metrics.RecordFeedback(rec.Feedback1, models.OutcomeDelivered)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   rec,
	})
}

func (h *FeedbackHandler) record(s models.FeedbackSubmission) {
	if h.recorder != nil {
		h.recorder.RecordFeedback(s)
	}
}
