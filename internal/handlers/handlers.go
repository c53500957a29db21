package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"whiskyrec/internal/form"
	"whiskyrec/internal/models"
)

const (
	stateKey    = "form_state"
	alertTarget = "#alerts"
)

// Recommender asks the backend for a recommendation.
type Recommender interface {
	Recommend(ctx context.Context, slots [form.SlotCount]form.Slot) (string, error)
}

// FeedbackSender delivers a feedback record to the backend.
type FeedbackSender interface {
	SubmitFeedback(ctx context.Context, rec models.FeedbackRecord) error
}

// Recorder keeps an audit trail of backend calls.
type Recorder interface {
	RecordFeedback(s models.FeedbackSubmission)
	RecordRecommendation(r models.Recommendation)
}

// NopRecorder discards everything. Used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) RecordFeedback(models.FeedbackSubmission)   {}
func (NopRecorder) RecordRecommendation(models.Recommendation) {}

// Alert levels map to the styles in partials/alert.
const (
	alertError   = "error"
	alertSuccess = "success"
)

// htmxAlert renders a message into the page's alert region instead of the
// request's own target, so the element that triggered the request keeps its
// content. Uses 200 status so HTMX processes the swap (HTMX ignores non-2xx by default).
func htmxAlert(c fiber.Ctx, level, message string) error {
	c.Set("HX-Retarget", alertTarget)
	c.Set("HX-Reswap", "innerHTML")
	return c.Render("partials/alert", fiber.Map{
		"Level":   level,
		"Message": message,
	}, "")
}

// htmxError renders an error alert.
func htmxError(c fiber.Ctx, message string) error {
	return htmxAlert(c, alertError, message)
}

// loadState returns the visitor's form state from their session.
func loadState(c fiber.Ctx) form.State {
	sess := session.FromContext(c)
	if sess == nil {
		return form.State{}
	}
	raw, _ := sess.Get(stateKey).(string)
	return form.DecodeState(raw)
}

// saveState stores the visitor's form state in their session.
func saveState(c fiber.Ctx, st form.State) {
	sess := session.FromContext(c)
	if sess == nil {
		return
	}
	raw, err := st.Encode()
	if err != nil {
		slog.Error("failed to encode form state", "error", err)
		return
	}
	sess.Set(stateKey, raw)
}

// guardKey identifies one control of one visitor for the in-flight guard.
func guardKey(c fiber.Ctx, control string) string {
	if sess := session.FromContext(c); sess != nil {
		return sess.ID() + ":" + control
	}
	return c.IP() + ":" + control
}

func currentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
