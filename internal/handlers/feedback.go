package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"whiskyrec/internal/config"
	"whiskyrec/internal/form"
	"whiskyrec/internal/metrics"
	"whiskyrec/internal/models"
	"whiskyrec/internal/validation"
)

const (
	msgFeedbackSent      = "Feedback submitted successfully!"
	msgFeedbackFail      = "Failed to submit feedback. Please try again."
	msgFeedbackKind      = "Please tell us whether you know this whisky."
	msgFeedbackNoRec     = "Get a recommendation before sending feedback."
	msgFeedbackBadRating = "Rating must be a whole number between 1 and 10."
)

// FeedbackHandler handles the feedback form.
type FeedbackHandler struct {
	sender   FeedbackSender
	guard    *form.Guard
	recorder Recorder
	cfg      *config.Config
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(sender FeedbackSender, guard *form.Guard, recorder Recorder, cfg *config.Config) *FeedbackHandler {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &FeedbackHandler{sender: sender, guard: guard, recorder: recorder, cfg: cfg}
}

type choice struct {
	Value   string
	Label   string
	Checked bool
}

// feedbackFormData builds the template data of an empty feedback form with
// kind checked.
func feedbackFormData(cfg *config.Config, kind form.FeedbackKind) fiber.Map {
	kinds := form.FeedbackKinds()
	choices := make([]choice, 0, len(kinds))
	for _, k := range kinds {
		label := k.Label()
		if l := cfg.Page.FeedbackLabels[string(k)]; l != "" {
			label = l
		}
		choices = append(choices, choice{Value: string(k), Label: label, Checked: k == kind})
	}

	levels := form.ExperienceLevels()
	experience := make([]choice, 0, len(levels))
	for _, lvl := range levels {
		label := cfg.Page.ExperienceLabels[lvl]
		if label == "" {
			label = lvl
		}
		experience = append(experience, choice{Value: lvl, Label: label})
	}

	return fiber.Map{
		"FeedbackKinds": choices,
		"Experience":    experience,
		"ReasonPrompt":  cfg.Page.ReasonPrompt,
		"Visibility":    form.ToggleFeedback(string(kind)),
	}
}

// Toggle renders the rating and reason fields for the checked radio value.
func (h *FeedbackHandler) Toggle(c fiber.Ctx) error {
	return c.Render("partials/feedback_fields", fiber.Map{
		"Visibility":   form.ToggleFeedback(c.Query("feedback1")),
		"ReasonPrompt": h.cfg.Page.ReasonPrompt,
	}, "")
}

// parseRating reads the optional rating field. Empty means no rating.
func parseRating(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Submit sends the feedback form to the backend. On success the form is
// re-rendered empty with a confirmation; on failure only an alert is shown.
func (h *FeedbackHandler) Submit(c fiber.Ctx) error {
	kind, err := form.ParseFeedbackKind(c.FormValue("feedback1"))
	if err != nil {
		metrics.RecordFeedback("unknown", models.OutcomeRejected)
		return htmxError(c, msgFeedbackKind)
	}

	st := loadState(c)
	rec := models.FeedbackRecord{
		Whisky1:           st.Slot(1).Whisky,
		Whisky2:           st.Slot(2).Whisky,
		Whisky3:           st.Slot(3).Whisky,
		RecommendedWhisky: recommendationText(st),
		Feedback1:         string(kind),
		Experience:        c.FormValue("experience"),
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	}

	switch kind {
	case form.FeedbackKnow:
		rating, err := parseRating(c.FormValue("rating"))
		if err != nil {
			metrics.RecordFeedback(string(kind), models.OutcomeRejected)
			return htmxError(c, msgFeedbackBadRating)
		}
		rec.Rating = rating
	case form.FeedbackDontKnow:
		rec.Feedback2 = strings.TrimSpace(c.FormValue("feedback2"))
	}

	if err := validation.Struct(rec); err != nil {
		metrics.RecordFeedback(string(kind), models.OutcomeRejected)
		var verr *validation.Error
		if errors.As(err, &verr) {
			switch {
			case verr.Has("recommendedWhisky"):
				return htmxError(c, msgFeedbackNoRec)
			case verr.Has("rating"):
				return htmxError(c, msgFeedbackBadRating)
			}
		}
		return htmxError(c, err.Error())
	}

	ctx, release := h.guard.Begin(c.Context(), guardKey(c, "feedback"))
	defer release()

	err = h.sender.SubmitFeedback(ctx, rec)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	sub := models.FeedbackSubmission{
		Record:      rec,
		SubmittedBy: currentUser(c).Attribution(),
		CreatedAt:   time.Now(),
	}
	if err != nil {
		slog.Error("feedback submission failed", "error", err, "feedback1", rec.Feedback1)
		msg := err.Error()
		sub.Outcome = models.OutcomeFailed
		sub.Error = &msg
		h.recorder.RecordFeedback(sub)
		metrics.RecordFeedback(string(kind), models.OutcomeFailed)
		return htmxError(c, msgFeedbackFail)
	}

	sub.Outcome = models.OutcomeDelivered
	h.recorder.RecordFeedback(sub)
	metrics.RecordFeedback(string(kind), models.OutcomeDelivered)

	data := feedbackFormData(h.cfg, form.FeedbackKnow)
	data["Alert"] = fiber.Map{"Level": alertSuccess, "Message": msgFeedbackSent}
	return c.Render("partials/feedback_form", data, "")
}
