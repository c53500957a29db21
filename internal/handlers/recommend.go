package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"whiskyrec/internal/backend"
	"whiskyrec/internal/form"
	"whiskyrec/internal/metrics"
	"whiskyrec/internal/models"
	"whiskyrec/internal/validation"
)

const (
	msgSelectAll          = "Please select a distillery and a whisky for all three slots."
	msgRecommendationFail = "Failed to fetch recommendation. Please try again."
)

// RecommendHandler submits the three selections to the recommendation backend.
type RecommendHandler struct {
	backend  Recommender
	guard    *form.Guard
	recorder Recorder
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(rec Recommender, guard *form.Guard, recorder Recorder) *RecommendHandler {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &RecommendHandler{backend: rec, guard: guard, recorder: recorder}
}

// recommendForm is the body of the recommend form.
type recommendForm struct {
	Distillery1 string `form:"distillery1" validate:"required"`
	Whisky1     string `form:"whisky1" validate:"required"`
	Distillery2 string `form:"distillery2" validate:"required"`
	Whisky2     string `form:"whisky2" validate:"required"`
	Distillery3 string `form:"distillery3" validate:"required"`
	Whisky3     string `form:"whisky3" validate:"required"`
}

func (f recommendForm) slots() [form.SlotCount]form.Slot {
	return [form.SlotCount]form.Slot{
		{Distillery: f.Distillery1, Whisky: f.Whisky1},
		{Distillery: f.Distillery2, Whisky: f.Whisky2},
		{Distillery: f.Distillery3, Whisky: f.Whisky3},
	}
}

// Recommend asks the backend for a recommendation and swaps it into
// #recommendedWhisky. Failures go to the alert region and leave the previous
// recommendation in place.
func (h *RecommendHandler) Recommend(c fiber.Ctx) error {
	value := func(key string) string { return strings.TrimSpace(c.FormValue(key)) }
	f := recommendForm{
		Distillery1: value("distillery1"),
		Whisky1:     value("whisky1"),
		Distillery2: value("distillery2"),
		Whisky2:     value("whisky2"),
		Distillery3: value("distillery3"),
		Whisky3:     value("whisky3"),
	}
	if err := validation.Struct(f); err != nil {
		metrics.RecordRecommendation(models.OutcomeRejected)
		return htmxError(c, msgSelectAll)
	}
	slots := f.slots()

	ctx, release := h.guard.Begin(c.Context(), guardKey(c, "recommend"))
	defer release()

	rec := models.Recommendation{
		WhiskyNames: backend.WhiskyNames(slots),
		CreatedAt:   time.Now(),
	}

	name, err := h.backend.Recommend(ctx, slots)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// A newer click replaced this one; it renders the result.
			return c.SendStatus(fiber.StatusNoContent)
		}
		slog.Error("recommendation failed", "error", err)
		msg := err.Error()
		rec.Outcome = models.OutcomeFailed
		rec.Error = &msg
		h.recorder.RecordRecommendation(rec)
		metrics.RecordRecommendation(models.OutcomeFailed)
		return htmxError(c, msgRecommendationFail)
	}

	rec.Outcome = models.OutcomeDelivered
	rec.RecommendedWhisky = name
	h.recorder.RecordRecommendation(rec)
	metrics.RecordRecommendation(models.OutcomeDelivered)

	st := loadState(c)
	st.Slots = slots
	st.Recommendation = name
	saveState(c, st)

	return c.Render("partials/recommendation", fiber.Map{
		"Recommendation": backend.RecommendationText(name),
	}, "")
}
