package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"whiskyrec/internal/backend"
	"whiskyrec/internal/form"
	"whiskyrec/internal/metrics"
	"whiskyrec/internal/models"
	"whiskyrec/internal/validation"
)

// Recommender asks the backend for a recommendation.
type Recommender interface {
	Recommend(ctx context.Context, slots [form.SlotCount]form.Slot) (string, error)
}

// RecommendationRecorder stores recommendation outcomes.
type RecommendationRecorder interface {
	RecordRecommendation(r models.Recommendation)
}

// RecommendHandler forwards recommend requests to the backend.
type RecommendHandler struct {
	backend  Recommender
	recorder RecommendationRecorder
}

// NewRecommendHandler creates a new API recommend handler. recorder may be nil.
func NewRecommendHandler(rec Recommender, recorder RecommendationRecorder) *RecommendHandler {
	return &RecommendHandler{backend: rec, recorder: recorder}
}

// RecommendRequest is the body of POST /api/recommend.
type RecommendRequest struct {
	Slots []form.Slot `json:"slots" validate:"len=3,dive"`
}

// RecommendResponse is the data of a successful POST /api/recommend.
type RecommendResponse struct {
	RecommendedWhisky string `json:"recommended_whisky"`
	Text              string `json:"text"`
}

// Recommend validates three selections and returns the backend's recommendation.
func (h *RecommendHandler) Recommend(c fiber.Ctx) error {
	var req RecommendRequest
	if err := c.Bind().JSON(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	for i := range req.Slots {
		req.Slots[i] = req.Slots[i].Trimmed()
	}
	if err := validation.Struct(req); err != nil {
		metrics.RecordRecommendation(models.OutcomeRejected)
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	var slots [form.SlotCount]form.Slot
	copy(slots[:], req.Slots)

	rec := models.Recommendation{
		WhiskyNames: backend.WhiskyNames(slots),
		CreatedAt:   time.Now(),
	}
	name, err := h.backend.Recommend(c.Context(), slots)
	if err != nil {
		slog.Error("recommendation failed", "error", err)
		msg := err.Error()
		rec.Outcome = models.OutcomeFailed
		rec.Error = &msg
		h.record(rec)
		metrics.RecordRecommendation(models.OutcomeFailed)
		if errors.Is(err, backend.ErrBackendUnavailable) {
			return jsonError(c, fiber.StatusServiceUnavailable, "recommendation service unavailable")
		}
		return jsonError(c, fiber.StatusBadGateway, "failed to fetch recommendation")
	}

	rec.Outcome = models.OutcomeDelivered
	rec.RecommendedWhisky = name
	h.record(rec)
	metrics.RecordRecommendation(models.OutcomeDelivered)

	return jsonSuccess(c, RecommendResponse{
		RecommendedWhisky: name,
		Text:              backend.RecommendationText(name),
	})
}

func (h *RecommendHandler) record(r models.Recommendation) {
	if h.recorder != nil {
		h.recorder.RecordRecommendation(r)
	}
}
