package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"whiskyrec/internal/db"
	"whiskyrec/internal/models"
)

// HistoryStore reads stored submissions.
type HistoryStore interface {
	ListRecentFeedback(ctx context.Context, limit int) ([]models.FeedbackSubmission, error)
	GetFeedback(ctx context.Context, id uuid.UUID) (*models.FeedbackSubmission, error)
	ListRecentRecommendations(ctx context.Context, limit int) ([]models.Recommendation, error)
	GetRecommendation(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
}

// HistoryHandler lists stored feedback and recommendations.
type HistoryHandler struct {
	store HistoryStore
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func limitParam(c fiber.Ctx) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return defaultHistoryLimit
	}
	return min(n, maxHistoryLimit)
}

// Feedback returns the most recent feedback submissions.
func (h *HistoryHandler) Feedback(c fiber.Ctx) error {
	subs, err := h.store.ListRecentFeedback(c.Context(), limitParam(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to list feedback")
	}
	if subs == nil {
		subs = []models.FeedbackSubmission{}
	}
	return jsonSuccess(c, subs)
}

// FeedbackByID returns one stored feedback submission.
func (h *HistoryHandler) FeedbackByID(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid feedback id")
	}
	sub, err := h.store.GetFeedback(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrFeedbackNotFound) {
			return jsonError(c, fiber.StatusNotFound, "feedback not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch feedback")
	}
	return jsonSuccess(c, sub)
}

// Recommendations returns the most recent recommendation calls.
func (h *HistoryHandler) Recommendations(c fiber.Ctx) error {
	recs, err := h.store.ListRecentRecommendations(c.Context(), limitParam(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to list recommendations")
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return jsonSuccess(c, recs)
}

// RecommendationByID returns one stored recommendation call.
func (h *HistoryHandler) RecommendationByID(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid recommendation id")
	}
	rec, err := h.store.GetRecommendation(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrRecommendationNotFound) {
			return jsonError(c, fiber.StatusNotFound, "recommendation not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch recommendation")
	}
	return jsonSuccess(c, rec)
}
