package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"whiskyrec/internal/catalog"
	"whiskyrec/internal/db"
	"whiskyrec/internal/models"
)

type fakeHistory struct {
	limit int
	sub   *models.FeedbackSubmission
	rec   *models.Recommendation
}

func (f *fakeHistory) ListRecentFeedback(ctx context.Context, limit int) ([]models.FeedbackSubmission, error) {
	f.limit = limit
	return nil, nil
}

func (f *fakeHistory) GetFeedback(ctx context.Context, id uuid.UUID) (*models.FeedbackSubmission, error) {
	if f.sub == nil || f.sub.ID != id {
		return nil, db.ErrFeedbackNotFound
	}
	return f.sub, nil
}

func (f *fakeHistory) ListRecentRecommendations(ctx context.Context, limit int) ([]models.Recommendation, error) {
	f.limit = limit
	return nil, errors.New("db down")
}

func (f *fakeHistory) GetRecommendation(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	if f.rec == nil || f.rec.ID != id {
		return nil, db.ErrRecommendationNotFound
	}
	return f.rec, nil
}

func TestHistory(t *testing.T) {
	known := uuid.New()
	knownRec := uuid.New()
	store := &fakeHistory{
		sub: &models.FeedbackSubmission{ID: known, Outcome: models.OutcomeDelivered},
		rec: &models.Recommendation{ID: knownRec, Outcome: models.OutcomeDelivered},
	}
	h := NewHistoryHandler(store)

	app := fiber.New()
	app.Get("/feedback", h.Feedback)
	app.Get("/feedback/:id", h.FeedbackByID)
	app.Get("/recommendations", h.Recommendations)
	app.Get("/recommendations/:id", h.RecommendationByID)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLimit  int
	}{
		{"default limit", "/feedback", fiber.StatusOK, defaultHistoryLimit},
		{"explicit limit", "/feedback?limit=5", fiber.StatusOK, 5},
		{"limit capped", "/feedback?limit=100000", fiber.StatusOK, maxHistoryLimit},
		{"bad limit", "/feedback?limit=-3", fiber.StatusOK, defaultHistoryLimit},
		{"known id", "/feedback/" + known.String(), fiber.StatusOK, 0},
		{"unknown id", "/feedback/" + uuid.NewString(), fiber.StatusNotFound, 0},
		{"malformed id", "/feedback/not-a-uuid", fiber.StatusBadRequest, 0},
		{"store error", "/recommendations", fiber.StatusInternalServerError, defaultHistoryLimit},
		{"known recommendation", "/recommendations/" + knownRec.String(), fiber.StatusOK, 0},
		{"unknown recommendation", "/recommendations/" + uuid.NewString(), fiber.StatusNotFound, 0},
		{"malformed recommendation id", "/recommendations/42", fiber.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.limit = 0
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if store.limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", store.limit, tt.wantLimit)
			}
		})
	}
}

func TestCatalogReloadKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("Distillery,Whisky\nOban,14yo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := catalog.NewStore(catalog.FileSource{Path: path})
	h := NewCatalogHandler(store)

	app := fiber.New()
	app.Post("/reload", h.Reload)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/reload", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK || store.Catalog().Len() != 1 {
		t.Fatalf("first reload: status %d, rows %d", resp.StatusCode, store.Catalog().Len())
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/reload", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	if store.Catalog().Len() != 1 {
		t.Errorf("catalog lost after failed reload: %d rows", store.Catalog().Len())
	}
}
