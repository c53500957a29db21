// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"whiskyrec/internal/catalog"
	"whiskyrec/internal/db"
	"whiskyrec/internal/models"
)

// SampleCSV is a small catalog with a header and one malformed row. It has
// four usable rows over three distilleries.
const SampleCSV = "Distillery,Whisky\n" +
	"Glenfiddich,12yo\n" +
	"Glenfiddich,15yo\n" +
	"Macallan,18yo\n" +
	",orphan\n" +
	"Oban,14yo\n"

// CatalogStore writes csv to a temp file and returns a loaded store over it.
func CatalogStore(t *testing.T, csv string) *catalog.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "distillery_data.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	store := catalog.NewStore(catalog.FileSource{Path: path})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return store
}

// Backend is a fake recommendation backend.
type Backend struct {
	*httptest.Server

	mu             sync.Mutex
	recommendation string
	status         int
	names          [][]string
	feedback       []models.FeedbackRecord
}

// NewBackend starts a fake backend that recommends recommendation.
func NewBackend(t *testing.T, recommendation string) *Backend {
	t.Helper()

	b := &Backend{recommendation: recommendation, status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /recommend", b.handleRecommend)
	mux.HandleFunc("POST /submitFeedback", b.handleFeedback)
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// FailWith makes every following call answer with status.
func (b *Backend) FailWith(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

// RecommendCalls returns the whisky_names of every recommend call.
func (b *Backend) RecommendCalls() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.names...)
}

// Feedback returns every feedback record received.
func (b *Backend) Feedback() []models.FeedbackRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.FeedbackRecord(nil), b.feedback...)
}

func (b *Backend) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WhiskyNames []string `json:"whisky_names"`
	}
	body, _ := io.ReadAll(r.Body)
	json.Unmarshal(body, &req)

	b.mu.Lock()
	b.names = append(b.names, req.WhiskyNames)
	status, rec := b.status, b.recommendation
	b.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"recommended_whisky": rec})
}

func (b *Backend) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var rec models.FeedbackRecord
	body, _ := io.ReadAll(r.Body)
	json.Unmarshal(body, &rec)

	b.mu.Lock()
	status := b.status
	if status == http.StatusOK {
		b.feedback = append(b.feedback, rec)
	}
	b.mu.Unlock()

	w.WriteHeader(status)
}

// TestDB creates a test database connection and returns a cleanup function.
// Skips the test unless TEST_DATABASE_URL is set.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanup := func() {
		cleanupTestData(ctx, database.Pool)
		database.Close()
	}

	return database, cleanup
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, pool *pgxpool.Pool) {
	pool.Exec(ctx, "DELETE FROM feedback_submissions")
	pool.Exec(ctx, "DELETE FROM recommendations")
}
