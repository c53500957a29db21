package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"whiskyrec/internal/backend"
	"whiskyrec/internal/config"
	"whiskyrec/internal/form"
	"whiskyrec/internal/metrics"
	"whiskyrec/internal/models"
	"whiskyrec/internal/testutil"
)

// TestEncryptCookieSessionRoundTrip verifies that the encryptcookie +
// session middleware stack keeps form state when a client replays encrypted
// session cookies across multiple requests.
func TestEncryptCookieSessionRoundTrip(t *testing.T) {
	// Use the same key-derivation as production (deriveEncryptionKey).
	secret := "test-secret-that-is-long-enough-for-production"
	encryptionKey := deriveEncryptionKey(secret)

	app := fiber.New()

	// Mirror the production middleware order exactly:
	// 1. encryptcookie  2. session  3. route handler
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: encryptionKey,
	}))

	sessionMiddleware, _ := session.NewWithStore(session.Config{
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	app.Use(sessionMiddleware)

	// Handler that writes a session value on POST and reads it on GET.
	app.Post("/session-set", func(c fiber.Ctx) error {
		sess := session.FromContext(c)
		if sess == nil {
			return c.Status(500).SendString("no session")
		}
		sess.Set("form_state", "alice")
		return c.SendString("ok")
	})
	app.Get("/session-get", func(c fiber.Ctx) error {
		sess := session.FromContext(c)
		if sess == nil {
			return c.Status(500).SendString("no session")
		}
		val, _ := sess.Get("form_state").(string)
		return c.SendString(val)
	})

	// --- Request 1: establish a session ---
	req, _ := http.NewRequest("POST", "/session-set", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request 1 failed: %v", err)
	}
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("request 1: expected 200, got %d: %s", resp.StatusCode, body)
	}

	// Collect Set-Cookie headers from the response.
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("request 1: no cookies returned")
	}

	// --- Request 2: replay cookies (triggers encryptcookie decryption) ---
	req2, _ := http.NewRequest("GET", "/session-get", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}

	resp2, err := app.Test(req2)
	if err != nil {
		t.Fatalf("request 2 failed (possible encryptcookie panic): %v", err)
	}
	body, _ := io.ReadAll(resp2.Body)
	if resp2.StatusCode != 200 {
		t.Fatalf("request 2: expected 200, got %d: %s", resp2.StatusCode, body)
	}
	if string(body) != "alice" {
		t.Errorf("request 2: expected session value 'alice', got %q", body)
	}

	// --- Request 3: one more round-trip to confirm stability ---
	cookies2 := resp2.Cookies()
	req3, _ := http.NewRequest("GET", "/session-get", nil)
	// Use cookies from resp2 if present, otherwise fall back to original.
	replayCookies := cookies2
	if len(replayCookies) == 0 {
		replayCookies = cookies
	}
	for _, c := range replayCookies {
		req3.AddCookie(c)
	}

	resp3, err := app.Test(req3)
	if err != nil {
		t.Fatalf("request 3 failed: %v", err)
	}
	body3, _ := io.ReadAll(resp3.Body)
	if resp3.StatusCode != 200 {
		t.Fatalf("request 3: expected 200, got %d: %s", resp3.StatusCode, body3)
	}
	if string(body3) != "alice" {
		t.Errorf("request 3: expected session value 'alice', got %q", body3)
	}
}

// metrics register once per process, so every test server shares one registry.
var testRegistry = prometheus.NewRegistry()

func newTestServer(t *testing.T, be *testutil.Backend, opts ...func(*Deps)) *Server {
	t.Helper()

	cfg := config.Load()
	cfg.Env = "development"
	cfg.RedisURL = ""
	cfg.DatabaseURL = ""
	cfg.OIDCIssuer = ""
	cfg.RateLimit = 0
	cfg.BackendURL = be.URL

	srv := New(cfg)
	metrics.Init(testRegistry, nil)
	deps := Deps{
		Store:    testutil.CatalogStore(t, testutil.SampleCSV),
		Backend:  backend.New(backend.Config{BaseURL: be.URL}),
		Guard:    form.NewGuard(),
		Gatherer: testRegistry,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	if err := srv.RegisterRoutes(context.Background(), deps); err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}
	return srv
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testutil.NewBackend(t, "Oban 14yo"))

	resp, err := srv.App.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got struct {
		Status      string `json:"status"`
		CatalogRows int    `json:"catalog_rows"`
	}
	decode(t, resp, &got)
	if got.Status != "ok" || got.CatalogRows != 4 {
		t.Errorf("healthz = %+v, want ok with 4 rows", got)
	}
}

func TestAPICatalog(t *testing.T) {
	srv := newTestServer(t, testutil.NewBackend(t, "Oban 14yo"))

	resp, err := srv.App.Test(httptest.NewRequest(http.MethodGet, "/api/catalog/distilleries", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	var distilleries struct {
		Status string   `json:"status"`
		Data   []string `json:"data"`
	}
	decode(t, resp, &distilleries)
	if diff := cmp.Diff([]string{"Glenfiddich", "Macallan", "Oban"}, distilleries.Data); diff != "" {
		t.Errorf("distilleries mismatch (-want +got):\n%s", diff)
	}

	resp, err = srv.App.Test(httptest.NewRequest(http.MethodGet, "/api/catalog/distilleries/Glenfiddich/whiskies", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	var whiskies struct {
		Data form.WhiskyOptions `json:"data"`
	}
	decode(t, resp, &whiskies)
	if diff := cmp.Diff([]string{"12yo", "15yo"}, whiskies.Data.Selectable()); diff != "" {
		t.Errorf("whiskies mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIRecommend(t *testing.T) {
	be := testutil.NewBackend(t, "Macallan 18yo")
	srv := newTestServer(t, be)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantText   string
	}{
		{
			name:       "three slots",
			body:       `{"slots":[{"distillery":"Glenfiddich","whisky":"12yo"},{"distillery":"Glenfiddich","whisky":"15yo"},{"distillery":"Oban","whisky":"14yo"}]}`,
			wantStatus: fiber.StatusOK,
			wantText:   "Recommended Whisky: Macallan 18yo",
		},
		{
			name:       "missing whisky",
			body:       `{"slots":[{"distillery":"Glenfiddich","whisky":"12yo"},{"distillery":"Glenfiddich"},{"distillery":"Oban","whisky":"14yo"}]}`,
			wantStatus: fiber.StatusUnprocessableEntity,
		},
		{
			name:       "blank distillery",
			body:       `{"slots":[{"distillery":"Glenfiddich","whisky":"12yo"},{"distillery":"  ","whisky":"15yo"},{"distillery":"Oban","whisky":"14yo"}]}`,
			wantStatus: fiber.StatusUnprocessableEntity,
		},
		{
			name:       "blank whisky",
			body:       `{"slots":[{"distillery":"Glenfiddich","whisky":"12yo"},{"distillery":"Glenfiddich","whisky":"\t "},{"distillery":"Oban","whisky":"14yo"}]}`,
			wantStatus: fiber.StatusUnprocessableEntity,
		},
		{
			name:       "two slots",
			body:       `{"slots":[{"distillery":"Glenfiddich","whisky":"12yo"},{"distillery":"Oban","whisky":"14yo"}]}`,
			wantStatus: fiber.StatusUnprocessableEntity,
		},
		{
			name:       "not json",
			body:       `slots=1`,
			wantStatus: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := srv.App.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantText == "" {
				return
			}
			var got struct {
				Data struct {
					Text string `json:"text"`
				} `json:"data"`
			}
			decode(t, resp, &got)
			if got.Data.Text != tt.wantText {
				t.Errorf("text = %q, want %q", got.Data.Text, tt.wantText)
			}
		})
	}

	calls := be.RecommendCalls()
	if len(calls) != 1 {
		t.Fatalf("backend called %d times, want 1", len(calls))
	}
	want := []string{"Glenfiddich 12yo", "Glenfiddich 15yo", "Oban 14yo"}
	if diff := cmp.Diff(want, calls[0]); diff != "" {
		t.Errorf("whisky_names mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIFeedback(t *testing.T) {
	be := testutil.NewBackend(t, "Macallan 18yo")
	srv := newTestServer(t, be)

	body := `{"whisky1":"12yo","recommendedWhisky":"Recommended Whisky: Macallan 18yo","feedback1":"dont-know","rating":4,"feedback2":"never tried it"}`
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	got := be.Feedback()
	if len(got) != 1 {
		t.Fatalf("backend received %d records, want 1", len(got))
	}
	if got[0].Rating != nil || got[0].Feedback2 != "never tried it" || got[0].Timestamp == "" {
		t.Errorf("forwarded record %+v", got[0])
	}
}

type stubHistory struct{}

func (stubHistory) ListRecentFeedback(ctx context.Context, limit int) ([]models.FeedbackSubmission, error) {
	return []models.FeedbackSubmission{{ID: uuid.New(), Feedback2: "private note"}}, nil
}

func (stubHistory) GetFeedback(ctx context.Context, id uuid.UUID) (*models.FeedbackSubmission, error) {
	return &models.FeedbackSubmission{ID: id}, nil
}

func (stubHistory) ListRecentRecommendations(ctx context.Context, limit int) ([]models.Recommendation, error) {
	return []models.Recommendation{{ID: uuid.New()}}, nil
}

func (stubHistory) GetRecommendation(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	return &models.Recommendation{ID: id}, nil
}

func TestHistoryHiddenWithoutSignIn(t *testing.T) {
	srv := newTestServer(t, testutil.NewBackend(t, "Oban 14yo"), func(d *Deps) {
		d.History = stubHistory{}
	})

	tests := []string{
		"/api/recommendations",
		"/api/recommendations/" + uuid.NewString(),
		"/api/feedback/" + uuid.NewString(),
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			resp, err := srv.App.Test(httptest.NewRequest(http.MethodGet, target, nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != fiber.StatusNotFound {
				t.Errorf("status = %d, want 404 while sign-in is disabled", resp.StatusCode)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/feedback", nil)
	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode == fiber.StatusOK {
		t.Error("GET /api/feedback served stored feedback while sign-in is disabled")
	}
}

func TestPageFlow(t *testing.T) {
	be := testutil.NewBackend(t, "Macallan 18yo")
	srv := newTestServer(t, be)

	resp, err := srv.App.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), `class="distillery-select"`) {
		t.Fatal("form page not rendered")
	}

	values := url.Values{
		"distillery1": {"Glenfiddich"}, "whisky1": {"12yo"},
		"distillery2": {"Macallan"}, "whisky2": {"18yo"},
		"distillery3": {"Oban"}, "whisky3": {"14yo"},
	}
	req := httptest.NewRequest(http.MethodPost, "/recommendation", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	resp, err = srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	got, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(got)) != "Recommended Whisky: Macallan 18yo" {
		t.Errorf("recommendation partial = %q", got)
	}

	be.FailWith(http.StatusInternalServerError)
	req = httptest.NewRequest(http.MethodPost, "/recommendation", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	resp, err = srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.Header.Get("HX-Retarget") != "#alerts" {
		t.Errorf("failure not routed to the alert region")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testutil.NewBackend(t, "Oban 14yo"))

	srv.App.Test(httptest.NewRequest(http.MethodGet, "/slots/1/whiskies?distillery1=Oban", nil))

	resp, err := srv.App.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "whiskyrec_dropdown_syncs_total") {
		t.Errorf("metrics output missing dropdown syncs:\n%s", body)
	}
}

func TestHTMXErrorsBecomeAlerts(t *testing.T) {
	srv := newTestServer(t, testutil.NewBackend(t, "Oban 14yo"))

	req := httptest.NewRequest(http.MethodGet, "/slots/9/whiskies", nil)
	req.Header.Set("HX-Request", "true")
	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.Header.Get("HX-Retarget") != "#alerts" || !strings.Contains(string(body), "invalid slot") {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
}
