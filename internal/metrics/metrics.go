package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"whiskyrec/internal/models"
)

var (
	// RecommendationsTotal counts recommend form submissions by outcome.
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "whiskyrec_recommendations_total",
		Help: "Recommendation requests by outcome",
	}, []string{"outcome"})

	// FeedbackTotal counts feedback submissions by kind and outcome.
	FeedbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "whiskyrec_feedback_submissions_total",
		Help: "Feedback submissions by kind and outcome",
	}, []string{"feedback1", "outcome"})

	// DropdownSyncsTotal counts whisky dropdown refreshes by resulting state.
	DropdownSyncsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "whiskyrec_dropdown_syncs_total",
		Help: "Whisky dropdown refreshes by options state",
	}, []string{"state"})

	// CatalogRows is the row count of the active catalog.
	CatalogRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "whiskyrec_catalog_rows",
		Help: "Rows in the active distillery catalog",
	})

	// CatalogReloadsTotal counts catalog loads by outcome.
	CatalogReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "whiskyrec_catalog_reloads_total",
		Help: "Catalog load attempts by outcome",
	}, []string{"outcome"})

	// BackendRequestDuration observes backend calls by operation and outcome.
	BackendRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "whiskyrec_backend_request_duration_seconds",
		Help:    "Latency of recommendation backend calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "whiskyrec_backend_circuit_breaker_state",
		Help: "Backend circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})

	storedFeedbackDesc = prometheus.NewDesc(
		"whiskyrec_feedback_stored_total",
		"Stored feedback submissions by kind and outcome",
		[]string{"feedback1", "outcome"},
		nil,
	)
)

// FeedbackCounter reports stored feedback totals.
type FeedbackCounter interface {
	CountFeedback(ctx context.Context) ([]models.FeedbackCount, error)
}

// FeedbackCollector is a custom Prometheus collector that reads stored
// feedback counts from the database on each scrape.
type FeedbackCollector struct {
	counter FeedbackCounter
}

// Describe sends the metric descriptor to the channel.
func (c *FeedbackCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- storedFeedbackDesc
}

// Collect queries the database for feedback counts and emits them as counters.
func (c *FeedbackCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.counter.CountFeedback(ctx)
	if err != nil {
		slog.Error("failed to collect feedback metrics", "error", err)
		return
	}
	for _, fc := range counts {
		ch <- prometheus.MustNewConstMetric(
			storedFeedbackDesc,
			prometheus.CounterValue,
			float64(fc.Count),
			fc.Feedback1,
			fc.Outcome,
		)
	}
}

var initOnce sync.Once

// Init registers all collectors with reg. counter may be nil when feedback is
// not persisted. Must be called once at startup.
func Init(reg prometheus.Registerer, counter FeedbackCounter) {
	initOnce.Do(func() {
		reg.MustRegister(
			RecommendationsTotal,
			FeedbackTotal,
			DropdownSyncsTotal,
			CatalogRows,
			CatalogReloadsTotal,
			BackendRequestDuration,
			BreakerState,
		)
		if counter != nil {
			reg.MustRegister(&FeedbackCollector{counter: counter})
		}
	})
}

// RecordRecommendation counts a recommend submission.
func RecordRecommendation(outcome string) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
}

// RecordFeedback counts a feedback submission.
func RecordFeedback(kind, outcome string) {
	FeedbackTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordDropdownSync counts a whisky dropdown refresh.
func RecordDropdownSync(state string) {
	DropdownSyncsTotal.WithLabelValues(state).Inc()
}

// RecordCatalogLoad updates the catalog gauges after a load attempt.
func RecordCatalogLoad(rows int, err error) {
	if err != nil {
		CatalogReloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	CatalogReloadsTotal.WithLabelValues("success").Inc()
	CatalogRows.Set(float64(rows))
}

// ObserveBackendRequest records the latency of one backend call.
func ObserveBackendRequest(op, outcome string, d time.Duration) {
	BackendRequestDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// SetBreakerState publishes the circuit breaker state.
func SetBreakerState(name string, state float64) {
	BreakerState.WithLabelValues(name).Set(state)
}
