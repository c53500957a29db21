// Package backend talks to the external recommendation service: the
// recommend endpoint and the feedback endpoint. Every call is a single
// attempt; a circuit breaker rejects calls quickly while the service is failing.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"whiskyrec/internal/metrics"
)

const (
	breakerName     = "recommendation-backend"
	maxResponseBody = 1 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL       string
	RecommendPath string
	FeedbackPath  string
	Timeout       time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client

	// OnOpen, when set, is called each time the circuit breaker opens.
	OnOpen func(name string)
}

// Client calls the recommendation backend.
type Client struct {
	baseURL       string
	recommendPath string
	feedbackPath  string
	http          *http.Client
	cb            *gobreaker.CircuitBreaker[[]byte]
}

// New creates a backend client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	recommendPath := cfg.RecommendPath
	if recommendPath == "" {
		recommendPath = "/recommend"
	}
	feedbackPath := cfg.FeedbackPath
	if feedbackPath == "" {
		feedbackPath = "/submitFeedback"
	}

	metrics.SetBreakerState(breakerName, 0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A visitor cancelling or replacing their own request says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("backend circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.SetBreakerState(name, breakerStateValue(to))
			if to == gobreaker.StateOpen && cfg.OnOpen != nil {
				cfg.OnOpen(name)
			}
		},
	})

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		recommendPath: recommendPath,
		feedbackPath:  feedbackPath,
		http:          httpClient,
		cb:            cb,
	}
}

// post sends body as JSON to path and returns the response body of a 2xx answer.
func (c *Client) post(ctx context.Context, op, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}

	start := time.Now()
	respBody, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, path, payload)
	})
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
			err = fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}
	metrics.ObserveBackendRequest(op, outcome, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return respBody, nil
}

func (c *Client) do(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "whiskyrec/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrBackendStatus, resp.Status)
	}
	return body, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
