package backend

import "errors"

var (
	// ErrBackendStatus is returned when the backend answers with a non-2xx status.
	ErrBackendStatus = errors.New("backend returned non-success status")

	// ErrBackendUnavailable is returned while the circuit breaker is open.
	ErrBackendUnavailable = errors.New("recommendation backend unavailable")

	// ErrEmptyRecommendation is returned when a successful response names no whisky.
	ErrEmptyRecommendation = errors.New("backend returned no recommendation")

	// ErrMalformedResponse is returned when the response body is not the expected JSON.
	ErrMalformedResponse = errors.New("malformed backend response")
)
