package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for classifying builder and model-service failures.
// Callers wrap these so the CLI can handle error categories uniformly:
//
//	return fmt.Errorf("failed to fetch detector: %w", domain.ErrDetectorNotFound)
var (
	// ErrConfiguration indicates the model-service URL or acting user is missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownStrategy indicates a build was requested with a strategy
	// other than sigma or quartile.
	ErrUnknownStrategy = errors.New("unknown build strategy")

	// ErrUnknownDetectorType indicates a detector type tag with no registered
	// config decoder.
	ErrUnknownDetectorType = errors.New("unknown detector type")

	// ErrInsufficientData indicates the sample is too small for the strategy.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDetectorNotFound indicates a detector lookup by UUID missed.
	ErrDetectorNotFound = errors.New("detector not found")

	// ErrCreateTimeout indicates a created detector never became readable.
	ErrCreateTimeout = errors.New("timed out waiting for detector")

	// ErrNotFound indicates the model service answered 404.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the model service throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates a state or uniqueness conflict.
	ErrConflict = errors.New("conflict")
)

// TransportError reports a failed model-service call: either the request
// never completed (Err is set) or the service answered with a non-2xx status.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap exposes the network error, or a sentinel derived from the status code.
func (e *TransportError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// CreateTimeoutError is returned when a newly created detector does not
// become visible to reads before the confirmation deadline.
type CreateTimeoutError struct {
	UUID    string
	Elapsed time.Duration
}

func (e *CreateTimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for detector uuid %q to be available from model service (waited %s)",
		e.UUID, e.Elapsed.Round(time.Second))
}

// Is reports whether target is ErrCreateTimeout.
func (e *CreateTimeoutError) Is(target error) bool {
	return target == ErrCreateTimeout
}
