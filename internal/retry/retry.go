// Package retry re-runs idempotent model-service calls that failed for a
// transient reason.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"adaptivealerting/aad/internal/domain"
)

// Predicate reports whether an error should be retried.
type Predicate func(error) bool

// Policy controls how many attempts are made and how long to back off
// between them. A zero Policy makes exactly one attempt.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy is used for model-service reads.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// Do calls fn until it succeeds, returns an error shouldRetry rejects, or
// the attempts are exhausted. The last error is returned unchanged.
func Do(ctx context.Context, p Policy, shouldRetry Predicate, fn func() error) error {
	attempts := max(p.MaxAttempts, 1)
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts || !shouldRetry(err) {
			return err
		}

		if !sleep(ctx, backoff(p.BaseDelay, p.MaxDelay, attempt)) {
			return ctx.Err()
		}
	}
	return err
}

// IsTransient reports whether err is worth retrying: a network timeout, or a
// throttled or unavailable model service.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var terr *domain.TransportError
	if errors.As(err, &terr) && terr.StatusCode != 0 {
		switch terr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// backoff returns a full-jitter exponential delay for the given attempt.
func backoff(base, ceiling time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base << (max(attempt, 1) - 1)
	if ceiling > 0 && delay > ceiling {
		delay = ceiling
	}
	return time.Duration(rand.Int64N(int64(delay) + 1))
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
