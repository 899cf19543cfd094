package modelservice

import (
	"context"
	"fmt"
	"time"

	"adaptivealerting/aad/internal/domain"

	"go.uber.org/zap"
)

// AwaitDetector waits for a detector created earlier to become readable,
// using the same poll interval and timeout as CreateDetector.
func (c *Client) AwaitDetector(ctx context.Context, detectorUUID string) (*domain.Detector, error) {
	return c.waitForDetector(ctx, detectorUUID)
}

// waitForDetector polls GetDetector every c.pollInterval until the detector
// is readable or c.createTimeout has elapsed since the loop started.
//
// The service has no "pending" state: a 404, any other error status, or a
// failed lookup all mean "not visible yet" and polling continues. Only
// context cancellation ends the loop early. Elapsed time uses the monotonic
// clock reading carried by time.Now, so wall-clock jumps do not affect it.
func (c *Client) waitForDetector(ctx context.Context, detectorUUID string) (*domain.Detector, error) {
	start := time.Now()
	attempts := 0

	for time.Since(start) < c.createTimeout {
		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("waiting for detector %q: %w", detectorUUID, ctx.Err())
		case <-timer.C:
		}

		attempts++
		d, err := c.GetDetector(ctx, detectorUUID)
		if err == nil {
			c.logger.Debug("detector confirmed",
				zap.String("uuid", detectorUUID),
				zap.Int("attempts", attempts),
				zap.Duration("elapsed", time.Since(start)),
			)
			return d, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("waiting for detector %q: %w", detectorUUID, ctx.Err())
		}

		c.logger.Debug("detector not yet visible",
			zap.String("uuid", detectorUUID),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
	}

	return nil, &domain.CreateTimeoutError{UUID: detectorUUID, Elapsed: time.Since(start)}
}
