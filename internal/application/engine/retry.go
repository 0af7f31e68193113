package engine

import (
	"context"
	"time"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// RetryPolicy runs an operation with a bounded attempt cap and exponential
// backoff. Only transport-class failures are retried; business outcomes
// (rejections, blocks) return immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseWait    time.Duration
}

// Do runs op until it succeeds, returns a non-transport error, or the
// attempt cap is exhausted. Backoff doubles per attempt and honors ctx.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	wait := p.BaseWait
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !domain.IsTransport(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
