// Package retry runs an operation with bounded attempts and exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 4 * time.Second
	defaultMaxDelay     = 10 * time.Second
	defaultMultiplier   = 2
)

// Policy bounds a retried call. The delay before attempt n+1 is
// InitialDelay*Multiplier^(n-1), capped at MaxDelay.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Wait blocks between attempts. Defaults to a context-aware timer.
	Wait func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy is three attempts with 4s then 8s backoff, capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  defaultMaxAttempts,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
		Multiplier:   defaultMultiplier,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}

	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}

	if p.MaxDelay > 0 && p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}

	if p.Multiplier < 1 {
		p.Multiplier = defaultMultiplier
	}

	if p.Wait == nil {
		p.Wait = sleep
	}

	return p
}

// Delay returns the wait before the attempt following attempt n (1-based).
func (p Policy) Delay(n int) time.Duration {
	p = p.normalized()

	d := float64(p.InitialDelay)
	for i := 1; i < n; i++ {
		d *= p.Multiplier
	}

	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}

	return time.Duration(d)
}

// Do calls fn until it succeeds, the attempts are used up, or ctx is done.
// Context cancellation is returned as is and never retried. When every attempt
// fails the returned error wraps both ErrRetriesExhausted and the last failure.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	p = p.normalized()

	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry interrupted: %w", err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt)

		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, lastErr)
		}

		if err := p.Wait(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", apperrors.ErrRetriesExhausted, p.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry interrupted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
