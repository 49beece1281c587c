// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"
	"io"
	"time"
)

// withRetry runs one extraction attempt up to maxRetries times. Only
// transient failures are retried, with a fixed delay between attempts;
// parse failures and non-transient transport failures return immediately.
// The last error is returned after exhaustion.
func withRetry(ctx context.Context, maxRetries int, delay time.Duration, w io.Writer, name string, fn func() (any, error)) (any, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		payload, err := fn()
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == maxRetries {
			return nil, err
		}

		fmt.Fprintf(w, "[%s] attempt %d/%d failed: %v; retrying in %s\n", name, attempt, maxRetries, err, delay)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// sleep pauses for d unless the context is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
