package booking

import (
	"context"
	"time"
)

const (
	finalizeAttempts = 3
	retryBackoffBase = 100 * time.Millisecond
)

// withRetry runs op up to attempts times with exponential backoff, stopping
// early when the context is cancelled. Returns the last error.
func withRetry(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(base << uint(i)):
		}
	}
	return err
}
