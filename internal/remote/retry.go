package remote

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for remote store operations.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns sensible defaults for object storage.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryableStore wraps a Store with exponential-backoff retries. Only
// transient errors are retried; permanent failures return immediately.
type RetryableStore struct {
	store  Store
	config RetryConfig
}

// NewRetryableStore creates a new retryable store wrapper.
func NewRetryableStore(store Store, config RetryConfig) *RetryableStore {
	return &RetryableStore{store: store, config: config}
}

// List implements Store with retry logic.
func (r *RetryableStore) List(ctx context.Context, prefix string) ([]string, error) {
	var result []string
	err := r.attempt(ctx, "list", func() error {
		var err error
		result, err = r.store.List(ctx, prefix)
		return err
	})
	return result, err
}

// Get implements Store with retry logic.
func (r *RetryableStore) Get(ctx context.Context, key string) ([]byte, error) {
	var result []byte
	err := r.attempt(ctx, "get", func() error {
		var err error
		result, err = r.store.Get(ctx, key)
		return err
	})
	return result, err
}

// PutAtomic implements Store with retry logic.
func (r *RetryableStore) PutAtomic(ctx context.Context, key string, data []byte) error {
	return r.attempt(ctx, "put_atomic", func() error {
		return r.store.PutAtomic(ctx, key, data)
	})
}

func (r *RetryableStore) attempt(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.calculateDelay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			if !isRetryableError(err) {
				return err
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, r.config.MaxAttempts, lastErr)
}

// calculateDelay implements exponential backoff with jitter.
func (r *RetryableStore) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	// Jitter ±25%
	jitter := delay * 0.25 * (2*float64(time.Now().UnixNano()%1000)/1000 - 1)
	return time.Duration(delay + jitter)
}

// isRetryableError determines if an error should be retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"server error",
		"throttling",
		"slowdown",
		"requesttimeout",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
