package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	itemserrors "itemshare/internal/items/errors"
)

type retryConfig struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// retryOp reruns fn while the store reports a concurrent writer. Other
// errors end the loop at once.
func retryOp(ctx context.Context, cfg retryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, itemserrors.ErrConcurrentModification) {
			return lastErr
		}
		if attempt == cfg.maxAttempts-1 {
			break
		}
		timer := time.NewTimer(backoffDelay(cfg, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// backoffDelay is baseDelay * 2^attempt capped at maxDelay, plus up to
// baseDelay of jitter.
func backoffDelay(cfg retryConfig, attempt int) time.Duration {
	if cfg.baseDelay <= 0 {
		return 0
	}
	delay := cfg.baseDelay << uint(attempt)
	if delay > cfg.maxDelay || delay <= 0 {
		delay = cfg.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(cfg.baseDelay)))
	return delay + jitter
}
