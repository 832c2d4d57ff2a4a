package provider

import (
	"context"
	"time"

	"github.com/reusee/minion/logs"
)

// Retrier implements capped exponential backoff, retried only for
// IsRetryable errors, grounded on generators/gemini.go's doWithRetry —
// reimplemented generically instead of gRPC-status-specific so any
// Provider implementation can share it.
type Retrier struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     logs.Logger
}

func NewRetrier(logger logs.Logger) Retrier {
	return Retrier{
		MaxRetries: 10,
		BaseDelay:  time.Second,
		Logger:     logger,
	}
}

// Do calls fn, retrying with exponential backoff while fn's error
// IsRetryable, up to MaxRetries attempts.
func (r Retrier) Do(ctx context.Context, fn func() (Response, error)) (ret Response, err error) {
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 10
	}
	baseDelay := r.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	for i := 0; i < maxRetries; i++ {
		ret, err = fn()
		if err == nil {
			return ret, nil
		}
		if !IsRetryable(err) {
			return ret, err
		}
		if r.Logger != nil {
			r.Logger.WarnContext(ctx, "provider call retry",
				"attempt", i+1, "error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ret, ctx.Err()
		case <-time.After(baseDelay * time.Duration(1<<i)):
		}
	}

	return ret, err
}
