package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig describes the retry behavior for outbound sends.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFactor   float64
}

// Retry executes fn until it succeeds, fails permanently, or MaxAttempts is
// reached. classify reports whether an error is worth retrying and an
// optional minimum wait before the next attempt (rate limit hints); a nil
// classify retries every error.
//
// Attempts are strictly sequential with exponential backoff and jitter
// between them. Returns the number of attempts made and the last error.
func Retry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error, classify func(error) (bool, time.Duration)) (int, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.JitterFactor <= 0 {
		cfg.JitterFactor = 0.2
	}

	backoff := cfg.InitialBackoff
	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt - 1, ctxErr
		}

		if err = fn(ctx); err == nil {
			return attempt, nil
		}

		retryable := true
		var minWait time.Duration
		if classify != nil {
			retryable, minWait = classify(err)
		}
		if !retryable || attempt == cfg.MaxAttempts {
			return attempt, err
		}

		sleep := applyJitter(backoff, cfg.JitterFactor)
		if sleep > cfg.MaxBackoff {
			sleep = cfg.MaxBackoff
		}
		if minWait > sleep {
			sleep = minWait
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, errors.Join(err, ctx.Err())
		case <-timer.C:
		}

		if backoff < cfg.MaxBackoff {
			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}
}

func applyJitter(duration time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return duration
	}
	delta := int64(float64(duration) * factor)
	if delta <= 0 {
		return duration
	}
	return duration + time.Duration(rand.Int64N(2*delta)-delta)
}
