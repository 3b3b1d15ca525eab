// Package notifier defines the outbound chat notification port.
package notifier

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notifier is the port interface for delivering a message to a single chat.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "telegram").
	Name() string

	// SendText delivers text to the given chat. Implementations classify
	// failures by returning a *TransientError for conditions worth retrying;
	// any other error is treated as permanent.
	SendText(ctx context.Context, chatID int64, text string) error
}

// TransientError marks a failure the dispatcher may retry: network errors,
// rate limiting, provider 5xx. RetryAfter, when non-zero, is the provider's
// requested wait before the next attempt.
type TransientError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retryable and returns any provider
// supplied retry-after hint.
func IsTransient(err error) (bool, time.Duration) {
	var te *TransientError
	if errors.As(err, &te) {
		return true, te.RetryAfter
	}
	return false, 0
}
