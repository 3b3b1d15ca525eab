package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	relayotel "github.com/Strob0t/GitRelay/internal/adapter/otel"
	"github.com/Strob0t/GitRelay/internal/config"
	"github.com/Strob0t/GitRelay/internal/domain/event"
	"github.com/Strob0t/GitRelay/internal/port/notifier"
	"github.com/Strob0t/GitRelay/internal/resilience"
)

// Outcome records the result of delivering one message to one chat.
type Outcome struct {
	ChatID   int64
	Success  bool
	Attempts int
	Err      error
}

// Dispatcher fans a routing decision out to its destination chats.
//
// Destinations are sent concurrently (bounded by MaxConcurrent); within one
// destination attempts are strictly sequential with backoff between them.
// One destination failing never aborts the others. A circuit breaker shared
// across all sends protects the provider when it is down wholesale.
type Dispatcher struct {
	notifier notifier.Notifier
	breaker  *resilience.Breaker
	cfg      config.Dispatch
	metrics  *relayotel.Metrics

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. metrics may be nil.
func NewDispatcher(n notifier.Notifier, breaker *resilience.Breaker, cfg config.Dispatch, metrics *relayotel.Metrics) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		breaker:  breaker,
		cfg:      cfg,
		metrics:  metrics,
	}
}

// Dispatch sends the decision's message to every destination and returns the
// per-destination outcomes. An empty chat set is a successful no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, decision event.Decision) []Outcome {
	if len(decision.Chats) == 0 {
		return nil
	}

	outcomes := make([]Outcome, len(decision.Chats))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxConcurrent)
	for i, chatID := range decision.Chats {
		g.Go(func() error {
			outcomes[i] = d.sendOne(gctx, chatID, decision.Message)
			return nil // sends are independent, never cancel siblings
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.Success {
			slog.Debug("message delivered", "chat_id", o.ChatID, "attempts", o.Attempts)
			continue
		}
		slog.Warn("message delivery failed",
			"chat_id", o.ChatID,
			"attempts", o.Attempts,
			"error", o.Err,
		)
	}

	return outcomes
}

// Enqueue runs Dispatch on a detached context so delivery survives the
// webhook request lifecycle. Drain waits for all enqueued dispatches.
func (d *Dispatcher) Enqueue(decision event.Decision) {
	if len(decision.Chats) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.drainBudget())
		defer cancel()
		d.Dispatch(ctx, decision)
	}()
}

// Drain blocks until in-flight async dispatches finish or ctx expires.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) sendOne(ctx context.Context, chatID int64, text string) Outcome {
	sctx, span := relayotel.StartSendSpan(ctx, chatID, d.notifier.Name())
	defer span.End()

	start := time.Now()
	attempts, err := resilience.Retry(sctx, resilience.RetryConfig{
		MaxAttempts:    d.cfg.MaxAttempts,
		InitialBackoff: d.cfg.InitialBackoff.Std(),
		MaxBackoff:     d.cfg.MaxBackoff.Std(),
	}, func(ctx context.Context) error {
		actx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout.Std())
		defer cancel()
		return d.breaker.Execute(func() error {
			return d.notifier.SendText(actx, chatID, text)
		})
	}, classifySendError)

	d.record(sctx, err == nil, time.Since(start))

	return Outcome{
		ChatID:   chatID,
		Success:  err == nil,
		Attempts: attempts,
		Err:      err,
	}
}

// classifySendError treats provider-transient errors, per-attempt timeouts
// and an open circuit as retryable; everything else is permanent.
func classifySendError(err error) (bool, time.Duration) {
	if transient, wait := notifier.IsTransient(err); transient {
		return true, wait
	}
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, context.DeadlineExceeded) {
		return true, 0
	}
	return false, 0
}

func (d *Dispatcher) record(ctx context.Context, success bool, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	if success {
		d.metrics.SendsSucceeded.Add(ctx, 1)
	} else {
		d.metrics.SendsFailed.Add(ctx, 1)
	}
	d.metrics.SendDuration.Record(ctx, elapsed.Seconds())
}

func (d *Dispatcher) drainBudget() time.Duration {
	if budget := d.cfg.DrainTimeout.Std(); budget > 0 {
		return budget
	}
	return 30 * time.Second
}
