package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/GitRelay/internal/config"
	"github.com/Strob0t/GitRelay/internal/domain/event"
	"github.com/Strob0t/GitRelay/internal/port/notifier"
	"github.com/Strob0t/GitRelay/internal/resilience"
)

// scriptedNotifier returns canned errors per chat, consuming one entry per
// attempt. A nil entry means success.
type scriptedNotifier struct {
	mu      sync.Mutex
	scripts map[int64][]error
	calls   map[int64]int
	texts   []string
}

func newScriptedNotifier(scripts map[int64][]error) *scriptedNotifier {
	return &scriptedNotifier{scripts: scripts, calls: make(map[int64]int)}
}

func (s *scriptedNotifier) Name() string { return "scripted" }

func (s *scriptedNotifier) SendText(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls[chatID]
	s.calls[chatID] = n + 1
	s.texts = append(s.texts, text)
	script := s.scripts[chatID]
	if n < len(script) {
		return script[n]
	}
	return nil
}

func (s *scriptedNotifier) callCount(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[chatID]
}

func testDispatchConfig() config.Dispatch {
	return config.Dispatch{
		MaxAttempts:    3,
		InitialBackoff: config.Duration(time.Millisecond),
		MaxBackoff:     config.Duration(5 * time.Millisecond),
		AttemptTimeout: config.Duration(time.Second),
		MaxConcurrent:  4,
		DrainTimeout:   config.Duration(5 * time.Second),
	}
}

func newTestDispatcher(n notifier.Notifier) *Dispatcher {
	breaker := resilience.NewBreaker(100, time.Minute)
	return NewDispatcher(n, breaker, testDispatchConfig(), nil)
}

func outcomeFor(t *testing.T, outcomes []Outcome, chatID int64) Outcome {
	t.Helper()
	for _, o := range outcomes {
		if o.ChatID == chatID {
			return o
		}
	}
	t.Fatalf("no outcome for chat %d", chatID)
	return Outcome{}
}

func TestDispatchPartialFailure(t *testing.T) {
	permanent := errors.New("Forbidden: bot was blocked by the user")
	transient := notifier.Transient(errors.New("Bad Gateway"))

	n := newScriptedNotifier(map[int64][]error{
		2: {permanent},
		3: {transient, transient},
	})
	d := newTestDispatcher(n)

	outcomes := d.Dispatch(context.Background(), event.Decision{
		Chats:   []int64{1, 2, 3},
		Message: "hello",
	})
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	o1 := outcomeFor(t, outcomes, 1)
	if !o1.Success || o1.Attempts != 1 {
		t.Fatalf("chat 1: expected success in 1 attempt, got %+v", o1)
	}

	o2 := outcomeFor(t, outcomes, 2)
	if o2.Success || o2.Attempts != 1 {
		t.Fatalf("chat 2: expected permanent failure after 1 attempt, got %+v", o2)
	}
	if !errors.Is(o2.Err, permanent) {
		t.Fatalf("chat 2: expected permanent error, got %v", o2.Err)
	}

	o3 := outcomeFor(t, outcomes, 3)
	if !o3.Success || o3.Attempts != 3 {
		t.Fatalf("chat 3: expected success after 3 attempts, got %+v", o3)
	}
}

func TestDispatchExhaustsRetries(t *testing.T) {
	transient := notifier.Transient(errors.New("gateway timeout"))
	n := newScriptedNotifier(map[int64][]error{
		1: {transient, transient, transient, transient},
	})
	d := newTestDispatcher(n)

	outcomes := d.Dispatch(context.Background(), event.Decision{Chats: []int64{1}, Message: "m"})
	o := outcomes[0]
	if o.Success || o.Attempts != 3 {
		t.Fatalf("expected failure after 3 attempts, got %+v", o)
	}
	if n.callCount(1) != 3 {
		t.Fatalf("expected exactly 3 provider calls, got %d", n.callCount(1))
	}
}

func TestDispatchEmptyDecisionIsNoop(t *testing.T) {
	n := newScriptedNotifier(nil)
	d := newTestDispatcher(n)

	if outcomes := d.Dispatch(context.Background(), event.Decision{}); outcomes != nil {
		t.Fatalf("expected nil outcomes for empty decision, got %v", outcomes)
	}
	if len(n.texts) != 0 {
		t.Fatal("no sends expected for empty decision")
	}
}

func TestDispatchSendsSameMessageToAllChats(t *testing.T) {
	n := newScriptedNotifier(nil)
	d := newTestDispatcher(n)

	d.Dispatch(context.Background(), event.Decision{Chats: []int64{10, 20, 30}, Message: "same"})
	if len(n.texts) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(n.texts))
	}
	for _, text := range n.texts {
		if text != "same" {
			t.Fatalf("expected identical message, got %q", text)
		}
	}
}

func TestEnqueueAndDrain(t *testing.T) {
	n := newScriptedNotifier(nil)
	d := newTestDispatcher(n)

	d.Enqueue(event.Decision{Chats: []int64{1, 2}, Message: "async"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got := n.callCount(1) + n.callCount(2); got != 2 {
		t.Fatalf("expected 2 async sends after drain, got %d", got)
	}
}

func TestDispatchRetriesWhenCircuitOpens(t *testing.T) {
	// A breaker that opens immediately: first call fails and opens the
	// circuit, the retry classifier still treats ErrCircuitOpen as
	// transient so attempts continue until the budget is spent.
	n := newScriptedNotifier(map[int64][]error{
		1: {notifier.Transient(errors.New("down")), notifier.Transient(errors.New("down"))},
	})
	breaker := resilience.NewBreaker(1, time.Hour)
	d := NewDispatcher(n, breaker, testDispatchConfig(), nil)

	outcomes := d.Dispatch(context.Background(), event.Decision{Chats: []int64{1}, Message: "m"})
	o := outcomes[0]
	if o.Success {
		t.Fatalf("expected failure with open circuit, got %+v", o)
	}
	if o.Attempts != 3 {
		t.Fatalf("expected all 3 attempts consumed, got %d", o.Attempts)
	}
	// Only the first attempt reached the provider; the rest were rejected
	// by the open breaker.
	if n.callCount(1) != 1 {
		t.Fatalf("expected 1 provider call, got %d", n.callCount(1))
	}
}
