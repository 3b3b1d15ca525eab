package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/GitRelay/internal/port/notifier"
)

type recordedRequest struct {
	path string
	body sendMessageRequest
}

// newAPIServer fakes the Bot API with a fixed status and response body,
// recording the last request it saw.
func newAPIServer(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&rec.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestSendTextSuccess(t *testing.T) {
	srv, rec := newAPIServer(t, http.StatusOK, `{"ok":true}`)
	n := NewNotifier("123:abc", srv.URL)

	if err := n.SendText(context.Background(), 42, "<b>hi</b>"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if rec.path != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path %q", rec.path)
	}
	if rec.body.ChatID != 42 || rec.body.Text != "<b>hi</b>" {
		t.Fatalf("unexpected payload %+v", rec.body)
	}
	if rec.body.ParseMode != "HTML" {
		t.Fatalf("expected HTML parse mode, got %q", rec.body.ParseMode)
	}
	if !rec.body.DisableWebPagePreview {
		t.Fatal("expected link previews disabled")
	}
}

func TestSendTextPermanentRejection(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusBadRequest, `{"ok":false,"description":"Bad Request: chat not found"}`)
	n := NewNotifier("123:abc", srv.URL)

	err := n.SendText(context.Background(), 42, "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if transient, _ := notifier.IsTransient(err); transient {
		t.Fatalf("4xx must be permanent, got transient: %v", err)
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected API description in error, got %v", err)
	}
}

func TestSendTextRateLimited(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusTooManyRequests,
		`{"ok":false,"description":"Too Many Requests","parameters":{"retry_after":7}}`)
	n := NewNotifier("123:abc", srv.URL)

	err := n.SendText(context.Background(), 42, "hi")
	transient, wait := notifier.IsTransient(err)
	if !transient {
		t.Fatalf("429 must be transient, got %v", err)
	}
	if wait != 7*time.Second {
		t.Fatalf("expected retry_after hint of 7s, got %v", wait)
	}
}

func TestSendTextServerError(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusBadGateway, `{"ok":false,"description":"Bad Gateway"}`)
	n := NewNotifier("123:abc", srv.URL)

	err := n.SendText(context.Background(), 42, "hi")
	if transient, _ := notifier.IsTransient(err); !transient {
		t.Fatalf("5xx must be transient, got %v", err)
	}
}

func TestSendTextNetworkFailureIsTransient(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusOK, `{"ok":true}`)
	srv.Close()
	n := NewNotifier("123:abc", srv.URL)

	err := n.SendText(context.Background(), 42, "hi")
	if transient, _ := notifier.IsTransient(err); !transient {
		t.Fatalf("connection failure must be transient, got %v", err)
	}
}

func TestSendTextMissingToken(t *testing.T) {
	n := NewNotifier("", "")
	err := n.SendText(context.Background(), 42, "hi")
	if !errors.Is(err, notifier.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestFactoryRegistered(t *testing.T) {
	n, err := notifier.New("telegram", map[string]string{"bot_token": "123:abc"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Name() != "telegram" {
		t.Fatalf("unexpected provider name %q", n.Name())
	}
}
