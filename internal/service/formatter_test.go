package service

import (
	"strings"
	"testing"

	"github.com/Strob0t/GitRelay/internal/domain/event"
)

func TestFormatDeterministic(t *testing.T) {
	ev := &event.Event{
		Kind:        event.KindPush,
		Repository:  "owner/repo",
		Branch:      "main",
		Sender:      "user1",
		CommitCount: 3,
		URL:         "https://github.com/owner/repo/compare/a...b",
	}
	first := Format(ev)
	for i := 0; i < 10; i++ {
		if got := Format(ev); got != first {
			t.Fatalf("format not deterministic: %q vs %q", first, got)
		}
	}
}

func TestFormatPush(t *testing.T) {
	ev := &event.Event{
		Kind:        event.KindPush,
		Repository:  "owner/repo",
		Branch:      "main",
		Sender:      "user1",
		CommitCount: 3,
		URL:         "https://example.com/compare",
	}
	msg := Format(ev)
	for _, want := range []string{"user1", "owner/repo", "main", "3 commit(s)", "https://example.com/compare"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("push message missing %q: %q", want, msg)
		}
	}
}

func TestFormatForcedPush(t *testing.T) {
	ev := &event.Event{Kind: event.KindPush, Repository: "o/r", Branch: "main", Sender: "u", Forced: true}
	if !strings.Contains(Format(ev), "force-pushed") {
		t.Fatal("forced push should say force-pushed")
	}
}

func TestFormatEscapesHTML(t *testing.T) {
	ev := &event.Event{
		Kind:       event.KindIssues,
		Repository: "owner/repo",
		Sender:     "<script>alert(1)</script>",
		Action:     "opened",
		Number:     1,
		Title:      `a <b>bold</b> & "quoted" title`,
		URL:        "https://example.com/i/1",
	}
	msg := Format(ev)
	if strings.Contains(msg, "<script>") {
		t.Fatalf("sender not escaped: %q", msg)
	}
	if strings.Contains(msg, "<b>bold</b>") {
		t.Fatalf("title not escaped: %q", msg)
	}
	if !strings.Contains(msg, "&lt;script&gt;") {
		t.Fatalf("expected escaped sender, got %q", msg)
	}
}

func TestFormatOtherKind(t *testing.T) {
	ev := &event.Event{
		Kind:       event.KindOther,
		RawType:    "watch",
		Repository: "owner/repo",
		Sender:     "stargazer",
	}
	msg := Format(ev)
	for _, want := range []string{"watch", "owner/repo", "stargazer"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("generic message missing %q: %q", want, msg)
		}
	}
}

func TestFormatPing(t *testing.T) {
	ev := &event.Event{Kind: event.KindPing, Zen: "Keep it logically awesome."}
	if got := Format(ev); got != "Keep it logically awesome." {
		t.Fatalf("unexpected ping rendering: %q", got)
	}
}

func TestFormatRelease(t *testing.T) {
	ev := &event.Event{
		Kind:       event.KindRelease,
		Repository: "o/r",
		Sender:     "maintainer",
		Action:     "published",
		Title:      "v2.0.0",
		URL:        "https://example.com/rel",
	}
	msg := Format(ev)
	for _, want := range []string{"maintainer", "published", "v2.0.0", "o/r"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("release message missing %q: %q", want, msg)
		}
	}
}
