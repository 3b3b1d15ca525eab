// Package service contains the webhook processing pipeline: payload
// normalization, routing, formatting and dispatch.
package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Strob0t/GitRelay/internal/domain"
	"github.com/Strob0t/GitRelay/internal/domain/event"
)

// repoEnvelope is the payload subset shared by every repository-scoped event.
type repoEnvelope struct {
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// Normalize parses a raw GitHub delivery into a canonical event.
//
// The event type header selects the field set to decode; types without a
// dedicated mapping become KindOther carrying only the generically extracted
// repository name. A body that cannot be decoded, or that lacks
// repository.full_name, fails with domain.ErrMalformedPayload. Ping is the
// one exception: organization-level hooks ping without a repository.
func Normalize(eventType string, body []byte) (*event.Event, error) {
	var env repoEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	kind := event.Kind(eventType)
	if env.Repository.FullName == "" && kind != event.KindPing {
		return nil, fmt.Errorf("%w: missing repository.full_name", domain.ErrMalformedPayload)
	}

	ev := &event.Event{
		Repository: env.Repository.FullName,
		Sender:     env.Sender.Login,
	}

	switch kind {
	case event.KindPing:
		return normalizePing(ev, body)
	case event.KindPush:
		return normalizePush(ev, body)
	case event.KindRelease:
		return normalizeRelease(ev, body)
	case event.KindIssues:
		return normalizeIssues(ev, body)
	case event.KindPullRequest:
		return normalizePullRequest(ev, body)
	case event.KindCreate, event.KindDelete:
		return normalizeRef(ev, kind, body)
	default:
		ev.Kind = event.KindOther
		ev.RawType = eventType
		return ev, nil
	}
}

func normalizePing(ev *event.Event, body []byte) (*event.Event, error) {
	var raw struct {
		Zen string `json:"zen"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	ev.Kind = event.KindPing
	ev.Zen = raw.Zen
	return ev, nil
}

func normalizePush(ev *event.Event, body []byte) (*event.Event, error) {
	var raw struct {
		Ref     string `json:"ref"`
		Before  string `json:"before"`
		After   string `json:"after"`
		Forced  bool   `json:"forced"`
		Compare string `json:"compare"`
		Commits []struct {
			ID string `json:"id"`
		} `json:"commits"`
		Pusher struct {
			Name string `json:"name"`
		} `json:"pusher"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	ev.Kind = event.KindPush
	ev.Branch = extractBranchFromRef(raw.Ref)
	ev.Before = raw.Before
	ev.After = raw.After
	ev.Forced = raw.Forced
	ev.URL = raw.Compare
	ev.CommitCount = len(raw.Commits)
	if ev.Sender == "" {
		ev.Sender = raw.Pusher.Name
	}

	// Branch create/delete triggers a mirror push with an all-zero before or
	// after hash; those carry no commits worth announcing.
	if isZeroHash(raw.Before) || isZeroHash(raw.After) {
		ev.Suppressed = true
	}
	return ev, nil
}

func normalizeRelease(ev *event.Event, body []byte) (*event.Event, error) {
	var raw struct {
		Action  string `json:"action"`
		Release struct {
			TagName string `json:"tag_name"`
			Name    string `json:"name"`
			HTMLURL string `json:"html_url"`
		} `json:"release"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	ev.Kind = event.KindRelease
	ev.Action = raw.Action
	ev.Title = raw.Release.Name
	if ev.Title == "" {
		ev.Title = raw.Release.TagName
	}
	ev.URL = raw.Release.HTMLURL
	return ev, nil
}

func normalizeIssues(ev *event.Event, body []byte) (*event.Event, error) {
	var raw struct {
		Action string `json:"action"`
		Issue  struct {
			Number  int    `json:"number"`
			Title   string `json:"title"`
			HTMLURL string `json:"html_url"`
		} `json:"issue"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	ev.Kind = event.KindIssues
	ev.Action = raw.Action
	ev.Number = raw.Issue.Number
	ev.Title = raw.Issue.Title
	ev.URL = raw.Issue.HTMLURL
	return ev, nil
}

func normalizePullRequest(ev *event.Event, body []byte) (*event.Event, error) {
	var raw struct {
		Action      string `json:"action"`
		Number      int    `json:"number"`
		PullRequest struct {
			Title   string `json:"title"`
			HTMLURL string `json:"html_url"`
			Merged  bool   `json:"merged"`
		} `json:"pull_request"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	ev.Kind = event.KindPullRequest
	ev.Action = raw.Action
	if raw.Action == "closed" && raw.PullRequest.Merged {
		ev.Action = "merged"
	}
	ev.Number = raw.Number
	ev.Title = raw.PullRequest.Title
	ev.URL = raw.PullRequest.HTMLURL
	return ev, nil
}

func normalizeRef(ev *event.Event, kind event.Kind, body []byte) (*event.Event, error) {
	var raw struct {
		Ref     string `json:"ref"`
		RefType string `json:"ref_type"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	ev.Kind = kind
	ev.RefType = raw.RefType
	ev.Title = raw.Ref
	if raw.RefType == "branch" {
		ev.Branch = raw.Ref
	}
	return ev, nil
}

func extractBranchFromRef(ref string) string {
	// refs/heads/main -> main, refs/heads/feature/foo -> feature/foo
	const prefix = "refs/heads/"
	if strings.HasPrefix(ref, prefix) {
		return ref[len(prefix):]
	}
	return ref
}

// isZeroHash reports whether s is a non-empty string of '0' characters.
func isZeroHash(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != '0' {
			return false
		}
	}
	return true
}
