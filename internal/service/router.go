package service

import (
	"github.com/Strob0t/GitRelay/internal/config"
	"github.com/Strob0t/GitRelay/internal/domain/event"
)

// Router computes the destination chats for a normalized event from the
// immutable config snapshot. Safe for concurrent use; it only reads.
type Router struct {
	cfg *config.Config
}

// NewRouter creates a Router over the given config snapshot.
func NewRouter(cfg *config.Config) *Router {
	return &Router{cfg: cfg}
}

// Route resolves an event to its destination chat set and, when that set is
// non-empty, the formatted message. An empty chat set is a valid outcome
// (suppression), not an error.
//
// Resolution:
//  1. events the normalizer marked suppressed go nowhere;
//  2. no repository rule: the default chats, no branch filtering;
//  3. rule with the event's branch in branch_ignore: nowhere, regardless of
//     any send_to override;
//  4. rule with send_to set: exactly those chats (an explicit empty list is
//     a deliberate "send nowhere"); send_to unset falls back to the
//     default chats. Overrides replace the defaults, never merge.
func (r *Router) Route(ev *event.Event) event.Decision {
	if ev.Suppressed {
		return event.Decision{}
	}

	chats := r.resolveChats(ev)
	if len(chats) == 0 {
		return event.Decision{}
	}

	return event.Decision{
		Chats:   chats,
		Message: Format(ev),
	}
}

func (r *Router) resolveChats(ev *event.Event) []int64 {
	rule, ok := r.cfg.Route(ev.Repository)
	if !ok {
		return r.cfg.Telegram.SendTo
	}

	if rule.Ignored(ev.Branch) {
		return nil
	}

	if rule.SendTo != nil {
		return *rule.SendTo
	}
	return r.cfg.Telegram.SendTo
}
