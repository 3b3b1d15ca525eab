package service

import (
	"fmt"
	"html"

	"github.com/Strob0t/GitRelay/internal/domain/event"
)

// Format renders an event into a Telegram HTML message. Deterministic:
// identical events always produce identical output. Every payload-derived
// field is escaped so repository names or titles cannot inject markup.
func Format(ev *event.Event) string {
	switch ev.Kind {
	case event.KindPush:
		return formatPush(ev)
	case event.KindRelease:
		return fmt.Sprintf("<b>%s</b> %s release <a href=\"%s\">%s</a> in <code>%s</code>",
			html.EscapeString(ev.Sender),
			html.EscapeString(ev.Action),
			escapeURL(ev.URL),
			html.EscapeString(ev.Title),
			html.EscapeString(ev.Repository))
	case event.KindIssues:
		return fmt.Sprintf("<b>%s</b> %s issue <a href=\"%s\">#%d %s</a> in <code>%s</code>",
			html.EscapeString(ev.Sender),
			html.EscapeString(ev.Action),
			escapeURL(ev.URL),
			ev.Number,
			html.EscapeString(ev.Title),
			html.EscapeString(ev.Repository))
	case event.KindPullRequest:
		return fmt.Sprintf("<b>%s</b> %s pull request <a href=\"%s\">#%d %s</a> in <code>%s</code>",
			html.EscapeString(ev.Sender),
			html.EscapeString(ev.Action),
			escapeURL(ev.URL),
			ev.Number,
			html.EscapeString(ev.Title),
			html.EscapeString(ev.Repository))
	case event.KindCreate:
		return fmt.Sprintf("<b>%s</b> created %s <code>%s</code> in <code>%s</code>",
			html.EscapeString(ev.Sender),
			html.EscapeString(ev.RefType),
			html.EscapeString(ev.Title),
			html.EscapeString(ev.Repository))
	case event.KindDelete:
		return fmt.Sprintf("<b>%s</b> deleted %s <code>%s</code> in <code>%s</code>",
			html.EscapeString(ev.Sender),
			html.EscapeString(ev.RefType),
			html.EscapeString(ev.Title),
			html.EscapeString(ev.Repository))
	case event.KindPing:
		return html.EscapeString(ev.Zen)
	default:
		// Unknown kinds still get a minimal rendering so an event never
		// disappears just because no template exists for it.
		return fmt.Sprintf("<b>%s</b> triggered %s in <code>%s</code>",
			html.EscapeString(ev.Sender),
			html.EscapeString(ev.RawType),
			html.EscapeString(ev.Repository))
	}
}

func formatPush(ev *event.Event) string {
	verb := "pushed"
	if ev.Forced {
		verb = "force-pushed"
	}

	msg := fmt.Sprintf("<b>%s</b> %s %d commit(s) to <code>%s</code> (<code>%s</code>)",
		html.EscapeString(ev.Sender),
		verb,
		ev.CommitCount,
		html.EscapeString(ev.Repository),
		html.EscapeString(ev.Branch))

	if ev.URL != "" {
		msg += fmt.Sprintf("\n<a href=\"%s\">compare changes</a>", escapeURL(ev.URL))
	}
	return msg
}

// escapeURL escapes a URL for use inside an href attribute.
func escapeURL(u string) string {
	return html.EscapeString(u)
}
