// Package event defines the canonical representation of a GitHub webhook delivery.
package event

// Kind classifies the webhook event.
type Kind string

const (
	KindPing        Kind = "ping"
	KindPush        Kind = "push"
	KindRelease     Kind = "release"
	KindIssues      Kind = "issues"
	KindPullRequest Kind = "pull_request"
	KindCreate      Kind = "create"
	KindDelete      Kind = "delete"
	// KindOther marks event types the normalizer has no dedicated mapping for.
	// RawType carries the original header value.
	KindOther Kind = "other"
)

// Event is a normalized webhook delivery, decoupled from the GitHub wire format.
// It is constructed once by the normalizer and treated as immutable afterwards.
type Event struct {
	Kind       Kind   `json:"kind"`
	RawType    string `json:"raw_type,omitempty"` // original X-GitHub-Event value for KindOther
	Repository string `json:"repository"`         // "owner/repo"
	Branch     string `json:"branch,omitempty"`   // empty for events without a ref
	Sender     string `json:"sender"`

	// Kind-specific summary fields used by the formatter.
	Title       string `json:"title,omitempty"`  // PR/issue/release title
	Action      string `json:"action,omitempty"` // "opened", "closed", "published", ...
	Number      int    `json:"number,omitempty"` // PR/issue number
	URL         string `json:"url,omitempty"`
	CommitCount int    `json:"commit_count,omitempty"`
	Before      string `json:"before,omitempty"`
	After       string `json:"after,omitempty"`
	Forced      bool   `json:"forced,omitempty"`
	RefType     string `json:"ref_type,omitempty"` // "branch" or "tag" for create/delete
	Zen         string `json:"zen,omitempty"`      // ping payload zen string

	// Suppressed is set by the normalizer for deliveries that are valid but must
	// never produce a message (zero-hash mirror pushes on branch create/delete).
	Suppressed bool `json:"-"`
}

// Decision is the routing result for a single event: the destination chat ids
// and the message to deliver. Empty Chats means the event is suppressed.
type Decision struct {
	Chats   []int64 `json:"chats"`
	Message string  `json:"message"`
}
