// Package config provides hierarchical configuration loading for GitRelay.
// Precedence: defaults < TOML file < environment variables.
package config

import (
	"fmt"
	"time"
)

// Config holds all runtime configuration for the relay.
// It is built once at startup and must not be mutated afterwards; every
// request handler reads the same snapshot without synchronization.
type Config struct {
	Server       Server       `toml:"server"`
	Telegram     Telegram     `toml:"telegram"`
	Repositories []Repository `toml:"repository"`
	Dispatch     Dispatch     `toml:"dispatch"`
	Logging      Logging      `toml:"logging"`
	Breaker      Breaker      `toml:"breaker"`
	Dedup        Dedup        `toml:"dedup"`
	Otel         Otel         `toml:"otel"`

	routes map[string]*Repository
}

// Server holds HTTP listener and webhook authentication settings.
// Secret enables HMAC-SHA256 signature checks, Token enables the ?token=
// query check. When both are set a request passing either is accepted.
// When neither is set every delivery is accepted; the loader logs a warning
// because that leaves the endpoint open.
type Server struct {
	Bind   string `toml:"bind"`
	Port   int    `toml:"port"`
	Secret string `toml:"secrets"`
	Token  string `toml:"token"`
}

// Addr returns the listen address in host:port form.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.Port)
}

// Telegram holds the bot credentials and the default destination chats.
// APIServer overrides the public Bot API endpoint for self-hosted servers.
type Telegram struct {
	BotToken  string   `toml:"bot_token"`
	APIServer string   `toml:"api_server"`
	SendTo    ChatList `toml:"send_to"`
	Provider  string   `toml:"provider"`
}

// Repository is a per-repository routing rule. FullName is matched exactly
// and case-sensitively against the payload's repository full name.
//
// SendTo is three-state: nil inherits Telegram.SendTo, an explicit empty list
// sends nowhere, a non-empty list fully replaces the defaults (never merges).
type Repository struct {
	FullName     string    `toml:"full_name"`
	SendTo       *ChatList `toml:"send_to"`
	BranchIgnore []string  `toml:"branch_ignore"`
}

// Ignored reports whether the given branch is suppressed for this repository.
func (r *Repository) Ignored(branch string) bool {
	if branch == "" {
		return false
	}
	for _, b := range r.BranchIgnore {
		if b == branch {
			return true
		}
	}
	return false
}

// Dispatch holds outbound delivery behavior.
// Async detaches message delivery from the webhook request lifecycle: the
// HTTP response reflects authentication and parsing only, and sends continue
// even if GitHub drops the connection.
type Dispatch struct {
	Async          bool     `toml:"async"`
	MaxAttempts    int      `toml:"max_attempts"`
	InitialBackoff Duration `toml:"initial_backoff"`
	MaxBackoff     Duration `toml:"max_backoff"`
	AttemptTimeout Duration `toml:"attempt_timeout"`
	MaxConcurrent  int      `toml:"max_concurrent"`
	DrainTimeout   Duration `toml:"drain_timeout"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `toml:"level"`
	Service string `toml:"service"`
	Async   bool   `toml:"async"`
}

// Breaker holds circuit breaker configuration for the Telegram API.
type Breaker struct {
	MaxFailures int      `toml:"max_failures"`
	Timeout     Duration `toml:"timeout"`
}

// Dedup holds delivery deduplication cache settings. GitHub redeliveries
// reuse the X-GitHub-Delivery id; deliveries seen within TTL are dropped.
type Dedup struct {
	Enabled   bool     `toml:"enabled"`
	MaxSizeMB int64    `toml:"max_size_mb"`
	TTL       Duration `toml:"ttl"`
}

// Otel holds OpenTelemetry export configuration. Tracing and metrics are
// disabled when Endpoint is empty.
type Otel struct {
	Endpoint string `toml:"endpoint"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Server: Server{
			Bind: "0.0.0.0",
			Port: 11451,
		},
		Dispatch: Dispatch{
			Async:          true,
			MaxAttempts:    3,
			InitialBackoff: Duration(time.Second),
			MaxBackoff:     Duration(15 * time.Second),
			AttemptTimeout: Duration(10 * time.Second),
			MaxConcurrent:  8,
			DrainTimeout:   Duration(30 * time.Second),
		},
		Logging: Logging{
			Level:   "info",
			Service: "gitrelay",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     Duration(30 * time.Second),
		},
		Dedup: Dedup{
			Enabled:   true,
			MaxSizeMB: 4,
			TTL:       Duration(10 * time.Minute),
		},
		Telegram: Telegram{
			Provider: "telegram",
		},
	}
}

// Route returns the routing rule for the given repository full name.
func (c *Config) Route(fullName string) (*Repository, bool) {
	r, ok := c.routes[fullName]
	return r, ok
}

// AuthConfigured reports whether any webhook authentication mechanism is set.
func (c *Config) AuthConfigured() bool {
	return c.Server.Secret != "" || c.Server.Token != ""
}

// BuildIndex populates the repository lookup map. Duplicate full_name
// entries are a configuration error. The loader calls this; programmatic
// construction must call it before Route is used.
func (c *Config) BuildIndex() error {
	c.routes = make(map[string]*Repository, len(c.Repositories))
	for i := range c.Repositories {
		r := &c.Repositories[i]
		if r.FullName == "" {
			return fmt.Errorf("repository entry %d: full_name is required", i)
		}
		if _, dup := c.routes[r.FullName]; dup {
			return fmt.Errorf("duplicate repository entry %q", r.FullName)
		}
		c.routes[r.FullName] = r
	}
	return nil
}
