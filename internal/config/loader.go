package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is the path checked for TOML configuration.
const DefaultConfigFile = "data/config.toml"

// Load returns a Config using the hierarchy: defaults < TOML < ENV.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given TOML path using the
// hierarchy: defaults < TOML < ENV. The TOML file is optional; a missing
// file is not an error so an env-only deployment still works.
func LoadFrom(tomlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadTOML(&cfg, tomlPath); err != nil {
		return nil, fmt.Errorf("config toml: %w", err)
	}

	loadEnv(&cfg)

	if err := cfg.BuildIndex(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadTOML reads the TOML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Bind, "GITRELAY_BIND")
	setInt(&cfg.Server.Port, "GITRELAY_PORT")
	setString(&cfg.Server.Secret, "GITRELAY_SECRET")
	setString(&cfg.Server.Token, "GITRELAY_TOKEN")
	setString(&cfg.Telegram.BotToken, "GITRELAY_BOT_TOKEN")
	setString(&cfg.Telegram.APIServer, "GITRELAY_API_SERVER")
	setString(&cfg.Telegram.Provider, "GITRELAY_PROVIDER")
	setString(&cfg.Logging.Level, "GITRELAY_LOG_LEVEL")
	setString(&cfg.Logging.Service, "GITRELAY_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "GITRELAY_LOG_ASYNC")
	setBool(&cfg.Dispatch.Async, "GITRELAY_DISPATCH_ASYNC")
	setInt(&cfg.Dispatch.MaxAttempts, "GITRELAY_DISPATCH_MAX_ATTEMPTS")
	setDuration(&cfg.Dispatch.InitialBackoff, "GITRELAY_DISPATCH_INITIAL_BACKOFF")
	setDuration(&cfg.Dispatch.MaxBackoff, "GITRELAY_DISPATCH_MAX_BACKOFF")
	setDuration(&cfg.Dispatch.AttemptTimeout, "GITRELAY_DISPATCH_ATTEMPT_TIMEOUT")
	setInt(&cfg.Dispatch.MaxConcurrent, "GITRELAY_DISPATCH_MAX_CONCURRENT")
	setDuration(&cfg.Dispatch.DrainTimeout, "GITRELAY_DISPATCH_DRAIN_TIMEOUT")
	setInt(&cfg.Breaker.MaxFailures, "GITRELAY_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "GITRELAY_BREAKER_TIMEOUT")
	setBool(&cfg.Dedup.Enabled, "GITRELAY_DEDUP_ENABLED")
	setInt64(&cfg.Dedup.MaxSizeMB, "GITRELAY_DEDUP_MAX_SIZE_MB")
	setDuration(&cfg.Dedup.TTL, "GITRELAY_DEDUP_TTL")
	setString(&cfg.Otel.Endpoint, "GITRELAY_OTEL_ENDPOINT")
}

// validate enforces invariants that cannot be expressed in the schema.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Dispatch.MaxAttempts < 1 {
		return fmt.Errorf("dispatch.max_attempts must be >= 1, got %d", cfg.Dispatch.MaxAttempts)
	}
	if cfg.Dispatch.MaxConcurrent < 1 {
		return fmt.Errorf("dispatch.max_concurrent must be >= 1, got %d", cfg.Dispatch.MaxConcurrent)
	}

	if len(cfg.Telegram.SendTo) == 0 {
		// Without default chats every route must name its own destinations,
		// otherwise events for that repository have nowhere to go.
		for i := range cfg.Repositories {
			r := &cfg.Repositories[i]
			if r.SendTo == nil {
				return fmt.Errorf("repository %q has no send_to and telegram.send_to is empty", r.FullName)
			}
		}
	}

	if !cfg.AuthConfigured() {
		slog.Warn("no webhook secret or token configured, accepting unauthenticated deliveries")
	}
	if cfg.Telegram.BotToken == "" {
		slog.Warn("telegram.bot_token is empty, deliveries will be routed but not sent")
	}

	return nil
}

func setString(target *string, env string) {
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}

func setInt(target *int, env string) {
	if v := os.Getenv(env); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

func setInt64(target *int64, env string) {
	if v := os.Getenv(env); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = i
		}
	}
}

func setBool(target *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func setDuration(target *Duration, env string) {
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = Duration(d)
		}
	}
}
