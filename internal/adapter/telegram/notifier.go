// Package telegram implements a notifier.Notifier backed by the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Strob0t/GitRelay/internal/port/notifier"
)

const providerName = "telegram"

// DefaultAPIServer is the public Bot API endpoint. A self-hosted Bot API
// server can be substituted via the api_server config key.
const DefaultAPIServer = "https://api.telegram.org"

// Notifier sends messages through the Telegram Bot API sendMessage method.
type Notifier struct {
	botToken   string
	apiServer  string
	httpClient *http.Client
}

// NewNotifier creates a Telegram notifier. apiServer may be empty to use the
// public endpoint.
func NewNotifier(botToken, apiServer string) *Notifier {
	if apiServer == "" {
		apiServer = DefaultAPIServer
	}
	return &Notifier{
		botToken:   botToken,
		apiServer:  apiServer,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (n *Notifier) Name() string { return providerName }

// sendMessageRequest is the Bot API sendMessage payload. Messages are sent
// as HTML with link previews disabled, matching the notification style.
type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the Bot API envelope, carrying the rate limit hint on 429.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// SendText delivers text to the given chat. Network failures, HTTP 429 and
// 5xx are reported as transient; other API rejections (chat not found, bot
// blocked, bad token) are permanent.
func (n *Notifier) SendText(ctx context.Context, chatID int64, text string) error {
	if n.botToken == "" {
		return notifier.ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiServer, url.PathEscape(n.botToken))

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("telegram marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return notifier.Transient(fmt.Errorf("telegram send: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := fmt.Errorf("telegram API %d: %s", resp.StatusCode, description(respBody))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &notifier.TransientError{Err: apiErr, RetryAfter: retryAfter(respBody)}
	case resp.StatusCode >= 500:
		return notifier.Transient(apiErr)
	default:
		return apiErr
	}
}

func description(body []byte) string {
	var r apiResponse
	if err := json.Unmarshal(body, &r); err == nil && r.Description != "" {
		return r.Description
	}
	return string(body)
}

func retryAfter(body []byte) time.Duration {
	var r apiResponse
	if err := json.Unmarshal(body, &r); err == nil && r.Parameters != nil {
		return time.Duration(r.Parameters.RetryAfter) * time.Second
	}
	return 0
}
