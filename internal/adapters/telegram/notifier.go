package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"solSimBot/internal/ports"
)

const apiBaseURL = "https://api.telegram.org"

// Notifier implements ports.Notifier by posting messages to a fixed Telegram
// chat via the Bot API. Delivery is best-effort: every failure is logged and
// swallowed so the trade path never blocks or rolls back on a lost message.
type Notifier struct {
	baseURL string
	token   string
	chatID  string
	enabled bool
	client  *http.Client
	logger  ports.Logger
}

// NotifierConfig holds configuration for the Telegram notifier.
type NotifierConfig struct {
	Token   string
	ChatID  string
	Enabled bool   // When false, Notify is a silent no-op
	BaseURL string // Overridable for tests; defaults to the Bot API
	Timeout time.Duration
	Logger  ports.Logger
}

// NewNotifier creates a new Telegram notifier.
func NewNotifier(cfg NotifierConfig) (*Notifier, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram notifier: %w", ports.ErrConfiguration)
	}
	if cfg.Enabled && (cfg.Token == "" || cfg.ChatID == "") {
		return nil, fmt.Errorf("bot token and chat ID are required when Telegram notifications are enabled: %w", ports.ErrConfiguration)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	return &Notifier{
		baseURL: baseURL,
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		enabled: cfg.Enabled,
		client:  &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}, nil
}

// Notify posts a Markdown message to the configured chat. Errors are logged,
// never returned.
func (n *Notifier) Notify(ctx context.Context, text string) {
	if !n.enabled {
		return
	}

	payload := map[string]string{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error(ctx, fmt.Errorf("%w: marshal payload: %v", ports.ErrNotification, err), "Telegram notification dropped")
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error(ctx, fmt.Errorf("%w: create request: %v", ports.ErrNotification, err), "Telegram notification dropped")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error(ctx, fmt.Errorf("%w: send request: %v", ports.ErrNotification, err), "Telegram notification dropped")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		n.logger.Error(ctx,
			fmt.Errorf("%w: unexpected status %d: %s", ports.ErrNotification, resp.StatusCode, string(respBody)),
			"Telegram notification dropped")
	}
}
