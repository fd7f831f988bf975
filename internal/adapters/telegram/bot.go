package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"solSimBot/internal/ports"
)

// UpdateHandler processes one incoming chat message.
type UpdateHandler = func(ctx context.Context, chatID int64, text string)

// Bot receives commands from Telegram via getUpdates long polling and sends
// replies. It is the inbound counterpart to Notifier.
type Bot struct {
	baseURL     string
	token       string
	client      *http.Client
	logger      ports.Logger
	pollTimeout time.Duration
	offset      int64 // Next update ID to request; only touched by Poll
}

// BotConfig holds configuration for the Telegram command bot.
type BotConfig struct {
	Token       string
	BaseURL     string        // Overridable for tests; defaults to the Bot API
	PollTimeout time.Duration // Long-poll timeout for getUpdates
	Logger      ports.Logger
}

// NewBot creates a new Telegram command bot.
func NewBot(cfg BotConfig) (*Bot, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram bot: %w", ports.ErrConfiguration)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("bot token is required for Telegram bot: %w", ports.ErrConfiguration)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Bot{
		baseURL: baseURL,
		token:   cfg.Token,
		// The HTTP timeout must exceed the server-side long-poll window.
		client:      &http.Client{Timeout: pollTimeout + 10*time.Second},
		logger:      cfg.Logger,
		pollTimeout: pollTimeout,
	}, nil
}

// update mirrors the subset of the Bot API update object the bot consumes.
type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK          bool     `json:"ok"`
	Result      []update `json:"result"`
	Description string   `json:"description"`
}

// Poll runs the long-poll loop until the context is canceled, invoking handle
// for every incoming text message. Transport errors are logged and the loop
// backs off briefly rather than exiting.
func (b *Bot) Poll(ctx context.Context, handle UpdateHandler) error {
	b.logger.Info(ctx, "Telegram command loop started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info(ctx, "Telegram command loop stopped")
			return ctx.Err()
		default:
		}

		updates, err := b.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info(ctx, "Telegram command loop stopped")
				return ctx.Err()
			}
			b.logger.Error(ctx, err, "Failed to fetch Telegram updates")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= b.offset {
				b.offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			handle(ctx, u.Message.Chat.ID, u.Message.Text)
		}
	}
}

func (b *Bot) getUpdates(ctx context.Context) ([]update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(b.offset, 10))
	q.Set("timeout", strconv.Itoa(int(b.pollTimeout.Seconds())))

	reqURL := fmt.Sprintf("%s/bot%s/getUpdates?%s", b.baseURL, b.token, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create getUpdates request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("getUpdates returned status %d: %s", resp.StatusCode, string(body))
	}

	var ur updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("failed to decode getUpdates response: %w", err)
	}
	if !ur.OK {
		return nil, fmt.Errorf("getUpdates rejected: %s", ur.Description)
	}
	return ur.Result, nil
}

// SendMessage posts a Markdown reply to a chat. Unlike Notify this returns
// the error, since a failed command reply is worth surfacing to the caller.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage payload: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", b.baseURL, b.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sendMessage returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
