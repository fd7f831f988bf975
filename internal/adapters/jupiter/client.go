package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"solSimBot/internal/ports"

	"github.com/jpillora/backoff"
)

// Client implements ports.PriceSource against a Jupiter-style price
// aggregator API: GET {baseURL}?ids={mint} returning a data map keyed by mint.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      ports.Logger
	maxAttempts int
}

// Config holds configuration for the aggregator price client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration // Per-request timeout
	Logger      ports.Logger
	MaxAttempts int // Transport retries before giving up (default 3)
}

// New creates a new aggregator price client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for aggregator price client: %w", ports.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for aggregator price client: %w", ports.ErrConfiguration)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      cfg.Logger,
		maxAttempts: maxAttempts,
	}, nil
}

// priceResponse mirrors the aggregator's response envelope.
type priceResponse struct {
	Data map[string]struct {
		Price float64 `json:"price"`
	} `json:"data"`
}

// GetPriceUSD retrieves the current USD price for a token mint.
// A missing entry in the response is reported as not found, distinct from a
// transport error. Transport errors are retried with exponential backoff up
// to the configured attempt limit.
func (c *Client) GetPriceUSD(ctx context.Context, mint string) (float64, bool, error) {
	b := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    2 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		price, found, err := c.fetch(ctx, mint)
		if err == nil {
			return price, found, nil
		}
		lastErr = err
		c.logger.Warn(ctx, "Aggregator price fetch failed", map[string]interface{}{
			"mint":    mint,
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return 0, false, fmt.Errorf("aggregator price fetch for %s failed after %d attempts: %w", mint, c.maxAttempts, lastErr)
}

func (c *Client) fetch(ctx context.Context, mint string) (float64, bool, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, false, fmt.Errorf("invalid aggregator URL %q: %w", c.baseURL, err)
	}
	q := u.Query()
	q.Set("ids", mint)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, false, fmt.Errorf("price request returned status %d: %s", resp.StatusCode, string(body))
	}

	var pr priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, false, fmt.Errorf("failed to decode price response: %w", err)
	}

	entry, ok := pr.Data[mint]
	if !ok || entry.Price <= 0 {
		// The aggregator has no usable quote for this mint. Normal outcome.
		return 0, false, nil
	}
	return entry.Price, true, nil
}
