package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"solSimBot/internal/ports"
)

// Client implements ports.PriceSource against a DEX pairs API:
// GET {baseURL}/{mint} returning the pairs trading that token. Used as the
// fallback source when the aggregator has no quote.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the DEX pairs client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  ports.Logger
}

// New creates a new DEX pairs client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for DEX pairs client: %w", ports.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for DEX pairs client: %w", ports.ErrConfiguration)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

// pairsResponse mirrors the DEX API response. PriceUsd arrives as a string.
type pairsResponse struct {
	Pairs []struct {
		PriceUsd  string  `json:"priceUsd"`
		MarketCap float64 `json:"marketCap"`
	} `json:"pairs"`
}

// GetPriceUSD retrieves the USD price of the first pair trading the mint.
// A null or empty pairs list means the token is not listed; reported as not
// found rather than an error.
func (c *Client) GetPriceUSD(ctx context.Context, mint string) (float64, bool, error) {
	pr, err := c.fetchPairs(ctx, mint)
	if err != nil {
		return 0, false, err
	}
	if len(pr.Pairs) == 0 {
		return 0, false, nil
	}
	price, err := strconv.ParseFloat(pr.Pairs[0].PriceUsd, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse priceUsd %q for mint %s: %w", pr.Pairs[0].PriceUsd, mint, err)
	}
	if price <= 0 {
		return 0, false, nil
	}
	return price, true, nil
}

// GetMarketCap retrieves the market cap of the first pair trading the mint.
func (c *Client) GetMarketCap(ctx context.Context, mint string) (float64, bool, error) {
	pr, err := c.fetchPairs(ctx, mint)
	if err != nil {
		return 0, false, err
	}
	if len(pr.Pairs) == 0 {
		return 0, false, nil
	}
	return pr.Pairs[0].MarketCap, true, nil
}

func (c *Client) fetchPairs(ctx context.Context, mint string) (*pairsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+mint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pairs request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pairs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pairs request returned status %d: %s", resp.StatusCode, string(body))
	}

	var pr pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode pairs response: %w", err)
	}
	return &pr, nil
}
