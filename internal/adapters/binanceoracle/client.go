package binanceoracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"solSimBot/internal/ports"

	"github.com/adshao/go-binance/v2"
)

// Client implements ports.PriceSource using Binance spot ticker prices.
// It serves quotes only for mints it has a symbol mapping for, which in
// practice means the base asset (wrapped SOL against a USD stable pair).
// Ticker endpoints are public; no API keys are needed.
type Client struct {
	spotClient *binance.Client
	symbols    map[string]string // mint -> spot symbol, e.g. WSOL -> SOLUSDC
	logger     ports.Logger
}

// Config holds configuration for the Binance price source.
type Config struct {
	Symbols map[string]string
	BaseURL string        // Overridable for tests; defaults to the spot API
	Timeout time.Duration // Per-request timeout
	Logger  ports.Logger
}

// New creates a new Binance price source.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance price source: %w", ports.ErrConfiguration)
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one mint-to-symbol mapping is required: %w", ports.ErrConfiguration)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	spotClient := binance.NewClient("", "")
	// The library's default HTTP client has no timeout; a stalled ticker
	// endpoint must not hang the command loop.
	spotClient.HTTPClient = &http.Client{Timeout: timeout}
	if cfg.BaseURL != "" {
		spotClient.BaseURL = cfg.BaseURL
	}

	return &Client{
		spotClient: spotClient,
		symbols:    cfg.Symbols,
		logger:     cfg.Logger,
	}, nil
}

// GetPriceUSD retrieves the last ticker price for the symbol mapped to the
// given mint. An unmapped mint is not found, not an error.
func (c *Client) GetPriceUSD(ctx context.Context, mint string) (float64, bool, error) {
	symbol, ok := c.symbols[mint]
	if !ok {
		return 0, false, nil
	}

	prices, err := c.spotClient.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return 0, false, fmt.Errorf("ticker request for %s: %w", symbol, ports.ErrTimeout)
		}
		return 0, false, fmt.Errorf("failed to fetch ticker price for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		c.logger.Warn(ctx, "No ticker price returned", map[string]interface{}{"symbol": symbol})
		return 0, false, nil
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse ticker price %q for %s: %w", prices[0].Price, symbol, err)
	}
	if price <= 0 {
		return 0, false, nil
	}
	return price, true, nil
}
