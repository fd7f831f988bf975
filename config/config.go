package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"solSimBot/internal/adapters/logger" // Import the logger package for LogLevel
)

// Base quote source selection.
const (
	BaseQuoteJupiter = "jupiter"
	BaseQuoteBinance = "binance"
)

// Config holds all application configuration.
type Config struct {
	// Telegram
	TelegramBotToken string
	TelegramChatID   string
	TelegramLog      bool // When false, trade notifications are suppressed

	// Price APIs
	JupPriceURL        string // Aggregator price API (primary source)
	DexLatestTokensURL string // DEX pairs API (fallback source); empty disables the fallback
	BaseQuoteSource    string // Where the base asset (SOL) quote comes from
	BinanceBaseSymbol  string // Spot symbol used when BaseQuoteSource is "binance"
	HTTPTimeout        time.Duration

	// Simulation parameters
	BaseMint     string  // Mint of the base asset paid on buys (wrapped SOL)
	BuyAmountSOL float64 // SOL spent per simulated buy
	FeeLamports  int64   // Simulated transaction fee, in lamports

	// Database
	DBPath string

	// Bot
	PollTimeout time.Duration // Long-poll timeout for the command loop

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Telegram
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")
	cfg.TelegramLog = getEnvAsBool("TELEGRAM_LOG", true)

	if cfg.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN must be set")
	}
	if cfg.TelegramLog && cfg.TelegramChatID == "" {
		errs = append(errs, "TELEGRAM_CHAT_ID must be set when TELEGRAM_LOG is enabled")
	}

	// Price APIs
	cfg.JupPriceURL = getEnv("JUP_HTTPS_PRICE_URI", "")
	if cfg.JupPriceURL == "" {
		errs = append(errs, "JUP_HTTPS_PRICE_URI must be set")
	}
	cfg.DexLatestTokensURL = getEnv("DEX_HTTPS_LATEST_TOKENS", "")

	cfg.BaseQuoteSource = strings.ToLower(getEnv("BASE_QUOTE_SOURCE", BaseQuoteJupiter))
	if cfg.BaseQuoteSource != BaseQuoteJupiter && cfg.BaseQuoteSource != BaseQuoteBinance {
		errs = append(errs, fmt.Sprintf("BASE_QUOTE_SOURCE must be %q or %q", BaseQuoteJupiter, BaseQuoteBinance))
	}
	cfg.BinanceBaseSymbol = getEnv("BINANCE_BASE_SYMBOL", "SOLUSDC")

	getTimeoutMs := getEnvAsInt("GET_TIMEOUT_MS", 10000)
	if getTimeoutMs <= 0 {
		errs = append(errs, "GET_TIMEOUT_MS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(getTimeoutMs) * time.Millisecond

	// Simulation parameters
	cfg.BaseMint = getEnv("WSOL_PC_MINT", "So11111111111111111111111111111111111111112")

	cfg.BuyAmountSOL, err = getEnvAsFloatRequired("BUY_AMOUNT_SOL", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BUY_AMOUNT_SOL: %v", err))
	} else if cfg.BuyAmountSOL <= 0 {
		errs = append(errs, "BUY_AMOUNT_SOL must be positive")
	}

	feeLamports, err := getEnvAsIntRequired("FEE_LAMPORTS", 1004999)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FEE_LAMPORTS: %v", err))
	} else if feeLamports < 0 {
		errs = append(errs, "FEE_LAMPORTS cannot be negative")
	}
	cfg.FeeLamports = int64(feeLamports)

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/holdings.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Bot
	pollTimeoutSeconds := getEnvAsInt("BOT_POLL_TIMEOUT_SECONDS", 30)
	if pollTimeoutSeconds <= 0 {
		errs = append(errs, "BOT_POLL_TIMEOUT_SECONDS must be positive")
	}
	cfg.PollTimeout = time.Duration(pollTimeoutSeconds) * time.Second

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// For non-required fields the default is acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
