package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"solSimBot/config"
	"solSimBot/internal/adapters/binanceoracle"
	"solSimBot/internal/adapters/dexscreener"
	"solSimBot/internal/adapters/jupiter"
	"solSimBot/internal/adapters/logger"
	"solSimBot/internal/adapters/sqlite"
	"solSimBot/internal/adapters/telegram"
	"solSimBot/internal/app"
	"solSimBot/internal/engine"
	"solSimBot/internal/ports"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Ledger Repository
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize ledger repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing ledger repository")
		}
	}()

	// 4. Initialize Price Sources
	jupClient, err := jupiter.New(jupiter.Config{
		BaseURL: cfg.JupPriceURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize aggregator price client: %v", err)
	}

	var fallback ports.PriceSource
	if cfg.DexLatestTokensURL != "" {
		dexClient, err := dexscreener.New(dexscreener.Config{
			BaseURL: cfg.DexLatestTokensURL,
			Timeout: cfg.HTTPTimeout,
			Logger:  appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize DEX pairs client: %v", err)
		}
		fallback = dexClient
	} else {
		appLogger.Warn(context.Background(), "DEX_HTTPS_LATEST_TOKENS not set, price fallback disabled")
	}

	basePrice := ports.PriceSource(jupClient)
	if cfg.BaseQuoteSource == config.BaseQuoteBinance {
		binanceClient, err := binanceoracle.New(binanceoracle.Config{
			Symbols: map[string]string{cfg.BaseMint: cfg.BinanceBaseSymbol},
			Logger:  appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Binance price source: %v", err)
		}
		basePrice = binanceClient
	}
	appLogger.Info(context.Background(), "Price sources initialized", map[string]interface{}{"baseQuoteSource": cfg.BaseQuoteSource})

	// 5. Initialize Notifier
	notifier, err := telegram.NewNotifier(telegram.NotifierConfig{
		Token:   cfg.TelegramBotToken,
		ChatID:  cfg.TelegramChatID,
		Enabled: cfg.TelegramLog,
		Timeout: cfg.HTTPTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Telegram notifier: %v", err)
	}

	// 6. Initialize Position Engine
	posEngine, err := engine.New(engine.Config{
		BaseMint:     cfg.BaseMint,
		BuyAmountSOL: cfg.BuyAmountSOL,
		FeeLamports:  cfg.FeeLamports,
	}, appLogger, repo, jupClient, fallback, basePrice, notifier)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize position engine: %v", err)
	}
	appLogger.Info(context.Background(), "Position engine initialized")

	// 7. Initialize Command Bot and Service
	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:       cfg.TelegramBotToken,
		PollTimeout: cfg.PollTimeout,
		Logger:      appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Telegram bot: %v", err)
	}

	service, err := app.NewService(appLogger, posEngine, bot)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize command service: %v", err)
	}

	// 8. Run
	if err := service.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Command service exited with error")
		log.Fatalf("FATAL: Command service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
