package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"solSimBot/internal/domain"
	"solSimBot/internal/ports"
)

// PositionEngine is the slice of the engine the command service drives.
type PositionEngine interface {
	OpenPosition(ctx context.Context, mint string) (*domain.Holding, error)
	ClosePosition(ctx context.Context, mint string) (*domain.SellResult, error)
	RunningProfit(ctx context.Context) (float64, error)
}

// Transport receives chat commands and sends replies.
type Transport interface {
	Poll(ctx context.Context, handle func(ctx context.Context, chatID int64, text string)) error
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Service routes chat commands to the position engine. It is deliberately
// thin: all trade state and arithmetic live in the engine.
type Service struct {
	logger    ports.Logger
	engine    PositionEngine
	transport Transport
}

// NewService creates a new command service instance.
func NewService(logger ports.Logger, engine PositionEngine, transport Transport) (*Service, error) {
	if logger == nil || engine == nil || transport == nil {
		return nil, fmt.Errorf("missing required dependencies for command service: %w", ports.ErrConfiguration)
	}
	return &Service{
		logger:    logger,
		engine:    engine,
		transport: transport,
	}, nil
}

// Start runs the command loop until the context is canceled or a shutdown
// signal arrives.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting command service...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.transport.Poll(ctx, s.HandleCommand)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleCommand parses one chat message and executes the matching engine
// operation. Unknown messages are ignored.
func (s *Service) HandleCommand(ctx context.Context, chatID int64, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	// Commands may arrive as "/cmd@BotName" in group chats.
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/profit":
		profit, err := s.engine.RunningProfit(ctx)
		if err != nil {
			s.logger.Error(ctx, err, "Failed to compute running profit")
			s.reply(ctx, chatID, renderError(err))
			return
		}
		s.reply(ctx, chatID, fmt.Sprintf("📊 Realized Profit: %.2f USDC", profit))

	case "/buy":
		if len(fields) < 2 {
			s.reply(ctx, chatID, "Usage: /buy <token mint>")
			return
		}
		mint := fields[1]
		holding, err := s.engine.OpenPosition(ctx, mint)
		if err != nil {
			s.logger.Error(ctx, err, "Simulated buy failed", map[string]interface{}{"mint": mint})
			s.reply(ctx, chatID, renderError(err))
			return
		}
		s.reply(ctx, chatID, fmt.Sprintf("✅ Bought %s: `%.4f` tokens for `%.4f` USDC",
			holding.TokenName, holding.Balance, holding.SolPaidUSDC))

	case "/sell":
		if len(fields) < 2 {
			s.reply(ctx, chatID, "Usage: /sell <token mint>")
			return
		}
		mint := fields[1]
		result, err := s.engine.ClosePosition(ctx, mint)
		if err != nil {
			s.logger.Error(ctx, err, "Simulated sell failed", map[string]interface{}{"mint": mint})
			s.reply(ctx, chatID, renderError(err))
			return
		}
		s.reply(ctx, chatID, fmt.Sprintf("✅ Sold %s for `%.4f` USDC (profit `%.4f`)\nTx: %s",
			result.Sold.TokenName, result.Sold.SoldPriceUSDC, result.Sold.ProfitUSDC, result.Tx))

	case "/start", "/help":
		s.reply(ctx, chatID, "Commands:\n/buy <mint> — simulate a buy\n/sell <mint> — simulate a sell\n/profit — realized profit")
	}
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if err := s.transport.SendMessage(ctx, chatID, text); err != nil {
		s.logger.Error(ctx, err, "Failed to send command reply", map[string]interface{}{"chatID": chatID})
	}
}

// renderError maps engine errors to the short operator-facing messages the
// chat shows. The distinction between "nothing to sell", "no price" and an
// internal fault matters to the operator; everything else is internal.
func renderError(err error) string {
	switch {
	case errors.Is(err, ports.ErrNoOpenPosition):
		return "⚠️ No holdings found for this token."
	case errors.Is(err, ports.ErrDuplicatePosition):
		return "⚠️ A holding for this token is already open."
	case errors.Is(err, ports.ErrPriceUnavailable):
		return "⚠️ Price unavailable, try again."
	case errors.Is(err, ports.ErrStorage):
		return "⛔ Internal storage error."
	default:
		return "⛔ Simulated transaction not executed."
	}
}
