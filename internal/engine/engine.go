package engine

import (
	"context"
	"fmt"
	"time"

	"solSimBot/internal/domain"
	"solSimBot/internal/ports"

	"github.com/google/uuid"
)

const (
	lamportsPerSOL = 1_000_000_000

	// Fixed provenance values attached to simulated swap events.
	simulatedSlot     = 1337
	simulatedProgram  = "Simulation source"
	unknownTokenName  = "N/A"
	simulatedTxPrefix = "SIMULATED_TX_"
)

// Config holds the simulation parameters of the position engine.
type Config struct {
	BaseMint     string  // Mint of the base asset spent on buys (wrapped SOL)
	BuyAmountSOL float64 // SOL spent per simulated buy
	FeeLamports  int64   // Simulated transaction fee, in lamports
}

// Engine is the position lifecycle core: it opens a simulated holding from a
// live quote, closes it against a later quote, and keeps the ledger invariant
// of at most one open holding per mint. Callers must serialize operations on
// the same mint; cross-mint calls may run concurrently.
type Engine struct {
	cfg        Config
	logger     ports.Logger
	repo       ports.HoldingRepository
	tokenPrice ports.PriceSource // Primary aggregator source for token quotes
	fallback   ports.PriceSource // DEX fallback for tokens the aggregator misses; may be nil
	basePrice  ports.PriceSource // Source for the base asset quote
	notifier   ports.Notifier    // Best-effort; may be nil
	now        func() time.Time
}

// New creates a new position engine.
func New(
	cfg Config,
	logger ports.Logger,
	repo ports.HoldingRepository,
	tokenPrice ports.PriceSource,
	fallback ports.PriceSource,
	basePrice ports.PriceSource,
	notifier ports.Notifier,
) (*Engine, error) {
	if logger == nil || repo == nil || tokenPrice == nil || basePrice == nil {
		return nil, fmt.Errorf("missing required dependencies for engine: %w", ports.ErrConfiguration)
	}
	if cfg.BaseMint == "" {
		return nil, fmt.Errorf("engine base mint must be set: %w", ports.ErrConfiguration)
	}
	if cfg.BuyAmountSOL <= 0 {
		return nil, fmt.Errorf("engine buy amount must be positive: %w", ports.ErrConfiguration)
	}
	if cfg.FeeLamports < 0 {
		return nil, fmt.Errorf("engine fee cannot be negative: %w", ports.ErrConfiguration)
	}
	return &Engine{
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		tokenPrice: tokenPrice,
		fallback:   fallback,
		basePrice:  basePrice,
		notifier:   notifier,
		now:        time.Now,
	}, nil
}

// OpenPosition simulates buying the configured SOL amount of the given token
// at the current market price and records the resulting holding. A mint with
// an open holding is rejected rather than overwritten so cost-basis history
// is never silently lost.
func (e *Engine) OpenPosition(ctx context.Context, mint string) (*domain.Holding, error) {
	existing, err := e.repo.FindHolding(ctx, mint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("mint %s: %w", mint, ports.ErrDuplicatePosition)
	}

	solPriceUSDC, err := e.baseAssetPrice(ctx)
	if err != nil {
		return nil, err
	}
	tokenPriceUSDC, err := e.tokenPriceUSD(ctx, mint)
	if err != nil {
		return nil, err
	}

	solPaid := e.cfg.BuyAmountSOL
	solFeePaid := float64(e.cfg.FeeLamports) / lamportsPerSOL
	solPaidUSDC := solPaid * solPriceUSDC
	solFeePaidUSDC := solFeePaid * solPriceUSDC
	tokensReceived := solPaidUSDC / tokenPriceUSDC
	// Derived from the trade values rather than taken from the quote, so the
	// two stay consistent even if the inputs change shape later.
	perTokenPaidUSDC := solPaidUSDC / tokensReceived

	tokenName := unknownTokenName
	tok, err := e.repo.FindTokenByMint(ctx, mint)
	if err != nil {
		return nil, err
	}
	if tok != nil {
		tokenName = tok.Name
	}

	holding := &domain.Holding{
		Time:             e.now().UnixMilli(),
		Token:            mint,
		TokenName:        tokenName,
		Balance:          tokensReceived,
		SolPaid:          solPaid,
		SolFeePaid:       solFeePaid,
		SolPaidUSDC:      solPaidUSDC,
		SolFeePaidUSDC:   solFeePaidUSDC,
		PerTokenPaidUSDC: perTokenPaidUSDC,
		Slot:             simulatedSlot,
		Program:          simulatedProgram,
	}

	if _, err := e.repo.InsertHolding(ctx, holding); err != nil {
		return nil, err
	}

	e.logger.Info(ctx, "Simulated buy recorded", map[string]interface{}{
		"mint":        mint,
		"balance":     holding.Balance,
		"solPaidUSDC": holding.SolPaidUSDC,
	})
	marketCap, hasCap := e.marketCap(ctx, mint)
	e.notify(ctx, buyMessage(holding, marketCap, hasCap))
	return holding, nil
}

// ClosePosition simulates selling the full balance of an open holding at the
// current market price. The holding is removed and the sold record appended
// in one atomic step; on any failure the ledger is unchanged.
func (e *Engine) ClosePosition(ctx context.Context, mint string) (*domain.SellResult, error) {
	holding, err := e.repo.FindHolding(ctx, mint)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, fmt.Errorf("mint %s: %w", mint, ports.ErrNoOpenPosition)
	}

	tokenPriceUSDC, err := e.tokenPriceUSD(ctx, mint)
	if err != nil {
		return nil, err
	}

	soldPriceUSDC := holding.Balance * tokenPriceUSDC
	profitUSDC := soldPriceUSDC - holding.SolPaidUSDC

	sold := &domain.SoldHolding{
		Holding:          *holding,
		SoldPriceUSDC:    soldPriceUSDC,
		SoldPerTokenUSDC: tokenPriceUSDC,
		ProfitUSDC:       profitUSDC,
	}
	// Time and Slot refer to the sale event in the history table.
	sold.ID = 0
	sold.Time = e.now().UnixMilli()
	sold.Slot = simulatedSlot
	sold.Program = simulatedProgram

	if err := e.repo.CloseHolding(ctx, mint, sold); err != nil {
		return nil, err
	}

	tx := simulatedTxPrefix + uuid.NewString()
	e.logger.Info(ctx, "Simulated sell recorded", map[string]interface{}{
		"mint":       mint,
		"soldUSDC":   soldPriceUSDC,
		"profitUSDC": profitUSDC,
		"tx":         tx,
	})
	e.notify(ctx, sellMessage(sold))

	return &domain.SellResult{
		Success: true,
		Msg:     "Simulated transaction executed successfully.",
		Tx:      tx,
		Sold:    sold,
	}, nil
}

// RunningProfit returns the sum of realized profit across all sold holdings.
// An empty ledger reports zero.
func (e *Engine) RunningProfit(ctx context.Context) (float64, error) {
	return e.repo.TotalProfit(ctx)
}

// tokenPriceUSD resolves a token quote from the primary source, falling back
// to the DEX source when the aggregator has no usable entry. Only when every
// configured source comes up empty does the trade fail.
func (e *Engine) tokenPriceUSD(ctx context.Context, mint string) (float64, error) {
	price, found, err := e.tokenPrice.GetPriceUSD(ctx, mint)
	if err == nil && found && price > 0 {
		return price, nil
	}
	if err != nil {
		e.logger.Warn(ctx, "Primary price source failed, trying fallback", map[string]interface{}{
			"mint":  mint,
			"error": err.Error(),
		})
	}

	if e.fallback != nil {
		price, found, err = e.fallback.GetPriceUSD(ctx, mint)
		if err == nil && found && price > 0 {
			return price, nil
		}
		if err != nil {
			e.logger.Warn(ctx, "Fallback price source failed", map[string]interface{}{
				"mint":  mint,
				"error": err.Error(),
			})
		}
	}
	return 0, fmt.Errorf("mint %s: %w", mint, ports.ErrPriceUnavailable)
}

// baseAssetPrice resolves the USD quote for the base asset (SOL).
func (e *Engine) baseAssetPrice(ctx context.Context) (float64, error) {
	price, found, err := e.basePrice.GetPriceUSD(ctx, e.cfg.BaseMint)
	if err != nil {
		e.logger.Warn(ctx, "Base asset price fetch failed", map[string]interface{}{
			"mint":  e.cfg.BaseMint,
			"error": err.Error(),
		})
	}
	if err != nil || !found || price <= 0 {
		return 0, fmt.Errorf("base asset %s: %w", e.cfg.BaseMint, ports.ErrPriceUnavailable)
	}
	return price, nil
}

// marketCap fetches the token market cap for notification enrichment when a
// configured source exposes one. Best-effort only: a missing figure or a
// failed lookup never affects the trade.
func (e *Engine) marketCap(ctx context.Context, mint string) (float64, bool) {
	if e.notifier == nil {
		return 0, false
	}
	src, ok := e.fallback.(ports.MarketCapSource)
	if !ok {
		return 0, false
	}
	mcap, found, err := src.GetMarketCap(ctx, mint)
	if err != nil {
		e.logger.Warn(ctx, "Market cap fetch failed", map[string]interface{}{
			"mint":  mint,
			"error": err.Error(),
		})
		return 0, false
	}
	return mcap, found && mcap > 0
}

// notify sends a best-effort notification. The notifier swallows its own
// failures; a lost message never affects the ledger.
func (e *Engine) notify(ctx context.Context, text string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, text)
}

func buyMessage(h *domain.Holding, marketCap float64, hasCap bool) string {
	msg := fmt.Sprintf("📢 *New Swap Transaction (Simulated)*\n\n"+
		"🪙 *Token:* %s (%s)\n"+
		"📥 *Received:* `%.4f`\n"+
		"💰 *Paid in SOL:* `%.4f`\n",
		h.TokenName, h.Token, h.Balance, h.SolPaid)
	if hasCap {
		msg += fmt.Sprintf("🏦 *Market Cap:* `$%.0f`\n", marketCap)
	}
	msg += fmt.Sprintf("🔍 *Source:* %s", h.Program)
	return msg
}

func sellMessage(s *domain.SoldHolding) string {
	return fmt.Sprintf("📢 *Simulated Sell Transaction*\n\n"+
		"🪙 *Token:* %s (%s)\n"+
		"📤 *Sold:* `%.4f`\n"+
		"💰 *Received USDC:* `%.4f`\n"+
		"📈 *Profit:* `%.4f`\n"+
		"🔍 *Source:* %s",
		s.TokenName, s.Token, s.Balance, s.SoldPriceUSDC, s.ProfitUSDC, s.Program)
}
