package ports

import (
	"context"

	"solSimBot/internal/domain"
)

// HoldingRepository defines the interface for the persistent trade ledger:
// open holdings, the append-only sold-holdings history, and the token name
// registry.
type HoldingRepository interface {
	// InsertHolding saves a new open holding and returns its assigned ID.
	InsertHolding(ctx context.Context, h *domain.Holding) (int64, error)
	// FindHolding retrieves the open holding for a token mint, if any.
	// When more than one row matches (the store does not enforce uniqueness),
	// the oldest inserted row wins. Returns nil, nil if none is found.
	FindHolding(ctx context.Context, mint string) (*domain.Holding, error)
	// RemoveHolding deletes all holding rows for a token mint.
	// Removing a mint with no rows is a no-op success.
	RemoveHolding(ctx context.Context, mint string) error
	// InsertSoldHolding appends a record to the sold-holdings history and
	// returns its assigned ID.
	InsertSoldHolding(ctx context.Context, s *domain.SoldHolding) (int64, error)
	// CloseHolding atomically removes the open holding rows for a mint and
	// appends the sold record. Either both happen or neither does.
	CloseHolding(ctx context.Context, mint string, s *domain.SoldHolding) error
	// TotalProfit sums ProfitUSDC over the sold-holdings history.
	// Returns 0 on an empty ledger.
	TotalProfit(ctx context.Context) (float64, error)

	// InsertToken saves a token registry entry and returns its assigned ID.
	InsertToken(ctx context.Context, t *domain.Token) (int64, error)
	// FindTokenByMint retrieves a registry entry by mint address.
	// Returns nil, nil if not found.
	FindTokenByMint(ctx context.Context, mint string) (*domain.Token, error)
}
