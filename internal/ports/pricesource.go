package ports

import "context"

// PriceSource defines the interface for an external USD price oracle.
// Implementations must apply a bounded timeout to every call.
type PriceSource interface {
	// GetPriceUSD retrieves the current USD price for a token identifier.
	// found is false when the source has no quote for the token; that is a
	// normal outcome distinct from a transport error.
	GetPriceUSD(ctx context.Context, mint string) (price float64, found bool, err error)
}

// MarketCapSource is an optional extension of PriceSource for oracles that
// also expose a market capitalization figure for a token.
type MarketCapSource interface {
	// GetMarketCap retrieves the current USD market cap for a token
	// identifier. found follows the same convention as GetPriceUSD.
	GetMarketCap(ctx context.Context, mint string) (marketCap float64, found bool, err error)
}
