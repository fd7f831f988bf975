package domain

// Holding represents an open simulated position in a single token.
// At most one Holding per token mint is open at any time; this is enforced
// by the engine, not the storage layer.
type Holding struct {
	ID               int64   // Unique identifier (assigned by DB)
	Time             int64   // Acquisition timestamp, unix milliseconds
	Token            string  // Token mint address (lookup key)
	TokenName        string  // Display name resolved at open time, "N/A" if unknown
	Balance          float64 // Quantity of the token held
	SolPaid          float64 // SOL spent to acquire the balance
	SolFeePaid       float64 // Transaction fee in SOL
	SolPaidUSDC      float64 // Cost basis converted to USDC at acquisition
	SolFeePaidUSDC   float64 // Fee converted to USDC at acquisition
	PerTokenPaidUSDC float64 // USDC cost per token at acquisition, frozen
	Slot             int64   // Slot of the (simulated) acquisition event
	Program          string  // Provenance of the acquisition event
}

// SoldHolding is the immutable record of a completed buy-then-sell cycle.
// It carries the original holding fields; Time and Slot refer to the sale
// event, matching the holdings history layout.
type SoldHolding struct {
	Holding

	SoldPriceUSDC    float64 // Total USDC proceeds of the sale
	SoldPerTokenUSDC float64 // USDC price per token at sale time
	ProfitUSDC       float64 // SoldPriceUSDC - SolPaidUSDC, may be negative
}

// SellResult describes the outcome of a simulated sell. Tx is a freshly
// generated opaque identifier used purely for traceability; it does not
// reference any real settlement.
type SellResult struct {
	Success bool
	Msg     string
	Tx      string
	Sold    *SoldHolding
}
