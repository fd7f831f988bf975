package domain

// Token is a registry entry for a token seen by the bot, used to resolve
// display names when opening a holding.
type Token struct {
	ID      int64  // Unique identifier (assigned by DB)
	Time    int64  // First-seen timestamp, unix milliseconds
	Name    string // Display name
	Mint    string // Mint address
	Creator string // Creator account
}
