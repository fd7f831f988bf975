package ports

import "context"

// Notifier delivers human-readable summaries of engine actions to an
// external channel. Delivery is best-effort: implementations log and swallow
// their own failures so a lost notification can never be mistaken for a
// failed trade.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
