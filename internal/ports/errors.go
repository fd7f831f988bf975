package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these sentinels so the
// engine and the command layer can branch on error kind without knowing the
// backend.
var (
	ErrConfiguration = errors.New("invalid or missing configuration")
	ErrNotFound      = errors.New("resource not found")
	ErrTimeout       = errors.New("operation timed out")

	// Trading lifecycle errors
	ErrPriceUnavailable  = errors.New("no usable price quote from any configured source")
	ErrNoOpenPosition    = errors.New("no open holding for token")
	ErrDuplicatePosition = errors.New("holding already open for token")

	// Storage errors
	ErrStorage = errors.New("ledger storage failure")

	// Best-effort channel errors. Never surfaced to callers; logged only.
	ErrNotification = errors.New("notification delivery failed")
)
