package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"solSimBot/internal/domain"
	"solSimBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.HoldingRepository interface using SQLite.
// Schema creation happens once at construction; individual operations assume
// the tables exist.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository: %w", ports.ErrConfiguration)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/holdings.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	// A schema creation failure must fail construction rather than let later
	// writes run against missing tables.
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Ledger database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist. Idempotent; safe to
// run on every startup.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS holdings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		Time INTEGER NOT NULL,
		Token TEXT NOT NULL,
		TokenName TEXT NOT NULL,
		Balance REAL NOT NULL,
		SolPaid REAL NOT NULL,
		SolFeePaid REAL NOT NULL,
		SolPaidUSDC REAL NOT NULL,
		SolFeePaidUSDC REAL NOT NULL,
		PerTokenPaidUSDC REAL NOT NULL,
		Slot INTEGER NOT NULL,
		Program TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sold_holdings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		Time INTEGER NOT NULL, -- Time of sale
		Token TEXT NOT NULL,
		TokenName TEXT NOT NULL,
		Balance REAL NOT NULL,
		SolPaid REAL NOT NULL,
		SolFeePaid REAL NOT NULL,
		SolPaidUSDC REAL NOT NULL,
		SolFeePaidUSDC REAL NOT NULL,
		PerTokenPaidUSDC REAL NOT NULL,
		Slot INTEGER NOT NULL,
		Program TEXT NOT NULL,
		SoldPriceUSDC REAL NOT NULL,
		SoldPerTokenUSDC REAL NOT NULL,
		ProfitUSDC REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		time INTEGER NOT NULL,
		name TEXT NOT NULL,
		mint TEXT NOT NULL,
		creator TEXT NOT NULL
	);
	-- Indexes for lookups by mint
	CREATE INDEX IF NOT EXISTS idx_holdings_token ON holdings (Token);
	CREATE INDEX IF NOT EXISTS idx_sold_holdings_token ON sold_holdings (Token);
	CREATE INDEX IF NOT EXISTS idx_tokens_mint ON tokens (mint);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing ledger database connection")
		return r.db.Close()
	}
	return nil
}

// --- HoldingRepository Implementation ---

// InsertHolding saves a new open holding and returns its assigned ID.
func (r *Repository) InsertHolding(ctx context.Context, h *domain.Holding) (int64, error) {
	const query = `
	INSERT INTO holdings (Time, Token, TokenName, Balance, SolPaid, SolFeePaid, SolPaidUSDC, SolFeePaidUSDC, PerTokenPaidUSDC, Slot, Program)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		h.Time, h.Token, h.TokenName, h.Balance, h.SolPaid, h.SolFeePaid,
		h.SolPaidUSDC, h.SolFeePaidUSDC, h.PerTokenPaidUSDC, h.Slot, h.Program)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert holding for mint %s: %v", ports.ErrStorage, h.Token, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get last insert ID for holding %s: %v", ports.ErrStorage, h.Token, err)
	}
	h.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Holding inserted", map[string]interface{}{"holdingID": id, "mint": h.Token})
	return id, nil
}

// FindHolding retrieves the open holding for a token mint, if any.
// The store does not enforce uniqueness per mint; when multiple rows match,
// the lowest id (oldest insertion) wins so repeated reads are deterministic.
// Returns nil, nil if no holding is found.
func (r *Repository) FindHolding(ctx context.Context, mint string) (*domain.Holding, error) {
	const query = `
	SELECT id, Time, Token, TokenName, Balance, SolPaid, SolFeePaid, SolPaidUSDC, SolFeePaidUSDC, PerTokenPaidUSDC, Slot, Program
	FROM holdings
	WHERE Token = ?
	ORDER BY id ASC
	LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, mint)
	h, err := scanHolding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No open holding found for mint", map[string]interface{}{"mint": mint})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("%w: failed to query holding for mint %s: %v", ports.ErrStorage, mint, err)
	}
	return h, nil
}

// RemoveHolding deletes all holding rows for a token mint.
// Removing a mint with no rows is a no-op success.
func (r *Repository) RemoveHolding(ctx context.Context, mint string) error {
	const query = `DELETE FROM holdings WHERE Token = ?`

	result, err := r.db.ExecContext(ctx, query, mint)
	if err != nil {
		return fmt.Errorf("%w: failed to delete holding for mint %s: %v", ports.ErrStorage, mint, err)
	}
	rowsAffected, _ := result.RowsAffected()
	r.logger.Debug(ctx, "Holding rows removed", map[string]interface{}{"mint": mint, "rows": rowsAffected})
	return nil
}

// InsertSoldHolding appends a record to the sold-holdings history.
func (r *Repository) InsertSoldHolding(ctx context.Context, s *domain.SoldHolding) (int64, error) {
	result, err := r.db.ExecContext(ctx, insertSoldQuery, soldArgs(s)...)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert sold holding for mint %s: %v", ports.ErrStorage, s.Token, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get last insert ID for sold holding %s: %v", ports.ErrStorage, s.Token, err)
	}
	s.ID = id
	r.logger.Debug(ctx, "Sold holding appended", map[string]interface{}{"soldID": id, "mint": s.Token, "profitUSDC": s.ProfitUSDC})
	return id, nil
}

// CloseHolding atomically removes the open holding rows for a mint and
// appends the sold record in a single transaction. On any failure the ledger
// is left untouched.
func (r *Repository) CloseHolding(ctx context.Context, mint string, s *domain.SoldHolding) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin close transaction for mint %s: %v", ports.ErrStorage, mint, err)
	}
	defer tx.Rollback() // no-op after a successful commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE Token = ?`, mint); err != nil {
		return fmt.Errorf("%w: failed to delete holding for mint %s during close: %v", ports.ErrStorage, mint, err)
	}

	result, err := tx.ExecContext(ctx, insertSoldQuery, soldArgs(s)...)
	if err != nil {
		return fmt.Errorf("%w: failed to append sold holding for mint %s during close: %v", ports.ErrStorage, mint, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit close transaction for mint %s: %v", ports.ErrStorage, mint, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		s.ID = id
	}
	r.logger.Debug(ctx, "Holding closed", map[string]interface{}{"mint": mint, "profitUSDC": s.ProfitUSDC})
	return nil
}

// TotalProfit sums ProfitUSDC over the sold-holdings history.
// Returns 0 on an empty ledger.
func (r *Repository) TotalProfit(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(ProfitUSDC), 0) FROM sold_holdings`
	var totalProfit float64
	err := r.db.QueryRowContext(ctx, query).Scan(&totalProfit)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to calculate total profit: %v", ports.ErrStorage, err)
	}
	return totalProfit, nil
}

// --- Token registry ---

// InsertToken saves a token registry entry and returns its assigned ID.
func (r *Repository) InsertToken(ctx context.Context, t *domain.Token) (int64, error) {
	const query = `INSERT INTO tokens (time, name, mint, creator) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, t.Time, t.Name, t.Mint, t.Creator)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert token %s: %v", ports.ErrStorage, t.Mint, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get last insert ID for token %s: %v", ports.ErrStorage, t.Mint, err)
	}
	t.ID = id
	return id, nil
}

// FindTokenByMint retrieves a registry entry by mint address.
// Returns nil, nil if not found.
func (r *Repository) FindTokenByMint(ctx context.Context, mint string) (*domain.Token, error) {
	const query = `SELECT id, time, name, mint, creator FROM tokens WHERE mint = ? ORDER BY id ASC LIMIT 1`

	t := &domain.Token{}
	err := r.db.QueryRowContext(ctx, query, mint).Scan(&t.ID, &t.Time, &t.Name, &t.Mint, &t.Creator)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to query token by mint %s: %v", ports.ErrStorage, mint, err)
	}
	return t, nil
}

// --- Helpers ---

const insertSoldQuery = `
	INSERT INTO sold_holdings (Time, Token, TokenName, Balance, SolPaid, SolFeePaid, SolPaidUSDC, SolFeePaidUSDC, PerTokenPaidUSDC, Slot, Program, SoldPriceUSDC, SoldPerTokenUSDC, ProfitUSDC)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func soldArgs(s *domain.SoldHolding) []interface{} {
	return []interface{}{
		s.Time, s.Token, s.TokenName, s.Balance, s.SolPaid, s.SolFeePaid,
		s.SolPaidUSDC, s.SolFeePaidUSDC, s.PerTokenPaidUSDC, s.Slot, s.Program,
		s.SoldPriceUSDC, s.SoldPerTokenUSDC, s.ProfitUSDC,
	}
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanHolding scans a row into a domain.Holding struct.
func scanHolding(s scanner) (*domain.Holding, error) {
	h := &domain.Holding{}
	err := s.Scan(
		&h.ID, &h.Time, &h.Token, &h.TokenName, &h.Balance, &h.SolPaid, &h.SolFeePaid,
		&h.SolPaidUSDC, &h.SolFeePaidUSDC, &h.PerTokenPaidUSDC, &h.Slot, &h.Program)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	return h, nil
}
