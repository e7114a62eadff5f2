package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store owns the SQLite database. All multi-write operations go through
// WithTx so an aborted operation leaves no partial state.
type Store struct {
	db *sql.DB
}

// Queries runs statements against either the raw connection or an open
// transaction; the orchestrator composes a whole opening inside one Tx.
type Queries struct {
	q querier
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	zap.L().Info("Opening SQLite database", zap.String("file", path))
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// A single writer keeps SQLite lock contention out of the picture.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Q returns auto-commit queries for single-statement reads and writes.
func (s *Store) Q() *Queries {
	return &Queries{q: s.db}
}

// WithTx runs fn inside one transaction; any error rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			zap.L().Error("Transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	steam_id TEXT UNIQUE NOT NULL,
	display_name TEXT,
	avatar TEXT,
	created_at TEXT NOT NULL,
	last_login_at TEXT,
	gems_cents INTEGER NOT NULL DEFAULT 0,
	streak_day INTEGER NOT NULL DEFAULT 0,
	last_streak_claim TEXT,
	total_opens INTEGER NOT NULL DEFAULT 0,
	is_admin INTEGER NOT NULL DEFAULT 0,
	server_seed TEXT,
	server_seed_hash TEXT,
	nonce INTEGER NOT NULL DEFAULT 0,
	daily_earned_cents INTEGER NOT NULL DEFAULT 0,
	daily_earned_date TEXT
);

CREATE TABLE IF NOT EXISTS cases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	slug TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	image_url TEXT,
	case_price_cents INTEGER NOT NULL,
	key_price_cents INTEGER NOT NULL,
	active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	rarity TEXT NOT NULL,
	image_url TEXT,
	price_cents INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS case_items (
	case_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	weight INTEGER NOT NULL,
	PRIMARY KEY (case_id, item_id)
);

CREATE TABLE IF NOT EXISTS opens (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	case_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	spent_cents INTEGER NOT NULL,
	earned_cents INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	server_seed_hash TEXT NOT NULL,
	server_seed TEXT NOT NULL,
	client_seed TEXT NOT NULL,
	nonce INTEGER NOT NULL,
	rng_roll INTEGER NOT NULL,
	modifiers_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS mastery (
	user_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	case_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	xp INTEGER NOT NULL DEFAULT 0,
	level INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, case_id)
);

CREATE TABLE IF NOT EXISTS inventory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	open_id INTEGER REFERENCES opens(id) ON DELETE SET NULL,
	obtained_at TEXT NOT NULL,
	is_sold INTEGER NOT NULL DEFAULT 0,
	sold_at TEXT,
	sold_for_cents INTEGER
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	start_at TEXT NOT NULL,
	end_at TEXT NOT NULL,
	payload_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS giveaways (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT,
	tier_required INTEGER NOT NULL DEFAULT 0,
	prize_text TEXT NOT NULL,
	starts_at TEXT NOT NULL,
	ends_at TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS giveaway_entries (
	giveaway_id INTEGER NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	entries INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	PRIMARY KEY (giveaway_id, user_id)
);

CREATE TABLE IF NOT EXISTS global_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	cause TEXT NOT NULL,
	amount_cents INTEGER NOT NULL,
	meta_json TEXT,
	created_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_identity ON items(name, rarity);
CREATE INDEX IF NOT EXISTS idx_opens_user ON opens(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_inventory_user ON inventory(user_id, obtained_at);
CREATE INDEX IF NOT EXISTS idx_events_window ON events(type, start_at, end_at);
CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger(user_id, created_at);
`

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	defaults := map[string]string{
		"pool_progress_cents": "0",
		"pool_tier":           "0",
		"last_odds_hour":      "",
		"last_earnings_date":  "",
	}
	for key, value := range defaults {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO global_state(key, value) VALUES(?, ?) ON CONFLICT(key) DO NOTHING`,
			key, value); err != nil {
			return fmt.Errorf("seed global state %s: %w", key, err)
		}
	}
	return nil
}
