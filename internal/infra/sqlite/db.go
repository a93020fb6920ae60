// Package sqlite is the Row Store: durable table storage for products,
// cart items, wallets, wallet transactions, orders, documents, extracted
// fields, and the audit log.
//
// All multi-row mutations run through WithTx so balance, status, and log
// rows commit or roll back together. Store methods that participate in a
// workflow accept a Queryer so services can pass either the handle or a
// live transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Queryer is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the sqlite handle. Acquired at process start, released at
// shutdown; threaded through every component explicitly.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies all
// schema migrations. Pass ":memory:" for an ephemeral store.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// modernc sqlite serializes writers; a single connection sidesteps
	// SQLITE_BUSY between our own transactions.
	sdb.SetMaxOpenConns(1)

	db := &DB{db: sdb}
	if err := db.migrate(); err != nil {
		sdb.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying handle.
func (d *DB) Close() error { return d.db.Close() }

// Ping verifies the store is reachable (used by /health).
func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// WithTx runs fn inside a transaction, committing on nil and rolling back
// on error or panic. Services wrap each multi-step mutation in exactly
// one WithTx call so partial effects are never observable.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (d *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Catalog
		`CREATE TABLE IF NOT EXISTS products (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price_cents INTEGER NOT NULL,
			image_url   TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL
		)`,

		// Cart lines, one per (session, product)
		`CREATE TABLE IF NOT EXISTS cart_items (
			session_id TEXT NOT NULL,
			product_id INTEGER NOT NULL REFERENCES products(id),
			quantity   INTEGER NOT NULL CHECK (quantity > 0),
			PRIMARY KEY (session_id, product_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cart_session ON cart_items(session_id)`,

		// Wallets: one per session, balance never negative
		`CREATE TABLE IF NOT EXISTS wallets (
			session_id    TEXT PRIMARY KEY,
			balance_cents INTEGER NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
			updated_at    TIMESTAMP NOT NULL
		)`,

		// Append-only ledger
		`CREATE TABLE IF NOT EXISTS wallet_transactions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			type         TEXT NOT NULL,
			order_id     INTEGER,
			description  TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wtx_session ON wallet_transactions(session_id)`,

		// Orders: total fixed at creation, only status mutates
		`CREATE TABLE IF NOT EXISTS orders (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id      TEXT NOT NULL,
			total_cents     INTEGER NOT NULL,
			status          TEXT NOT NULL DEFAULT 'placed',
			idempotency_key TEXT UNIQUE,
			created_at      TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_id, created_at)`,

		// Document workflow
		`CREATE TABLE IF NOT EXISTS documents (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			title        TEXT NOT NULL,
			vendor       TEXT NOT NULL DEFAULT '',
			amount_cents INTEGER NOT NULL DEFAULT 0,
			status       TEXT NOT NULL DEFAULT 'New',
			created_at   TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status)`,

		`CREATE TABLE IF NOT EXISTS extracted_fields (
			document_id    INTEGER PRIMARY KEY REFERENCES documents(id),
			invoice_number TEXT NOT NULL,
			vendor         TEXT NOT NULL DEFAULT '',
			amount_cents   INTEGER NOT NULL DEFAULT 0,
			invoice_date   TIMESTAMP NOT NULL,
			confidence     REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL REFERENCES documents(id),
			actor       TEXT NOT NULL,
			action      TEXT NOT NULL,
			details     TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_doc ON audit_log(document_id, created_at)`,
	}
}
