package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LovationAdmin/financas-api/utils"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// Gateway is the only way services reach the database. Every write runs in its
// own transaction: commit on success, rollback on failure, connection released
// either way. Nothing is retried.
type Gateway struct {
	db     *sql.DB
	driver string
}

func NewGateway(db *sql.DB, driver string) *Gateway {
	return &Gateway{db: db, driver: driver}
}

// DB exposes the underlying pool for health checks and shutdown.
func (g *Gateway) DB() *sql.DB {
	return g.db
}

func (g *Gateway) Driver() string {
	return g.driver
}

// Ping checks that a connection can be acquired.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		utils.SafeError("Database connection error: %v", err)
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Query runs a read statement and hands every row to scan. Rows are always closed.
func (g *Gateway) Query(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		utils.SafeError("Query failed: %v", err)
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		utils.SafeError("Query iteration failed: %v", err)
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// QueryRow runs a read statement expected to return a single row.
func (g *Gateway) QueryRow(ctx context.Context, query string, args ...any) *Row {
	return &Row{row: g.db.QueryRowContext(ctx, query, args...)}
}

// Update runs one INSERT/UPDATE/DELETE statement in its own transaction and
// returns the number of affected rows.
func (g *Gateway) Update(ctx context.Context, query string, args ...any) (int64, error) {
	var affected int64
	err := g.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// Insert runs one INSERT ... RETURNING id statement in its own transaction.
func (g *Gateway) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := g.WithTransaction(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&id)
	})
	return id, err
}

// WithTransaction runs fn inside a transaction. fn must only use tx: the
// SQLite backend runs with a single connection.
func (g *Gateway) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		utils.SafeError("Database connection error: %v", err)
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			utils.SafeError("Rollback failed: %v", rbErr)
		}
		if IsUniqueViolation(err) {
			utils.SafeWarn("Integrity error: %v", err)
			return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		utils.SafeError("Transaction error: %v", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		utils.SafeError("Commit failed: %v", err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Row wraps sql.Row so a missing row surfaces as ErrNotFound.
type Row struct {
	row *sql.Row
}

func (r *Row) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		utils.SafeError("Query failed: %v", err)
	}
	return err
}
