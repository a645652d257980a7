package postgresql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

// ErrTxConflict is returned when a transaction lost to a concurrent writer twice.
var ErrTxConflict = apperror.Conflict("concurrent update, please retry")

// GetQuerier returns the transaction carried by ctx, or the pool.
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

// lockClause returns " FOR UPDATE" inside a transaction so a read-modify-write
// holds the row until commit. Outside one the lock would end with the statement.
func lockClause(ctx context.Context) string {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return " FOR UPDATE"
	}
	return ""
}

type txManager struct {
	db   *database.DB
	opts pgx.TxOptions
}

// NewTxManager returns the Transactor used by services for multi-row writes
// such as balance swaps plus their ledger rows.
func NewTxManager(db *database.DB) database.Transactor {
	return &txManager{db: db, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// WithinTx runs fn in a transaction. Nested calls join the outer transaction.
// A serialization failure or deadlock reruns fn once before surfacing
// ErrTxConflict.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	err := m.run(ctx, fn)
	if !isTxConflict(err) {
		return err
	}
	slog.Warn("transaction conflict, retrying", "error", err)
	if err = m.run(ctx, fn); isTxConflict(err) {
		return fmt.Errorf("%w: %v", ErrTxConflict, err)
	}
	return err
}

func (m *txManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("rollback failed during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return pgCode(err) == "23505" }

// 40001 serialization_failure, 40P01 deadlock_detected
func isTxConflict(err error) bool {
	switch pgCode(err) {
	case "40001", "40P01":
		return true
	}
	return false
}
