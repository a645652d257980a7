package postgresql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestSQLStateHelpers(t *testing.T) {
	wrapped := func(code string) error {
		return fmt.Errorf("failed to swap late balance: %w", &pgconn.PgError{Code: code})
	}

	assert.True(t, isUniqueViolation(wrapped("23505")))
	assert.False(t, isUniqueViolation(wrapped("23503")))

	assert.True(t, isTxConflict(wrapped("40001")))
	assert.True(t, isTxConflict(wrapped("40P01")))
	assert.False(t, isTxConflict(wrapped("23505")))
	assert.False(t, isTxConflict(errors.New("connection reset")))
	assert.False(t, isTxConflict(nil))
}

func TestErrTxConflictIsConflictKind(t *testing.T) {
	err := fmt.Errorf("%w: %v", ErrTxConflict, &pgconn.PgError{Code: "40001"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

type openTx struct{ pgx.Tx }

func TestLockClause_OnlyInsideTransaction(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, lockClause(ctx))

	inTx := context.WithValue(ctx, txKey{}, pgx.Tx(openTx{}))
	assert.Equal(t, " FOR UPDATE", lockClause(inTx))
}
