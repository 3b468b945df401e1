package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "transactions_booking_trx_id_key"}
	wrapped := fmt.Errorf("failed to insert transaction: %w", pgErr)

	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.True(t, IsUniqueViolation(wrapped, "transactions_booking_trx_id_key"))
	assert.False(t, IsUniqueViolation(wrapped, "transactions_source_ref_key"))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23514"}, ""))
	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
}
