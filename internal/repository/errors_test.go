package repository

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgCode(t *testing.T) {
	unique := &pgconn.PgError{Code: pgUniqueViolation, Message: "duplicate key value"}

	assert.Equal(t, pgUniqueViolation, pgCode(unique))
	assert.Equal(t, pgUniqueViolation, pgCode(fmt.Errorf("insert registration: %w", unique)))
	assert.Empty(t, pgCode(ErrNotFound))
	assert.Empty(t, pgCode(nil))
}
