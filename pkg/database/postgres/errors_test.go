package pg

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCheckNoRows(t *testing.T) {
	outErr := errors.New("not found")

	assert.Equal(t, outErr, CheckNoRows(sql.ErrNoRows, outErr))
	assert.Equal(t, outErr, CheckNoRows(errors.Wrap(sql.ErrNoRows, "wrapped"), outErr))
	assert.NoError(t, CheckNoRows(nil, outErr))

	other := errors.New("other")
	assert.Equal(t, other, CheckNoRows(other, outErr))
}

func TestCheckUniqueViolation(t *testing.T) {
	outErr := errors.New("exists")

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	assert.Equal(t, outErr, CheckUniqueViolation(unique, outErr))
	assert.Equal(t, outErr, CheckUniqueViolation(errors.Wrap(unique, "wrapped"), outErr))
	assert.NoError(t, CheckUniqueViolation(nil, outErr))

	other := &pgconn.PgError{Code: pgerrcode.NotNullViolation}
	assert.Equal(t, other, CheckUniqueViolation(other, outErr))

	assert.True(t, isSerializationFailure(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.False(t, isSerializationFailure(unique))
}
