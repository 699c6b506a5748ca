package turbodbc

import (
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValuesToNamed(t *testing.T) {
	named := valuesToNamed([]driver.Value{"a", int64(1), true})
	assert.Equal(t, []driver.NamedValue{
		{Ordinal: 1, Value: "a"},
		{Ordinal: 2, Value: int64(1)},
		{Ordinal: 3, Value: true},
	}, named)
}

func TestStmt_NumInput(t *testing.T) {
	s := &Stmt{numInput: 3}
	assert.Equal(t, 3, s.NumInput())

	s = &Stmt{numInput: -1}
	assert.Equal(t, -1, s.NumInput())
}

func TestStmt_Close_Idempotent(t *testing.T) {
	s := &Stmt{closed: true}
	assert.NoError(t, s.Close())
}

func TestStmt_ClosedRejectsExecAndQuery(t *testing.T) {
	s := &Stmt{closed: true}

	_, err := s.ExecContext(nil, nil)
	assert.Equal(t, driver.ErrBadConn, err)

	_, err = s.QueryContext(nil, nil)
	assert.Equal(t, driver.ErrBadConn, err)
}
