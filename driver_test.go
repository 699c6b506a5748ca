package turbodbc

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriver_RegisteredUnderTurbodbc(t *testing.T) {
	assert.Contains(t, sql.Drivers(), "turbodbc")
}

func TestResult_LastInsertIdAndRowsAffected(t *testing.T) {
	r := &Result{lastInsertId: 7, rowsAffected: 3}

	id, err := r.LastInsertId()
	assert.NoError(t, err)
	assert.Equal(t, int64(7), id)

	n, err := r.RowsAffected()
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestConnector_NilConfigDefaults(t *testing.T) {
	c := NewConnector("dsn=test", nil)
	assert.NotNil(t, c.cfg)
	assert.Equal(t, MegabytesRequest(20), c.cfg.ReadBufferSize)
}

func TestConnector_DriverReturnsSameInstance(t *testing.T) {
	c := NewConnector("dsn=test", NewConfig())
	assert.Same(t, c.driver, c.Driver())
}
