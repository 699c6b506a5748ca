package turbodbc

import "database/sql/driver"

// Tx implements driver.Tx by delegating to Connection.EndTransaction.
type Tx struct {
	connection *Connection
}

// Commit ends the transaction with SQL_COMMIT.
func (t *Tx) Commit() error {
	return t.connection.EndTransaction(SQL_COMMIT)
}

// Rollback ends the transaction with SQL_ROLLBACK.
func (t *Tx) Rollback() error {
	return t.connection.EndTransaction(SQL_ROLLBACK)
}

var _ driver.Tx = (*Tx)(nil)
