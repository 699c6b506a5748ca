package turbodbc

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

func init() {
	sql.Register("turbodbc", &Driver{})
}

// Driver implements database/sql/driver.Driver on top of the handle layer
// in handle.go. Its Open/OpenConnector split exists purely so database/sql
// can reuse one Connector (and its *Config) across many pooled connections.
type Driver struct{}

// Open opens a single connection using a default Config. Most callers
// should go through database/sql.Open("turbodbc", dsn) instead, which
// routes through OpenConnector.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector builds a Connector for dsn, a native CLI connection string.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	if err := initAPI(); err != nil {
		return nil, err
	}
	return NewConnector(dsn, NewConfig()), nil
}

var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.DriverContext = (*Driver)(nil)
)
