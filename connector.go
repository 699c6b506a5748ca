package turbodbc

import (
	"context"
	"database/sql/driver"
)

// Connector implements driver.Connector, pairing a DSN with a Config so
// database/sql can open many pooled connections without re-parsing options
// each time. Per-connection tunables live entirely on Config (see
// config.go's functional options) rather than a second, overlapping set of
// ConnectorOptions.
type Connector struct {
	dsn    string
	cfg    *Config
	driver *Driver
}

// NewConnector pairs dsn, a native CLI connection string, with cfg. A nil
// cfg is replaced by NewConfig()'s defaults.
func NewConnector(dsn string, cfg *Config) *Connector {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Connector{dsn: dsn, cfg: cfg, driver: &Driver{}}
}

// Connect opens an Environment and Connection against the native CLI and
// wraps them in a Conn.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	env, err := OpenEnvironment(c.cfg)
	if err != nil {
		return nil, err
	}
	conn, err := env.Connect(c.dsn)
	if err != nil {
		env.Close()
		return nil, err
	}

	dbType, _ := conn.GetStringInfo(SQL_DBMS_NAME)
	return &Conn{env: env, connection: conn, cfg: c.cfg, dbType: dbType}, nil
}

// Driver returns the Connector's owning Driver.
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

var _ driver.Connector = (*Connector)(nil)
