package turbodbc

import (
	"context"
	"database/sql/driver"
	"strings"
	"sync"
)

// lastInsertIdQueries maps a lowercased SQL_DBMS_NAME substring to the
// identity query that reads back the most recently inserted row's key.
// PostgreSQL and Oracle are deliberately absent: both rely on a RETURNING
// clause the caller writes into the statement itself, not a post-hoc query.
var lastInsertIdQueries = map[string]string{
	"microsoft sql server": "SELECT SCOPE_IDENTITY()",
	"sql server":           "SELECT SCOPE_IDENTITY()",
	"mysql":                "SELECT LAST_INSERT_ID()",
	"mariadb":              "SELECT LAST_INSERT_ID()",
	"sqlite":               "SELECT last_insert_rowid()",
}

// Conn implements database/sql/driver.Conn over a handle-layer Connection.
type Conn struct {
	env        *Environment
	connection *Connection
	cfg        *Config

	mu     sync.Mutex
	closed bool
	dbType string
}

// Prepare prepares query without context support.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext allocates a Statement, prepares query on it, and wraps it
// in a Stmt.
func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, driver.ErrBadConn
	}

	stmt, err := c.connection.NewStatement()
	if err != nil {
		return nil, err
	}
	if c.cfg.PreferUnicode {
		err = stmt.PrepareWide(query)
	} else {
		err = stmt.Prepare(query)
	}
	if err != nil {
		stmt.Finalize()
		return nil, err
	}

	numInput, err := stmt.NumParams()
	if err != nil {
		numInput = -1
	}

	return &Stmt{conn: c, stmt: stmt, query: query, numInput: numInput}, nil
}

// Close disconnects and frees the underlying environment and connection
// handles.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.connection.Close()
	c.env.Close()
	return nil
}

// Begin starts a transaction without context/options support.
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx switches autocommit off; isolation level and read-only mode are
// applied as connection attributes before the switch, matching how the
// native CLI expects them to be set ahead of the first statement in the
// transaction.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, driver.ErrBadConn
	}

	if opts.Isolation != 0 {
		var level uintptr
		switch driver.IsolationLevel(opts.Isolation) {
		case driver.IsolationLevel(1):
			level = SQL_TXN_READ_UNCOMMITTED
		case driver.IsolationLevel(4):
			level = SQL_TXN_REPEATABLE_READ
		case driver.IsolationLevel(6):
			level = SQL_TXN_SERIALIZABLE
		default:
			level = SQL_TXN_READ_COMMITTED
		}
		if ret := c.connection.api.SetConnectAttr(c.connection.handle, SQL_ATTR_TXN_ISOLATION, level); !IsSuccess(ret) {
			return nil, diagError(c.connection.api, SQL_HANDLE_DBC, SQLHANDLE(c.connection.handle))
		}
	}
	if opts.ReadOnly {
		if ret := c.connection.api.SetConnectAttr(c.connection.handle, SQL_ATTR_ACCESS_MODE, SQL_MODE_READ_ONLY); !IsSuccess(ret) {
			return nil, diagError(c.connection.api, SQL_HANDLE_DBC, SQLHANDLE(c.connection.handle))
		}
	}

	if err := c.connection.Begin(); err != nil {
		return nil, err
	}
	return &Tx{connection: c.connection}, nil
}

// Ping executes a trivial statement to verify the connection is alive.
func (c *Conn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrBadConn
	}
	if c.connection.IsDead() {
		return driver.ErrBadConn
	}

	stmt, err := c.connection.NewStatement()
	if err != nil {
		return driver.ErrBadConn
	}
	defer stmt.Finalize()

	if err := stmt.ExecDirect("SELECT 1"); err != nil {
		if IsConnectionError(err) {
			return driver.ErrBadConn
		}
	}
	return nil
}

// ExecContext runs query with args and discards any result set.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if len(args) == 0 {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, driver.ErrBadConn
		}
		stmt, err := c.connection.NewStatement()
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		defer stmt.Finalize()

		if err := stmt.ExecDirect(query); err != nil {
			return nil, err
		}
		rowCount, _ := stmt.RowCount()
		return &Result{rowsAffected: rowCount, lastInsertId: c.maybeLastInsertId(query)}, nil
	}

	s, err := c.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.(*Stmt).ExecContext(ctx, args)
}

// QueryContext runs query with args and returns its result set as Rows.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if len(args) == 0 {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, driver.ErrBadConn
		}
		stmt, err := c.connection.NewStatement()
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if err := stmt.ExecDirect(query); err != nil {
			stmt.Finalize()
			return nil, err
		}
		return newRows(stmt, c.cfg, true)
	}

	s, err := c.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := s.(*Stmt).QueryContext(ctx, args)
	if err != nil {
		s.Close()
		return nil, err
	}
	rows.(*Rows).closeStmt = true
	return rows, nil
}

// ResetSession returns driver.ErrBadConn for a closed connection, so
// database/sql discards it instead of returning it to the pool. Whether a
// transaction is still open is not checked.
func (c *Conn) ResetSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrBadConn
	}
	return nil
}

// IsValid reports whether the connection is still open.
func (c *Conn) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// CheckNamedValue defers to database/sql's default converter.
func (c *Conn) CheckNamedValue(nv *driver.NamedValue) error {
	return nil
}

// maybeLastInsertId runs the DBMS-specific identity query for an INSERT
// statement when LastInsertIdAuto is configured; any other statement or
// behavior returns 0.
func (c *Conn) maybeLastInsertId(query string) int64 {
	if c.cfg.LastInsertIdBehavior != LastInsertIdAuto || !isInsertStatement(query) {
		return 0
	}

	dbTypeLower := strings.ToLower(c.dbType)
	var idQuery string
	for name, q := range lastInsertIdQueries {
		if strings.Contains(dbTypeLower, name) {
			idQuery = q
			break
		}
	}
	if idQuery == "" {
		return 0
	}

	stmt, err := c.connection.NewStatement()
	if err != nil {
		return 0
	}
	defer stmt.Finalize()

	if err := stmt.ExecDirect(idQuery); err != nil {
		return 0
	}
	buf, indErr := NewMultiValueBuffer(8, 1)
	if indErr != nil {
		return 0
	}
	if err := stmt.BindColumn(1, Description{TypeCode: TypeInteger, ElementSize: 8, CType: SQL_C_SBIGINT}, buf); err != nil {
		return 0
	}
	more, err := stmt.FetchNext()
	if err != nil || !more {
		return 0
	}
	if buf.IsNull(0) {
		return 0
	}
	payload, _ := buf.Element(0)
	v, _ := newDefaultTranslator(c.cfg).TranslateInteger(payload)
	return v
}

// isInsertStatement reports whether query's first keyword is INSERT,
// ignoring leading whitespace. Leading SQL comments are not skipped.
func isInsertStatement(query string) bool {
	trimmed := strings.TrimLeft(query, " \t\n\r")
	return len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "insert")
}

var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.Pinger             = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.SessionResetter    = (*Conn)(nil)
	_ driver.Validator          = (*Conn)(nil)
)
