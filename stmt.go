package turbodbc

import (
	"context"
	"database/sql/driver"
	"sync"
)

// Stmt implements database/sql/driver.Stmt over a handle-layer Statement,
// binding arguments through a lazily-built BoundParameterSet/
// RowParameterLoader pair so repeated Exec/Query calls reuse one set of
// bound buffers instead of rebinding from scratch every time.
type Stmt struct {
	conn     *Conn
	stmt     *Statement
	query    string
	numInput int

	mu     sync.Mutex
	closed bool
	loader *RowParameterLoader
}

// Close finalizes the underlying Statement. Safe to call more than once.
func (s *Stmt) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stmt.Finalize()
	return nil
}

// NumInput returns the parameter marker count discovered at Prepare time,
// or -1 when the native CLI didn't support SQLNumParams for this statement.
func (s *Stmt) NumInput() int {
	return s.numInput
}

// Exec executes without context support.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valuesToNamed(args))
}

// ExecContext binds args (if any), executes, and returns the affected row
// count plus any auto-detected last-insert-id.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, driver.ErrBadConn
	}

	if err := s.bindAndExecute(args); err != nil {
		return nil, err
	}

	rowCount, err := s.stmt.RowCount()
	if err != nil {
		return nil, err
	}
	return &Result{rowsAffected: rowCount, lastInsertId: s.conn.maybeLastInsertId(s.query)}, nil
}

// Query executes without context support.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valuesToNamed(args))
}

// QueryContext binds args (if any), executes, and wraps the resulting
// result set in Rows. The statement is not closed when Rows closes; the
// caller owns it (this package's Conn.QueryContext overrides this for the
// statements it prepares itself).
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, driver.ErrBadConn
	}

	if err := s.bindAndExecute(args); err != nil {
		return nil, err
	}
	return newRows(s.stmt, s.conn.cfg, false)
}

// bindAndExecute binds args through the lazily-built RowParameterLoader (or
// executes directly when there are none) and flushes the single row.
func (s *Stmt) bindAndExecute(args []driver.NamedValue) error {
	if len(args) == 0 {
		return s.stmt.Execute()
	}

	if s.loader == nil {
		params, err := NewBoundParameterSet(s.stmt, s.conn.cfg)
		if err != nil {
			return err
		}
		s.loader = NewRowParameterLoader(params, s.conn.cfg)
	}

	values := make([]interface{}, len(args))
	for _, arg := range args {
		idx := arg.Ordinal - 1
		if idx < 0 || idx >= len(values) {
			continue
		}
		values[idx] = arg.Value
	}

	if err := s.loader.AddRow(values); err != nil {
		return err
	}
	return s.loader.Flush()
}

func valuesToNamed(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

var (
	_ driver.Stmt             = (*Stmt)(nil)
	_ driver.StmtExecContext  = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*Stmt)(nil)
)
