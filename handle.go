package turbodbc

import (
	"sync"

	"go.uber.org/zap"
)

// connectMutex serializes every native CLI connect/disconnect call across
// the whole process. Some driver managers are not thread-safe around
// environment/connection allocation and teardown; the original turbodbc
// implementation (raii_connection.cpp) takes the same global lock.
var connectMutex sync.Mutex

// Environment owns a native CLI environment handle (SQLHENV): the root of
// the handle hierarchy. The Connections it opens share it; Connector.Connect
// opens a new Environment for every connection it makes.
type Environment struct {
	api    *api
	handle SQLHENV
	cfg    *Config
}

// OpenEnvironment allocates a native CLI environment handle and sets it to
// ODBC version 3.x.
func OpenEnvironment(cfg *Config) (*Environment, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	a, err := newAPI()
	if err != nil {
		return nil, err
	}

	connectMutex.Lock()
	defer connectMutex.Unlock()

	raw, ret := a.AllocHandle(SQL_HANDLE_ENV, SQL_NULL_HANDLE)
	if !IsSuccess(ret) {
		return nil, NewTransportError("failed to allocate environment handle")
	}
	env := SQLHENV(raw)

	ret = a.SetEnvAttr(env, SQL_ATTR_ODBC_VERSION, uintptr(SQL_OV_ODBC3))
	if !IsSuccess(ret) {
		err := diagError(a, SQL_HANDLE_ENV, SQLHANDLE(env))
		a.FreeHandle(SQL_HANDLE_ENV, SQLHANDLE(env))
		return nil, err
	}
	// SUCCESS_WITH_INFO on version negotiation is benign (decided open
	// question, see DESIGN.md): log it at debug instead of reading the
	// diagnostic record.
	if ret == SQL_SUCCESS_WITH_INFO {
		cfg.Logger.Debug("odbc version negotiation returned SUCCESS_WITH_INFO")
	}

	return &Environment{api: a, handle: env, cfg: cfg}, nil
}

// Connect opens a Connection against this environment using dsn, a native
// CLI connection string.
func (e *Environment) Connect(dsn string) (*Connection, error) {
	connectMutex.Lock()
	defer connectMutex.Unlock()

	raw, ret := e.api.AllocHandle(SQL_HANDLE_DBC, SQLHANDLE(e.handle))
	if !IsSuccess(ret) {
		return nil, diagError(e.api, SQL_HANDLE_ENV, SQLHANDLE(e.handle))
	}
	dbc := SQLHDBC(raw)

	_, ret = e.api.DriverConnect(dbc, dsn)
	if !IsSuccess(ret) {
		err := diagError(e.api, SQL_HANDLE_DBC, SQLHANDLE(dbc))
		e.api.FreeHandle(SQL_HANDLE_DBC, SQLHANDLE(dbc))
		return nil, err
	}

	conn := &Connection{api: e.api, env: e, handle: dbc, cfg: e.cfg, autocommit: true}
	if !e.cfg.Autocommit {
		if err := conn.SetAutocommit(false); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// Close frees the environment handle. Errors are logged, never returned,
// matching raii_environment's destructor-can't-throw contract.
func (e *Environment) Close() {
	connectMutex.Lock()
	defer connectMutex.Unlock()
	if ret := e.api.FreeHandle(SQL_HANDLE_ENV, SQLHANDLE(e.handle)); !IsSuccess(ret) {
		e.cfg.Logger.Warn("failed to free environment handle", zap.String("return_code", FormatReturnCode(ret)))
	}
}

// Connection owns a native CLI connection handle (SQLHDBC).
type Connection struct {
	api        *api
	env        *Environment
	handle     SQLHDBC
	cfg        *Config
	mu         sync.Mutex
	autocommit bool
	inTx       bool
}

// NewStatement allocates a Statement on this connection.
func (c *Connection) NewStatement() (*Statement, error) {
	raw, ret := c.api.AllocHandle(SQL_HANDLE_STMT, SQLHANDLE(c.handle))
	if !IsSuccess(ret) {
		return nil, diagError(c.api, SQL_HANDLE_DBC, SQLHANDLE(c.handle))
	}
	return &Statement{api: c.api, conn: c, handle: SQLHSTMT(raw), cfg: c.cfg}, nil
}

// SetAutocommit toggles SQL_ATTR_AUTOCOMMIT.
func (c *Connection) SetAutocommit(on bool) error {
	v := SQL_AUTOCOMMIT_ON
	if !on {
		v = SQL_AUTOCOMMIT_OFF
	}
	ret := c.api.SetConnectAttr(c.handle, SQL_ATTR_AUTOCOMMIT, uintptr(v))
	if !IsSuccess(ret) {
		return diagError(c.api, SQL_HANDLE_DBC, SQLHANDLE(c.handle))
	}
	c.autocommit = on
	return nil
}

// Begin marks a transaction as open by switching autocommit off, the way
// database/sql/driver.Conn.Begin is expected to behave.
func (c *Connection) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.SetAutocommit(false); err != nil {
		return err
	}
	c.inTx = true
	return nil
}

// EndTransaction commits or rolls back, then restores autocommit.
func (c *Connection) EndTransaction(completionType SQLSMALLINT) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inTx {
		return nil
	}
	ret := c.api.EndTran(SQL_HANDLE_DBC, SQLHANDLE(c.handle), completionType)
	c.inTx = false
	c.SetAutocommit(c.cfg.Autocommit)
	if !IsSuccess(ret) {
		return diagError(c.api, SQL_HANDLE_DBC, SQLHANDLE(c.handle))
	}
	return nil
}

// GetStringInfo wraps SQLGetInfo for string-valued info types, grounded in
// cpp_odbc::connection::get_string_info.
func (c *Connection) GetStringInfo(infoType SQLUSMALLINT) (string, error) {
	s, ret := c.api.GetStringInfo(c.handle, infoType)
	if !IsSuccess(ret) {
		return "", diagError(c.api, SQL_HANDLE_DBC, SQLHANDLE(c.handle))
	}
	return s, nil
}

// GetIntegerInfo wraps SQLGetInfo for integer-valued info types.
func (c *Connection) GetIntegerInfo(infoType SQLUSMALLINT) (uint32, error) {
	v, ret := c.api.GetIntegerInfo(c.handle, infoType)
	if !IsSuccess(ret) {
		return 0, diagError(c.api, SQL_HANDLE_DBC, SQLHANDLE(c.handle))
	}
	return v, nil
}

// SupportsFunction reports whether the driver implements the native CLI
// function identified by functionId, grounded in
// cpp_odbc::connection::supports_function.
func (c *Connection) SupportsFunction(functionId SQLUSMALLINT) (bool, error) {
	ok, ret := c.api.GetFunctions(c.handle, functionId)
	if !IsSuccess(ret) {
		return false, diagError(c.api, SQL_HANDLE_DBC, SQLHANDLE(c.handle))
	}
	return ok, nil
}

// IsDead reports whether the native driver considers this connection dead
// (SQL_ATTR_CONNECTION_DEAD). False on any failure reading the attribute,
// since drivers that don't support it should not be treated as dead.
func (c *Connection) IsDead() bool {
	v, ret := c.api.GetConnectAttr(c.handle, SQL_ATTR_CONNECTION_DEAD)
	if !IsSuccess(ret) {
		return false
	}
	return v != 0
}

// Close disconnects and frees the connection handle, logging failures
// instead of returning them (matches raii_connection's destructor).
func (c *Connection) Close() {
	connectMutex.Lock()
	defer connectMutex.Unlock()
	if ret := c.api.EndTran(SQL_HANDLE_DBC, SQLHANDLE(c.handle), SQL_ROLLBACK); !IsSuccess(ret) {
		c.cfg.Logger.Warn("failed to roll back on close", zap.String("return_code", FormatReturnCode(ret)))
	}
	if ret := c.api.Disconnect(c.handle); !IsSuccess(ret) {
		c.cfg.Logger.Warn("failed to disconnect", zap.String("return_code", FormatReturnCode(ret)))
	}
	if ret := c.api.FreeHandle(SQL_HANDLE_DBC, SQLHANDLE(c.handle)); !IsSuccess(ret) {
		c.cfg.Logger.Warn("failed to free connection handle", zap.String("return_code", FormatReturnCode(ret)))
	}
}

// Statement owns a native CLI statement handle (SQLHSTMT). Once Finalize
// has run, every other method returns ErrInterfaceError (decided open
// question, see DESIGN.md): the handle layer enforces idempotent close
// rather than re-exposing "invalid handle" driver errors.
type Statement struct {
	api        *api
	conn       *Connection
	handle     SQLHSTMT
	cfg        *Config
	finalized  bool
	finalizeMu sync.Mutex
}

func (s *Statement) checkOpen() error {
	if s.finalized {
		return newInterfaceError("statement is already finalized")
	}
	return nil
}

// Prepare prepares query for repeated execution.
func (s *Statement) Prepare(query string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.Prepare(s.handle, query)
	if !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// PrepareWide prepares query for repeated execution through the native
// CLI's wide-character entry point, for drivers that expect UTF-16 SQL
// text under prefer_unicode.
func (s *Statement) PrepareWide(query string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.PrepareWide(s.handle, query)
	if !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// ExecDirect executes query without a prepare step.
func (s *Statement) ExecDirect(query string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.ExecDirect(s.handle, query)
	if !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// Execute runs a previously prepared statement.
func (s *Statement) Execute() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.Execute(s.handle)
	if !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// NumParams returns the number of markers in the prepared statement.
func (s *Statement) NumParams() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n, ret := s.api.NumParams(s.handle)
	if !IsSuccess(ret) {
		return 0, diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return n, nil
}

// DescribeParameter returns the native description of parameter index
// (1-based). Some drivers do not support this; callers fall back to
// defaultParameterDescription on error.
func (s *Statement) DescribeParameter(index int) (ColumnDescription, error) {
	if err := s.checkOpen(); err != nil {
		return ColumnDescription{}, err
	}
	d, ret := s.api.DescribeParam(s.handle, index)
	if !IsSuccess(ret) {
		return ColumnDescription{}, diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return d, nil
}

// NumResultColumns returns the number of columns in the current result set.
func (s *Statement) NumResultColumns() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n, ret := s.api.NumResultCols(s.handle)
	if !IsSuccess(ret) {
		return 0, diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return n, nil
}

// DescribeColumn returns the native description of result column index
// (1-based).
func (s *Statement) DescribeColumn(index int) (ColumnDescription, error) {
	if err := s.checkOpen(); err != nil {
		return ColumnDescription{}, err
	}
	d, ret := s.api.DescribeCol(s.handle, index)
	if !IsSuccess(ret) {
		return ColumnDescription{}, diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return d, nil
}

// DescribeColumnWide returns the native description of result column index
// (1-based) via the wide-character describe entry point, used by the
// result-set engine when Config.PreferUnicode is set (§4.5).
func (s *Statement) DescribeColumnWide(index int) (ColumnDescription, error) {
	if err := s.checkOpen(); err != nil {
		return ColumnDescription{}, err
	}
	d, ret := s.api.DescribeColWide(s.handle, index)
	if !IsSuccess(ret) {
		return ColumnDescription{}, diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return d, nil
}

// ColumnAttribute returns a numeric field attribute for result column index
// (1-based) (e.g. SQL_DESC_LENGTH/PRECISION/SCALE) via the native CLI's
// column_attribute entry point, consumed separately from describe_column.
func (s *Statement) ColumnAttribute(index int, fieldId SQLUSMALLINT) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	v, ret := s.api.ColumnAttributeNumeric(s.handle, index, fieldId)
	if !IsSuccess(ret) {
		return 0, diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return v, nil
}

// BindInputParameter binds buf as the column-th input parameter, described
// by d.
func (s *Statement) BindInputParameter(column int, d Description, buf *MultiValueBuffer) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.BindParameter(s.handle, column, d, buf)
	if !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// BindColumn binds buf as the column-th result column.
func (s *Statement) BindColumn(column int, d Description, buf *MultiValueBuffer) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.BindCol(s.handle, column, d.CType, buf)
	if !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// SetParamsetSize sets SQL_ATTR_PARAMSET_SIZE for array (columnar) parameter
// binding (§4.4).
func (s *Statement) SetParamsetSize(n int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if ret := s.api.SetStmtAttrValue(s.handle, SQL_ATTR_PARAMSET_SIZE, n); !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// SetRowArraySize sets SQL_ATTR_ROW_ARRAY_SIZE for block-cursor fetch
// (§4.5, §4.6).
func (s *Statement) SetRowArraySize(n int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if ret := s.api.SetStmtAttrValue(s.handle, SQL_ATTR_ROW_ARRAY_SIZE, n); !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// FetchNext advances the cursor by one row/batch. Returns false, nil on
// SQL_NO_DATA.
func (s *Statement) FetchNext() (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	ret := s.api.Fetch(s.handle)
	if ret == SQL_NO_DATA {
		return false, nil
	}
	if !IsSuccess(ret) {
		return false, diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return true, nil
}

// RowCount returns the affected-row count for the last INSERT/UPDATE/DELETE.
func (s *Statement) RowCount() (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n, ret := s.api.RowCount(s.handle)
	if !IsSuccess(ret) {
		return 0, diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return n, nil
}

// UnbindAllParameters releases every bound input parameter buffer without
// deallocating the statement (free_statement(RESET_PARAMS)), used before
// rebuilding a BoundParameterSet with a different parameter shape.
func (s *Statement) UnbindAllParameters() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.FreeStmt(s.handle, SQL_RESET_PARAMS)
	if !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// UnbindAllColumns releases every bound result column buffer without
// deallocating the statement (free_statement(UNBIND)), used before
// rebuilding a BoundResultSet for a new result set on the same statement.
func (s *Statement) UnbindAllColumns() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.FreeStmt(s.handle, SQL_UNBIND)
	if !IsSuccess(ret) {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// CloseCursor closes the statement's cursor without deallocating it, so it
// can be re-executed.
func (s *Statement) CloseCursor() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ret := s.api.CloseCursor(s.handle)
	if !IsSuccess(ret) && ret != SQL_ERROR {
		return diagError(s.api, SQL_HANDLE_STMT, SQLHANDLE(s.handle))
	}
	return nil
}

// Finalize frees the statement handle. Idempotent: calling it twice is a
// no-op, matching statement::finalize in the original source.
func (s *Statement) Finalize() {
	s.finalizeMu.Lock()
	defer s.finalizeMu.Unlock()
	if s.finalized {
		return
	}
	s.finalized = true
	// Unbind columns and reset parameters before closing: SQL_CLOSE alone
	// only closes the cursor, it does not release bound buffers.
	if ret := s.api.FreeStmt(s.handle, SQL_UNBIND); !IsSuccess(ret) {
		s.cfg.Logger.Debug("free_stmt(SQL_UNBIND) failed during finalize", zap.String("return_code", FormatReturnCode(ret)))
	}
	if ret := s.api.FreeStmt(s.handle, SQL_RESET_PARAMS); !IsSuccess(ret) {
		s.cfg.Logger.Debug("free_stmt(SQL_RESET_PARAMS) failed during finalize", zap.String("return_code", FormatReturnCode(ret)))
	}
	if ret := s.api.FreeStmt(s.handle, SQL_CLOSE); !IsSuccess(ret) {
		s.cfg.Logger.Debug("free_stmt(SQL_CLOSE) failed during finalize", zap.String("return_code", FormatReturnCode(ret)))
	}
	if ret := s.api.FreeHandle(SQL_HANDLE_STMT, SQLHANDLE(s.handle)); !IsSuccess(ret) {
		s.cfg.Logger.Warn("failed to free statement handle", zap.String("return_code", FormatReturnCode(ret)))
	}
}

// diagError reads the first diagnostic record off handle and wraps it in an
// *Error; if no record is available, returns a transport error instead.
func diagError(a *api, handleType SQLSMALLINT, handle SQLHANDLE) error {
	rec, ok := a.GetDiagRec(handleType, handle, 1)
	if !ok {
		return NewTransportError("native CLI call failed with no diagnostic record")
	}
	return NewDriverError(rec)
}
