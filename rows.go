package turbodbc

import (
	"database/sql/driver"
	"io"
	"reflect"
	"time"
)

// resultSet is the shape BoundResultSet and DoubleBufferedResultSet both
// satisfy: fetch one more batch of rows into column buffers, and expose
// those buffers. Rows walks either implementation identically.
type resultSet interface {
	FetchNextBatch() (int, error)
	ColumnInfos() []ColumnInfo
	Columns() []*ResultColumn
}

// Rows implements database/sql/driver.Rows by walking a resultSet's column
// buffers row-major, translating each element through a Translator as it
// goes, instead of calling SQLGetData once per cell per row.
type Rows struct {
	stmt      *Statement
	closeStmt bool

	rs         resultSet
	translator Translator
	infos      []ColumnInfo

	batchRow int
	batchLen int
	closed   bool
}

// newRows describes the statement's current result set and, if it has any
// columns, binds a BoundResultSet or (with Config.UseAsyncIO) a
// DoubleBufferedResultSet to walk it.
func newRows(stmt *Statement, cfg *Config, closeStmt bool) (*Rows, error) {
	n, err := stmt.NumResultColumns()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return &Rows{stmt: stmt, closeStmt: closeStmt}, nil
	}

	var rs resultSet
	if cfg.UseAsyncIO {
		rs, err = NewDoubleBufferedResultSet(stmt, cfg)
	} else {
		rs, err = NewBoundResultSet(stmt, cfg)
	}
	if err != nil {
		return nil, err
	}

	return &Rows{
		stmt:       stmt,
		closeStmt:  closeStmt,
		rs:         rs,
		translator: newDefaultTranslator(cfg),
		infos:      rs.ColumnInfos(),
	}, nil
}

// Columns returns the result set's column names.
func (r *Rows) Columns() []string {
	names := make([]string, len(r.infos))
	for i, info := range r.infos {
		names[i] = info.Name
	}
	return names
}

// Close releases the cursor and, for DoubleBufferedResultSet, stops its
// reader goroutine. If this Rows owns the statement (one that
// Conn.QueryContext created itself), the statement is finalized too.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if closer, ok := r.rs.(interface{ Close() error }); ok {
		closer.Close()
	}
	r.stmt.CloseCursor()
	if r.closeStmt {
		r.stmt.Finalize()
	}
	return nil
}

// Next fills dest with the next row's columns, fetching a new batch from
// the underlying resultSet whenever the current one is exhausted.
func (r *Rows) Next(dest []driver.Value) error {
	if r.closed || r.rs == nil {
		return io.EOF
	}

	if r.batchRow >= r.batchLen {
		n, err := r.rs.FetchNextBatch()
		if err != nil {
			return err
		}
		if n == 0 {
			return io.EOF
		}
		r.batchLen = n
		r.batchRow = 0
	}

	cols := r.rs.Columns()
	for i := range dest {
		v, err := TranslateColumn(r.translator, cols[i], r.batchRow)
		if err != nil {
			return err
		}
		dest[i] = v
	}
	r.batchRow++
	return nil
}

// ColumnTypeScanType returns the Go type TranslateColumn produces for this
// column's TypeCode.
func (r *Rows) ColumnTypeScanType(index int) reflect.Type {
	switch r.infos[index].TypeCode {
	case TypeInteger:
		return reflect.TypeOf(int64(0))
	case TypeFloatingPoint:
		return reflect.TypeOf(float64(0))
	case TypeBoolean:
		return reflect.TypeOf(false)
	case TypeDate, TypeTimestamp:
		return reflect.TypeOf(time.Time{})
	default:
		return reflect.TypeOf("")
	}
}

// ColumnTypeDatabaseTypeName returns a short, TypeCode-derived name; the
// native CLI's original SQL type name isn't retained past MakeDescription.
func (r *Rows) ColumnTypeDatabaseTypeName(index int) string {
	switch r.infos[index].TypeCode {
	case TypeInteger:
		return "INTEGER"
	case TypeFloatingPoint:
		return "DOUBLE"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeWideString:
		return "NVARCHAR"
	default:
		return "VARCHAR"
	}
}

// ColumnTypeNullable reports the nullability discovered at describe time.
func (r *Rows) ColumnTypeNullable(index int) (nullable, ok bool) {
	return r.infos[index].Nullable, true
}

// ColumnTypeLength reports the column's octet length via the native CLI's
// column_attribute entry point. Returns ok=false for drivers that don't
// support the call.
func (r *Rows) ColumnTypeLength(index int) (length int64, ok bool) {
	n, err := r.stmt.ColumnAttribute(index+1, SQL_DESC_OCTET_LENGTH)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ColumnTypePrecisionScale reports the column's precision/scale via the
// native CLI's column_attribute entry point.
func (r *Rows) ColumnTypePrecisionScale(index int) (precision, scale int64, ok bool) {
	p, err := r.stmt.ColumnAttribute(index+1, SQL_DESC_PRECISION)
	if err != nil {
		return 0, 0, false
	}
	s, err := r.stmt.ColumnAttribute(index+1, SQL_DESC_SCALE)
	if err != nil {
		return 0, 0, false
	}
	return p, s, true
}

var (
	_ driver.Rows                           = (*Rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*Rows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*Rows)(nil)
	_ driver.RowsColumnTypeNullable         = (*Rows)(nil)
	_ driver.RowsColumnTypeLength           = (*Rows)(nil)
	_ driver.RowsColumnTypePrecisionScale   = (*Rows)(nil)
)
