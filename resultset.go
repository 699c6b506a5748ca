package turbodbc

// ResultColumn pairs a bound result Description with the MultiValueBuffer
// the native CLI fetches rows into, grounded in
// turbodbc::result_sets::bound_column.
type ResultColumn struct {
	stmt   *Statement
	column int
	desc   Description
	buf    *MultiValueBuffer
}

// Bind (re)binds this column's buffer on the statement. Called once at
// construction and again whenever the owning BoundResultSet is rebuilt
// after a move (e.g. into a DoubleBufferedResultSet's second slot).
func (c *ResultColumn) Bind() error {
	return c.stmt.BindColumn(c.column, c.desc, c.buf)
}

// Info returns the immutable, user-facing view of this column.
func (c *ResultColumn) Info() ColumnInfo {
	return ColumnInfo{Name: c.desc.Name, TypeCode: c.desc.TypeCode, ElementSize: c.desc.ElementSize, Nullable: c.desc.Nullable}
}

// Buffer exposes the backing MultiValueBuffer.
func (c *ResultColumn) Buffer() *MultiValueBuffer { return c.buf }

// Description exposes the column's resolved Description.
func (c *ResultColumn) Description() Description { return c.desc }

// BoundResultSet column-binds every column of a statement's current result
// set into batches of rows, sized per Config.ReadBufferSize, and exposes
// fetch_next_batch/get_column_info/get_buffers exactly as the original
// turbodbc::result_sets::bound_result_set does.
type BoundResultSet struct {
	stmt         *Statement
	cfg          *Config
	columns      []*ResultColumn
	rowsFetched  SQLULEN
	rowsToBuffer int
}

// NewBoundResultSet describes every column of stmt's active result set,
// sizes the shared row-batch capacity from cfg.ReadBufferSize, and binds
// every column's buffer.
func NewBoundResultSet(stmt *Statement, cfg *Config) (*BoundResultSet, error) {
	n, err := stmt.NumResultColumns()
	if err != nil {
		return nil, err
	}

	descs := make([]Description, n)
	for i := 0; i < n; i++ {
		var col ColumnDescription
		var err error
		if cfg.PreferUnicode {
			col, err = stmt.DescribeColumnWide(i + 1)
		} else {
			col, err = stmt.DescribeColumn(i + 1)
		}
		if err != nil {
			return nil, err
		}
		desc, err := MakeDescription(col, cfg)
		if err != nil {
			return nil, err
		}
		descs[i] = desc
	}

	rowsToBuffer := determineRowsToBuffer(descs, cfg.ReadBufferSize)

	rs := &BoundResultSet{stmt: stmt, cfg: cfg, rowsToBuffer: rowsToBuffer}
	for i, desc := range descs {
		buf, err := NewMultiValueBuffer(desc.ElementSize, rowsToBuffer)
		if err != nil {
			return nil, err
		}
		rs.columns = append(rs.columns, &ResultColumn{stmt: stmt, column: i + 1, desc: desc, buf: buf})
	}

	if err := stmt.SetRowArraySize(rowsToBuffer); err != nil {
		return nil, err
	}
	if err := rs.rebind(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (rs *BoundResultSet) rebind() error {
	for _, col := range rs.columns {
		if err := col.Bind(); err != nil {
			return err
		}
	}
	return rs.stmt.api.SetRowsFetchedPtr(rs.stmt.handle, &rs.rowsFetched)
}

// determineRowsToBuffer sums each column's element size and asks the
// BufferSize policy how many rows that total width allows, grounded in
// turbodbc::determine_rows_to_buffer.
func determineRowsToBuffer(descs []Description, size BufferSize) int {
	total := 0
	for _, d := range descs {
		total += d.ElementSize
	}
	return size.rowsToBuffer(total)
}

// FetchNextBatch advances the cursor and returns how many rows landed in
// the bound buffers (0 on exhaustion).
func (rs *BoundResultSet) FetchNextBatch() (int, error) {
	more, err := rs.stmt.FetchNext()
	if err != nil {
		return 0, err
	}
	if !more {
		return 0, nil
	}
	n := int(rs.rowsFetched)
	if rs.cfg.Metrics != nil {
		rs.cfg.Metrics.RowsFetched.Add(float64(n))
	}
	return n, nil
}

// ColumnInfos returns the user-facing description of every column, in
// order.
func (rs *BoundResultSet) ColumnInfos() []ColumnInfo {
	infos := make([]ColumnInfo, len(rs.columns))
	for i, c := range rs.columns {
		infos[i] = c.Info()
	}
	return infos
}

// Columns exposes the bound ResultColumn slice.
func (rs *BoundResultSet) Columns() []*ResultColumn { return rs.columns }

// RowsToBuffer returns the resolved per-batch row capacity.
func (rs *BoundResultSet) RowsToBuffer() int { return rs.rowsToBuffer }
