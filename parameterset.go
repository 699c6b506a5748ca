package turbodbc

import (
	"fmt"
)

const maxInitialParameterString = 16

// Parameter is a single bound input parameter: a Description plus the
// MultiValueBuffer backing it, bound to a 1-based column index on a
// Statement. Grounded in turbodbc::parameter.
type Parameter struct {
	stmt   *Statement
	column int
	desc   Description
	buf    *MultiValueBuffer
}

// NewParameter allocates buf for buffered rows and binds it as column on
// stmt.
func NewParameter(stmt *Statement, column int, desc Description, bufferedRows int) (*Parameter, error) {
	buf, err := NewMultiValueBuffer(desc.ElementSize, bufferedRows)
	if err != nil {
		return nil, err
	}
	if err := stmt.BindInputParameter(column, desc, buf); err != nil {
		return nil, err
	}
	return &Parameter{stmt: stmt, column: column, desc: desc, buf: buf}, nil
}

// TypeCode returns the parameter's current domain type.
func (p *Parameter) TypeCode() TypeCode { return p.desc.TypeCode }

// Buffer exposes the backing MultiValueBuffer.
func (p *Parameter) Buffer() *MultiValueBuffer { return p.buf }

// spaceConsumption mirrors turbodbc::parameter's anonymous space_consumption
// helper: strings need a terminator's worth of slack, wide strings two
// bytes per unit plus a terminator.
func spaceConsumption(code TypeCode, valueSize int) int {
	switch code {
	case TypeNarrowString:
		return valueSize + 1
	case TypeWideString:
		return 2*valueSize + 2
	default:
		return valueSize
	}
}

// IsSuitableFor reports whether value of domain type code and size valueSize
// fits this parameter's current Description without a rebind.
func (p *Parameter) IsSuitableFor(code TypeCode, valueSize int) bool {
	if code != p.desc.TypeCode {
		return false
	}
	return spaceConsumption(code, valueSize) <= p.desc.ElementSize
}

// MoveToTop copies row rowIndex's payload and indicator into row 0,
// preserving in-flight data ahead of a rebind that replaces the buffer.
func (p *Parameter) MoveToTop(rowIndex int) {
	p.buf.MoveToTop(rowIndex)
}

// BoundParameterSet manages the full array of bound Parameters for one
// prepared statement and drives columnar (array) execution, grounded in
// turbodbc::bound_parameter_set.
type BoundParameterSet struct {
	stmt                *Statement
	cfg                 *Config
	parameters          []*Parameter
	initialTypes        []TypeCode
	bufferedSets        int
	transferredSets     int64
	confirmedLastBatch  SQLULEN
}

// NewBoundParameterSet introspects stmt's parameter markers (via
// describe_parameter where supported, falling back to a 1-char
// string/unicode placeholder) and binds a Parameter for each.
func NewBoundParameterSet(stmt *Statement, cfg *Config) (*BoundParameterSet, error) {
	n, err := stmt.NumParams()
	if err != nil {
		return nil, err
	}

	bps := &BoundParameterSet{
		stmt:         stmt,
		cfg:          cfg,
		bufferedSets: cfg.ParameterSetsToBuffer,
	}
	for i := 1; i <= n; i++ {
		desc, err := bps.suggestDescription(i)
		if err != nil {
			desc = defaultParameterDescription(cfg)
		}
		param, err := NewParameter(stmt, i, desc, bps.bufferedSets)
		if err != nil {
			return nil, fmt.Errorf("bind parameter %d: %w", i, err)
		}
		bps.parameters = append(bps.parameters, param)
		bps.initialTypes = append(bps.initialTypes, param.TypeCode())
	}

	if err := stmt.api.SetParamsProcessedPtr(stmt.handle, &bps.confirmedLastBatch); err != nil {
		return nil, err
	}
	return bps, nil
}

func (bps *BoundParameterSet) suggestDescription(oneBasedIndex int) (Description, error) {
	col, err := bps.stmt.DescribeParameter(oneBasedIndex)
	if err != nil {
		return Description{}, err
	}
	desc, err := MakeDescription(col, bps.cfg)
	if err != nil {
		return Description{}, err
	}
	if (desc.TypeCode == TypeNarrowString || desc.TypeCode == TypeWideString) &&
		desc.MaxChars > maxInitialParameterString {
		col.Size = SQLULEN(maxInitialParameterString)
		return MakeDescription(col, bps.cfg)
	}
	return desc, nil
}

// BufferedSets returns the configured batch capacity.
func (bps *BoundParameterSet) BufferedSets() int { return bps.bufferedSets }

// TransferredSets returns the running total of rows confirmed processed by
// the native CLI.
func (bps *BoundParameterSet) TransferredSets() int64 { return bps.transferredSets }

// NumberOfParameters returns the parameter count.
func (bps *BoundParameterSet) NumberOfParameters() int { return len(bps.parameters) }

// Parameters exposes the bound Parameter slice.
func (bps *BoundParameterSet) Parameters() []*Parameter { return bps.parameters }

// InitialTypes returns each parameter's type as originally suggested or
// defaulted, before any rebind.
func (bps *BoundParameterSet) InitialTypes() []TypeCode { return bps.initialTypes }

// ExecuteBatch runs the prepared statement against setsInBatch rows of
// currently-bound parameter data.
func (bps *BoundParameterSet) ExecuteBatch(setsInBatch int) error {
	if setsInBatch == 0 || len(bps.parameters) == 0 {
		return nil
	}
	if setsInBatch > bps.bufferedSets {
		return newLogicError("a batch cannot be larger than the number of buffered sets (%d > %d)", setsInBatch, bps.bufferedSets)
	}
	if err := bps.stmt.SetParamsetSize(setsInBatch); err != nil {
		return err
	}
	if err := bps.stmt.Execute(); err != nil {
		return err
	}
	bps.transferredSets += int64(bps.confirmedLastBatch)
	if bps.cfg.Metrics != nil {
		bps.cfg.Metrics.BatchesFlushed.Inc()
	}
	return nil
}

// Rebind replaces the parameter at parameterIndex (0-based) with a freshly
// bound one using desc, re-binding it to the native statement at the same
// 1-based column.
func (bps *BoundParameterSet) Rebind(parameterIndex int, desc Description) error {
	column := parameterIndex + 1
	param, err := NewParameter(bps.stmt, column, desc, bps.bufferedSets)
	if err != nil {
		return err
	}
	bps.parameters[parameterIndex] = param
	if bps.cfg.Metrics != nil {
		bps.cfg.Metrics.ParametersRebound.Inc()
	}
	return nil
}

// RowParameterLoader drives BoundParameterSet a row at a time, performing
// the auto-rebind dance when an incoming value no longer fits its
// parameter's buffer, grounded in turbodbc::field_parameter_set.
type RowParameterLoader struct {
	params  *BoundParameterSet
	cfg     *Config
	current int
}

// NewRowParameterLoader wraps params for row-oriented loading.
func NewRowParameterLoader(params *BoundParameterSet, cfg *Config) *RowParameterLoader {
	return &RowParameterLoader{params: params, cfg: cfg}
}

// Flush executes whatever rows have accumulated since the last flush.
func (l *RowParameterLoader) Flush() error {
	if err := l.params.ExecuteBatch(l.current); err != nil {
		return err
	}
	l.current = 0
	return nil
}

// AddRow appends one row of values, one per bound parameter, flushing and
// rebinding as needed. A nil entry binds SQL NULL.
func (l *RowParameterLoader) AddRow(values []interface{}) error {
	if len(values) != l.params.NumberOfParameters() {
		return newLogicError("invalid number of parameters (expected %d, got %d)", l.params.NumberOfParameters(), len(values))
	}
	if l.current == l.params.BufferedSets() {
		if err := l.Flush(); err != nil {
			return err
		}
	}
	for i, v := range values {
		if err := l.addParameter(i, v); err != nil {
			return err
		}
	}
	l.current++
	return nil
}

func (l *RowParameterLoader) addParameter(index int, value interface{}) error {
	param := l.params.Parameters()[index]
	if value == nil {
		param.Buffer().SetNull(l.current)
		return nil
	}

	code, size, err := valueShape(value, l.cfg)
	if err != nil {
		return err
	}

	if param.IsSuitableFor(code, size) {
		payload, indicator := param.Buffer().Element(l.current)
		return writeField(value, payload, indicator, param.desc, l.cfg)
	}

	lastActiveSet := l.current
	if err := l.Flush(); err != nil {
		return err
	}
	for i := 0; i < index; i++ {
		l.params.Parameters()[i].MoveToTop(lastActiveSet)
	}
	desc, err := DescriptionForValue(value, l.cfg)
	if err != nil {
		return err
	}
	if err := l.params.Rebind(index, desc); err != nil {
		return err
	}
	param = l.params.Parameters()[index]
	payload, indicator := param.Buffer().Element(0)
	return writeField(value, payload, indicator, param.desc, l.cfg)
}

// valueShape returns the domain TypeCode and byte/char size a runtime value
// would need, for IsSuitableFor comparisons.
func valueShape(value interface{}, cfg *Config) (TypeCode, int, error) {
	desc, err := DescriptionForValue(value, cfg)
	if err != nil {
		return 0, 0, err
	}
	switch v := value.(type) {
	case string:
		return desc.TypeCode, len(v), nil
	case WideString:
		return desc.TypeCode, len(v), nil
	default:
		return desc.TypeCode, desc.ElementSize, nil
	}
}
