package turbodbc

import "time"

// Translator converts a single buffer element's raw bytes into a Go value,
// one method per domain TypeCode. It is the one interface the core
// buffer/description/parameter-set/result-set layers never implement
// themselves: database/sql/driver.Rows is its main consumer (§4.7), and
// Conn's last-insert-id lookup also uses it.
type Translator interface {
	TranslateInteger(payload []byte) (int64, bool)
	TranslateFloat(payload []byte) (float64, bool)
	TranslateBoolean(payload []byte) (bool, bool)
	TranslateDate(payload []byte) (time.Time, bool)
	TranslateTimestamp(payload []byte) (time.Time, bool)
	TranslateNarrowString(payload []byte, indicator int64) (string, bool)
	TranslateWideString(payload []byte, indicator int64) (string, bool)
}

// defaultTranslator is the only Translator implementation shipped: it reads
// a MultiValueBuffer element's raw bytes according to the native CLI's
// fixed-width C struct layouts defined in types.go.
type defaultTranslator struct {
	cfg *Config
}

func newDefaultTranslator(cfg *Config) *defaultTranslator {
	return &defaultTranslator{cfg: cfg}
}

func (t *defaultTranslator) TranslateInteger(payload []byte) (int64, bool) {
	return int64(le64(payload)), true
}

func (t *defaultTranslator) TranslateFloat(payload []byte) (float64, bool) {
	return float64FromBits(le64(payload)), true
}

func (t *defaultTranslator) TranslateBoolean(payload []byte) (bool, bool) {
	return payload[0] != 0, true
}

func (t *defaultTranslator) TranslateDate(payload []byte) (time.Time, bool) {
	d := dateStructFromBytes(payload)
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC), true
}

func (t *defaultTranslator) TranslateTimestamp(payload []byte) (time.Time, bool) {
	ts := timestampStructFromBytes(payload)
	// SQL_TIMESTAMP_STRUCT.Fraction is nanoseconds; the native CLI reports
	// it scaled from the microsecond value most drivers actually produce.
	return time.Date(int(ts.Year), time.Month(ts.Month), int(ts.Day),
		int(ts.Hour), int(ts.Minute), int(ts.Second), int(ts.Fraction), time.UTC), true
}

func (t *defaultTranslator) TranslateNarrowString(payload []byte, indicator int64) (string, bool) {
	n := int(indicator)
	if n < 0 || n > len(payload) {
		n = cStringLen(payload)
	}
	return string(payload[:n]), true
}

func (t *defaultTranslator) TranslateWideString(payload []byte, indicator int64) (string, bool) {
	n := int(indicator)
	if n < 0 || n > len(payload) {
		n = len(payload)
	}
	return utf16BytesToString(payload[:n])
}

func cStringLen(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}

// TranslateColumn reads row rowIndex of col through t, dispatching on the
// column's TypeCode, and returns a database/sql/driver.Value-compatible
// value, or nil if the element's indicator marks it NULL.
func TranslateColumn(t Translator, col *ResultColumn, rowIndex int) (interface{}, error) {
	buf := col.Buffer()
	if buf.IsNull(rowIndex) {
		return nil, nil
	}
	payload, indicator := buf.Element(rowIndex)
	switch col.Description().TypeCode {
	case TypeInteger:
		v, _ := t.TranslateInteger(payload)
		return v, nil
	case TypeFloatingPoint:
		v, _ := t.TranslateFloat(payload)
		return v, nil
	case TypeBoolean:
		v, _ := t.TranslateBoolean(payload)
		return v, nil
	case TypeDate:
		v, _ := t.TranslateDate(payload)
		return v, nil
	case TypeTimestamp:
		v, _ := t.TranslateTimestamp(payload)
		return v, nil
	case TypeNarrowString:
		v, _ := t.TranslateNarrowString(payload, *indicator)
		return v, nil
	case TypeWideString:
		v, ok := t.TranslateWideString(payload, *indicator)
		if !ok {
			return nil, newUnsupportedTypeError("translate: malformed UTF-16 payload in column %q", col.Description().Name)
		}
		return v, nil
	default:
		return nil, newUnsupportedTypeError("translate: unhandled type code %v", col.Description().TypeCode)
	}
}
