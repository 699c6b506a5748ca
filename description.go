package turbodbc

import (
	"math"
	"time"
)

// TypeCode is the domain-level type enum a Description ultimately maps to.
type TypeCode int

const (
	TypeInteger TypeCode = iota
	TypeFloatingPoint
	TypeBoolean
	TypeDate
	TypeTimestamp
	TypeNarrowString
	TypeWideString
)

func (t TypeCode) String() string {
	switch t {
	case TypeInteger:
		return "Integer"
	case TypeFloatingPoint:
		return "FloatingPoint"
	case TypeBoolean:
		return "Boolean"
	case TypeDate:
		return "Date"
	case TypeTimestamp:
		return "Timestamp"
	case TypeNarrowString:
		return "NarrowString"
	case TypeWideString:
		return "WideString"
	default:
		return "Unknown"
	}
}

// Description describes either a bound parameter or a fetched column: its
// domain type, the native CLI type codes needed to bind it, and the
// per-element byte size a MultiValueBuffer for it must use.
type Description struct {
	TypeCode      TypeCode
	ElementSize   int
	CType         SQLSMALLINT
	SQLType       SQLSMALLINT
	DecimalDigits SQLSMALLINT
	Name          string
	Nullable      bool

	// MaxChars is the character (NarrowString) or code-unit (WideString)
	// capacity not counting the terminator. Zero for non-string variants.
	MaxChars int
}

// ColumnInfo is the immutable, user-facing view of a Description exposed by
// ResultSet.ColumnInfos().
type ColumnInfo struct {
	Name        string
	TypeCode    TypeCode
	ElementSize int
	Nullable    bool
}

// ColumnDescription is what describe_column/describe_parameter returns from
// the handle layer (§4.1).
type ColumnDescription struct {
	Name          string
	DataType      SQLSMALLINT
	Size          SQLULEN
	DecimalDigits SQLSMALLINT
	Nullable      SQLSMALLINT
}

// AllowsNull implements the §9 open-question decision: NULLABLE_UNKNOWN is
// treated the same as NULLABLE, even though that loses information.
func (c ColumnDescription) AllowsNull() bool {
	return c.Nullable != SQL_NO_NULLS
}

const maxInitialParameterStringLength = 16

// sizeAfterGrowthStrategy implements the rebind growth rule from §4.3:
// size_out = max(10, ceil(1.2 * size)).
func sizeAfterGrowthStrategy(size int) int {
	grown := int(math.Ceil(1.2 * float64(size)))
	if grown < 10 {
		return 10
	}
	return grown
}

// MakeDescriptionForRebind produces a Description for a runtime value that
// no longer fits its current parameter slot, applying the string growth
// strategy. Used by RowParameterLoader when is_suitable_for fails.
func MakeDescriptionForRebind(typeCode TypeCode, size int, cfg *Config) Description {
	switch typeCode {
	case TypeNarrowString:
		return narrowStringDescription(sizeAfterGrowthStrategy(size), cfg)
	case TypeWideString:
		return wideStringDescription(sizeAfterGrowthStrategy(size), cfg)
	default:
		return fixedDescription(typeCode)
	}
}

func fixedDescription(t TypeCode) Description {
	switch t {
	case TypeInteger:
		return Description{TypeCode: TypeInteger, ElementSize: 8, CType: SQL_C_SBIGINT, SQLType: SQL_BIGINT}
	case TypeFloatingPoint:
		return Description{TypeCode: TypeFloatingPoint, ElementSize: 8, CType: SQL_C_DOUBLE, SQLType: SQL_DOUBLE}
	case TypeBoolean:
		return Description{TypeCode: TypeBoolean, ElementSize: 1, CType: SQL_C_BIT, SQLType: SQL_BIT}
	case TypeDate:
		return Description{TypeCode: TypeDate, ElementSize: 6, CType: SQL_C_DATE, SQLType: SQL_TYPE_DATE}
	case TypeTimestamp:
		return Description{TypeCode: TypeTimestamp, ElementSize: 16, CType: SQL_C_TIMESTAMP, SQLType: SQL_TYPE_TIMESTAMP, DecimalDigits: 6}
	default:
		return Description{}
	}
}

func narrowStringDescription(maxChars int, cfg *Config) Description {
	if cfg.LimitVarcharResultsToMax && maxChars > cfg.VarcharMaxCharacterLimit {
		maxChars = cfg.VarcharMaxCharacterLimit
	}
	return Description{
		TypeCode:    TypeNarrowString,
		ElementSize: maxChars + 1,
		CType:       SQL_C_CHAR,
		SQLType:     SQL_VARCHAR,
		MaxChars:    maxChars,
	}
}

func wideStringDescription(maxChars int, cfg *Config) Description {
	if cfg.LimitVarcharResultsToMax && maxChars > cfg.VarcharMaxCharacterLimit {
		maxChars = cfg.VarcharMaxCharacterLimit
	}
	if cfg.ForceExtraCapacityForUnicode {
		maxChars *= 2
	}
	return Description{
		TypeCode:    TypeWideString,
		ElementSize: 2 * (maxChars + 1),
		CType:       SQL_C_WCHAR,
		SQLType:     SQL_WVARCHAR,
		MaxChars:    maxChars,
	}
}

// MakeDescription maps a ColumnDescription (as returned by describe_column
// or describe_parameter) to a Description, applying §4.3's type table and
// the decimal/string sizing rules.
func MakeDescription(col ColumnDescription, cfg *Config) (Description, error) {
	d, err := makeDescriptionByTypeCode(col.DataType, col.Size, col.DecimalDigits, cfg)
	if err != nil {
		return Description{}, err
	}
	d.Name = col.Name
	d.Nullable = col.AllowsNull()
	return d, nil
}

func makeDescriptionByTypeCode(dataType SQLSMALLINT, size SQLULEN, decimalDigits SQLSMALLINT, cfg *Config) (Description, error) {
	switch dataType {
	case SQL_TINYINT, SQL_SMALLINT, SQL_INTEGER, SQL_BIGINT:
		return fixedDescription(TypeInteger), nil
	case SQL_REAL, SQL_FLOAT, SQL_DOUBLE:
		return fixedDescription(TypeFloatingPoint), nil
	case SQL_BIT:
		return fixedDescription(TypeBoolean), nil
	case SQL_TYPE_DATE:
		return fixedDescription(TypeDate), nil
	case SQL_TYPE_TIMESTAMP:
		return fixedDescription(TypeTimestamp), nil
	case SQL_CHAR, SQL_VARCHAR, SQL_LONGVARCHAR:
		n := characterLimit(size, cfg)
		if cfg.PreferUnicode {
			return wideStringDescription(n, cfg), nil
		}
		return narrowStringDescription(n, cfg), nil
	case SQL_WCHAR, SQL_WVARCHAR, SQL_WLONGVARCHAR:
		n := characterLimit(size, cfg)
		if cfg.FetchWCharAsChar {
			return narrowStringDescription(n, cfg), nil
		}
		return wideStringDescription(n, cfg), nil
	case SQL_NUMERIC, SQL_DECIMAL:
		return makeDecimalDescription(size, decimalDigits, cfg), nil
	default:
		return Description{}, newUnsupportedTypeError("make_description: unrecognised CLI type code %d", dataType)
	}
}

func characterLimit(size SQLULEN, cfg *Config) int {
	if size == 0 {
		return cfg.VarcharMaxCharacterLimit
	}
	return int(size)
}

// makeDecimalDescription implements the NUMERIC/DECIMAL row of §4.3's
// table, grounded in turbodbc's make_small_decimal_description /
// make_large_decimal_description split at 18 significant digits.
func makeDecimalDescription(size SQLULEN, decimalDigits SQLSMALLINT, cfg *Config) Description {
	if size <= 18 {
		return makeSmallDecimalDescription(decimalDigits)
	}
	if cfg.LargeDecimalsAs64BitTypes {
		return makeSmallDecimalDescription(decimalDigits)
	}
	// Sign and decimal point need two extra characters of capacity.
	return narrowStringDescription(int(size)+2, cfg)
}

func makeSmallDecimalDescription(decimalDigits SQLSMALLINT) Description {
	if decimalDigits == 0 {
		return fixedDescription(TypeInteger)
	}
	return fixedDescription(TypeFloatingPoint)
}

// DescriptionForValue implements description_by_value: pick a Description
// for a runtime row value when the row loader needs to rebind a parameter
// (§4.4). nil maps to no particular type (callers should use SetNull
// instead of calling this for a nil value).
func DescriptionForValue(value interface{}, cfg *Config) (Description, error) {
	switch v := value.(type) {
	case bool:
		return fixedDescription(TypeBoolean), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fixedDescription(TypeInteger), nil
	case float32, float64:
		return fixedDescription(TypeFloatingPoint), nil
	case Timestamp, time.Time:
		return fixedDescription(TypeTimestamp), nil
	case WideString:
		return wideStringDescription(sizeAfterGrowthStrategy(len(v)), cfg), nil
	case string:
		if cfg.PreferUnicode {
			return wideStringDescription(sizeAfterGrowthStrategy(len(v)), cfg), nil
		}
		return narrowStringDescription(sizeAfterGrowthStrategy(len(v)), cfg), nil
	default:
		return Description{}, newInvalidArgumentError("description_by_value: unsupported Go value type %T", value)
	}
}

// defaultParameterDescription is used when describe_parameter is
// unsupported or fails: a 1-char NarrowString, or WideString under
// prefer_unicode (§4.4).
func defaultParameterDescription(cfg *Config) Description {
	if cfg.PreferUnicode {
		return wideStringDescription(1, cfg)
	}
	return narrowStringDescription(1, cfg)
}
