package turbodbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeAfterGrowthStrategy(t *testing.T) {
	assert.Equal(t, 10, sizeAfterGrowthStrategy(1))
	assert.Equal(t, 10, sizeAfterGrowthStrategy(8))
	assert.Equal(t, 12, sizeAfterGrowthStrategy(10))
	assert.Equal(t, 24, sizeAfterGrowthStrategy(20))
}

func TestMakeDescription_FixedTypes(t *testing.T) {
	cfg := NewConfig()

	d, err := MakeDescription(ColumnDescription{Name: "n", DataType: SQL_INTEGER, Nullable: SQL_NO_NULLS}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeInteger, d.TypeCode)
	assert.Equal(t, 8, d.ElementSize)
	assert.False(t, d.Nullable)

	d, err = MakeDescription(ColumnDescription{Name: "f", DataType: SQL_DOUBLE, Nullable: SQL_NULLABLE}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeFloatingPoint, d.TypeCode)
	assert.True(t, d.Nullable)

	d, err = MakeDescription(ColumnDescription{Name: "b", DataType: SQL_BIT}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeBoolean, d.TypeCode)
}

func TestMakeDescription_VarcharPrefersUnicode(t *testing.T) {
	cfg := NewConfig(WithPreferUnicode(true))
	d, err := MakeDescription(ColumnDescription{Name: "s", DataType: SQL_VARCHAR, Size: 10}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeWideString, d.TypeCode)
	assert.Equal(t, 10, d.MaxChars)
	assert.Equal(t, 2*(10+1), d.ElementSize)
}

func TestMakeDescription_WideAsCharWhenConfigured(t *testing.T) {
	cfg := NewConfig(WithFetchWCharAsChar(true))
	d, err := MakeDescription(ColumnDescription{Name: "s", DataType: SQL_WVARCHAR, Size: 10}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeNarrowString, d.TypeCode)
}

func TestMakeDescription_VarcharZeroSizeUsesLimit(t *testing.T) {
	cfg := NewConfig(WithVarcharMaxCharacterLimit(50))
	d, err := MakeDescription(ColumnDescription{Name: "s", DataType: SQL_VARCHAR, Size: 0}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 50, d.MaxChars)
}

func TestMakeDescription_LimitVarcharResultsToMax(t *testing.T) {
	cfg := NewConfig(WithLimitVarcharResultsToMax(true), WithVarcharMaxCharacterLimit(20))
	d, err := MakeDescription(ColumnDescription{Name: "s", DataType: SQL_VARCHAR, Size: 1000}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, d.MaxChars)
}

func TestMakeDescription_UnrecognisedTypeErrors(t *testing.T) {
	cfg := NewConfig()
	_, err := MakeDescription(ColumnDescription{Name: "x", DataType: SQLSMALLINT(9999)}, cfg)
	require.Error(t, err)
	terr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindUnsupportedType, terr.Kind())
}

func TestMakeDecimalDescription_SmallSplitsOnScale(t *testing.T) {
	cfg := NewConfig()
	d, err := MakeDescription(ColumnDescription{Name: "d", DataType: SQL_DECIMAL, Size: 10, DecimalDigits: 0}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeInteger, d.TypeCode)

	d, err = MakeDescription(ColumnDescription{Name: "d", DataType: SQL_DECIMAL, Size: 10, DecimalDigits: 2}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeFloatingPoint, d.TypeCode)
}

func TestMakeDecimalDescription_LargeFallsBackToString(t *testing.T) {
	cfg := NewConfig()
	d, err := MakeDescription(ColumnDescription{Name: "d", DataType: SQL_NUMERIC, Size: 38, DecimalDigits: 10}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeNarrowString, d.TypeCode)
	assert.Equal(t, 40, d.MaxChars)
}

func TestMakeDecimalDescription_LargeAs64Bit(t *testing.T) {
	cfg := NewConfig(WithLargeDecimalsAs64BitTypes(true))
	d, err := MakeDescription(ColumnDescription{Name: "d", DataType: SQL_NUMERIC, Size: 38, DecimalDigits: 10}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeFloatingPoint, d.TypeCode)
}

func TestDescriptionForValue(t *testing.T) {
	cfg := NewConfig()

	d, err := DescriptionForValue(int64(5), cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeInteger, d.TypeCode)

	d, err = DescriptionForValue(3.14, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeFloatingPoint, d.TypeCode)

	d, err = DescriptionForValue(true, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeBoolean, d.TypeCode)

	d, err = DescriptionForValue("hello", cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeNarrowString, d.TypeCode)

	d, err = DescriptionForValue(WideString("hello"), cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeWideString, d.TypeCode)

	_, err = DescriptionForValue(struct{}{}, cfg)
	assert.Error(t, err)
}

func TestDefaultParameterDescription(t *testing.T) {
	cfg := NewConfig()
	d := defaultParameterDescription(cfg)
	assert.Equal(t, TypeNarrowString, d.TypeCode)

	cfg = NewConfig(WithPreferUnicode(true))
	d = defaultParameterDescription(cfg)
	assert.Equal(t, TypeWideString, d.TypeCode)
}

func TestColumnDescription_AllowsNull(t *testing.T) {
	assert.True(t, ColumnDescription{Nullable: SQL_NULLABLE}.AllowsNull())
	assert.True(t, ColumnDescription{Nullable: SQL_NULLABLE_UNKNOWN}.AllowsNull())
	assert.False(t, ColumnDescription{Nullable: SQL_NO_NULLS}.AllowsNull())
}
