package turbodbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestColumn(t *testing.T, desc Description, rows int) *ResultColumn {
	t.Helper()
	buf, err := NewMultiValueBuffer(desc.ElementSize, rows)
	require.NoError(t, err)
	return &ResultColumn{column: 1, desc: desc, buf: buf}
}

func TestTranslateColumn_Null(t *testing.T) {
	cfg := NewConfig()
	col := newTestColumn(t, fixedDescription(TypeInteger), 1)
	col.Buffer().SetNull(0)

	v, err := TranslateColumn(newDefaultTranslator(cfg), col, 0)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTranslateColumn_Integer(t *testing.T) {
	cfg := NewConfig()
	col := newTestColumn(t, fixedDescription(TypeInteger), 1)
	payload, indicator := col.Buffer().Element(0)
	require.NoError(t, writeField(int64(7), payload, indicator, col.Description(), cfg))

	v, err := TranslateColumn(newDefaultTranslator(cfg), col, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestTranslateColumn_NarrowString(t *testing.T) {
	cfg := NewConfig()
	desc := narrowStringDescription(8, cfg)
	col := newTestColumn(t, desc, 1)
	payload, indicator := col.Buffer().Element(0)
	require.NoError(t, writeField("go", payload, indicator, desc, cfg))

	v, err := TranslateColumn(newDefaultTranslator(cfg), col, 0)
	require.NoError(t, err)
	assert.Equal(t, "go", v)
}

func TestTranslateColumn_WideString(t *testing.T) {
	cfg := NewConfig()
	desc := wideStringDescription(8, cfg)
	col := newTestColumn(t, desc, 1)
	payload, indicator := col.Buffer().Element(0)
	require.NoError(t, writeField(WideString("go"), payload, indicator, desc, cfg))

	v, err := TranslateColumn(newDefaultTranslator(cfg), col, 0)
	require.NoError(t, err)
	assert.Equal(t, "go", v)
}

func TestTranslateColumn_Boolean(t *testing.T) {
	cfg := NewConfig()
	desc := fixedDescription(TypeBoolean)
	col := newTestColumn(t, desc, 1)
	payload, indicator := col.Buffer().Element(0)
	require.NoError(t, writeField(true, payload, indicator, desc, cfg))

	v, err := TranslateColumn(newDefaultTranslator(cfg), col, 0)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestCStringLen(t *testing.T) {
	assert.Equal(t, 3, cStringLen([]byte{'a', 'b', 'c', 0, 0}))
	assert.Equal(t, 5, cStringLen([]byte{'a', 'b', 'c', 'd', 'e'}))
}
