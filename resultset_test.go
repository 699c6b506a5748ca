package turbodbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineRowsToBuffer(t *testing.T) {
	descs := []Description{
		{ElementSize: 8},
		{ElementSize: 8},
		{ElementSize: 16},
	}
	rows := determineRowsToBuffer(descs, RowsRequest(100))
	assert.Equal(t, 100, rows)

	rows = determineRowsToBuffer(descs, MegabytesRequest(1))
	assert.Equal(t, (1<<20)/32, rows)
}

func TestResultColumn_Info(t *testing.T) {
	desc := fixedDescription(TypeInteger)
	desc.Name = "id"
	desc.Nullable = true

	buf, err := NewMultiValueBuffer(desc.ElementSize, 1)
	require.NoError(t, err)
	col := &ResultColumn{column: 1, desc: desc, buf: buf}

	info := col.Info()
	assert.Equal(t, "id", info.Name)
	assert.Equal(t, TypeInteger, info.TypeCode)
	assert.Equal(t, 8, info.ElementSize)
	assert.True(t, info.Nullable)
}

func TestResultColumn_BufferAndDescriptionAccessors(t *testing.T) {
	desc := fixedDescription(TypeFloatingPoint)
	buf, err := NewMultiValueBuffer(desc.ElementSize, 2)
	require.NoError(t, err)
	col := &ResultColumn{column: 2, desc: desc, buf: buf}

	assert.Same(t, buf, col.Buffer())
	assert.Equal(t, desc, col.Description())
}
