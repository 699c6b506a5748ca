package turbodbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMultiValueBuffer_Rejects(t *testing.T) {
	_, err := NewMultiValueBuffer(0, 4)
	assert.Error(t, err)

	_, err = NewMultiValueBuffer(8, 0)
	assert.Error(t, err)
}

func TestMultiValueBuffer_ElementAliasesStorage(t *testing.T) {
	buf, err := NewMultiValueBuffer(8, 4)
	require.NoError(t, err)

	payload, indicator := buf.Element(1)
	payload[0] = 0x42
	*indicator = 8

	assert.Equal(t, byte(0x42), buf.Data()[8])
	assert.Equal(t, int64(8), buf.Indicators()[1])
}

func TestMultiValueBuffer_MoveToTop(t *testing.T) {
	buf, err := NewMultiValueBuffer(4, 3)
	require.NoError(t, err)

	payload, indicator := buf.Element(2)
	copy(payload, []byte{1, 2, 3, 4})
	*indicator = 4

	buf.MoveToTop(2)

	top, topInd := buf.Element(0)
	assert.Equal(t, []byte{1, 2, 3, 4}, top)
	assert.Equal(t, int64(4), *topInd)
}

func TestMultiValueBuffer_MoveToTopNoop(t *testing.T) {
	buf, err := NewMultiValueBuffer(4, 3)
	require.NoError(t, err)
	payload, _ := buf.Element(0)
	copy(payload, []byte{9, 9, 9, 9})

	buf.MoveToTop(0)

	top, _ := buf.Element(0)
	assert.Equal(t, []byte{9, 9, 9, 9}, top)
}

func TestMultiValueBuffer_NullRoundTrip(t *testing.T) {
	buf, err := NewMultiValueBuffer(8, 2)
	require.NoError(t, err)

	assert.False(t, buf.IsNull(0))
	buf.SetNull(0)
	assert.True(t, buf.IsNull(0))
	assert.False(t, buf.IsNull(1))
}
