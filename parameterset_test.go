package turbodbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpaceConsumption(t *testing.T) {
	assert.Equal(t, 6, spaceConsumption(TypeNarrowString, 5))
	assert.Equal(t, 12, spaceConsumption(TypeWideString, 5))
	assert.Equal(t, 8, spaceConsumption(TypeInteger, 8))
}

func newTestParameter(t *testing.T, desc Description, rows int) *Parameter {
	t.Helper()
	buf, err := NewMultiValueBuffer(desc.ElementSize, rows)
	require.NoError(t, err)
	return &Parameter{column: 1, desc: desc, buf: buf}
}

func TestParameter_IsSuitableFor(t *testing.T) {
	p := newTestParameter(t, narrowStringDescription(10, NewConfig()), 4)

	assert.True(t, p.IsSuitableFor(TypeNarrowString, 9))
	assert.False(t, p.IsSuitableFor(TypeNarrowString, 10))
	assert.False(t, p.IsSuitableFor(TypeWideString, 4))
}

func TestParameter_MoveToTop(t *testing.T) {
	p := newTestParameter(t, fixedDescription(TypeInteger), 3)
	payload, indicator := p.Buffer().Element(2)
	payload[0] = 0xAB
	*indicator = 8

	p.MoveToTop(2)

	top, topInd := p.Buffer().Element(0)
	assert.Equal(t, byte(0xAB), top[0])
	assert.Equal(t, int64(8), *topInd)
}

func TestValueShape(t *testing.T) {
	cfg := NewConfig()

	code, size, err := valueShape("hello", cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeNarrowString, code)
	assert.Equal(t, 5, size)

	code, size, err = valueShape(int64(1), cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeInteger, code)
	assert.Equal(t, 8, size)

	code, size, err = valueShape(WideString("hi"), cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeWideString, code)
	assert.Equal(t, 2, size)
}
