package turbodbc

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteField_Int(t *testing.T) {
	cfg := NewConfig()
	buf, err := NewMultiValueBuffer(8, 1)
	require.NoError(t, err)
	payload, indicator := buf.Element(0)

	require.NoError(t, writeField(int64(42), payload, indicator, fixedDescription(TypeInteger), cfg))
	assert.Equal(t, int64(8), *indicator)

	got, _ := newDefaultTranslator(cfg).TranslateInteger(payload)
	assert.Equal(t, int64(42), got)
}

func TestWriteField_Float(t *testing.T) {
	cfg := NewConfig()
	buf, err := NewMultiValueBuffer(8, 1)
	require.NoError(t, err)
	payload, indicator := buf.Element(0)

	require.NoError(t, writeField(3.5, payload, indicator, fixedDescription(TypeFloatingPoint), cfg))
	got, _ := newDefaultTranslator(cfg).TranslateFloat(payload)
	assert.Equal(t, 3.5, got)
}

func TestWriteField_Bool(t *testing.T) {
	cfg := NewConfig()
	buf, err := NewMultiValueBuffer(1, 1)
	require.NoError(t, err)
	payload, indicator := buf.Element(0)

	require.NoError(t, writeField(true, payload, indicator, fixedDescription(TypeBoolean), cfg))
	got, _ := newDefaultTranslator(cfg).TranslateBoolean(payload)
	assert.True(t, got)
}

func TestWriteField_NarrowString(t *testing.T) {
	cfg := NewConfig()
	desc := narrowStringDescription(10, cfg)
	buf, err := NewMultiValueBuffer(desc.ElementSize, 1)
	require.NoError(t, err)
	payload, indicator := buf.Element(0)

	require.NoError(t, writeField("hello", payload, indicator, desc, cfg))
	got, _ := newDefaultTranslator(cfg).TranslateNarrowString(payload, *indicator)
	assert.Equal(t, "hello", got)
}

func TestWriteField_WideString(t *testing.T) {
	cfg := NewConfig()
	desc := wideStringDescription(10, cfg)
	buf, err := NewMultiValueBuffer(desc.ElementSize, 1)
	require.NoError(t, err)
	payload, indicator := buf.Element(0)

	require.NoError(t, writeField(WideString("héllo"), payload, indicator, desc, cfg))
	got, ok := newDefaultTranslator(cfg).TranslateWideString(payload, *indicator)
	require.True(t, ok)
	assert.Equal(t, "héllo", got)
}

func TestWriteField_Timestamp(t *testing.T) {
	cfg := NewConfig()
	desc := fixedDescription(TypeTimestamp)
	buf, err := NewMultiValueBuffer(desc.ElementSize, 1)
	require.NoError(t, err)
	payload, indicator := buf.Element(0)

	ts := time.Date(2024, 6, 15, 14, 30, 45, 123456000, time.UTC)
	require.NoError(t, writeField(ts, payload, indicator, desc, cfg))

	got, _ := newDefaultTranslator(cfg).TranslateTimestamp(payload)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, 45, got.Second())
}

func TestWriteField_UnsupportedType(t *testing.T) {
	cfg := NewConfig()
	buf, err := NewMultiValueBuffer(8, 1)
	require.NoError(t, err)
	payload, indicator := buf.Element(0)

	err = writeField(struct{}{}, payload, indicator, fixedDescription(TypeInteger), cfg)
	assert.Error(t, err)
}

func TestGUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	b := guidToBytes(id)
	got := bytesToGUID(b[:])
	assert.Equal(t, id, got)
}

func TestParseGUID(t *testing.T) {
	id := uuid.New()
	parsed, err := ParseGUID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseGUID("not-a-guid")
	assert.Error(t, err)
}

func TestTruncateToPrecision(t *testing.T) {
	assert.Equal(t, 0, truncateToPrecision(123456789, TimestampPrecisionSeconds))
	assert.Equal(t, 123000000, truncateToPrecision(123456789, TimestampPrecisionMilliseconds))
	assert.Equal(t, 123456000, truncateToPrecision(123456789, TimestampPrecisionMicroseconds))
	assert.Equal(t, 123456789, truncateToPrecision(123456789, TimestampPrecisionNanoseconds))
}
