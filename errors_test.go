package turbodbc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_KindAndMessage(t *testing.T) {
	err := newInvalidArgumentError("bad value %d", 5)
	assert.Equal(t, KindInvalidArgument, err.Kind())
	assert.Contains(t, err.Error(), "bad value 5")
	assert.Nil(t, err.Record())
}

func TestError_DriverErrorFormatting(t *testing.T) {
	err := NewDriverError(DiagnosticRecord{SQLState: "08001", NativeErrorCode: 17, Message: "connection refused"})
	assert.Equal(t, KindDriverError, err.Kind())
	assert.Contains(t, err.Error(), "state: 08001")
	assert.Contains(t, err.Error(), "native error code: 17")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_TransportErrorHasNoRecord(t *testing.T) {
	err := NewTransportError("socket closed")
	assert.Nil(t, err.Record())
	assert.Contains(t, err.Error(), "socket closed")
}

func TestError_IsComparesOnlyKind(t *testing.T) {
	err := newLogicError("oops")
	assert.True(t, errors.Is(err, ErrLogicError))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
}

func TestIsConnectionError(t *testing.T) {
	err := NewDriverError(DiagnosticRecord{SQLState: "08003"})
	assert.True(t, IsConnectionError(err))

	err = NewDriverError(DiagnosticRecord{SQLState: "42000"})
	assert.False(t, IsConnectionError(err))

	assert.False(t, IsConnectionError(errors.New("plain error")))
}

func TestIsDataTruncation(t *testing.T) {
	err := NewDriverError(DiagnosticRecord{SQLState: SQLStateDataTruncation})
	assert.True(t, IsDataTruncation(err))

	err = NewDriverError(DiagnosticRecord{SQLState: "42000"})
	assert.False(t, IsDataTruncation(err))
}

func TestFormatReturnCode(t *testing.T) {
	assert.Equal(t, "SQL_SUCCESS", FormatReturnCode(SQL_SUCCESS))
	assert.Equal(t, "SQL_NO_DATA", FormatReturnCode(SQL_NO_DATA))
	assert.Contains(t, FormatReturnCode(SQLRETURN(77)), "77")
}
