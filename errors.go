package turbodbc

import "fmt"

// Kind enumerates the taxonomy of errors this library raises. It carries no
// native-CLI details itself; see DiagnosticRecord for that.
type Kind int

const (
	// KindDriverError wraps a native-CLI error or an explicitly requested
	// success-with-info diagnostic.
	KindDriverError Kind = iota
	// KindUnsupportedType marks a CLI type code make_description does not
	// recognise.
	KindUnsupportedType
	// KindInvalidArgument marks a non-positive buffer dimension or a value
	// whose runtime type cannot be converted to any bound Description.
	KindInvalidArgument
	// KindLogicError marks a caller contract violation: a batch larger than
	// buffered_sets, or a row whose value count doesn't match parameter count.
	KindLogicError
	// KindInterfaceError marks user-visible misuse distinct from a driver
	// error, e.g. an operation issued against an already-finalized Statement.
	KindInterfaceError
)

func (k Kind) String() string {
	switch k {
	case KindDriverError:
		return "DriverError"
	case KindUnsupportedType:
		return "UnsupportedType"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindLogicError:
		return "LogicError"
	case KindInterfaceError:
		return "InterfaceError"
	default:
		return "UnknownError"
	}
}

// DiagnosticRecord is the native CLI's structured per-error payload,
// retrieved by SQLGetDiagRec. SQLState is the 5-char ASCII status code.
type DiagnosticRecord struct {
	SQLState        string
	NativeErrorCode int32
	Message         string
}

// Error is this library's main error type, returned by the handle, buffer,
// description, parameter-set and result-set layers. It is not the only one:
// ParameterError comes from named-parameter parsing, driver library loading
// and GUID parsing return plain wrapped errors, and the database/sql adapter
// returns driver.ErrBadConn for a closed connection or statement.
type Error struct {
	kind    Kind
	record  *DiagnosticRecord
	message string
}

// NewDriverError wraps a diagnostic record retrieved from a handle.
func NewDriverError(record DiagnosticRecord) *Error {
	return &Error{kind: KindDriverError, record: &record}
}

// NewTransportError represents a DriverError with no record: the CLI call
// that would have produced the diagnostic record failed while retrieving it.
func NewTransportError(message string) *Error {
	return &Error{kind: KindDriverError, message: message}
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func newUnsupportedTypeError(format string, args ...interface{}) *Error {
	return newError(KindUnsupportedType, format, args...)
}

func newInvalidArgumentError(format string, args ...interface{}) *Error {
	return newError(KindInvalidArgument, format, args...)
}

func newLogicError(format string, args ...interface{}) *Error {
	return newError(KindLogicError, format, args...)
}

func newInterfaceError(format string, args ...interface{}) *Error {
	return newError(KindInterfaceError, format, args...)
}

// Kind reports the error's taxonomy member.
func (e *Error) Kind() Kind { return e.kind }

// Record returns the diagnostic record, or nil for transport-level failures
// and non-driver error kinds.
func (e *Error) Record() *DiagnosticRecord { return e.record }

// Error renders a DriverError as:
//
//	ODBC error
//	state: <5 chars>
//	native error code: <signed decimal>
//	message: <utf-8 text>
//
// Non-driver kinds render as "<Kind>: <message>".
func (e *Error) Error() string {
	if e.record != nil {
		return fmt.Sprintf("ODBC error\nstate: %s\nnative error code: %d\nmessage: %s",
			e.record.SQLState, e.record.NativeErrorCode, e.record.Message)
	}
	if e.kind == KindDriverError {
		return fmt.Sprintf("ODBC error\nmessage: %s", e.message)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Unwrap always returns nil: an *Error is a leaf in the chain.
func (e *Error) Unwrap() error { return nil }

// Is lets callers write errors.Is(err, turbodbc.ErrUnsupportedType) against
// the sentinel kind values below, comparing only Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == other.kind
}

// Sentinel kind markers for errors.Is comparisons. None carry a record.
var (
	ErrDriverError     = &Error{kind: KindDriverError}
	ErrUnsupportedType = &Error{kind: KindUnsupportedType}
	ErrInvalidArgument = &Error{kind: KindInvalidArgument}
	ErrLogicError      = &Error{kind: KindLogicError}
	ErrInterfaceError  = &Error{kind: KindInterfaceError}
)

// SQLSTATE class prefixes used by IsConnectionError/IsDataTruncation below.
const (
	sqlStateClassConnection  = "08"
	SQLStateDataTruncation   = "01004"
	SQLStateGeneralError     = "HY000"
)

// IsConnectionError reports whether err is a DriverError whose SQLSTATE
// falls in the "08" connection-exception class.
func IsConnectionError(err error) bool {
	e, ok := err.(*Error)
	if !ok || e.record == nil {
		return false
	}
	return len(e.record.SQLState) >= 2 && e.record.SQLState[:2] == sqlStateClassConnection
}

// IsDataTruncation reports whether err is a DriverError carrying SQLSTATE
// 01004 (string data, right truncation).
func IsDataTruncation(err error) bool {
	e, ok := err.(*Error)
	return ok && e.record != nil && e.record.SQLState == SQLStateDataTruncation
}

// FormatReturnCode renders a raw SQLRETURN the way native CLI headers name
// it, for use in debug logging around the api shim.
func FormatReturnCode(ret SQLRETURN) string {
	switch ret {
	case SQL_SUCCESS:
		return "SQL_SUCCESS"
	case SQL_SUCCESS_WITH_INFO:
		return "SQL_SUCCESS_WITH_INFO"
	case SQL_ERROR:
		return "SQL_ERROR"
	case SQL_INVALID_HANDLE:
		return "SQL_INVALID_HANDLE"
	case SQL_NO_DATA:
		return "SQL_NO_DATA"
	case SQL_NEED_DATA:
		return "SQL_NEED_DATA"
	case SQL_STILL_EXECUTING:
		return "SQL_STILL_EXECUTING"
	default:
		return fmt.Sprintf("SQLRETURN(%d)", ret)
	}
}
