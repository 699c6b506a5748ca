package turbodbc

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	odbcLib  uintptr
	initOnce sync.Once
	initErr  error
)

// Native CLI function pointers, populated by purego against the dynamically
// loaded driver manager. Unexported: the rest of the package reaches them
// only through the wrapper functions below.
var (
	sqlAllocHandle        func(handleType SQLSMALLINT, inputHandle SQLHANDLE, outputHandle *SQLHANDLE) SQLRETURN
	sqlFreeHandle         func(handleType SQLSMALLINT, handle SQLHANDLE) SQLRETURN
	sqlSetEnvAttr         func(env SQLHENV, attribute SQLINTEGER, value uintptr, stringLength SQLINTEGER) SQLRETURN
	sqlDriverConnect      func(dbc SQLHDBC, hwnd uintptr, inConnStr *byte, inConnStrLen SQLSMALLINT, outConnStr *byte, outConnStrMax SQLSMALLINT, outConnStrLen *SQLSMALLINT, driverCompletion SQLUSMALLINT) SQLRETURN
	sqlDisconnect         func(dbc SQLHDBC) SQLRETURN
	sqlSetConnectAttr     func(dbc SQLHDBC, attribute SQLINTEGER, value uintptr, stringLength SQLINTEGER) SQLRETURN
	sqlGetConnectAttr     func(dbc SQLHDBC, attribute SQLINTEGER, value uintptr, bufferLength SQLINTEGER, stringLength *SQLINTEGER) SQLRETURN
	sqlGetInfo            func(dbc SQLHDBC, infoType SQLUSMALLINT, infoValue uintptr, bufferLength SQLSMALLINT, stringLength *SQLSMALLINT) SQLRETURN
	sqlExecDirect         func(stmt SQLHSTMT, stmtText *byte, textLength SQLINTEGER) SQLRETURN
	sqlPrepare            func(stmt SQLHSTMT, stmtText *byte, textLength SQLINTEGER) SQLRETURN
	sqlExecute            func(stmt SQLHSTMT) SQLRETURN
	sqlNumResultCols      func(stmt SQLHSTMT, columnCount *SQLSMALLINT) SQLRETURN
	sqlDescribeCol        func(stmt SQLHSTMT, colNum SQLUSMALLINT, colName *byte, bufferLen SQLSMALLINT, nameLen *SQLSMALLINT, dataType *SQLSMALLINT, colSize *SQLULEN, decDigits *SQLSMALLINT, nullable *SQLSMALLINT) SQLRETURN
	sqlColAttribute       func(stmt SQLHSTMT, colNum SQLUSMALLINT, fieldId SQLUSMALLINT, charAttr uintptr, bufferLen SQLSMALLINT, strLen *SQLSMALLINT, numAttr *SQLLEN) SQLRETURN
	sqlBindCol            func(stmt SQLHSTMT, colNum SQLUSMALLINT, targetType SQLSMALLINT, targetValue uintptr, bufferLen SQLLEN, strLenOrInd *SQLLEN) SQLRETURN
	sqlBindParameter      func(stmt SQLHSTMT, paramNum SQLUSMALLINT, ioType SQLSMALLINT, valueType SQLSMALLINT, paramType SQLSMALLINT, colSize SQLULEN, decDigits SQLSMALLINT, paramValue uintptr, bufferLen SQLLEN, strLenOrInd *SQLLEN) SQLRETURN
	sqlFetch              func(stmt SQLHSTMT) SQLRETURN
	sqlRowCount           func(stmt SQLHSTMT, rowCount *SQLLEN) SQLRETURN
	sqlNumParams          func(stmt SQLHSTMT, paramCount *SQLSMALLINT) SQLRETURN
	sqlDescribeParam      func(stmt SQLHSTMT, paramNum SQLUSMALLINT, dataType *SQLSMALLINT, paramSize *SQLULEN, decDigits *SQLSMALLINT, nullable *SQLSMALLINT) SQLRETURN
	sqlGetDiagRec         func(handleType SQLSMALLINT, handle SQLHANDLE, recNum SQLSMALLINT, sqlState *byte, nativeError *SQLINTEGER, msgText *byte, bufferLen SQLSMALLINT, textLen *SQLSMALLINT) SQLRETURN
	sqlEndTran            func(handleType SQLSMALLINT, handle SQLHANDLE, completionType SQLSMALLINT) SQLRETURN
	sqlCloseCursor        func(stmt SQLHSTMT) SQLRETURN
	sqlFreeStmt           func(stmt SQLHSTMT, option SQLUSMALLINT) SQLRETURN
	sqlSetStmtAttr        func(stmt SQLHSTMT, attribute SQLINTEGER, value uintptr, stringLength SQLINTEGER) SQLRETURN
	sqlGetFunctions       func(dbc SQLHDBC, functionId SQLUSMALLINT, supported *SQLUSMALLINT) SQLRETURN
	sqlPrepareW           func(stmt SQLHSTMT, stmtText *byte, textLength SQLINTEGER) SQLRETURN
	sqlDescribeColW       func(stmt SQLHSTMT, colNum SQLUSMALLINT, colName *byte, bufferLen SQLSMALLINT, nameLen *SQLSMALLINT, dataType *SQLSMALLINT, colSize *SQLULEN, decDigits *SQLSMALLINT, nullable *SQLSMALLINT) SQLRETURN
)

// getLibraryPath returns the platform-specific native CLI driver manager
// path. TURBODBC_LIBRARY_PATH overrides the default when set.
func getLibraryPath() string {
	if path := os.Getenv("TURBODBC_LIBRARY_PATH"); path != "" {
		return path
	}
	switch runtime.GOOS {
	case "windows":
		return "odbc32.dll"
	case "darwin":
		paths := []string{
			"/opt/homebrew/lib/libodbc.2.dylib",
			"/usr/local/lib/libodbc.2.dylib",
			"/opt/homebrew/lib/libodbc.dylib",
			"/usr/local/lib/libodbc.dylib",
		}
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		return "libodbc.2.dylib"
	default:
		return "libodbc.so.2"
	}
}

// initAPI loads the driver manager and resolves every function pointer
// exactly once per process. If loading fails, TURBODBC_LIBRARY_PATH can
// point at a custom location.
func initAPI() error {
	initOnce.Do(func() {
		libPath := getLibraryPath()

		odbcLib, initErr = loadODBCLibrary(libPath)
		if initErr != nil {
			initErr = fmt.Errorf("turbodbc: failed to load native CLI library %q: %w (set TURBODBC_LIBRARY_PATH to override)", libPath, initErr)
			return
		}

		purego.RegisterLibFunc(&sqlAllocHandle, odbcLib, "SQLAllocHandle")
		purego.RegisterLibFunc(&sqlFreeHandle, odbcLib, "SQLFreeHandle")
		purego.RegisterLibFunc(&sqlSetEnvAttr, odbcLib, "SQLSetEnvAttr")

		if runtime.GOOS == "windows" {
			purego.RegisterLibFunc(&sqlDriverConnect, odbcLib, "SQLDriverConnectA")
			purego.RegisterLibFunc(&sqlGetInfo, odbcLib, "SQLGetInfoA")
			purego.RegisterLibFunc(&sqlExecDirect, odbcLib, "SQLExecDirectA")
			purego.RegisterLibFunc(&sqlPrepare, odbcLib, "SQLPrepareA")
			purego.RegisterLibFunc(&sqlDescribeCol, odbcLib, "SQLDescribeColA")
			purego.RegisterLibFunc(&sqlColAttribute, odbcLib, "SQLColAttributeA")
			purego.RegisterLibFunc(&sqlGetDiagRec, odbcLib, "SQLGetDiagRecA")
		} else {
			purego.RegisterLibFunc(&sqlDriverConnect, odbcLib, "SQLDriverConnect")
			purego.RegisterLibFunc(&sqlGetInfo, odbcLib, "SQLGetInfo")
			purego.RegisterLibFunc(&sqlExecDirect, odbcLib, "SQLExecDirect")
			purego.RegisterLibFunc(&sqlPrepare, odbcLib, "SQLPrepare")
			purego.RegisterLibFunc(&sqlDescribeCol, odbcLib, "SQLDescribeCol")
			purego.RegisterLibFunc(&sqlColAttribute, odbcLib, "SQLColAttribute")
			purego.RegisterLibFunc(&sqlGetDiagRec, odbcLib, "SQLGetDiagRec")
		}

		purego.RegisterLibFunc(&sqlDisconnect, odbcLib, "SQLDisconnect")
		purego.RegisterLibFunc(&sqlSetConnectAttr, odbcLib, "SQLSetConnectAttr")
		purego.RegisterLibFunc(&sqlGetConnectAttr, odbcLib, "SQLGetConnectAttr")
		purego.RegisterLibFunc(&sqlExecute, odbcLib, "SQLExecute")
		purego.RegisterLibFunc(&sqlNumResultCols, odbcLib, "SQLNumResultCols")
		purego.RegisterLibFunc(&sqlBindCol, odbcLib, "SQLBindCol")
		purego.RegisterLibFunc(&sqlBindParameter, odbcLib, "SQLBindParameter")
		purego.RegisterLibFunc(&sqlFetch, odbcLib, "SQLFetch")
		purego.RegisterLibFunc(&sqlRowCount, odbcLib, "SQLRowCount")
		purego.RegisterLibFunc(&sqlNumParams, odbcLib, "SQLNumParams")
		purego.RegisterLibFunc(&sqlDescribeParam, odbcLib, "SQLDescribeParam")
		purego.RegisterLibFunc(&sqlEndTran, odbcLib, "SQLEndTran")
		purego.RegisterLibFunc(&sqlCloseCursor, odbcLib, "SQLCloseCursor")
		purego.RegisterLibFunc(&sqlFreeStmt, odbcLib, "SQLFreeStmt")
		purego.RegisterLibFunc(&sqlSetStmtAttr, odbcLib, "SQLSetStmtAttr")
		purego.RegisterLibFunc(&sqlGetFunctions, odbcLib, "SQLGetFunctions")

		// Wide-character entry points: SQLWCHAR is a 16-bit code unit on both
		// unixODBC and Windows driver managers, so one registration serves
		// both platforms (no "W"-vs-no-suffix split like the narrow calls above).
		purego.RegisterLibFunc(&sqlPrepareW, odbcLib, "SQLPrepareW")
		purego.RegisterLibFunc(&sqlDescribeColW, odbcLib, "SQLDescribeColW")
	})
	return initErr
}

// api wraps the raw function pointers above into a Go-shaped surface:
// pointer arithmetic and NUL-termination stay here, nowhere else in the
// package. handle.go is the main caller; conn.go, parameterset.go and
// resultset.go also call it directly.
type api struct{}

func newAPI() (*api, error) {
	if err := initAPI(); err != nil {
		return nil, err
	}
	return &api{}, nil
}

func (api) AllocHandle(handleType SQLSMALLINT, input SQLHANDLE) (SQLHANDLE, SQLRETURN) {
	var out SQLHANDLE
	ret := sqlAllocHandle(handleType, input, &out)
	return out, ret
}

func (api) FreeHandle(handleType SQLSMALLINT, handle SQLHANDLE) SQLRETURN {
	return sqlFreeHandle(handleType, handle)
}

func (api) SetEnvAttr(env SQLHENV, attribute SQLINTEGER, value uintptr) SQLRETURN {
	return sqlSetEnvAttr(env, attribute, value, 0)
}

func (api) DriverConnect(dbc SQLHDBC, connStr string) (outConnStr string, ret SQLRETURN) {
	in := append([]byte(connStr), 0)
	out := make([]byte, 1024)
	var outLen SQLSMALLINT
	ret = sqlDriverConnect(dbc, 0, &in[0], SQLSMALLINT(SQL_NTS), &out[0], SQLSMALLINT(len(out)), &outLen, SQL_DRIVER_NOPROMPT)
	if IsSuccess(ret) {
		outConnStr = string(out[:outLen])
	}
	return
}

func (api) Disconnect(dbc SQLHDBC) SQLRETURN {
	return sqlDisconnect(dbc)
}

func (api) SetConnectAttr(dbc SQLHDBC, attribute SQLINTEGER, value uintptr) SQLRETURN {
	return sqlSetConnectAttr(dbc, attribute, value, 0)
}

func (api) GetConnectAttr(dbc SQLHDBC, attribute SQLINTEGER) (uintptr, SQLRETURN) {
	var value SQLULEN
	ret := sqlGetConnectAttr(dbc, attribute, uintptr(unsafe.Pointer(&value)), SQLINTEGER(unsafe.Sizeof(value)), nil)
	return uintptr(value), ret
}

// GetFunctions reports whether the driver implements the native CLI
// function identified by functionId, backing Connection.SupportsFunction.
func (api) GetFunctions(dbc SQLHDBC, functionId SQLUSMALLINT) (bool, SQLRETURN) {
	var supported SQLUSMALLINT
	ret := sqlGetFunctions(dbc, functionId, &supported)
	return supported != 0, ret
}

func (api) GetStringInfo(dbc SQLHDBC, infoType SQLUSMALLINT) (string, SQLRETURN) {
	buf := make([]byte, 256)
	var strLen SQLSMALLINT
	ret := sqlGetInfo(dbc, infoType, uintptr(unsafe.Pointer(&buf[0])), SQLSMALLINT(len(buf)), &strLen)
	if !IsSuccess(ret) {
		return "", ret
	}
	return string(buf[:strLen]), ret
}

func (api) GetIntegerInfo(dbc SQLHDBC, infoType SQLUSMALLINT) (uint32, SQLRETURN) {
	var value uint32
	ret := sqlGetInfo(dbc, infoType, uintptr(unsafe.Pointer(&value)), 0, nil)
	return value, ret
}

func (api) ExecDirect(stmt SQLHSTMT, query string) SQLRETURN {
	b := append([]byte(query), 0)
	return sqlExecDirect(stmt, &b[0], SQLINTEGER(SQL_NTS))
}

func (api) Prepare(stmt SQLHSTMT, query string) SQLRETURN {
	b := append([]byte(query), 0)
	return sqlPrepare(stmt, &b[0], SQLINTEGER(SQL_NTS))
}

// PrepareWide prepares query through the wide-character entry point, for
// drivers that need UTF-16 SQL text under prefer_unicode.
func (api) PrepareWide(stmt SQLHSTMT, query string) SQLRETURN {
	b, err := stringToUTF16Bytes(query)
	if err != nil {
		return SQL_ERROR
	}
	b = append(b, 0, 0)
	return sqlPrepareW(stmt, &b[0], SQLINTEGER(SQL_NTS))
}

func (api) Execute(stmt SQLHSTMT) SQLRETURN {
	return sqlExecute(stmt)
}

func (api) NumResultCols(stmt SQLHSTMT) (int, SQLRETURN) {
	var n SQLSMALLINT
	ret := sqlNumResultCols(stmt, &n)
	return int(n), ret
}

func (api) DescribeCol(stmt SQLHSTMT, col int) (ColumnDescription, SQLRETURN) {
	nameBuf := make([]byte, 256)
	var nameLen, dataType, decDigits, nullable SQLSMALLINT
	var colSize SQLULEN
	ret := sqlDescribeCol(stmt, SQLUSMALLINT(col), &nameBuf[0], SQLSMALLINT(len(nameBuf)), &nameLen, &dataType, &colSize, &decDigits, &nullable)
	return ColumnDescription{
		Name:          string(nameBuf[:nameLen]),
		DataType:      dataType,
		Size:          colSize,
		DecimalDigits: decDigits,
		Nullable:      nullable,
	}, ret
}

// DescribeColWide returns the native description of result column index
// (1-based) via the wide-character describe entry point; nameLen is
// reported in wide characters, so the backing buffer read is doubled to
// bytes before decoding.
func (api) DescribeColWide(stmt SQLHSTMT, col int) (ColumnDescription, SQLRETURN) {
	nameBuf := make([]byte, 512)
	var nameLen, dataType, decDigits, nullable SQLSMALLINT
	var colSize SQLULEN
	ret := sqlDescribeColW(stmt, SQLUSMALLINT(col), &nameBuf[0], SQLSMALLINT(len(nameBuf)), &nameLen, &dataType, &colSize, &decDigits, &nullable)
	byteLen := int(nameLen) * 2
	if byteLen > len(nameBuf) {
		byteLen = len(nameBuf)
	}
	name, _ := utf16BytesToString(nameBuf[:byteLen])
	return ColumnDescription{
		Name:          name,
		DataType:      dataType,
		Size:          colSize,
		DecimalDigits: decDigits,
		Nullable:      nullable,
	}, ret
}

// ColumnAttributeNumeric returns a numeric field attribute (e.g.
// SQL_DESC_LENGTH/PRECISION/SCALE) for result column index (1-based),
// consumed separately from describe_column (§6).
func (api) ColumnAttributeNumeric(stmt SQLHSTMT, col int, fieldId SQLUSMALLINT) (int64, SQLRETURN) {
	var numAttr SQLLEN
	ret := sqlColAttribute(stmt, SQLUSMALLINT(col), fieldId, 0, 0, nil, &numAttr)
	return int64(numAttr), ret
}

func (api) BindCol(stmt SQLHSTMT, col int, cType SQLSMALLINT, buf *MultiValueBuffer) SQLRETURN {
	var dataPtr uintptr
	if len(buf.Data()) > 0 {
		dataPtr = uintptr(unsafe.Pointer(&buf.Data()[0]))
	}
	return sqlBindCol(stmt, SQLUSMALLINT(col), cType, dataPtr, SQLLEN(buf.ElementSize()), (*SQLLEN)(unsafe.Pointer(&buf.Indicators()[0])))
}

func (api) BindParameter(stmt SQLHSTMT, col int, d Description, buf *MultiValueBuffer) SQLRETURN {
	var dataPtr uintptr
	if len(buf.Data()) > 0 {
		dataPtr = uintptr(unsafe.Pointer(&buf.Data()[0]))
	}
	return sqlBindParameter(stmt, SQLUSMALLINT(col), SQL_PARAM_INPUT, d.CType, d.SQLType,
		SQLULEN(d.MaxChars), d.DecimalDigits, dataPtr, SQLLEN(buf.ElementSize()),
		(*SQLLEN)(unsafe.Pointer(&buf.Indicators()[0])))
}

func (api) Fetch(stmt SQLHSTMT) SQLRETURN {
	return sqlFetch(stmt)
}

func (api) RowCount(stmt SQLHSTMT) (int64, SQLRETURN) {
	var n SQLLEN
	ret := sqlRowCount(stmt, &n)
	return int64(n), ret
}

func (api) NumParams(stmt SQLHSTMT) (int, SQLRETURN) {
	var n SQLSMALLINT
	ret := sqlNumParams(stmt, &n)
	return int(n), ret
}

func (api) DescribeParam(stmt SQLHSTMT, param int) (ColumnDescription, SQLRETURN) {
	var dataType, decDigits, nullable SQLSMALLINT
	var size SQLULEN
	ret := sqlDescribeParam(stmt, SQLUSMALLINT(param), &dataType, &size, &decDigits, &nullable)
	return ColumnDescription{DataType: dataType, Size: size, DecimalDigits: decDigits, Nullable: nullable}, ret
}

func (api) GetDiagRec(handleType SQLSMALLINT, handle SQLHANDLE, recNum int) (DiagnosticRecord, bool) {
	state := make([]byte, 6)
	msg := make([]byte, 1024)
	var native SQLINTEGER
	var msgLen SQLSMALLINT
	ret := sqlGetDiagRec(handleType, handle, SQLSMALLINT(recNum), &state[0], &native, &msg[0], SQLSMALLINT(len(msg)), &msgLen)
	if ret == SQL_NO_DATA || !IsSuccess(ret) {
		return DiagnosticRecord{}, false
	}
	return DiagnosticRecord{
		SQLState:        stringFromNulTerminated(state),
		NativeErrorCode: int32(native),
		Message:         string(msg[:msgLen]),
	}, true
}

func (api) EndTran(handleType SQLSMALLINT, handle SQLHANDLE, completionType SQLSMALLINT) SQLRETURN {
	return sqlEndTran(handleType, handle, completionType)
}

func (api) CloseCursor(stmt SQLHSTMT) SQLRETURN {
	return sqlCloseCursor(stmt)
}

func (api) FreeStmt(stmt SQLHSTMT, option SQLUSMALLINT) SQLRETURN {
	return sqlFreeStmt(stmt, option)
}

func (api) SetStmtAttrValue(stmt SQLHSTMT, attribute SQLINTEGER, value int) SQLRETURN {
	return sqlSetStmtAttr(stmt, attribute, uintptr(value), 0)
}

func (a api) SetParamsProcessedPtr(stmt SQLHSTMT, counter *SQLULEN) error {
	ret := sqlSetStmtAttr(stmt, SQL_ATTR_PARAMS_PROCESSED_PTR, uintptr(unsafe.Pointer(counter)), 0)
	if !IsSuccess(ret) {
		return diagError(&a, SQL_HANDLE_STMT, SQLHANDLE(stmt))
	}
	return nil
}

func (a api) SetRowsFetchedPtr(stmt SQLHSTMT, counter *SQLULEN) error {
	ret := sqlSetStmtAttr(stmt, SQL_ATTR_ROWS_FETCHED_PTR, uintptr(unsafe.Pointer(counter)), 0)
	if !IsSuccess(ret) {
		return diagError(&a, SQL_HANDLE_STMT, SQLHANDLE(stmt))
	}
	return nil
}

func stringFromNulTerminated(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
