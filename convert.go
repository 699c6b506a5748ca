package turbodbc

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// le64 reads an 8-byte little-endian payload as raw bits, used by both
// TranslateInteger (as int64) and TranslateFloat (via float64FromBits).
func le64(payload []byte) uint64 {
	return binary.LittleEndian.Uint64(payload)
}

func float64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}

func dateStructFromBytes(payload []byte) SQL_DATE_STRUCT {
	return *(*SQL_DATE_STRUCT)(unsafe.Pointer(&payload[0]))
}

func timestampStructFromBytes(payload []byte) SQL_TIMESTAMP_STRUCT {
	return *(*SQL_TIMESTAMP_STRUCT)(unsafe.Pointer(&payload[0]))
}

// utf16Codec is shared by every WideString conversion in the package,
// grounded in SAP/go-hdb's use of golang.org/x/text/encoding/unicode for
// UCS-2/UTF-16LE transcoding instead of a hand-rolled surrogate-pair walk.
var utf16Codec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func utf16BytesToString(b []byte) (string, bool) {
	decoded, err := utf16Codec.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

func stringToUTF16Bytes(s string) ([]byte, error) {
	return utf16Codec.NewEncoder().Bytes([]byte(s))
}

// guidToBytes lays out uuid.UUID's big-endian wire bytes into the native
// CLI's mixed-endian SQL_GUID_STRUCT representation.
func guidToBytes(id uuid.UUID) [16]byte {
	var b [16]byte
	b[0], b[1], b[2], b[3] = id[3], id[2], id[1], id[0]
	b[4], b[5] = id[5], id[4]
	b[6], b[7] = id[7], id[6]
	copy(b[8:], id[8:])
	return b
}

func bytesToGUID(b []byte) uuid.UUID {
	var id uuid.UUID
	id[0], id[1], id[2], id[3] = b[3], b[2], b[1], b[0]
	id[4], id[5] = b[5], b[4]
	id[6], id[7] = b[7], b[6]
	copy(id[8:], b[8:])
	return id
}

// writeField copies value into payload/indicator according to desc,
// mirroring turbodbc::set_field's per-type dispatch (set_field.cpp).
func writeField(value interface{}, payload []byte, indicator *int64, desc Description, cfg *Config) error {
	switch v := value.(type) {
	case bool:
		if v {
			payload[0] = 1
		} else {
			payload[0] = 0
		}
		*indicator = 1
	case int:
		return writeInt(payload, indicator, int64(v))
	case int8:
		return writeInt(payload, indicator, int64(v))
	case int16:
		return writeInt(payload, indicator, int64(v))
	case int32:
		return writeInt(payload, indicator, int64(v))
	case int64:
		return writeInt(payload, indicator, v)
	case uint:
		return writeInt(payload, indicator, int64(v))
	case uint8:
		return writeInt(payload, indicator, int64(v))
	case uint16:
		return writeInt(payload, indicator, int64(v))
	case uint32:
		return writeInt(payload, indicator, int64(v))
	case uint64:
		return writeInt(payload, indicator, int64(v))
	case float32:
		return writeFloat(payload, indicator, float64(v))
	case float64:
		return writeFloat(payload, indicator, v)
	case Timestamp:
		return writeTimestamp(payload, indicator, v)
	case time.Time:
		return writeTimestamp(payload, indicator, NewTimestamp(v, TimestampPrecisionMicroseconds))
	case uuid.UUID:
		b := guidToBytes(v)
		copy(payload, b[:])
		*indicator = int64(len(b))
	case WideString:
		return writeWideString(payload, indicator, string(v))
	case string:
		if desc.TypeCode == TypeWideString {
			return writeWideString(payload, indicator, v)
		}
		return writeNarrowString(payload, indicator, v)
	default:
		return newInvalidArgumentError("set_field: unsupported Go value type %T", value)
	}
	return nil
}

func writeInt(payload []byte, indicator *int64, v int64) error {
	binary.LittleEndian.PutUint64(payload, uint64(v))
	*indicator = 8
	return nil
}

func writeFloat(payload []byte, indicator *int64, v float64) error {
	binary.LittleEndian.PutUint64(payload, math.Float64bits(v))
	*indicator = 8
	return nil
}

// writeTimestamp scales Go's nanosecond Time.Nanosecond() down to the
// requested precision, then up to the SQL_TIMESTAMP_STRUCT.Fraction field's
// nanosecond-scaled microsecond convention (×1000), per §6.
func writeTimestamp(payload []byte, indicator *int64, ts Timestamp) error {
	micros := truncateToPrecision(ts.Time.Nanosecond(), ts.Precision) / 1000
	s := SQL_TIMESTAMP_STRUCT{
		Year:     SQLSMALLINT(ts.Time.Year()),
		Month:    SQLUSMALLINT(ts.Time.Month()),
		Day:      SQLUSMALLINT(ts.Time.Day()),
		Hour:     SQLUSMALLINT(ts.Time.Hour()),
		Minute:   SQLUSMALLINT(ts.Time.Minute()),
		Second:   SQLUSMALLINT(ts.Time.Second()),
		Fraction: SQLUINTEGER(micros * 1000),
	}
	*(*SQL_TIMESTAMP_STRUCT)(unsafe.Pointer(&payload[0])) = s
	*indicator = int64(unsafe.Sizeof(s))
	return nil
}

func truncateToPrecision(nanos int, precision TimestampPrecision) int {
	switch precision {
	case TimestampPrecisionSeconds:
		return 0
	case TimestampPrecisionMilliseconds:
		return (nanos / 1_000_000) * 1_000_000
	case TimestampPrecisionNanoseconds:
		return nanos
	default:
		return (nanos / 1_000) * 1_000
	}
}

func writeNarrowString(payload []byte, indicator *int64, v string) error {
	n := copy(payload, v)
	if n < len(payload) {
		payload[n] = 0
	}
	*indicator = int64(n)
	return nil
}

func writeWideString(payload []byte, indicator *int64, v string) error {
	encoded, err := stringToUTF16Bytes(v)
	if err != nil {
		return newInvalidArgumentError("set_field: %v", err)
	}
	n := copy(payload, encoded)
	if n+1 < len(payload) {
		payload[n], payload[n+1] = 0, 0
	}
	*indicator = int64(n)
	return nil
}

// ParseGUID parses a GUID/UUID string via google/uuid, kept for callers that
// previously used the teacher's hand-rolled parser.
func ParseGUID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid GUID %q: %w", s, err)
	}
	return id, nil
}

// GUIDFromBytes reads a native SQL_GUID_STRUCT payload into a uuid.UUID.
func GUIDFromBytes(payload []byte) uuid.UUID {
	return bytesToGUID(payload)
}
