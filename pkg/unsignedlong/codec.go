// Package unsignedlong stores unsigned 64-bit integers in a signed 64-bit
// index representation.
//
// Flipping the sign bit maps [0, 2^64-1] onto [MinInt64, MaxInt64] while
// preserving order, so range queries and sorting on the encoded values behave
// exactly like they would on the unsigned ones.
package unsignedlong

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const signBit = uint64(1) << 63

// ErrMalformed matches every error returned for a value that is not a valid
// unsigned long.
var ErrMalformed = errors.New("malformed unsigned long")

// MalformedError describes why a value was rejected.
type MalformedError struct {
	msg string
}

func (e *MalformedError) Error() string { return e.msg }

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

func malformed(format string, args ...any) error {
	return &MalformedError{msg: fmt.Sprintf(format, args...)}
}

// Encode maps v to its order-preserving signed representation.
func Encode(v uint64) int64 {
	return int64(v ^ signBit)
}

// Decode reverses Encode.
func Decode(v int64) uint64 {
	return uint64(v) ^ signBit
}

var maxUnsigned = new(big.Int).SetUint64(math.MaxUint64)

// Parse converts a document value to an unsigned long. Integral values in
// any numeric or textual form are accepted, including decimals whose
// fractional part is zero ("100.", ".00", 100.0).
func Parse(value any) (uint64, error) {
	switch v := value.(type) {
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case int:
		return fromSigned(int64(v))
	case int64:
		return fromSigned(v)
	case int32:
		return fromSigned(int64(v))
	case int16:
		return fromSigned(int64(v))
	case int8:
		return fromSigned(int64(v))
	case float64:
		return fromFloat(v, strconv.FormatFloat(v, 'f', -1, 64))
	case float32:
		return fromFloat(float64(v), strconv.FormatFloat(float64(v), 'f', -1, 32))
	case *big.Int:
		if v == nil {
			return 0, malformed("For input string: \"null\"")
		}
		return fromBig(v, v.String())
	case json.Number:
		return parseString(string(v))
	case string:
		return parseString(v)
	case bool:
		return 0, malformed("For input string: \"%t\"", v)
	default:
		return 0, malformed("For input string: \"%v\"", v)
	}
}

func fromSigned(v int64) (uint64, error) {
	if v < 0 {
		return 0, outOfRange(strconv.FormatInt(v, 10))
	}
	return uint64(v), nil
}

func fromFloat(f float64, text string) (uint64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, malformed("For input string: \"%s\"", text)
	}
	if f != math.Trunc(f) {
		return 0, decimalPart(text)
	}
	// float64 cannot represent 2^64-1; anything at or above 2^64 is out of range.
	if f < 0 || f >= math.Exp2(64) {
		return 0, outOfRange(text)
	}
	return uint64(f), nil
}

func fromBig(v *big.Int, text string) (uint64, error) {
	if v.Sign() < 0 || v.Cmp(maxUnsigned) > 0 {
		return 0, outOfRange(text)
	}
	return v.Uint64(), nil
}

func parseString(s string) (uint64, error) {
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u, nil
	}

	// big.Rat also accepts fractions like "1/3" and base prefixes; only plain
	// decimal notation is valid here.
	if s == "" || strings.ContainsAny(s, "/xXoObB_") {
		return 0, malformed("For input string: \"%s\"", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, malformed("For input string: \"%s\"", s)
	}
	if !r.IsInt() {
		return 0, decimalPart(s)
	}
	return fromBig(r.Num(), s)
}

func decimalPart(text string) error {
	return malformed("Value \"%s\" has a decimal part", text)
}

func outOfRange(text string) error {
	return malformed("Value [%s] is out of range for unsigned long", text)
}

// Format renders v the way it is kept in stored fields.
func Format(v uint64) string {
	return strconv.FormatUint(v, 10)
}
