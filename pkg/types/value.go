package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"
	"unicode/utf8"
)

// Value is one attribute or relation value of an instance. It holds either
// null or a value of exactly one DataType. Values of a to-one relation are
// target instance ids stored as longs; values of a to-many relation are
// TypeRefs id lists. The zero Value is null. Values are immutable.
type Value struct {
	typ  DataType
	num  int64
	flt  float64
	str  string
	tm   time.Time
	refs []int64
}

// NullValue returns the null value.
func NullValue() Value { return Value{} }

func BoolValue(b bool) Value {
	v := Value{typ: TypeBoolean}
	if b {
		v.num = 1
	}
	return v
}

func ByteValue(b int8) Value     { return Value{typ: TypeByte, num: int64(b)} }
func CharValue(r rune) Value     { return Value{typ: TypeChar, num: int64(r)} }
func ShortValue(s int16) Value   { return Value{typ: TypeShort, num: int64(s)} }
func IntValue(i int32) Value     { return Value{typ: TypeInt, num: int64(i)} }
func LongValue(l int64) Value    { return Value{typ: TypeLong, num: l} }
func FloatValue(f float32) Value { return Value{typ: TypeFloat, flt: float64(f)} }
func DoubleValue(f float64) Value {
	return Value{typ: TypeDouble, flt: f}
}
func StringValue(s string) Value { return Value{typ: TypeString, str: s} }

// RefsValue returns the id list of a to-many relation. The ids are copied.
func RefsValue(ids ...int64) Value {
	return Value{typ: TypeRefs, refs: append([]int64{}, ids...)}
}

// DateValue returns a date value truncated to millisecond precision, the
// resolution dates are persisted with.
func DateValue(t time.Time) Value {
	return Value{typ: TypeDate, tm: time.UnixMilli(t.UnixMilli()).UTC()}
}

// Type returns the data type of v, or zero when v is null.
func (v Value) Type() DataType { return v.typ }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.typ == 0 }

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	if v.typ != TypeBoolean {
		return false, false
	}
	return v.num != 0, true
}

// Int returns the integer held by v. It succeeds for byte, short, int and
// long values only.
func (v Value) Int() (int64, bool) {
	if !v.typ.IsInteger() {
		return 0, false
	}
	return v.num, true
}

// Float returns the floating point number held by a float or double value.
func (v Value) Float() (float64, bool) {
	if v.typ != TypeFloat && v.typ != TypeDouble {
		return 0, false
	}
	return v.flt, true
}

// Char returns the character held by a char value.
func (v Value) Char() (rune, bool) {
	if v.typ != TypeChar {
		return 0, false
	}
	return rune(v.num), true
}

// Text returns the string held by a string value.
func (v Value) Text() (string, bool) {
	if v.typ != TypeString {
		return "", false
	}
	return v.str, true
}

// Time returns the time held by a date value.
func (v Value) Time() (time.Time, bool) {
	if v.typ != TypeDate {
		return time.Time{}, false
	}
	return v.tm, true
}

// Refs returns a copy of the ids held by a refs value.
func (v Value) Refs() ([]int64, bool) {
	if v.typ != TypeRefs {
		return nil, false
	}
	return append([]int64{}, v.refs...), true
}

// Interface returns the Go representation of v: nil, bool, int8, rune,
// int16, int32, int64, float32, float64, string, time.Time or []int64.
func (v Value) Interface() any {
	switch v.typ {
	case TypeBoolean:
		return v.num != 0
	case TypeByte:
		return int8(v.num)
	case TypeChar:
		return rune(v.num)
	case TypeShort:
		return int16(v.num)
	case TypeInt:
		return int32(v.num)
	case TypeLong:
		return v.num
	case TypeFloat:
		return float32(v.flt)
	case TypeDouble:
		return v.flt
	case TypeString:
		return v.str
	case TypeDate:
		return v.tm
	case TypeRefs:
		return append([]int64{}, v.refs...)
	}
	return nil
}

// Equal reports whether v and o have the same type and content.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeFloat, TypeDouble:
		return v.flt == o.flt
	case TypeString:
		return v.str == o.str
	case TypeDate:
		return v.tm.Equal(o.tm)
	case TypeRefs:
		return slices.Equal(v.refs, o.refs)
	case 0:
		return true
	}
	return v.num == o.num
}

func (v Value) String() string {
	switch v.typ {
	case 0:
		return "null"
	case TypeChar:
		return string(rune(v.num))
	case TypeDate:
		return v.tm.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v.Interface())
}

// Coerce converts v to dt. Null stays null. Integers convert between integer
// widths when the value fits, numbers convert to float and double (floats
// rounded to single precision), epoch milliseconds and RFC 3339 strings
// convert to dates, single character strings convert to chars and a single
// integer id converts to refs. Any other conversion returns ErrTypeMismatch.
func (v Value) Coerce(dt DataType) (Value, error) {
	if v.typ == 0 || (v.typ == dt && dt != TypeFloat) {
		return v, nil
	}
	if !dt.Valid() && dt != TypeRefs {
		return v, fmt.Errorf("%w: %d", ErrUnknownDataType, uint8(dt))
	}
	mismatch := func() (Value, error) {
		return v, fmt.Errorf("%w: cannot convert %s %s to %s", ErrTypeMismatch, v.typ, v, dt)
	}
	switch dt {
	case TypeByte, TypeShort, TypeInt, TypeLong:
		n, ok := v.integral()
		if !ok || !fits(dt, n) {
			return mismatch()
		}
		return Value{typ: dt, num: n}, nil
	case TypeFloat:
		f, ok := v.Float()
		if n, isInt := v.Int(); isInt {
			f, ok = float64(n), true
		}
		if !ok {
			break
		}
		r := float32(f)
		if math.IsInf(float64(r), 0) && !math.IsInf(f, 0) {
			return mismatch()
		}
		return FloatValue(r), nil
	case TypeDouble:
		if n, ok := v.Int(); ok {
			return Value{typ: dt, flt: float64(n)}, nil
		}
		if f, ok := v.Float(); ok {
			return Value{typ: dt, flt: f}, nil
		}
	case TypeChar:
		if s, ok := v.Text(); ok && utf8.RuneCountInString(s) == 1 {
			r, _ := utf8.DecodeRuneInString(s)
			return CharValue(r), nil
		}
		if n, ok := v.Int(); ok && n >= 0 && n <= utf8.MaxRune {
			return CharValue(rune(n)), nil
		}
	case TypeDate:
		if n, ok := v.Int(); ok {
			return DateValue(time.UnixMilli(n)), nil
		}
		if s, ok := v.Text(); ok {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err == nil {
				return DateValue(t), nil
			}
		}
	case TypeString:
		if r, ok := v.Char(); ok {
			return StringValue(string(r)), nil
		}
	case TypeRefs:
		if n, ok := v.Int(); ok {
			return RefsValue(n), nil
		}
	}
	return mismatch()
}

// integral returns v as an integer when it holds one, including doubles with
// no fractional part.
func (v Value) integral() (int64, bool) {
	if n, ok := v.Int(); ok {
		return n, true
	}
	if f, ok := v.Float(); ok && f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), true
	}
	return 0, false
}

func fits(dt DataType, n int64) bool {
	switch dt {
	case TypeByte:
		return n >= math.MinInt8 && n <= math.MaxInt8
	case TypeShort:
		return n >= math.MinInt16 && n <= math.MaxInt16
	case TypeInt:
		return n >= math.MinInt32 && n <= math.MaxInt32
	}
	return true
}

// MarshalJSON encodes v as a plain JSON scalar. Chars encode as one
// character strings, dates as epoch milliseconds and refs as an array of
// ids.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case 0:
		return []byte("null"), nil
	case TypeChar:
		return json.Marshal(string(rune(v.num)))
	case TypeDate:
		return json.Marshal(v.tm.UnixMilli())
	case TypeRefs:
		if v.refs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.refs)
	case TypeFloat, TypeDouble:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) {
			return nil, fmt.Errorf("%w: %v is not representable", ErrTypeMismatch, v.flt)
		}
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a plain JSON value by inference: integral numbers
// become longs, other numbers doubles, strings strings, booleans booleans
// and arrays of integers refs. Use Coerce to apply a declared data type
// afterwards.
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = NullValue()
	case bool:
		*v = BoolValue(x)
	case string:
		*v = StringValue(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			*v = LongValue(n)
			return nil
		}
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("%w: %s", ErrTypeMismatch, x)
		}
		*v = DoubleValue(f)
	case []any:
		ids := make([]int64, 0, len(x))
		for _, el := range x {
			num, ok := el.(json.Number)
			if !ok {
				return fmt.Errorf("%w: ids must be integers, got %s", ErrTypeMismatch, string(b))
			}
			id, err := num.Int64()
			if err != nil {
				return fmt.Errorf("%w: ids must be integers, got %s", ErrTypeMismatch, string(b))
			}
			ids = append(ids, id)
		}
		*v = Value{typ: TypeRefs, refs: ids}
	default:
		return fmt.Errorf("%w: unsupported JSON value %s", ErrTypeMismatch, string(b))
	}
	return nil
}
