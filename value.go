package transmute

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a [Value] holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the canonical tree shared by every converter: each parser produces
// a Value and each encoder consumes one, so any two formats compose without
// knowing about each other. It is a JSON-compatible sum over null, bool,
// number, string, array, and object, with two deliberate extensions: object
// member order is preserved, and numbers keep their source literal so that
// values like 1e100 or 64-bit integers survive a round trip untouched.
// NaN and ±Inf are representable in the tree (YAML produces them); the JSON
// and YAML encoders decide their fate via [SpecialFloatPolicy].
//
// The zero Value is null. Values are treated as immutable once built.
type Value struct {
	kind Kind
	b    bool
	num  string // numeric literal, e.g. "42", "95.5", "1e100", "NaN", "+Inf"
	str  string
	arr  []Value
	obj  []Member
}

// Member is one key/value pair of an object. Order among members is
// significant and preserved.
type Member struct {
	Key   string
	Value Value
}

// --- Constructors ---

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns a number value holding an integer.
func Int(i int64) Value {
	return Value{kind: KindNumber, num: strconv.FormatInt(i, 10)}
}

// Float returns a number value holding a float. NaN and ±Inf are allowed
// here; encoders apply the configured policy when the target format cannot
// represent them.
func Float(f float64) Value {
	return Value{kind: KindNumber, num: formatFloat(f)}
}

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an array value of the given items.
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// Object returns an object value of the given members, in order.
func Object(members ...Member) Value { return Value{kind: KindObject, obj: members} }

// numberLit wraps an already-validated numeric literal without reformatting,
// preserving the exact source spelling.
func numberLit(lit string) Value { return Value{kind: KindNumber, num: lit} }

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// --- Accessors ---

// Kind returns the variant this value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload, or false for non-bool values.
func (v Value) Bool() bool {
	if v.kind != KindBool {
		return false
	}
	return v.b
}

// Str returns the string payload, or "" for non-string values.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Number returns the numeric literal, or "" for non-number values.
func (v Value) Number() string {
	if v.kind != KindNumber {
		return ""
	}
	return v.num
}

// Float64 returns the numeric payload as a float64, or 0 for non-number
// values. NaN and ±Inf literals parse to their float equivalents.
func (v Value) Float64() float64 {
	if v.kind != KindNumber {
		return 0
	}
	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil {
		return 0
	}
	return f
}

// Int64 returns the numeric payload as an int64 when the literal is an
// integer that fits; ok is false otherwise.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	i, err := strconv.ParseInt(v.num, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Items returns the array elements, or nil for non-array values.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Members returns the object members in order, or nil for non-object values.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Get returns the value of the first member with the given key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of array items or object members, and 0 for
// scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Equal reports deep equality. Object member order matters; numbers compare
// numerically when their literals differ, and NaN equals NaN so that trees
// containing it still compare stable.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return numbersEqual(v.num, other.num)
	case KindString:
		return v.str == other.str
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for i := range v.obj {
			if v.obj[i].Key != other.obj[i].Key || !v.obj[i].Value.Equal(other.obj[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numbersEqual(a, b string) bool {
	if a == b {
		return true
	}
	fa, erra := strconv.ParseFloat(a, 64)
	fb, errb := strconv.ParseFloat(b, 64)
	if erra != nil || errb != nil {
		return false
	}
	if math.IsNaN(fa) && math.IsNaN(fb) {
		return true
	}
	return fa == fb
}

// Sorted returns a copy of the value with object members sorted by key at
// every level. Arrays keep their order.
func (v Value) Sorted() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Sorted()
		}
		return Value{kind: KindArray, arr: items}
	case KindObject:
		members := make([]Member, len(v.obj))
		for i, m := range v.obj {
			members[i] = Member{Key: m.Key, Value: m.Value.Sorted()}
		}
		sort.SliceStable(members, func(i, j int) bool { return members[i].Key < members[j].Key })
		return Value{kind: KindObject, obj: members}
	default:
		return v
	}
}

// Interface converts the value to untyped Go data: nil, bool, int64 or
// float64, string, []any, or map[string]any. Object member order is lost in
// the map; callers that need order should walk [Value.Members] instead.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.Float64()
	case KindString:
		return v.str
	case KindArray:
		items := make([]any, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Interface()
		}
		return items
	case KindObject:
		m := make(map[string]any, len(v.obj))
		for _, member := range v.obj {
			m[member.Key] = member.Value.Interface()
		}
		return m
	default:
		return nil
	}
}

// String renders the value as compact JSON-like text with numeric literals
// passed through raw. Intended for debugging and test output; use
// [EncodeJSON] for real serialization.
func (v Value) String() string {
	var sb strings.Builder
	writeDebug(&sb, v)
	return sb.String()
}

func writeDebug(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(v.num)
	case KindString:
		sb.WriteString(strconv.Quote(v.str))
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeDebug(sb, item)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(m.Key))
			sb.WriteByte(':')
			writeDebug(sb, m.Value)
		}
		sb.WriteByte('}')
	}
}
