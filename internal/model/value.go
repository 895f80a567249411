package model

// ValueType is the closed set of types a freeform payload value can take.
type ValueType int

const (
	ValueTypeEmpty ValueType = iota
	ValueTypeStr
	ValueTypeInt
	ValueTypeDouble
	ValueTypeBool
	ValueTypeMap
	ValueTypeSlice
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeEmpty:
		return "Empty"
	case ValueTypeStr:
		return "Str"
	case ValueTypeInt:
		return "Int"
	case ValueTypeDouble:
		return "Double"
	case ValueTypeBool:
		return "Bool"
	case ValueTypeMap:
		return "Map"
	case ValueTypeSlice:
		return "Slice"
	default:
		return "Unknown"
	}
}

// Value is a freeform payload value. The zero Value is empty and cannot be serialized.
type Value struct {
	typ ValueType
	str string
	i   int64
	f   float64
	b   bool
	m   map[string]Value
	s   []Value
}

func StringValue(v string) Value {
	return Value{typ: ValueTypeStr, str: v}
}

func IntValue(v int64) Value {
	return Value{typ: ValueTypeInt, i: v}
}

func DoubleValue(v float64) Value {
	return Value{typ: ValueTypeDouble, f: v}
}

func BoolValue(v bool) Value {
	return Value{typ: ValueTypeBool, b: v}
}

// MapValue takes ownership of m.
func MapValue(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}

	return Value{typ: ValueTypeMap, m: m}
}

func SliceValue(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}

	return Value{typ: ValueTypeSlice, s: vs}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) Str() string { return v.str }

func (v Value) Int() int64 { return v.i }

func (v Value) Double() float64 { return v.f }

func (v Value) Bool() bool { return v.b }

func (v Value) Map() map[string]Value { return v.m }

func (v Value) Slice() []Value { return v.s }

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.typ {
	case ValueTypeMap:
		m := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			m[k] = e.Clone()
		}

		return MapValue(m)
	case ValueTypeSlice:
		s := make([]Value, len(v.s))
		for i, e := range v.s {
			s[i] = e.Clone()
		}

		return SliceValue(s...)
	default:
		return v
	}
}
