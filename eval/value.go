package eval

import (
	"strconv"
)

// ValueTag identifies the dynamic type of a Value.
type ValueTag int

const (
	VTNil ValueTag = iota
	VTInt
	VTFixed
	VTStr
	VTBool
)

func (t ValueTag) String() string {
	switch t {
	case VTInt:
		return "int"
	case VTFixed:
		return "fixed"
	case VTStr:
		return "str"
	case VTBool:
		return "bool"
	}
	return "nil"
}

// Value is a runtime value produced by evaluation.
type Value struct {
	Tag  ValueTag
	Data any
}

func Nil() Value            { return Value{} }
func Int(n int64) Value     { return Value{Tag: VTInt, Data: n} }
func Fixed(f float64) Value { return Value{Tag: VTFixed, Data: f} }
func Str(s string) Value    { return Value{Tag: VTStr, Data: s} }
func Bool(b bool) Value     { return Value{Tag: VTBool, Data: b} }

func (v Value) IsNil() bool { return v.Tag == VTNil }

func (v Value) AsInt() int64 {
	n, _ := v.Data.(int64)
	return n
}

func (v Value) AsStr() string {
	s, _ := v.Data.(string)
	return s
}

func (v Value) AsBool() bool {
	b, _ := v.Data.(bool)
	return b
}

// AsFixed returns the value as a float, promoting ints.
func (v Value) AsFixed() float64 {
	switch d := v.Data.(type) {
	case float64:
		return d
	case int64:
		return float64(d)
	}
	return 0
}

func (v Value) isNumber() bool { return v.Tag == VTInt || v.Tag == VTFixed }

// Truthy follows the usual scripting rules: nil, false, zero and the empty
// string are false.
func (v Value) Truthy() bool {
	switch v.Tag {
	case VTBool:
		return v.AsBool()
	case VTInt:
		return v.AsInt() != 0
	case VTFixed:
		return v.AsFixed() != 0
	case VTStr:
		return v.AsStr() != ""
	}
	return false
}

// String renders the value the way it is spliced into command text.
func (v Value) String() string {
	switch v.Tag {
	case VTInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case VTFixed:
		return strconv.FormatFloat(v.AsFixed(), 'g', -1, 64)
	case VTStr:
		return v.AsStr()
	case VTBool:
		return strconv.FormatBool(v.AsBool())
	}
	return "nil"
}

// Equal reports whether two values are equal. Ints and fixeds compare
// numerically.
func (v Value) Equal(o Value) bool {
	if v.isNumber() && o.isNumber() {
		if v.Tag == VTInt && o.Tag == VTInt {
			return v.AsInt() == o.AsInt()
		}
		return v.AsFixed() == o.AsFixed()
	}
	if v.Tag != o.Tag {
		return false
	}
	return v.Data == o.Data
}
