package filter

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ValueInt = iota
	ValueStr
)

// Value is the comparison value of a predicate. The type tag is decided once
// at construction time, there is no column type declaration anywhere, and the
// evaluation dispatches on the tag. An integer tagged value forces the target
// column to parse as an integer, a string tagged value compares bytewise.
type Value struct {
	Ty  int
	Int int64
	Str string
}

func NewIntValue(i int64) Value {
	return Value{
		Ty:  ValueInt,
		Int: i,
	}
}

func NewStrValue(s string) Value {
	return Value{
		Ty:  ValueStr,
		Str: s,
	}
}

// NewValue builds a Value from a plain Go value. Integer kinds, except the
// ones that cannot fit an int64, become ValueInt, strings become ValueStr,
// anything else is rejected.
func NewValue(v interface{}) (Value, error) {
	switch x := v.(type) {
	case int:
		return NewIntValue(int64(x)), nil
	case int8:
		return NewIntValue(int64(x)), nil
	case int16:
		return NewIntValue(int64(x)), nil
	case int32:
		return NewIntValue(int64(x)), nil
	case int64:
		return NewIntValue(x), nil
	case uint8:
		return NewIntValue(int64(x)), nil
	case uint16:
		return NewIntValue(int64(x)), nil
	case uint32:
		return NewIntValue(int64(x)), nil
	case string:
		return NewStrValue(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported predicate value type %T", v)
	}
}

// Compare compares target against the value and returns the three way
// outcome, negative when target sorts before the value, zero when equal,
// positive otherwise.
func (self *Value) Compare(target string) (int, error) {
	switch self.Ty {
	case ValueInt:
		t, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", target)
		}
		if t < self.Int {
			return -1, nil
		}
		if t > self.Int {
			return 1, nil
		}
		return 0, nil

	default:
		return strings.Compare(target, self.Str), nil
	}
}

func (self *Value) String() string {
	if self.Ty == ValueInt {
		return fmt.Sprintf("%d", self.Int)
	}
	return fmt.Sprintf("%q", self.Str)
}
