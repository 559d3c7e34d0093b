package interpreter

import "fmt"

type ValueKind int

const (
	KindRef ValueKind = iota
	KindInt
)

// Value is a tagged machine word. A set low bit marks an immediate integer
// carried in the upper 63 bits; a clear low bit marks a reference. The
// language has no heap objects, so the only reference ever seen is the zero
// word, which doubles as the contents of a never-written local.
type Value int64

// MaxInt and MinInt bound the integers a Value can carry.
const (
	MaxInt int64 = 1<<62 - 1
	MinInt int64 = -1 << 62
)

// IntValue tags n. Bit 63 of n is lost, so results wrap in the 63-bit range.
func IntValue(n int64) Value {
	return Value(n<<1 | 1)
}

// Kind returns the variant the tag bit selects.
func (v Value) Kind() ValueKind {
	if v&1 == 1 {
		return KindInt
	}
	return KindRef
}

// IsInt reports whether v is an immediate integer.
func (v Value) IsInt() bool {
	return v.Kind() == KindInt
}

// Int untags v. The shift is arithmetic so negative values survive.
func (v Value) Int() int64 {
	return int64(v) >> 1
}

// AsBool converts an integer to a truth value: nonzero is true.
func (v Value) AsBool() (bool, error) {
	if !v.IsInt() {
		return false, fmt.Errorf("cannot test reference %#x", int64(v))
	}
	return v.Int() != 0, nil
}

func boolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

// String renders the value as a string.
func (v Value) String() string {
	if v.IsInt() {
		return fmt.Sprintf("%d", v.Int())
	}
	return fmt.Sprintf("<ref %#x>", int64(v))
}
