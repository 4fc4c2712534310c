// Package scalar implements the leaf value type of a configuration tree:
// a tagged union over null, bool, int64, float64, and string, with the
// canonicalization rules the intern table and structural hash rely on.
package scalar

import (
	"math"
	"sync/atomic"
)

// Kind identifies which variant of Scalar is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// nanNonce hands out a distinct counter value to every NaN-valued Scalar so
// that two separately constructed NaN scalars never compare or hash equal,
// mirroring IEEE-754's own NaN != NaN rule.
var nanNonce atomic.Uint64

// Scalar is an immutable leaf value. The zero value is the null scalar.
type Scalar struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	nan  uint64 // disambiguates distinct NaN instances; 0 for non-NaN scalars
}

// Null returns the null scalar.
func Null() Scalar { return Scalar{kind: KindNull} }

// Bool returns a bool scalar.
func Bool(v bool) Scalar { return Scalar{kind: KindBool, b: v} }

// Int returns an int scalar. Ints are never coalesced with bools or floats.
func Int(v int64) Scalar { return Scalar{kind: KindInt, i: v} }

// Float returns a float scalar, normalizing -0.0 to +0.0. Each NaN value
// constructed through Float is distinct from every other, including other
// NaNs built from the same bit pattern.
func Float(v float64) Scalar {
	if math.IsNaN(v) {
		return Scalar{kind: KindFloat, f: v, nan: nanNonce.Add(1)}
	}
	if v == 0 {
		v = math.Copysign(0, 1)
	}
	return Scalar{kind: KindFloat, f: v}
}

// String returns a string scalar. Equality is exact byte comparison.
func String(v string) Scalar { return Scalar{kind: KindString, s: v} }

// Kind reports which variant is populated.
func (s Scalar) Kind() Kind { return s.kind }

// IsNaN reports whether s is a float scalar holding NaN.
func (s Scalar) IsNaN() bool { return s.kind == KindFloat && math.IsNaN(s.f) }

// BoolValue returns the bool payload and whether s is a bool scalar.
func (s Scalar) BoolValue() (bool, bool) { return s.b, s.kind == KindBool }

// IntValue returns the int payload and whether s is an int scalar.
func (s Scalar) IntValue() (int64, bool) { return s.i, s.kind == KindInt }

// FloatValue returns the float payload and whether s is a float scalar.
func (s Scalar) FloatValue() (float64, bool) { return s.f, s.kind == KindFloat }

// StringValue returns the string payload and whether s is a string scalar.
func (s Scalar) StringValue() (string, bool) { return s.s, s.kind == KindString }

// Equal reports structural equality per the canonicalization rules: distinct
// kinds never compare equal (no bool/int coalescing), floats compare by
// normalized bit pattern, and NaN scalars never equal anything, including
// themselves.
func (s Scalar) Equal(other Scalar) bool {
	if s.kind != other.kind {
		return false
	}
	switch s.kind {
	case KindNull:
		return true
	case KindBool:
		return s.b == other.b
	case KindInt:
		return s.i == other.i
	case KindFloat:
		if s.IsNaN() || other.IsNaN() {
			return false
		}
		return math.Float64bits(s.f) == math.Float64bits(other.f)
	case KindString:
		return s.s == other.s
	default:
		return false
	}
}

// canonicalFloatBits returns the bit pattern used for hashing: NaN scalars
// fold their nonce into the bits so distinct NaNs hash distinctly, while
// non-NaN floats hash by their normalized IEEE-754 bit pattern.
func (s Scalar) canonicalFloatBits() uint64 {
	if s.IsNaN() {
		return math.Float64bits(s.f) ^ s.nan
	}
	return math.Float64bits(s.f)
}
