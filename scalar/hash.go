package scalar

// Canonical is the flattened, CBOR-friendly representation of a Scalar used
// to compute structural hashes. Only the fields relevant to the scalar's
// kind are populated; the rest take their zero value, so two canonical forms
// of equal scalars always encode identically.
type Canonical struct {
	Kind      uint8  `cbor:"k"`
	Bool      bool   `cbor:"b,omitempty"`
	Int       int64  `cbor:"i,omitempty"`
	FloatBits uint64 `cbor:"f,omitempty"`
	Str       string `cbor:"s,omitempty"`
}

// ToCanonical flattens s into its hashing representation.
func (s Scalar) ToCanonical() Canonical {
	c := Canonical{Kind: uint8(s.kind)}
	switch s.kind {
	case KindBool:
		c.Bool = s.b
	case KindInt:
		c.Int = s.i
	case KindFloat:
		c.FloatBits = s.canonicalFloatBits()
	case KindString:
		c.Str = s.s
	}
	return c
}
