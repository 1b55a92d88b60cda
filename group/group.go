package group

import (
	"io"
)

// Scalar represents an element of the scalar field associated with a
// cryptographic group. Scalars are integers modulo the group order and
// are used as exponents in scalar multiplication.
//
// All arithmetic methods use a mutable receiver pattern: they modify
// the receiver, store the result in it, and return it.
//
// Implementations must ensure all operations produce results in the
// valid range [0, order).
type Scalar interface {
	// Add sets the receiver to a+b and returns it.
	Add(a, b Scalar) Scalar
	// Sub sets the receiver to a-b and returns it.
	Sub(a, b Scalar) Scalar
	// Mul sets the receiver to a*b and returns it.
	Mul(a, b Scalar) Scalar
	// Negate sets the receiver to -a and returns it.
	Negate(a Scalar) Scalar
	// Invert sets the receiver to a^{-1} and returns it.
	// Returns an error if a is zero.
	Invert(a Scalar) (Scalar, error)
	// Set sets the receiver to a and returns it.
	Set(a Scalar) Scalar
	// SetUint64 sets the receiver to the small integer v and returns it.
	SetUint64(v uint64) Scalar
	// Bytes returns the canonical fixed-width encoding of the scalar.
	Bytes() []byte
	// SetBytes decodes a canonical encoding into the receiver.
	// Returns an error if the length is wrong or the value is not
	// fully reduced.
	SetBytes(data []byte) (Scalar, error)
	// SetUniformBytes sets the receiver to a 64-byte uniformly random
	// string reduced modulo the group order. The bias of the reduction
	// is negligible for every supported group.
	SetUniformBytes(data []byte) (Scalar, error)
	// Equal reports whether the receiver equals b.
	Equal(b Scalar) bool
	// IsZero reports whether the receiver is zero.
	IsZero() bool
	// Zeroize overwrites the scalar with zero.
	Zeroize()
}

// Point represents an element of a prime-order group, typically a point
// on an elliptic curve.
//
// Like [Scalar], all arithmetic methods use a mutable receiver pattern.
//
// The identity element is the additive identity: P + Identity = P for all
// points P.
type Point interface {
	// Add sets the receiver to a+b and returns it.
	Add(a, b Point) Point
	// Sub sets the receiver to a-b and returns it.
	Sub(a, b Point) Point
	// Negate sets the receiver to -a and returns it.
	Negate(a Point) Point
	// ScalarMult sets the receiver to s*p and returns it.
	ScalarMult(s Scalar, p Point) Point
	// Set sets the receiver to a and returns it.
	Set(a Point) Point
	// Bytes returns the canonical fixed-width encoding of the point.
	Bytes() []byte
	// SetBytes decodes a canonical encoding into the receiver.
	// Returns an error if the data is not an element of the prime-order
	// group.
	SetBytes(data []byte) (Point, error)
	// Equal reports whether the receiver equals b.
	Equal(b Point) bool
	// IsIdentity reports whether the receiver is the identity element.
	IsIdentity() bool
}

// Group defines a prime-order group suitable for threshold Schnorr
// signatures. It provides factory methods for creating scalars and points,
// access to the group's generator, and random scalar generation.
//
// A Group implementation encapsulates all curve-specific details, allowing
// the protocol code to be generic over different elliptic curves.
//
// Example usage:
//
//	g := &bjj.BJJ{}  // or any other Group implementation
//	scalar, _ := g.RandomScalar(rand.Reader)
//	point := g.NewPoint().ScalarMult(scalar, g.Generator())
type Group interface {
	// Name returns a short identifier such as "ed25519".
	Name() string
	// NewScalar returns a new zero scalar.
	NewScalar() Scalar
	// NewPoint returns a new identity point.
	NewPoint() Point
	// Generator returns the group's base point.
	Generator() Point
	// RandomScalar returns a uniformly random scalar drawn from r.
	RandomScalar(r io.Reader) (Scalar, error)
	// Order returns the group order as a big-endian byte slice.
	Order() []byte
	// ScalarLen is the length of a canonical scalar encoding.
	ScalarLen() int
	// PointLen is the length of a canonical point encoding.
	PointLen() int
}
