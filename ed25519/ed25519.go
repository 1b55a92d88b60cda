package ed25519

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"filippo.io/edwards25519"

	"github.com/f3rmion/icefrost/group"
)

const (
	scalarLen = 32
	pointLen  = 32
)

var (
	errInvalidScalar = errors.New("ed25519: invalid scalar encoding")
	errInvalidPoint  = errors.New("ed25519: invalid point encoding")
	errZeroInverse   = errors.New("ed25519: cannot invert zero scalar")
)

// order is the big-endian prime order of the subgroup.
var order = []byte{
	0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x14, 0xde, 0xf9, 0xde, 0xa2, 0xf7, 0x9c, 0xd6,
	0x58, 0x12, 0x63, 0x1a, 0x5c, 0xf5, 0xd3, 0xed,
}

// minusOne is l-1, used to test subgroup membership as [l-1]P + P == 0.
var minusOne = edwards25519.NewScalar().Negate(scalarOne())

func scalarOne() *edwards25519.Scalar {
	var buf [scalarLen]byte
	buf[0] = 1
	s, _ := edwards25519.NewScalar().SetCanonicalBytes(buf[:])
	return s
}

// Scalar implements [group.Scalar] modulo the edwards25519 subgroup order.
type Scalar struct {
	inner edwards25519.Scalar
}

// Add sets s to a + b and returns s.
func (s *Scalar) Add(a, b group.Scalar) group.Scalar {
	s.inner.Add(&a.(*Scalar).inner, &b.(*Scalar).inner)
	return s
}

// Sub sets s to a - b and returns s.
func (s *Scalar) Sub(a, b group.Scalar) group.Scalar {
	s.inner.Subtract(&a.(*Scalar).inner, &b.(*Scalar).inner)
	return s
}

// Mul sets s to a * b and returns s.
func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	s.inner.Multiply(&a.(*Scalar).inner, &b.(*Scalar).inner)
	return s
}

// Negate sets s to -a and returns s.
func (s *Scalar) Negate(a group.Scalar) group.Scalar {
	s.inner.Negate(&a.(*Scalar).inner)
	return s
}

// Invert sets s to a^(-1) and returns s. Zero has no inverse.
func (s *Scalar) Invert(a group.Scalar) (group.Scalar, error) {
	if a.IsZero() {
		return nil, errZeroInverse
	}
	s.inner.Invert(&a.(*Scalar).inner)
	return s, nil
}

// Set copies a into s and returns s.
func (s *Scalar) Set(a group.Scalar) group.Scalar {
	s.inner.Set(&a.(*Scalar).inner)
	return s
}

// SetUint64 sets s to v and returns s.
func (s *Scalar) SetUint64(v uint64) group.Scalar {
	var buf [scalarLen]byte
	binary.LittleEndian.PutUint64(buf[:8], v)
	// v < 2^64 is always canonical.
	_, _ = s.inner.SetCanonicalBytes(buf[:])
	return s
}

// Bytes returns the 32-byte little-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	return s.inner.Bytes()
}

// SetBytes decodes a canonical 32-byte little-endian scalar.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	if len(data) != scalarLen {
		return nil, errInvalidScalar
	}
	if _, err := s.inner.SetCanonicalBytes(data); err != nil {
		return nil, errInvalidScalar
	}
	return s, nil
}

// SetUniformBytes reduces a 64-byte little-endian integer modulo the group
// order.
func (s *Scalar) SetUniformBytes(data []byte) (group.Scalar, error) {
	if len(data) != 64 {
		return nil, errInvalidScalar
	}
	if _, err := s.inner.SetUniformBytes(data); err != nil {
		return nil, errInvalidScalar
	}
	return s, nil
}

// Equal reports whether s and b are the same scalar.
func (s *Scalar) Equal(b group.Scalar) bool {
	return s.inner.Equal(&b.(*Scalar).inner) == 1
}

// IsZero reports whether s is zero.
func (s *Scalar) IsZero() bool {
	return s.inner.Equal(edwards25519.NewScalar()) == 1
}

// Zeroize sets s to zero.
func (s *Scalar) Zeroize() {
	s.inner.Set(edwards25519.NewScalar())
}

// Point implements [group.Point] for edwards25519.
type Point struct {
	inner edwards25519.Point
}

// Add sets p to a + b and returns p.
func (p *Point) Add(a, b group.Point) group.Point {
	p.inner.Add(&a.(*Point).inner, &b.(*Point).inner)
	return p
}

// Sub sets p to a - b and returns p.
func (p *Point) Sub(a, b group.Point) group.Point {
	p.inner.Subtract(&a.(*Point).inner, &b.(*Point).inner)
	return p
}

// Negate sets p to -a and returns p.
func (p *Point) Negate(a group.Point) group.Point {
	p.inner.Negate(&a.(*Point).inner)
	return p
}

// ScalarMult sets p to s * q and returns p.
func (p *Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	p.inner.ScalarMult(&s.(*Scalar).inner, &q.(*Point).inner)
	return p
}

// Set copies a into p and returns p.
func (p *Point) Set(a group.Point) group.Point {
	p.inner.Set(&a.(*Point).inner)
	return p
}

// Bytes returns the 32-byte compressed encoding of p.
func (p *Point) Bytes() []byte {
	return p.inner.Bytes()
}

// SetBytes decodes a canonical compressed point in the prime-order
// subgroup.
func (p *Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != pointLen {
		return nil, errInvalidPoint
	}
	decoded, err := new(edwards25519.Point).SetBytes(data)
	if err != nil {
		return nil, errInvalidPoint
	}
	if !bytes.Equal(decoded.Bytes(), data) {
		return nil, errInvalidPoint
	}
	check := new(edwards25519.Point).ScalarMult(minusOne, decoded)
	check.Add(check, decoded)
	if check.Equal(edwards25519.NewIdentityPoint()) != 1 {
		return nil, errInvalidPoint
	}
	p.inner.Set(decoded)
	return p, nil
}

// Equal reports whether p and b are the same point.
func (p *Point) Equal(b group.Point) bool {
	return p.inner.Equal(&b.(*Point).inner) == 1
}

// IsIdentity reports whether p is the identity element.
func (p *Point) IsIdentity() bool {
	return p.inner.Equal(edwards25519.NewIdentityPoint()) == 1
}

// Ed25519 implements [group.Group]. The zero value is ready to use.
type Ed25519 struct{}

// Name returns "ed25519".
func (g *Ed25519) Name() string {
	return "ed25519"
}

// NewScalar returns a new zero scalar.
func (g *Ed25519) NewScalar() group.Scalar {
	s := &Scalar{}
	s.inner.Set(edwards25519.NewScalar())
	return s
}

// NewPoint returns a new identity point.
func (g *Ed25519) NewPoint() group.Point {
	p := &Point{}
	p.inner.Set(edwards25519.NewIdentityPoint())
	return p
}

// Generator returns the standard base point.
func (g *Ed25519) Generator() group.Point {
	p := &Point{}
	p.inner.Set(edwards25519.NewGeneratorPoint())
	return p
}

// RandomScalar draws 64 bytes from r and reduces them modulo the order.
func (g *Ed25519) RandomScalar(r io.Reader) (group.Scalar, error) {
	var buf [64]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	defer clear(buf[:])
	return g.NewScalar().SetUniformBytes(buf[:])
}

// Order returns the big-endian group order.
func (g *Ed25519) Order() []byte {
	return bytes.Clone(order)
}

// ScalarLen returns 32.
func (g *Ed25519) ScalarLen() int {
	return scalarLen
}

// PointLen returns 32.
func (g *Ed25519) PointLen() int {
	return pointLen
}
