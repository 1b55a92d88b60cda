package secp256k1

import (
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/f3rmion/icefrost/group"
)

const (
	scalarLen = 32
	pointLen  = 33
)

var (
	errInvalidScalar = errors.New("secp256k1: invalid scalar encoding")
	errInvalidPoint  = errors.New("secp256k1: invalid point encoding")
	errZeroInverse   = errors.New("secp256k1: cannot invert zero scalar")
)

var curveOrder = new(big.Int).Set(btcec.S256().Params().N)

// Scalar implements [group.Scalar] modulo the secp256k1 order.
type Scalar struct {
	inner btcec.ModNScalar
}

// Add sets s to a + b and returns s.
func (s *Scalar) Add(a, b group.Scalar) group.Scalar {
	s.inner.Add2(&a.(*Scalar).inner, &b.(*Scalar).inner)
	return s
}

// Sub sets s to a - b and returns s.
func (s *Scalar) Sub(a, b group.Scalar) group.Scalar {
	var negB btcec.ModNScalar
	negB.NegateVal(&b.(*Scalar).inner)
	s.inner.Add2(&a.(*Scalar).inner, &negB)
	return s
}

// Mul sets s to a * b and returns s.
func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	s.inner.Mul2(&a.(*Scalar).inner, &b.(*Scalar).inner)
	return s
}

// Negate sets s to -a and returns s.
func (s *Scalar) Negate(a group.Scalar) group.Scalar {
	s.inner.NegateVal(&a.(*Scalar).inner)
	return s
}

// Invert sets s to a^(-1) and returns s. Zero has no inverse.
func (s *Scalar) Invert(a group.Scalar) (group.Scalar, error) {
	if a.IsZero() {
		return nil, errZeroInverse
	}
	s.inner.InverseValNonConst(&a.(*Scalar).inner)
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
	binary.BigEndian.PutUint64(buf[scalarLen-8:], v)
	s.inner.SetBytes(&buf)
	return s
}

// Bytes returns the 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	out := s.inner.Bytes()
	return out[:]
}

// SetBytes decodes a 32-byte big-endian scalar, rejecting values >= n.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	if len(data) != scalarLen {
		return nil, errInvalidScalar
	}
	var v btcec.ModNScalar
	if overflow := v.SetByteSlice(data); overflow {
		return nil, errInvalidScalar
	}
	s.inner.Set(&v)
	return s, nil
}

// SetUniformBytes reduces a 64-byte big-endian integer modulo n.
func (s *Scalar) SetUniformBytes(data []byte) (group.Scalar, error) {
	if len(data) != 64 {
		return nil, errInvalidScalar
	}
	wide := new(big.Int).SetBytes(data)
	wide.Mod(wide, curveOrder)
	var buf [scalarLen]byte
	wide.FillBytes(buf[:])
	s.inner.SetBytes(&buf)
	clear(buf[:])
	return s, nil
}

// Equal reports whether s and b are the same scalar.
func (s *Scalar) Equal(b group.Scalar) bool {
	return s.inner.Equals(&b.(*Scalar).inner)
}

// IsZero reports whether s is zero.
func (s *Scalar) IsZero() bool {
	return s.inner.IsZero()
}

// Zeroize sets s to zero.
func (s *Scalar) Zeroize() {
	s.inner.Zero()
}

// Point implements [group.Point] using Jacobian coordinates. A zero Z
// coordinate denotes the point at infinity.
type Point struct {
	inner btcec.JacobianPoint
}

func (p *Point) infinity() bool {
	return p.inner.Z.IsZero() || (p.inner.X.IsZero() && p.inner.Y.IsZero())
}

func (p *Point) setInfinity() {
	p.inner.X.SetInt(0)
	p.inner.Y.SetInt(0)
	p.inner.Z.SetInt(0)
}

// affine returns a normalized affine copy of p, which must not be the
// point at infinity.
func (p *Point) affine() btcec.JacobianPoint {
	var a btcec.JacobianPoint
	a.Set(&p.inner)
	a.ToAffine()
	return a
}

// Add sets p to a + b and returns p.
func (p *Point) Add(a, b group.Point) group.Point {
	var r btcec.JacobianPoint
	btcec.AddNonConst(&a.(*Point).inner, &b.(*Point).inner, &r)
	p.inner.Set(&r)
	return p
}

// Sub sets p to a - b and returns p.
func (p *Point) Sub(a, b group.Point) group.Point {
	var negB Point
	negB.Negate(b)
	return p.Add(a, &negB)
}

// Negate sets p to -a and returns p.
func (p *Point) Negate(a group.Point) group.Point {
	ap := a.(*Point)
	if ap.infinity() {
		p.setInfinity()
		return p
	}
	r := ap.affine()
	r.Y.Negate(1).Normalize()
	p.inner.Set(&r)
	return p
}

// ScalarMult sets p to s * q and returns p.
func (p *Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	k := &s.(*Scalar).inner
	qp := q.(*Point)
	if k.IsZero() || qp.infinity() {
		p.setInfinity()
		return p
	}
	var r btcec.JacobianPoint
	btcec.ScalarMultNonConst(k, &qp.inner, &r)
	p.inner.Set(&r)
	return p
}

// Set copies a into p and returns p.
func (p *Point) Set(a group.Point) group.Point {
	p.inner.Set(&a.(*Point).inner)
	return p
}

// Bytes returns the 33-byte compressed encoding of p.
func (p *Point) Bytes() []byte {
	if p.infinity() {
		return make([]byte, pointLen)
	}
	a := p.affine()
	return btcec.NewPublicKey(&a.X, &a.Y).SerializeCompressed()
}

// SetBytes decodes a 33-byte compressed point or the all-zero identity.
func (p *Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != pointLen {
		return nil, errInvalidPoint
	}
	if isZero(data) {
		p.setInfinity()
		return p, nil
	}
	if data[0] != 0x02 && data[0] != 0x03 {
		return nil, errInvalidPoint
	}
	pk, err := btcec.ParsePubKey(data)
	if err != nil {
		return nil, errInvalidPoint
	}
	pk.AsJacobian(&p.inner)
	return p, nil
}

func isZero(data []byte) bool {
	var acc byte
	for _, b := range data {
		acc |= b
	}
	return acc == 0
}

// Equal reports whether p and b are the same point.
func (p *Point) Equal(b group.Point) bool {
	bp := b.(*Point)
	if p.infinity() || bp.infinity() {
		return p.infinity() && bp.infinity()
	}
	pa, ba := p.affine(), bp.affine()
	return pa.X.Equals(&ba.X) && pa.Y.Equals(&ba.Y)
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	return p.infinity()
}

// Secp256k1 implements [group.Group]. The zero value is ready to use.
type Secp256k1 struct{}

// Name returns "secp256k1".
func (g *Secp256k1) Name() string {
	return "secp256k1"
}

// NewScalar returns a new zero scalar.
func (g *Secp256k1) NewScalar() group.Scalar {
	return &Scalar{}
}

// NewPoint returns the point at infinity.
func (g *Secp256k1) NewPoint() group.Point {
	return &Point{}
}

// Generator returns the standard base point.
func (g *Secp256k1) Generator() group.Point {
	var one btcec.ModNScalar
	one.SetInt(1)
	p := &Point{}
	btcec.ScalarBaseMultNonConst(&one, &p.inner)
	return p
}

// RandomScalar draws 64 bytes from r and reduces them modulo n.
func (g *Secp256k1) RandomScalar(r io.Reader) (group.Scalar, error) {
	var buf [64]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	defer clear(buf[:])
	return g.NewScalar().SetUniformBytes(buf[:])
}

// Order returns the big-endian curve order n.
func (g *Secp256k1) Order() []byte {
	return curveOrder.Bytes()
}

// ScalarLen returns 32.
func (g *Secp256k1) ScalarLen() int {
	return scalarLen
}

// PointLen returns 33.
func (g *Secp256k1) PointLen() int {
	return pointLen
}
