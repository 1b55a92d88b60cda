package bjj

import (
	"bytes"
	"errors"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"

	"github.com/f3rmion/icefrost/group"
)

const (
	scalarLen = 32
	pointLen  = 32
)

var (
	errInvalidScalar = errors.New("bjj: invalid scalar encoding")
	errInvalidPoint  = errors.New("bjj: invalid point encoding")
	errZeroInverse   = errors.New("bjj: cannot invert zero scalar")
)

// curveOrder is the order of the prime-order subgroup, not the BN254 Fr
// modulus the coordinates live in.
var curveOrder *big.Int

func init() {
	curve := twistededwards.GetEdwardsCurve()
	curveOrder = new(big.Int).Set(&curve.Order)
}

// Scalar is an integer modulo curveOrder.
type Scalar struct {
	inner *big.Int
}

func newScalar() *Scalar {
	return &Scalar{inner: new(big.Int)}
}

func (s *Scalar) reduce() {
	s.inner.Mod(s.inner, curveOrder)
}

func (s *Scalar) Add(a, b group.Scalar) group.Scalar {
	s.inner.Add(a.(*Scalar).inner, b.(*Scalar).inner)
	s.reduce()
	return s
}

func (s *Scalar) Sub(a, b group.Scalar) group.Scalar {
	s.inner.Sub(a.(*Scalar).inner, b.(*Scalar).inner)
	s.reduce()
	return s
}

func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	s.inner.Mul(a.(*Scalar).inner, b.(*Scalar).inner)
	s.reduce()
	return s
}

func (s *Scalar) Negate(a group.Scalar) group.Scalar {
	s.inner.Neg(a.(*Scalar).inner)
	s.reduce()
	return s
}

func (s *Scalar) Invert(a group.Scalar) (group.Scalar, error) {
	v := a.(*Scalar).inner
	if v.Sign() == 0 {
		return nil, errZeroInverse
	}
	s.inner.ModInverse(v, curveOrder)
	return s, nil
}

func (s *Scalar) Set(a group.Scalar) group.Scalar {
	s.inner.Set(a.(*Scalar).inner)
	return s
}

func (s *Scalar) SetUint64(v uint64) group.Scalar {
	s.inner.SetUint64(v)
	s.reduce()
	return s
}

// Bytes returns the 32-byte big-endian encoding.
func (s *Scalar) Bytes() []byte {
	out := make([]byte, scalarLen)
	s.inner.FillBytes(out)
	return out
}

// SetBytes sets s from a 32-byte big-endian encoding and returns s.
// Values that are not reduced modulo the curve order are rejected.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	if len(data) != scalarLen {
		return nil, errInvalidScalar
	}
	v := new(big.Int).SetBytes(data)
	if v.Cmp(curveOrder) >= 0 {
		return nil, errInvalidScalar
	}
	s.inner.Set(v)
	return s, nil
}

// SetUniformBytes interprets 64 bytes as a big-endian integer and reduces
// it modulo the curve order.
func (s *Scalar) SetUniformBytes(data []byte) (group.Scalar, error) {
	if len(data) != 64 {
		return nil, errInvalidScalar
	}
	s.inner.SetBytes(data)
	s.reduce()
	return s, nil
}

func (s *Scalar) Equal(b group.Scalar) bool {
	return s.inner.Cmp(b.(*Scalar).inner) == 0
}

func (s *Scalar) IsZero() bool {
	return s.inner.Sign() == 0
}

// Zeroize overwrites the limbs backing s and sets it to zero.
func (s *Scalar) Zeroize() {
	words := s.inner.Bits()
	for i := range words {
		words[i] = 0
	}
	s.inner.SetUint64(0)
}

// Point is an affine Baby Jubjub point. The identity is (0, 1).
type Point struct {
	inner twistededwards.PointAffine
}

func (p *Point) Add(a, b group.Point) group.Point {
	p.inner.Add(&a.(*Point).inner, &b.(*Point).inner)
	return p
}

func (p *Point) Sub(a, b group.Point) group.Point {
	var negB twistededwards.PointAffine
	negB.Neg(&b.(*Point).inner)
	p.inner.Add(&a.(*Point).inner, &negB)
	return p
}

func (p *Point) Negate(a group.Point) group.Point {
	p.inner.Neg(&a.(*Point).inner)
	return p
}

func (p *Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	p.inner.ScalarMultiplication(&q.(*Point).inner, s.(*Scalar).inner)
	return p
}

func (p *Point) Set(a group.Point) group.Point {
	p.inner.Set(&a.(*Point).inner)
	return p
}

// Bytes returns the 32-byte compressed point encoding.
func (p *Point) Bytes() []byte {
	enc := p.inner.Bytes()
	return enc[:]
}

// SetBytes sets p from a compressed point encoding and returns p.
// Non-canonical encodings and points outside the prime-order subgroup
// are rejected.
func (p *Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != pointLen {
		return nil, errInvalidPoint
	}
	var decoded twistededwards.PointAffine
	if err := decoded.Unmarshal(data); err != nil {
		return nil, errInvalidPoint
	}
	if !decoded.IsOnCurve() || !inSubgroup(&decoded) {
		return nil, errInvalidPoint
	}
	if enc := decoded.Bytes(); !bytes.Equal(enc[:], data) {
		return nil, errInvalidPoint
	}
	p.inner.Set(&decoded)
	return p, nil
}

// inSubgroup reports whether [order]q is the identity, using plain
// double-and-add so no scalar reduction can hide a small-order component.
func inSubgroup(q *twistededwards.PointAffine) bool {
	var acc twistededwards.PointAffine
	acc.X.SetZero()
	acc.Y.SetOne()
	for i := curveOrder.BitLen() - 1; i >= 0; i-- {
		acc.Double(&acc)
		if curveOrder.Bit(i) == 1 {
			acc.Add(&acc, q)
		}
	}
	return acc.IsZero()
}

func (p *Point) Equal(b group.Point) bool {
	return p.inner.Equal(&b.(*Point).inner)
}

func (p *Point) IsIdentity() bool {
	return p.inner.IsZero()
}

// BJJ is the Baby Jubjub [group.Group]. The zero value is ready to use.
type BJJ struct{}

// Name returns "bjj".
func (g *BJJ) Name() string {
	return "bjj"
}

func (g *BJJ) NewScalar() group.Scalar {
	return newScalar()
}

// NewPoint returns the identity.
func (g *BJJ) NewPoint() group.Point {
	var p Point
	p.inner.X.SetZero()
	p.inner.Y.SetOne()
	return &p
}

// Generator returns the gnark-crypto base point.
func (g *BJJ) Generator() group.Point {
	var p Point
	p.inner = twistededwards.GetEdwardsCurve().Base
	return &p
}

// RandomScalar reads 64 bytes from r and reduces them modulo the curve
// order, so the result is uniform in [0, curveOrder) up to a negligible
// bias.
func (g *BJJ) RandomScalar(r io.Reader) (group.Scalar, error) {
	var buf [64]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	defer clear(buf[:])
	return newScalar().SetUniformBytes(buf[:])
}

func (g *BJJ) Order() []byte {
	return curveOrder.Bytes()
}

func (g *BJJ) ScalarLen() int {
	return scalarLen
}

func (g *BJJ) PointLen() int {
	return pointLen
}
