// Package grouptest provides a conformance suite shared by every
// [group.Group] backend.
package grouptest

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/f3rmion/icefrost/group"
)

// Run exercises the scalar and point arithmetic of g, together with the
// canonical encoding rules the protocol relies on.
func Run(t *testing.T, g group.Group) {
	t.Run("Scalar", func(t *testing.T) { testScalar(t, g) })
	t.Run("Point", func(t *testing.T) { testPoint(t, g) })
	t.Run("Encoding", func(t *testing.T) { testEncoding(t, g) })
}

func random(t *testing.T, g group.Group) group.Scalar {
	t.Helper()
	s, err := g.RandomScalar(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testScalar(t *testing.T, g group.Group) {
	t.Run("AddSub", func(t *testing.T) {
		a, b := random(t, g), random(t, g)
		sum := g.NewScalar().Add(a, b)
		if !g.NewScalar().Sub(sum, b).Equal(a) {
			t.Error("(a+b)-b != a")
		}
	})

	t.Run("MulInvert", func(t *testing.T) {
		a := random(t, g)
		aInv, err := g.NewScalar().Invert(a)
		if err != nil {
			t.Fatal(err)
		}
		one := g.NewScalar().SetUint64(1)
		if !g.NewScalar().Mul(a, aInv).Equal(one) {
			t.Error("a*a^-1 != 1")
		}
	})

	t.Run("InvertZeroFails", func(t *testing.T) {
		if _, err := g.NewScalar().Invert(g.NewScalar()); err == nil {
			t.Error("expected error inverting zero")
		}
	})

	t.Run("Negate", func(t *testing.T) {
		a := random(t, g)
		if !g.NewScalar().Add(a, g.NewScalar().Negate(a)).IsZero() {
			t.Error("a + (-a) != 0")
		}
	})

	t.Run("SetUint64", func(t *testing.T) {
		two := g.NewScalar().SetUint64(2)
		three := g.NewScalar().SetUint64(3)
		five := g.NewScalar().SetUint64(5)
		if !g.NewScalar().Add(two, three).Equal(five) {
			t.Error("2+3 != 5")
		}
		if !g.NewScalar().Sub(two, three).Equal(g.NewScalar().Negate(g.NewScalar().SetUint64(1))) {
			t.Error("2-3 != -1")
		}
	})

	t.Run("Zeroize", func(t *testing.T) {
		a := random(t, g)
		a.Zeroize()
		if !a.IsZero() {
			t.Error("zeroized scalar is not zero")
		}
	})

	t.Run("Equal", func(t *testing.T) {
		var a group.Scalar
		for {
			// a == 0 satisfies a == -a
			a = random(t, g)
			if !a.IsZero() {
				break
			}
		}
		if !a.Equal(g.NewScalar().Set(a)) {
			t.Error("copied scalar should equal original")
		}
		if a.Equal(g.NewScalar().Negate(a)) {
			t.Error("a should not equal -a")
		}
	})
}

func testPoint(t *testing.T, g group.Group) {
	t.Run("AddSub", func(t *testing.T) {
		P := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		Q := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		sum := g.NewPoint().Add(P, Q)
		if !g.NewPoint().Sub(sum, Q).Equal(P) {
			t.Error("(P+Q)-Q != P")
		}
	})

	t.Run("Negate", func(t *testing.T) {
		P := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		if !g.NewPoint().Add(P, g.NewPoint().Negate(P)).IsIdentity() {
			t.Error("P + (-P) != identity")
		}
	})

	t.Run("Doubling", func(t *testing.T) {
		P := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		twoP := g.NewPoint().ScalarMult(g.NewScalar().SetUint64(2), P)
		if !g.NewPoint().Add(P, P).Equal(twoP) {
			t.Error("P+P != 2P")
		}
	})

	t.Run("Distributive", func(t *testing.T) {
		a, b := random(t, g), random(t, g)
		lhs := g.NewPoint().ScalarMult(g.NewScalar().Add(a, b), g.Generator())
		rhs := g.NewPoint().Add(
			g.NewPoint().ScalarMult(a, g.Generator()),
			g.NewPoint().ScalarMult(b, g.Generator()),
		)
		if !lhs.Equal(rhs) {
			t.Error("(a+b)G != aG + bG")
		}
	})

	t.Run("ZeroScalarGivesIdentity", func(t *testing.T) {
		if !g.NewPoint().ScalarMult(g.NewScalar(), g.Generator()).IsIdentity() {
			t.Error("0*G != identity")
		}
	})

	t.Run("IsIdentity", func(t *testing.T) {
		if !g.NewPoint().IsIdentity() {
			t.Error("new point should be identity")
		}
		if g.Generator().IsIdentity() {
			t.Error("generator should not be identity")
		}
	})
}

func testEncoding(t *testing.T, g group.Group) {
	t.Run("ScalarRoundtrip", func(t *testing.T) {
		a := random(t, g)
		enc := a.Bytes()
		if len(enc) != g.ScalarLen() {
			t.Fatalf("scalar encoding has %d bytes, want %d", len(enc), g.ScalarLen())
		}
		restored, err := g.NewScalar().SetBytes(enc)
		if err != nil {
			t.Fatal(err)
		}
		if !restored.Equal(a) {
			t.Error("scalar bytes roundtrip failed")
		}
	})

	t.Run("ScalarRejectsNonCanonical", func(t *testing.T) {
		if _, err := g.NewScalar().SetBytes(bytes.Repeat([]byte{0xff}, g.ScalarLen())); err == nil {
			t.Error("expected error for unreduced scalar")
		}
		if _, err := g.NewScalar().SetBytes(make([]byte, g.ScalarLen()-1)); err == nil {
			t.Error("expected error for short scalar")
		}
	})

	t.Run("UniformBytes", func(t *testing.T) {
		buf := make([]byte, 64)
		if _, err := rand.Read(buf); err != nil {
			t.Fatal(err)
		}
		a, err := g.NewScalar().SetUniformBytes(buf)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := g.NewScalar().SetUniformBytes(buf)
		if !a.Equal(b) {
			t.Error("uniform reduction is not deterministic")
		}
		if _, err := g.NewScalar().SetUniformBytes(buf[:32]); err == nil {
			t.Error("expected error for short uniform input")
		}
	})

	t.Run("PointRoundtrip", func(t *testing.T) {
		P := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		enc := P.Bytes()
		if len(enc) != g.PointLen() {
			t.Fatalf("point encoding has %d bytes, want %d", len(enc), g.PointLen())
		}
		restored, err := g.NewPoint().SetBytes(enc)
		if err != nil {
			t.Fatal(err)
		}
		if !restored.Equal(P) {
			t.Error("point bytes roundtrip failed")
		}
	})

	t.Run("IdentityRoundtrip", func(t *testing.T) {
		enc := g.NewPoint().Bytes()
		if len(enc) != g.PointLen() {
			t.Fatalf("identity encoding has %d bytes, want %d", len(enc), g.PointLen())
		}
		restored, err := g.NewPoint().SetBytes(enc)
		if err != nil {
			t.Fatal(err)
		}
		if !restored.IsIdentity() {
			t.Error("identity did not roundtrip")
		}
	})

	t.Run("PointRejectsGarbage", func(t *testing.T) {
		if _, err := g.NewPoint().SetBytes(bytes.Repeat([]byte{0xff}, g.PointLen())); err == nil {
			t.Error("expected error for invalid point encoding")
		}
		if _, err := g.NewPoint().SetBytes(g.Generator().Bytes()[1:]); err == nil {
			t.Error("expected error for short point encoding")
		}
	})
}
