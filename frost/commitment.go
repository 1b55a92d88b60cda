package frost

import (
	"fmt"
	"io"

	"github.com/f3rmion/icefrost/group"
)

// Proof labels bound into the proof-of-knowledge challenge.
const (
	labelCoefficient = "coefficient"
	labelDHKey       = "dh-key"
)

// Commitment is a Feldman commitment {A_0 ... A_{t-1}} to a sharing
// polynomial.
type Commitment struct {
	Points []group.Point
}

// Secret returns A_0, the dealer's public contribution to the group key.
func (c *Commitment) Secret() group.Point {
	return c.Points[0]
}

// EvaluateAt returns sum_k x^k * A_k, which equals f(x)*G for the
// committed polynomial f.
func (c *Commitment) EvaluateAt(g group.Group, x group.Scalar) group.Point {
	result := g.NewPoint()
	xPower := g.NewScalar().SetUint64(1)
	for _, A := range c.Points {
		result.Add(result, g.NewPoint().ScalarMult(xPower, A))
		xPower.Mul(xPower, x)
	}
	return result
}

// checkLength reports ErrInvalidCommitmentLength unless c has exactly t
// points.
func (f *FROST) checkLength(c *Commitment) error {
	if c == nil || len(c.Points) != f.threshold {
		n := 0
		if c != nil {
			n = len(c.Points)
		}
		return fmt.Errorf("%w: got %d points, want %d", ErrInvalidCommitmentLength, n, f.threshold)
	}
	return nil
}

// VerifyShare checks share*G == sum_k receiver^k * A_k.
func (f *FROST) VerifyShare(receiver ParticipantIndex, share group.Scalar, c *Commitment) error {
	if err := f.checkLength(c); err != nil {
		return err
	}
	lhs := f.mulBase(share)
	rhs := c.EvaluateAt(f.group, receiver.Scalar(f.group))
	if !lhs.Equal(rhs) {
		return ErrShareVerificationFailed
	}
	return nil
}

// ProofOfKnowledge is a Schnorr proof of knowledge of a discrete log,
// stored as the challenge C and response Mu. The commitment R is
// recomputed as Mu*G + C*A during verification.
type ProofOfKnowledge struct {
	C  group.Scalar
	Mu group.Scalar
}

// proveKnowledge proves knowledge of secret with public = secret*G, bound
// to the session context, label and prover index.
func (f *FROST) proveKnowledge(r io.Reader, label string, index ParticipantIndex, secret group.Scalar, public group.Point) (*ProofOfKnowledge, error) {
	k, err := f.group.RandomScalar(r)
	if err != nil {
		return nil, err
	}
	defer k.Zeroize()

	R := f.mulBase(k)
	c := f.hasher.ProofChallenge(f.group, f.context, []byte(label), index.Bytes(), public.Bytes(), R.Bytes())

	// mu = k - a*c
	mu := f.group.NewScalar().Mul(secret, c)
	mu.Sub(k, mu)

	return &ProofOfKnowledge{C: c, Mu: mu}, nil
}

// verifyKnowledge checks a proof produced by proveKnowledge.
func (f *FROST) verifyKnowledge(label string, index ParticipantIndex, public group.Point, proof *ProofOfKnowledge) error {
	if proof == nil || proof.C == nil || proof.Mu == nil || public == nil {
		return ErrInvalidProofOfKnowledge
	}
	// R = mu*G + c*A
	R := f.mulBase(proof.Mu)
	R.Add(R, f.group.NewPoint().ScalarMult(proof.C, public))

	c := f.hasher.ProofChallenge(f.group, f.context, []byte(label), index.Bytes(), public.Bytes(), R.Bytes())
	if !c.Equal(proof.C) {
		return ErrInvalidProofOfKnowledge
	}
	return nil
}
