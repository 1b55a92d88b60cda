package frost

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/f3rmion/icefrost/group"
)

// SigningNonce holds a signer's one-time nonce pair. It must be used for
// exactly one signature share and is zeroized by [FROST.Sign].
type SigningNonce struct {
	Index ParticipantIndex
	D     group.Scalar // hiding nonce
	E     group.Scalar // binding nonce
}

// Zeroize overwrites both nonces.
func (n *SigningNonce) Zeroize() {
	if n.D != nil {
		n.D.Zeroize()
		n.D = nil
	}
	if n.E != nil {
		n.E.Zeroize()
		n.E = nil
	}
}

// NonceCommitment is broadcast in the commit round of signing.
type NonceCommitment struct {
	Index ParticipantIndex
	D     group.Point // hiding commitment d*G
	E     group.Point // binding commitment e*G
}

// SigningPackage is the message together with the nonce commitments of
// every participating signer, sorted by index.
type SigningPackage struct {
	Message     []byte
	Commitments []*NonceCommitment
}

// NewSigningPackage copies the message, sorts the commitments by index and
// rejects duplicate or zero indices.
func NewSigningPackage(message []byte, commitments []*NonceCommitment) (*SigningPackage, error) {
	sorted := slices.Clone(commitments)
	slices.SortFunc(sorted, func(a, b *NonceCommitment) int { return cmp.Compare(a.Index, b.Index) })
	pkg := &SigningPackage{Message: slices.Clone(message), Commitments: sorted}
	if err := pkg.validate(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (p *SigningPackage) validate() error {
	for k, c := range p.Commitments {
		if c == nil || c.D == nil || c.E == nil {
			return fmt.Errorf("%w: incomplete nonce commitment", ErrMalformedMessage)
		}
		if c.Index == 0 {
			return ErrInvalidParticipantIndex
		}
		if k > 0 {
			switch prev := p.Commitments[k-1].Index; {
			case prev == c.Index:
				return fmt.Errorf("%w: %d", ErrDuplicateParticipantIndex, c.Index)
			case prev > c.Index:
				return fmt.Errorf("%w: commitments not sorted", ErrMalformedMessage)
			}
		}
	}
	return nil
}

// Signers returns the participating indices in ascending order.
func (p *SigningPackage) Signers() []ParticipantIndex {
	out := make([]ParticipantIndex, len(p.Commitments))
	for k, c := range p.Commitments {
		out[k] = c.Index
	}
	return out
}

// Commitment returns the commitment of index, or nil.
func (p *SigningPackage) Commitment(index ParticipantIndex) *NonceCommitment {
	for _, c := range p.Commitments {
		if c.Index == index {
			return c
		}
	}
	return nil
}

// PartialSignature is one signer's share z_i of the signature.
type PartialSignature struct {
	Index ParticipantIndex
	Z     group.Scalar
}

// Commit generates a fresh nonce pair for index and its public commitment.
func (f *FROST) Commit(r io.Reader, index ParticipantIndex) (*SigningNonce, *NonceCommitment, error) {
	if !f.validIndex(index) {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidParticipantIndex, index)
	}
	d, err := f.group.RandomScalar(r)
	if err != nil {
		return nil, nil, err
	}
	e, err := f.group.RandomScalar(r)
	if err != nil {
		d.Zeroize()
		return nil, nil, err
	}

	nonce := &SigningNonce{Index: index, D: d, E: e}
	commitment := &NonceCommitment{
		Index: index,
		D:     f.mulBase(d),
		E:     f.mulBase(e),
	}
	return nonce, commitment, nil
}

// binding holds the values every signer and the coordinator derive from a
// signing package.
type binding struct {
	signers     []ParticipantIndex
	commitments map[ParticipantIndex]*NonceCommitment
	factors     map[ParticipantIndex]group.Scalar
	R           group.Point
	challenge   group.Scalar
}

// encodeCommitmentList serializes index || D || E for every signer.
func encodeCommitmentList(commitments []*NonceCommitment) []byte {
	var out []byte
	for _, c := range commitments {
		out = append(out, c.Index.Bytes()...)
		out = append(out, c.D.Bytes()...)
		out = append(out, c.E.Bytes()...)
	}
	return out
}

// bind computes rho_i = H(i, msg, list) for every signer, the group
// commitment R = sum(D_i + rho_i*E_i) and the challenge c = H(R, Y, msg).
func (f *FROST) bind(pkg *SigningPackage, groupKey group.Point) (*binding, error) {
	if err := pkg.validate(); err != nil {
		return nil, err
	}
	if len(pkg.Commitments) < f.threshold {
		return nil, fmt.Errorf("%w: %d signers", ErrThresholdNotMet, len(pkg.Commitments))
	}
	for _, c := range pkg.Commitments {
		if !f.validIndex(c.Index) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidParticipantIndex, c.Index)
		}
	}

	list := encodeCommitmentList(pkg.Commitments)
	b := &binding{
		signers:     pkg.Signers(),
		commitments: make(map[ParticipantIndex]*NonceCommitment, len(pkg.Commitments)),
		factors:     make(map[ParticipantIndex]group.Scalar, len(pkg.Commitments)),
		R:           f.group.NewPoint(),
	}
	for _, c := range pkg.Commitments {
		rho := f.hasher.BindingFactor(f.group, c.Index.Bytes(), pkg.Message, list)
		b.commitments[c.Index] = c
		b.factors[c.Index] = rho
		b.R.Add(b.R, c.D)
		b.R.Add(b.R, f.group.NewPoint().ScalarMult(rho, c.E))
	}
	b.challenge = f.hasher.Challenge(f.group, b.R.Bytes(), groupKey.Bytes(), pkg.Message)
	return b, nil
}

// Sign computes z_i = d_i + e_i*rho_i + lambda_i*s_i*c. The nonce is
// zeroized before Sign returns, whether or not it succeeds.
func (f *FROST) Sign(share *KeyShare, nonce *SigningNonce, pkg *SigningPackage) (*PartialSignature, error) {
	defer nonce.Zeroize()

	if nonce.D == nil || nonce.E == nil {
		return nil, errors.New("frost: signing nonce already consumed")
	}
	if nonce.Index != share.Index {
		return nil, fmt.Errorf("frost: nonce of %d used with key share of %d", nonce.Index, share.Index)
	}
	own := pkg.Commitment(share.Index)
	if own == nil {
		return nil, fmt.Errorf("frost: own commitment %d not in signing package", share.Index)
	}
	if !own.D.Equal(f.mulBase(nonce.D)) || !own.E.Equal(f.mulBase(nonce.E)) {
		return nil, fmt.Errorf("frost: signing package commitment for %d does not match nonce", share.Index)
	}

	b, err := f.bind(pkg, share.GroupKey)
	if err != nil {
		return nil, err
	}
	lambda, err := LagrangeCoefficient(f.group, share.Index, b.signers)
	if err != nil {
		return nil, err
	}

	z := f.group.NewScalar().Mul(nonce.E, b.factors[share.Index]) // e*rho
	z.Add(z, nonce.D)                                               // d + e*rho
	ls := lambda.Mul(lambda, share.SecretKey)                       // lambda*s
	ls.Mul(ls, b.challenge)                                         // lambda*s*c
	z.Add(z, ls)
	ls.Zeroize()

	return &PartialSignature{Index: share.Index, Z: z}, nil
}

// Aggregate verifies every partial signature against the signer's
// verification share and sums them into the final signature. All invalid
// shares are reported together as a multierror of
// SignatureShareInvalid accusations, so the coordinator learns every
// culprit in one pass.
func (f *FROST) Aggregate(pkg *SigningPackage, pub *PublicKeyPackage, sigs []*PartialSignature) (*Signature, error) {
	b, err := f.bind(pkg, pub.GroupKey)
	if err != nil {
		return nil, err
	}

	byIndex := make(map[ParticipantIndex]*PartialSignature, len(sigs))
	for _, s := range sigs {
		if _, ok := b.commitments[s.Index]; !ok {
			return nil, fmt.Errorf("%w: %d is not a signer of this package", ErrInvalidParticipantIndex, s.Index)
		}
		if _, dup := byIndex[s.Index]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateParticipantIndex, s.Index)
		}
		byIndex[s.Index] = s
	}

	var merr *multierror.Error
	z := f.group.NewScalar()
	for _, i := range b.signers {
		s, ok := byIndex[i]
		if !ok {
			return nil, fmt.Errorf("frost: missing signature share from participant %d", i)
		}
		if err := f.verifyPartial(b, pub, s); err != nil {
			var acc *Accusation
			if !errors.As(err, &acc) {
				return nil, err
			}
			merr = multierror.Append(merr, err)
			continue
		}
		z.Add(z, s.Z)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	sig := &Signature{R: b.R, Z: z}
	if !f.Verify(pkg.Message, sig, pub.GroupKey) {
		return nil, ErrAggregateVerificationFailed
	}
	return sig, nil
}

// Verify checks z*G == R + c*Y.
func (f *FROST) Verify(message []byte, sig *Signature, groupKey group.Point) bool {
	if sig == nil || sig.R == nil || sig.Z == nil || groupKey == nil {
		return false
	}
	c := f.hasher.Challenge(f.group, sig.R.Bytes(), groupKey.Bytes(), message)

	lhs := f.mulBase(sig.Z)
	rhs := f.group.NewPoint().ScalarMult(c, groupKey)
	rhs.Add(rhs, sig.R)

	return lhs.Equal(rhs)
}
