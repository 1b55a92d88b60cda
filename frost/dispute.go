package frost

import (
	"errors"
	"fmt"
	"io"

	"github.com/f3rmion/icefrost/group"
)

// DLEQProof proves that two points share a discrete log with respect to
// two bases, stored as challenge C and response Z.
type DLEQProof struct {
	C group.Scalar
	Z group.Scalar
}

// Complaint is published by a receiver whose share failed verification.
// It reveals the pairwise shared point with a proof that it is correct, so
// any observer can decrypt the disputed ciphertext and rule on it.
type Complaint struct {
	Accuser   ParticipantIndex
	Accused   ParticipantIndex
	SharedKey group.Point // dh_accuser * DH_accused
	Share     []byte      // plaintext the accuser decrypted
	Proof     *DLEQProof
}

// dleqTranscript lists the values bound into a complaint's DLEQ challenge.
func (f *FROST) dleqTranscript(accuser, accused ParticipantIndex, accuserKey, accusedKey, shared, A1, A2 group.Point) [][]byte {
	return [][]byte{
		f.context,
		accuser.Bytes(),
		accused.Bytes(),
		accuserKey.Bytes(),
		accusedKey.Bytes(),
		shared.Bytes(),
		A1.Bytes(),
		A2.Bytes(),
	}
}

// NewComplaint builds p's complaint against the dealer of es. The proof
// shows log_G(DH_p) == log_{DH_accused}(SharedKey).
func (f *FROST) NewComplaint(r io.Reader, p *Participant, accused *Round1Message, es *EncryptedShare) (*Complaint, error) {
	if p.dhSecret == nil {
		return nil, errors.New("frost: participant secrets already released")
	}
	if es.Receiver != p.index || es.Sender != accused.Index {
		return nil, fmt.Errorf("%w: share %d->%d is not a share to %d", ErrMalformedMessage, es.Sender, es.Receiver, p.index)
	}

	shared := f.sharedPoint(p.dhSecret, accused.DHPublicKey)
	key, err := f.shareKey(shared, es.Sender, es.Receiver)
	if err != nil {
		return nil, err
	}
	defer clear(key)
	plaintext, err := f.decryptShare(key, es)
	if err != nil {
		return nil, err
	}

	k, err := f.group.RandomScalar(r)
	if err != nil {
		return nil, err
	}
	defer k.Zeroize()

	A1 := f.mulBase(k)
	A2 := f.group.NewPoint().ScalarMult(k, accused.DHPublicKey)
	c := f.hasher.ComplaintChallenge(f.group,
		f.dleqTranscript(p.index, accused.Index, p.round1.DHPublicKey, accused.DHPublicKey, shared, A1, A2)...)

	// z = k + c*dh
	z := f.group.NewScalar().Mul(c, p.dhSecret)
	z.Add(z, k)

	return &Complaint{
		Accuser:   p.index,
		Accused:   accused.Index,
		SharedKey: shared,
		Share:     plaintext,
		Proof:     &DLEQProof{C: c, Z: z},
	}, nil
}

// verifyDLEQ recomputes A1 = z*G - c*DH_accuser and
// A2 = z*DH_accused - c*K and checks the challenge.
func (f *FROST) verifyDLEQ(c *Complaint, accuser, accused *Round1Message) bool {
	if c.Proof == nil || c.Proof.C == nil || c.Proof.Z == nil || c.SharedKey == nil {
		return false
	}
	A1 := f.mulBase(c.Proof.Z)
	A1.Sub(A1, f.group.NewPoint().ScalarMult(c.Proof.C, accuser.DHPublicKey))

	A2 := f.group.NewPoint().ScalarMult(c.Proof.Z, accused.DHPublicKey)
	A2.Sub(A2, f.group.NewPoint().ScalarMult(c.Proof.C, c.SharedKey))

	challenge := f.hasher.ComplaintChallenge(f.group,
		f.dleqTranscript(c.Accuser, c.Accused, accuser.DHPublicKey, accused.DHPublicKey, c.SharedKey, A1, A2)...)
	return challenge.Equal(c.Proof.C)
}

// ResolveComplaint rules on a complaint using only public data: both
// parties' round 1 messages and the disputed ciphertext from the accused
// dealer's round 2 bundle. The returned [Accusation] names exactly one
// culprit: the accused when the share really is bad, otherwise the
// accuser with ErrComplaintInvalid. A non-nil error means the inputs do
// not belong to the complaint and no ruling was made.
func (f *FROST) ResolveComplaint(c *Complaint, accuser, accused *Round1Message, es *EncryptedShare) (*Accusation, error) {
	if c == nil || accuser == nil || accused == nil || es == nil {
		return nil, fmt.Errorf("%w: incomplete complaint transcript", ErrMalformedMessage)
	}
	if c.Accuser != accuser.Index || c.Accused != accused.Index ||
		es.Sender != c.Accused || es.Receiver != c.Accuser || c.Accuser == c.Accused {
		return nil, fmt.Errorf("%w: complaint %d->%d does not match transcript", ErrMalformedMessage, c.Accuser, c.Accused)
	}

	if !f.verifyDLEQ(c, accuser, accused) {
		return accuse(c.Accuser, fmt.Errorf("%w: bad key proof", ErrComplaintInvalid)), nil
	}

	key, err := f.shareKey(c.SharedKey, es.Sender, es.Receiver)
	if err != nil {
		return nil, err
	}
	defer clear(key)
	plaintext, err := f.decryptShare(key, es)
	if err != nil {
		return accuse(c.Accused, err), nil
	}
	defer clear(plaintext)
	if !samePlaintext(plaintext, c.Share) {
		return accuse(c.Accuser, fmt.Errorf("%w: revealed share does not match ciphertext", ErrComplaintInvalid)), nil
	}

	share, err := f.group.NewScalar().SetBytes(plaintext)
	if err != nil {
		return accuse(c.Accused, ErrShareVerificationFailed), nil
	}
	if err := f.VerifyShare(c.Accuser, share, accused.Commitment); err != nil {
		return accuse(c.Accused, err), nil
	}
	return accuse(c.Accuser, fmt.Errorf("%w: share is consistent with commitment", ErrComplaintInvalid)), nil
}

// VerifyPartial checks z_i*G == D_i + rho_i*E_i + lambda_i*c*Y_i for one
// signer. Any party holding the signing package and the public key
// package can run it; a failure is SignatureShareInvalid(index).
func (f *FROST) VerifyPartial(pkg *SigningPackage, pub *PublicKeyPackage, sig *PartialSignature) error {
	b, err := f.bind(pkg, pub.GroupKey)
	if err != nil {
		return err
	}
	return f.verifyPartial(b, pub, sig)
}

func (f *FROST) verifyPartial(b *binding, pub *PublicKeyPackage, sig *PartialSignature) error {
	comm, ok := b.commitments[sig.Index]
	if !ok {
		return fmt.Errorf("%w: %d is not a signer of this package", ErrInvalidParticipantIndex, sig.Index)
	}
	Y, ok := pub.VerificationShares[sig.Index]
	if !ok {
		return fmt.Errorf("%w: no verification share for %d", ErrInvalidParticipantIndex, sig.Index)
	}
	if sig.Z == nil {
		return SignatureShareInvalid(sig.Index)
	}

	lambda, err := LagrangeCoefficient(f.group, sig.Index, b.signers)
	if err != nil {
		return err
	}

	lhs := f.mulBase(sig.Z)
	rhs := f.group.NewPoint().ScalarMult(b.factors[sig.Index], comm.E)
	rhs.Add(rhs, comm.D)
	lc := lambda.Mul(lambda, b.challenge)
	rhs.Add(rhs, f.group.NewPoint().ScalarMult(lc, Y))

	if !lhs.Equal(rhs) {
		return SignatureShareInvalid(sig.Index)
	}
	return nil
}
