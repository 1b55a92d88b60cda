package frost

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/f3rmion/icefrost/group"
)

// Round1Message is broadcast by each participant in round 1.
type Round1Message struct {
	Index       ParticipantIndex
	DHPublicKey group.Point       // key-agreement key for share encryption
	DHProof     *ProofOfKnowledge // proof of knowledge of the DH secret
	Commitment  *Commitment       // commitments to polynomial coefficients
	Proof       *ProofOfKnowledge // proof of knowledge of a_0
}

// Round2Message is broadcast by each participant in round 2. It carries
// every share the dealer produced, each encrypted to its receiver, so any
// observer can later adjudicate a complaint about one of them.
type Round2Message struct {
	Sender ParticipantIndex
	Shares []*EncryptedShare // sorted by receiver
}

// Share returns the share addressed to receiver, or nil.
func (m *Round2Message) Share(receiver ParticipantIndex) *EncryptedShare {
	for _, es := range m.Shares {
		if es.Receiver == receiver {
			return es
		}
	}
	return nil
}

// Participant holds one participant's secret state during DKG.
type Participant struct {
	index      ParticipantIndex
	polynomial *Polynomial
	dhSecret   group.Scalar
	round1     *Round1Message
	received   map[ParticipantIndex]group.Scalar // verified shares from others
}

// NewParticipant samples a sharing polynomial and a key-agreement key for
// index and prepares the participant's round 1 message.
func (f *FROST) NewParticipant(r io.Reader, index ParticipantIndex) (*Participant, error) {
	if !f.validIndex(index) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParticipantIndex, index)
	}

	poly, err := f.NewPolynomial(r)
	if err != nil {
		return nil, err
	}
	p := &Participant{
		index:      index,
		polynomial: poly,
		received:   make(map[ParticipantIndex]group.Scalar),
	}

	p.dhSecret, err = f.group.RandomScalar(r)
	if err != nil {
		p.Zeroize()
		return nil, err
	}
	dhPublic := f.mulBase(p.dhSecret)
	dhProof, err := f.proveKnowledge(r, labelDHKey, index, p.dhSecret, dhPublic)
	if err != nil {
		p.Zeroize()
		return nil, err
	}

	commitment := poly.Commit()
	proof, err := f.proveKnowledge(r, labelCoefficient, index, poly.Secret(), commitment.Secret())
	if err != nil {
		p.Zeroize()
		return nil, err
	}

	p.round1 = &Round1Message{
		Index:       index,
		DHPublicKey: dhPublic,
		DHProof:     dhProof,
		Commitment:  commitment,
		Proof:       proof,
	}
	return p, nil
}

// Index returns the participant's index.
func (p *Participant) Index() ParticipantIndex {
	return p.index
}

// Round1Message returns the message to broadcast in round 1.
func (p *Participant) Round1Message() *Round1Message {
	return p.round1
}

// Zeroize overwrites the polynomial, the key-agreement secret and every
// received share.
func (p *Participant) Zeroize() {
	if p.polynomial != nil {
		p.polynomial.Zeroize()
		p.polynomial = nil
	}
	if p.dhSecret != nil {
		p.dhSecret.Zeroize()
		p.dhSecret = nil
	}
	for i, s := range p.received {
		s.Zeroize()
		delete(p.received, i)
	}
}

// VerifyRound1 checks a round 1 message: commitment length and both
// proofs of knowledge. A failure is an [Accusation] naming the sender;
// it needs no complaint because every observer can check it alone.
func (f *FROST) VerifyRound1(m *Round1Message) error {
	if m == nil {
		return errors.New("frost: nil round 1 message")
	}
	if !f.validIndex(m.Index) {
		return fmt.Errorf("%w: %d", ErrInvalidParticipantIndex, m.Index)
	}
	if err := f.checkLength(m.Commitment); err != nil {
		return accuse(m.Index, err)
	}
	if err := f.verifyKnowledge(labelCoefficient, m.Index, m.Commitment.Secret(), m.Proof); err != nil {
		return accuse(m.Index, err)
	}
	if m.DHPublicKey == nil || m.DHPublicKey.IsIdentity() {
		return accuse(m.Index, ErrInvalidProofOfKnowledge)
	}
	if err := f.verifyKnowledge(labelDHKey, m.Index, m.DHPublicKey, m.DHProof); err != nil {
		return accuse(m.Index, err)
	}
	return nil
}

// Round2 encrypts f_p(j) to every peer j other than p itself.
func (f *FROST) Round2(r io.Reader, p *Participant, peers []*Round1Message) (*Round2Message, error) {
	if p.polynomial == nil || p.dhSecret == nil {
		return nil, errors.New("frost: participant secrets already released")
	}
	sorted := slices.Clone(peers)
	slices.SortFunc(sorted, func(a, b *Round1Message) int { return cmp.Compare(a.Index, b.Index) })

	msg := &Round2Message{Sender: p.index}
	for _, peer := range sorted {
		if peer.Index == p.index {
			continue
		}
		key, err := f.shareKey(f.sharedPoint(p.dhSecret, peer.DHPublicKey), p.index, peer.Index)
		if err != nil {
			return nil, err
		}
		share := p.polynomial.Evaluate(peer.Index.Scalar(f.group))
		es, err := f.encryptShare(r, key, p.index, peer.Index, share)
		share.Zeroize()
		clear(key)
		if err != nil {
			return nil, err
		}
		msg.Shares = append(msg.Shares, es)
	}
	return msg, nil
}

// CheckRound2 performs the public checks on a dealer's bundle: exactly one
// well-framed share for every qualified receiver other than the dealer.
// A failure is an [Accusation] naming the dealer.
func (f *FROST) CheckRound2(m *Round2Message, qualified []ParticipantIndex) error {
	seen := make(map[ParticipantIndex]struct{}, len(m.Shares))
	for _, es := range m.Shares {
		if es.Sender != m.Sender {
			return accuse(m.Sender, fmt.Errorf("%w: share claims sender %d", ErrMalformedMessage, es.Sender))
		}
		if _, dup := seen[es.Receiver]; dup {
			return accuse(m.Sender, fmt.Errorf("%w: receiver %d", ErrDuplicateParticipantIndex, es.Receiver))
		}
		seen[es.Receiver] = struct{}{}
		if len(es.Nonce) != nonceLen || len(es.Ciphertext) != f.group.ScalarLen() {
			return accuse(m.Sender, ErrDecryptionFailed)
		}
	}
	for _, j := range qualified {
		if j == m.Sender {
			continue
		}
		if _, ok := seen[j]; !ok {
			return accuse(m.Sender, fmt.Errorf("%w: for receiver %d", ErrMissingShare, j))
		}
	}
	return nil
}

// ReceiveShare decrypts the share sender dealt to p and checks it against
// the sender's commitment. On success the share is retained for Finalize.
// ErrShareVerificationFailed is returned as an [Accusation] naming the
// sender; p should then publish a complaint built with NewComplaint.
func (f *FROST) ReceiveShare(p *Participant, sender *Round1Message, es *EncryptedShare) error {
	if p.dhSecret == nil {
		return errors.New("frost: participant secrets already released")
	}
	if es.Receiver != p.index || es.Sender != sender.Index {
		return fmt.Errorf("%w: share %d->%d delivered to %d", ErrMalformedMessage, es.Sender, es.Receiver, p.index)
	}

	share, plaintext, err := f.openShare(f.sharedPoint(p.dhSecret, sender.DHPublicKey), es, sender.Commitment)
	clear(plaintext)
	if err != nil {
		return accuse(sender.Index, err)
	}
	if old, ok := p.received[sender.Index]; ok {
		old.Zeroize()
	}
	p.received[sender.Index] = share
	return nil
}

// PublicKeys derives the group key and every verification share from the
// commitments of the qualified participants. Anyone holding the round 1
// transcript can compute it.
func (f *FROST) PublicKeys(qualified []*Round1Message) (*PublicKeyPackage, error) {
	if len(qualified) < f.threshold {
		return nil, fmt.Errorf("%w: %d qualified participants", ErrThresholdNotMet, len(qualified))
	}
	groupKey := f.group.NewPoint()
	for _, m := range qualified {
		groupKey.Add(groupKey, m.Commitment.Secret())
	}

	shares := make(map[ParticipantIndex]group.Point, len(qualified))
	for _, target := range qualified {
		x := target.Index.Scalar(f.group)
		Y := f.group.NewPoint()
		for _, m := range qualified {
			Y.Add(Y, m.Commitment.EvaluateAt(f.group, x))
		}
		shares[target.Index] = Y
	}

	return &PublicKeyPackage{GroupKey: groupKey, VerificationShares: shares}, nil
}

// Finalize computes p's long-term share as the sum of every qualified
// dealer's share to p, including its own, and checks it against the
// publicly derived verification share. p's DKG secrets are zeroized
// whether or not Finalize succeeds.
func (f *FROST) Finalize(p *Participant, qualified []*Round1Message) (*KeyShare, *PublicKeyPackage, error) {
	defer p.Zeroize()

	if p.polynomial == nil {
		return nil, nil, errors.New("frost: participant secrets already released")
	}
	self := false
	for _, m := range qualified {
		if m.Index == p.index {
			self = true
		} else if _, ok := p.received[m.Index]; !ok {
			return nil, nil, fmt.Errorf("frost: no verified share from participant %d", m.Index)
		}
	}
	if !self {
		return nil, nil, fmt.Errorf("frost: participant %d is not in the qualified set", p.index)
	}

	pub, err := f.PublicKeys(qualified)
	if err != nil {
		return nil, nil, err
	}

	secret := p.polynomial.Evaluate(p.index.Scalar(f.group))
	for _, m := range qualified {
		if m.Index != p.index {
			secret.Add(secret, p.received[m.Index])
		}
	}

	public := f.mulBase(secret)
	if !public.Equal(pub.VerificationShares[p.index]) {
		secret.Zeroize()
		return nil, nil, fmt.Errorf("%w: long-term share does not match verification share", ErrShareVerificationFailed)
	}

	return &KeyShare{
		Index:     p.index,
		SecretKey: secret,
		PublicKey: public,
		GroupKey:  pub.GroupKey,
	}, pub, nil
}
