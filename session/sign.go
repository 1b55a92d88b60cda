package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/f3rmion/icefrost/frost"
	"github.com/f3rmion/icefrost/group"
	"github.com/f3rmion/icefrost/log"
)

// Signer produces exactly one partial signature with built-in nonce
// safety. Signing twice returns ErrNonceReuse.
//
// A Signer is safe for concurrent use.
type Signer struct {
	mu         sync.Mutex
	frost      *frost.FROST
	keyShare   *frost.KeyShare
	message    []byte
	nonce      *frost.SigningNonce
	commitment *frost.NonceCommitment
	consumed   bool
	logger     *log.Logger
}

// NewSigner draws a fresh nonce pair for signing message with share.
func NewSigner(f *frost.FROST, share *frost.KeyShare, rng io.Reader, message []byte, opts ...Option) (*Signer, error) {
	if share == nil || share.SecretKey == nil {
		return nil, errors.New("session: no key share available")
	}
	o := newOptions(opts)

	nonce, commitment, err := f.Commit(rng, share.Index)
	if err != nil {
		return nil, err
	}

	return &Signer{
		frost:      f,
		keyShare:   share,
		message:    slices.Clone(message),
		nonce:      nonce,
		commitment: commitment,
		logger:     o.logger.WithParticipant("signer", uint32(share.Index)),
	}, nil
}

// Commitment returns the encoded nonce commitment to send to the
// coordinator.
func (s *Signer) Commitment() ([]byte, error) {
	return s.commitment.MarshalBinary()
}

// Message returns the message being signed.
func (s *Signer) Message() []byte {
	return s.message
}

// Sign decodes the signing package and returns the encoded partial
// signature. The signer is consumed by the first call whatever its
// outcome, and its nonces are zeroized before Sign returns.
func (s *Signer) Sign(pkgData []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return nil, ErrNonceReuse
	}
	s.consumed = true
	defer s.nonce.Zeroize()

	pkg, err := frost.UnmarshalSigningPackage(s.frost.Group(), pkgData)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(pkg.Message, s.message) {
		return nil, errors.New("session: signing package is for a different message")
	}

	partial, err := s.frost.Sign(s.keyShare, s.nonce, pkg)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("partial signature produced", "signers", len(pkg.Commitments))
	return partial.MarshalBinary()
}

// Abort zeroizes the nonce pair without signing. The signer counts as
// consumed afterwards, so a later Sign returns ErrNonceReuse. Abort is a
// no-op on a consumed signer.
func (s *Signer) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return
	}
	s.consumed = true
	s.nonce.Zeroize()
}

// IsConsumed reports whether Sign or Abort has been called.
func (s *Signer) IsConsumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}

// SignState is the state of a [Coordinator].
type SignState int

// Signing states. Aggregated and AggregationFailed are terminal; a failed
// session must be restarted with fresh nonces.
const (
	CommitPending SignState = iota
	CommitComplete
	SignPending
	Aggregated
	AggregationFailed
)

func (s SignState) String() string {
	switch s {
	case CommitPending:
		return "commit-pending"
	case CommitComplete:
		return "commit-complete"
	case SignPending:
		return "sign-pending"
	case Aggregated:
		return "aggregated"
	case AggregationFailed:
		return "aggregation-failed"
	default:
		return fmt.Sprintf("SignState(%d)", int(s))
	}
}

// Coordinator collects nonce commitments, publishes the signing package
// and verifies and aggregates the partial signatures of one signing
// session. Any party holding the public key package can act as
// coordinator.
type Coordinator struct {
	frost   *frost.FROST
	pub     *frost.PublicKeyPackage
	message []byte
	signers []frost.ParticipantIndex
	logger  *log.Logger

	state       SignState
	commitments map[frost.ParticipantIndex]*frost.NonceCommitment
	pkg         *frost.SigningPackage
	signature   *frost.Signature
	err         error
}

// NewCoordinator prepares a signing session for message with the given
// signers. At least t signers are required, each holding a verification
// share in pub.
func NewCoordinator(f *frost.FROST, pub *frost.PublicKeyPackage, message []byte, signers []frost.ParticipantIndex, opts ...Option) (*Coordinator, error) {
	if len(signers) < f.Threshold() {
		return nil, fmt.Errorf("%w: %d signers, need %d", frost.ErrThresholdNotMet, len(signers), f.Threshold())
	}
	sorted := slices.Clone(signers)
	slices.Sort(sorted)
	for k, i := range sorted {
		if k > 0 && sorted[k-1] == i {
			return nil, fmt.Errorf("%w: %d", frost.ErrDuplicateParticipantIndex, i)
		}
		if _, ok := pub.VerificationShares[i]; !ok {
			return nil, fmt.Errorf("%w: %d holds no verification share", frost.ErrInvalidParticipantIndex, i)
		}
	}
	o := newOptions(opts)

	return &Coordinator{
		frost:       f,
		pub:         pub,
		message:     slices.Clone(message),
		signers:     sorted,
		logger:      o.logger,
		state:       CommitPending,
		commitments: make(map[frost.ParticipantIndex]*frost.NonceCommitment, len(sorted)),
	}, nil
}

// State returns the current state.
func (c *Coordinator) State() SignState { return c.state }

// Signers returns the sorted signer set.
func (c *Coordinator) Signers() []frost.ParticipantIndex { return slices.Clone(c.signers) }

// ProcessCommitments records encoded nonce commitments. It may be called
// repeatedly; once every signer has committed the session moves to
// CommitComplete.
func (c *Coordinator) ProcessCommitments(msgs [][]byte) error {
	if c.state != CommitPending {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	for _, data := range msgs {
		nc, err := frost.UnmarshalNonceCommitment(c.frost.Group(), data)
		if err != nil {
			return err
		}
		if _, ok := slices.BinarySearch(c.signers, nc.Index); !ok {
			return fmt.Errorf("%w: %d is not a signer", frost.ErrInvalidParticipantIndex, nc.Index)
		}
		if _, dup := c.commitments[nc.Index]; dup {
			return fmt.Errorf("%w: %d", frost.ErrDuplicateParticipantIndex, nc.Index)
		}
		c.commitments[nc.Index] = nc
	}
	if len(c.commitments) < len(c.signers) {
		return nil
	}

	list := make([]*frost.NonceCommitment, 0, len(c.commitments))
	for _, i := range c.signers {
		list = append(list, c.commitments[i])
	}
	pkg, err := frost.NewSigningPackage(c.message, list)
	if err != nil {
		return err
	}
	c.pkg = pkg
	c.state = CommitComplete
	c.logger.Debug("all commitments received", "signers", len(c.signers))
	return nil
}

// Package returns the encoded signing package for the signers.
func (c *Coordinator) Package() ([]byte, error) {
	if c.state != CommitComplete && c.state != SignPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	c.state = SignPending
	return c.pkg.MarshalBinary()
}

// Aggregate verifies every encoded partial signature and combines them.
// Every invalid share is reported, each as an [frost.Accusation] naming
// its signer, and the session moves to AggregationFailed.
func (c *Coordinator) Aggregate(partials [][]byte) (*frost.Signature, error) {
	if c.state != SignPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}

	sigs := make([]*frost.PartialSignature, 0, len(partials))
	for _, data := range partials {
		ps, err := frost.UnmarshalPartialSignature(c.frost.Group(), data)
		if err != nil {
			return nil, c.fail(err)
		}
		sigs = append(sigs, ps)
	}

	sig, err := c.frost.Aggregate(c.pkg, c.pub, sigs)
	if err != nil {
		return nil, c.fail(err)
	}
	c.signature = sig
	c.state = Aggregated
	c.logger.Info("signature aggregated", "signers", len(c.signers))
	return sig, nil
}

func (c *Coordinator) fail(err error) error {
	c.err = err
	c.state = AggregationFailed
	c.logger.Error("aggregation failed", "err", err, "culprits", fmt.Sprint(frost.Culprits(err)))
	return err
}

// Signature returns the aggregated signature, or nil.
func (c *Coordinator) Signature() *frost.Signature { return c.signature }

// Err returns the error that failed the session, or nil.
func (c *Coordinator) Err() error { return c.err }

// Verify checks whether a signature is valid for the given message and
// group key.
//
// Returns nil if the signature is valid, or
// frost.ErrAggregateVerificationFailed.
func Verify(f *frost.FROST, message []byte, sig *frost.Signature, groupKey group.Point) error {
	if !f.Verify(message, sig, groupKey) {
		return frost.ErrAggregateVerificationFailed
	}
	return nil
}

// QuickSign runs a complete signing session when all key shares are
// local, passing every message through its wire encoding. It is meant for
// tests and single-host setups; for distributed signing use [Signer] and
// [Coordinator].
func QuickSign(f *frost.FROST, rng io.Reader, pub *frost.PublicKeyPackage, shares []*frost.KeyShare, message []byte) (*frost.Signature, error) {
	indices := make([]frost.ParticipantIndex, len(shares))
	for k, ks := range shares {
		indices[k] = ks.Index
	}
	coord, err := NewCoordinator(f, pub, message, indices)
	if err != nil {
		return nil, err
	}

	signers := make([]*Signer, len(shares))
	defer abortAll(signers)
	commitments := make([][]byte, len(shares))
	for k, ks := range shares {
		if signers[k], err = NewSigner(f, ks, rng, message); err != nil {
			return nil, err
		}
		if commitments[k], err = signers[k].Commitment(); err != nil {
			return nil, err
		}
	}
	if err := coord.ProcessCommitments(commitments); err != nil {
		return nil, err
	}
	pkg, err := coord.Package()
	if err != nil {
		return nil, err
	}

	partials := make([][]byte, len(signers))
	for k, s := range signers {
		if partials[k], err = s.Sign(pkg); err != nil {
			return nil, err
		}
	}
	return coord.Aggregate(partials)
}

// abortAll releases the nonces of every signer that has not signed.
func abortAll(signers []*Signer) {
	for _, s := range signers {
		if s != nil {
			s.Abort()
		}
	}
}
