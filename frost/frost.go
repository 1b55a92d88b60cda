package frost

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/f3rmion/icefrost/group"
)

// ParticipantIndex identifies a participant within a session. Valid
// indices are 1..n; 0 denotes the group secret itself.
type ParticipantIndex uint32

// Scalar returns the index as a scalar of g.
func (i ParticipantIndex) Scalar(g group.Group) group.Scalar {
	return g.NewScalar().SetUint64(uint64(i))
}

// Bytes returns the 4-byte big-endian encoding of the index.
func (i ParticipantIndex) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(i))
}

// FROST holds the group, hash and session parameters shared by every
// operation of one DKG or signing session.
type FROST struct {
	group     group.Group
	hasher    Hasher
	threshold int    // t - minimum signers needed
	total     int    // n - total participants
	context   []byte // session-unique domain tag
}

// KeyShare is a participant's long-term output of a DKG session.
type KeyShare struct {
	Index     ParticipantIndex
	SecretKey group.Scalar // s_i
	PublicKey group.Point  // Y_i = s_i*G
	GroupKey  group.Point  // Y
}

// Zeroize overwrites the secret share.
func (k *KeyShare) Zeroize() {
	if k.SecretKey != nil {
		k.SecretKey.Zeroize()
	}
}

// PublicKeyPackage holds the public outputs of a DKG session: the group
// key and the verification share of every qualified participant.
type PublicKeyPackage struct {
	GroupKey           group.Point
	VerificationShares map[ParticipantIndex]group.Point
}

// Participants returns the sorted indices holding a verification share.
func (p *PublicKeyPackage) Participants() []ParticipantIndex {
	out := make([]ParticipantIndex, 0, len(p.VerificationShares))
	for i := range p.VerificationShares {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Signature is a Schnorr signature.
type Signature struct {
	R group.Point
	Z group.Scalar
}

// New creates a FROST instance with the default SHA-512 hasher.
// threshold is the minimum number of signers required (t), total is the
// number of participants (n) and context is a tag unique to the session.
func New(g group.Group, threshold, total int, context []byte) (*FROST, error) {
	return NewWithHasher(g, threshold, total, context, NewSHA512Hasher())
}

// NewWithHasher creates a FROST instance using the given hash function.
func NewWithHasher(g group.Group, threshold, total int, context []byte, hasher Hasher) (*FROST, error) {
	if g == nil {
		return nil, errors.New("frost: nil group")
	}
	if hasher == nil {
		return nil, errors.New("frost: nil hasher")
	}
	if threshold < 2 {
		return nil, errors.New("frost: threshold must be at least 2")
	}
	if total < threshold {
		return nil, errors.New("frost: total must be >= threshold")
	}
	if total > math.MaxUint16 {
		return nil, fmt.Errorf("frost: at most %d participants supported", math.MaxUint16)
	}

	return &FROST{
		group:     g,
		hasher:    hasher,
		threshold: threshold,
		total:     total,
		context:   slices.Clone(context),
	}, nil
}

// Group returns the group the session operates in.
func (f *FROST) Group() group.Group { return f.group }

// Hasher returns the session hash function.
func (f *FROST) Hasher() Hasher { return f.hasher }

// Threshold returns t.
func (f *FROST) Threshold() int { return f.threshold }

// Total returns n.
func (f *FROST) Total() int { return f.total }

// Context returns a copy of the session domain tag.
func (f *FROST) Context() []byte { return slices.Clone(f.context) }

// validIndex reports whether i is in [1, n].
func (f *FROST) validIndex(i ParticipantIndex) bool {
	return i >= 1 && int(i) <= f.total
}

// mulBase returns s*G.
func (f *FROST) mulBase(s group.Scalar) group.Point {
	return f.group.NewPoint().ScalarMult(s, f.group.Generator())
}
