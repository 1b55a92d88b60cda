package frost

import (
	"crypto/sha512"
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/f3rmion/icefrost/group"
)

// Domain separation tags. Each hash use gets its own tag so a value
// computed for one purpose can never be replayed as another.
const (
	tagProof     = "pok"
	tagBinding   = "rho"
	tagChallenge = "chal"
	tagDLEQ      = "dleq"
)

// Hasher defines the hash-to-scalar operations of the protocol.
// Different implementations can provide different hash functions and
// domain separation prefixes.
type Hasher interface {
	// ProofChallenge computes the challenge of a proof of knowledge of the
	// discrete log of public. label distinguishes the coefficient proof
	// from the key-agreement key proof.
	ProofChallenge(g group.Group, context, label, index, public, R []byte) group.Scalar

	// BindingFactor computes rho_i for a signer.
	// Inputs: signer index, message, encoded commitment list.
	BindingFactor(g group.Group, index, msg, encCommitList []byte) group.Scalar

	// Challenge computes the Schnorr challenge c = H(R, Y, msg).
	Challenge(g group.Group, R, Y, msg []byte) group.Scalar

	// ComplaintChallenge computes the challenge of the equality-of-discrete-
	// logs proof attached to a complaint.
	ComplaintChallenge(g group.Group, transcript ...[]byte) group.Scalar
}

// DefaultPrefix is the domain separation prefix of [SHA512Hasher].
const DefaultPrefix = "ICEFROST-SHA512-v1"

// writeFramed writes prefix, tag and each input preceded by its 8-byte
// length, so distinct input tuples never hash the same bytes.
func writeFramed(w hash.Hash, prefix, tag string, data [][]byte) {
	var n [8]byte
	for _, d := range append([][]byte{[]byte(prefix), []byte(tag)}, data...) {
		binary.BigEndian.PutUint64(n[:], uint64(len(d)))
		w.Write(n[:])
		w.Write(d)
	}
}

func uniformScalar(g group.Group, digest []byte) group.Scalar {
	// Both hashers produce exactly 64 bytes.
	s, _ := g.NewScalar().SetUniformBytes(digest)
	return s
}

// SHA512Hasher implements Hasher using SHA-512 with a 64-byte wide
// reduction. This is the default hasher.
type SHA512Hasher struct {
	Prefix string
}

// NewSHA512Hasher creates a SHA512Hasher with [DefaultPrefix].
func NewSHA512Hasher() *SHA512Hasher {
	return &SHA512Hasher{Prefix: DefaultPrefix}
}

func (h *SHA512Hasher) hashToScalar(g group.Group, tag string, data ...[]byte) group.Scalar {
	hasher := sha512.New()
	writeFramed(hasher, h.Prefix, tag, data)
	return uniformScalar(g, hasher.Sum(nil))
}

// ProofChallenge implements Hasher.ProofChallenge.
func (h *SHA512Hasher) ProofChallenge(g group.Group, context, label, index, public, R []byte) group.Scalar {
	return h.hashToScalar(g, tagProof, context, label, index, public, R)
}

// BindingFactor implements Hasher.BindingFactor.
func (h *SHA512Hasher) BindingFactor(g group.Group, index, msg, encCommitList []byte) group.Scalar {
	return h.hashToScalar(g, tagBinding, index, msg, encCommitList)
}

// Challenge implements Hasher.Challenge.
func (h *SHA512Hasher) Challenge(g group.Group, R, Y, msg []byte) group.Scalar {
	return h.hashToScalar(g, tagChallenge, R, Y, msg)
}

// ComplaintChallenge implements Hasher.ComplaintChallenge.
func (h *SHA512Hasher) ComplaintChallenge(g group.Group, transcript ...[]byte) group.Scalar {
	return h.hashToScalar(g, tagDLEQ, transcript...)
}

// Blake2bHasher implements Hasher using Blake2b-512.
//
// Domain separation format: prefix + tag + inputs, each length-framed.
type Blake2bHasher struct {
	// Prefix is the domain separation prefix.
	// Default: "ICEFROST-BLAKE2B512-v1"
	Prefix string
}

// NewBlake2bHasher creates a Blake2bHasher with the default prefix.
func NewBlake2bHasher() *Blake2bHasher {
	return &Blake2bHasher{
		Prefix: "ICEFROST-BLAKE2B512-v1",
	}
}

func (h *Blake2bHasher) hashToScalar(g group.Group, tag string, data ...[]byte) group.Scalar {
	hasher, _ := blake2b.New512(nil)
	writeFramed(hasher, h.Prefix, tag, data)
	return uniformScalar(g, hasher.Sum(nil))
}

// ProofChallenge implements Hasher.ProofChallenge.
func (h *Blake2bHasher) ProofChallenge(g group.Group, context, label, index, public, R []byte) group.Scalar {
	return h.hashToScalar(g, tagProof, context, label, index, public, R)
}

// BindingFactor implements Hasher.BindingFactor.
func (h *Blake2bHasher) BindingFactor(g group.Group, index, msg, encCommitList []byte) group.Scalar {
	return h.hashToScalar(g, tagBinding, index, msg, encCommitList)
}

// Challenge implements Hasher.Challenge.
func (h *Blake2bHasher) Challenge(g group.Group, R, Y, msg []byte) group.Scalar {
	return h.hashToScalar(g, tagChallenge, R, Y, msg)
}

// ComplaintChallenge implements Hasher.ComplaintChallenge.
func (h *Blake2bHasher) ComplaintChallenge(g group.Group, transcript ...[]byte) group.Scalar {
	return h.hashToScalar(g, tagDLEQ, transcript...)
}
