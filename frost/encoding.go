package frost

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"

	"github.com/f3rmion/icefrost/group"
)

// Every broadcast artifact has a canonical encoding: big-endian integers,
// fixed-width points and scalars, and length prefixes for variable parts.
// Decoders reject trailing bytes.

func addPoint(b *cryptobyte.Builder, p group.Point) {
	b.AddBytes(p.Bytes())
}

func addScalar(b *cryptobyte.Builder, s group.Scalar) {
	b.AddBytes(s.Bytes())
}

func readPoint(g group.Group, s *cryptobyte.String) (group.Point, bool) {
	var raw []byte
	if !s.ReadBytes(&raw, g.PointLen()) {
		return nil, false
	}
	p, err := g.NewPoint().SetBytes(raw)
	return p, err == nil
}

func readScalar(g group.Group, s *cryptobyte.String) (group.Scalar, bool) {
	var raw []byte
	if !s.ReadBytes(&raw, g.ScalarLen()) {
		return nil, false
	}
	v, err := g.NewScalar().SetBytes(raw)
	return v, err == nil
}

func readIndex(s *cryptobyte.String) (ParticipantIndex, bool) {
	var v uint32
	ok := s.ReadUint32(&v)
	return ParticipantIndex(v), ok
}

func malformed(what string) error {
	return fmt.Errorf("%w: %s", ErrMalformedMessage, what)
}

func addProof(b *cryptobyte.Builder, p *ProofOfKnowledge) {
	addScalar(b, p.C)
	addScalar(b, p.Mu)
}

func readProof(g group.Group, s *cryptobyte.String) (*ProofOfKnowledge, bool) {
	c, ok := readScalar(g, s)
	if !ok {
		return nil, false
	}
	mu, ok := readScalar(g, s)
	if !ok {
		return nil, false
	}
	return &ProofOfKnowledge{C: c, Mu: mu}, true
}

// MarshalBinary encodes the round 1 message.
func (m *Round1Message) MarshalBinary() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint32(uint32(m.Index))
	addPoint(&b, m.DHPublicKey)
	addProof(&b, m.DHProof)
	b.AddUint16(uint16(len(m.Commitment.Points)))
	for _, A := range m.Commitment.Points {
		addPoint(&b, A)
	}
	addProof(&b, m.Proof)
	return b.Bytes()
}

// UnmarshalRound1Message decodes a round 1 message. An empty commitment
// yields ErrInvalidCommitmentLength; the exact length is checked against
// t by [FROST.VerifyRound1].
func UnmarshalRound1Message(g group.Group, data []byte) (*Round1Message, error) {
	s := cryptobyte.String(data)
	m := &Round1Message{Commitment: &Commitment{}}
	var ok bool

	if m.Index, ok = readIndex(&s); !ok {
		return nil, malformed("round 1 index")
	}
	if m.DHPublicKey, ok = readPoint(g, &s); !ok {
		return nil, malformed("round 1 key-agreement key")
	}
	if m.DHProof, ok = readProof(g, &s); !ok {
		return nil, malformed("round 1 key proof")
	}
	var count uint16
	if !s.ReadUint16(&count) {
		return nil, malformed("round 1 commitment length")
	}
	if count == 0 {
		return nil, ErrInvalidCommitmentLength
	}
	for k := 0; k < int(count); k++ {
		A, ok := readPoint(g, &s)
		if !ok {
			return nil, fmt.Errorf("%w: commitment point %d", ErrInvalidCommitmentLength, k)
		}
		m.Commitment.Points = append(m.Commitment.Points, A)
	}
	if m.Proof, ok = readProof(g, &s); !ok {
		return nil, malformed("round 1 proof")
	}
	if !s.Empty() {
		return nil, malformed("trailing bytes after round 1 message")
	}
	return m, nil
}

func addEncryptedShare(b *cryptobyte.Builder, es *EncryptedShare) {
	b.AddUint32(uint32(es.Sender))
	b.AddUint32(uint32(es.Receiver))
	b.AddBytes(es.Nonce)
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(es.Ciphertext)
	})
}

func readEncryptedShare(s *cryptobyte.String) (*EncryptedShare, error) {
	es := &EncryptedShare{}
	var ok bool
	if es.Sender, ok = readIndex(s); !ok {
		return nil, malformed("encrypted share sender")
	}
	if es.Receiver, ok = readIndex(s); !ok {
		return nil, malformed("encrypted share receiver")
	}
	if !s.ReadBytes(&es.Nonce, nonceLen) {
		return nil, ErrDecryptionFailed
	}
	var ct cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&ct) {
		return nil, ErrDecryptionFailed
	}
	es.Nonce = append([]byte(nil), es.Nonce...)
	es.Ciphertext = append([]byte(nil), ct...)
	return es, nil
}

// MarshalBinary encodes the encrypted share.
func (es *EncryptedShare) MarshalBinary() ([]byte, error) {
	if len(es.Nonce) != nonceLen {
		return nil, ErrDecryptionFailed
	}
	var b cryptobyte.Builder
	addEncryptedShare(&b, es)
	return b.Bytes()
}

// UnmarshalEncryptedShare decodes an encrypted share. Ciphertext length is
// checked on decryption.
func UnmarshalEncryptedShare(data []byte) (*EncryptedShare, error) {
	s := cryptobyte.String(data)
	es, err := readEncryptedShare(&s)
	if err != nil {
		return nil, err
	}
	if !s.Empty() {
		return nil, malformed("trailing bytes after encrypted share")
	}
	return es, nil
}

// MarshalBinary encodes the round 2 bundle.
func (m *Round2Message) MarshalBinary() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint32(uint32(m.Sender))
	b.AddUint16(uint16(len(m.Shares)))
	for _, es := range m.Shares {
		if len(es.Nonce) != nonceLen {
			return nil, ErrDecryptionFailed
		}
		addEncryptedShare(&b, es)
	}
	return b.Bytes()
}

// UnmarshalRound2Message decodes a round 2 bundle.
func UnmarshalRound2Message(data []byte) (*Round2Message, error) {
	s := cryptobyte.String(data)
	m := &Round2Message{}
	var ok bool
	if m.Sender, ok = readIndex(&s); !ok {
		return nil, malformed("round 2 sender")
	}
	var count uint16
	if !s.ReadUint16(&count) {
		return nil, malformed("round 2 share count")
	}
	for k := 0; k < int(count); k++ {
		es, err := readEncryptedShare(&s)
		if err != nil {
			return nil, err
		}
		m.Shares = append(m.Shares, es)
	}
	if !s.Empty() {
		return nil, malformed("trailing bytes after round 2 message")
	}
	return m, nil
}

// MarshalBinary encodes the complaint.
func (c *Complaint) MarshalBinary() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint32(uint32(c.Accuser))
	b.AddUint32(uint32(c.Accused))
	addPoint(&b, c.SharedKey)
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(c.Share)
	})
	addScalar(&b, c.Proof.C)
	addScalar(&b, c.Proof.Z)
	return b.Bytes()
}

// UnmarshalComplaint decodes a complaint.
func UnmarshalComplaint(g group.Group, data []byte) (*Complaint, error) {
	s := cryptobyte.String(data)
	c := &Complaint{Proof: &DLEQProof{}}
	var ok bool
	if c.Accuser, ok = readIndex(&s); !ok {
		return nil, malformed("complaint accuser")
	}
	if c.Accused, ok = readIndex(&s); !ok {
		return nil, malformed("complaint accused")
	}
	if c.SharedKey, ok = readPoint(g, &s); !ok {
		return nil, malformed("complaint shared key")
	}
	var share cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&share) {
		return nil, malformed("complaint share")
	}
	c.Share = append([]byte(nil), share...)
	if c.Proof.C, ok = readScalar(g, &s); !ok {
		return nil, malformed("complaint proof")
	}
	if c.Proof.Z, ok = readScalar(g, &s); !ok {
		return nil, malformed("complaint proof")
	}
	if !s.Empty() {
		return nil, malformed("trailing bytes after complaint")
	}
	return c, nil
}

func addNonceCommitment(b *cryptobyte.Builder, c *NonceCommitment) {
	b.AddUint32(uint32(c.Index))
	addPoint(b, c.D)
	addPoint(b, c.E)
}

func readNonceCommitment(g group.Group, s *cryptobyte.String) (*NonceCommitment, bool) {
	c := &NonceCommitment{}
	var ok bool
	if c.Index, ok = readIndex(s); !ok {
		return nil, false
	}
	if c.D, ok = readPoint(g, s); !ok {
		return nil, false
	}
	if c.E, ok = readPoint(g, s); !ok {
		return nil, false
	}
	return c, true
}

// MarshalBinary encodes the nonce commitment.
func (c *NonceCommitment) MarshalBinary() ([]byte, error) {
	var b cryptobyte.Builder
	addNonceCommitment(&b, c)
	return b.Bytes()
}

// UnmarshalNonceCommitment decodes a nonce commitment.
func UnmarshalNonceCommitment(g group.Group, data []byte) (*NonceCommitment, error) {
	s := cryptobyte.String(data)
	c, ok := readNonceCommitment(g, &s)
	if !ok {
		return nil, malformed("nonce commitment")
	}
	if !s.Empty() {
		return nil, malformed("trailing bytes after nonce commitment")
	}
	return c, nil
}

// MarshalBinary encodes the signing package.
func (p *SigningPackage) MarshalBinary() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(p.Message)
	})
	b.AddUint16(uint16(len(p.Commitments)))
	for _, c := range p.Commitments {
		addNonceCommitment(&b, c)
	}
	return b.Bytes()
}

// UnmarshalSigningPackage decodes a signing package and checks that its
// commitments are sorted and unique.
func UnmarshalSigningPackage(g group.Group, data []byte) (*SigningPackage, error) {
	s := cryptobyte.String(data)
	var n uint32
	var msg []byte
	if !s.ReadUint32(&n) || uint64(n) > uint64(len(s)) || !s.ReadBytes(&msg, int(n)) {
		return nil, malformed("signing package message")
	}
	var count uint16
	if !s.ReadUint16(&count) {
		return nil, malformed("signing package commitment count")
	}
	pkg := &SigningPackage{Message: append([]byte{}, msg...)}
	for k := 0; k < int(count); k++ {
		c, ok := readNonceCommitment(g, &s)
		if !ok {
			return nil, malformed("signing package commitment")
		}
		pkg.Commitments = append(pkg.Commitments, c)
	}
	if !s.Empty() {
		return nil, malformed("trailing bytes after signing package")
	}
	if err := pkg.validate(); err != nil {
		return nil, err
	}
	return pkg, nil
}

// MarshalBinary encodes the partial signature.
func (p *PartialSignature) MarshalBinary() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint32(uint32(p.Index))
	addScalar(&b, p.Z)
	return b.Bytes()
}

// UnmarshalPartialSignature decodes a partial signature.
func UnmarshalPartialSignature(g group.Group, data []byte) (*PartialSignature, error) {
	s := cryptobyte.String(data)
	p := &PartialSignature{}
	var ok bool
	if p.Index, ok = readIndex(&s); !ok {
		return nil, malformed("partial signature index")
	}
	if p.Z, ok = readScalar(g, &s); !ok {
		return nil, malformed("partial signature value")
	}
	if !s.Empty() {
		return nil, malformed("trailing bytes after partial signature")
	}
	return p, nil
}

// MarshalBinary encodes the signature as R || z.
func (sig *Signature) MarshalBinary() ([]byte, error) {
	var b cryptobyte.Builder
	addPoint(&b, sig.R)
	addScalar(&b, sig.Z)
	return b.Bytes()
}

// UnmarshalSignature decodes a signature.
func UnmarshalSignature(g group.Group, data []byte) (*Signature, error) {
	s := cryptobyte.String(data)
	sig := &Signature{}
	var ok bool
	if sig.R, ok = readPoint(g, &s); !ok {
		return nil, malformed("signature commitment")
	}
	if sig.Z, ok = readScalar(g, &s); !ok {
		return nil, malformed("signature value")
	}
	if !s.Empty() {
		return nil, malformed("trailing bytes after signature")
	}
	return sig, nil
}
