package frost

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"

	"github.com/f3rmion/icefrost/group"
)

const (
	shareKeyInfo = "icefrost-share"
	nonceLen     = chacha20.NonceSize
)

// EncryptedShare carries f_sender(receiver) encrypted under the key both
// parties derive from their key-agreement keys.
type EncryptedShare struct {
	Sender     ParticipantIndex
	Receiver   ParticipantIndex
	Nonce      []byte
	Ciphertext []byte
}

// sharedPoint returns secret*peer, the Diffie-Hellman point of a pair.
func (f *FROST) sharedPoint(secret group.Scalar, peer group.Point) group.Point {
	return f.group.NewPoint().ScalarMult(secret, peer)
}

// shareKey derives the symmetric key for shares sent from sender to
// receiver: HKDF-SHA256 over the shared point, salted with the session
// context and bound to the ordered pair.
func (f *FROST) shareKey(shared group.Point, sender, receiver ParticipantIndex) ([]byte, error) {
	info := append([]byte(shareKeyInfo), sender.Bytes()...)
	info = append(info, receiver.Bytes()...)

	key := make([]byte, chacha20.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared.Bytes(), f.context, info), key); err != nil {
		return nil, fmt.Errorf("frost: deriving share key: %w", err)
	}
	return key, nil
}

// xorKeyStream applies the ChaCha20 keystream to in.
func xorKeyStream(key, nonce, in []byte) ([]byte, error) {
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(in))
	stream.XORKeyStream(out, in)
	return out, nil
}

// encryptShare encrypts share under key with a fresh nonce drawn from r.
func (f *FROST) encryptShare(r io.Reader, key []byte, sender, receiver ParticipantIndex, share group.Scalar) (*EncryptedShare, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, err
	}
	plaintext := share.Bytes()
	defer clear(plaintext)

	ciphertext, err := xorKeyStream(key, nonce, plaintext)
	if err != nil {
		return nil, err
	}
	return &EncryptedShare{
		Sender:     sender,
		Receiver:   receiver,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// decryptShare returns the plaintext bytes of es. Framing errors yield
// ErrDecryptionFailed; whether the plaintext is a valid share is decided
// by the caller.
func (f *FROST) decryptShare(key []byte, es *EncryptedShare) ([]byte, error) {
	if len(es.Nonce) != nonceLen || len(es.Ciphertext) != f.group.ScalarLen() {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := xorKeyStream(key, es.Nonce, es.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// openShare decrypts es with the shared point and checks the result
// against the sender's commitment. The returned plaintext is always set
// when err is ErrShareVerificationFailed so the receiver can complain.
func (f *FROST) openShare(shared group.Point, es *EncryptedShare, c *Commitment) (group.Scalar, []byte, error) {
	key, err := f.shareKey(shared, es.Sender, es.Receiver)
	if err != nil {
		return nil, nil, err
	}
	defer clear(key)

	plaintext, err := f.decryptShare(key, es)
	if err != nil {
		return nil, nil, err
	}
	share, err := f.group.NewScalar().SetBytes(plaintext)
	if err != nil {
		return nil, plaintext, ErrShareVerificationFailed
	}
	if err := f.VerifyShare(es.Receiver, share, c); err != nil {
		share.Zeroize()
		return nil, plaintext, err
	}
	return share, plaintext, nil
}

// samePlaintext compares two revealed share plaintexts in constant time.
func samePlaintext(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
