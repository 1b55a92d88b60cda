// Package secp256k1 implements [group.Group] for the secp256k1 curve using
// github.com/btcsuite/btcd/btcec/v2.
//
// Scalars are 32-byte big-endian integers that must be reduced modulo the
// curve order n. Points use the 33-byte SEC1 compressed encoding; the
// identity has no SEC1 form and is encoded as 33 zero bytes.
//
// btcec exposes only variable-time point arithmetic. Secret scalars only
// ever multiply the generator or a peer's public key, which is the same
// exposure every btcec-based signer accepts.
package secp256k1
