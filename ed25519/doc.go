// Package ed25519 implements [group.Group] for the prime-order subgroup of
// edwards25519 using filippo.io/edwards25519.
//
// Scalars use the 32-byte little-endian encoding of RFC 8032 and must be
// fully reduced. Points use the 32-byte compressed encoding; decoding
// rejects non-canonical y coordinates and points with a torsion component,
// so every decoded point lies in the subgroup of order
//
//	2^252 + 27742317777372353535851937790883648493
//
// All arithmetic is constant time, as provided by the underlying library.
package ed25519
