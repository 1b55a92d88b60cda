// Package group abstracts the prime-order groups the threshold protocols
// run over. A backend supplies a [Scalar] type for the field modulo the
// group order, a [Point] type for group elements, and a [Group] value
// that creates both.
//
// Arithmetic writes its result into the receiver and returns it, so
// expressions chain without intermediate allocations:
//
//	// a + b*c
//	r := g.NewScalar().Mul(b, c)
//	r.Add(a, r)
//
// Everything the protocols put on the wire is built from the fixed-width
// encodings returned by Bytes. A backend must therefore make SetBytes
// accept only the unique canonical encoding of a reduced scalar or of a
// point in the prime-order subgroup, derive random scalars from 64 bytes
// of entropy, and have Zeroize really overwrite the secret.
//
// New backends should run the grouptest conformance suite from their
// package tests. The bjj, ed25519 and secp256k1 packages are the
// reference backends.
package group
