// Package bjj implements [group.Group] over the prime-order subgroup of
// Baby Jubjub, the twisted Edwards curve embedded in the BN254 scalar
// field:
//
//	168700*x^2 + y^2 = 1 + 168696*x^2*y^2
//
// Its subgroup order is
//
//	2736030358979909402780800718157159386076813972158567259200215660948447373041
//
// and the full curve has cofactor 8. Baby Jubjub keys can be checked
// cheaply inside SNARK circuits, which makes this backend the natural
// choice when signatures are later verified in zero knowledge.
//
// Arithmetic is delegated to gnark-crypto. A [Scalar] is a 32-byte
// big-endian integer below the subgroup order; a [Point] is the 32-byte
// compressed gnark-crypto encoding. SetBytes rejects non-canonical input
// and points outside the prime-order subgroup.
//
//	f, err := frost.New(&bjj.BJJ{}, 2, 3, []byte("my-ceremony"))
//
// Scalars are backed by math/big and are not constant time.
package bjj
