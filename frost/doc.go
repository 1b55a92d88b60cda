// Package frost implements ICE-FROST, a t-of-n threshold Schnorr signature
// scheme with identifiable cheating, over an arbitrary prime-order group.
//
// Every operation that fails because of a provable deviation returns an
// [Accusation] naming the participant at fault. Errors of that kind wrap
// one of the package sentinels, so callers can test both with errors.Is
// and errors.As, and [Culprits] lists every participant named in an error.
//
// # Distributed Key Generation
//
// The DKG proceeds in two broadcast rounds followed by an optional
// complaint phase:
//
//  1. Each participant samples a degree t-1 polynomial and a key-agreement
//     key with [FROST.NewParticipant] and broadcasts its [Round1Message]:
//     Feldman commitments, the key-agreement public key and a proof of
//     knowledge for each secret. Receivers check it with
//     [FROST.VerifyRound1].
//  2. Each participant encrypts f_i(j) to every peer j with
//     [FROST.Round2] and broadcasts the bundle. Receivers check the bundle
//     with [FROST.CheckRound2] and open their own share with
//     [FROST.ReceiveShare].
//  3. A receiver whose share fails verification publishes a [Complaint]
//     built with [FROST.NewComplaint]. It reveals the pairwise shared key
//     with a proof that it is correct, so any party can decide the dispute
//     with [FROST.ResolveComplaint] from public data alone.
//  4. Each participant derives its [KeyShare] and the [PublicKeyPackage]
//     from the qualified set with [FROST.Finalize].
//
// # Threshold Signing
//
// Any t or more holders of key shares can sign:
//
//  1. Each signer draws a fresh nonce pair with [FROST.Commit] and
//     publishes the [NonceCommitment].
//  2. The coordinator assembles a [SigningPackage] from the message and
//     the commitments.
//  3. Each signer produces a [PartialSignature] with [FROST.Sign]. The
//     nonce is zeroized by the call and cannot be used again.
//  4. [FROST.Aggregate] checks every partial signature against the
//     signer's verification share, reports all bad shares at once and
//     returns the final [Signature].
//
// Anyone can check the result with [FROST.Verify].
//
// # Example
//
//	f, _ := frost.New(&ed25519.Ed25519{}, 2, 3, []byte("session-42"))
//
//	nonce, commitment, _ := f.Commit(rand.Reader, share.Index)
//	// ... collect commitments from the other signers ...
//	pkg, _ := frost.NewSigningPackage(message, commitments)
//	partial, _ := f.Sign(share, nonce, pkg)
//	// ... collect partial signatures ...
//	sig, err := f.Aggregate(pkg, pub, partials)
//	if err != nil {
//	    for _, i := range frost.Culprits(err) {
//	        log.Printf("participant %d sent an invalid share", i)
//	    }
//	}
//
// # Wire Format
//
// Every broadcast type implements encoding.BinaryMarshaler and has a
// matching Unmarshal function. Decoders reject non-canonical scalars,
// points outside the prime-order group and trailing bytes.
//
// # Security Considerations
//
// The context passed to [New] must be unique per session; it is bound into
// every proof and every share encryption key. Nonces must never be
// reused. Share ciphertexts are not authenticated: integrity comes from
// the Feldman check and the complaint procedure.
package frost
