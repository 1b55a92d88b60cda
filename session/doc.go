// Package session provides state machines for ICE-FROST ceremonies on top
// of the primitives in package [frost]. Every round takes the encoded
// broadcasts of the previous round and returns the bytes to broadcast
// next, so a host only has to move opaque messages between participants.
//
// Sessions never perform I/O and never block. Every random value is drawn
// from the io.Reader the caller supplies, so a session fed a fixed entropy
// stream replays identically.
//
// # DKG Ceremony
//
// Each participant runs the same code independently:
//
//	s, err := session.NewDKGSession(f, myIndex, rand.Reader)
//	if err != nil {
//		return err
//	}
//
//	r1, _ := s.Round1()
//	// broadcast r1, collect everyone's round 1 messages
//	if err := s.ProcessRound1(round1Msgs); err != nil {
//		return err // errors.Is(err, session.ErrAborted)
//	}
//
//	r2, _ := s.Round2()
//	// broadcast r2, collect everyone's round 2 bundles
//	complaints, err := s.ProcessRound2(round2Msgs)
//	// broadcast complaints, collect everyone's complaints
//
//	result, err := s.Finalize(allComplaints)
//	// store result.KeyShare securely; result.PublicKeys is public
//
// Participants that send invalid proofs, malformed bundles or bad shares
// are excluded and named in [DKGSession.Excluded]. A participant whose
// complaint turns out to be false is excluded instead of the accused. The
// ceremony aborts with ErrAborted when fewer than t participants remain.
//
// # Signing
//
// A [Signer] holds one nonce pair and can be used exactly once:
//
//	signer, err := session.NewSigner(f, keyShare, rand.Reader, message)
//	commitment, _ := signer.Commitment()
//	// send commitment to the coordinator, receive the signing package
//	partial, err := signer.Sign(pkg)
//
// The [Coordinator] collects commitments, publishes the package and
// aggregates the partial signatures:
//
//	coord, _ := session.NewCoordinator(f, pub, message, signers)
//	_ = coord.ProcessCommitments(commitments)
//	pkg, _ := coord.Package()
//	sig, err := coord.Aggregate(partials)
//	if err != nil {
//		culprits := frost.Culprits(err)
//	}
//
// A failed signing session cannot be retried; start a new one with fresh
// nonces, usually without the culprits.
package session
