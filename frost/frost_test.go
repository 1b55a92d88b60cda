package frost

import (
	"crypto/rand"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/f3rmion/icefrost/bjj"
	"github.com/f3rmion/icefrost/ed25519"
	"github.com/f3rmion/icefrost/group"
	"github.com/f3rmion/icefrost/secp256k1"
)

var testContext = []byte("frost-test-session")

func newFROST(t *testing.T, g group.Group, threshold, total int) *FROST {
	t.Helper()
	f, err := New(g, threshold, total, testContext)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// runRounds executes round 1 and round 2 for every participant and
// returns their state together with both broadcast transcripts.
func runRounds(t *testing.T, f *FROST) ([]*Participant, []*Round1Message, []*Round2Message) {
	t.Helper()
	n := f.Total()

	participants := make([]*Participant, n)
	round1 := make([]*Round1Message, n)
	for i := range participants {
		p, err := f.NewParticipant(rand.Reader, ParticipantIndex(i+1))
		if err != nil {
			t.Fatalf("failed to create participant %d: %v", i+1, err)
		}
		participants[i] = p
		round1[i] = p.Round1Message()
	}
	for _, m := range round1 {
		if err := f.VerifyRound1(m); err != nil {
			t.Fatalf("round 1 message of %d rejected: %v", m.Index, err)
		}
	}

	round2 := make([]*Round2Message, n)
	for i, p := range participants {
		m, err := f.Round2(rand.Reader, p, round1)
		if err != nil {
			t.Fatalf("participant %d failed round 2: %v", i+1, err)
		}
		round2[i] = m
	}
	return participants, round1, round2
}

// deliver opens every share addressed to p and returns the dealers whose
// share failed.
func deliver(t *testing.T, f *FROST, p *Participant, round1 []*Round1Message, round2 []*Round2Message) []ParticipantIndex {
	t.Helper()
	var failed []ParticipantIndex
	for k, bundle := range round2 {
		if bundle.Sender == p.Index() {
			continue
		}
		if err := f.ReceiveShare(p, round1[k], bundle.Share(p.Index())); err != nil {
			var acc *Accusation
			if !errors.As(err, &acc) {
				t.Fatalf("participant %d: unexpected error: %v", p.Index(), err)
			}
			failed = append(failed, acc.Culprit)
		}
	}
	return failed
}

func runDKG(t *testing.T, f *FROST) ([]*KeyShare, *PublicKeyPackage) {
	t.Helper()
	participants, round1, round2 := runRounds(t, f)

	for _, bundle := range round2 {
		all := make([]ParticipantIndex, len(round1))
		for k, m := range round1 {
			all[k] = m.Index
		}
		if err := f.CheckRound2(bundle, all); err != nil {
			t.Fatalf("bundle of %d rejected: %v", bundle.Sender, err)
		}
	}

	shares := make([]*KeyShare, len(participants))
	var pub *PublicKeyPackage
	for i, p := range participants {
		if failed := deliver(t, f, p, round1, round2); len(failed) > 0 {
			t.Fatalf("participant %d rejected shares from %v", i+1, failed)
		}
		ks, pk, err := f.Finalize(p, round1)
		if err != nil {
			t.Fatalf("participant %d failed to finalize: %v", i+1, err)
		}
		shares[i] = ks
		pub = pk
	}

	for i := 1; i < len(shares); i++ {
		if !shares[i].GroupKey.Equal(shares[0].GroupKey) {
			t.Fatal("participants have different group keys")
		}
	}
	return shares, pub
}

func signWith(t *testing.T, f *FROST, signers []*KeyShare, message []byte) (*SigningPackage, []*PartialSignature) {
	t.Helper()
	nonces := make([]*SigningNonce, len(signers))
	commitments := make([]*NonceCommitment, len(signers))
	for i, ks := range signers {
		n, c, err := f.Commit(rand.Reader, ks.Index)
		if err != nil {
			t.Fatal(err)
		}
		nonces[i] = n
		commitments[i] = c
	}
	pkg, err := NewSigningPackage(message, commitments)
	if err != nil {
		t.Fatal(err)
	}

	partials := make([]*PartialSignature, len(signers))
	for i, ks := range signers {
		ps, err := f.Sign(ks, nonces[i], pkg)
		if err != nil {
			t.Fatalf("signer %d failed: %v", ks.Index, err)
		}
		partials[i] = ps
	}
	return pkg, partials
}

func TestDKGAndSign(t *testing.T) {
	groups := []group.Group{&bjj.BJJ{}, &ed25519.Ed25519{}, &secp256k1.Secp256k1{}}
	for _, g := range groups {
		t.Run(g.Name(), func(t *testing.T) {
			f := newFROST(t, g, 2, 3)
			shares, pub := runDKG(t, f)

			for _, ks := range shares {
				if !ks.PublicKey.Equal(pub.VerificationShares[ks.Index]) {
					t.Errorf("participant %d: public key differs from verification share", ks.Index)
				}
			}

			message := []byte("hello")
			for _, subset := range [][]int{{0, 2}, {0, 1}} {
				signers := []*KeyShare{shares[subset[0]], shares[subset[1]]}
				pkg, partials := signWith(t, f, signers, message)

				sig, err := f.Aggregate(pkg, pub, partials)
				if err != nil {
					t.Fatalf("failed to aggregate signature: %v", err)
				}
				if !f.Verify(message, sig, pub.GroupKey) {
					t.Error("signature verification failed")
				}
				if f.Verify([]byte("wrong message"), sig, pub.GroupKey) {
					t.Error("signature should not verify with wrong message")
				}
			}
		})
	}
}

func TestReconstructionFromEverySubset(t *testing.T) {
	g := &bjj.BJJ{}
	f := newFROST(t, g, 3, 5)
	shares, pub := runDKG(t, f)

	for _, subset := range subsets(len(shares), 3) {
		evals := make([]Evaluation, len(subset))
		for k, idx := range subset {
			evals[k] = Evaluation{Index: shares[idx].Index, Value: shares[idx].SecretKey}
		}
		secret, err := Interpolate(g, f.Threshold(), evals)
		if err != nil {
			t.Fatal(err)
		}
		if !f.mulBase(secret).Equal(pub.GroupKey) {
			t.Errorf("subset %v reconstructs a different secret", subset)
		}
	}
}

// subsets returns every k-element subset of {0..n-1}.
func subsets(n, k int) [][]int {
	if k == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for first := 0; first <= n-k; first++ {
		for _, rest := range subsets(n-first-1, k-1) {
			s := []int{first}
			for _, r := range rest {
				s = append(s, first+1+r)
			}
			out = append(out, s)
		}
	}
	return out
}

func TestSigningWithDifferentSignerSubsets(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 4)
	shares, pub := runDKG(t, f)
	message := []byte("test message")

	var all [][]int
	for k := 2; k <= 4; k++ {
		all = append(all, subsets(4, k)...)
	}
	for _, subset := range all {
		t.Run(subsetName(subset), func(t *testing.T) {
			signers := make([]*KeyShare, len(subset))
			for i, idx := range subset {
				signers[i] = shares[idx]
			}
			pkg, partials := signWith(t, f, signers, message)
			sig, err := f.Aggregate(pkg, pub, partials)
			if err != nil {
				t.Fatal(err)
			}
			if !f.Verify(message, sig, pub.GroupKey) {
				t.Error("signature verification failed")
			}
		})
	}
}

func subsetName(subset []int) string {
	name := "signers"
	for _, idx := range subset {
		name += fmt.Sprintf("_%d", idx+1)
	}
	return name
}

func TestSigningWithDifferentThresholds(t *testing.T) {
	configs := []struct {
		threshold int
		total     int
	}{
		{2, 3},
		{2, 5},
		{3, 5},
		{3, 7},
	}

	for _, cfg := range configs {
		t.Run(fmt.Sprintf("%d_of_%d", cfg.threshold, cfg.total), func(t *testing.T) {
			f := newFROST(t, &ed25519.Ed25519{}, cfg.threshold, cfg.total)
			shares, pub := runDKG(t, f)

			message := []byte("threshold test")
			pkg, partials := signWith(t, f, shares[cfg.total-cfg.threshold:], message)
			sig, err := f.Aggregate(pkg, pub, partials)
			if err != nil {
				t.Fatal(err)
			}
			if !f.Verify(message, sig, pub.GroupKey) {
				t.Error("signature verification failed")
			}
		})
	}
}

func TestBelowThresholdCannotSign(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 3, 4)
	shares, _ := runDKG(t, f)

	_, c1, _ := f.Commit(rand.Reader, shares[0].Index)
	n2, c2, _ := f.Commit(rand.Reader, shares[1].Index)
	pkg, err := NewSigningPackage([]byte("msg"), []*NonceCommitment{c1, c2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Sign(shares[1], n2, pkg); !errors.Is(err, ErrThresholdNotMet) {
		t.Errorf("expected ErrThresholdNotMet, got %v", err)
	}
}

func TestInvalidProofOfKnowledge(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 3)
	p, err := f.NewParticipant(rand.Reader, 2)
	if err != nil {
		t.Fatal(err)
	}
	m := p.Round1Message()
	m.Proof.Mu.Add(m.Proof.Mu, f.group.NewScalar().SetUint64(1))

	err = f.VerifyRound1(m)
	if !errors.Is(err, ErrInvalidProofOfKnowledge) {
		t.Fatalf("expected ErrInvalidProofOfKnowledge, got %v", err)
	}
	if got := Culprits(err); !slices.Equal(got, []ParticipantIndex{2}) {
		t.Errorf("culprits = %v, want [2]", got)
	}
}

func TestProofBoundToContext(t *testing.T) {
	g := &bjj.BJJ{}
	f := newFROST(t, g, 2, 3)
	other, err := New(g, 2, 3, []byte("another-session"))
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.NewParticipant(rand.Reader, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := other.VerifyRound1(p.Round1Message()); !errors.Is(err, ErrInvalidProofOfKnowledge) {
		t.Errorf("proof replayed into another session: %v", err)
	}
}

func TestWrongCommitmentLength(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 3, 4)
	p, err := f.NewParticipant(rand.Reader, 1)
	if err != nil {
		t.Fatal(err)
	}
	m := p.Round1Message()
	m.Commitment.Points = m.Commitment.Points[:2]
	if err := f.VerifyRound1(m); !errors.Is(err, ErrInvalidCommitmentLength) {
		t.Errorf("expected ErrInvalidCommitmentLength, got %v", err)
	}
}

func TestBadShareIsIdentified(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 3)
	participants, round1, round2 := runRounds(t, f)

	// Dealer 2 corrupts its share to participant 3.
	es := round2[1].Share(3)
	es.Ciphertext[len(es.Ciphertext)-1] ^= 0x01

	if failed := deliver(t, f, participants[0], round1, round2); len(failed) != 0 {
		t.Fatalf("participant 1 rejected %v", failed)
	}
	failed := deliver(t, f, participants[2], round1, round2)
	if !slices.Equal(failed, []ParticipantIndex{2}) {
		t.Fatalf("participant 3 rejected %v, want [2]", failed)
	}

	complaint, err := f.NewComplaint(rand.Reader, participants[2], round1[1], es)
	if err != nil {
		t.Fatal(err)
	}

	// Any observer, here with only public data, blames the dealer.
	acc, err := f.ResolveComplaint(complaint, round1[2], round1[1], es)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Culprit != 2 {
		t.Fatalf("culprit = %d, want 2", acc.Culprit)
	}
	if !errors.Is(acc, ErrShareVerificationFailed) {
		t.Errorf("expected ErrShareVerificationFailed, got %v", acc)
	}

	// The rest finish without the dealer.
	qualified := []*Round1Message{round1[0], round1[2]}
	ks1, pub1, err := f.Finalize(participants[0], qualified)
	if err != nil {
		t.Fatal(err)
	}
	ks3, pub3, err := f.Finalize(participants[2], qualified)
	if err != nil {
		t.Fatal(err)
	}
	if !pub1.GroupKey.Equal(pub3.GroupKey) {
		t.Fatal("qualified participants disagree on the group key")
	}
	if got := pub1.Participants(); !slices.Equal(got, []ParticipantIndex{1, 3}) {
		t.Errorf("verification shares for %v, want [1 3]", got)
	}

	message := []byte("after dispute")
	pkg, partials := signWith(t, f, []*KeyShare{ks1, ks3}, message)
	sig, err := f.Aggregate(pkg, pub1, partials)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Verify(message, sig, pub1.GroupKey) {
		t.Error("signature verification failed")
	}
}

func TestFalseComplaintBlamesAccuser(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 3)
	participants, round1, round2 := runRounds(t, f)

	// Participant 3 complains about a share from 1 that is valid.
	es := round2[0].Share(3)
	complaint, err := f.NewComplaint(rand.Reader, participants[2], round1[0], es)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("HonestProof", func(t *testing.T) {
		acc, err := f.ResolveComplaint(complaint, round1[2], round1[0], es)
		if err != nil {
			t.Fatal(err)
		}
		if acc.Culprit != 3 || !errors.Is(acc, ErrComplaintInvalid) {
			t.Errorf("got %v, want complaint invalid by 3", acc)
		}
	})

	t.Run("WrongSharedKey", func(t *testing.T) {
		forged := *complaint
		forged.SharedKey = f.group.NewPoint().Add(complaint.SharedKey, f.group.Generator())
		acc, err := f.ResolveComplaint(&forged, round1[2], round1[0], es)
		if err != nil {
			t.Fatal(err)
		}
		if acc.Culprit != 3 || !errors.Is(acc, ErrComplaintInvalid) {
			t.Errorf("got %v, want complaint invalid by 3", acc)
		}
	})

	t.Run("WrongPlaintext", func(t *testing.T) {
		forged := *complaint
		forged.Share = slices.Clone(complaint.Share)
		forged.Share[0] ^= 0x80
		acc, err := f.ResolveComplaint(&forged, round1[2], round1[0], es)
		if err != nil {
			t.Fatal(err)
		}
		if acc.Culprit != 3 || !errors.Is(acc, ErrComplaintInvalid) {
			t.Errorf("got %v, want complaint invalid by 3", acc)
		}
	})

	t.Run("MismatchedTranscript", func(t *testing.T) {
		if _, err := f.ResolveComplaint(complaint, round1[1], round1[0], es); !errors.Is(err, ErrMalformedMessage) {
			t.Errorf("expected ErrMalformedMessage, got %v", err)
		}
	})
}

func TestMissingShareInBundle(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 3)
	_, _, round2 := runRounds(t, f)

	bundle := round2[0]
	bundle.Shares = bundle.Shares[:1]
	err := f.CheckRound2(bundle, []ParticipantIndex{1, 2, 3})
	if !errors.Is(err, ErrMissingShare) {
		t.Fatalf("expected ErrMissingShare, got %v", err)
	}
	if got := Culprits(err); !slices.Equal(got, []ParticipantIndex{1}) {
		t.Errorf("culprits = %v, want [1]", got)
	}
}

func TestInvalidPartialSignatureIsIdentified(t *testing.T) {
	f := newFROST(t, &secp256k1.Secp256k1{}, 3, 5)
	shares, pub := runDKG(t, f)

	message := []byte("identify me")
	pkg, partials := signWith(t, f, shares[:4], message)
	one := f.group.NewScalar().SetUint64(1)
	partials[1].Z.Add(partials[1].Z, one)
	partials[3].Z.Add(partials[3].Z, one)

	if err := f.VerifyPartial(pkg, pub, partials[0]); err != nil {
		t.Errorf("honest share rejected: %v", err)
	}
	if err := f.VerifyPartial(pkg, pub, partials[1]); !errors.Is(err, ErrSignatureShareInvalid) {
		t.Errorf("expected ErrSignatureShareInvalid, got %v", err)
	}

	_, err := f.Aggregate(pkg, pub, partials)
	if !errors.Is(err, ErrSignatureShareInvalid) {
		t.Fatalf("expected ErrSignatureShareInvalid, got %v", err)
	}
	if got := Culprits(err); !slices.Equal(got, []ParticipantIndex{2, 4}) {
		t.Errorf("culprits = %v, want [2 4]", got)
	}
}

func TestNonceSingleUse(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 3)
	shares, _ := runDKG(t, f)

	n1, c1, _ := f.Commit(rand.Reader, shares[0].Index)
	_, c2, _ := f.Commit(rand.Reader, shares[1].Index)
	pkg, err := NewSigningPackage([]byte("once"), []*NonceCommitment{c1, c2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Sign(shares[0], n1, pkg); err != nil {
		t.Fatal(err)
	}
	if n1.D != nil || n1.E != nil {
		t.Error("nonce not zeroized after signing")
	}
	if _, err := f.Sign(shares[0], n1, pkg); err == nil {
		t.Error("expected error reusing a nonce")
	}
}

func TestSignRejectsForeignCommitment(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 3)
	shares, _ := runDKG(t, f)

	n1, _, _ := f.Commit(rand.Reader, shares[0].Index)
	_, c1, _ := f.Commit(rand.Reader, shares[0].Index)
	_, c2, _ := f.Commit(rand.Reader, shares[1].Index)
	pkg, err := NewSigningPackage([]byte("swap"), []*NonceCommitment{c1, c2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Sign(shares[0], n1, pkg); err == nil {
		t.Error("expected error when package commitment does not match nonce")
	}
}

func TestSigningPackageValidation(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 3)
	_, c1, _ := f.Commit(rand.Reader, 1)
	_, c1b, _ := f.Commit(rand.Reader, 1)

	if _, err := NewSigningPackage(nil, []*NonceCommitment{c1, c1b}); !errors.Is(err, ErrDuplicateParticipantIndex) {
		t.Errorf("expected ErrDuplicateParticipantIndex, got %v", err)
	}
	if _, _, err := f.Commit(rand.Reader, 4); !errors.Is(err, ErrInvalidParticipantIndex) {
		t.Errorf("expected ErrInvalidParticipantIndex, got %v", err)
	}
}

func TestLagrange(t *testing.T) {
	g := &bjj.BJJ{}

	t.Run("SumToOne", func(t *testing.T) {
		set := []ParticipantIndex{1, 3, 4}
		sum := g.NewScalar()
		for _, i := range set {
			l, err := LagrangeCoefficient(g, i, set)
			if err != nil {
				t.Fatal(err)
			}
			sum.Add(sum, l)
		}
		if !sum.Equal(g.NewScalar().SetUint64(1)) {
			t.Error("coefficients do not sum to one")
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := LagrangeCoefficient(g, 1, []ParticipantIndex{1, 2, 2})
		if !errors.Is(err, ErrDuplicateParticipantIndex) {
			t.Errorf("expected ErrDuplicateParticipantIndex, got %v", err)
		}
	})

	t.Run("ZeroIndex", func(t *testing.T) {
		_, err := LagrangeCoefficient(g, 0, []ParticipantIndex{0, 1})
		if !errors.Is(err, ErrInvalidParticipantIndex) {
			t.Errorf("expected ErrInvalidParticipantIndex, got %v", err)
		}
	})

	t.Run("NotMember", func(t *testing.T) {
		_, err := LagrangeCoefficient(g, 5, []ParticipantIndex{1, 2})
		if !errors.Is(err, ErrInvalidParticipantIndex) {
			t.Errorf("expected ErrInvalidParticipantIndex, got %v", err)
		}
	})

	t.Run("ThresholdNotMet", func(t *testing.T) {
		evals := []Evaluation{{Index: 1, Value: g.NewScalar().SetUint64(7)}}
		if _, err := Interpolate(g, 2, evals); !errors.Is(err, ErrThresholdNotMet) {
			t.Errorf("expected ErrThresholdNotMet, got %v", err)
		}
	})
}

func TestPolynomialInterpolation(t *testing.T) {
	g := &ed25519.Ed25519{}
	f := newFROST(t, g, 3, 5)
	poly, err := f.NewPolynomial(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if poly.Degree() != 2 {
		t.Fatalf("degree = %d, want 2", poly.Degree())
	}

	var evals []Evaluation
	for _, i := range []ParticipantIndex{2, 4, 5} {
		evals = append(evals, Evaluation{Index: i, Value: poly.Evaluate(i.Scalar(g))})
	}
	secret, err := Interpolate(g, 3, evals)
	if err != nil {
		t.Fatal(err)
	}
	if !secret.Equal(poly.Secret()) {
		t.Error("interpolated secret differs from f(0)")
	}

	commitment := poly.Commit()
	if err := f.VerifyShare(4, evals[1].Value, commitment); err != nil {
		t.Errorf("valid share rejected: %v", err)
	}
	if err := f.VerifyShare(3, evals[1].Value, commitment); !errors.Is(err, ErrShareVerificationFailed) {
		t.Errorf("expected ErrShareVerificationFailed, got %v", err)
	}
}

func TestNewValidatesParameters(t *testing.T) {
	g := &bjj.BJJ{}
	cases := []struct {
		name             string
		threshold, total int
	}{
		{"ThresholdOne", 1, 3},
		{"TotalBelowThreshold", 3, 2},
		{"TooManyParticipants", 2, 1 << 16},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(g, tc.threshold, tc.total, testContext); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHashers(t *testing.T) {
	g := &bjj.BJJ{}
	for _, h := range []Hasher{NewSHA512Hasher(), NewBlake2bHasher()} {
		t.Run(fmt.Sprintf("%T", h), func(t *testing.T) {
			f, err := NewWithHasher(g, 2, 3, testContext, h)
			if err != nil {
				t.Fatal(err)
			}
			shares, pub := runDKG(t, f)
			message := []byte("hasher")
			pkg, partials := signWith(t, f, shares[:2], message)
			sig, err := f.Aggregate(pkg, pub, partials)
			if err != nil {
				t.Fatal(err)
			}
			if !f.Verify(message, sig, pub.GroupKey) {
				t.Error("signature verification failed")
			}
		})
	}

	// Distinct tags separate otherwise identical inputs.
	h := NewSHA512Hasher()
	a := h.Challenge(g, []byte("x"), []byte("y"), []byte("z"))
	b := h.BindingFactor(g, []byte("x"), []byte("y"), []byte("z"))
	if a.Equal(b) {
		t.Error("challenge and binding factor collide")
	}
}

func TestBelowThresholdSharesFitAnySecret(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f := newFROST(t, g, 3, 5)
	poly, err := f.NewPolynomial(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	known := []Evaluation{
		{Index: 1, Value: poly.Evaluate(ParticipantIndex(1).Scalar(g))},
		{Index: 2, Value: poly.Evaluate(ParticipantIndex(2).Scalar(g))},
	}
	if _, err := Interpolate(g, 3, known); !errors.Is(err, ErrThresholdNotMet) {
		t.Fatalf("expected ErrThresholdNotMet, got %v", err)
	}

	// For every candidate secret some third share completes a degree 2
	// polynomial through the two known shares, so they rule nothing out.
	set := []ParticipantIndex{1, 2, 3}
	for i := 0; i < 8; i++ {
		candidate, err := g.RandomScalar(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		rest := g.NewScalar().Set(candidate)
		for _, e := range known {
			lambda, err := LagrangeCoefficient(g, e.Index, set)
			if err != nil {
				t.Fatal(err)
			}
			rest.Sub(rest, lambda.Mul(lambda, e.Value))
		}
		lambda3, err := LagrangeCoefficient(g, 3, set)
		if err != nil {
			t.Fatal(err)
		}
		inv, err := g.NewScalar().Invert(lambda3)
		if err != nil {
			t.Fatal(err)
		}
		third := Evaluation{Index: 3, Value: g.NewScalar().Mul(rest, inv)}

		secret, err := Interpolate(g, 3, append(append([]Evaluation{}, known...), third))
		if err != nil {
			t.Fatal(err)
		}
		if !secret.Equal(candidate) {
			t.Fatal("known shares are inconsistent with a candidate secret")
		}
	}
}

func TestFinalizeReleasesSecrets(t *testing.T) {
	f := newFROST(t, &ed25519.Ed25519{}, 2, 3)
	participants, round1, round2 := runRounds(t, f)
	p := participants[0]
	if failed := deliver(t, f, p, round1, round2); len(failed) > 0 {
		t.Fatalf("shares from %v rejected", failed)
	}

	released := append([]group.Scalar{p.dhSecret}, p.polynomial.coefficients...)
	for _, s := range p.received {
		released = append(released, s)
	}

	ks, _, err := f.Finalize(p, round1)
	if err != nil {
		t.Fatal(err)
	}
	if ks.SecretKey.IsZero() {
		t.Fatal("key share was wiped with the participant")
	}
	if p.polynomial != nil || p.dhSecret != nil || len(p.received) != 0 {
		t.Error("participant still holds secrets after finalize")
	}
	for k, s := range released {
		if !s.IsZero() {
			t.Errorf("secret %d not zeroized", k)
		}
	}

	if _, _, err := f.Finalize(p, round1); err == nil {
		t.Error("expected error finalizing a released participant")
	}
}

func TestFailedSignReleasesNonce(t *testing.T) {
	f := newFROST(t, &bjj.BJJ{}, 2, 3)
	shares, _ := runDKG(t, f)

	nonce, _, err := f.Commit(rand.Reader, shares[0].Index)
	if err != nil {
		t.Fatal(err)
	}
	_, c2, err := f.Commit(rand.Reader, shares[1].Index)
	if err != nil {
		t.Fatal(err)
	}
	_, c3, err := f.Commit(rand.Reader, shares[2].Index)
	if err != nil {
		t.Fatal(err)
	}
	pkg, err := NewSigningPackage([]byte("not for 1"), []*NonceCommitment{c2, c3})
	if err != nil {
		t.Fatal(err)
	}

	d, e := nonce.D, nonce.E
	if _, err := f.Sign(shares[0], nonce, pkg); err == nil {
		t.Fatal("expected error signing a package without own commitment")
	}
	if !d.IsZero() || !e.IsZero() || nonce.D != nil || nonce.E != nil {
		t.Error("nonce survived a failed sign")
	}
}
