package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/f3rmion/icefrost/bjj"
	"github.com/f3rmion/icefrost/config"
	"github.com/f3rmion/icefrost/ed25519"
	"github.com/f3rmion/icefrost/frost"
	"github.com/f3rmion/icefrost/group"
	"github.com/f3rmion/icefrost/log"
	"github.com/f3rmion/icefrost/secp256k1"
	"github.com/f3rmion/icefrost/session"
)

func registerSimulate(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a DKG and signing ceremony for every participant in-process",
		Args:  cobra.NoArgs,
		RunE:  simulateMain,
	}
	cmd.Flags().StringVar(&configFile, "config", "./icefrost.yml", "path to the config file")
	root.AddCommand(cmd)
}

func simulateMain(cmd *cobra.Command, args []string) error {
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed", "err", err)
		return err
	}

	logger, err := newLogger(cmd, cfg.Log)
	if err != nil {
		return err
	}

	rep, err := simulate(cfg.Ceremony, rand.Reader, logger)
	if rep != nil {
		rep.print(cmd.OutOrStdout())
	}
	return err
}

// newLogger applies the config's log section unless a flag overrides it.
func newLogger(cmd *cobra.Command, cfg *config.LogConfig) (*log.Logger, error) {
	level, format := logLevel, logFormat
	if cfg != nil {
		if !cmd.Flags().Changed("log-level") {
			if err := level.Set(cfg.Level); err != nil {
				return nil, err
			}
		}
		if !cmd.Flags().Changed("log-format") {
			if err := format.Set(cfg.Format); err != nil {
				return nil, err
			}
		}
	}
	return log.NewLogger("icefrost", os.Stderr, format, level)
}

func lookupGroup(name string) (group.Group, error) {
	switch name {
	case "bjj":
		return &bjj.BJJ{}, nil
	case "ed25519":
		return &ed25519.Ed25519{}, nil
	case "secp256k1":
		return &secp256k1.Secp256k1{}, nil
	default:
		return nil, fmt.Errorf("unsupported curve '%s'", name)
	}
}

func lookupHasher(name string) (frost.Hasher, error) {
	switch name {
	case "sha512":
		return frost.NewSHA512Hasher(), nil
	case "blake2b":
		return frost.NewBlake2bHasher(), nil
	default:
		return nil, fmt.Errorf("unsupported hasher '%s'", name)
	}
}

// report is the outcome of a simulated ceremony as seen by an honest
// participant.
type report struct {
	DomainTag string
	Curve     string
	Qualified []frost.ParticipantIndex
	Excluded  map[frost.ParticipantIndex]error
	GroupKey  []byte
	Signers   []frost.ParticipantIndex
	Signature []byte
	Culprits  []frost.ParticipantIndex
}

func (r *report) print(w io.Writer) {
	fmt.Fprintf(w, "domain tag:  %s\n", r.DomainTag)
	fmt.Fprintf(w, "curve:       %s\n", r.Curve)
	fmt.Fprintf(w, "qualified:   %v\n", r.Qualified)
	for _, i := range sortedIndices(r.Excluded) {
		fmt.Fprintf(w, "excluded:    %d (%v)\n", i, r.Excluded[i])
	}
	if r.GroupKey != nil {
		fmt.Fprintf(w, "group key:   %s\n", hex.EncodeToString(r.GroupKey))
	}
	if r.Signers != nil {
		fmt.Fprintf(w, "signers:     %v\n", r.Signers)
	}
	if r.Signature != nil {
		fmt.Fprintf(w, "signature:   %s\n", hex.EncodeToString(r.Signature))
	}
	if len(r.Culprits) > 0 {
		fmt.Fprintf(w, "culprits:    %v\n", r.Culprits)
	}
}

// simulate runs the configured ceremony end to end, injecting the
// configured faults. A non-nil report is returned whenever the DKG
// produced a group key, even if signing then failed.
func simulate(cfg *config.CeremonyConfig, rng io.Reader, logger *log.Logger) (*report, error) {
	g, err := lookupGroup(cfg.Curve)
	if err != nil {
		return nil, err
	}
	hasher, err := lookupHasher(cfg.Hasher)
	if err != nil {
		return nil, err
	}
	tag := cfg.DomainTag
	if tag == "" {
		tag = "icefrost-" + uuid.NewString()
	}
	f, err := frost.NewWithHasher(g, cfg.Threshold, cfg.Participants, []byte(tag), hasher)
	if err != nil {
		return nil, err
	}
	logger.Info("starting ceremony", "curve", g.Name(), "threshold", cfg.Threshold, "participants", cfg.Participants, "domain_tag", tag)

	results, err := runDKG(f, cfg, rng, logger.WithModule("dkg"))
	if err != nil {
		return nil, err
	}

	cheaters := faultActors(cfg)
	var honest *honestView
	for _, r := range results {
		if _, bad := cheaters[r.index]; r.result != nil && !bad {
			honest = r
			break
		}
	}
	if honest == nil {
		return nil, errors.New("no honest participant completed the DKG")
	}

	rep := &report{
		DomainTag: tag,
		Curve:     g.Name(),
		Qualified: honest.result.Qualified,
		Excluded:  honest.excluded,
		GroupKey:  honest.result.PublicKeys.GroupKey.Bytes(),
	}

	shares := make(map[frost.ParticipantIndex]*frost.KeyShare)
	for _, r := range results {
		// A cheating dealer's own view of the transcript differs from
		// what it broadcast, so it may end up under another group key.
		if r.result != nil && r.result.PublicKeys.GroupKey.Equal(honest.result.PublicKeys.GroupKey) {
			shares[r.result.KeyShare.Index] = r.result.KeyShare
		}
	}

	var signers []frost.ParticipantIndex
	for _, i := range cfg.SignerSet() {
		idx := frost.ParticipantIndex(i)
		if _, ok := shares[idx]; !ok {
			logger.Warn("configured signer holds no key share, skipping", "signer", i)
			continue
		}
		signers = append(signers, idx)
	}
	rep.Signers = signers

	sig, err := runSigning(f, honest.result.PublicKeys, shares, signers, cfg, rng, logger.WithModule("sign"))
	if err != nil {
		rep.Culprits = frost.Culprits(err)
		return rep, err
	}
	rep.Signature, err = sig.MarshalBinary()
	return rep, err
}

// honestView is one participant's DKG outcome.
type honestView struct {
	index    frost.ParticipantIndex
	result   *session.DKGResult
	excluded map[frost.ParticipantIndex]error
}

func runDKG(f *frost.FROST, cfg *config.CeremonyConfig, rng io.Reader, logger *log.Logger) ([]*honestView, error) {
	n := f.Total()
	sessions := make([]*session.DKGSession, n)
	for k := range sessions {
		s, err := session.NewDKGSession(f, frost.ParticipantIndex(k+1), rng, session.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		sessions[k] = s
	}

	round1 := make([][]byte, n)
	for k, s := range sessions {
		m, err := s.Round1()
		if err != nil {
			return nil, err
		}
		round1[k] = m
	}
	var live []*session.DKGSession
	for _, s := range sessions {
		if err := s.ProcessRound1(round1); err != nil {
			logger.Error("participant aborted in round 1", "participant", uint32(s.Index()), "err", err)
			continue
		}
		live = append(live, s)
	}

	round2 := make([][]byte, 0, len(live))
	for _, s := range live {
		m, err := s.Round2()
		if err != nil {
			return nil, err
		}
		round2 = append(round2, m)
	}
	if fault := faultsOf(cfg).BadShare; fault != nil {
		var err error
		if round2, err = corruptShare(round2, frost.ParticipantIndex(fault.From), frost.ParticipantIndex(fault.To)); err != nil {
			return nil, err
		}
		logger.Info("injected bad share", "from", fault.From, "to", fault.To)
	}

	var complaints [][]byte
	var survivors []*session.DKGSession
	for _, s := range live {
		c, err := s.ProcessRound2(round2)
		if err != nil {
			logger.Error("participant aborted in round 2", "participant", uint32(s.Index()), "err", err)
			continue
		}
		complaints = append(complaints, c...)
		survivors = append(survivors, s)
	}
	if fault := faultsOf(cfg).FalseComplaint; fault != nil {
		c, err := forgeComplaint(f.Group(), rng, frost.ParticipantIndex(fault.From), frost.ParticipantIndex(fault.Against))
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
		logger.Info("injected false complaint", "from", fault.From, "against", fault.Against)
	}

	var views []*honestView
	for _, s := range survivors {
		res, err := s.Finalize(complaints)
		if err != nil {
			logger.Warn("participant did not finalize", "participant", uint32(s.Index()), "err", err)
		}
		views = append(views, &honestView{index: s.Index(), result: res, excluded: s.Excluded()})
	}
	return views, nil
}

// corruptShare flips one bit of the share dealer from sends to receiver to.
func corruptShare(round2 [][]byte, from, to frost.ParticipantIndex) ([][]byte, error) {
	out := slices.Clone(round2)
	for k, data := range out {
		m, err := frost.UnmarshalRound2Message(data)
		if err != nil {
			return nil, err
		}
		if m.Sender != from {
			continue
		}
		es := m.Share(to)
		if es == nil {
			return nil, fmt.Errorf("dealer %d sends no share to %d", from, to)
		}
		es.Ciphertext[len(es.Ciphertext)-1] ^= 0x01
		if out[k], err = m.MarshalBinary(); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("dealer %d did not reach round 2", from)
}

// forgeComplaint builds a complaint by accuser that does not know the
// shared key, so its proof cannot verify.
func forgeComplaint(g group.Group, rng io.Reader, accuser, accused frost.ParticipantIndex) ([]byte, error) {
	x, err := g.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	y, err := g.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	c := &frost.Complaint{
		Accuser:   accuser,
		Accused:   accused,
		SharedKey: g.NewPoint().ScalarMult(x, g.Generator()),
		Share:     make([]byte, g.ScalarLen()),
		Proof:     &frost.DLEQProof{C: x, Z: y},
	}
	return c.MarshalBinary()
}

func runSigning(
	f *frost.FROST,
	pub *frost.PublicKeyPackage,
	shares map[frost.ParticipantIndex]*frost.KeyShare,
	signerSet []frost.ParticipantIndex,
	cfg *config.CeremonyConfig,
	rng io.Reader,
	logger *log.Logger,
) (*frost.Signature, error) {
	message := []byte(cfg.Message)
	coord, err := session.NewCoordinator(f, pub, message, signerSet, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	signers := make([]*session.Signer, len(signerSet))
	defer func() {
		for _, s := range signers {
			if s != nil {
				s.Abort()
			}
		}
	}()
	commitments := make([][]byte, len(signerSet))
	for k, i := range signerSet {
		if signers[k], err = session.NewSigner(f, shares[i], rng, message, session.WithLogger(logger)); err != nil {
			return nil, err
		}
		if commitments[k], err = signers[k].Commitment(); err != nil {
			return nil, err
		}
	}
	if err := coord.ProcessCommitments(commitments); err != nil {
		return nil, err
	}
	pkg, err := coord.Package()
	if err != nil {
		return nil, err
	}

	bad := frost.ParticipantIndex(faultsOf(cfg).BadPartial)
	partials := make([][]byte, len(signers))
	for k, s := range signers {
		if partials[k], err = s.Sign(pkg); err != nil {
			return nil, err
		}
		if signerSet[k] == bad {
			if partials[k], err = corruptPartial(f.Group(), partials[k]); err != nil {
				return nil, err
			}
			logger.Info("injected bad partial signature", "signer", uint32(bad))
		}
	}

	sig, err := coord.Aggregate(partials)
	if err != nil {
		return nil, err
	}
	if err := session.Verify(f, message, sig, pub.GroupKey); err != nil {
		return nil, err
	}
	logger.Info("signature verified", "message_len", len(message))
	return sig, nil
}

func corruptPartial(g group.Group, data []byte) ([]byte, error) {
	ps, err := frost.UnmarshalPartialSignature(g, data)
	if err != nil {
		return nil, err
	}
	ps.Z.Add(ps.Z, g.NewScalar().SetUint64(1))
	return ps.MarshalBinary()
}

// faultActors returns the participants configured to misbehave during
// the DKG.
func faultActors(cfg *config.CeremonyConfig) map[frost.ParticipantIndex]struct{} {
	out := make(map[frost.ParticipantIndex]struct{})
	faults := faultsOf(cfg)
	if faults.BadShare != nil {
		out[frost.ParticipantIndex(faults.BadShare.From)] = struct{}{}
	}
	if faults.FalseComplaint != nil {
		out[frost.ParticipantIndex(faults.FalseComplaint.From)] = struct{}{}
	}
	return out
}

func faultsOf(cfg *config.CeremonyConfig) *config.FaultsConfig {
	if cfg.Faults == nil {
		return &config.FaultsConfig{}
	}
	return cfg.Faults
}

func sortedIndices(m map[frost.ParticipantIndex]error) []frost.ParticipantIndex {
	out := make([]frost.ParticipantIndex, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}
