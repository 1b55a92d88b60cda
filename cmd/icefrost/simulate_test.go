package main

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/f3rmion/icefrost/config"
	"github.com/f3rmion/icefrost/frost"
	"github.com/f3rmion/icefrost/log"
)

func ceremony(curve string) *config.CeremonyConfig {
	return &config.CeremonyConfig{
		Threshold:    2,
		Participants: 3,
		Curve:        curve,
		Hasher:       "sha512",
		Message:      "hello",
	}
}

func TestSimulateHonest(t *testing.T) {
	for _, curve := range config.Curves {
		t.Run(curve, func(t *testing.T) {
			cfg := ceremony(curve)
			cfg.Signers = []uint32{1, 3}
			require.NoError(t, cfg.Validate())

			rep, err := simulate(cfg, rand.Reader, log.NewNopLogger())
			require.NoError(t, err)
			require.Equal(t, []frost.ParticipantIndex{1, 2, 3}, rep.Qualified)
			require.Empty(t, rep.Excluded)
			require.NotEmpty(t, rep.Signature)
			require.Contains(t, rep.DomainTag, "icefrost-")
		})
	}
}

func TestSimulateBadShare(t *testing.T) {
	cfg := ceremony("bjj")
	cfg.Signers = []uint32{1, 3}
	cfg.Faults = &config.FaultsConfig{BadShare: &config.BadShareFault{From: 2, To: 3}}

	rep, err := simulate(cfg, rand.Reader, log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, []frost.ParticipantIndex{1, 3}, rep.Qualified)
	require.ErrorIs(t, rep.Excluded[2], frost.ErrShareVerificationFailed)
	require.NotEmpty(t, rep.Signature)
}

func TestSimulateFalseComplaint(t *testing.T) {
	cfg := ceremony("ed25519")
	cfg.Faults = &config.FaultsConfig{FalseComplaint: &config.FalseComplaintFault{From: 3, Against: 1}}

	rep, err := simulate(cfg, rand.Reader, log.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, []frost.ParticipantIndex{1, 2}, rep.Qualified)
	require.ErrorIs(t, rep.Excluded[3], frost.ErrComplaintInvalid)
	require.NotEmpty(t, rep.Signature)
}

func TestSimulateBadPartial(t *testing.T) {
	cfg := ceremony("secp256k1")
	cfg.Faults = &config.FaultsConfig{BadPartial: 2}

	rep, err := simulate(cfg, rand.Reader, log.NewNopLogger())
	require.ErrorIs(t, err, frost.ErrSignatureShareInvalid)
	require.Equal(t, []frost.ParticipantIndex{2}, rep.Culprits)
	require.Nil(t, rep.Signature)

	var out bytes.Buffer
	rep.print(&out)
	require.Contains(t, out.String(), "culprits:    [2]")
}
