package config

import (
	"testing"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/require"
)

const exampleYAML = `
ceremony:
  threshold: 2
  participants: 3
  domain_tag: test-ceremony
  curve: bjj
  signers: [1, 3]
  faults:
    bad_share:
      from: 2
      to: 3
    bad_partial: 3
log:
  level: debug
`

func TestInitConfig(t *testing.T) {
	cfg, err := initConfig(rawbytes.Provider([]byte(exampleYAML)))
	require.NoError(t, err)

	require.Equal(t, 2, cfg.Ceremony.Threshold)
	require.Equal(t, 3, cfg.Ceremony.Participants)
	require.Equal(t, "bjj", cfg.Ceremony.Curve)
	require.Equal(t, []uint32{1, 3}, cfg.Ceremony.SignerSet())
	require.Equal(t, &BadShareFault{From: 2, To: 3}, cfg.Ceremony.Faults.BadShare)
	require.Nil(t, cfg.Ceremony.Faults.FalseComplaint)
	require.Equal(t, uint32(3), cfg.Ceremony.Faults.BadPartial)

	// Defaults fill what the file leaves out.
	require.Equal(t, "sha512", cfg.Ceremony.Hasher)
	require.Equal(t, "hello", cfg.Ceremony.Message)
	require.Equal(t, "logfmt", cfg.Log.Format)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ICEFROST_CEREMONY__CURVE", "secp256k1")
	t.Setenv("ICEFROST_CEREMONY__PARTICIPANTS", "5")
	t.Setenv("ICEFROST_LOG__FORMAT", "json")

	cfg, err := initConfig(rawbytes.Provider([]byte(exampleYAML)))
	require.NoError(t, err)
	require.Equal(t, "secp256k1", cfg.Ceremony.Curve)
	require.Equal(t, 5, cfg.Ceremony.Participants)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestDefaultSigners(t *testing.T) {
	cfg, err := initConfig(rawbytes.Provider([]byte(`
ceremony:
  threshold: 3
  participants: 5
`)))
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, cfg.Ceremony.SignerSet())
	require.Empty(t, cfg.Ceremony.DomainTag)
}

func TestValidate(t *testing.T) {
	valid := func() *CeremonyConfig {
		return &CeremonyConfig{Threshold: 2, Participants: 3, Curve: "ed25519", Hasher: "sha512"}
	}
	require.NoError(t, valid().Validate())

	for _, tc := range []struct {
		name   string
		mutate func(*CeremonyConfig)
	}{
		{"ThresholdOne", func(c *CeremonyConfig) { c.Threshold = 1 }},
		{"TooFewParticipants", func(c *CeremonyConfig) { c.Participants = 1 }},
		{"TooManyParticipants", func(c *CeremonyConfig) { c.Participants = 70000 }},
		{"UnknownCurve", func(c *CeremonyConfig) { c.Curve = "p256" }},
		{"UnknownHasher", func(c *CeremonyConfig) { c.Hasher = "md5" }},
		{"TooFewSigners", func(c *CeremonyConfig) { c.Signers = []uint32{1} }},
		{"DuplicateSigner", func(c *CeremonyConfig) { c.Signers = []uint32{2, 2} }},
		{"SignerOutOfRange", func(c *CeremonyConfig) { c.Signers = []uint32{1, 4} }},
		{"SelfBadShare", func(c *CeremonyConfig) {
			c.Faults = &FaultsConfig{BadShare: &BadShareFault{From: 1, To: 1}}
		}},
		{"SelfComplaint", func(c *CeremonyConfig) {
			c.Faults = &FaultsConfig{FalseComplaint: &FalseComplaintFault{From: 2, Against: 2}}
		}},
		{"BadPartialOutOfRange", func(c *CeremonyConfig) {
			c.Faults = &FaultsConfig{BadPartial: 9}
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.Error(t, (&Config{}).Validate())
	require.Error(t, (&LogConfig{Format: "xml", Level: "INFO"}).Validate())
}
