// Package config enables config file parsing.
package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/f3rmion/icefrost/log"
)

// EnvPrefix prefixes every environment variable read by InitConfig.
const EnvPrefix = "ICEFROST_"

// Supported curves and hashers.
var (
	Curves  = []string{"bjj", "ed25519", "secp256k1"}
	Hashers = []string{"sha512", "blake2b"}
)

// Config contains the CLI configuration.
type Config struct {
	Ceremony *CeremonyConfig `koanf:"ceremony"`
	Log      *LogConfig      `koanf:"log"`
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if cfg.Ceremony == nil {
		return errors.New("ceremony not configured")
	}
	if err := cfg.Ceremony.Validate(); err != nil {
		return fmt.Errorf("ceremony: %w", err)
	}
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	return nil
}

// CeremonyConfig describes one simulated DKG and signing ceremony.
type CeremonyConfig struct {
	// Threshold is t, the number of signers needed.
	Threshold int `koanf:"threshold"`
	// Participants is n.
	Participants int `koanf:"participants"`
	// DomainTag is the session context. A random one is generated when
	// empty.
	DomainTag string `koanf:"domain_tag"`
	Curve     string `koanf:"curve"`
	Hasher    string `koanf:"hasher"`
	// Signers is the signing set. Empty means participants 1..t.
	Signers []uint32 `koanf:"signers"`
	Message string   `koanf:"message"`

	Faults *FaultsConfig `koanf:"faults"`
}

// Validate validates the ceremony configuration.
func (cfg *CeremonyConfig) Validate() error {
	if cfg.Threshold < 2 {
		return fmt.Errorf("threshold must be at least 2, got %d", cfg.Threshold)
	}
	if cfg.Participants < cfg.Threshold {
		return fmt.Errorf("participants (%d) must be at least threshold (%d)", cfg.Participants, cfg.Threshold)
	}
	if cfg.Participants > math.MaxUint16 {
		return fmt.Errorf("at most %d participants supported", math.MaxUint16)
	}
	if !slices.Contains(Curves, cfg.Curve) {
		return fmt.Errorf("unsupported curve '%s', want one of %v", cfg.Curve, Curves)
	}
	if !slices.Contains(Hashers, cfg.Hasher) {
		return fmt.Errorf("unsupported hasher '%s', want one of %v", cfg.Hasher, Hashers)
	}

	if len(cfg.Signers) > 0 {
		if len(cfg.Signers) < cfg.Threshold {
			return fmt.Errorf("%d signers configured, need at least %d", len(cfg.Signers), cfg.Threshold)
		}
		seen := make(map[uint32]struct{}, len(cfg.Signers))
		for _, i := range cfg.Signers {
			if err := cfg.checkIndex("signers", i); err != nil {
				return err
			}
			if _, dup := seen[i]; dup {
				return fmt.Errorf("signer %d listed twice", i)
			}
			seen[i] = struct{}{}
		}
	}

	if cfg.Faults != nil {
		if err := cfg.Faults.validate(cfg); err != nil {
			return fmt.Errorf("faults: %w", err)
		}
	}
	return nil
}

// SignerSet returns the configured signers, or 1..t when none are set.
func (cfg *CeremonyConfig) SignerSet() []uint32 {
	if len(cfg.Signers) > 0 {
		return cfg.Signers
	}
	out := make([]uint32, cfg.Threshold)
	for k := range out {
		out[k] = uint32(k + 1)
	}
	return out
}

func (cfg *CeremonyConfig) checkIndex(field string, i uint32) error {
	if i < 1 || int(i) > cfg.Participants {
		return fmt.Errorf("%s: participant %d out of range [1, %d]", field, i, cfg.Participants)
	}
	return nil
}

// FaultsConfig injects misbehavior into a simulated ceremony.
type FaultsConfig struct {
	// BadShare makes a dealer send one receiver a corrupted share.
	BadShare *BadShareFault `koanf:"bad_share"`
	// FalseComplaint makes a participant accuse an honest dealer.
	FalseComplaint *FalseComplaintFault `koanf:"false_complaint"`
	// BadPartial is the signer that sends a corrupted partial signature,
	// or 0 for none.
	BadPartial uint32 `koanf:"bad_partial"`
}

// BadShareFault is a dealer From sending a bad share to To.
type BadShareFault struct {
	From uint32 `koanf:"from"`
	To   uint32 `koanf:"to"`
}

// FalseComplaintFault is participant From complaining about Against.
type FalseComplaintFault struct {
	From    uint32 `koanf:"from"`
	Against uint32 `koanf:"against"`
}

func (f *FaultsConfig) validate(cfg *CeremonyConfig) error {
	if f.BadShare != nil {
		if err := cfg.checkIndex("bad_share.from", f.BadShare.From); err != nil {
			return err
		}
		if err := cfg.checkIndex("bad_share.to", f.BadShare.To); err != nil {
			return err
		}
		if f.BadShare.From == f.BadShare.To {
			return errors.New("bad_share: a dealer cannot cheat itself")
		}
	}
	if f.FalseComplaint != nil {
		if err := cfg.checkIndex("false_complaint.from", f.FalseComplaint.From); err != nil {
			return err
		}
		if err := cfg.checkIndex("false_complaint.against", f.FalseComplaint.Against); err != nil {
			return err
		}
		if f.FalseComplaint.From == f.FalseComplaint.Against {
			return errors.New("false_complaint: a participant cannot accuse itself")
		}
	}
	if f.BadPartial != 0 {
		if err := cfg.checkIndex("bad_partial", f.BadPartial); err != nil {
			return err
		}
	}
	return nil
}

// LogConfig contains the logging configuration.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Validate validates the logging configuration.
func (cfg *LogConfig) Validate() error {
	var format log.Format
	if err := format.Set(cfg.Format); err != nil {
		return err
	}
	var level log.Level
	return level.Set(cfg.Level)
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"ceremony.curve":   "ed25519",
		"ceremony.hasher":  "sha512",
		"ceremony.message": "hello",
		"log.format":       "logfmt",
		"log.level":        "INFO",
	}
}

// InitConfig initializes configuration from defaults, the YAML file at
// path and ICEFROST_ environment variables, in increasing precedence.
func InitConfig(path string) (*Config, error) {
	return initConfig(file.Provider(path))
}

func initConfig(p koanf.Provider) (*Config, error) {
	var config Config
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	// Load configuration from the yaml config.
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, err
	}

	// Load environment variables and merge into the loaded config.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		// `__` is used as a hierarchy delimiter.
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", &config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
