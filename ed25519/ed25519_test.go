package ed25519

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/f3rmion/icefrost/group/grouptest"
)

func TestGroup(t *testing.T) {
	grouptest.Run(t, &Ed25519{})
}

func TestRejectsTorsionPoint(t *testing.T) {
	g := &Ed25519{}

	// A point of order 8 on edwards25519.
	enc, err := hex.DecodeString("c7176a703d4dd84fba3c0b760d10670f2a2053fa2c39ccc64ec7fd7792ac037a")
	require.NoError(t, err)

	_, err = g.NewPoint().SetBytes(enc)
	require.Error(t, err)
}

func TestRejectsNonCanonicalScalar(t *testing.T) {
	g := &Ed25519{}

	// The group order itself, little-endian.
	enc, err := hex.DecodeString("edd3f55c1a631258d69cf7a2def9de1400000000000000000000000000000010")
	require.NoError(t, err)

	_, err = g.NewScalar().SetBytes(enc)
	require.Error(t, err)
}

func TestScalarLittleEndian(t *testing.T) {
	g := &Ed25519{}
	enc := g.NewScalar().SetUint64(0x0102).Bytes()
	require.Equal(t, byte(0x02), enc[0])
	require.Equal(t, byte(0x01), enc[1])
}
