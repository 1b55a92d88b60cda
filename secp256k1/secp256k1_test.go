package secp256k1

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/icefrost/group/grouptest"
)

func TestGroup(t *testing.T) {
	grouptest.Run(t, &Secp256k1{})
}

func TestGeneratorMatchesSEC2(t *testing.T) {
	g := &Secp256k1{}
	want := btcec.Generator().SerializeCompressed()
	require.True(t, bytes.Equal(want, g.Generator().Bytes()))
}

func TestIdentityEncodesAsZeros(t *testing.T) {
	g := &Secp256k1{}
	require.Equal(t, make([]byte, pointLen), g.NewPoint().Bytes())
}

func TestRejectsUncompressedPrefix(t *testing.T) {
	g := &Secp256k1{}
	enc := g.Generator().Bytes()
	enc[0] = 0x04
	_, err := g.NewPoint().SetBytes(enc)
	require.Error(t, err)
}

func TestRejectsOrderScalar(t *testing.T) {
	g := &Secp256k1{}
	order := make([]byte, scalarLen)
	curveOrder.FillBytes(order)
	_, err := g.NewScalar().SetBytes(order)
	require.Error(t, err)
}
