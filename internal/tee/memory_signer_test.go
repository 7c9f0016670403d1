package tee

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/derivation"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
)

func TestMemorySigner_PublicKeyStable(t *testing.T) {
	s := NewMemorySigner()
	ctx := context.Background()
	path := derivation.Path(subaccount.New(subaccount.Production, 0))
	keyID := derivation.KeyIDFor(subaccount.Production)

	pub1, err := s.ECDSAPublicKey(ctx, path, keyID)
	require.NoError(t, err)
	assert.Len(t, pub1, 33)

	pub2, err := s.ECDSAPublicKey(ctx, path, keyID)
	require.NoError(t, err)
	assert.Equal(t, pub1, pub2, "cached public key must never mutate")
}

func TestMemorySigner_SignReturns64Bytes(t *testing.T) {
	s := NewMemorySigner()
	ctx := context.Background()
	path := derivation.Path(subaccount.New(subaccount.Development, 3))
	keyID := derivation.KeyIDFor(subaccount.Development)

	hash := sha256.Sum256([]byte("hello custody"))
	sig, err := s.SignWithECDSA(ctx, hash[:], path, keyID, derivation.SignCycles(subaccount.Development))
	require.NoError(t, err)
	assert.Len(t, sig, 64)
}
