package addresses

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/chainkey"
	"github.com/protocol-bank/custody-engine/internal/derivation"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
	"github.com/protocol-bank/custody-engine/internal/tee"
)

func testPubKey(t *testing.T) []byte {
	t.Helper()
	s := tee.NewMemorySigner()
	path := derivation.Path(subaccount.New(subaccount.Production, 0))
	keyID := derivation.KeyIDFor(subaccount.Production)
	pub, err := s.ECDSAPublicKey(context.Background(), path, keyID)
	require.NoError(t, err)
	return pub
}

func TestEVMAddressFormat(t *testing.T) {
	pub := testPubKey(t)
	addr, err := EVM(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "0x"))
	assert.Len(t, addr, 42)
}

func TestBTCAddresses_S8(t *testing.T) {
	pub := testPubKey(t)

	mainnet, err := BTCP2WPKH(pub, chainkey.Mainnet)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mainnet, "bc1"))

	testnet, err := BTCP2WPKH(pub, chainkey.Testnet)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(testnet, "tb1"))

	legacy, err := BTCP2PKH(pub, chainkey.Mainnet)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(legacy, "1"))
}
