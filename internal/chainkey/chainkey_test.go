package chainkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_S3Invariant(t *testing.T) {
	cases := []ChainKey{
		NewBTC(Mainnet),
		NewBTC(Testnet),
		NewBTC(Regtest),
		NewEVM(1),
		NewEVM(8453),
		NewSNS("ckbtc"),
		NewICP(),
	}
	for _, ck := range cases {
		encoded := ck.String()
		decoded, err := Parse(encoded)
		require.NoError(t, err)
		assert.Equal(t, ck, decoded, "round trip for %s", encoded)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-a-chain")
	assert.Error(t, err)
}
