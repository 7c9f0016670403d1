package subaccount

import (
	"testing"

	"github.com/protocol-bank/custody-engine/internal/principal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubaccountLayout_S1(t *testing.T) {
	var zero Subaccount
	assert.Equal(t, zero, New(Production, 0))

	dev1 := New(Development, 1)
	assert.Equal(t, byte(0xFF), dev1[0])
	assert.Equal(t, byte(0x01), dev1[1])
	assert.Equal(t, byte(0x00), dev1[2])

	staging257 := New(Staging, 257)
	assert.Equal(t, byte(0xAA), staging257[0])
	assert.Equal(t, byte(0xFF), staging257[1])
	assert.Equal(t, byte(0x02), staging257[2])
	assert.Equal(t, byte(0x00), staging257[3])
}

func TestSubaccountBijective(t *testing.T) {
	seen := map[Subaccount]bool{}
	for _, n := range []uint64{0, 1, 254, 255, 256, 257, 509, 510, 765, 100000} {
		sa := New(Production, n)
		assert.False(t, seen[sa], "nonce %d collided", n)
		seen[sa] = true
		assert.Equal(t, n, sa.Nonce())
	}
}

func TestAccountIdentifier_S2(t *testing.T) {
	owner, err := principal.Parse("rdmx6-jaaaa-aaaaa-aaadq-cai")
	require.NoError(t, err)

	id0 := NewAccountIdentifier(owner, New(Production, 0))
	assert.Equal(t, "c8734e0cde2404bb36b86bff86ee6df4f69c16fbc9a37f3f1d4aad574fa8cb5c", id0.String())

	id1 := NewAccountIdentifier(owner, New(Production, 1))
	assert.NotEqual(t, id0.String(), id1.String())

	roundTripped, err := ParseAccountIdentifier(id0.String())
	require.NoError(t, err)
	assert.Equal(t, id0, roundTripped)
}

func TestEnvironmentRoundTrip(t *testing.T) {
	for _, env := range []Environment{Production, Staging, Development} {
		sa := New(env, 42)
		got, ok := sa.Environment()
		require.True(t, ok)
		assert.Equal(t, env, got)
	}
}
