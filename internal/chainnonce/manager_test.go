package chainnonce

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	m, err := NewManager(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	return m, mr
}

func TestGetNonce_CacheHitIncrements(t *testing.T) {
	m, mr := newTestManager(t)
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")
	key := "nonce:1:" + addr.Hex()
	require.NoError(t, mr.Set(key, "5"))

	nonce, release, err := m.GetNonce(context.Background(), 1, addr)
	require.NoError(t, err)
	defer release()

	assert.Equal(t, uint64(5), nonce)

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "6", got)
}

func TestResetNonce_ClearsCache(t *testing.T) {
	m, mr := newTestManager(t)
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")
	key := "nonce:7:" + addr.Hex()
	require.NoError(t, mr.Set(key, "42"))

	require.NoError(t, m.ResetNonce(context.Background(), 7, addr))
	assert.False(t, mr.Exists(key))
}

func TestGetNonce_DistinctAddressesIndependent(t *testing.T) {
	m, mr := newTestManager(t)
	a1 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	a2 := common.HexToAddress("0x2222222222222222222222222222222222222222")
	require.NoError(t, mr.Set("nonce:1:"+a1.Hex(), "0"))
	require.NoError(t, mr.Set("nonce:1:"+a2.Hex(), "10"))

	n1, r1, err := m.GetNonce(context.Background(), 1, a1)
	require.NoError(t, err)
	defer r1()
	n2, r2, err := m.GetNonce(context.Background(), 1, a2)
	require.NoError(t, err)
	defer r2()

	assert.Equal(t, uint64(0), n1)
	assert.Equal(t, uint64(10), n2)
}
