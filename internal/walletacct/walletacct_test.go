package walletacct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/subaccount"
	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

func TestCreateAccount_NoncesAdvancePerEnvironment(t *testing.T) {
	r := NewRegistry()
	a1 := r.CreateAccount(subaccount.Production, "")
	a2 := r.CreateAccount(subaccount.Production, "")
	b1 := r.CreateAccount(subaccount.Staging, "")

	assert.Equal(t, uint64(0), a1.Subaccount.Nonce())
	assert.Equal(t, uint64(1), a2.Subaccount.Nonce())
	assert.Equal(t, uint64(0), b1.Subaccount.Nonce())
	assert.NotEqual(t, a1.ID, a2.ID)
}

func TestRemove_RefusesWhenInUse(t *testing.T) {
	r := NewRegistry()
	acct := r.CreateAccount(subaccount.Development, "dev")

	err := r.Remove(acct.ID, func(string) bool { return true })
	assert.ErrorIs(t, err, walleterr.ErrAccountInUse)

	require.NoError(t, r.Remove(acct.ID, func(string) bool { return false }))
	_, err = r.Get(acct.ID)
	assert.Error(t, err)
}
