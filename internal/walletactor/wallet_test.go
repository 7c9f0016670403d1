package walletactor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/operation"
	"github.com/protocol-bank/custody-engine/internal/principal"
	"github.com/protocol-bank/custody-engine/internal/roles"
	"github.com/protocol-bank/custody-engine/internal/sandbox"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
)

func testPrincipal(t *testing.T, seed byte) principal.Principal {
	t.Helper()
	var raw [10]byte
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	p, err := principal.New(raw[:])
	require.NoError(t, err)
	return p
}

func TestWallet_CreateAccountThenPropose(t *testing.T) {
	owner := roles.User{
		Principal: testPrincipal(t, 1),
		Role:      roles.Role{Name: "owner", Access: roles.Access{Kind: roles.Full}},
		Class:     roles.ClassAdmin,
	}
	ctrl := sandbox.NewLocalController([]string{"wallet-1", owner.Principal.String()})
	w := New("wallet-1", owner, Deps{Controller: ctrl})

	op := operation.NewCreateAccount(subaccount.Production, "Primary")
	id, err := w.Propose(context.Background(), owner.Principal.String(), op, nil)
	require.NoError(t, err)

	proc, err := w.Confirm(context.Background(), id, owner.Principal.String())
	require.NoError(t, err)
	require.NotNil(t, proc)
	assert.Equal(t, operation.StatusSuccess, proc.Status)

	accts := w.Accounts.All()
	assert.Len(t, accts, 1)
}

func TestWallet_RejectArchivesImmediately(t *testing.T) {
	owner := roles.User{
		Principal: testPrincipal(t, 9),
		Role:      roles.Role{Name: "owner", Access: roles.Access{Kind: roles.Full}},
		Class:     roles.ClassAdmin,
	}
	ctrl := sandbox.NewLocalController([]string{"wallet-2", owner.Principal.String()})
	w := New("wallet-2", owner, Deps{Controller: ctrl})

	op := operation.NewCreateAccount(subaccount.Staging, "Secondary")
	id, err := w.Propose(context.Background(), owner.Principal.String(), op, nil)
	require.NoError(t, err)

	proc, err := w.Reject(context.Background(), id, owner.Principal.String())
	require.NoError(t, err)
	assert.Equal(t, operation.StatusFail, proc.Status)

	_, ok := w.Engine.GetProcessed(id)
	assert.True(t, ok)
}
