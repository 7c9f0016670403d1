package operation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/principal"
	"github.com/protocol-bank/custody-engine/internal/roles"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

// fakeAccount is the minimal Account this package's test doubles need.
type fakeAccount struct{ id string }

func (a fakeAccount) ID() string { return a.id }

// fakeAccountManager is a bare-bones AccountManager stand-in so engine
// tests don't need to pull in walletacct.
type fakeAccountManager struct {
	created int
}

func (m *fakeAccountManager) Get(id string) (Account, error) { return fakeAccount{id: id}, nil }
func (m *fakeAccountManager) Create(env subaccount.Environment, name string) Account {
	m.created++
	return fakeAccount{id: name}
}
func (m *fakeAccountManager) Remove(id string) error       { return nil }
func (m *fakeAccountManager) Rename(id, name string) error { return nil }
func (m *fakeAccountManager) Hide(id string) error         { return nil }
func (m *fakeAccountManager) Unhide(id string) error       { return nil }

func testUser(t *testing.T, seed byte, roleName string, threshold *uint8) roles.User {
	t.Helper()
	p, err := principal.New([]byte{seed})
	require.NoError(t, err)
	return roles.User{
		Principal: p,
		Role:      roles.Role{Name: roleName, Access: roles.Access{Kind: roles.Full}},
		Class:     roles.ClassUser,
		Threshold: threshold,
	}
}

func newTestEngine(t *testing.T, users ...roles.User) (*Engine, *Env) {
	t.Helper()
	registry := roles.NewRegistry()
	for _, u := range users {
		registry.Put(u)
	}
	return NewEngine(registry), &Env{Accounts: &fakeAccountManager{}, Users: registry}
}

func TestEngine_QuorumRequiresEveryRoleMember(t *testing.T) {
	a := testUser(t, 1, "approver", nil)
	b := testUser(t, 2, "approver", nil)
	engine, env := newTestEngine(t, a, b)

	id, err := engine.Propose(context.Background(), env, a.Principal.String(), NewCreateAccount(subaccount.Production, "ops"), nil)
	require.NoError(t, err)

	proc, err := engine.Confirm(context.Background(), env, id, a.Principal.String())
	require.NoError(t, err)
	assert.Nil(t, proc, "quorum not yet met with only one of two approvers")

	proc, err = engine.Confirm(context.Background(), env, id, b.Principal.String())
	require.NoError(t, err)
	require.NotNil(t, proc)
	assert.Equal(t, StatusSuccess, proc.Status)

	_, archived := engine.GetProcessed(id)
	assert.True(t, archived)
}

func TestEngine_ThresholdOverrideShortCircuitsQuorum(t *testing.T) {
	one := uint8(1)
	a := testUser(t, 3, "approver", &one)
	b := testUser(t, 4, "approver", nil)
	c := testUser(t, 5, "approver", nil)
	engine, env := newTestEngine(t, a, b, c)

	id, err := engine.Propose(context.Background(), env, a.Principal.String(), NewCreateAccount(subaccount.Production, "ops"), nil)
	require.NoError(t, err)

	proc, err := engine.Confirm(context.Background(), env, id, a.Principal.String())
	require.NoError(t, err)
	require.NotNil(t, proc, "a single Confirm should satisfy a Threshold(1) override")
	assert.Equal(t, StatusSuccess, proc.Status)
}

func TestEngine_RejectArchivesImmediately(t *testing.T) {
	a := testUser(t, 6, "approver", nil)
	b := testUser(t, 7, "approver", nil)
	engine, env := newTestEngine(t, a, b)

	id, err := engine.Propose(context.Background(), env, a.Principal.String(), NewCreateAccount(subaccount.Production, "ops"), nil)
	require.NoError(t, err)

	proc, err := engine.Reject(context.Background(), env, id, b.Principal.String())
	require.NoError(t, err)
	require.NotNil(t, proc)
	assert.Equal(t, StatusFail, proc.Status)

	_, err = engine.Confirm(context.Background(), env, id, a.Principal.String())
	assert.ErrorIs(t, err, walleterr.ErrAlreadyProcessed)
}

func TestEngine_ExpiredProposalFailsOnRespond(t *testing.T) {
	a := testUser(t, 8, "approver", nil)
	engine, env := newTestEngine(t, a)
	engine.now = func() time.Time { return time.Unix(0, 0) }

	past := time.Unix(0, 0).Add(time.Second)
	id, err := engine.Propose(context.Background(), env, a.Principal.String(), NewCreateAccount(subaccount.Production, "ops"), &past)
	require.NoError(t, err)

	engine.now = func() time.Time { return time.Unix(0, 0).Add(time.Hour) }
	proc, err := engine.Confirm(context.Background(), env, id, a.Principal.String())
	require.NoError(t, err)
	require.NotNil(t, proc)
	assert.Equal(t, StatusFail, proc.Status)
	assert.Equal(t, "Expired", proc.Error)
}

func TestEngine_GetPendingListsInAdmissionOrder(t *testing.T) {
	a := testUser(t, 9, "approver", nil)
	engine, env := newTestEngine(t, a)

	id1, err := engine.Propose(context.Background(), env, a.Principal.String(), NewCreateAccount(subaccount.Production, "first"), nil)
	require.NoError(t, err)
	id2, err := engine.Propose(context.Background(), env, a.Principal.String(), NewCreateAccount(subaccount.Production, "second"), nil)
	require.NoError(t, err)

	pending := engine.GetPending()
	require.Len(t, pending, 2)
	assert.Equal(t, id1, pending[0].ID)
	assert.Equal(t, id2, pending[1].ID)
}
