package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/release"
	"github.com/protocol-bank/custody-engine/internal/sandbox"
)

type fakeFactory struct {
	n       int
	ctrl    *sandbox.LocalController
	lastOwn string
}

func (f *fakeFactory) CreateWallet(ctx context.Context, owner string) (string, sandbox.Controller, error) {
	f.n++
	f.lastOwn = owner
	f.ctrl = sandbox.NewLocalController([]string{"system-1"})
	return "wallet-principal", f.ctrl, nil
}

func seededCatalogue(t *testing.T) *release.Catalogue {
	t.Helper()
	c := release.NewCatalogue()
	require.NoError(t, c.BeginRelease(release.Metadata{Version: "1.0.0"}, 4))
	_, err := c.LoadChunk("1.0.0", []byte{1, 2, 3, 4})
	require.NoError(t, err)
	return c
}

func TestCreateWallet_Idempotent(t *testing.T) {
	factory := &fakeFactory{}
	sys := New("system-1", seededCatalogue(t), factory)

	p1, err := sys.CreateWallet(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "wallet-principal", p1)
	assert.Equal(t, 1, factory.n)

	p2, err := sys.CreateWallet(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, factory.n, "second call must not re-create the wallet")
}

func TestUpdateCanisterControllers_S7(t *testing.T) {
	sys := New("S", seededCatalogue(t), &fakeFactory{})
	ctrl := sandbox.NewLocalController([]string{"S"})

	err := sys.UpdateCanisterControllers(context.Background(), ctrl, "O", "S", []string{"X"})
	require.NoError(t, err)

	status, err := ctrl.Status(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"X", "O", "S"}, status.Controllers)
}

func TestUpgradeWallet_RejectsDeprecatedRelease(t *testing.T) {
	c := seededCatalogue(t)
	require.NoError(t, c.DeprecateRelease("1.0.0"))
	sys := New("system-1", c, &fakeFactory{})
	ctrl := sandbox.NewLocalController([]string{"system-1"})

	err := sys.UpgradeWallet(context.Background(), ctrl, "user-1", "1.0.0")
	assert.Error(t, err)
}
