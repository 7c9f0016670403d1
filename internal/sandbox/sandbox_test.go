package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletInstaller_UpgradeRequiresSealedBuffer(t *testing.T) {
	ctrl := NewLocalController([]string{"owner-1", "self-1"})
	installer := NewWalletInstaller("self-1", ctrl)

	err := installer.Upgrade(context.Background(), "1.0.0")
	assert.Error(t, err)

	installer.StageUpgrade(4)
	n, err := installer.LoadChunk([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, installer.Upgrade(context.Background(), "1.0.0"))

	status, err := ctrl.Status(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, status.ModuleHash)
}

func TestLocalController_RefusesEmptyControllerSet(t *testing.T) {
	ctrl := NewLocalController([]string{"owner-1"})
	err := ctrl.UpdateSettings(context.Background(), nil)
	assert.Error(t, err)
}
