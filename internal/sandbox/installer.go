package sandbox

import (
	"context"
	"fmt"

	"github.com/protocol-bank/custody-engine/internal/release"
)

// WalletInstaller adapts a Controller plus the wallet's own self-upgrade
// Wasm buffer to operation.Installer, per spec §4.6: only a sealed,
// hash-matching buffer is accepted for install.
type WalletInstaller struct {
	CanisterID string
	Controller Controller
	Buffer     *release.Wasm
}

func NewWalletInstaller(canisterID string, controller Controller) *WalletInstaller {
	return &WalletInstaller{CanisterID: canisterID, Controller: controller, Buffer: release.NewWasm(0)}
}

// StageUpgrade resets the buffer to accept `size` bytes for a fresh
// self-upgrade payload.
func (w *WalletInstaller) StageUpgrade(size int) {
	w.Buffer = release.NewWasm(size)
}

// LoadChunk appends a chunk to the staged upgrade buffer.
func (w *WalletInstaller) LoadChunk(chunk []byte) (int, error) {
	return w.Buffer.Load(chunk)
}

func (w *WalletInstaller) Upgrade(ctx context.Context, version string) error {
	args, err := w.Buffer.UpgradeArgs(w.CanisterID)
	if err != nil {
		return fmt.Errorf("sandbox: upgrade %s: %w", version, err)
	}
	return w.Controller.InstallCode(ctx, args)
}

func (w *WalletInstaller) Reinstall(ctx context.Context, version string) error {
	args, err := w.Buffer.ReinstallArgs(w.CanisterID)
	if err != nil {
		return fmt.Errorf("sandbox: reinstall %s: %w", version, err)
	}
	return w.Controller.InstallCode(ctx, args)
}

func (w *WalletInstaller) UpdateControllers(ctx context.Context, controllers []string) error {
	return w.Controller.UpdateSettings(ctx, controllers)
}
