// Package sandbox provides the installer boundary that operation variants
// reach through to mutate a wallet's own running code and controller set —
// the Go-native stand-in for the IC management canister's
// install_code/update_settings/canister_status calls that
// original_source/backend/b3_wallet_lib/src/wallet.rs delegates to.
package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/protocol-bank/custody-engine/internal/release"
)

// Controller is the narrow surface a wallet or system actor needs against
// its own runtime: install a module, read back its status, and manage the
// controller principal set. A production build would forward these to a
// real orchestrator (container runtime, VM supervisor); LocalController is
// an in-memory reference implementation for tests and single-process runs.
type Controller interface {
	InstallCode(ctx context.Context, args release.InstallArgs) error
	UpdateSettings(ctx context.Context, controllers []string) error
	Status(ctx context.Context) (Status, error)
}

// Status mirrors the management canister's canister_status response
// fields relevant to this domain.
type Status struct {
	ModuleHash  string
	Controllers []string
	Running     bool
}

// LocalController tracks installed module hashes and controller sets
// in-process, standing in for a real sandboxed execution environment.
type LocalController struct {
	mu          sync.Mutex
	moduleHash  string
	controllers []string
	running     bool
}

// NewLocalController seeds the controller set with the owning principals
// that must always retain control, per spec §4.5's
// update_canister_controllers invariant.
func NewLocalController(initialControllers []string) *LocalController {
	return &LocalController{controllers: append([]string(nil), initialControllers...), running: true}
}

func (c *LocalController) InstallCode(ctx context.Context, args release.InstallArgs) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(args.Module) == 0 {
		return fmt.Errorf("sandbox: empty module")
	}
	c.moduleHash = hashHex(args.Module)
	c.running = true
	return nil
}

func (c *LocalController) UpdateSettings(ctx context.Context, controllers []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(controllers) == 0 {
		return fmt.Errorf("sandbox: refusing to clear controller set")
	}
	c.controllers = append([]string(nil), controllers...)
	return nil
}

func (c *LocalController) Status(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{ModuleHash: c.moduleHash, Controllers: append([]string(nil), c.controllers...), Running: c.running}, nil
}
