// Package system implements the System actor: the single canister-wide
// controller set, release catalogue, and per-user wallet registry,
// grounded on original_source/backend/b3_system_lib/src/state.rs.
package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/protocol-bank/custody-engine/internal/audit"
	"github.com/protocol-bank/custody-engine/internal/ratelimit"
	"github.com/protocol-bank/custody-engine/internal/release"
	"github.com/protocol-bank/custody-engine/internal/sandbox"
	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

// WalletRegistration records System's view of a user's wallet, per spec
// §6's `WalletReg` state shape.
type WalletRegistration struct {
	Principal string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WalletFactory creates the backing actor for a newly registered wallet;
// System only needs the resulting principal and a sandbox.Controller to
// drive its initial install, so this stays a narrow collaborator rather
// than importing internal/walletactor directly.
type WalletFactory interface {
	CreateWallet(ctx context.Context, owner string) (principalText string, installer sandbox.Controller, err error)
}

// System is the single-threaded cooperative actor holding controllers,
// the release catalogue, and the per-user wallet registry. All exported
// methods run to completion before another is admitted, matching spec
// §5's scheduling model for the System actor.
type System struct {
	mu          sync.Mutex
	selfID      string
	controllers map[string]struct{}
	catalogue   *release.Catalogue
	wallets     map[string]WalletRegistration // user principal -> registration
	factory     WalletFactory
	limiter     *ratelimit.PrincipalLimiter
	audit       *audit.Logger
}

// WithAudit attaches an audit logger for create_wallet, rate-limit, and
// controller-update events; a System built without one simply skips
// auditing, matching audit.Logger's own "log/slog or nothing" posture.
func (s *System) WithAudit(logger *audit.Logger) *System {
	s.audit = logger
	return s
}

// New builds a System actor owning the given release catalogue and
// wallet factory, seeded with its own canister id as a permanent
// controller.
func New(selfID string, catalogue *release.Catalogue, factory WalletFactory) *System {
	s := &System{
		selfID:      selfID,
		controllers: map[string]struct{}{selfID: {}},
		catalogue:   catalogue,
		wallets:     make(map[string]WalletRegistration),
		factory:     factory,
		limiter:     ratelimit.NewSystemRateLimiter(),
	}
	return s
}

// CreateWallet is idempotent: it returns the existing wallet principal if
// `user` already has one registered, otherwise creates a new sandboxed
// actor, installs the latest non-deprecated release, records the
// registration, and returns its principal. Gated by SYSTEM_RATE_LIMIT.
func (s *System) CreateWallet(ctx context.Context, user string) (string, error) {
	s.mu.Lock()
	if reg, ok := s.wallets[user]; ok {
		s.mu.Unlock()
		return reg.Principal, nil
	}
	s.mu.Unlock()

	if !s.limiter.Allow(user) {
		if s.audit != nil {
			s.audit.LogRateLimited(ctx, user)
		}
		return "", walleterr.ErrRateLimitExceeded
	}

	latest, err := s.catalogue.Latest()
	if err != nil {
		return "", fmt.Errorf("system: create wallet: %w", err)
	}

	principalText, controller, err := s.factory.CreateWallet(ctx, user)
	if err != nil {
		return "", fmt.Errorf("system: create wallet: %w", err)
	}

	args, err := latest.Wasm.UpgradeArgs(principalText)
	if err != nil {
		return "", fmt.Errorf("system: stage initial install: %w", err)
	}
	args.Mode = release.ModeInstall
	if err := controller.InstallCode(ctx, args); err != nil {
		return "", fmt.Errorf("system: initial install: %w", err)
	}
	if err := controller.UpdateSettings(ctx, s.ControllerSetFor(user, principalText)); err != nil {
		return "", fmt.Errorf("system: set initial controllers: %w", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.wallets[user] = WalletRegistration{Principal: principalText, CreatedAt: now, UpdatedAt: now}
	s.mu.Unlock()

	if s.audit != nil {
		s.audit.LogWalletCreated(ctx, user, principalText)
	}

	return principalText, nil
}

// ControllerSetFor computes the controller list System installs on a
// freshly created wallet: itself plus the owning user, per spec §4.5.
func (s *System) ControllerSetFor(user, walletPrincipal string) []string {
	return []string{s.selfID, user}
}

// UpdateCanisterControllers forces the wallet's owner and the wallet's
// own id into the final list before calling the sandbox settings API,
// per spec §4.5's controller invariant and scenario S7.
func (s *System) UpdateCanisterControllers(ctx context.Context, ctrl sandbox.Controller, owner, self string, requested []string) error {
	final := ensureContains(ensureContains(requested, owner), self)
	err := ctrl.UpdateSettings(ctx, final)
	if s.audit != nil {
		result := audit.ResultSuccess
		if err != nil {
			result = audit.ResultFailure
		}
		s.audit.Log(ctx, audit.Event{
			EventType: audit.EventControllersUpdated,
			Principal: owner,
			WalletID:  self,
			Result:    result,
			Details:   map[string]interface{}{"controllers": final},
		})
	}
	return err
}

func ensureContains(list []string, want string) []string {
	for _, v := range list {
		if v == want {
			return list
		}
	}
	return append(list, want)
}

// UpgradeWallet loads the target version's sealed wasm and issues an
// upgrade install_code against the user's wallet controller.
func (s *System) UpgradeWallet(ctx context.Context, ctrl sandbox.Controller, user, targetVersion string) error {
	return s.dispatchInstall(ctx, ctrl, targetVersion, release.ModeUpgrade)
}

// ReinstallWallet is identical to UpgradeWallet but installs in
// Reinstall mode, discarding the wallet's prior state.
func (s *System) ReinstallWallet(ctx context.Context, ctrl sandbox.Controller, user, targetVersion string) error {
	return s.dispatchInstall(ctx, ctrl, targetVersion, release.ModeReinstall)
}

func (s *System) dispatchInstall(ctx context.Context, ctrl sandbox.Controller, version string, mode release.InstallMode) error {
	entry, err := s.catalogue.Get(version)
	if err != nil {
		return err
	}
	if entry.Deprecated {
		return walleterr.ErrReleaseDeprecated
	}
	var args release.InstallArgs
	switch mode {
	case release.ModeReinstall:
		args, err = entry.Wasm.ReinstallArgs(s.selfID)
	default:
		args, err = entry.Wasm.UpgradeArgs(s.selfID)
		args.Mode = mode
	}
	if err != nil {
		return fmt.Errorf("system: dispatch install: %w", err)
	}
	if err := ctrl.InstallCode(ctx, args); err != nil {
		return fmt.Errorf("system: %w", walleterr.ErrInstallCode)
	}
	return nil
}

// AddController registers a new controller principal.
func (s *System) AddController(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controllers[p] = struct{}{}
}

// RemoveController deregisters a controller principal; the System's own
// id can never be removed.
func (s *System) RemoveController(p string) error {
	if p == s.selfID {
		return fmt.Errorf("system: cannot remove self from controllers")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.controllers, p)
	return nil
}

// Controllers lists the current controller principals.
func (s *System) Controllers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.controllers))
	for p := range s.controllers {
		out = append(out, p)
	}
	return out
}

// GetUserIDs lists every user with a registered wallet.
func (s *System) GetUserIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.wallets))
	for u := range s.wallets {
		out = append(out, u)
	}
	return out
}

// GetCanister returns the registered wallet principal for `user`, or
// ErrWalletNotInitialized.
func (s *System) GetCanister(user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.wallets[user]
	if !ok {
		return "", walleterr.ErrWalletNotInitialized
	}
	return reg.Principal, nil
}

// Releases lists the release catalogue.
func (s *System) Releases() []release.Entry { return s.catalogue.Releases() }

// LatestRelease returns the sealed, non-deprecated release with the
// lexicographically greatest version (see release.Catalogue.Latest).
func (s *System) LatestRelease() (release.Entry, error) { return s.catalogue.Latest() }
