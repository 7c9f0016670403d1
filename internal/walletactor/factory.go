package walletactor

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/protocol-bank/custody-engine/internal/audit"
	"github.com/protocol-bank/custody-engine/internal/chainadapter"
	"github.com/protocol-bank/custody-engine/internal/principal"
	"github.com/protocol-bank/custody-engine/internal/roles"
	"github.com/protocol-bank/custody-engine/internal/sandbox"
	"github.com/protocol-bank/custody-engine/internal/walletacct"
)

// ChainAdapterBuilder builds the EVM/BTC/Ledger adapters for one wallet's
// own Accounts registry — these adapters resolve account pubkeys/addresses
// against that specific registry, so they can't be shared across wallets
// the way the underlying tee.Signer and chainnonce.Manager are.
type ChainAdapterBuilder func(accounts *walletacct.Registry) (*chainadapter.EVMAdapter, *chainadapter.BTCAdapter, *chainadapter.LedgerAdapter)

// Registry owns every running wallet actor in the process, the Go
// stand-in for the canister registry a real multi-canister deployment
// would use — one Wallet per entry, looked up by its principal text.
type Registry struct {
	mu       sync.RWMutex
	wallets  map[string]*Wallet
	adapters ChainAdapterBuilder
	audit    *audit.Logger
}

// NewRegistry builds a Registry whose CreateWallet mints new Wallet
// actors, wiring each one's chain adapters via adapters once its own
// Accounts registry exists.
func NewRegistry(adapters ChainAdapterBuilder) *Registry {
	return &Registry{wallets: make(map[string]*Wallet), adapters: adapters}
}

// WithAudit attaches an audit logger that every wallet minted from this
// point forward will forward its operation lifecycle events to.
func (r *Registry) WithAudit(logger *audit.Logger) *Registry {
	r.audit = logger
	return r
}

// CreateWallet implements system.WalletFactory: it mints a principal for
// the new wallet, builds its actor with owner as the sole initial user,
// and registers it for lookup.
func (r *Registry) CreateWallet(ctx context.Context, owner string) (string, sandbox.Controller, error) {
	ownerPrincipal, err := parsePrincipalText(owner)
	if err != nil {
		return "", nil, fmt.Errorf("walletactor: parse owner principal: %w", err)
	}

	raw := make([]byte, 10)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("walletactor: generate wallet id: %w", err)
	}
	walletPrincipal, err := principal.New(raw)
	if err != nil {
		return "", nil, fmt.Errorf("walletactor: mint wallet principal: %w", err)
	}
	walletID := walletPrincipal.String()

	ownerUser := roles.User{
		Principal: ownerPrincipal,
		Role:      roles.Role{Name: "owner", Access: roles.Access{Kind: roles.Full}},
		Class:     roles.ClassUser,
		Name:      "owner",
	}

	deps := Deps{Controller: sandbox.NewLocalController([]string{walletID}), Audit: r.audit}
	w := New(walletID, ownerUser, deps)
	if r.adapters != nil {
		evm, btc, ledger := r.adapters(w.Accounts)
		w.SetChainAdapters(evm, btc, ledger)
	}

	r.mu.Lock()
	r.wallets[walletID] = w
	r.mu.Unlock()

	return walletID, w.Installer.Controller, nil
}

// Lookup satisfies httpapi.WalletLookup.
func (r *Registry) Lookup(walletID string) (*Wallet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[walletID]
	return w, ok
}

// ControllerFor satisfies the system HTTP surface's controller lookup,
// handing back the same sandbox.Controller the wallet was created with.
func (r *Registry) ControllerFor(walletID string) (sandbox.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return nil, false
	}
	return w.Installer.Controller, true
}

func parsePrincipalText(text string) (principal.Principal, error) {
	if text == "" {
		return principal.Principal{}, fmt.Errorf("empty principal text")
	}
	return principal.Parse(text)
}
