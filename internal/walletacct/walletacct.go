// Package walletacct implements the WalletAccount ordered registry
// described in spec §4.2: account creation, hide/unhide, rename, and
// guarded removal.
package walletacct

import (
	"fmt"
	"sync"

	"github.com/protocol-bank/custody-engine/internal/chainkey"
	"github.com/protocol-bank/custody-engine/internal/opnonce"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

// ChainState holds per-chain address and nonce bookkeeping for an account.
type ChainState struct {
	Address string
	Nonce   uint64
}

// Ledger holds the cached TEE public key and per-chain state for an
// account.
type Ledger struct {
	ECDSAPubKey []byte // cached compressed secp256k1 key; nil until first derivation
	Chains      map[chainkey.ChainKey]*ChainState
}

// WalletAccount is one entry in the registry.
type WalletAccount struct {
	ID          string
	Name        string
	Environment subaccount.Environment
	Hidden      bool
	Metadata    map[string]string
	Subaccount  subaccount.Subaccount
	Ledger      Ledger
}

// Registry is the ordered account_id -> WalletAccount map.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*WalletAccount
	order  []string
	nonces opnonce.EnvCounters // indexed by subaccount.Environment
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*WalletAccount)}
}

// inUseChecker reports whether removing an account would orphan a pending
// operation; supplied by the caller (the operation engine) to avoid a
// package import cycle.
type InUseChecker func(accountID string) bool

// CreateAccount increments the environment's nonce, synthesises the
// subaccount, and inserts a new named account. Idempotent per (env, nonce)
// since the nonce only ever advances once per call.
func (r *Registry) CreateAccount(env subaccount.Environment, name string) *WalletAccount {
	r.mu.Lock()
	defer r.mu.Unlock()

	nonce := r.nonces.Take(int(env))
	sa := subaccount.New(env, nonce)
	id := sa.ID()

	if name == "" {
		name = fmt.Sprintf("[%s] Account %d", env, nonce)
	}

	acct := &WalletAccount{
		ID:          id,
		Name:        name,
		Environment: env,
		Subaccount:  sa,
		Metadata:    make(map[string]string),
		Ledger: Ledger{
			Chains: make(map[chainkey.ChainKey]*ChainState),
		},
	}
	r.byID[id] = acct
	r.order = append(r.order, id)
	return acct
}

// Get returns the account by id.
func (r *Registry) Get(id string) (*WalletAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, walleterr.ErrAccountNotFound
	}
	return a, nil
}

// All returns accounts in insertion order.
func (r *Registry) All() []*WalletAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*WalletAccount, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Hide sets the hidden flag.
func (r *Registry) Hide(id string) error {
	return r.setHidden(id, true)
}

// Unhide clears the hidden flag.
func (r *Registry) Unhide(id string) error {
	return r.setHidden(id, false)
}

func (r *Registry) setHidden(id string, hidden bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return walleterr.ErrAccountNotFound
	}
	a.Hidden = hidden
	return nil
}

// Rename updates an account's display name.
func (r *Registry) Rename(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return walleterr.ErrAccountNotFound
	}
	a.Name = name
	return nil
}

// Remove deletes an account, refusing with ErrAccountInUse if inUse
// reports the account is referenced by a pending operation.
func (r *Registry) Remove(id string, inUse InUseChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return walleterr.ErrAccountNotFound
	}
	if inUse != nil && inUse(id) {
		return walleterr.ErrAccountInUse
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
