package walletactor

import (
	"github.com/protocol-bank/custody-engine/internal/operation"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
	"github.com/protocol-bank/custody-engine/internal/walletacct"
)

// accountHandle adapts *walletacct.WalletAccount to operation.Account.
type accountHandle struct{ acct *walletacct.WalletAccount }

func (h accountHandle) ID() string { return h.acct.ID }

// accountsAdapter adapts *walletacct.Registry, plus a reference to the
// operation engine's pending set, to operation.AccountManager. Holding both
// collaborators here — rather than letting walletacct or operation import
// each other — keeps the design flat with no backward reference: the
// actor is the only place that knows about both.
type accountsAdapter struct {
	registry *walletacct.Registry
	engine   *operation.Engine
}

func newAccountsAdapter(r *walletacct.Registry, e *operation.Engine) *accountsAdapter {
	return &accountsAdapter{registry: r, engine: e}
}

func (a *accountsAdapter) Get(id string) (operation.Account, error) {
	acct, err := a.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return accountHandle{acct}, nil
}

func (a *accountsAdapter) Create(env subaccount.Environment, name string) operation.Account {
	acct := a.registry.CreateAccount(env, name)
	return accountHandle{acct}
}

func (a *accountsAdapter) Remove(id string) error {
	return a.registry.Remove(id, a.accountReferencedByPending)
}

func (a *accountsAdapter) Rename(id, name string) error { return a.registry.Rename(id, name) }
func (a *accountsAdapter) Hide(id string) error         { return a.registry.Hide(id) }
func (a *accountsAdapter) Unhide(id string) error       { return a.registry.Unhide(id) }

// accountReferencedByPending implements walletacct.InUseChecker by
// scanning the engine's pending operations; guards spec §4.2's
// AccountInUse refusal.
func (a *accountsAdapter) accountReferencedByPending(accountID string) bool {
	for _, p := range a.engine.GetPending() {
		if referencer, ok := p.Op.(interface{ ReferencedAccountID() string }); ok {
			if referencer.ReferencedAccountID() == accountID {
				return true
			}
		}
	}
	return false
}
