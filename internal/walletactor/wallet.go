// Package walletactor wires the operation engine, wallet-account registry,
// role registry, chain adapters, and the self-upgrade installer into a
// single Wallet actor — the only package that imports both internal/operation
// and internal/walletacct, so the flat, no-backward-reference design the
// Go Design Notes call for lives here rather than inside the engine.
package walletactor

import (
	"context"
	"time"

	"github.com/protocol-bank/custody-engine/internal/audit"
	"github.com/protocol-bank/custody-engine/internal/chainadapter"
	"github.com/protocol-bank/custody-engine/internal/operation"
	"github.com/protocol-bank/custody-engine/internal/roles"
	"github.com/protocol-bank/custody-engine/internal/sandbox"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
	"github.com/protocol-bank/custody-engine/internal/walletacct"
)

// Wallet is one single-threaded cooperative actor: every method that goes
// through the operation engine runs to completion under the engine's own
// mutex before the next is admitted, matching spec §5's scheduling model.
// CreateAccountDirect, AddSigner and SetChainAdapters do not take the
// engine's mutex. Suspension (awaiting the
// TEE signer, a chain RPC, or install_code) only ever happens inside
// Engine.respond's Execute call, after pending state has already been
// removed — never mid-handler.
type Wallet struct {
	ID        string
	Engine    *operation.Engine
	Accounts  *walletacct.Registry
	Users     *roles.Registry
	Installer *sandbox.WalletInstaller
	env       *operation.Env
	audit     *audit.Logger
}

// Deps bundles the chain-facing collaborators a Wallet needs; constructed
// once per wallet by whatever wires up the System↔Wallet relationship.
type Deps struct {
	EVM        *chainadapter.EVMAdapter
	BTC        *chainadapter.BTCAdapter
	Ledger     *chainadapter.LedgerAdapter
	Controller sandbox.Controller
	Audit      *audit.Logger
}

// New builds a Wallet actor for canister id `id`, owned by `owner` (the
// principal recorded as its first Full-access signer).
func New(id string, owner roles.User, deps Deps) *Wallet {
	accounts := walletacct.NewRegistry()
	users := roles.NewRegistry()
	users.Put(owner)

	engine := operation.NewEngine(users)
	installer := sandbox.NewWalletInstaller(id, deps.Controller)

	w := &Wallet{ID: id, Engine: engine, Accounts: accounts, Users: users, Installer: installer, audit: deps.Audit}
	acctAdapter := newAccountsAdapter(accounts, engine)
	w.env = &operation.Env{
		Accounts:  acctAdapter,
		ChainSend: newChainRouter(deps.EVM, deps.BTC),
		Ledger:    deps.Ledger,
		Users:     users,
		Installer: installer,
	}
	return w
}

// Propose admits a new operation under proposerText's identity.
func (w *Wallet) Propose(ctx context.Context, proposerText string, op operation.Operation, deadline *time.Time) (uint64, error) {
	id, err := w.Engine.Propose(ctx, w.env, proposerText, op, deadline)
	if w.audit != nil {
		result := audit.ResultSuccess
		if err != nil {
			result = audit.ResultDenied
		}
		w.audit.LogOperation(ctx, audit.EventOperationProposed, w.ID, proposerText, id, result, map[string]interface{}{"kind": op.Kind()})
	}
	return id, err
}

// Confirm records a Confirm vote, executing the operation once quorum is
// reached.
func (w *Wallet) Confirm(ctx context.Context, id uint64, callerText string) (*operation.ProcessedOperation, error) {
	proc, err := w.Engine.Confirm(ctx, w.env, id, callerText)
	if w.audit != nil && err == nil {
		if proc == nil {
			w.audit.LogOperation(ctx, audit.EventOperationConfirmed, w.ID, callerText, id, audit.ResultSuccess, nil)
		} else if proc.Status == operation.StatusFail {
			w.audit.LogOperation(ctx, audit.EventOperationFailed, w.ID, callerText, id, audit.ResultFailure, map[string]interface{}{"error": proc.Error})
		} else {
			w.audit.LogOperation(ctx, audit.EventOperationExecuted, w.ID, callerText, id, audit.ResultSuccess, nil)
		}
	}
	return proc, err
}

// Reject records a Reject vote, immediately archiving the operation.
func (w *Wallet) Reject(ctx context.Context, id uint64, callerText string) (*operation.ProcessedOperation, error) {
	proc, err := w.Engine.Reject(ctx, w.env, id, callerText)
	if w.audit != nil && err == nil {
		w.audit.LogOperation(ctx, audit.EventOperationRejected, w.ID, callerText, id, audit.ResultSuccess, nil)
	}
	return proc, err
}

// GetPending lists operations awaiting confirmation.
func (w *Wallet) GetPending() []*operation.PendingOperation { return w.Engine.GetPending() }

// GetProcessed looks up an archived operation outcome.
func (w *Wallet) GetProcessed(id uint64) (*operation.ProcessedOperation, bool) {
	return w.Engine.GetProcessed(id)
}

// CreateAccountDirect bypasses the approval engine for account creation
// done outside an Operation flow (e.g. the wallet's very first account),
// mirroring the wallet_account_create entry point alongside the
// CreateAccount operation variant used for subsequent ones.
func (w *Wallet) CreateAccountDirect(env subaccount.Environment, name string) *walletacct.WalletAccount {
	return w.Accounts.CreateAccount(env, name)
}

// AddSigner registers a new signer directly (used for initial wallet
// bootstrap outside the AddUser operation flow).
func (w *Wallet) AddSigner(u roles.User) { w.Users.Put(u) }

// SetChainAdapters rewires the chain-facing collaborators after
// construction, for callers (like the system actor's wallet factory)
// whose EVM/BTC adapters are tied to this Wallet's own Accounts registry
// and so can only be built once that registry already exists.
func (w *Wallet) SetChainAdapters(evm *chainadapter.EVMAdapter, btc *chainadapter.BTCAdapter, ledger *chainadapter.LedgerAdapter) {
	w.env.ChainSend = newChainRouter(evm, btc)
	w.env.Ledger = ledger
}
