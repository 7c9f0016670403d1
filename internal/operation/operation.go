// Package operation implements the Operation lifecycle engine: proposal,
// multi-party confirm/reject, quorum math, and dispatch to per-variant
// executors, per spec §4.3.
//
// Tagged-variant dispatch replaces a source enum+trait-object pattern with
// a sealed interface plus a small method table.
package operation

import (
	"context"
	"fmt"
	"time"

	"github.com/protocol-bank/custody-engine/internal/roles"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
)

// DefaultDeadline is the default proposal lifetime, matching
// original_source/backend/b3_signer_lib/src/request/sign.rs's 15-minute
// default (expressed there in nanoseconds).
const DefaultDeadline = 15 * time.Minute

// Kind names an Operation variant for role-coverage checks and dispatch.
type Kind string

const (
	KindSendToken              Kind = "SendToken"
	KindEvmTransfer            Kind = "EvmTransfer"
	KindEvmSignMessage         Kind = "EvmSignMessage"
	KindEvmTransferErc20       Kind = "EvmTransferErc20"
	KindEvmDeployContract      Kind = "EvmDeployContract"
	KindEvmSignTransaction     Kind = "EvmSignTransaction"
	KindEvmSignRawTransaction  Kind = "EvmSignRawTransaction"
	KindBtcTransfer            Kind = "BtcTransfer"
	KindIcpTransfer            Kind = "IcpTransfer"
	KindTopUpTransfer          Kind = "TopUpTransfer"
	KindAddUser                Kind = "AddUser"
	KindRemoveUser             Kind = "RemoveUser"
	KindCreateAccount          Kind = "CreateAccount"
	KindRemoveAccount          Kind = "RemoveAccount"
	KindRenameAccount          Kind = "RenameAccount"
	KindHideAccount            Kind = "HideAccount"
	KindUnhideAccount          Kind = "UnhideAccount"
	KindUpgradeCanister        Kind = "UpgradeCanister"
	KindUpdateCanisterSettings Kind = "UpdateCanisterSettings"
)

// mutatingKinds reports whether a Kind mutates wallet state (used by
// Access.Covers for the ReadOnly access level).
var mutatingKinds = map[Kind]bool{
	KindSendToken:              true,
	KindEvmTransfer:            true,
	KindEvmTransferErc20:       true,
	KindEvmDeployContract:      true,
	KindEvmSignTransaction:     true,
	KindEvmSignRawTransaction:  true,
	KindBtcTransfer:            true,
	KindIcpTransfer:            true,
	KindTopUpTransfer:          true,
	KindAddUser:                true,
	KindRemoveUser:             true,
	KindCreateAccount:          true,
	KindRemoveAccount:          true,
	KindRenameAccount:          true,
	KindHideAccount:            true,
	KindUnhideAccount:          true,
	KindUpgradeCanister:        true,
	KindUpdateCanisterSettings: true,
}

func IsMutating(k Kind) bool { return mutatingKinds[k] }

// ExecutionResult is the polymorphic payload an executor produces on
// success.
type ExecutionResult struct {
	BlockIndex   *uint64
	SignedTxHex  string
	Signature    []byte
	ContractAddr string
	Extra        map[string]string
}

// Operation is the sealed interface every variant implements. Validate
// performs pre-admission checks (amount > 0, chain initialised, etc.);
// Execute performs the side-effecting dispatch once quorum is reached.
type Operation interface {
	Kind() Kind
	Validate(ctx context.Context, env *Env) error
	Execute(ctx context.Context, env *Env) (ExecutionResult, error)
}

// Env is the set of collaborators an Operation's Validate/Execute methods
// may use. It is passed by reference from the owning actor's state root —
// no process-wide singleton holds it, per the Go Design Notes.
type Env struct {
	Accounts  AccountManager
	ChainSend ChainSender
	Ledger    LedgerSender
	Users     *roles.Registry
	Installer Installer
}

// AccountLookup, AccountManager, ChainSender, LedgerSender, Installer are
// narrow collaborator interfaces implemented elsewhere (walletacct,
// chainadapter, system) and injected via Env to keep this package free of
// import cycles.
type AccountLookup interface {
	Get(id string) (Account, error)
}

// AccountManager extends AccountLookup with the mutations CreateAccount,
// Remove/Rename/Hide/Unhide Account variants need to perform.
type AccountManager interface {
	AccountLookup
	Create(env subaccount.Environment, name string) Account
	Remove(id string) error
	Rename(id, name string) error
	Hide(id string) error
	Unhide(id string) error
}

type Account interface {
	ID() string
}

type ChainSender interface {
	SendEVM(ctx context.Context, accountID string, chainID uint64, to string, amountWei string) (txHex string, err error)
	SendERC20(ctx context.Context, accountID string, chainID uint64, token, to, amount string) (txHex string, err error)
	DeployContract(ctx context.Context, accountID string, chainID uint64, initCode string) (txHex, contractAddr string, err error)
	SignMessage(ctx context.Context, accountID string, message []byte) (sig []byte, err error)
	SignTransaction(ctx context.Context, accountID string, chainID uint64, unsignedTxHex string) (signedTxHex string, err error)
	SendBTC(ctx context.Context, accountID string, net string, to string, amountSats uint64) (txHex string, err error)
}

type LedgerSender interface {
	Transfer(ctx context.Context, accountID string, toAccountIdentifier string, amountE8s uint64, memo uint64) (blockIndex uint64, err error)
}

type Installer interface {
	Upgrade(ctx context.Context, version string) error
	Reinstall(ctx context.Context, version string) error
	UpdateControllers(ctx context.Context, controllers []string) error
}

// PendingOperation is an admitted, not-yet-resolved operation.
type PendingOperation struct {
	ID          uint64
	Proposer    string // principal text
	AllowedRole string
	Deadline    time.Time
	CreatedAt   time.Time
	Op          Operation
	Responses   map[string]Response // principal text -> response
}

// Response is a signer's vote on a PendingOperation.
type Response int

const (
	Confirm Response = iota
	Reject
)

// Status is the outcome of a ProcessedOperation.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFail:
		return "Fail"
	default:
		return "Pending"
	}
}

// ProcessedOperation is the archived record of a resolved PendingOperation.
type ProcessedOperation struct {
	Pending   PendingOperation
	Status    Status
	Error     string
	Result    *ExecutionResult
	Timestamp time.Time
}

// ValidationError is returned synchronously from Propose and never enters
// the pending map.
type ValidationError struct {
	Err error
}

func (v *ValidationError) Error() string { return v.Err.Error() }
func (v *ValidationError) Unwrap() error { return v.Err }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}
