package operation

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/protocol-bank/custody-engine/internal/principal"
	"github.com/protocol-bank/custody-engine/internal/roles"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
)

// TokenAmount is the typed amount carried by transfer variants. The
// original source's SendToken::send used a bare u64; that form is
// deprecated in favor of this typed wrapper (see DESIGN.md's Open
// Question resolution).
type TokenAmount struct {
	Value *big.Int
}

func NewTokenAmount(v uint64) TokenAmount { return TokenAmount{Value: new(big.Int).SetUint64(v)} }

func (t TokenAmount) Positive() bool { return t.Value != nil && t.Value.Sign() > 0 }

// -- SendToken / IcpTransfer / TopUpTransfer: native-ledger transfers --

type transferKind int

const (
	transferSend transferKind = iota
	transferIcp
	transferTopUp
)

// nativeTransfer is the shared shape behind SendToken, IcpTransfer, and
// TopUpTransfer: each differs only in memo and Kind().
type nativeTransfer struct {
	kind      transferKind
	AccountID string
	ToAddress string
	Amount    TokenAmount
	Memo      uint64
}

func NewSendToken(accountID, to string, amount TokenAmount) Operation {
	return &nativeTransfer{kind: transferSend, AccountID: accountID, ToAddress: to, Amount: amount}
}

func NewIcpTransfer(accountID, to string, amount TokenAmount, memo uint64) Operation {
	return &nativeTransfer{kind: transferIcp, AccountID: accountID, ToAddress: to, Amount: amount, Memo: memo}
}

func NewTopUpTransfer(accountID, to string, amount TokenAmount, memo uint64) Operation {
	return &nativeTransfer{kind: transferTopUp, AccountID: accountID, ToAddress: to, Amount: amount, Memo: memo}
}

func (n *nativeTransfer) Kind() Kind {
	switch n.kind {
	case transferIcp:
		return KindIcpTransfer
	case transferTopUp:
		return KindTopUpTransfer
	default:
		return KindSendToken
	}
}

func (n *nativeTransfer) Validate(_ context.Context, env *Env) error {
	if !n.Amount.Positive() {
		return fmt.Errorf("amount must be > 0")
	}
	if _, err := env.Accounts.Get(n.AccountID); err != nil {
		return err
	}
	return nil
}

func (n *nativeTransfer) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	idx, err := env.Ledger.Transfer(ctx, n.AccountID, n.ToAddress, n.Amount.Value.Uint64(), n.Memo)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("native transfer: %w", err)
	}
	return ExecutionResult{BlockIndex: &idx}, nil
}

// -- EVM variants --

type evmTransfer struct {
	AccountID string
	ChainID   uint64
	To        string
	AmountWei string
}

func NewEvmTransfer(accountID string, chainID uint64, to, amountWei string) Operation {
	return &evmTransfer{AccountID: accountID, ChainID: chainID, To: to, AmountWei: amountWei}
}

func (e *evmTransfer) Kind() Kind { return KindEvmTransfer }

func (e *evmTransfer) Validate(_ context.Context, env *Env) error {
	if e.AmountWei == "" {
		return errors.New("amount required")
	}
	_, err := env.Accounts.Get(e.AccountID)
	return err
}

func (e *evmTransfer) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	tx, err := env.ChainSend.SendEVM(ctx, e.AccountID, e.ChainID, e.To, e.AmountWei)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("evm transfer: %w", err)
	}
	return ExecutionResult{SignedTxHex: tx}, nil
}

type evmTransferErc20 struct {
	AccountID string
	ChainID   uint64
	Token     string
	To        string
	Amount    string
}

func NewEvmTransferErc20(accountID string, chainID uint64, token, to, amount string) Operation {
	return &evmTransferErc20{AccountID: accountID, ChainID: chainID, Token: token, To: to, Amount: amount}
}

func (e *evmTransferErc20) Kind() Kind { return KindEvmTransferErc20 }

func (e *evmTransferErc20) Validate(_ context.Context, env *Env) error {
	if e.Amount == "" || e.Token == "" {
		return errors.New("token and amount required")
	}
	_, err := env.Accounts.Get(e.AccountID)
	return err
}

func (e *evmTransferErc20) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	tx, err := env.ChainSend.SendERC20(ctx, e.AccountID, e.ChainID, e.Token, e.To, e.Amount)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("erc20 transfer: %w", err)
	}
	return ExecutionResult{SignedTxHex: tx}, nil
}

type evmDeployContract struct {
	AccountID string
	ChainID   uint64
	InitCode  string
}

func NewEvmDeployContract(accountID string, chainID uint64, initCode string) Operation {
	return &evmDeployContract{AccountID: accountID, ChainID: chainID, InitCode: initCode}
}

func (e *evmDeployContract) Kind() Kind { return KindEvmDeployContract }

func (e *evmDeployContract) Validate(_ context.Context, env *Env) error {
	if e.InitCode == "" {
		return errors.New("init code required")
	}
	_, err := env.Accounts.Get(e.AccountID)
	return err
}

func (e *evmDeployContract) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	tx, addr, err := env.ChainSend.DeployContract(ctx, e.AccountID, e.ChainID, e.InitCode)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("deploy contract: %w", err)
	}
	return ExecutionResult{SignedTxHex: tx, ContractAddr: addr}, nil
}

type evmSignMessage struct {
	AccountID string
	Message   []byte
}

func NewEvmSignMessage(accountID string, message []byte) Operation {
	return &evmSignMessage{AccountID: accountID, Message: message}
}

func (e *evmSignMessage) Kind() Kind { return KindEvmSignMessage }

func (e *evmSignMessage) Validate(_ context.Context, env *Env) error {
	if len(e.Message) == 0 {
		return errors.New("message required")
	}
	_, err := env.Accounts.Get(e.AccountID)
	return err
}

func (e *evmSignMessage) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	sig, err := env.ChainSend.SignMessage(ctx, e.AccountID, e.Message)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("sign message: %w", err)
	}
	return ExecutionResult{Signature: sig}, nil
}

type evmSignTransaction struct {
	AccountID     string
	ChainID       uint64
	UnsignedTxHex string
	raw           bool
}

func NewEvmSignTransaction(accountID string, chainID uint64, unsignedTxHex string) Operation {
	return &evmSignTransaction{AccountID: accountID, ChainID: chainID, UnsignedTxHex: unsignedTxHex}
}

func NewEvmSignRawTransaction(accountID string, chainID uint64, unsignedTxHex string) Operation {
	return &evmSignTransaction{AccountID: accountID, ChainID: chainID, UnsignedTxHex: unsignedTxHex, raw: true}
}

func (e *evmSignTransaction) Kind() Kind {
	if e.raw {
		return KindEvmSignRawTransaction
	}
	return KindEvmSignTransaction
}

func (e *evmSignTransaction) Validate(_ context.Context, env *Env) error {
	if e.UnsignedTxHex == "" {
		return errors.New("unsigned transaction required")
	}
	_, err := env.Accounts.Get(e.AccountID)
	return err
}

func (e *evmSignTransaction) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	signed, err := env.ChainSend.SignTransaction(ctx, e.AccountID, e.ChainID, e.UnsignedTxHex)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("sign transaction: %w", err)
	}
	return ExecutionResult{SignedTxHex: signed}, nil
}

// -- BTC --

type btcTransfer struct {
	AccountID  string
	Net        string
	To         string
	AmountSats uint64
}

func NewBtcTransfer(accountID, net, to string, amountSats uint64) Operation {
	return &btcTransfer{AccountID: accountID, Net: net, To: to, AmountSats: amountSats}
}

func (b *btcTransfer) Kind() Kind { return KindBtcTransfer }

func (b *btcTransfer) Validate(_ context.Context, env *Env) error {
	if b.AmountSats == 0 {
		return errors.New("amount must be > 0")
	}
	_, err := env.Accounts.Get(b.AccountID)
	return err
}

func (b *btcTransfer) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	tx, err := env.ChainSend.SendBTC(ctx, b.AccountID, b.Net, b.To, b.AmountSats)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("btc transfer: %w", err)
	}
	return ExecutionResult{SignedTxHex: tx}, nil
}

// -- User management --

type addUser struct {
	PrincipalText string
	RoleName      string
}

func NewAddUser(principalText, roleName string) Operation {
	return &addUser{PrincipalText: principalText, RoleName: roleName}
}

func (a *addUser) Kind() Kind { return KindAddUser }

func (a *addUser) Validate(_ context.Context, _ *Env) error {
	if a.PrincipalText == "" || a.RoleName == "" {
		return errors.New("principal and role required")
	}
	return nil
}

func (a *addUser) Execute(_ context.Context, env *Env) (ExecutionResult, error) {
	p, err := principal.Parse(a.PrincipalText)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("add user: %w", err)
	}
	env.Users.Put(roles.User{
		Principal: p,
		Role:      roles.Role{Name: a.RoleName, Access: roles.Access{Kind: roles.Full}},
		Class:     roles.ClassUser,
	})
	return ExecutionResult{Extra: map[string]string{"principal": a.PrincipalText, "role": a.RoleName}}, nil
}

type removeUser struct {
	PrincipalText string
}

func NewRemoveUser(principalText string) Operation { return &removeUser{PrincipalText: principalText} }

func (r *removeUser) Kind() Kind { return KindRemoveUser }

func (r *removeUser) Validate(_ context.Context, _ *Env) error {
	if r.PrincipalText == "" {
		return errors.New("principal required")
	}
	return nil
}

func (r *removeUser) Execute(_ context.Context, env *Env) (ExecutionResult, error) {
	p, err := principal.Parse(r.PrincipalText)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("remove user: %w", err)
	}
	env.Users.Remove(p)
	return ExecutionResult{Extra: map[string]string{"principal": r.PrincipalText}}, nil
}

// -- Account management --

type createAccount struct {
	Environment subaccount.Environment
	Name        string
}

func NewCreateAccount(env subaccount.Environment, name string) Operation {
	return &createAccount{Environment: env, Name: name}
}

func (c *createAccount) Kind() Kind                               { return KindCreateAccount }
func (c *createAccount) Validate(_ context.Context, _ *Env) error { return nil }
func (c *createAccount) Execute(_ context.Context, env *Env) (ExecutionResult, error) {
	acct := env.Accounts.Create(c.Environment, c.Name)
	return ExecutionResult{Extra: map[string]string{"environment": c.Environment.String(), "account_id": acct.ID()}}, nil
}

type accountMutation struct {
	kind      Kind
	AccountID string
	NewName   string
}

func NewRemoveAccount(accountID string) Operation {
	return &accountMutation{kind: KindRemoveAccount, AccountID: accountID}
}
func NewRenameAccount(accountID, newName string) Operation {
	return &accountMutation{kind: KindRenameAccount, AccountID: accountID, NewName: newName}
}
func NewHideAccount(accountID string) Operation {
	return &accountMutation{kind: KindHideAccount, AccountID: accountID}
}
func NewUnhideAccount(accountID string) Operation {
	return &accountMutation{kind: KindUnhideAccount, AccountID: accountID}
}

func (a *accountMutation) Kind() Kind { return a.kind }

func (a *accountMutation) Validate(_ context.Context, env *Env) error {
	_, err := env.Accounts.Get(a.AccountID)
	return err
}

func (a *accountMutation) Execute(_ context.Context, env *Env) (ExecutionResult, error) {
	var err error
	switch a.kind {
	case KindRemoveAccount:
		err = env.Accounts.Remove(a.AccountID)
	case KindRenameAccount:
		err = env.Accounts.Rename(a.AccountID, a.NewName)
	case KindHideAccount:
		err = env.Accounts.Hide(a.AccountID)
	case KindUnhideAccount:
		err = env.Accounts.Unhide(a.AccountID)
	}
	if err != nil {
		return ExecutionResult{}, err
	}
	return ExecutionResult{Extra: map[string]string{"account_id": a.AccountID, "new_name": a.NewName}}, nil
}

// -- System delegation --

type upgradeCanister struct {
	Version string
	Mode    string // "Upgrade" or "Reinstall"
}

func NewUpgradeCanister(version string) Operation {
	return &upgradeCanister{Version: version, Mode: "Upgrade"}
}

func NewReinstallCanister(version string) Operation {
	return &upgradeCanister{Version: version, Mode: "Reinstall"}
}

func (u *upgradeCanister) Kind() Kind { return KindUpgradeCanister }

func (u *upgradeCanister) Validate(_ context.Context, _ *Env) error {
	if u.Version == "" {
		return errors.New("version required")
	}
	return nil
}

func (u *upgradeCanister) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	var err error
	if u.Mode == "Reinstall" {
		err = env.Installer.Reinstall(ctx, u.Version)
	} else {
		err = env.Installer.Upgrade(ctx, u.Version)
	}
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("install code: %w", err)
	}
	return ExecutionResult{Extra: map[string]string{"version": u.Version, "mode": u.Mode}}, nil
}

type updateCanisterSettings struct {
	Controllers []string
}

func NewUpdateCanisterSettings(controllers []string) Operation {
	return &updateCanisterSettings{Controllers: controllers}
}

func (u *updateCanisterSettings) Kind() Kind                               { return KindUpdateCanisterSettings }
func (u *updateCanisterSettings) Validate(_ context.Context, _ *Env) error { return nil }

func (u *updateCanisterSettings) Execute(ctx context.Context, env *Env) (ExecutionResult, error) {
	if err := env.Installer.UpdateControllers(ctx, u.Controllers); err != nil {
		return ExecutionResult{}, fmt.Errorf("update controllers: %w", err)
	}
	return ExecutionResult{}, nil
}

func (n *nativeTransfer) ReferencedAccountID() string     { return n.AccountID }
func (e *evmTransfer) ReferencedAccountID() string        { return e.AccountID }
func (e *evmTransferErc20) ReferencedAccountID() string   { return e.AccountID }
func (e *evmDeployContract) ReferencedAccountID() string  { return e.AccountID }
func (e *evmSignMessage) ReferencedAccountID() string     { return e.AccountID }
func (e *evmSignTransaction) ReferencedAccountID() string { return e.AccountID }
func (b *btcTransfer) ReferencedAccountID() string        { return b.AccountID }
func (a *accountMutation) ReferencedAccountID() string    { return a.AccountID }
