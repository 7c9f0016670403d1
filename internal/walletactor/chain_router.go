package walletactor

import (
	"context"

	"github.com/protocol-bank/custody-engine/internal/chainadapter"
)

// chainRouter composes the EVM and BTC adapters into operation.ChainSender,
// since each chain family lives behind its own adapter type but the
// engine only knows one ChainSender collaborator.
type chainRouter struct {
	evm *chainadapter.EVMAdapter
	btc *chainadapter.BTCAdapter
}

func newChainRouter(evm *chainadapter.EVMAdapter, btc *chainadapter.BTCAdapter) *chainRouter {
	return &chainRouter{evm: evm, btc: btc}
}

func (r *chainRouter) SendEVM(ctx context.Context, accountID string, chainID uint64, to, amountWei string) (string, error) {
	return r.evm.SendEVM(ctx, accountID, chainID, to, amountWei)
}

func (r *chainRouter) SendERC20(ctx context.Context, accountID string, chainID uint64, token, to, amount string) (string, error) {
	return r.evm.SendERC20(ctx, accountID, chainID, token, to, amount)
}

func (r *chainRouter) DeployContract(ctx context.Context, accountID string, chainID uint64, initCode string) (string, string, error) {
	return r.evm.DeployContract(ctx, accountID, chainID, initCode)
}

func (r *chainRouter) SignMessage(ctx context.Context, accountID string, message []byte) ([]byte, error) {
	return r.evm.SignMessage(ctx, accountID, message)
}

func (r *chainRouter) SignTransaction(ctx context.Context, accountID string, chainID uint64, unsignedTxHex string) (string, error) {
	return r.evm.SignTransaction(ctx, accountID, chainID, unsignedTxHex)
}

func (r *chainRouter) SendBTC(ctx context.Context, accountID, net, to string, amountSats uint64) (string, error) {
	return r.btc.SendBTC(ctx, accountID, net, to, amountSats)
}
