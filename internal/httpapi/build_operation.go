package httpapi

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/protocol-bank/custody-engine/internal/operation"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
)

func parseOpID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operation id: %w", err)
	}
	return id, nil
}

func parseEnvironment(s string) subaccount.Environment {
	switch s {
	case "staging":
		return subaccount.Staging
	case "development":
		return subaccount.Development
	default:
		return subaccount.Production
	}
}

// buildOperation translates the wire request into the tagged Operation
// variant it names. Only the kinds an HTTP client plausibly drives are
// wired here; richer kinds (deploy contract, raw tx signing) are not, and
// the gRPC facade exposes no operation RPCs either.
func buildOperation(req proposeRequest) (operation.Operation, error) {
	switch req.Kind {
	case "create_account":
		return operation.NewCreateAccount(parseEnvironment(req.Environment), req.Name), nil
	case "remove_account":
		return operation.NewRemoveAccount(req.Account), nil
	case "rename_account":
		return operation.NewRenameAccount(req.Account, req.Name), nil
	case "send_token":
		amt, ok := new(big.Int).SetString(req.Amount, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount %q", req.Amount)
		}
		return operation.NewSendToken(req.Account, req.To, operation.TokenAmount{Value: amt}), nil
	case "evm_transfer":
		return operation.NewEvmTransfer(req.Account, req.ChainID, req.To, req.Amount), nil
	case "btc_transfer":
		sats, err := strconv.ParseUint(req.Amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sats amount %q", req.Amount)
		}
		return operation.NewBtcTransfer(req.Account, "mainnet", req.To, sats), nil
	default:
		return nil, fmt.Errorf("unsupported operation kind %q", req.Kind)
	}
}
