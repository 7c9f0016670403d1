package chainadapter

import (
	"context"
	"fmt"
)

// Native-ledger transfer fee and memo tags, carried over from
// original_source/backend/b3_helper/src/constants.rs (expressed there in
// e8s and as named memo constants) since SendToken/IcpTransfer/TopUpTransfer
// need them to build a realistic ledger transfer argument.
const (
	TransferFeeE8s = 10_000

	MemoCanisterCreate   = 0x41455243 // "CREA"
	MemoCanisterTopUp    = 0x50555054 // "TPUP"
	MemoCanisterTransfer = 0x5341494b // "KIAS"
)

// LedgerClient is the external native-ledger collaborator; out of scope
// per spec §1, consumed only through this interface.
type LedgerClient interface {
	Transfer(ctx context.Context, from, to string, amountE8s, fee, memo uint64) (blockIndex uint64, err error)
}

// LedgerAdapter adapts a LedgerClient to operation.LedgerSender, resolving
// the sending account's native-ledger address before delegating.
type LedgerAdapter struct {
	client   LedgerClient
	resolver func(accountID string) (string, error)
}

func NewLedgerAdapter(client LedgerClient, resolver func(accountID string) (string, error)) *LedgerAdapter {
	return &LedgerAdapter{client: client, resolver: resolver}
}

func (l *LedgerAdapter) Transfer(ctx context.Context, accountID, toAccountIdentifier string, amountE8s uint64, memo uint64) (uint64, error) {
	from, err := l.resolver(accountID)
	if err != nil {
		return 0, fmt.Errorf("chainadapter: resolve sender address: %w", err)
	}
	idx, err := l.client.Transfer(ctx, from, toAccountIdentifier, amountE8s, TransferFeeE8s, memo)
	if err != nil {
		return 0, fmt.Errorf("chainadapter: ledger transfer: %w", err)
	}
	return idx, nil
}
