package chainadapter

import (
	"context"
	"fmt"
)

// UnconfiguredLedgerClient satisfies LedgerClient with a clear error for
// deployments that haven't wired a real native-ledger RPC client.
type UnconfiguredLedgerClient struct{}

func (UnconfiguredLedgerClient) Transfer(ctx context.Context, from, to string, amountE8s, fee, memo uint64) (uint64, error) {
	return 0, fmt.Errorf("chainadapter: no native ledger client configured")
}
