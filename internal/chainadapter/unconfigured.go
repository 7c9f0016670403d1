package chainadapter

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// UnconfiguredBitcoinBackend satisfies UTXOSource and Broadcaster with a
// clear error, for deployments that haven't wired a real UTXO indexer or
// broadcast endpoint yet (see DESIGN.md — no btcsuite RPC client is part
// of this service's default dependency set).
type UnconfiguredBitcoinBackend struct{}

func (UnconfiguredBitcoinBackend) ListUnspent(ctx context.Context, net *chaincfg.Params, address string) ([]UTXO, error) {
	return nil, fmt.Errorf("chainadapter: no Bitcoin UTXO backend configured")
}

func (UnconfiguredBitcoinBackend) Broadcast(ctx context.Context, net *chaincfg.Params, tx *wire.MsgTx) (string, error) {
	return "", fmt.Errorf("chainadapter: no Bitcoin broadcast backend configured")
}
