package chainadapter

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/addresses"
	"github.com/protocol-bank/custody-engine/internal/chainkey"
	"github.com/protocol-bank/custody-engine/internal/derivation"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
	"github.com/protocol-bank/custody-engine/internal/tee"
	"github.com/protocol-bank/custody-engine/internal/walletacct"
)

type fakeUTXOSource struct {
	utxos []UTXO
}

func (f *fakeUTXOSource) ListUnspent(ctx context.Context, net *chaincfg.Params, address string) ([]UTXO, error) {
	return f.utxos, nil
}

type fakeBroadcaster struct {
	sent *wire.MsgTx
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, net *chaincfg.Params, tx *wire.MsgTx) (string, error) {
	f.sent = tx
	return tx.TxHash().String(), nil
}

func newTestBTCAccount(t *testing.T) (*walletacct.Registry, *tee.MemorySigner, string, string) {
	t.Helper()
	signer := tee.NewMemorySigner()
	path := derivation.Path(subaccount.New(subaccount.Production, 0))
	keyID := derivation.KeyIDFor(subaccount.Production)
	pub, err := signer.ECDSAPublicKey(context.Background(), path, keyID)
	require.NoError(t, err)

	registry := walletacct.NewRegistry()
	acct := registry.CreateAccount(subaccount.Production, "btc")
	acct.Ledger.ECDSAPubKey = pub

	fromAddr, err := addresses.BTCP2WPKH(pub, chainkey.Mainnet)
	require.NoError(t, err)

	return registry, signer, acct.ID, fromAddr
}

// TestSendBTC_WitnessSignatureIsStrictDER guards against regressing to a
// raw compact (r‖s) signature in the witness stack: BIP-66 requires a
// strict-DER-encoded signature in any P2WPKH witness, and a node validating
// a non-DER witness would reject the transaction.
func TestSendBTC_WitnessSignatureIsStrictDER(t *testing.T) {
	registry, signer, acctID, fromAddr := newTestBTCAccount(t)

	pkScript, err := addressToScript(fromAddr, &chaincfg.MainNetParams)
	require.NoError(t, err)

	utxos := &fakeUTXOSource{utxos: []UTXO{
		{TxID: "0000000000000000000000000000000000000000000000000000000000000001", Vout: 0, ValueSats: 100_000, PkScript: pkScript},
	}}
	broadcaster := &fakeBroadcaster{}

	adapter := NewBTCAdapter(utxos, broadcaster, signer, registry)

	txHash, err := adapter.SendBTC(context.Background(), acctID, "mainnet", fromAddr, 1_000)
	require.NoError(t, err)
	assert.NotEmpty(t, txHash)

	require.NotNil(t, broadcaster.sent)
	require.Len(t, broadcaster.sent.TxIn, 1)
	witness := broadcaster.sent.TxIn[0].Witness
	require.Len(t, witness, 2)

	sigWithHashType := witness[0]
	require.True(t, len(sigWithHashType) > 1)
	derSig := sigWithHashType[:len(sigWithHashType)-1]
	hashType := sigWithHashType[len(sigWithHashType)-1]
	assert.Equal(t, byte(txscript.SigHashAll), hashType)

	_, err = ecdsa.ParseDERSignature(derSig)
	assert.NoError(t, err, "witness signature must be strict-DER encoded, not a raw compact (r,s) concatenation")
}
