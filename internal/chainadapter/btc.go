package chainadapter

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/protocol-bank/custody-engine/internal/addresses"
	"github.com/protocol-bank/custody-engine/internal/chainkey"
	"github.com/protocol-bank/custody-engine/internal/derivation"
	"github.com/protocol-bank/custody-engine/internal/tee"
	"github.com/protocol-bank/custody-engine/internal/walletacct"
)

// UTXOSource supplies the spendable outputs for a BTC address; a thin
// interface so tests can substitute a fixture without a real indexer.
type UTXOSource interface {
	ListUnspent(ctx context.Context, net *chaincfg.Params, address string) ([]UTXO, error)
}

// UTXO is a single spendable Bitcoin output.
type UTXO struct {
	TxID      string
	Vout      uint32
	ValueSats uint64
	PkScript  []byte
}

// Broadcaster pushes a raw transaction to the Bitcoin network; distinct
// from the EVM path's ethclient since no equivalent btcsuite RPC client is
// wired by default — see DESIGN.md.
type Broadcaster interface {
	Broadcast(ctx context.Context, net *chaincfg.Params, tx *wire.MsgTx) (string, error)
}

// BTCAdapter builds, signs (via tee.Signer), and broadcasts Bitcoin
// transactions for the wallet's BTC-chain accounts.
type BTCAdapter struct {
	utxos       UTXOSource
	broadcaster Broadcaster
	signer      tee.Signer
	accounts    *walletacct.Registry
}

func NewBTCAdapter(utxos UTXOSource, broadcaster Broadcaster, signer tee.Signer, accounts *walletacct.Registry) *BTCAdapter {
	return &BTCAdapter{utxos: utxos, broadcaster: broadcaster, signer: signer, accounts: accounts}
}

func netParamsFor(net string) *chaincfg.Params {
	switch net {
	case "testnet":
		return &chaincfg.TestNet3Params
	case "regtest":
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

func addressToScript(addr string, params *chaincfg.Params) ([]byte, error) {
	a, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", addr, err)
	}
	return txscript.PayToAddrScript(a)
}

func chainkeyNetFor(net string) chainkey.Net {
	switch net {
	case "testnet":
		return chainkey.Testnet
	case "regtest":
		return chainkey.Regtest
	default:
		return chainkey.Mainnet
	}
}

// SendBTC pulls UTXOs for the account's P2WPKH address, builds a
// transaction spending them to `to`, signs each input via the TEE, and
// broadcasts it, per spec §4.3's BtcTransfer executor row.
func (a *BTCAdapter) SendBTC(ctx context.Context, accountID, net, to string, amountSats uint64) (string, error) {
	acct, err := a.accounts.Get(accountID)
	if err != nil {
		return "", err
	}
	if acct.Ledger.ECDSAPubKey == nil {
		return "", fmt.Errorf("chainadapter: account %s has no cached public key", accountID)
	}

	params := netParamsFor(net)
	fromAddr, err := addresses.BTCP2WPKH(acct.Ledger.ECDSAPubKey, chainkeyNetFor(net))
	if err != nil {
		return "", fmt.Errorf("chainadapter: derive source address: %w", err)
	}
	utxos, err := a.utxos.ListUnspent(ctx, params, fromAddr)
	if err != nil {
		return "", fmt.Errorf("chainadapter: list unspent: %w", err)
	}
	if len(utxos) == 0 {
		return "", fmt.Errorf("chainadapter: no spendable utxos")
	}

	const feeSats = 500 // flat estimate; real fee estimation is out of scope per spec §1

	tx := wire.NewMsgTx(wire.TxVersion)
	var total uint64
	var spent []UTXO
	for _, u := range utxos {
		hash, err := chainhashFromTxID(u.TxID)
		if err != nil {
			return "", err
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, u.Vout), nil, nil))
		spent = append(spent, u)
		total += u.ValueSats
		if total >= amountSats+feeSats {
			break
		}
	}
	if total < amountSats+feeSats {
		return "", fmt.Errorf("chainadapter: insufficient funds: have %d, need %d (+%d fee)", total, amountSats, feeSats)
	}

	toAddr, err := btcutil.DecodeAddress(to, params)
	if err != nil {
		return "", fmt.Errorf("chainadapter: decode destination address: %w", err)
	}
	toScript, err := txscript.PayToAddrScript(toAddr)
	if err != nil {
		return "", fmt.Errorf("chainadapter: build destination script: %w", err)
	}
	tx.AddTxOut(wire.NewTxOut(int64(amountSats), toScript))

	if change := total - amountSats - feeSats; change > 0 {
		changeScript, err := addressToScript(fromAddr, params)
		if err != nil {
			return "", fmt.Errorf("chainadapter: build change script: %w", err)
		}
		tx.AddTxOut(wire.NewTxOut(int64(change), changeScript))
	}

	path := derivation.Path(acct.Subaccount)
	keyID := derivation.KeyIDFor(acct.Environment)
	cycles := derivation.SignCycles(acct.Environment)

	for i := range tx.TxIn {
		sigHash, err := txSigHash(tx, i, spent[i].PkScript, int64(spent[i].ValueSats))
		if err != nil {
			return "", fmt.Errorf("chainadapter: sighash: %w", err)
		}
		sig, err := a.signer.SignWithECDSA(ctx, sigHash, path, keyID, cycles)
		if err != nil {
			return "", fmt.Errorf("chainadapter: sign btc input %d: %w", i, err)
		}
		derSig, err := derEncodeSignature(sig)
		if err != nil {
			return "", fmt.Errorf("chainadapter: der-encode btc input %d signature: %w", i, err)
		}
		tx.TxIn[i].Witness = wire.TxWitness{append(derSig, byte(txSigHashAllFlag)), acct.Ledger.ECDSAPubKey}
	}

	txHash, err := a.broadcaster.Broadcast(ctx, params, tx)
	if err != nil {
		return "", fmt.Errorf("chainadapter: broadcast btc tx: %w", err)
	}
	return txHash, nil
}
