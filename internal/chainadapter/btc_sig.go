package chainadapter

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const txSigHashAllFlag = txscript.SigHashAll

func chainhashFromTxID(txid string) (*chainhash.Hash, error) {
	return chainhash.NewHashFromStr(txid)
}

// txSigHash computes the BIP-143 witness signature hash for a P2WPKH
// input given its previous output's pkScript and value — the hash the TEE
// signs for Bitcoin transfers per spec §4.1.
func txSigHash(tx *wire.MsgTx, idx int, pkScript []byte, value int64) ([]byte, error) {
	fetcher := txscript.NewCannedPrevOutputFetcher(pkScript, value)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	return txscript.CalcWitnessSigHash(pkScript, sigHashes, txSigHashAllFlag, tx, idx, value)
}

// derEncodeSignature re-packages the 64-byte compact (r‖s) signature
// tee.Signer.SignWithECDSA returns into a strict-DER signature, the form
// BIP-66 requires in a P2WPKH witness or P2PKH scriptSig — the Bitcoin
// counterpart of evm.go's recoverableSignature, which instead reconstructs
// the v-recovery byte EVM wants.
func derEncodeSignature(compact []byte) ([]byte, error) {
	if len(compact) != 64 {
		return nil, fmt.Errorf("der-encode signature: want 64 compact bytes, got %d", len(compact))
	}
	var r, s btcec.ModNScalar
	r.SetByteSlice(compact[:32])
	s.SetByteSlice(compact[32:])
	return ecdsa.NewSignature(&r, &s).Serialize(), nil
}
