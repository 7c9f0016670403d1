// Package addresses derives chain-specific addresses from a cached
// compressed secp256k1 public key, grounded on
// payout-engine/internal/service/payout.go (EVM) and
// Jasonyou1995-simple-eth-hd-wallet (BTC via btcsuite).
package addresses

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/protocol-bank/custody-engine/internal/chainkey"
	"github.com/protocol-bank/custody-engine/internal/principal"
	"github.com/protocol-bank/custody-engine/internal/subaccount"
)

// EVM computes the EVM address as the last 20 bytes of Keccak-256 of the
// uncompressed public key (minus its 0x04 prefix), formatted "0x…".
func EVM(compressedPubKey []byte) (string, error) {
	pub, err := gethcrypto.DecompressPubkey(compressedPubKey)
	if err != nil {
		return "", fmt.Errorf("addresses: decompress pubkey: %w", err)
	}
	return gethcrypto.PubkeyToAddress(*pub).Hex(), nil
}

// btcNetParams maps a chainkey.Net to the corresponding btcsuite chain
// parameters.
func btcNetParams(net chainkey.Net) *chaincfg.Params {
	switch net {
	case chainkey.Testnet:
		return &chaincfg.TestNet3Params
	case chainkey.Regtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// BTCP2WPKH computes the BIP-173 (bech32) P2WPKH address for the given
// network from a compressed public key.
func BTCP2WPKH(compressedPubKey []byte, net chainkey.Net) (string, error) {
	pkHash := btcutil.Hash160(compressedPubKey)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pkHash, btcNetParams(net))
	if err != nil {
		return "", fmt.Errorf("addresses: p2wpkh: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// BTCP2PKH computes the legacy base58 P2PKH address for the given network.
func BTCP2PKH(compressedPubKey []byte, net chainkey.Net) (string, error) {
	pkHash := btcutil.Hash160(compressedPubKey)
	addr, err := btcutil.NewAddressPubKeyHash(pkHash, btcNetParams(net))
	if err != nil {
		return "", fmt.Errorf("addresses: p2pkh: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// NativeLedger computes the native-ledger address as
// AccountIdentifier(owner, subaccount).
func NativeLedger(owner principal.Principal, sa subaccount.Subaccount) string {
	return subaccount.NewAccountIdentifier(owner, sa).String()
}
