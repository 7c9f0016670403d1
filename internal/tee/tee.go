// Package tee defines the threshold-ECDSA/ledger boundary the engine
// invokes only through an interface, per spec §6. VaultSigner is a
// reference implementation backed by HashiCorp Vault, grounded on
// protocol-banks---web3/services/shared/vault/vault.go; MemorySigner backs
// tests.
package tee

import (
	"context"
	"crypto/ecdsa"

	"github.com/protocol-bank/custody-engine/internal/derivation"
)

// Signer is the sandboxed actor's threshold-ECDSA surface: public key
// acquisition and paid signing, scoped to a derivation path and key id.
type Signer interface {
	// ECDSAPublicKey returns the 33-byte compressed secp256k1 public key
	// for the given path and key id.
	ECDSAPublicKey(ctx context.Context, path [][]byte, keyID derivation.KeyID) ([]byte, error)
	// SignWithECDSA returns a 64-byte compact signature over hash (must be
	// 32 bytes). signCycles carries the per-environment signing cost;
	// neither MemorySigner nor VaultSigner charges it against any balance.
	SignWithECDSA(ctx context.Context, hash []byte, path [][]byte, keyID derivation.KeyID, signCycles uint64) ([]byte, error)
}

// pathKey flattens a derivation path into a cache/lookup key.
func pathKey(path [][]byte, keyID derivation.KeyID) string {
	out := keyID.Curve + "/" + keyID.Name
	for _, p := range path {
		out += "/" + string(p)
	}
	return out
}

// privateKeyBytes extracts the big-endian scalar bytes of an
// ecdsa.PrivateKey (leading zero bytes dropped). VaultSigner's HKDF
// derivation takes the Vault root secret as input, not this value.
func privateKeyBytes(k *ecdsa.PrivateKey) []byte {
	return k.D.Bytes()
}
