package tee

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"sync"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/protocol-bank/custody-engine/internal/derivation"
)

// MemorySigner holds real ecdsa.PrivateKey values per derivation path,
// generated on first use. It satisfies Signer for tests and local
// development without a Vault dependency.
type MemorySigner struct {
	mu   sync.Mutex
	keys map[string]*ecdsa.PrivateKey
}

func NewMemorySigner() *MemorySigner {
	return &MemorySigner{keys: make(map[string]*ecdsa.PrivateKey)}
}

func (m *MemorySigner) keyFor(path [][]byte, keyID derivation.KeyID) (*ecdsa.PrivateKey, error) {
	k := pathKey(path, keyID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if priv, ok := m.keys[k]; ok {
		return priv, nil
	}
	priv, err := ecdsa.GenerateKey(gethcrypto.S256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("tee: generate test key: %w", err)
	}
	m.keys[k] = priv
	return priv, nil
}

func (m *MemorySigner) ECDSAPublicKey(_ context.Context, path [][]byte, keyID derivation.KeyID) ([]byte, error) {
	priv, err := m.keyFor(path, keyID)
	if err != nil {
		return nil, err
	}
	return elliptic.MarshalCompressed(priv.PublicKey.Curve, priv.PublicKey.X, priv.PublicKey.Y), nil
}

func (m *MemorySigner) SignWithECDSA(_ context.Context, hash []byte, path [][]byte, keyID derivation.KeyID, _ uint64) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("tee: message hash must be 32 bytes, got %d", len(hash))
	}
	priv, err := m.keyFor(path, keyID)
	if err != nil {
		return nil, err
	}
	sig, err := gethcrypto.Sign(hash, priv)
	if err != nil {
		return nil, fmt.Errorf("tee: sign: %w", err)
	}
	return sig[:64], nil
}
