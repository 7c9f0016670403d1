// Package derivation maps a wallet environment to the threshold-ECDSA key
// name, signing cost, and derivation path used to derive chain keys for an
// account, grounded on original_source/backend/b3_user_lib/ledger/config.rs.
package derivation

import "github.com/protocol-bank/custody-engine/internal/subaccount"

// KeyID names the curve and key-name pair passed to the TEE.
type KeyID struct {
	Curve string
	Name  string
}

// Config is the per-environment signing configuration.
type Config struct {
	KeyName  string
	SignCost uint64 // "cycles" charged per TEE signing call
}

var configs = map[subaccount.Environment]Config{
	subaccount.Production:  {KeyName: "key_1", SignCost: 26_153_846_153},
	subaccount.Staging:     {KeyName: "test_key_1", SignCost: 10_000_000_000},
	subaccount.Development: {KeyName: "dfx_test_key", SignCost: 0},
}

// ForEnvironment returns the signing configuration for env.
func ForEnvironment(env subaccount.Environment) Config {
	return configs[env]
}

// KeyIDFor returns the (curve, name) pair passed to ecdsa_public_key /
// sign_with_ecdsa for the given environment.
func KeyIDFor(env subaccount.Environment) KeyID {
	return KeyID{Curve: "secp256k1", Name: ForEnvironment(env).KeyName}
}

// SignCycles returns the per-environment cost charged for a TEE signing call.
func SignCycles(env subaccount.Environment) uint64 {
	return ForEnvironment(env).SignCost
}

// Path returns the derivation path for an account: a single-element path
// carrying the account's subaccount bytes, per spec §3/§4.1.
func Path(sa subaccount.Subaccount) [][]byte {
	return [][]byte{sa.Bytes()}
}
