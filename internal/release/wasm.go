// Package release implements the Wasm chunked-upload buffer shared by the
// system release catalogue and each wallet's self-upgrade path, grounded on
// original_source/backend/b3_system_lib/src/state.rs's release staging flow
// (load_release/update_release/deprecate_release/remove_release) and
// b3_wallet_lib's per-wallet Wasm buffer (load/unload/generate_hash).
package release

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

// InstallMode mirrors the install_code modes a sealed Wasm buffer can be
// staged for.
type InstallMode string

const (
	ModeInstall   InstallMode = "install"
	ModeUpgrade   InstallMode = "upgrade"
	ModeReinstall InstallMode = "reinstall"
)

// InstallArgs is the argument bundle an Installer consumes, per spec §4.6.
type InstallArgs struct {
	CanisterID string
	Module     []byte
	Mode       InstallMode
	Arg        []byte
}

// Wasm is a chunked-upload buffer: bytes accumulate via Load until they
// reach the declared total size, at which point the buffer seals and
// records its SHA-256 hash. Only a sealed, hash-matching buffer is
// installable.
type Wasm struct {
	bytes  []byte
	size   int
	sealed bool
	hash   string
}

// NewWasm starts a fresh buffer expecting `size` total bytes.
func NewWasm(size int) *Wasm {
	return &Wasm{size: size}
}

// Load appends a chunk and returns the buffer's new cumulative size. When
// the cumulative size reaches the declared total, the buffer seals and its
// hash is computed immediately.
func (w *Wasm) Load(chunk []byte) (int, error) {
	if w.sealed {
		return 0, fmt.Errorf("release: buffer already sealed")
	}
	w.bytes = append(w.bytes, chunk...)
	if len(w.bytes) > w.size {
		return 0, fmt.Errorf("release: chunk overflows declared size %d", w.size)
	}
	if len(w.bytes) == w.size {
		w.seal()
	}
	return len(w.bytes), nil
}

func (w *Wasm) seal() {
	sum := sha256.Sum256(w.bytes)
	w.hash = hex.EncodeToString(sum[:])
	w.sealed = true
}

// Unload discards the buffer's contents, returning it to size 0.
func (w *Wasm) Unload() int {
	w.bytes = nil
	w.size = 0
	w.sealed = false
	w.hash = ""
	return 0
}

// GenerateHash returns the SHA-256 hex digest of a sealed buffer.
func (w *Wasm) GenerateHash() (string, error) {
	if !w.sealed {
		return "", walleterr.ErrWasmNotLoaded
	}
	return w.hash, nil
}

// Sealed reports whether the buffer has reached its declared size.
func (w *Wasm) Sealed() bool { return w.sealed }

// Len returns the buffer's current cumulative size.
func (w *Wasm) Len() int { return len(w.bytes) }

// Bytes returns the sealed buffer's contents, or ErrWasmNotLoaded if the
// buffer is only partially filled.
func (w *Wasm) Bytes() ([]byte, error) {
	if !w.sealed {
		return nil, walleterr.ErrWasmNotLoaded
	}
	return w.bytes, nil
}

// UpgradeArgs returns the install_code argument bundle for an in-place
// canister upgrade, per spec §4.6. It fails with ErrWasmNotLoaded unless
// the buffer is fully staged.
func (w *Wasm) UpgradeArgs(canisterID string) (InstallArgs, error) {
	return w.installArgs(canisterID, ModeUpgrade)
}

// ReinstallArgs is identical to UpgradeArgs but tags the resulting
// argument bundle for a full reinstall rather than an upgrade.
func (w *Wasm) ReinstallArgs(canisterID string) (InstallArgs, error) {
	return w.installArgs(canisterID, ModeReinstall)
}

func (w *Wasm) installArgs(canisterID string, mode InstallMode) (InstallArgs, error) {
	b, err := w.Bytes()
	if err != nil {
		return InstallArgs{}, err
	}
	return InstallArgs{CanisterID: canisterID, Module: b, Mode: mode}, nil
}

// VerifyHash reports ErrWasmHashMismatch if the sealed buffer's digest
// does not equal `want`.
func (w *Wasm) VerifyHash(want string) error {
	h, err := w.GenerateHash()
	if err != nil {
		return err
	}
	if h != want {
		return walleterr.ErrWasmHashMismatch
	}
	return nil
}
