package release

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

func TestWasm_ChunkedUpload_S6(t *testing.T) {
	total := 1024 * 1024 // 1024 KiB
	chunkSize := total / 5
	data := make([]byte, total)
	for i := range data {
		data[i] = byte(i % 251)
	}

	w := NewWasm(total)
	var cumulative int
	for i := 0; i < 5; i++ {
		end := (i + 1) * chunkSize
		if i == 4 {
			end = total // last chunk takes the remainder of the odd division
		}
		n, err := w.Load(data[i*chunkSize : end])
		require.NoError(t, err)
		cumulative = end
		assert.Equal(t, cumulative, n)
	}
	assert.True(t, w.Sealed())

	want := sha256.Sum256(data)
	got, err := w.GenerateHash()
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestWasm_PartialBufferNotInstallable(t *testing.T) {
	w := NewWasm(100)
	_, err := w.Load(make([]byte, 40))
	require.NoError(t, err)

	_, err = w.GenerateHash()
	assert.ErrorIs(t, err, walleterr.ErrWasmNotLoaded)

	_, err = w.UpgradeArgs("canister-1")
	assert.Error(t, err)
}

func TestCatalogue_ReuploadRejectedUntilRemoved_S6(t *testing.T) {
	c := NewCatalogue()
	require.NoError(t, c.BeginRelease(Metadata{Version: "1.0.0"}, 10))

	err := c.BeginRelease(Metadata{Version: "1.0.0"}, 10)
	assert.Error(t, err)

	require.NoError(t, c.RemoveRelease("1.0.0"))
	assert.NoError(t, c.BeginRelease(Metadata{Version: "1.0.0"}, 10))
}

func TestCatalogue_DeprecatedReleaseRejectedForInstall(t *testing.T) {
	c := NewCatalogue()
	require.NoError(t, c.BeginRelease(Metadata{Version: "2.0.0"}, 4))
	_, err := c.LoadChunk("2.0.0", []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, c.DeprecateRelease("2.0.0"))

	_, err = c.InstallArgsFor("2.0.0", "canister-1")
	assert.Error(t, err)
}
