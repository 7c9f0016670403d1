package release

import (
	"fmt"
	"sort"
	"sync"

	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

// Metadata describes a release version's human-facing attributes; edited
// in place by UpdateRelease without touching the staged Wasm bytes.
type Metadata struct {
	Version     string
	Name        string
	Description string
	Features    []string
}

// Entry is one catalogued release: its staged buffer plus metadata and
// deprecation state.
type Entry struct {
	Metadata   Metadata
	Wasm       *Wasm
	Deprecated bool
}

// Catalogue is the System actor's release store: one entry per version,
// grounded on b3_system_lib/src/state.rs's release map plus
// load_release/update_release/deprecate_release/remove_release.
type Catalogue struct {
	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
}

func NewCatalogue() *Catalogue {
	return &Catalogue{entries: make(map[string]*Entry)}
}

// BeginRelease registers a new version awaiting upload. It is rejected
// with ErrReleaseAlreadyExists unless no entry (sealed or partial) exists
// for that version, or RemoveRelease has cleared a prior one, per spec §8
// scenario S6.
func (c *Catalogue) BeginRelease(meta Metadata, declaredSize int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[meta.Version]; exists {
		return walleterr.ErrReleaseAlreadyExists
	}
	c.entries[meta.Version] = &Entry{Metadata: meta, Wasm: NewWasm(declaredSize)}
	c.order = append(c.order, meta.Version)
	return nil
}

// LoadChunk appends bytes to the named version's buffer, sealing it (and
// recording its hash) once the declared size is reached.
func (c *Catalogue) LoadChunk(version string, chunk []byte) (cumulative int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[version]
	if !ok {
		return 0, walleterr.ErrReleaseNotFound
	}
	return e.Wasm.Load(chunk)
}

// UpdateRelease edits a release's metadata without touching its staged
// bytes.
func (c *Catalogue) UpdateRelease(version string, meta Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[version]
	if !ok {
		return walleterr.ErrReleaseNotFound
	}
	e.Metadata = meta
	return nil
}

// DeprecateRelease marks a sealed release uninstallable without removing
// it from the catalogue.
func (c *Catalogue) DeprecateRelease(version string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[version]
	if !ok {
		return walleterr.ErrReleaseNotFound
	}
	e.Deprecated = true
	return nil
}

// RemoveRelease drops a release entirely, freeing its version number for
// re-upload.
func (c *Catalogue) RemoveRelease(version string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[version]; !ok {
		return walleterr.ErrReleaseNotFound
	}
	delete(c.entries, version)
	for i, v := range c.order {
		if v == version {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the named release, or ErrReleaseNotFound.
func (c *Catalogue) Get(version string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[version]
	if !ok {
		return Entry{}, walleterr.ErrReleaseNotFound
	}
	return *e, nil
}

// Releases lists catalogued versions in upload order.
func (c *Catalogue) Releases() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, *c.entries[v])
	}
	return out
}

// Latest returns the sealed, non-deprecated release whose version string
// is lexicographically greatest. Upload and seal order play no part, and
// versions are compared as plain strings, not as semver.
func (c *Catalogue) Latest() (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	versions := append([]string(nil), c.order...)
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	for _, v := range versions {
		e := c.entries[v]
		if e.Wasm.Sealed() && !e.Deprecated {
			return *e, nil
		}
	}
	return Entry{}, fmt.Errorf("release: %w: no sealed, non-deprecated release", walleterr.ErrReleaseNotFound)
}

// InstallArgsFor builds the install_code argument bundle for upgrading
// `canisterID` to the named release, rejecting deprecated or unsealed
// releases per spec §4.5/§4.6.
func (c *Catalogue) InstallArgsFor(version, canisterID string) (InstallArgs, error) {
	e, err := c.Get(version)
	if err != nil {
		return InstallArgs{}, err
	}
	if e.Deprecated {
		return InstallArgs{}, walleterr.ErrReleaseDeprecated
	}
	return e.Wasm.UpgradeArgs(canisterID)
}
