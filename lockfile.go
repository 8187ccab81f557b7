package jelly

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/OMouta/Jelly/internal/atomicfile"
	"github.com/OMouta/Jelly/internal/jerrors"
	"github.com/OMouta/Jelly/internal/ordermap"
	"github.com/OMouta/Jelly/resolver"
)

// LockfileName is the pinned-graph file, generated by the first install
// or by regenerate_lock.
const LockfileName = "jelly-lock.json"

// CurrentLockfileVersion is the only lockfileVersion this Store accepts;
// anything else is treated as absent (spec.md §4.3: "return absent,
// caller will regenerate").
const CurrentLockfileVersion = 1

// LockEntry is one package's pinned install record.
type LockEntry struct {
	Version      resolver.Version
	Resolved     string
	Integrity    string
	Dependencies DepMap
}

// Lockfile is the parsed, validated jelly-lock.json.
type Lockfile struct {
	Name               string
	Version            string
	Packages           *ordermap.Map[LockEntry]
	Dependencies       DepMap
	DevDependencies    DepMap
	ServerDependencies DepMap
}

type rawLockfile struct {
	LockfileVersion    int                     `json:"lockfileVersion"`
	Name               string                  `json:"name"`
	Version            string                  `json:"version"`
	Packages           map[string]rawLockEntry `json:"packages"`
	Dependencies       DepMap                  `json:"dependencies"`
	DevDependencies    DepMap                  `json:"devDependencies"`
	ServerDependencies DepMap                  `json:"serverDependencies,omitempty"`
}

type rawLockEntry struct {
	Version      string `json:"version"`
	Resolved     string `json:"resolved"`
	Integrity    string `json:"integrity,omitempty"`
	Dependencies DepMap `json:"dependencies,omitempty"`
}

// ReadLockfile parses jelly-lock.json at path. Any malformed file —
// missing, unparsable, or a lockfileVersion other than
// CurrentLockfileVersion — is reported as "absent" (ok=false, err=nil):
// per spec.md §4.3 this never surfaces as an error, the caller simply
// regenerates.
func ReadLockfile(path string) (lf *Lockfile, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, jerrors.New(jerrors.KindIOError, "reading lockfile", path, err)
	}

	var raw rawLockfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, nil
	}
	if raw.LockfileVersion != CurrentLockfileVersion {
		return nil, false, nil
	}

	packages := ordermap.New[LockEntry]()
	for key, rle := range raw.Packages {
		v, err := resolver.NewVersion(rle.Version)
		if err != nil {
			return nil, false, nil
		}
		packages.Insert(key, LockEntry{
			Version:      v,
			Resolved:     rle.Resolved,
			Integrity:    rle.Integrity,
			Dependencies: rle.Dependencies,
		})
	}

	deps, devDeps, serverDeps := raw.Dependencies, raw.DevDependencies, raw.ServerDependencies
	if deps == nil {
		deps = DepMap{}
	}
	if devDeps == nil {
		devDeps = DepMap{}
	}
	if serverDeps == nil {
		serverDeps = DepMap{}
	}

	return &Lockfile{
		Name:               raw.Name,
		Version:            raw.Version,
		Packages:           packages,
		Dependencies:       deps,
		DevDependencies:    devDeps,
		ServerDependencies: serverDeps,
	}, true, nil
}

// Validate reports whether every key of manifest.Dependencies ∪
// manifest.DevDependencies ∪ manifest.ServerDependencies appears in
// lf.Packages — spec.md §4.3's `validate`. Range compatibility is
// intentionally not checked at this level.
func (lf *Lockfile) Validate(m *Manifest) bool {
	for id := range m.Dependencies {
		if _, ok := lf.Packages.Get(id.String()); !ok {
			return false
		}
	}
	for id := range m.DevDependencies {
		if _, ok := lf.Packages.Get(id.String()); !ok {
			return false
		}
	}
	for id := range m.ServerDependencies {
		if _, ok := lf.Packages.Get(id.String()); !ok {
			return false
		}
	}
	return true
}

// Write serializes the lockfile atomically, 2-space indent, trailing
// newline, entries emitted in the deterministic lexicographic order the
// backing ordermap walks in.
func (lf *Lockfile) Write(path string) error {
	raw := rawLockfile{
		LockfileVersion:    CurrentLockfileVersion,
		Name:               lf.Name,
		Version:            lf.Version,
		Packages:           make(map[string]rawLockEntry, lf.Packages.Len()),
		Dependencies:       lf.Dependencies,
		DevDependencies:    lf.DevDependencies,
		ServerDependencies: lf.ServerDependencies,
	}
	for _, key := range lf.Packages.Keys() {
		entry, _ := lf.Packages.Get(key)
		raw.Packages[key] = rawLockEntry{
			Version:      entry.Version.String(),
			Resolved:     entry.Resolved,
			Integrity:    entry.Integrity,
			Dependencies: entry.Dependencies,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return jerrors.New(jerrors.KindIOError, "marshaling lockfile", path, err)
	}

	if err := atomicfile.Write(path, buf.Bytes(), 0o644); err != nil {
		return jerrors.New(jerrors.KindIOError, "writing lockfile", path, err)
	}
	return nil
}
