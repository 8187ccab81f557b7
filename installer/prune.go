package installer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/OMouta/Jelly/resolver"
)

// Prune enumerates _Index subdirectories and root-level .lua shims under
// packagesPath and removes anything not referenced by referencedIDs
// (the union of the manifest's dependencies, devDependencies, and
// serverDependencies), then regenerates the shim layer. It is reused
// verbatim by clean() and by the tail of any dependency-mutating Engine
// operation.
func Prune(inst *Installer, referencedIDs map[resolver.PackageID]bool, packagesPath string) (removed []string, err error) {
	indexRoot := filepath.Join(packagesPath, "_Index")
	entries, err := os.ReadDir(indexRoot)
	if err != nil {
		if os.IsNotExist(err) {
			entries = nil
		} else {
			return nil, err
		}
	}

	referencedNames := make(map[string]bool, len(referencedIDs))
	for id := range referencedIDs {
		referencedNames[id.Name] = true
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(indexRoot, e.Name())
		id, _, ok := readMarker(dir)

		orphan := true
		if ok {
			// An @version-suffixed legacy entry is only an orphan when its
			// bare name has no manifest id at all — if the bare name is
			// still required, the suffixed sibling is left alone as a
			// stale-but-harmless copy until the next install overwrites it.
			if strings.Contains(e.Name(), "@") {
				orphan = !referencedNames[id.Name]
			} else {
				orphan = !referencedIDs[id]
			}
		}

		if orphan {
			if err := os.RemoveAll(dir); err != nil {
				return removed, err
			}
			removed = append(removed, dir)
		}
	}

	if err := pruneOrphanShims(packagesPath, referencedNames); err != nil {
		return removed, err
	}

	if inst != nil {
		if err := inst.emitShims(packagesPath); err != nil {
			return removed, err
		}
	}

	return removed, nil
}

func pruneOrphanShims(packagesPath string, referencedNames map[string]bool) error {
	entries, err := os.ReadDir(packagesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lua") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".lua")
		// Strip a possible "_<sanitized-version>" suffix before matching;
		// the suffix itself contains underscores ("1_3_0"), so every
		// underscore is tried as the split point.
		referenced := referencedNames[name]
		for i := 1; i < len(name) && !referenced; i++ {
			if name[i] == '_' && referencedNames[name[:i]] {
				referenced = true
			}
		}
		if referenced {
			continue
		}
		if err := os.Remove(filepath.Join(packagesPath, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
