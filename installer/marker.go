package installer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/OMouta/Jelly/resolver"
)

// markerFile is a small sidecar written into each _Index package
// directory recording the PackageID and version it holds. The directory
// name alone ("{scope}_{name}") cannot be split back into scope/name
// unambiguously, since both halves of a PackageID may themselves contain
// underscores — the marker sidesteps that rather than guessing.
const markerFile = ".jelly-package.json"

type marker struct {
	Scope   string `json:"scope"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

func writeMarker(dir string, id resolver.PackageID, v resolver.Version) error {
	data, err := json.Marshal(marker{Scope: id.Scope, Name: id.Name, Version: v.String()})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, markerFile), data, 0o644)
}

// readMarker recovers (id, version) for one _Index subdirectory. Legacy
// directories written before the marker existed fall back to a best
// effort split on the last underscore of the directory's base name —
// ambiguous in the general case, but only ever exercised for pre-existing
// on-disk state that predates this installer.
func readMarker(dir string) (resolver.PackageID, resolver.Version, bool) {
	data, err := os.ReadFile(filepath.Join(dir, markerFile))
	if err == nil {
		var m marker
		if json.Unmarshal(data, &m) == nil && m.Scope != "" && m.Name != "" {
			v, verr := resolver.NewVersion(m.Version)
			return resolver.PackageID{Scope: m.Scope, Name: m.Name}, v, verr == nil
		}
	}

	base := filepath.Base(dir)
	base = strings.SplitN(base, "@", 2)[0]
	idx := strings.LastIndexByte(base, '_')
	if idx <= 0 || idx >= len(base)-1 {
		return resolver.PackageID{}, resolver.Version{}, false
	}
	id := resolver.PackageID{Scope: base[:idx], Name: base[idx+1:]}
	return id, resolver.Version{}, true
}
