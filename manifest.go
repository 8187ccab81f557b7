package jelly

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/OMouta/Jelly/internal/atomicfile"
	"github.com/OMouta/Jelly/internal/jerrors"
	"github.com/OMouta/Jelly/resolver"
)

// ManifestName is the project's manifest file, read by every operation
// and mutated by init/add/remove/update.
const ManifestName = "jelly.json"

// JellySettings is the manifest's optional `jelly` block of installer
// knobs.
type JellySettings struct {
	Cleanup           bool   `json:"cleanup"`
	Optimize          bool   `json:"optimize"`
	PackagesPath      string `json:"packagesPath"`
	UpdateProjectFile bool   `json:"updateProjectFile"`
}

// DefaultJellySettings matches spec.md §3's stated defaults.
func DefaultJellySettings() JellySettings {
	return JellySettings{
		Cleanup:           true,
		Optimize:          true,
		PackagesPath:      "Packages",
		UpdateProjectFile: true,
	}
}

// DepMap is a dependency map keyed by PackageID, JSON-coded as
// "scope/name": "range".
type DepMap map[resolver.PackageID]resolver.Range

func (m DepMap) MarshalJSON() ([]byte, error) {
	raw := make(map[string]string, len(m))
	for id, rng := range m {
		raw[id.String()] = rng.String()
	}
	return json.Marshal(raw)
}

func (m *DepMap) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(DepMap, len(raw))
	for k, v := range raw {
		id, err := resolver.ParsePackageID(k)
		if err != nil {
			return errors.Wrapf(err, "dependency key %q", k)
		}
		rng, err := resolver.ParseRange(v)
		if err != nil {
			return errors.Wrapf(err, "dependency range for %q", k)
		}
		out[id] = rng
	}
	*m = out
	return nil
}

// Manifest is the in-memory, validated form of jelly.json.
type Manifest struct {
	Name               string
	Version            string
	Dependencies       DepMap
	DevDependencies    DepMap
	ServerDependencies DepMap
	Scripts            map[string]string
	Jelly              JellySettings
}

type rawManifest struct {
	Name               string            `json:"name"`
	Version            string            `json:"version"`
	Dependencies       DepMap            `json:"dependencies"`
	DevDependencies    DepMap            `json:"devDependencies"`
	ServerDependencies DepMap            `json:"serverDependencies,omitempty"`
	Scripts            map[string]string `json:"scripts,omitempty"`
	Jelly              *rawJellySettings `json:"jelly,omitempty"`
}

type rawJellySettings struct {
	Cleanup           *bool  `json:"cleanup,omitempty"`
	Optimize          *bool  `json:"optimize,omitempty"`
	PackagesPath      string `json:"packagesPath,omitempty"`
	UpdateProjectFile *bool  `json:"updateProjectFile,omitempty"`
}

// NewManifest returns a fresh, valid manifest for a new project, as
// produced by `init`.
func NewManifest(name string) *Manifest {
	return &Manifest{
		Name:            name,
		Version:         "0.1.0",
		Dependencies:    DepMap{},
		DevDependencies: DepMap{},
		Jelly:           DefaultJellySettings(),
	}
}

// ReadManifest parses jelly.json at path. A missing file is
// jerrors.KindManifestMissing; malformed JSON or a failed invariant is
// jerrors.KindManifestMalformed — the reader is otherwise liberal, per
// spec.md §6: a missing dependencies/devDependencies key is coerced to an
// empty map, not an error.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, jerrors.New(jerrors.KindManifestMissing, "reading manifest", path, err)
		}
		return nil, jerrors.New(jerrors.KindIOError, "reading manifest", path, err)
	}
	return parseManifest(data, path)
}

func parseManifest(data []byte, path string) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, jerrors.New(jerrors.KindManifestMalformed, "parsing manifest", path, err)
	}
	if raw.Name == "" {
		return nil, jerrors.New(jerrors.KindManifestMalformed, "manifest missing name", path, nil)
	}

	m := &Manifest{
		Name:               raw.Name,
		Version:            raw.Version,
		Dependencies:       raw.Dependencies,
		DevDependencies:    raw.DevDependencies,
		ServerDependencies: raw.ServerDependencies,
		Scripts:            raw.Scripts,
		Jelly:              DefaultJellySettings(),
	}
	if m.Dependencies == nil {
		m.Dependencies = DepMap{}
	}
	if m.DevDependencies == nil {
		m.DevDependencies = DepMap{}
	}
	if m.ServerDependencies == nil {
		m.ServerDependencies = DepMap{}
	}
	if raw.Jelly != nil {
		if raw.Jelly.Cleanup != nil {
			m.Jelly.Cleanup = *raw.Jelly.Cleanup
		}
		if raw.Jelly.Optimize != nil {
			m.Jelly.Optimize = *raw.Jelly.Optimize
		}
		if raw.Jelly.PackagesPath != "" {
			m.Jelly.PackagesPath = raw.Jelly.PackagesPath
		}
		if raw.Jelly.UpdateProjectFile != nil {
			m.Jelly.UpdateProjectFile = *raw.Jelly.UpdateProjectFile
		}
	}

	if err := m.validate(); err != nil {
		return nil, jerrors.New(jerrors.KindManifestMalformed, "validating manifest", path, err)
	}
	return m, nil
}

// validate enforces spec.md §3's invariant that no PackageID appears in
// more than one of the three dependency maps.
func (m *Manifest) validate() error {
	if m.Name == "" {
		return errors.New("name must not be empty")
	}
	seen := make(map[resolver.PackageID]string, len(m.Dependencies)+len(m.DevDependencies)+len(m.ServerDependencies))
	check := func(group string, deps DepMap) error {
		for id := range deps {
			if prior, ok := seen[id]; ok {
				return errors.Errorf("%s appears in both %s and %s", id, prior, group)
			}
			seen[id] = group
		}
		return nil
	}
	if err := check("dependencies", m.Dependencies); err != nil {
		return err
	}
	if err := check("devDependencies", m.DevDependencies); err != nil {
		return err
	}
	if err := check("serverDependencies", m.ServerDependencies); err != nil {
		return err
	}
	return nil
}

// Write serializes the manifest to path with 2-space indent and a
// trailing newline, atomically.
func (m *Manifest) Write(path string) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return jerrors.New(jerrors.KindIOError, "marshaling manifest", path, err)
	}
	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return jerrors.New(jerrors.KindIOError, "writing manifest", path, err)
	}
	return nil
}

// MarshalJSON matches the teacher's own manifest writer discipline: a
// buffered json.Encoder with two-space indent and HTML-escaping off. The
// trailing newline is the one json.Encoder writes after the value;
// nothing further is appended.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	raw := rawManifest{
		Name:            m.Name,
		Version:         m.Version,
		Dependencies:    m.Dependencies,
		DevDependencies: m.DevDependencies,
		Scripts:         m.Scripts,
	}
	if len(m.ServerDependencies) > 0 {
		raw.ServerDependencies = m.ServerDependencies
	}
	def := DefaultJellySettings()
	if m.Jelly != def {
		raw.Jelly = &rawJellySettings{
			PackagesPath: m.Jelly.PackagesPath,
		}
		cleanup, optimize, updateProjectFile := m.Jelly.Cleanup, m.Jelly.Optimize, m.Jelly.UpdateProjectFile
		raw.Jelly.Cleanup = &cleanup
		raw.Jelly.Optimize = &optimize
		raw.Jelly.UpdateProjectFile = &updateProjectFile
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AllDependencyIDs returns the union of dependencies, devDependencies,
// and serverDependencies — the set the orphan pruner treats as
// "referenced".
func (m *Manifest) AllDependencyIDs() map[resolver.PackageID]bool {
	out := make(map[resolver.PackageID]bool, len(m.Dependencies)+len(m.DevDependencies)+len(m.ServerDependencies))
	for id := range m.Dependencies {
		out[id] = true
	}
	for id := range m.DevDependencies {
		out[id] = true
	}
	for id := range m.ServerDependencies {
		out[id] = true
	}
	return out
}
