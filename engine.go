package jelly

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/OMouta/Jelly/installer"
	"github.com/OMouta/Jelly/internal/diskcache"
	"github.com/OMouta/Jelly/internal/jerrors"
	"github.com/OMouta/Jelly/internal/jlog"
	"github.com/OMouta/Jelly/registry"
	"github.com/OMouta/Jelly/resolver"
)

// Engine is the public surface the CLI collaborator drives: one per
// project directory, reading/writing the manifest and lockfile that live
// there.
type Engine struct {
	dir       string
	client    *registry.Client
	lockStore *LockfileStore
	installer *installer.Installer
	log       *jlog.Logger
}

// New returns an Engine rooted at dir (the directory containing
// jelly.json), talking to the registry through client.
func New(dir string, client *registry.Client, log *jlog.Logger) *Engine {
	if log == nil {
		log = jlog.Discard
	}
	return &Engine{
		dir:       dir,
		client:    client,
		lockStore: NewLockfileStore(client),
		installer: installer.New(client, log),
		log:       log,
	}
}

func (e *Engine) manifestPath() string { return filepath.Join(e.dir, ManifestName) }
func (e *Engine) lockfilePath() string { return filepath.Join(e.dir, LockfileName) }

// InstallReport summarizes one install pass for the CLI to render.
type InstallReport struct {
	Installed []installer.Target
	Skipped   []installer.Result
	Conflicts []resolver.Conflict
	Pruned    []string
	Project   installer.ProjectIntegrationRequest
}

// Init creates a fresh manifest if none exists, failing otherwise.
func (e *Engine) Init(name string) (*Manifest, error) {
	if _, err := ReadManifest(e.manifestPath()); err == nil {
		return nil, jerrors.New(jerrors.KindManifestMalformed, "init", e.manifestPath(), errors.New("already initialized"))
	}
	m := NewManifest(name)
	if err := m.Write(e.manifestPath()); err != nil {
		return nil, err
	}
	return m, nil
}

// Add resolves each spec ("scope/name" or "scope/name@range") against the
// registry (a bare spec is pinned to the exact version the registry
// reports as latest), writes it into dependencies or devDependencies, then
// runs install_all.
func (e *Engine) Add(ctx context.Context, specs []string, dev bool) (*InstallReport, error) {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return nil, err
	}

	target := m.Dependencies
	if dev {
		target = m.DevDependencies
	}

	for _, spec := range specs {
		id, rng, hasRange, err := parseSpec(spec)
		if err != nil {
			return nil, err
		}
		if !hasRange {
			latest, err := e.client.LatestVersion(ctx, id)
			if err != nil {
				return nil, err
			}
			rng, err = resolver.ParseRange(latest.String())
			if err != nil {
				return nil, err
			}
		}
		target[id] = rng
	}

	if err := m.Write(e.manifestPath()); err != nil {
		return nil, err
	}
	return e.InstallAll(ctx)
}

// Remove deletes ids from all three dependency maps, regenerates the lockfile,
// and runs the orphan pruner.
func (e *Engine) Remove(ctx context.Context, ids []resolver.PackageID) error {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return err
	}
	for _, id := range ids {
		delete(m.Dependencies, id)
		delete(m.DevDependencies, id)
		delete(m.ServerDependencies, id)
	}
	if err := m.Write(e.manifestPath()); err != nil {
		return err
	}
	_, _, err = e.syncLockAndDisk(ctx, m, true)
	return err
}

// InstallSpecific is Add (the spec.md §4.5 "install_specific" operation):
// it writes only the listed specs into the manifest, then runs InstallAll,
// which installs every dependency in the manifest, not only the listed ones.
func (e *Engine) InstallSpecific(ctx context.Context, specs []string, dev bool) (*InstallReport, error) {
	return e.Add(ctx, specs, dev)
}

// InstallAll generates the lockfile if absent or stale, then installs
// every pinned package.
func (e *Engine) InstallAll(ctx context.Context) (*InstallReport, error) {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return nil, err
	}
	lf, conflicts, err := e.syncLockAndDisk(ctx, m, false)
	if err != nil {
		return nil, err
	}

	targets := make([]installer.Target, 0, lf.Packages.Len())
	for _, key := range lf.Packages.Keys() {
		entry, _ := lf.Packages.Get(key)
		id, err := resolver.ParsePackageID(key)
		if err != nil {
			continue
		}
		targets = append(targets, installer.Target{ID: id, Version: entry.Version, URL: entry.Resolved})
	}

	opts := installer.Options{
		PackagesPath: filepath.Join(e.dir, m.Jelly.PackagesPath),
		Cleanup:      m.Jelly.Cleanup,
		Optimize:     m.Jelly.Optimize,
	}
	results, req, err := e.installer.InstallAll(ctx, opts, targets)
	if err != nil {
		return nil, err
	}

	report := &InstallReport{Conflicts: conflicts, Project: req}
	for _, c := range conflicts {
		if !c.HasResolved {
			e.log.Warnf("skipped %s: no version satisfies every requirer", c.ID)
		}
	}
	for _, r := range results {
		if r.Skipped || r.Err != nil {
			report.Skipped = append(report.Skipped, r)
			e.log.Warnf("skipped %s: %v", r.Target.ID, r.Err)
			continue
		}
		report.Installed = append(report.Installed, r.Target)
	}

	removed, err := installer.Prune(e.installer, m.AllDependencyIDs(), opts.PackagesPath)
	if err != nil {
		return report, err
	}
	report.Pruned = removed
	return report, nil
}

// Update fetches the latest version for each id, rewrites the manifest's
// range for it to that exact version, and re-installs. When ids is empty,
// every dependency and devDependency is updated, whether or not it is
// already at the latest version. serverDependencies are never rewritten.
func (e *Engine) Update(ctx context.Context, ids []resolver.PackageID) (*InstallReport, error) {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		for id := range m.Dependencies {
			ids = append(ids, id)
		}
		for id := range m.DevDependencies {
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		latest, err := e.client.LatestVersion(ctx, id)
		if err != nil {
			return nil, err
		}
		rng, err := resolver.ParseRange(latest.String())
		if err != nil {
			return nil, err
		}
		if _, ok := m.Dependencies[id]; ok {
			m.Dependencies[id] = rng
		} else if _, ok := m.DevDependencies[id]; ok {
			m.DevDependencies[id] = rng
		}
	}

	if err := m.Write(e.manifestPath()); err != nil {
		return nil, err
	}
	return e.InstallAll(ctx)
}

// OutdatedEntry reports one dependency's current/wanted/latest triple.
type OutdatedEntry struct {
	ID      resolver.PackageID
	Current resolver.Version
	Wanted  resolver.Version
	Latest  resolver.Version
}

// Outdated compares, for every manifest dependency, the pinned lockfile
// version against the range's best registry match ("wanted") and the
// registry's overall latest ("latest").
func (e *Engine) Outdated(ctx context.Context) ([]OutdatedEntry, error) {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return nil, err
	}
	lf, ok, err := ReadLockfile(e.lockfilePath())
	if err != nil {
		return nil, err
	}

	var out []OutdatedEntry
	for id, rng := range direct(m) {
		entry := OutdatedEntry{ID: id}
		if ok {
			if le, found := lf.Packages.Get(id.String()); found {
				entry.Current = le.Version
			}
		}
		if wanted, err := e.lockStore.resolver.ResolveOne(ctx, id, rng); err == nil {
			entry.Wanted = wanted.Version
		}
		if latest, err := e.client.LatestVersion(ctx, id); err == nil {
			entry.Latest = latest
		}
		out = append(out, entry)
	}
	return out, nil
}

// Analyze runs resolve_tree purely and reports the graph and conflicts;
// it touches no files.
func (e *Engine) Analyze(ctx context.Context) (*resolver.Graph, []resolver.Conflict, error) {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return nil, nil, err
	}
	return e.lockStore.resolver.ResolveTree(ctx, direct(m))
}

// VerifyLock reports whether the current lockfile covers the manifest.
func (e *Engine) VerifyLock() (bool, error) {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return false, err
	}
	lf, ok, err := ReadLockfile(e.lockfilePath())
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return lf.Validate(m), nil
}

// RegenerateLock unconditionally rebuilds and persists a fresh lockfile.
func (e *Engine) RegenerateLock(ctx context.Context) (*Lockfile, []resolver.Conflict, error) {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return nil, nil, err
	}
	lf, conflicts, err := e.lockStore.Generate(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	if err := lf.Write(e.lockfilePath()); err != nil {
		return nil, nil, err
	}
	return lf, conflicts, nil
}

// Clean runs only the orphan pruner.
func (e *Engine) Clean() ([]string, error) {
	m, err := ReadManifest(e.manifestPath())
	if err != nil {
		return nil, err
	}
	packagesPath := filepath.Join(e.dir, m.Jelly.PackagesPath)
	return installer.Prune(e.installer, m.AllDependencyIDs(), packagesPath)
}

// CacheClean clears the per-user on-disk artifact cache.
func CacheClean(cacheDir string) error {
	return diskcache.Wipe(cacheDir)
}

// syncLockAndDisk is the single choke point every mutating operation
// routes through: it refreshes the lockfile (generating or reusing per
// force) and prunes the on-disk layout to match, giving the "lockfile
// coverage" and "install = lockfile" testable properties for free.
func (e *Engine) syncLockAndDisk(ctx context.Context, m *Manifest, force bool) (*Lockfile, []resolver.Conflict, error) {
	current, ok, err := ReadLockfile(e.lockfilePath())
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		force = true
	}

	var lf *Lockfile
	var conflicts []resolver.Conflict
	if force {
		lf, conflicts, err = e.lockStore.Generate(ctx, m)
	} else {
		lf, conflicts, err = e.lockStore.Update(ctx, m, current)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := lf.Write(e.lockfilePath()); err != nil {
		return nil, nil, err
	}

	packagesPath := filepath.Join(e.dir, m.Jelly.PackagesPath)
	if _, err := installer.Prune(e.installer, m.AllDependencyIDs(), packagesPath); err != nil {
		return lf, conflicts, err
	}

	return lf, conflicts, nil
}
