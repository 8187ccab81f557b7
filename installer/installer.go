// Package installer materializes a resolved dependency graph on disk: it
// fetches archives, extracts them, normalizes the resulting tree into a
// Rojo-consumable module, writes alias shims, and prunes orphans left
// behind by a changed manifest.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OMouta/Jelly/internal/jerrors"
	"github.com/OMouta/Jelly/internal/jlog"
	"github.com/OMouta/Jelly/registry"
	"github.com/OMouta/Jelly/resolver"
)

// State is one step of the per-package install pipeline, §4.4's state
// machine: PENDING → DOWNLOADING → EXTRACTING → NORMALIZING → CLEANING →
// INDEXED.
type State int

const (
	StatePending State = iota
	StateDownloading
	StateExtracting
	StateNormalizing
	StateCleaning
	StateIndexed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateDownloading:
		return "DOWNLOADING"
	case StateExtracting:
		return "EXTRACTING"
	case StateNormalizing:
		return "NORMALIZING"
	case StateCleaning:
		return "CLEANING"
	case StateIndexed:
		return "INDEXED"
	default:
		return "FAILED"
	}
}

// Options carries the manifest's `jelly` knobs that gate installer
// behavior, plus the target packages directory.
type Options struct {
	PackagesPath string
	Cleanup      bool
	Optimize     bool
}

// Target is one package to install: an id pinned to an exact version and
// the URL to fetch its archive from.
type Target struct {
	ID      resolver.PackageID
	Version resolver.Version
	URL     string
}

// Result reports the outcome of installing one Target.
type Result struct {
	Target  Target
	State   State
	Skipped bool
	Err     error
}

// ProjectIntegrationRequest is the abstract handoff to the excluded Rojo
// project-file collaborator: "expose PackagesPath under
// ReplicatedStorage.Packages". The core never mutates a project file
// itself.
type ProjectIntegrationRequest struct {
	PackagesPath string
}

// Installer drives the fetch/extract/normalize/clean pipeline for a
// resolved graph and owns the _Index store under one packagesPath.
type Installer struct {
	client *registry.Client
	log    *jlog.Logger
}

// New returns an Installer that fetches archives through client.
func New(client *registry.Client, log *jlog.Logger) *Installer {
	if log == nil {
		log = jlog.Discard
	}
	return &Installer{client: client, log: log}
}

func indexDirName(id resolver.PackageID) string {
	return fmt.Sprintf("%s_%s", id.Scope, id.Name)
}

func indexDir(packagesPath string, id resolver.PackageID) string {
	return filepath.Join(packagesPath, "_Index", indexDirName(id))
}

// InstallAll runs the per-package pipeline for every target, then emits
// shims and returns the project integration request. A single target's
// DOWNLOADING failure is a warned skip; failures in any later state abort
// only that target. Other targets always proceed to completion — §4.4's
// "warn and continue with siblings" rule.
func (inst *Installer) InstallAll(ctx context.Context, opts Options, targets []Target) ([]Result, ProjectIntegrationRequest, error) {
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return results, ProjectIntegrationRequest{}, err
		}
		results = append(results, inst.installOne(ctx, opts, t))
	}

	if err := inst.emitShims(opts.PackagesPath); err != nil {
		return results, ProjectIntegrationRequest{}, err
	}

	return results, ProjectIntegrationRequest{PackagesPath: opts.PackagesPath}, nil
}

func (inst *Installer) installOne(ctx context.Context, opts Options, t Target) Result {
	dir := indexDir(opts.PackagesPath, t.ID)

	state, err := inst.download(ctx, opts, t, dir)
	if err != nil {
		inst.log.Warnf("skipping %s: %v", t.ID, err)
		return Result{Target: t, State: state, Skipped: true, Err: err}
	}

	if state, err = inst.extract(opts, t, dir); err != nil {
		inst.abort(dir)
		return Result{Target: t, State: state, Err: err}
	}

	if opts.Optimize {
		if state, err = inst.normalize(t, dir); err != nil {
			inst.abort(dir)
			return Result{Target: t, State: state, Err: err}
		}
	}

	if opts.Cleanup {
		if state, err = inst.cleanup(dir); err != nil {
			inst.abort(dir)
			return Result{Target: t, State: state, Err: err}
		}
	}

	return Result{Target: t, State: StateIndexed}
}

func (inst *Installer) download(ctx context.Context, opts Options, t Target, dir string) (State, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StateDownloading, jerrors.New(jerrors.KindIOError, "creating index dir", t.ID.String(), err)
	}

	data, _, err := inst.client.Download(ctx, t.ID, t.Version)
	if err != nil {
		return StateDownloading, err
	}

	archivePath := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(archivePath, data, 0o644); err != nil {
		return StateDownloading, jerrors.New(jerrors.KindIOError, "writing archive", t.ID.String(), err)
	}
	if err := writeMarker(dir, t.ID, t.Version); err != nil {
		return StateDownloading, jerrors.New(jerrors.KindIOError, "writing package marker", t.ID.String(), err)
	}
	return StateDownloading, nil
}

func (inst *Installer) extract(opts Options, t Target, dir string) (State, error) {
	archivePath := filepath.Join(dir, "archive.zip")
	if err := extractZip(archivePath, dir); err != nil {
		return StateExtracting, jerrors.New(jerrors.KindArchiveError, "extracting archive", t.ID.String(), err)
	}
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		return StateExtracting, jerrors.New(jerrors.KindIOError, "removing archive", t.ID.String(), err)
	}
	return StateExtracting, nil
}

func (inst *Installer) normalize(t Target, dir string) (State, error) {
	if err := normalizeTree(dir); err != nil {
		return StateNormalizing, jerrors.New(jerrors.KindIOError, "normalizing package tree", t.ID.String(), err)
	}
	return StateNormalizing, nil
}

func (inst *Installer) cleanup(dir string) (State, error) {
	if err := cleanupTree(dir); err != nil {
		return StateCleaning, jerrors.New(jerrors.KindIOError, "cleaning package tree", "", err)
	}
	return StateCleaning, nil
}

// abort removes a package's _Index slot after a non-DOWNLOADING failure,
// per §4.4's "leaving its _Index slot removed" rule. Best-effort: a
// failure here is logged, not propagated, since the original error is
// already the one that matters to the caller.
func (inst *Installer) abort(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		inst.log.Warnf("cleaning up aborted install at %s: %v", dir, err)
	}
}
