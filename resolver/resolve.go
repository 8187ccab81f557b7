package resolver

import (
	"context"
	"sort"

	"github.com/OMouta/Jelly/internal/jerrors"
	"github.com/OMouta/Jelly/internal/ordermap"
)

// Resolver maps (package, range) requests to concrete versions and walks
// the transitive production+server dependency closure to a flat,
// single-version resolution. It holds no state of its own between calls —
// all memoization lives in the MetadataProvider (typically a
// registry.Client with its own in-memory cache), matching the "no
// process-wide singletons" design note.
type Resolver struct {
	provider MetadataProvider
}

// New returns a Resolver backed by provider.
func New(provider MetadataProvider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolution is the result of resolving a single (package, range) request.
type Resolution struct {
	Version Version
	URL     string
}

// ResolveOne chooses the highest version of id that satisfies rng. A bare
// "*" range chooses the first (highest) entry the provider returns.
func (r *Resolver) ResolveOne(ctx context.Context, id PackageID, rng Range) (Resolution, error) {
	versions, err := r.provider.Versions(ctx, id)
	if err != nil {
		return Resolution{}, err
	}
	for _, v := range versions {
		if rng.Satisfies(v.Version) {
			return Resolution{Version: v.Version, URL: v.URL}, nil
		}
	}
	return Resolution{}, jerrors.New(jerrors.KindVersionNotFound, "resolve "+id.String(), id.String(), nil)
}

type work struct {
	id       PackageID
	rng      Range
	requirer string
}

// ResolveTree produces a flat single-version resolution for the entire
// transitive closure of direct's production+server dependencies.
// devDependencies of transitive packages are never followed; direct
// itself may (and for the root manifest, does) include the root's own
// devDependencies — the caller decides what belongs in `direct`.
//
// A Conflict is reported for every package with more than one distinct
// requirer, carrying the complete requirer list accumulated over the run
// and, when an intersection exists, the version the resolver settled on.
// Because aggregated ranges only ever grow (never shrink) over the course
// of a run, feasibility is monotonic: once a package's combined ranges
// admit no candidate, they never will again for the rest of this run, so
// its subtree is safe to drop for good.
func (r *Resolver) ResolveTree(ctx context.Context, direct map[PackageID]Range) (*Graph, []Conflict, error) {
	graph := newGraph()
	for id, rng := range direct {
		graph.Direct[id] = rng
	}

	aggregated := ordermap.New[[]RequiredBy]()
	picked := ordermap.New[Version]()
	infeasible := make(map[string]bool)

	var queue []work
	seedIDs := make([]PackageID, 0, len(direct))
	for id := range direct {
		seedIDs = append(seedIDs, id)
	}
	sort.Slice(seedIDs, func(i, j int) bool { return seedIDs[i].String() < seedIDs[j].String() })
	for _, id := range seedIDs {
		queue = append(queue, work{id: id, rng: direct[id], requirer: "<root>"})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		w := queue[0]
		queue = queue[1:]
		key := w.id.String()

		reqs, _ := aggregated.Get(key)
		reqs = append(reqs, RequiredBy{Requirer: w.requirer, Range: w.rng})
		aggregated.Insert(key, reqs)

		if infeasible[key] {
			continue
		}

		versions, err := r.provider.Versions(ctx, w.id)
		if err != nil {
			infeasible[key] = true
			graph.nodes.Delete(key)
			continue
		}

		var candidates []VersionInfo
		for _, v := range versions {
			ok := true
			for _, req := range reqs {
				if !req.Range.Satisfies(v.Version) {
					ok = false
					break
				}
			}
			if ok {
				candidates = append(candidates, v)
			}
		}

		if len(candidates) == 0 {
			infeasible[key] = true
			picked.Delete(key)
			graph.nodes.Delete(key)
			continue
		}

		chosen := highestCandidate(candidates)

		prev, hadPrev := picked.Get(key)
		if hadPrev && prev.Equal(chosen.Version) {
			continue
		}

		picked.Insert(key, chosen.Version)
		graph.set(ResolvedNode{ID: w.id, Version: chosen.Version, URL: chosen.URL, Deps: chosen.Deps})

		depIDs := make([]PackageID, 0, len(chosen.Deps))
		for depID := range chosen.Deps {
			depIDs = append(depIDs, depID)
		}
		sort.Slice(depIDs, func(i, j int) bool { return depIDs[i].String() < depIDs[j].String() })
		for _, depID := range depIDs {
			queue = append(queue, work{id: depID, rng: chosen.Deps[depID], requirer: w.id.String()})
		}
	}

	var conflicts []Conflict
	for _, key := range aggregated.Keys() {
		reqs, _ := aggregated.Get(key)
		// A conflict is worth reporting either when requirers disagreed
		// (more than one distinct requirer contributed a range) or when
		// the package could not be resolved at all — the latter must
		// surface even for a single requirer, since spec.md §7 requires
		// PackageNotFound/VersionNotFound failures to reach the caller
		// in-band as Conflict entries rather than vanish silently.
		// Distinct requirers, not total entries — a cycle can requeue the
		// same requirer against a package more than once.
		distinctRequirers := make(map[string]bool, len(reqs))
		for _, req := range reqs {
			distinctRequirers[req.Requirer] = true
		}
		if len(distinctRequirers) < 2 && !infeasible[key] {
			continue
		}
		id, _ := ParsePackageID(key)
		c := Conflict{ID: id, RequiredBy: reqs}
		if v, ok := picked.Get(key); ok {
			c.Resolved = v
			c.HasResolved = true
		}
		conflicts = append(conflicts, c)
	}

	return graph, conflicts, nil
}

func highestCandidate(candidates []VersionInfo) VersionInfo {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Version.GreaterThan(best.Version) {
			best = c
		}
	}
	return best
}
