// Package resolver computes, for one (Blender version, platform)
// target, the concrete package set satisfying the project's declared
// dependencies together with the packages Blender already bundles.
package resolver

import (
	"context"
	"sort"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/bext/internal/engine/selector"
	"go.trai.ch/zerr"
)

// projectRequirer names the project itself in conflict payloads.
const projectRequirer = "<project>"

// maxRounds bounds the worklist. Constraint sets only grow and chosen
// versions only move downward, so resolution converges long before
// this; the cap turns a logic bug into an error instead of a hang.
const maxRounds = 10000

// Resolver expands a project's dependency graph against a package
// index. Safe for concurrent use: all per-run state lives in a private
// state value, and the index is required to be safe for concurrent
// reads (the memoizing decorator guarantees single-writer-per-key).
type Resolver struct {
	index ports.PackageIndex
	ref   ports.ReferenceData
	log   ports.Logger
}

// New creates a Resolver on top of an index capability.
func New(index ports.PackageIndex, ref ports.ReferenceData, log ports.Logger) *Resolver {
	return &Resolver{index: index, ref: ref, log: log}
}

// edge is one accumulated constraint on a package: who required it and
// with what spec.
type edge struct {
	spec     domain.DependencySpec
	requirer domain.Requirer
}

// state is the mutable working set of one resolution run, discarded
// when Resolve returns.
type state struct {
	blender domain.BlenderVersion
	target  domain.PlatformTag
	env     domain.MarkerEnv

	// constraints accumulates every requirement edge per package.
	constraints map[string][]edge
	// extras is the union of extras requested on each package.
	extras map[string]map[string]struct{}
	// selected is the currently chosen version per package.
	selected map[string]string
	// expanded records the version+extras a package's requirements were
	// last expanded under, so unchanged picks are not re-expanded.
	expanded map[string]string

	queue []string
}

// Resolve produces the consistent wheel set for one target triple. The
// returned resolution never contains a package Blender bundles.
func (r *Resolver) Resolve(ctx context.Context, project *domain.Project, blender domain.BlenderVersion, platform domain.PlatformTag, profile domain.ReleaseProfile) (*domain.Resolution, error) {
	target := blender.TargetFor(platform, project.MinGlibc, project.MinMacOS)
	st := &state{
		blender:     blender,
		target:      target,
		env:         blender.MarkerEnvFor(target),
		constraints: make(map[string][]edge),
		extras:      make(map[string]map[string]struct{}),
		selected:    make(map[string]string),
		expanded:    make(map[string]string),
	}

	for _, spec := range project.DepsFor(profile) {
		applies, err := spec.AppliesTo(st.env)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid marker on project dependency"), "requirement", spec.String())
		}
		if !applies {
			continue
		}
		if err := r.addConstraint(st, spec, domain.Requirer{Name: projectRequirer, Constraint: spec.Constraint}); err != nil {
			return nil, err
		}
	}

	for round := 0; len(st.queue) > 0; round++ {
		if round >= maxRounds {
			return nil, zerr.With(zerr.New("dependency resolution did not converge"), "blender", blender.Version)
		}
		name := st.queue[0]
		st.queue = st.queue[1:]
		if len(st.constraints[name]) == 0 {
			continue
		}
		if err := r.resolveOne(ctx, st, name); err != nil {
			return nil, err
		}
	}

	return r.finalize(ctx, st)
}

// addConstraint records one requirement edge. Edges naming a bundled
// package are verified against the pin and then dropped: the pin can
// never change, so a satisfied edge contributes nothing further, and an
// unsatisfiable direct edge is a reference conflict.
func (r *Resolver) addConstraint(st *state, spec domain.DependencySpec, requirer domain.Requirer) error {
	if pin, ok := st.blender.PinFor(spec.Name); ok && pin.AvailableOn(st.target) {
		admits, err := spec.Admits(pin.Version)
		if err != nil {
			return err
		}
		if !admits {
			return &domain.ReferenceConflictError{
				Package:    spec.Name,
				Pinned:     pin.Version,
				Constraint: spec.Constraint,
				Blender:    st.blender.Version,
				Remedy:     r.remedyFor(st, spec),
			}
		}
		return nil
	}

	st.constraints[spec.Name] = append(st.constraints[spec.Name], edge{spec: spec, requirer: requirer})
	if len(spec.Extras) > 0 {
		set := st.extras[spec.Name]
		if set == nil {
			set = make(map[string]struct{})
			st.extras[spec.Name] = set
		}
		for _, extra := range spec.Extras {
			set[extra] = struct{}{}
		}
	}
	st.queue = append(st.queue, spec.Name)
	return nil
}

// resolveOne picks the version for one package and, when the pick
// changed, replaces the package's outgoing requirement edges.
func (r *Resolver) resolveOne(ctx context.Context, st *state, name string) error {
	version, reqs, err := r.pickVersion(ctx, st, name)
	if err != nil {
		return err
	}

	key := version + "|" + extrasKey(st.extras[name])
	if st.expanded[name] == key {
		st.selected[name] = version
		return nil
	}
	st.selected[name] = version
	st.expanded[name] = key

	// A changed pick invalidates every edge the old version contributed.
	r.dropEdgesFrom(st, name)

	requirer := domain.Requirer{Name: name, Version: version}
	for _, req := range reqs {
		requirer.Constraint = req.Constraint
		if err := r.addConstraint(st, req, requirer); err != nil {
			return err
		}
	}
	return nil
}

// pickVersion selects the newest published version of name admitted by
// every accumulated constraint whose own requirements do not contradict
// a bundled pin. Candidates contradicting a pin are passed over in
// favor of older ones; if only such candidates remain the pin conflict
// surfaces, and if no candidate satisfies the constraints at all the
// full requirer set does.
func (r *Resolver) pickVersion(ctx context.Context, st *state, name string) (string, []domain.DependencySpec, error) {
	versions, err := r.index.Versions(ctx, name)
	if err != nil {
		return "", nil, zerr.With(zerr.Wrap(err, "failed to list package versions"), "package", name)
	}

	env := st.env
	env.Extras = extrasList(st.extras[name])

	var pinBlocked error
	for _, version := range domain.SortVersionsDesc(versions) {
		admitted, err := r.admitsAll(st.constraints[name], version)
		if err != nil {
			return "", nil, err
		}
		if !admitted {
			continue
		}

		reqs, err := r.index.Requirements(ctx, name, version)
		if err != nil {
			return "", nil, zerr.With(zerr.Wrap(err, "failed to query package requirements"), "package", name)
		}

		applicable := make([]domain.DependencySpec, 0, len(reqs))
		for _, req := range reqs {
			applies, err := req.AppliesTo(env)
			if err != nil {
				r.log.Warn("skipping requirement with invalid marker",
					"package", name, "version", version, "requirement", req.String())
				continue
			}
			if applies {
				applicable = append(applicable, req)
			}
		}

		if conflict := r.pinConflict(st, name, version, applicable); conflict != nil {
			if pinBlocked == nil {
				pinBlocked = conflict
			}
			continue
		}
		return version, applicable, nil
	}

	if pinBlocked != nil {
		return "", nil, pinBlocked
	}
	return "", nil, &domain.ResolutionConflictError{
		Package:   name,
		Requirers: requirersOf(st.constraints[name]),
	}
}

// admitsAll reports whether every accumulated constraint admits the
// candidate version.
func (r *Resolver) admitsAll(edges []edge, version string) (bool, error) {
	for _, e := range edges {
		ok, err := e.spec.Admits(version)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// pinConflict checks a candidate's applicable requirements against the
// release's bundled pins. The returned conflict names the requiring
// package and version so the user sees which candidate was blocked.
func (r *Resolver) pinConflict(st *state, name, version string, reqs []domain.DependencySpec) error {
	for _, req := range reqs {
		pin, ok := st.blender.PinFor(req.Name)
		if !ok || !pin.AvailableOn(st.target) {
			continue
		}
		admits, err := req.Admits(pin.Version)
		if err != nil || !admits {
			return &domain.ReferenceConflictError{
				Package:    req.Name,
				Pinned:     pin.Version,
				Constraint: name + " " + version + " requires " + req.Constraint,
				Blender:    st.blender.Version,
				Remedy:     r.remedyFor(st, req),
			}
		}
	}
	return nil
}

// dropEdgesFrom removes every requirement edge contributed by name and
// re-queues the packages that lost one, since a weaker constraint set
// may admit a newer version again.
func (r *Resolver) dropEdgesFrom(st *state, name string) {
	for pkg, edges := range st.constraints {
		kept := edges[:0]
		dropped := false
		for _, e := range edges {
			if e.requirer.Name == name {
				dropped = true
				continue
			}
			kept = append(kept, e)
		}
		if dropped {
			st.constraints[pkg] = kept
			st.queue = append(st.queue, pkg)
		}
	}
}

// remedyFor looks for the lowest Blender release newer than the one
// being resolved whose pin would satisfy the constraint, or which no
// longer bundles the package at all. Returns "" when no release helps.
func (r *Resolver) remedyFor(st *state, spec domain.DependencySpec) string {
	if r.ref == nil {
		return ""
	}
	current, err := pep440.Parse(st.blender.Version)
	if err != nil {
		return ""
	}
	for _, release := range r.ref.Releases() {
		v, err := pep440.Parse(release.Version)
		if err != nil || !v.GreaterThan(current) {
			continue
		}
		pin, ok := release.PinFor(spec.Name)
		if !ok {
			return release.Version
		}
		admits, err := spec.Admits(pin.Version)
		if err == nil && admits {
			return release.Version
		}
	}
	return ""
}

// finalize selects a wheel for every surviving package and assembles
// the resolution, ordered by package name.
func (r *Resolver) finalize(ctx context.Context, st *state) (*domain.Resolution, error) {
	names := make([]string, 0, len(st.selected))
	for name := range st.selected {
		if len(st.constraints[name]) == 0 {
			// Orphaned by a re-pick upstream; nothing requires it now.
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	res := &domain.Resolution{Blender: st.blender, Platform: st.target}
	for _, name := range names {
		version := st.selected[name]
		wheels, err := r.index.Wheels(ctx, name, version)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to list package wheels"), "package", name)
		}
		wheel, err := selector.Select(st.blender, st.target, name, version, wheels)
		if err != nil {
			return nil, err
		}
		res.Packages = append(res.Packages, domain.ResolvedDependency{
			Name:    name,
			Version: version,
			Wheel:   wheel,
		})
	}
	return res, nil
}

// requirersOf flattens a package's edges into the conflict payload,
// deduplicated and ordered for stable reporting.
func requirersOf(edges []edge) []domain.Requirer {
	seen := make(map[string]struct{}, len(edges))
	requirers := make([]domain.Requirer, 0, len(edges))
	for _, e := range edges {
		key := e.requirer.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		requirers = append(requirers, e.requirer)
	}
	sort.Slice(requirers, func(i, j int) bool {
		if requirers[i].Name != requirers[j].Name {
			// Direct project specs sort first.
			if requirers[i].Name == projectRequirer {
				return true
			}
			if requirers[j].Name == projectRequirer {
				return false
			}
			return requirers[i].Name < requirers[j].Name
		}
		return requirers[i].Constraint < requirers[j].Constraint
	})
	return requirers
}

func extrasKey(set map[string]struct{}) string {
	return strings.Join(extrasList(set), ",")
}

func extrasList(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	extras := make([]string, 0, len(set))
	for extra := range set {
		extras = append(extras, extra)
	}
	sort.Strings(extras)
	return extras
}
