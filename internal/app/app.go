// Package app implements the application layer for bext: target-matrix
// expansion, concurrent per-target resolution, wheel fetching and
// archive assembly, with failures collected per target so one broken
// platform never hides the others.
package app

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/bext/internal/engine/fetch"
	"go.trai.ch/bext/internal/engine/resolver"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// defaultOutputDir receives finished archives unless overridden.
const defaultOutputDir = "dist"

// App drives the build pipeline end to end.
type App struct {
	loader    ports.ProjectLoader
	ref       ports.ReferenceData
	resolver  *resolver.Resolver
	fetcher   *fetch.Orchestrator
	assembler ports.Assembler
	tracer    ports.Tracer
	log       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ProjectLoader,
	ref ports.ReferenceData,
	res *resolver.Resolver,
	fetcher *fetch.Orchestrator,
	assembler ports.Assembler,
	tracer ports.Tracer,
	log ports.Logger,
) *App {
	return &App{
		loader:    loader,
		ref:       ref,
		resolver:  res,
		fetcher:   fetcher,
		assembler: assembler,
		tracer:    tracer,
		log:       log,
	}
}

// BuildOptions selects the flavor and destination of a build.
type BuildOptions struct {
	Profile   domain.ReleaseProfile
	OutputDir string
}

// target is one (Blender release, platform) pair to build for.
type target struct {
	blender  domain.BlenderVersion
	platform domain.PlatformTag
}

func (t target) String() string {
	return t.blender.Version + "/" + t.platform.Key()
}

// Run builds the extension at path for every declared target and
// returns the finished archive paths. When some targets fail, the
// archives of the succeeding ones are still returned together with an
// error joining every per-target failure.
func (a *App) Run(ctx context.Context, path string, opts BuildOptions) ([]string, error) {
	if opts.Profile == "" {
		opts.Profile = domain.ProfileRelease
	}
	if opts.OutputDir == "" {
		opts.OutputDir = defaultOutputDir
	}

	project, err := a.loader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load project")
	}

	targets, fails, err := a.expandTargets(project)
	if err != nil {
		return nil, err
	}

	plan := make([]string, len(targets))
	for i, t := range targets {
		plan[i] = t.String()
	}
	a.tracer.EmitPlan(ctx, plan)

	resolutions, resolveFails := a.resolveAll(ctx, project, targets, opts.Profile)
	fails = append(fails, resolveFails...)

	var wheels []domain.WheelDescriptor
	for _, res := range resolutions {
		for _, pkg := range res.Packages {
			wheels = append(wheels, pkg.Wheel)
		}
	}
	fetched, err := a.fetcher.FetchAll(ctx, wheels)
	if err != nil {
		return nil, err
	}

	var archives []string
	for _, res := range resolutions {
		wheelPaths, missing := collectWheelPaths(res, fetched)
		if missing != nil {
			fails = append(fails, &domain.TripleError{
				Blender: res.Blender.Version, Platform: res.Platform, Err: missing,
			})
			continue
		}

		archive, cached, err := a.assembler.Assemble(ctx, ports.AssemblyRequest{
			Project:    project,
			Resolution: res,
			Profile:    opts.Profile,
			WheelPaths: wheelPaths,
			OutputDir:  opts.OutputDir,
		})
		if err != nil {
			fails = append(fails, &domain.TripleError{
				Blender: res.Blender.Version, Platform: res.Platform, Err: err,
			})
			continue
		}
		a.log.Info("packed extension",
			"archive", archive, "blender", res.Blender.Version,
			"platform", res.Platform.Key(), "cached", cached)
		archives = append(archives, archive)
	}

	return archives, joinTripleErrors(fails)
}

// Deps resolves every target and projects the result as a dependency
// report. Resolution failures abort the report: a partial table would
// misrepresent the build.
func (a *App) Deps(ctx context.Context, path string, profile domain.ReleaseProfile) (domain.DepsReport, error) {
	if profile == "" {
		profile = domain.ProfileRelease
	}

	project, err := a.loader.Load(path)
	if err != nil {
		return domain.DepsReport{}, zerr.Wrap(err, "failed to load project")
	}

	targets, fails, err := a.expandTargets(project)
	if err != nil {
		return domain.DepsReport{}, err
	}

	resolutions, resolveFails := a.resolveAll(ctx, project, targets, profile)
	fails = append(fails, resolveFails...)
	if err := joinTripleErrors(fails); err != nil {
		return domain.DepsReport{}, err
	}

	return domain.NewDepsReport(resolutions), nil
}

// expandTargets crosses the project's requested Blender versions with
// its requested platforms. An unknown Blender version is a project
// configuration error; a platform a known release does not ship on is
// collected per target. Duplicate requests ("4.2" next to "4.2.8")
// collapse onto one target.
func (a *App) expandTargets(project *domain.Project) ([]target, []*domain.TripleError, error) {
	var targets []target
	var fails []*domain.TripleError
	seen := make(map[string]struct{})

	for _, requested := range project.BlenderVersions {
		release, err := a.ref.Release(requested)
		if err != nil {
			return nil, nil, err
		}

		platforms := project.Platforms
		if len(platforms) == 0 {
			platforms = release.Platforms
		}
		for _, platform := range platforms {
			key := release.Version + "/" + platform.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if !release.SupportsPlatform(platform) {
				fails = append(fails, &domain.TripleError{
					Blender:  release.Version,
					Platform: platform,
					Err:      zerr.With(domain.ErrUnsupportedPlatform, "platform", platform.Key()),
				})
				continue
			}
			targets = append(targets, target{blender: release, platform: platform})
		}
	}
	return targets, fails, nil
}

// resolveAll resolves every target concurrently. Targets share only the
// read-only reference table and the index memo, so they are independent.
func (a *App) resolveAll(ctx context.Context, project *domain.Project, targets []target, profile domain.ReleaseProfile) ([]domain.Resolution, []*domain.TripleError) {
	resolutions := make([]*domain.Resolution, len(targets))
	fails := make([]*domain.TripleError, len(targets))

	var mu sync.Mutex
	var group errgroup.Group
	group.SetLimit(runtime.NumCPU())
	for i, t := range targets {
		group.Go(func() error {
			spanCtx, span := a.tracer.Start(ctx, "resolve "+t.String())
			res, err := a.resolver.Resolve(spanCtx, project, t.blender, t.platform, profile)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				span.RecordError(err)
				fails[i] = &domain.TripleError{
					Blender: t.blender.Version, Platform: t.platform, Err: err,
				}
				return nil
			}
			span.End()
			resolutions[i] = res
			return nil
		})
	}
	_ = group.Wait()

	out := make([]domain.Resolution, 0, len(targets))
	var collected []*domain.TripleError
	for i := range targets {
		if fails[i] != nil {
			collected = append(collected, fails[i])
			continue
		}
		if resolutions[i] != nil {
			out = append(out, *resolutions[i])
		}
	}
	return out, collected
}

// collectWheelPaths maps a resolution's wheels to their cached files,
// or reports the first wheel whose download failed.
func collectWheelPaths(res domain.Resolution, fetched *fetch.Result) (map[string]string, error) {
	paths := make(map[string]string, len(res.Packages))
	for _, pkg := range res.Packages {
		if err := fetched.Err(pkg.Wheel); err != nil {
			return nil, err
		}
		path, ok := fetched.Path(pkg.Wheel)
		if !ok {
			return nil, zerr.With(zerr.New("wheel was not fetched"), "wheel", pkg.Wheel.Filename)
		}
		paths[pkg.Wheel.Hash] = path
	}
	return paths, nil
}

// joinTripleErrors flattens collected per-target failures into one
// error, ordered for stable output. Nil when nothing failed.
func joinTripleErrors(fails []*domain.TripleError) error {
	if len(fails) == 0 {
		return nil
	}
	domain.SortTripleErrors(fails)
	errs := make([]error, len(fails))
	for i, fail := range fails {
		errs[i] = fail
	}
	return errors.Join(errs...)
}
