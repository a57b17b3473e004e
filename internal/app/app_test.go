package app_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bext/internal/adapters/cas"
	"go.trai.ch/bext/internal/adapters/telemetry"
	"go.trai.ch/bext/internal/app"
	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/bext/internal/core/ports/mocks"
	"go.trai.ch/bext/internal/engine/fetch"
	"go.trai.ch/bext/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

var wheelContent = []byte("wheel payload")

func linuxX64() domain.PlatformTag {
	return domain.PlatformTag{OS: domain.OSLinux, Arch: domain.ArchX64}
}

func winX64() domain.PlatformTag {
	return domain.PlatformTag{OS: domain.OSWindows, Arch: domain.ArchX64}
}

func testRelease(platforms ...domain.PlatformTag) domain.BlenderVersion {
	return domain.BlenderVersion{
		Version:       "4.2.8",
		PythonVersion: "3.11.9",
		PyTag:         "cp311",
		MinGlibc:      domain.OSVersion{Major: 2, Minor: 28},
		MinMacOS:      domain.OSVersion{Major: 11, Minor: 0},
		Platforms:     platforms,
	}
}

func testProject(t *testing.T, platforms ...domain.PlatformTag) *domain.Project {
	t.Helper()
	spec, err := domain.ParseRequirement("requests>=2")
	require.NoError(t, err)
	return &domain.Project{
		ID:              "my_ext",
		Name:            "My Extension",
		Version:         "0.1.0",
		Deps:            []domain.DependencySpec{spec},
		BlenderVersions: []string{"4.2"},
		Platforms:       platforms,
	}
}

func pureWheel(t *testing.T) domain.WheelDescriptor {
	t.Helper()
	sum := sha256.Sum256(wheelContent)
	wheel, err := domain.ParseWheelDescriptor(
		"requests-2.32.3-py3-none-any.whl",
		"https://example.invalid/requests-2.32.3-py3-none-any.whl",
		"sha256:"+hex.EncodeToString(sum[:]), int64(len(wheelContent)))
	require.NoError(t, err)
	return wheel
}

type fixture struct {
	loader    *mocks.MockProjectLoader
	ref       *mocks.MockReferenceData
	index     *mocks.MockPackageIndex
	fetcher   *mocks.MockWheelFetcher
	assembler *mocks.MockAssembler
	app       *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	store, err := cas.NewWheelCache(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		loader:    mocks.NewMockProjectLoader(ctrl),
		ref:       mocks.NewMockReferenceData(ctrl),
		index:     mocks.NewMockPackageIndex(ctrl),
		fetcher:   mocks.NewMockWheelFetcher(ctrl),
		assembler: mocks.NewMockAssembler(ctrl),
	}
	tracer := telemetry.NewNoOpTracer()
	f.app = app.New(
		f.loader,
		f.ref,
		resolver.New(f.index, f.ref, log),
		fetch.New(f.fetcher, store, tracer, log, fetch.WithRetryPolicy(0, time.Millisecond)),
		f.assembler,
		tracer,
		log,
	)
	return f
}

func (f *fixture) expectRequestsIndex(t *testing.T) {
	t.Helper()
	any := gomock.Any()
	f.index.EXPECT().Versions(any, "requests").
		Return([]string{"2.32.3"}, nil).AnyTimes()
	f.index.EXPECT().Requirements(any, "requests", "2.32.3").
		Return(nil, nil).AnyTimes()
	f.index.EXPECT().Wheels(any, "requests", "2.32.3").
		Return([]domain.WheelDescriptor{pureWheel(t)}, nil).AnyTimes()
}

func TestRun_BuildsEveryTargetSharingWheels(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("proj").Return(testProject(t, linuxX64(), winX64()), nil)
	f.ref.EXPECT().Release("4.2").Return(testRelease(linuxX64(), winX64()), nil).AnyTimes()
	f.expectRequestsIndex(t)

	// Both platforms select the identical pure wheel: one download.
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.WheelDescriptor, w io.Writer) error {
			_, err := w.Write(wheelContent)
			return err
		}).Times(1)

	f.assembler.EXPECT().Assemble(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.AssemblyRequest) (string, bool, error) {
			require.Len(t, req.WheelPaths, 1)
			return req.OutputDir + "/my_ext-0.1.0-" + req.Resolution.Platform.Key() + ".zip", false, nil
		}).Times(2)

	archives, err := f.app.Run(context.Background(), "proj", app.BuildOptions{OutputDir: t.TempDir()})
	require.NoError(t, err)
	require.Len(t, archives, 2)
}

func TestRun_CollectsPerTargetFailures(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("proj").Return(testProject(t, linuxX64(), winX64()), nil)
	// The release only ships on linux; the windows request must fail
	// without dragging the linux build down.
	f.ref.EXPECT().Release("4.2").Return(testRelease(linuxX64()), nil).AnyTimes()
	f.expectRequestsIndex(t)

	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.WheelDescriptor, w io.Writer) error {
			_, err := w.Write(wheelContent)
			return err
		}).Times(1)
	f.assembler.EXPECT().Assemble(gomock.Any(), gomock.Any()).
		Return("dist/my_ext-0.1.0-linux-x64.zip", false, nil).Times(1)

	archives, err := f.app.Run(context.Background(), "proj", app.BuildOptions{})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrUnsupportedPlatform)
	assert.Contains(t, err.Error(), "[blender 4.2.8, windows-x64]")
	require.Len(t, archives, 1, "healthy targets still build")
}

func TestRun_ReportsEveryFailedTarget(t *testing.T) {
	f := newFixture(t)
	project := testProject(t, winX64(), domain.PlatformTag{OS: domain.OSMacOS, Arch: domain.ArchArm64})
	f.loader.EXPECT().Load("proj").Return(project, nil)
	f.ref.EXPECT().Release("4.2").Return(testRelease(linuxX64()), nil).AnyTimes()

	_, err := f.app.Run(context.Background(), "proj", app.BuildOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macos-arm64")
	assert.Contains(t, err.Error(), "windows-x64")
}

func TestDeps_MergesPlatformsPerPackage(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("proj").Return(testProject(t, linuxX64(), winX64()), nil)
	f.ref.EXPECT().Release("4.2").Return(testRelease(linuxX64(), winX64()), nil).AnyTimes()
	f.expectRequestsIndex(t)

	report, err := f.app.Deps(context.Background(), "proj", domain.ProfileRelease)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, "requests", row.Name)
	assert.Equal(t, "2.32.3", row.Version)
	assert.Equal(t, []string{"linux-x64", "windows-x64"}, row.Platforms)

	var rendered strings.Builder
	require.NoError(t, report.Render(&rendered))
	assert.Contains(t, rendered.String(), "requests")
	assert.Contains(t, rendered.String(), "total")
}

func TestDeps_FailsOnAnyFailedTarget(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load("proj").Return(testProject(t, linuxX64(), winX64()), nil)
	f.ref.EXPECT().Release("4.2").Return(testRelease(linuxX64()), nil).AnyTimes()
	f.expectRequestsIndex(t)

	_, err := f.app.Deps(context.Background(), "proj", domain.ProfileRelease)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrUnsupportedPlatform)
}
