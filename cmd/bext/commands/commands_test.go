package commands_test

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
	"go.trai.ch/bext/cmd/bext/commands"
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

var wheelContent = []byte("cli test wheel")

type fixture struct {
	loader    *mocks.MockProjectLoader
	ref       *mocks.MockReferenceData
	index     *mocks.MockPackageIndex
	fetcher   *mocks.MockWheelFetcher
	assembler *mocks.MockAssembler
	cli       *commands.CLI
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
	f.cli = commands.New(app.New(
		f.loader,
		f.ref,
		resolver.New(f.index, f.ref, log),
		fetch.New(f.fetcher, store, tracer, log, fetch.WithRetryPolicy(0, time.Millisecond)),
		f.assembler,
		tracer,
		log,
	))
	return f
}

func (f *fixture) expectProject(t *testing.T) {
	t.Helper()
	spec, err := domain.ParseRequirement("requests>=2")
	require.NoError(t, err)
	project := &domain.Project{
		ID:              "my_ext",
		Version:         "0.1.0",
		Deps:            []domain.DependencySpec{spec},
		BlenderVersions: []string{"4.2"},
		Platforms:       []domain.PlatformTag{{OS: domain.OSLinux, Arch: domain.ArchX64}},
	}
	release := domain.BlenderVersion{
		Version:       "4.2.8",
		PythonVersion: "3.11.9",
		PyTag:         "cp311",
		MinGlibc:      domain.OSVersion{Major: 2, Minor: 28},
		Platforms:     project.Platforms,
	}
	f.loader.EXPECT().Load(".").Return(project, nil)
	f.ref.EXPECT().Release("4.2").Return(release, nil).AnyTimes()

	sum := sha256.Sum256(wheelContent)
	wheel, err := domain.ParseWheelDescriptor(
		"requests-2.32.3-py3-none-any.whl",
		"https://example.invalid/requests-2.32.3-py3-none-any.whl",
		"sha256:"+hex.EncodeToString(sum[:]), int64(len(wheelContent)))
	require.NoError(t, err)

	any := gomock.Any()
	f.index.EXPECT().Versions(any, "requests").
		Return([]string{"2.32.3"}, nil).AnyTimes()
	f.index.EXPECT().Requirements(any, "requests", "2.32.3").
		Return(nil, nil).AnyTimes()
	f.index.EXPECT().Wheels(any, "requests", "2.32.3").
		Return([]domain.WheelDescriptor{wheel}, nil).AnyTimes()
}

func TestBuild_PrintsArchives(t *testing.T) {
	f := newFixture(t)
	f.expectProject(t)

	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.WheelDescriptor, w io.Writer) error {
			_, err := w.Write(wheelContent)
			return err
		}).Times(1)
	f.assembler.EXPECT().Assemble(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.AssemblyRequest) (string, bool, error) {
			assert.Equal(t, domain.ProfileRelease, req.Profile)
			return "dist/my_ext-0.1.0-linux-x64.zip", false, nil
		}).Times(1)

	var out strings.Builder
	f.cli.SetOut(&out)
	f.cli.SetArgs([]string{"build"})
	require.NoError(t, f.cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "my_ext-0.1.0-linux-x64.zip")
}

func TestDeps_RendersTable(t *testing.T) {
	f := newFixture(t)
	f.expectProject(t)

	var out strings.Builder
	f.cli.SetOut(&out)
	f.cli.SetArgs([]string{"deps"})
	require.NoError(t, f.cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "requests")
	assert.Contains(t, out.String(), "2.32.3")
	assert.Contains(t, out.String(), "linux-x64")
}

func TestBuild_RejectsUnknownProfile(t *testing.T) {
	f := newFixture(t)

	f.cli.SetArgs([]string{"build", "--profile", "debug"})
	err := f.cli.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown release profile")
}

func TestRoot_Help(t *testing.T) {
	f := newFixture(t)

	var out strings.Builder
	f.cli.SetOut(&out)
	f.cli.SetArgs([]string{"--help"})
	require.NoError(t, f.cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "build")
	assert.Contains(t, out.String(), "deps")
}
