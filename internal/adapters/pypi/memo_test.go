package pypi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bext/internal/adapters/pypi"
	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestMemoIndex_VersionsCachedAcrossSpellings(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockPackageIndex(ctrl)
	next.EXPECT().
		Versions(gomock.Any(), gomock.Any()).
		Return([]string{"1.24.3", "1.26.4"}, nil).
		Times(1)

	memo := pypi.NewMemoIndex(next)
	ctx := context.Background()

	first, err := memo.Versions(ctx, "NumPy")
	require.NoError(t, err)

	// The normalized name keys the cache, so a different spelling of
	// the same package must not trigger a second index query.
	second, err := memo.Versions(ctx, "numpy")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMemoIndex_WheelsCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockPackageIndex(ctrl)
	next.EXPECT().
		Wheels(gomock.Any(), "numpy", "1.24.3").
		Return([]domain.WheelDescriptor{{Filename: "numpy-1.24.3-py3-none-any.whl"}}, nil).
		Times(1)

	memo := pypi.NewMemoIndex(next)
	ctx := context.Background()

	for range 3 {
		wheels, err := memo.Wheels(ctx, "numpy", "1.24.3")
		require.NoError(t, err)
		require.Len(t, wheels, 1)
	}
}

func TestMemoIndex_ErrorsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockPackageIndex(ctrl)
	next.EXPECT().
		Requirements(gomock.Any(), "flaky", "1.0").
		Return(nil, domain.ErrDownload).
		Times(1)
	next.EXPECT().
		Requirements(gomock.Any(), "flaky", "1.0").
		Return([]domain.DependencySpec{}, nil).
		Times(1)

	memo := pypi.NewMemoIndex(next)
	ctx := context.Background()

	_, err := memo.Requirements(ctx, "flaky", "1.0")
	require.Error(t, err)

	_, err = memo.Requirements(ctx, "flaky", "1.0")
	require.NoError(t, err)
}
