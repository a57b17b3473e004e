package fetch_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bext/internal/adapters/cas"
	"go.trai.ch/bext/internal/adapters/telemetry"
	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/bext/internal/core/ports/mocks"
	"go.trai.ch/bext/internal/engine/fetch"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) ports.Logger {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func newWheelStore(t *testing.T) ports.WheelStore {
	t.Helper()
	store, err := cas.NewWheelCache(t.TempDir())
	require.NoError(t, err)
	return store
}

// testWheel builds a descriptor whose hash matches content, so the
// store's integrity check passes when the fetcher serves content.
func testWheel(t *testing.T, filename string, content []byte) domain.WheelDescriptor {
	t.Helper()
	sum := sha256.Sum256(content)
	wheel, err := domain.ParseWheelDescriptor(
		filename, "https://example.invalid/"+filename,
		"sha256:"+hex.EncodeToString(sum[:]), int64(len(content)))
	require.NoError(t, err)
	return wheel
}

func serveContent(content []byte) func(context.Context, domain.WheelDescriptor, io.Writer) error {
	return func(_ context.Context, _ domain.WheelDescriptor, w io.Writer) error {
		_, err := w.Write(content)
		return err
	}
}

func TestFetchAll_SharedWheelDownloadsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockWheelFetcher(ctrl)

	content := []byte("wheel bytes")
	wheel := testWheel(t, "requests-2.32.3-py3-none-any.whl", content)

	// Three targets need the same artifact; one download must serve all.
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(serveContent(content)).Times(1)

	o := fetch.New(fetcher, newWheelStore(t), telemetry.NewNoOpTracer(), quietLogger(t))
	result, err := o.FetchAll(context.Background(), []domain.WheelDescriptor{wheel, wheel, wheel})
	require.NoError(t, err)
	require.False(t, result.Failed())

	path, ok := result.Path(wheel)
	require.True(t, ok)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFetchAll_RetriesTransientFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockWheelFetcher(ctrl)

	content := []byte("flaky wheel")
	wheel := testWheel(t, "flaky-1.0-py3-none-any.whl", content)

	calls := 0
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.WheelDescriptor, w io.Writer) error {
			calls++
			if calls < 3 {
				return domain.ErrDownload
			}
			_, err := w.Write(content)
			return err
		}).Times(3)

	o := fetch.New(fetcher, newWheelStore(t), telemetry.NewNoOpTracer(), quietLogger(t),
		fetch.WithRetryPolicy(3, time.Millisecond))
	result, err := o.FetchAll(context.Background(), []domain.WheelDescriptor{wheel})
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.NoError(t, result.Err(wheel))
}

func TestFetchAll_RetryBudgetExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockWheelFetcher(ctrl)

	wheel := testWheel(t, "down-1.0-py3-none-any.whl", []byte("unreachable"))

	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ErrDownload).Times(2)

	o := fetch.New(fetcher, newWheelStore(t), telemetry.NewNoOpTracer(), quietLogger(t),
		fetch.WithRetryPolicy(1, time.Millisecond))
	result, err := o.FetchAll(context.Background(), []domain.WheelDescriptor{wheel})
	require.NoError(t, err)
	require.True(t, result.Failed())
	assert.ErrorIs(t, result.Err(wheel), domain.ErrDownload)

	_, ok := result.Path(wheel)
	assert.False(t, ok)
}

func TestFetchAll_IntegrityFailureNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockWheelFetcher(ctrl)

	wheel := testWheel(t, "tampered-1.0-py3-none-any.whl", []byte("expected bytes"))

	// The source serves the wrong bytes; retrying cannot fix that.
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(serveContent([]byte("tampered bytes"))).Times(1)

	o := fetch.New(fetcher, newWheelStore(t), telemetry.NewNoOpTracer(), quietLogger(t),
		fetch.WithRetryPolicy(3, time.Millisecond))
	result, err := o.FetchAll(context.Background(), []domain.WheelDescriptor{wheel})
	require.NoError(t, err)
	require.True(t, result.Failed())
	assert.ErrorIs(t, result.Err(wheel), domain.ErrIntegrity)
}

func TestFetchAll_FailuresStayPerWheel(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockWheelFetcher(ctrl)

	good := []byte("good wheel")
	goodWheel := testWheel(t, "good-1.0-py3-none-any.whl", good)
	badWheel := testWheel(t, "bad-1.0-py3-none-any.whl", []byte("never arrives"))

	fetcher.EXPECT().Fetch(gomock.Any(), goodWheel, gomock.Any()).
		DoAndReturn(serveContent(good)).Times(1)
	fetcher.EXPECT().Fetch(gomock.Any(), badWheel, gomock.Any()).
		Return(domain.ErrDownload).AnyTimes()

	o := fetch.New(fetcher, newWheelStore(t), telemetry.NewNoOpTracer(), quietLogger(t),
		fetch.WithRetryPolicy(0, time.Millisecond), fetch.WithParallelism(2))
	result, err := o.FetchAll(context.Background(), []domain.WheelDescriptor{goodWheel, badWheel})
	require.NoError(t, err)

	_, ok := result.Path(goodWheel)
	assert.True(t, ok, "an unrelated failure must not block this wheel")
	assert.ErrorIs(t, result.Err(badWheel), domain.ErrDownload)
}

func TestFetchAll_SkipsCachedWheels(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockWheelFetcher(ctrl)

	content := []byte("already cached")
	wheel := testWheel(t, "cached-1.0-py3-none-any.whl", content)
	store := newWheelStore(t)

	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(serveContent(content)).Times(1)

	o := fetch.New(fetcher, store, telemetry.NewNoOpTracer(), quietLogger(t))
	_, err := o.FetchAll(context.Background(), []domain.WheelDescriptor{wheel})
	require.NoError(t, err)

	// Second run hits the cache; the fetcher's Times(1) above would
	// fail on another call.
	result, err := o.FetchAll(context.Background(), []domain.WheelDescriptor{wheel})
	require.NoError(t, err)
	_, ok := result.Path(wheel)
	assert.True(t, ok)
}
