package pypi_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bext/internal/adapters/pypi"
	"go.trai.ch/bext/internal/core/domain"
)

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("wheel bytes"))
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	fetcher := pypi.NewFetcher()
	err := fetcher.Fetch(context.Background(), domain.WheelDescriptor{
		Filename: "demo-1.0-py3-none-any.whl",
		URL:      srv.URL + "/demo-1.0-py3-none-any.whl",
	}, &buf)

	require.NoError(t, err)
	assert.Equal(t, "wheel bytes", buf.String())
}

func TestFetcher_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	fetcher := pypi.NewFetcher()
	err := fetcher.Fetch(context.Background(), domain.WheelDescriptor{
		Filename: "demo-1.0-py3-none-any.whl",
		URL:      srv.URL + "/demo-1.0-py3-none-any.whl",
	}, &buf)

	require.ErrorIs(t, err, domain.ErrDownload)
}

func TestFetcher_FetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("partial"))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	fetcher := pypi.NewFetcher()
	err := fetcher.Fetch(ctx, domain.WheelDescriptor{
		Filename: "demo-1.0-py3-none-any.whl",
		URL:      srv.URL + "/demo-1.0-py3-none-any.whl",
	}, &buf)

	require.Error(t, err)
}
