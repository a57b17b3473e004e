package pypi

import (
	"context"
	"io"
	"net/http"

	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/zerr"
)

// Fetcher implements ports.WheelFetcher over HTTP. All failures are
// tagged domain.ErrDownload so the download pool can retry them;
// integrity is checked by the wheel cache, not here.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a wheel fetcher with its own HTTP client. Wheel
// downloads can be large, so no overall request timeout is set and
// cancellation rides on the context.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{}}
}

// Fetch streams the wheel's bytes into w.
func (f *Fetcher) Fetch(ctx context.Context, wheel domain.WheelDescriptor, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wheel.URL, nil)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to build wheel request"), "wheel", wheel.Filename)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		dlErr := zerr.Wrap(domain.ErrDownload, "wheel request failed")
		dlErr = zerr.With(dlErr, "wheel", wheel.Filename)
		return zerr.With(dlErr, "cause", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		dlErr := zerr.Wrap(domain.ErrDownload, "unexpected wheel response")
		dlErr = zerr.With(dlErr, "wheel", wheel.Filename)
		return zerr.With(dlErr, "status", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		dlErr := zerr.Wrap(domain.ErrDownload, "wheel transfer interrupted")
		dlErr = zerr.With(dlErr, "wheel", wheel.Filename)
		return zerr.With(dlErr, "cause", err.Error())
	}
	return nil
}
