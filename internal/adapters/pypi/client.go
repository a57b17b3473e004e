// Package pypi implements the package index port against the PyPI JSON API.
package pypi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultBaseURL is the public PyPI instance.
const DefaultBaseURL = "https://pypi.org"

const requestTimeout = 30 * time.Second

// Client implements ports.PackageIndex against a PyPI-compatible JSON API.
type Client struct {
	base   string
	client *http.Client
	log    ports.Logger
}

// NewClient creates an index client for the given base URL. An empty
// base URL selects the public PyPI instance.
func NewClient(base string, log ports.Logger) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base:   base,
		client: &http.Client{Timeout: requestTimeout},
		log:    log,
	}
}

// Versions returns every published version of the package.
func (c *Client) Versions(ctx context.Context, name string) ([]string, error) {
	name = domain.NormalizeDistName(name)

	var resp projectResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/pypi/%s/json", c.base, name), name, &resp); err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(resp.Releases))
	for version, files := range resp.Releases {
		if len(files) == 0 {
			continue
		}
		versions = append(versions, version)
	}
	return versions, nil
}

// Wheels returns the wheel artifacts of one release. Yanked files and
// wheels whose platform tags cannot be recognized are skipped.
func (c *Client) Wheels(ctx context.Context, name, version string) ([]domain.WheelDescriptor, error) {
	name = domain.NormalizeDistName(name)

	var resp releaseResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/pypi/%s/%s/json", c.base, name, version), name, &resp); err != nil {
		return nil, err
	}

	wheels := make([]domain.WheelDescriptor, 0, len(resp.URLs))
	for _, file := range resp.URLs {
		if file.PackageType != "bdist_wheel" || file.Yanked {
			continue
		}
		hash := file.Digests["sha256"]
		if hash != "" {
			hash = "sha256:" + hash
		}
		wheel, err := domain.ParseWheelDescriptor(file.Filename, file.URL, hash, file.Size)
		if err != nil {
			if errors.Is(err, domain.ErrUnrecognizedTag) {
				c.log.Warn("skipping wheel with unrecognized platform tag", "wheel", file.Filename)
				continue
			}
			c.log.Warn("skipping unparseable wheel filename", "wheel", file.Filename, "error", err)
			continue
		}
		wheels = append(wheels, wheel)
	}
	return wheels, nil
}

// Requirements returns the declared dependencies of one release.
// Entries that are not plain name-and-specifier requirements, such as
// direct URL references, are skipped.
func (c *Client) Requirements(ctx context.Context, name, version string) ([]domain.DependencySpec, error) {
	name = domain.NormalizeDistName(name)

	var resp releaseResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/pypi/%s/%s/json", c.base, name, version), name, &resp); err != nil {
		return nil, err
	}

	specs := make([]domain.DependencySpec, 0, len(resp.Info.RequiresDist))
	for _, raw := range resp.Info.RequiresDist {
		spec, err := domain.ParseRequirement(raw)
		if err != nil {
			c.log.Warn("skipping unparseable requirement", "package", name, "requirement", raw)
			continue
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (c *Client) getJSON(ctx context.Context, url, name string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zerr.Wrap(err, "failed to build index request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "index request failed"), "package", name)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		notFoundErr := zerr.Wrap(domain.ErrUnknownPackage, "package not found on index")
		notFoundErr = zerr.With(notFoundErr, "package", name)
		return zerr.With(notFoundErr, "index", c.base)
	case resp.StatusCode != http.StatusOK:
		statusErr := zerr.With(zerr.New("unexpected index response"), "package", name)
		return zerr.With(statusErr, "status", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to decode index response"), "package", name)
	}
	return nil
}
