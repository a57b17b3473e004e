package pypi

// projectResponse represents the JSON API response for a whole project,
// GET <base>/pypi/<name>/json.
type projectResponse struct {
	Info     releaseInfo              `json:"info"`
	Releases map[string][]releaseFile `json:"releases"`
}

// releaseResponse represents the JSON API response for one release,
// GET <base>/pypi/<name>/<version>/json.
type releaseResponse struct {
	Info releaseInfo   `json:"info"`
	URLs []releaseFile `json:"urls"`
}

// releaseInfo carries the metadata fields the resolver consumes.
type releaseInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	RequiresDist []string `json:"requires_dist"`
	Yanked       bool     `json:"yanked"`
}

// releaseFile represents one distribution artifact of a release.
type releaseFile struct {
	Filename    string            `json:"filename"`
	URL         string            `json:"url"`
	PackageType string            `json:"packagetype"`
	Size        int64             `json:"size"`
	Digests     map[string]string `json:"digests"`
	Yanked      bool              `json:"yanked"`
}
