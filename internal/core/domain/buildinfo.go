package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// BuildInfo records one completed extension build so unchanged builds
// can be skipped on the next run.
type BuildInfo struct {
	BuildID     string    `json:"build_id,omitzero"`
	SourceHash  string    `json:"source_hash,omitzero"`
	ArchivePath string    `json:"archive_path,omitzero"`
	Timestamp   time.Time `json:"timestamp,omitzero"`
}

// BuildID derives a deterministic identifier for one (extension,
// Blender version, platform, profile) build combination.
func BuildID(extensionID, blenderVersion string, platform PlatformTag, profile ReleaseProfile) string {
	var b strings.Builder
	b.WriteString(extensionID)
	b.WriteString(";")
	b.WriteString(blenderVersion)
	b.WriteString(";")
	b.WriteString(platform.Key())
	b.WriteString(";")
	b.WriteString(string(profile))

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}
