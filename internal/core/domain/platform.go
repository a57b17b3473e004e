// Package domain contains the core value types and pure logic for
// dependency resolution and cross-platform wheel selection.
package domain

import (
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// OS identifies an operating system supported by Blender extensions.
type OS string

const (
	OSLinux   OS = "linux"
	OSMacOS   OS = "macos"
	OSWindows OS = "windows"
)

// Arch identifies a CPU architecture supported by Blender extensions.
type Arch string

const (
	ArchX64   Arch = "x64"
	ArchArm64 Arch = "arm64"
)

// OSVersion is a two-component minimum OS version: a glibc version on
// Linux, a macOS version on macOS. Windows targets carry none.
type OSVersion struct {
	Major int
	Minor int
}

// ParseOSVersion parses a "major.minor" version string.
func ParseOSVersion(s string) (OSVersion, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return OSVersion{}, zerr.With(zerr.New("os version must be major.minor"), "version", s)
	}
	maj, err := strconv.Atoi(major)
	if err != nil {
		return OSVersion{}, zerr.With(zerr.Wrap(err, "invalid os version major"), "version", s)
	}
	min, err := strconv.Atoi(minor)
	if err != nil {
		return OSVersion{}, zerr.With(zerr.Wrap(err, "invalid os version minor"), "version", s)
	}
	return OSVersion{Major: maj, Minor: min}, nil
}

// Compare returns -1, 0 or +1 comparing v against o.
func (v OSVersion) Compare(o OSVersion) int {
	if v.Major != o.Major {
		if v.Major < o.Major {
			return -1
		}
		return 1
	}
	if v.Minor != o.Minor {
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// AtLeast reports whether v >= o.
func (v OSVersion) AtLeast(o OSVersion) bool {
	return v.Compare(o) >= 0
}

// String returns the "major.minor" form.
func (v OSVersion) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// PlatformTag identifies one build target: an OS/arch pair plus the
// configured minimum OS (or libc) version that selected wheels must not
// exceed. Equality and ordering consider only OS and arch; the minimum
// is configuration, not identity.
type PlatformTag struct {
	OS           OS
	Arch         Arch
	MinOSVersion *OSVersion
}

// ParsePlatformTag parses an extension-manifest platform key such as
// "linux-x64" or "macos-arm64".
func ParsePlatformTag(s string) (PlatformTag, error) {
	osPart, archPart, ok := strings.Cut(s, "-")
	if !ok {
		return PlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "platform must be os-arch"), "platform", s)
	}

	var tag PlatformTag
	switch OS(osPart) {
	case OSLinux, OSMacOS, OSWindows:
		tag.OS = OS(osPart)
	default:
		return PlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "unknown operating system"), "platform", s)
	}
	switch Arch(archPart) {
	case ArchX64, ArchArm64:
		tag.Arch = Arch(archPart)
	default:
		return PlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "unknown architecture"), "platform", s)
	}
	return tag, nil
}

// Key returns the canonical "os-arch" form used in manifests and maps.
func (p PlatformTag) Key() string {
	return string(p.OS) + "-" + string(p.Arch)
}

// String returns the canonical form, including the configured minimum
// when one is set.
func (p PlatformTag) String() string {
	if p.MinOSVersion == nil {
		return p.Key()
	}
	return p.Key() + " (min " + p.MinOSVersion.String() + ")"
}

// WithMinOSVersion returns a copy of p with the given configured minimum.
func (p PlatformTag) WithMinOSVersion(v OSVersion) PlatformTag {
	min := v
	p.MinOSVersion = &min
	return p
}

// WheelPlatformTag is one platform component parsed from a wheel
// filename, e.g. "manylinux_2_17_x86_64" or "macosx_11_0_arm64".
// Legacy manylinux aliases are canonicalized to their PEP 600 form
// before parsing, so two semantically equivalent tags compare equal.
type WheelPlatformTag struct {
	// Raw is the canonicalized tag text.
	Raw string
	// Any marks the universal "any" tag of pure-Python wheels.
	Any bool

	OS     OS
	Arches []Arch
	// MinOSVersion is the minimum glibc (manylinux) or macOS (macosx)
	// version the wheel requires. Nil for Windows and "any" tags.
	MinOSVersion *OSVersion
}

// legacyManylinux maps pre-PEP600 manylinux aliases to the glibc
// versions they stand for.
var legacyManylinux = map[string]string{
	"manylinux1":    "manylinux_2_5",
	"manylinux2010": "manylinux_2_12",
	"manylinux2014": "manylinux_2_17",
}

// LegacyManylinuxToPEP600 rewrites a legacy manylinux platform tag to
// its PEP 600 "manylinux_X_Y" equivalent. Tags already in PEP 600 form,
// and all non-manylinux tags, pass through unchanged, so the rewrite is
// idempotent.
func LegacyManylinuxToPEP600(tag string) string {
	for legacy, pep600 := range legacyManylinux {
		if rest, ok := strings.CutPrefix(tag, legacy+"_"); ok {
			return pep600 + "_" + rest
		}
	}
	return tag
}

// NormalizePlatformTag parses a single wheel platform tag component.
// It returns ErrUnrecognizedTag for tag families that can never run
// inside Blender (e.g. plain "linux_*" without a manylinux guarantee)
// as well as for malformed tags.
func NormalizePlatformTag(raw string) (WheelPlatformTag, error) {
	tag := LegacyManylinuxToPEP600(raw)

	if tag == "any" {
		return WheelPlatformTag{Raw: tag, Any: true}, nil
	}

	switch {
	case strings.HasPrefix(tag, "manylinux_"):
		return parseManylinuxTag(tag)
	case strings.HasPrefix(tag, "macosx_"):
		return parseMacOSTag(tag)
	case strings.HasPrefix(tag, "win"):
		return parseWindowsTag(tag)
	}
	return WheelPlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "unsupported platform tag family"), "tag", raw)
}

func parseManylinuxTag(tag string) (WheelPlatformTag, error) {
	parts := strings.SplitN(strings.TrimPrefix(tag, "manylinux_"), "_", 3)
	if len(parts) != 3 {
		return WheelPlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "malformed manylinux tag"), "tag", tag)
	}
	major, errMajor := strconv.Atoi(parts[0])
	minor, errMinor := strconv.Atoi(parts[1])
	if errMajor != nil || errMinor != nil {
		return WheelPlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "malformed glibc version"), "tag", tag)
	}

	arches, err := linuxArches(parts[2])
	if err != nil {
		return WheelPlatformTag{}, zerr.With(err, "tag", tag)
	}
	return WheelPlatformTag{
		Raw:          tag,
		OS:           OSLinux,
		Arches:       arches,
		MinOSVersion: &OSVersion{Major: major, Minor: minor},
	}, nil
}

func parseMacOSTag(tag string) (WheelPlatformTag, error) {
	parts := strings.SplitN(strings.TrimPrefix(tag, "macosx_"), "_", 3)
	if len(parts) != 3 {
		return WheelPlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "malformed macosx tag"), "tag", tag)
	}
	major, errMajor := strconv.Atoi(parts[0])
	minor, errMinor := strconv.Atoi(parts[1])
	if errMajor != nil || errMinor != nil {
		return WheelPlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "malformed macos version"), "tag", tag)
	}

	arches, err := macOSArches(parts[2])
	if err != nil {
		return WheelPlatformTag{}, zerr.With(err, "tag", tag)
	}
	return WheelPlatformTag{
		Raw:          tag,
		OS:           OSMacOS,
		Arches:       arches,
		MinOSVersion: &OSVersion{Major: major, Minor: minor},
	}, nil
}

func parseWindowsTag(tag string) (WheelPlatformTag, error) {
	var arches []Arch
	switch tag {
	case "win_amd64":
		arches = []Arch{ArchX64}
	case "win32":
		// 32-bit wheels still load on 64-bit Windows Python builds
		// that publish them; treated as x64-capable.
		arches = []Arch{ArchX64}
	case "win_arm64":
		arches = []Arch{ArchArm64}
	default:
		return WheelPlatformTag{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "unknown windows tag"), "tag", tag)
	}
	return WheelPlatformTag{Raw: tag, OS: OSWindows, Arches: arches}, nil
}

func linuxArches(s string) ([]Arch, error) {
	switch s {
	case "x86_64":
		return []Arch{ArchX64}, nil
	case "aarch64", "arm64", "armv7l":
		return []Arch{ArchArm64}, nil
	}
	return nil, zerr.Wrap(ErrUnrecognizedTag, "unknown linux architecture")
}

func macOSArches(s string) ([]Arch, error) {
	switch s {
	case "x86_64", "intel", "fat3", "fat64", "universal":
		return []Arch{ArchX64}, nil
	case "arm64":
		return []Arch{ArchArm64}, nil
	case "universal2":
		return []Arch{ArchX64, ArchArm64}, nil
	}
	return nil, zerr.Wrap(ErrUnrecognizedTag, "unknown macos architecture")
}

// IsCompatible reports whether a wheel carrying this tag can run on the
// target platform. OS and arch must match exactly; when both the wheel
// and the target declare a minimum OS version, the target's configured
// minimum must be at least the wheel's.
func (w WheelPlatformTag) IsCompatible(target PlatformTag) bool {
	if w.Any {
		return true
	}
	if w.OS != target.OS || !slices.Contains(w.Arches, target.Arch) {
		return false
	}
	if w.MinOSVersion == nil || target.MinOSVersion == nil {
		return true
	}
	return target.MinOSVersion.AtLeast(*w.MinOSVersion)
}

// BestTagFor picks, among compatible tags, the one with the newest
// minimum OS version still admitted by the target. A newer baseline
// carries the highest compatibility confidence for that target.
// Returns false when no tag is compatible.
func BestTagFor(tags []WheelPlatformTag, target PlatformTag) (WheelPlatformTag, bool) {
	var best WheelPlatformTag
	found := false
	for _, tag := range tags {
		if !tag.IsCompatible(target) {
			continue
		}
		if !found {
			best, found = tag, true
			continue
		}
		switch {
		case best.MinOSVersion == nil && tag.MinOSVersion != nil:
			best = tag
		case best.MinOSVersion != nil && tag.MinOSVersion != nil &&
			tag.MinOSVersion.Compare(*best.MinOSVersion) > 0:
			best = tag
		}
	}
	return best, found
}
