package domain

import (
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

var reSHA256 = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

// IsValidSHA256 reports whether s is a "sha256:<hex>" content hash.
func IsValidSHA256(s string) bool {
	return reSHA256.MatchString(s)
}

// NormalizeDistName canonicalizes a distribution name per PEP 503:
// lowercase, with runs of "-", "_" and "." collapsed to a single "-".
func NormalizeDistName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevSep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			if !prevSep {
				b.WriteByte('-')
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}

// WheelDescriptor describes one published wheel build: identity parsed
// from the filename, plus size, content hash and source URL reported by
// the index. Immutable once constructed.
type WheelDescriptor struct {
	Filename string
	Name     string // normalized distribution name
	Version  string
	Build    string // optional build tag, rarely present

	PythonTags   []string
	ABITags      []string
	PlatformTags []WheelPlatformTag

	Size int64
	Hash string // "sha256:<hex>"
	URL  string
}

// ParseWheelDescriptor parses a wheel filename of the form
// name-version(-build)?-pytag-abitag-platformtag.whl, where each tag
// component may be a compressed set joined by ".". Unknown platform tag
// families make the whole wheel unrecognized; callers skip it with a
// warning rather than failing the build.
func ParseWheelDescriptor(filename, url, hash string, size int64) (WheelDescriptor, error) {
	stem, ok := strings.CutSuffix(filename, ".whl")
	if !ok {
		return WheelDescriptor{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "not a wheel filename"), "filename", filename)
	}
	if hash != "" && !IsValidSHA256(hash) {
		return WheelDescriptor{}, zerr.With(zerr.New("malformed sha256 hash"), "filename", filename)
	}

	parts := strings.Split(stem, "-")
	if len(parts) < 5 || len(parts) > 6 {
		return WheelDescriptor{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "malformed wheel filename"), "filename", filename)
	}

	desc := WheelDescriptor{
		Filename: filename,
		Name:     NormalizeDistName(parts[0]),
		Version:  parts[1],
		Size:     size,
		Hash:     hash,
		URL:      url,
	}

	tagStart := 2
	if len(parts) == 6 {
		desc.Build = parts[2]
		if len(desc.Build) == 0 || desc.Build[0] < '0' || desc.Build[0] > '9' {
			return WheelDescriptor{}, zerr.With(zerr.Wrap(ErrUnrecognizedTag, "malformed build tag"), "filename", filename)
		}
		tagStart = 3
	}

	desc.PythonTags = strings.Split(parts[tagStart], ".")
	desc.ABITags = strings.Split(parts[tagStart+1], ".")

	for _, raw := range strings.Split(parts[tagStart+2], ".") {
		tag, err := NormalizePlatformTag(raw)
		if err != nil {
			return WheelDescriptor{}, zerr.With(err, "filename", filename)
		}
		desc.PlatformTags = append(desc.PlatformTags, tag)
	}

	return desc, nil
}

// SupportsAnyPlatform reports whether this is a pure-Python wheel
// tagged "any".
func (w WheelDescriptor) SupportsAnyPlatform() bool {
	for _, tag := range w.PlatformTags {
		if tag.Any {
			return true
		}
	}
	return false
}

// SupportsPlatform reports whether at least one of the wheel's platform
// tags is compatible with the target.
func (w WheelDescriptor) SupportsPlatform(target PlatformTag) bool {
	for _, tag := range w.PlatformTags {
		if tag.IsCompatible(target) {
			return true
		}
	}
	return false
}

// MinOSVersionFor returns the smallest minimum OS version among the
// wheel's tags for the given OS, or nil when the wheel declares none.
// The smallest minimum is the wheel's true baseline: any tag admits the
// wheel, so the least demanding one governs.
func (w WheelDescriptor) MinOSVersionFor(os OS) *OSVersion {
	var min *OSVersion
	for _, tag := range w.PlatformTags {
		if tag.OS != os || tag.MinOSVersion == nil {
			continue
		}
		if min == nil || tag.MinOSVersion.Compare(*min) < 0 {
			v := *tag.MinOSVersion
			min = &v
		}
	}
	return min
}

// SupportsPython reports whether the wheel's python/ABI tag pairs admit
// the given runtime tag sets, following the standard compatibility
// rules: a wheel matches when it shares at least one python tag and at
// least one ABI tag with the runtime ("none" and "abi3" act as the
// usual wildcards, supplied by the runtime's valid sets).
func (w WheelDescriptor) SupportsPython(validPythonTags, validABITags []string) bool {
	return intersects(w.PythonTags, validPythonTags) && intersects(w.ABITags, validABITags)
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// pythonTagMinor extracts the minor version from a "cpXY"/"pyXY" tag.
// Returns -1 for tags without a version suffix.
func pythonTagMinor(tag string) int {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(tag, "cp"), "py")
	if len(trimmed) < 2 || !strings.HasPrefix(trimmed, "3") {
		return -1
	}
	minor, err := strconv.Atoi(trimmed[1:])
	if err != nil {
		return -1
	}
	return minor
}
