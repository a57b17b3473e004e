package domain

import (
	"fmt"
	"strings"
)

// ReferencePin is one package a Blender release bundles in its Python
// environment. Pinned packages must never be re-vendored and their
// versions are hard resolution constraints.
type ReferencePin struct {
	Name    string
	Version string
	// Platforms restricts availability to the named platform keys.
	// Empty means the pin ships on every platform of the release.
	Platforms []string
}

// AvailableOn reports whether the pinned package ships on the platform.
func (p ReferencePin) AvailableOn(platform PlatformTag) bool {
	if len(p.Platforms) == 0 {
		return true
	}
	for _, key := range p.Platforms {
		if key == platform.Key() {
			return true
		}
	}
	return false
}

// BlenderVersion describes one supported Blender release: its bundled
// Python runtime, the platforms it ships on, the default OS minimums of
// its official builds, and its reference set of bundled packages.
// Loaded once from embedded data and never mutated.
type BlenderVersion struct {
	Version       string
	PythonVersion string // full interpreter version, e.g. "3.11.9"
	PyTag         string // interpreter tag, e.g. "cp311"

	MinGlibc OSVersion
	MinMacOS OSVersion

	Platforms []PlatformTag

	// Vendored maps normalized package names to their pins.
	Vendored map[string]ReferencePin
}

// PinFor looks up the reference pin for a normalized package name.
func (b BlenderVersion) PinFor(name string) (ReferencePin, bool) {
	pin, ok := b.Vendored[name]
	return pin, ok
}

// SupportsPlatform reports whether the release ships on the platform.
func (b BlenderVersion) SupportsPlatform(platform PlatformTag) bool {
	for _, p := range b.Platforms {
		if p.OS == platform.OS && p.Arch == platform.Arch {
			return true
		}
	}
	return false
}

// TargetFor completes a requested platform with its effective minimum
// OS version: the project override when present, otherwise the default
// of the official Blender build for that OS. Windows targets carry no
// minimum.
func (b BlenderVersion) TargetFor(platform PlatformTag, minGlibc, minMacOS *OSVersion) PlatformTag {
	switch platform.OS {
	case OSLinux:
		if minGlibc != nil {
			return platform.WithMinOSVersion(*minGlibc)
		}
		return platform.WithMinOSVersion(b.MinGlibc)
	case OSMacOS:
		if minMacOS != nil {
			return platform.WithMinOSVersion(*minMacOS)
		}
		return platform.WithMinOSVersion(b.MinMacOS)
	default:
		platform.MinOSVersion = nil
		return platform
	}
}

// ValidPythonTags returns the interpreter tags this release's runtime
// accepts: the generic "py3" and versioned tags, the exact interpreter
// tag, and every older CPython tag (admitted for abi3 wheels; the ABI
// set rejects their version-specific builds).
func (b BlenderVersion) ValidPythonTags() []string {
	minor := pythonTagMinor(b.PyTag)
	if minor < 0 {
		return []string{"py3", b.PyTag}
	}
	tags := []string{"py3", fmt.Sprintf("py3%d", minor), b.PyTag}
	for m := 2; m < minor; m++ {
		tags = append(tags, fmt.Sprintf("cp3%d", m))
	}
	return tags
}

// ValidABITags returns the ABI tags this release's runtime accepts:
// the exact CPython ABI, the stable "abi3", and "none" for pure-Python
// wheels.
func (b BlenderVersion) ValidABITags() []string {
	return []string{b.PyTag, "abi3", "none"}
}

// MarkerEnvFor builds the PEP 508 marker environment describing this
// release's runtime on the given platform.
func (b BlenderVersion) MarkerEnvFor(platform PlatformTag) MarkerEnv {
	env := MarkerEnv{
		PythonFullVersion:  b.PythonVersion,
		ImplementationName: "cpython",
	}
	if major, rest, ok := strings.Cut(b.PythonVersion, "."); ok {
		minor, _, _ := strings.Cut(rest, ".")
		env.PythonVersion = major + "." + minor
	} else {
		env.PythonVersion = b.PythonVersion
	}

	switch platform.OS {
	case OSLinux:
		env.OSName = "posix"
		env.SysPlatform = "linux"
		env.PlatformSystem = "Linux"
	case OSMacOS:
		env.OSName = "posix"
		env.SysPlatform = "darwin"
		env.PlatformSystem = "Darwin"
	case OSWindows:
		env.OSName = "nt"
		env.SysPlatform = "win32"
		env.PlatformSystem = "Windows"
	}

	switch {
	case platform.OS == OSLinux && platform.Arch == ArchX64:
		env.PlatformMachines = []string{"x86_64"}
	case platform.OS == OSLinux && platform.Arch == ArchArm64:
		env.PlatformMachines = []string{"aarch64", "arm64"}
	case platform.OS == OSMacOS && platform.Arch == ArchX64:
		env.PlatformMachines = []string{"x86_64"}
	case platform.OS == OSMacOS && platform.Arch == ArchArm64:
		env.PlatformMachines = []string{"arm64"}
	case platform.OS == OSWindows && platform.Arch == ArchX64:
		env.PlatformMachines = []string{"AMD64"}
	case platform.OS == OSWindows && platform.Arch == ArchArm64:
		env.PlatformMachines = []string{"ARM64"}
	}

	return env
}
