package domain

import (
	"fmt"
	"sort"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrUnrecognizedTag is returned when wheel metadata carries a tag
	// that cannot be parsed. Such wheels are skipped with a warning.
	ErrUnrecognizedTag = zerr.New("unrecognized wheel tag")

	// ErrReferenceConflict is returned when a project constraint cannot
	// admit the version Blender itself bundles.
	ErrReferenceConflict = zerr.New("constraint conflicts with Blender-bundled package")

	// ErrResolutionConflict is returned when no version of a package
	// satisfies all of its requirers.
	ErrResolutionConflict = zerr.New("dependency resolution conflict")

	// ErrNoCompatibleWheel is returned when a resolved package publishes
	// no wheel usable on a target platform.
	ErrNoCompatibleWheel = zerr.New("no compatible wheel")

	// ErrIntegrity is returned when a downloaded artifact does not match
	// its expected content hash. Never retried against the same source.
	ErrIntegrity = zerr.New("artifact hash mismatch")

	// ErrDownload is returned for transient download failures. Retried
	// with backoff up to the configured budget.
	ErrDownload = zerr.New("wheel download failed")

	// ErrUnknownPackage is returned when the package index has no
	// project under the requested name.
	ErrUnknownPackage = zerr.New("package not found in index")

	// ErrUnsupportedPlatform is returned when a requested platform is
	// not shipped by the targeted Blender version.
	ErrUnsupportedPlatform = zerr.New("platform not supported by Blender version")
)

// ReferenceConflictError reports a project constraint that excludes the
// version pinned by a Blender release. The pinned version can never be
// replaced, so the constraint or the target Blender range must change.
type ReferenceConflictError struct {
	Package    string
	Pinned     string
	Constraint string
	Blender    string
	// Remedy names a Blender version whose pin would satisfy the
	// constraint, when one is known. Empty otherwise.
	Remedy string
}

func (e *ReferenceConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: blender %s bundles %s==%s but the project requires %q",
		ErrReferenceConflict.Error(), e.Blender, e.Package, e.Pinned, e.Constraint)
	if e.Remedy != "" {
		fmt.Fprintf(&b, " (raising the minimum supported Blender version to %s would resolve this)", e.Remedy)
	} else {
		b.WriteString(" (relax the constraint; bundled packages cannot be re-vendored)")
	}
	return b.String()
}

func (e *ReferenceConflictError) Unwrap() error { return ErrReferenceConflict }

// Requirer is one participant in a resolution conflict: who required
// the package, and with what constraint.
type Requirer struct {
	// Name of the requiring package, or "<project>" for direct specs.
	Name string
	// Version of the requiring package, empty for direct specs.
	Version string
	// Constraint the requirer placed on the conflicting package.
	Constraint string
}

func (r Requirer) String() string {
	who := r.Name
	if r.Version != "" {
		who += " " + r.Version
	}
	constraint := r.Constraint
	if constraint == "" {
		constraint = "(any)"
	}
	return who + " requires " + constraint
}

// ResolutionConflictError reports that no published version of Package
// satisfies all accumulated constraints. It always carries at least two
// mutually unsatisfiable requirers so the conflict is reproducible from
// the payload alone.
type ResolutionConflictError struct {
	Package   string
	Requirers []Requirer
}

func (e *ResolutionConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: no version of %s satisfies all requirers:", ErrResolutionConflict.Error(), e.Package)
	for _, r := range e.Requirers {
		b.WriteString("\n  - ")
		b.WriteString(r.String())
	}
	return b.String()
}

func (e *ResolutionConflictError) Unwrap() error { return ErrResolutionConflict }

// NoCompatibleWheelError reports that a resolved package has no wheel
// usable on one target triple. When the only blocker is the target's
// configured OS/libc minimum, MinBump carries the exact minimum that
// would make a known wheel compatible.
type NoCompatibleWheelError struct {
	Package  string
	Version  string
	Blender  string
	Platform PlatformTag
	MinBump  *OSVersion
}

func (e *NoCompatibleWheelError) Error() string {
	msg := fmt.Sprintf("%s: %s %s has no wheel for %s on blender %s",
		ErrNoCompatibleWheel.Error(), e.Package, e.Version, e.Platform.String(), e.Blender)
	if e.MinBump != nil {
		msg += fmt.Sprintf(" (raise the %s minimum to %s to admit a published wheel)",
			osMinimumName(e.Platform.OS), e.MinBump.String())
	}
	return msg
}

func (e *NoCompatibleWheelError) Unwrap() error { return ErrNoCompatibleWheel }

func osMinimumName(os OS) string {
	if os == OSLinux {
		return "glibc"
	}
	return string(os)
}

// TripleError ties a failure to the (Blender version, platform) pair it
// occurred for, so one broken target does not hide the others.
type TripleError struct {
	Blender  string
	Platform PlatformTag
	Err      error
}

func (e *TripleError) Error() string {
	return fmt.Sprintf("[blender %s, %s] %v", e.Blender, e.Platform.Key(), e.Err)
}

func (e *TripleError) Unwrap() error { return e.Err }

// SortTripleErrors orders collected per-triple failures for stable,
// reproducible reporting.
func SortTripleErrors(errs []*TripleError) {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Blender != errs[j].Blender {
			return errs[i].Blender < errs[j].Blender
		}
		return errs[i].Platform.Key() < errs[j].Platform.Key()
	})
}
