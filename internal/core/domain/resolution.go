package domain

import (
	"sort"

	"go.trai.ch/zerr"
)

// ResolvedDependency is one package pinned to a concrete version for
// one target triple, together with the wheel selected for it. Packages
// bundled by Blender never appear here.
type ResolvedDependency struct {
	Name    string
	Version string
	Wheel   WheelDescriptor
}

// Resolution is the outcome of resolving one (Blender version,
// platform) pair: the complete, consistent set of wheels to vendor.
// Computed fresh per target matrix and discarded after packing.
type Resolution struct {
	Blender  BlenderVersion
	Platform PlatformTag
	Packages []ResolvedDependency
}

// Sort orders packages by name for deterministic output.
func (r *Resolution) Sort() {
	sort.Slice(r.Packages, func(i, j int) bool {
		return r.Packages[i].Name < r.Packages[j].Name
	})
}

// TotalSize is the summed byte size of all selected wheels.
func (r Resolution) TotalSize() int64 {
	var total int64
	for _, pkg := range r.Packages {
		total += pkg.Wheel.Size
	}
	return total
}

// PackageFor returns the resolved entry for a normalized package name.
func (r Resolution) PackageFor(name string) (ResolvedDependency, error) {
	for _, pkg := range r.Packages {
		if pkg.Name == name {
			return pkg, nil
		}
	}
	err := zerr.With(zerr.New("package not in resolution"), "package", name)
	err = zerr.With(err, "blender", r.Blender.Version)
	return ResolvedDependency{}, zerr.With(err, "platform", r.Platform.Key())
}
