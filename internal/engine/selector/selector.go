// Package selector picks, for one resolved package version, the single
// wheel to vendor for each target platform. Selection is deterministic:
// identical inputs always yield the identical wheel.
package selector

import (
	"slices"
	"sort"

	"go.trai.ch/bext/internal/core/domain"
)

// Select chooses the wheel to vendor for one package version on one
// target. Candidates are narrowed to wheels whose python/ABI tags admit
// the release's runtime and whose platform tags are compatible with the
// target; ties break by smallest size, then content hash, then
// filename. When nothing survives, the returned NoCompatibleWheelError
// carries the minimum OS version bump that would admit a published
// wheel, if the configured minimum was the only blocker.
func Select(blender domain.BlenderVersion, target domain.PlatformTag, name, version string, wheels []domain.WheelDescriptor) (domain.WheelDescriptor, error) {
	validPy := blender.ValidPythonTags()
	validABI := blender.ValidABITags()

	runnable := make([]domain.WheelDescriptor, 0, len(wheels))
	for _, wheel := range wheels {
		if wheel.SupportsPython(validPy, validABI) {
			runnable = append(runnable, wheel)
		}
	}

	candidates := make([]domain.WheelDescriptor, 0, len(runnable))
	for _, wheel := range runnable {
		if wheel.SupportsPlatform(target) {
			candidates = append(candidates, wheel)
		}
	}

	if len(candidates) == 0 {
		return domain.WheelDescriptor{}, &domain.NoCompatibleWheelError{
			Package:  name,
			Version:  version,
			Blender:  blender.Version,
			Platform: target,
			MinBump:  minimumBump(runnable, target),
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		if a.Hash != b.Hash {
			return a.Hash < b.Hash
		}
		return a.Filename < b.Filename
	})
	return candidates[0], nil
}

// minimumBump finds the smallest minimum OS version that would make one
// of the runtime-compatible wheels usable on the target. Returns nil
// when no wheel matches the target's OS and arch at all, in which case
// no minimum bump can help.
func minimumBump(runnable []domain.WheelDescriptor, target domain.PlatformTag) *domain.OSVersion {
	if target.MinOSVersion == nil {
		return nil
	}
	var bump *domain.OSVersion
	for _, wheel := range runnable {
		for _, tag := range wheel.PlatformTags {
			if tag.OS != target.OS || !slices.Contains(tag.Arches, target.Arch) {
				continue
			}
			if tag.MinOSVersion == nil || target.MinOSVersion.AtLeast(*tag.MinOSVersion) {
				continue
			}
			if bump == nil || tag.MinOSVersion.Compare(*bump) < 0 {
				v := *tag.MinOSVersion
				bump = &v
			}
		}
	}
	return bump
}
