package pypi

import (
	"context"
	"sync"

	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// MemoIndex wraps a PackageIndex and memoizes its responses for the
// lifetime of the process. Resolutions for multiple target platforms
// query the same packages repeatedly; each distinct query hits the
// underlying index once, including under concurrency.
type MemoIndex struct {
	next  ports.PackageIndex
	group singleflight.Group

	mu           sync.RWMutex
	versions     map[string][]string
	wheels       map[string][]domain.WheelDescriptor
	requirements map[string][]domain.DependencySpec
}

// NewMemoIndex wraps the given index with memoization.
func NewMemoIndex(next ports.PackageIndex) *MemoIndex {
	return &MemoIndex{
		next:         next,
		versions:     make(map[string][]string),
		wheels:       make(map[string][]domain.WheelDescriptor),
		requirements: make(map[string][]domain.DependencySpec),
	}
}

// Versions returns the published versions of a package, memoized.
func (m *MemoIndex) Versions(ctx context.Context, name string) ([]string, error) {
	key := domain.NormalizeDistName(name)

	m.mu.RLock()
	cached, ok := m.versions[key]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := m.group.Do("versions\x00"+key, func() (any, error) {
		versions, err := m.next.Versions(ctx, name)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.versions[key] = versions
		m.mu.Unlock()
		return versions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// Wheels returns the wheels of a release, memoized.
func (m *MemoIndex) Wheels(ctx context.Context, name, version string) ([]domain.WheelDescriptor, error) {
	key := domain.NormalizeDistName(name) + "\x00" + version

	m.mu.RLock()
	cached, ok := m.wheels[key]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := m.group.Do("wheels\x00"+key, func() (any, error) {
		wheels, err := m.next.Wheels(ctx, name, version)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.wheels[key] = wheels
		m.mu.Unlock()
		return wheels, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.WheelDescriptor), nil
}

// Requirements returns the dependencies of a release, memoized.
func (m *MemoIndex) Requirements(ctx context.Context, name, version string) ([]domain.DependencySpec, error) {
	key := domain.NormalizeDistName(name) + "\x00" + version

	m.mu.RLock()
	cached, ok := m.requirements[key]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := m.group.Do("requirements\x00"+key, func() (any, error) {
		specs, err := m.next.Requirements(ctx, name, version)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.requirements[key] = specs
		m.mu.Unlock()
		return specs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.DependencySpec), nil
}
