// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/bext/internal/adapters/archive"
	_ "go.trai.ch/bext/internal/adapters/cas"
	_ "go.trai.ch/bext/internal/adapters/config"
	_ "go.trai.ch/bext/internal/adapters/logger"
	_ "go.trai.ch/bext/internal/adapters/pypi"
	_ "go.trai.ch/bext/internal/adapters/refdata"
	_ "go.trai.ch/bext/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/bext/internal/app"
	_ "go.trai.ch/bext/internal/engine/fetch"
	_ "go.trai.ch/bext/internal/engine/resolver"
)
