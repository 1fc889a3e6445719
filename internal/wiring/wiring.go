// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/wdlcache/internal/adapters/config"
	_ "go.trai.ch/wdlcache/internal/adapters/integrity"
	_ "go.trai.ch/wdlcache/internal/adapters/logger"
	_ "go.trai.ch/wdlcache/internal/adapters/migration"
	_ "go.trai.ch/wdlcache/internal/adapters/store"
	_ "go.trai.ch/wdlcache/internal/adapters/telemetry"
	_ "go.trai.ch/wdlcache/internal/adapters/watcher"
	_ "go.trai.ch/wdlcache/internal/adapters/wdl"
	// Register app and engine nodes.
	_ "go.trai.ch/wdlcache/internal/app"
	_ "go.trai.ch/wdlcache/internal/engine/resolver"
	_ "go.trai.ch/wdlcache/internal/engine/symbols"
)
