package ports

import "go.trai.ch/wdlcache/internal/core/domain"

// ConfigLoader defines the interface for loading the runtime configuration.
type ConfigLoader interface {
	// Load reads the configuration for the given working directory.
	// A missing config file is not an error; defaults and environment
	// overrides still apply.
	Load(cwd string) (domain.Config, error)
}
