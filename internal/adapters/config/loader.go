// Package config loads the wdlcache runtime configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WDLCACHE_"

// Loader implements ports.ConfigLoader. Values are layered as defaults, then
// wdlcache.yaml from the working directory, then environment overrides.
type Loader struct {
	// environment replaces the process environment when set.
	environment map[string]string
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithEnvironment returns a loader reading overrides from environment instead
// of the process environment.
func (l *Loader) WithEnvironment(environment map[string]string) *Loader {
	return &Loader{environment: environment}
}

// Load reads the configuration for cwd.
func (l *Loader) Load(cwd string) (domain.Config, error) {
	file := fromDomain(domain.DefaultConfig())

	path := filepath.Join(cwd, domain.ConfigFileName)
	//nolint:gosec // path is the config file of the working directory
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return domain.Config{}, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return domain.Config{}, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
		}
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: l.environment}
	if err := env.ParseWithOptions(&file, opts); err != nil {
		return domain.Config{}, zerr.Wrap(err, domain.ErrConfigEnvFailed.Error())
	}

	if err := file.Validate(); err != nil {
		return domain.Config{}, zerr.Wrap(err, domain.ErrConfigInvalid.Error())
	}

	cfg := file.toDomain()
	if !filepath.IsAbs(cfg.CacheDir) {
		cfg.CacheDir = filepath.Join(cwd, cfg.CacheDir)
	}
	return cfg, nil
}
