package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.trai.ch/wdlcache/internal/core/domain"
)

// File is the structure of wdlcache.yaml. Durations are milliseconds.
// Every field can be overridden by a WDLCACHE_* environment variable.
type File struct {
	CacheDir           string      `yaml:"cacheDir" env:"CACHE_DIR"`
	CompressionEnabled bool        `yaml:"compressionEnabled" env:"COMPRESSION_ENABLED"`
	ChecksumValidation bool        `yaml:"checksumValidation" env:"CHECKSUM_VALIDATION"`
	AutoSave           bool        `yaml:"autoSave" env:"AUTO_SAVE"`
	SaveInterval       int64       `yaml:"saveInterval" env:"SAVE_INTERVAL"`
	Memory             MemoryDTO   `yaml:"memory" envPrefix:"MEMORY_"`
	Resolver           ResolverDTO `yaml:"resolver" envPrefix:"RESOLVER_"`
}

// MemoryDTO configures the in-memory cache layer.
type MemoryDTO struct {
	MaxSize         int   `yaml:"maxSize" env:"MAX_SIZE"`
	TTL             int64 `yaml:"ttl" env:"TTL"`
	MaxMemoryUsage  int64 `yaml:"maxMemoryUsage" env:"MAX_MEMORY_USAGE"`
	CleanupInterval int64 `yaml:"cleanupInterval" env:"CLEANUP_INTERVAL"`
}

// ResolverDTO configures import resolution.
type ResolverDTO struct {
	MaxDepth int `yaml:"maxDepth" env:"MAX_DEPTH"`
}

func fromDomain(c domain.Config) File {
	return File{
		CacheDir:           c.CacheDir,
		CompressionEnabled: c.CompressionEnabled,
		ChecksumValidation: c.ChecksumValidation,
		AutoSave:           c.AutoSave,
		SaveInterval:       c.SaveInterval.Milliseconds(),
		Memory: MemoryDTO{
			MaxSize:         c.Memory.MaxSize,
			TTL:             c.Memory.TTL.Milliseconds(),
			MaxMemoryUsage:  c.Memory.MaxMemoryUsage,
			CleanupInterval: c.Memory.CleanupInterval.Milliseconds(),
		},
		Resolver: ResolverDTO{MaxDepth: c.Resolver.MaxDepth},
	}
}

func (f File) toDomain() domain.Config {
	return domain.Config{
		CacheDir:           f.CacheDir,
		CompressionEnabled: f.CompressionEnabled,
		ChecksumValidation: f.ChecksumValidation,
		AutoSave:           f.AutoSave,
		SaveInterval:       millis(f.SaveInterval),
		Memory: domain.MemoryConfig{
			MaxSize:         f.Memory.MaxSize,
			TTL:             millis(f.Memory.TTL),
			MaxMemoryUsage:  f.Memory.MaxMemoryUsage,
			CleanupInterval: millis(f.Memory.CleanupInterval),
		},
		Resolver: domain.ResolverConfig{MaxDepth: f.Resolver.MaxDepth},
	}
}

// Validate checks the ranges of every option. Zero counts and durations are
// rejected.
func (f File) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.CacheDir, validation.Required),
		validation.Field(&f.SaveInterval, validation.Required, validation.Min(int64(1))),
		validation.Field(&f.Memory),
		validation.Field(&f.Resolver),
	)
}

// Validate checks the in-memory cache bounds.
func (m MemoryDTO) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.MaxSize, validation.Required, validation.Min(1)),
		validation.Field(&m.TTL, validation.Required, validation.Min(int64(1))),
		validation.Field(&m.MaxMemoryUsage, validation.Required, validation.Min(int64(1))),
		validation.Field(&m.CleanupInterval, validation.Required, validation.Min(int64(1))),
	)
}

// Validate checks the resolver limits.
func (r ResolverDTO) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxDepth, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

func millis(n int64) time.Duration {
	return time.Duration(n) * time.Millisecond
}
