package domain

import "time"

// MemoryConfig bounds the in-memory cache layer.
type MemoryConfig struct {
	MaxSize         int
	TTL             time.Duration
	MaxMemoryUsage  int64
	CleanupInterval time.Duration
}

// ResolverConfig tunes import resolution.
type ResolverConfig struct {
	MaxDepth int
}

// Config is the effective runtime configuration.
type Config struct {
	CacheDir           string
	CompressionEnabled bool
	ChecksumValidation bool
	AutoSave           bool
	SaveInterval       time.Duration
	Memory             MemoryConfig
	Resolver           ResolverConfig
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		CacheDir:           CacheDirName,
		CompressionEnabled: true,
		ChecksumValidation: true,
		AutoSave:           true,
		SaveInterval:       3 * time.Minute,
		Memory: MemoryConfig{
			MaxSize:         100,
			TTL:             5 * time.Minute,
			MaxMemoryUsage:  50 * 1024 * 1024,
			CleanupInterval: time.Minute,
		},
		Resolver: ResolverConfig{
			MaxDepth: MaxImportDepth,
		},
	}
}
