package domain

import (
	"path/filepath"
	"time"
)

const (
	// CacheDirName is the default name of the cache root directory.
	CacheDirName = ".wdlcache"

	// SymbolsCacheFile is the file holding persisted symbol tables.
	SymbolsCacheFile = "symbols.cache"

	// ImportsCacheFile is the file holding persisted import resolutions.
	ImportsCacheFile = "imports.cache"

	// GzipSuffix is appended to cache files written with compression enabled.
	GzipSuffix = ".gz"

	// MigrationHistoryFile is the file holding the bounded migration history.
	MigrationHistoryFile = "migration-history.json"

	// BackupsDirName is the directory under the cache root holding backups.
	BackupsDirName = "backups"

	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "wdlcache.yaml"

	// WDLExtension is appended to import paths that do not exist literally.
	WDLExtension = ".wdl"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

const (
	// CurrentFormatVersion is the on-disk cache format written by this build.
	CurrentFormatVersion = "1.1.0"

	// MaxImportDepth bounds the number of import hops followed from a document.
	MaxImportDepth = 10

	// MaxMigrationHistory is the number of migration records retained.
	MaxMigrationHistory = 10

	// RetentionWindow is the age after which OptimizeCache drops entries.
	RetentionWindow = 7 * 24 * time.Hour

	// LargeCacheThreshold is the total persisted size above which health degrades.
	LargeCacheThreshold int64 = 100 * 1024 * 1024

	// PoorCompressionRatio is the compressed/raw ratio above which compression is considered ineffective.
	PoorCompressionRatio = 0.8

	// InvalidEntryRatioThreshold is the invalid/total ratio above which health degrades.
	InvalidEntryRatioThreshold = 0.1
)

// CacheFiles returns every file name the store may write, in a stable order.
func CacheFiles() []string {
	return []string{
		SymbolsCacheFile,
		SymbolsCacheFile + GzipSuffix,
		ImportsCacheFile,
		ImportsCacheFile + GzipSuffix,
	}
}

// BackupsPath returns the backups directory for the given cache root.
func BackupsPath(cacheDir string) string {
	return filepath.Join(cacheDir, BackupsDirName)
}

// MigrationHistoryPath returns the migration history file for the given cache root.
func MigrationHistoryPath(cacheDir string) string {
	return filepath.Join(cacheDir, MigrationHistoryFile)
}
