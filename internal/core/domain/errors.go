package domain

import "go.trai.ch/zerr"

var (
	// ErrImportNotFound is returned when an import path cannot be resolved to a file.
	ErrImportNotFound = zerr.New("import not found")

	// ErrCircularDependency is returned when an import chain revisits a file.
	ErrCircularDependency = zerr.New("circular dependency detected")

	// ErrMaxDepthExceeded is returned when an import chain is nested deeper than allowed.
	ErrMaxDepthExceeded = zerr.New("maximum import depth exceeded")

	// ErrRemoteImport is returned for http(s) imports, which are not fetched.
	ErrRemoteImport = zerr.New("remote imports are not supported")

	// ErrInvalidURI is returned when a document URI cannot be interpreted.
	ErrInvalidURI = zerr.New("invalid document uri")

	// ErrFileReadFailed is returned when a source document cannot be read.
	ErrFileReadFailed = zerr.New("failed to read source file")

	// ErrParseFailed is returned when a source document cannot be parsed.
	ErrParseFailed = zerr.New("failed to parse source file")

	// ErrStoreCreateFailed is returned when the cache directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create cache directory")

	// ErrStoreReadFailed is returned when a cache file cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cache file")

	// ErrStoreWriteFailed is returned when a cache file cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write cache file")

	// ErrStoreMarshalFailed is returned when cache content cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal cache content")

	// ErrStoreUnmarshalFailed is returned when cache content cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal cache content")

	// ErrStoreClosed is returned when the store is used after Close.
	ErrStoreClosed = zerr.New("cache store is closed")

	// ErrInvalidCacheEntry is returned when an entry handed to the store is structurally invalid.
	ErrInvalidCacheEntry = zerr.New("invalid cache entry")

	// ErrChecksumMismatch is returned when a persisted entry fails checksum verification.
	ErrChecksumMismatch = zerr.New("checksum mismatch")

	// ErrUnsupportedFormat is returned when a cache file carries an unknown format version.
	ErrUnsupportedFormat = zerr.New("unsupported cache format version")

	// ErrDecompressFailed is returned when a gzip cache file cannot be decompressed.
	ErrDecompressFailed = zerr.New("failed to decompress cache file")

	// ErrCompressFailed is returned when cache content cannot be compressed.
	ErrCompressFailed = zerr.New("failed to compress cache file")

	// ErrBackupFailed is returned when a backup cannot be created.
	ErrBackupFailed = zerr.New("failed to create cache backup")

	// ErrBackupNotFound is returned when a backup directory does not exist.
	ErrBackupNotFound = zerr.New("cache backup not found")

	// ErrRestoreFailed is returned when a backup cannot be restored.
	ErrRestoreFailed = zerr.New("failed to restore cache backup")

	// ErrInvalidVersion is returned when a version string is not major.minor.patch.
	ErrInvalidVersion = zerr.New("invalid version, expected major.minor.patch")

	// ErrDowngradeRejected is returned when a migration targets an older version.
	ErrDowngradeRejected = zerr.New("downgrade migrations are not supported")

	// ErrNoMigrationPath is returned when the step table cannot reach the target version.
	ErrNoMigrationPath = zerr.New("no contiguous migration path")

	// ErrMigrationStepFailed is returned when a migration step cannot transform a cache file.
	ErrMigrationStepFailed = zerr.New("migration step failed")

	// ErrVersionMismatch is returned when a document is not at the version a step expects.
	ErrVersionMismatch = zerr.New("cache document is not at the expected version")

	// ErrInvalidSchema is returned when a cache document fails structural validation.
	ErrInvalidSchema = zerr.New("cache document failed schema validation")

	// ErrHistoryWriteFailed is returned when the migration history cannot be persisted.
	ErrHistoryWriteFailed = zerr.New("failed to write migration history")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigEnvFailed is returned when environment overrides cannot be applied.
	ErrConfigEnvFailed = zerr.New("failed to apply environment overrides")

	// ErrConfigInvalid is returned when the resulting configuration fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start file watcher")

	// ErrImportsUnresolved is returned when a document has imports that could not be resolved.
	ErrImportsUnresolved = zerr.New("one or more imports could not be resolved")

	// ErrCacheInvalid is returned when cache validation finds errors.
	ErrCacheInvalid = zerr.New("cache validation failed")

	// ErrRepairIncomplete is returned when a repair could not fix every problem.
	ErrRepairIncomplete = zerr.New("cache repair finished with errors")
)
