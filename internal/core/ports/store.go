package ports

import (
	"context"
	"time"

	"go.trai.ch/wdlcache/internal/core/domain"
)

// SymbolStore persists per-document symbol tables.
type SymbolStore interface {
	// SaveSymbolTable records table as the symbols of uri.
	SaveSymbolTable(table *domain.SymbolTable, uri string) error
	// LoadSymbolTable returns the table recorded for uri, if any.
	LoadSymbolTable(uri string) (*domain.SymbolTable, bool)
	// InvalidateByURI removes every entry identified by uri or depending on it.
	InvalidateByURI(uri string) int
}

// PersistentStore is the durable cache shared by the resolver, the symbol
// provider and the operational tooling.
type PersistentStore interface {
	SymbolStore
	ImportStore

	// Dir returns the cache root directory.
	Dir() string
	// CompressionEnabled reports whether files are written gzip-compressed.
	CompressionEnabled() bool

	// Initialize loads existing cache files. Failures leave the affected
	// domain empty and are only logged.
	Initialize(ctx context.Context)
	// Reload discards the in-memory view and loads the files again.
	Reload(ctx context.Context) error

	// SaveImportCache replaces the whole import domain and writes it.
	SaveImportCache(entries map[string]*domain.CachedImport) error
	// LoadImportCache returns a copy of the import domain, or false when empty.
	LoadImportCache() (map[string]*domain.CachedImport, bool)

	// InvalidateEntries removes every record matching pred.
	InvalidateEntries(pred func(key string, rec domain.StoreRecord) bool) int
	// InvalidateOlderThan removes every record written before t.
	InvalidateOlderThan(t time.Time) int
	// Records returns a snapshot of every live record.
	Records() []domain.StoreRecord

	// VerifyCacheIntegrity recomputes the checksum of every persisted entry.
	VerifyCacheIntegrity() domain.IntegrityResult
	// Stats summarizes the store.
	Stats() domain.StoreStats

	// CreateBackup copies the cache files into a new labelled backup directory.
	CreateBackup(label string) (string, error)
	// RestoreFromBackup replaces the cache files with the backup at path and reloads.
	RestoreFromBackup(path string) error

	// Save writes every domain changed since the last save.
	Save() error
	// SaveAll rewrites every domain.
	SaveAll() error
	// Clear removes every record and cache file.
	Clear() error
	// Close flushes pending changes and stops background work.
	Close() error
}
