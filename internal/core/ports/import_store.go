package ports

import "go.trai.ch/wdlcache/internal/core/domain"

// ImportStore persists import resolutions one entry at a time.
//
//go:generate mockgen -source=import_store.go -destination=mocks/mock_import_store.go -package=mocks
type ImportStore interface {
	// SaveCachedImport records entry under key.
	SaveCachedImport(key string, entry *domain.CachedImport) error
	// LoadCachedImport returns the entry recorded under key, if any.
	LoadCachedImport(key string) (*domain.CachedImport, bool)
	// InvalidateByURI removes every entry identified by uri or depending on it.
	InvalidateByURI(uri string) int
}
