package ports

import (
	"context"
	"iter"

	"go.trai.ch/wdlcache/internal/core/domain"
)

// Watcher defines the interface for watching source file changes.
type Watcher interface {
	// Start begins watching the given root directory recursively.
	// It returns an error if the watcher fails to start.
	Start(ctx context.Context, root string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of debounced change events.
	Events() iter.Seq[domain.FileChangeEvent]
}
