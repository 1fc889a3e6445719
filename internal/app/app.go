// Package app implements the application layer for wdlcache.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/wdlcache/internal/adapters/integrity"
	"go.trai.ch/wdlcache/internal/adapters/migration"
	"go.trai.ch/wdlcache/internal/adapters/telemetry"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
	"go.trai.ch/wdlcache/internal/engine/resolver"
	"go.trai.ch/wdlcache/internal/engine/symbols"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	logger     ports.Logger
	store      ports.PersistentStore
	resolver   *resolver.Resolver
	symbols    *symbols.Provider
	validator  *integrity.Validator
	migrations *migration.Engine
	watcher    ports.Watcher
	recorder   *telemetry.Recorder
	out        io.Writer
}

// New creates a new App instance.
func New(
	log ports.Logger,
	store ports.PersistentStore,
	res *resolver.Resolver,
	sym *symbols.Provider,
	validator *integrity.Validator,
	migrations *migration.Engine,
	watcher ports.Watcher,
	recorder *telemetry.Recorder,
) *App {
	return &App{
		logger:     log,
		store:      store,
		resolver:   res,
		symbols:    sym,
		validator:  validator,
		migrations: migrations,
		watcher:    watcher,
		recorder:   recorder,
		out:        os.Stdout,
	}
}

// WithOutput redirects command output to w.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// Resolve resolves every import of the document at path and prints the result.
func (a *App) Resolve(ctx context.Context, path string) error {
	uri, err := documentURI(path)
	if err != nil {
		return err
	}

	results := a.resolver.ResolveDocument(ctx, uri)
	a.resolver.Wait()
	if err := writeImports(a.out, uri, results); err != nil {
		return err
	}

	for _, res := range results {
		if !res.Success {
			return domain.ErrImportsUnresolved
		}
	}
	return nil
}

// Analyze prints the symbol table of the document at path.
func (a *App) Analyze(ctx context.Context, path string) error {
	uri, err := documentURI(path)
	if err != nil {
		return err
	}

	table, err := a.symbols.Analyze(ctx, uri)
	if err != nil {
		return err
	}
	return writeSymbols(a.out, table)
}

// Validate checks the cache and fails when it is not valid.
func (a *App) Validate(ctx context.Context) error {
	result := a.validator.ValidateCache(ctx)
	if err := writeValidation(a.out, result); err != nil {
		return err
	}
	if !result.IsValid {
		return domain.ErrCacheInvalid
	}
	return nil
}

// Repair drops corrupted and invalid entries.
func (a *App) Repair(ctx context.Context) error {
	result := a.validator.RepairCache(ctx)
	if _, err := fmt.Fprintf(a.out, "repaired %d, removed %d entries\n", result.Repaired, result.Removed); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return zerr.With(domain.ErrRepairIncomplete, "errors", len(result.Errors))
	}
	return nil
}

// Health prints the cache health report.
func (a *App) Health(ctx context.Context) error {
	return integrity.WriteReport(a.out, a.validator.GenerateHealthReport(ctx))
}

// Optimize drops entries past the retention window and rewrites the cache files.
func (a *App) Optimize(ctx context.Context) error {
	result, err := a.validator.OptimizeCache(ctx)
	if err != nil {
		return err
	}
	return writeOptimize(a.out, result)
}

// Migrate brings the cache files to version to.
func (a *App) Migrate(ctx context.Context, to string) error {
	from, found, err := a.migrations.CurrentVersion()
	if err != nil {
		return err
	}
	if !found {
		a.logger.Info("no cache files found, nothing to migrate")
		return nil
	}

	result, err := a.migrations.Migrate(ctx, from, to)
	if writeErr := writeMigration(a.out, result); writeErr != nil {
		return errors.Join(err, writeErr)
	}
	return err
}

// MigrationHistory prints the recorded migrations, newest last.
func (a *App) MigrationHistory(_ context.Context) error {
	history, err := a.migrations.History()
	if err != nil {
		return err
	}
	return writeHistory(a.out, history)
}

// Backup copies the cache files into a new labelled backup.
func (a *App) Backup(_ context.Context, label string) error {
	path, err := a.store.CreateBackup(label)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, path)
	return err
}

// Restore replaces the cache files with a backup. A bare name is looked up
// in the backups directory of the cache.
func (a *App) Restore(_ context.Context, backup string) error {
	path := backup
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(domain.BackupsPath(a.store.Dir()), backup)
		}
	}
	if err := a.store.RestoreFromBackup(path); err != nil {
		return err
	}
	a.logger.Info("restored cache from " + path)
	return nil
}

// Stats prints persistent and in-memory cache statistics.
func (a *App) Stats(_ context.Context) error {
	return writeStats(a.out, a.store.Stats(), a.resolver.Cache(), a.symbols.Cache())
}

// Clear removes every cache entry and file.
func (a *App) Clear(_ context.Context) error {
	if err := a.store.Clear(); err != nil {
		return err
	}
	a.logger.Info("cleared cache at " + a.store.Dir())
	return nil
}

// Watch invalidates cached entries as files under root change, until ctx is done.
func (a *App) Watch(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatcherFailed.Error())
	}
	if err := a.watcher.Start(ctx, abs); err != nil {
		return err
	}
	a.logger.Info("watching " + abs)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for ev := range a.watcher.Events() {
			removed := a.resolver.HandleFileChange(ctx, ev) + a.symbols.HandleFileChange(ctx, ev)
			a.logger.Info(fmt.Sprintf("%s %s: %d entries invalidated", ev.Type, ev.URI, removed))
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return a.watcher.Stop()
	})
	return g.Wait()
}

// WriteTrace prints the spans recorded during this run, slowest first.
func (a *App) WriteTrace(w io.Writer) error {
	return writeTrace(w, a.recorder.Spans())
}

// Close waits for pending writes, releases the caches and flushes the store.
func (a *App) Close() error {
	a.resolver.Close()
	a.symbols.Close()
	return a.store.Close()
}

func documentURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrInvalidURI.Error()), "path", path)
	}
	return domain.PathToURI(abs), nil
}
