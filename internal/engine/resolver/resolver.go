// Package resolver resolves WDL imports into cached task sets.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/wdlcache/internal/adapters/memcache"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// SpanName is the name of the span recorded for every import hop.
const SpanName = "resolver.resolve_import"

// Options tunes a Resolver. Zero fields take their defaults.
type Options struct {
	MaxDepth int
	Memory   memcache.Options
}

// ImportResult is the outcome of resolving one import.
type ImportResult struct {
	Success   bool
	Import    *domain.CachedImport
	Errors    []string
	FromCache bool
}

// Resolver turns import statements into task sets, backed by an in-memory
// cache in front of the persistent import store.
type Resolver struct {
	parser   ports.Parser
	store    ports.ImportStore
	log      ports.Logger
	tracer   ports.Tracer
	cache    *memcache.Cache[*domain.CachedImport]
	maxDepth int

	group       singleflight.Group
	pending     sync.WaitGroup
	unsubscribe func()
	closeOnce   sync.Once
}

// New creates a Resolver.
func New(parser ports.Parser, store ports.ImportStore, log ports.Logger, tracer ports.Tracer, opts Options) *Resolver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = domain.MaxImportDepth
	}

	r := &Resolver{
		parser:   parser,
		store:    store,
		log:      log,
		tracer:   tracer,
		cache:    memcache.New[*domain.CachedImport](opts.Memory),
		maxDepth: opts.MaxDepth,
	}
	r.unsubscribe = r.cache.Subscribe(func(ev memcache.Event) {
		if ev.Type == memcache.EventEviction && ev.Reason == memcache.ReasonOversize {
			r.log.Warn(fmt.Sprintf("import %s is too large for the memory cache", ev.Key))
		}
	})
	return r
}

// ResolveImport resolves importPath as written in the document fromURI.
// Failures are reported in the result and never as an error value.
func (r *Resolver) ResolveImport(ctx context.Context, importPath, alias, fromURI string) ImportResult {
	key := strings.Join([]string{fromURI, importPath, alias}, "\x00")
	v, _, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, importPath, alias, fromURI, domain.NewDependencySet(fromURI), 1), nil
	})
	//nolint:forcetypeassert // the closure above only returns ImportResult
	return v.(ImportResult)
}

// ResolveDocument resolves every import declared in the document at uri.
func (r *Resolver) ResolveDocument(ctx context.Context, uri string) []ImportResult {
	doc, err := r.load(uri)
	if err != nil {
		return []ImportResult{failure(err.Error())}
	}

	results := make([]ImportResult, 0, len(doc.Imports))
	for _, imp := range doc.Imports {
		results = append(results, r.ResolveImport(ctx, imp.Path, imp.Alias, uri))
	}
	return results
}

// HandleFileChange drops every resolution for the changed file or depending on it
// from both cache layers and returns how many entries were removed.
func (r *Resolver) HandleFileChange(_ context.Context, ev domain.FileChangeEvent) int {
	removed := r.cache.Invalidate(func(_ string, entry *domain.CachedImport) bool {
		return entry.DependsOn(ev.URI)
	})
	removed += r.store.InvalidateByURI(ev.URI)
	if removed > 0 {
		r.log.Info(fmt.Sprintf("invalidated %d import entries after %s %s", removed, ev.URI, ev.Type))
	}
	return removed
}

// Store returns the persistent import store.
func (r *Resolver) Store() ports.ImportStore {
	return r.store
}

// Cache returns statistics of the in-memory layer.
func (r *Resolver) Cache() memcache.Stats {
	return r.cache.Stats()
}

// Wait blocks until every pending write to the persistent store has finished.
func (r *Resolver) Wait() {
	r.pending.Wait()
}

// Close waits for pending writes and releases the in-memory layer.
func (r *Resolver) Close() {
	r.closeOnce.Do(func() {
		r.pending.Wait()
		r.unsubscribe()
		r.cache.Close()
	})
}

func (r *Resolver) resolve(
	ctx context.Context,
	importPath, alias, fromURI string,
	visited domain.DependencySet,
	depth int,
) ImportResult {
	ctx, span := r.tracer.Start(ctx, SpanName,
		ports.WithAttribute("import.path", importPath),
		ports.WithAttribute("import.from", fromURI),
		ports.WithAttribute("import.depth", depth),
	)
	defer span.End()

	res := r.resolveHop(ctx, importPath, alias, fromURI, visited, depth)
	span.SetAttribute("import.cached", res.FromCache)
	if res.Import != nil {
		span.SetAttribute("import.uri", res.Import.ResolvedURI)
	}
	if !res.Success {
		span.RecordError(errors.New(strings.Join(res.Errors, "; ")))
	}
	return res
}

func (r *Resolver) resolveHop(
	ctx context.Context,
	importPath, alias, fromURI string,
	visited domain.DependencySet,
	depth int,
) ImportResult {
	if depth > r.maxDepth {
		return failure(fmt.Sprintf("%s: %d hops reached while importing %s from %s",
			domain.ErrMaxDepthExceeded, r.maxDepth, importPath, fromURI))
	}

	path, uri, msg := r.locate(importPath, fromURI)
	if msg != "" {
		return failure(msg)
	}
	if visited.Contains(uri) {
		return failure(fmt.Sprintf("%s: %s imports %s", domain.ErrCircularDependency, fromURI, uri))
	}

	info, err := os.Stat(path)
	if err != nil {
		return failure(fmt.Sprintf("%s: %s", domain.ErrFileReadFailed, uri))
	}

	key := domain.ImportCacheKey(uri, alias)
	if entry, ok := r.lookup(key, info.ModTime()); ok {
		if depth+entry.Height-1 > r.maxDepth {
			return failure(fmt.Sprintf("%s: %d hops reached while importing %s from %s",
				domain.ErrMaxDepthExceeded, r.maxDepth, importPath, fromURI))
		}
		for _, dep := range entry.Dependencies {
			if visited.Contains(dep) {
				return failure(fmt.Sprintf("%s: %s imports %s", domain.ErrCircularDependency, uri, dep))
			}
		}
		return ImportResult{Success: true, Import: entry, FromCache: true}
	}

	doc, err := r.load(uri)
	if err != nil {
		return failure(err.Error())
	}

	entry := &domain.CachedImport{
		ResolvedURI:  uri,
		OriginalPath: importPath,
		Alias:        alias,
		SourceMTime:  info.ModTime(),
		Height:       1,
	}
	source := domain.NewInternedString(uri)
	for _, task := range doc.Tasks {
		entry.Tasks = append(entry.Tasks, domain.TaskInfo{
			Name:      task.Name,
			BaseName:  task.Name,
			SourceURI: source,
			Inputs:    task.Inputs,
			Outputs:   task.Outputs,
			Range:     task.Range,
		}.Qualified(alias))
	}

	branch := visited.With(uri)
	deps := domain.NewDependencySet(uri)
	for _, imp := range doc.Imports {
		nested := r.resolve(ctx, imp.Path, imp.Alias, uri, branch, depth+1)
		if !nested.Success {
			entry.Errors = append(entry.Errors, nested.Errors...)
			continue
		}
		for _, task := range nested.Import.Tasks {
			entry.Tasks = append(entry.Tasks, task.Qualified(alias))
		}
		for _, dep := range nested.Import.Dependencies {
			deps = deps.With(dep)
		}
		entry.Height = max(entry.Height, nested.Import.Height+1)
	}
	entry.Dependencies = deps.Sorted()
	entry.CachedAt = time.Now()

	if len(entry.Errors) > 0 {
		return ImportResult{Import: entry, Errors: entry.Errors}
	}

	r.cache.Set(key, entry)
	r.pending.Go(func() {
		if err := r.store.SaveCachedImport(key, entry); err != nil {
			r.log.Warn(fmt.Sprintf("failed to persist import %s: %v", key, err))
		}
	})
	return ImportResult{Success: true, Import: entry}
}

// lookup returns a fresh entry for key from memory or the persistent store.
// Stale entries are dropped from the layer they were found in.
func (r *Resolver) lookup(key string, mtime time.Time) (*domain.CachedImport, bool) {
	if entry, ok := r.cache.Get(key); ok {
		if !mtime.After(entry.SourceMTime) {
			return entry, true
		}
		r.cache.Delete(key)
	}

	entry, ok := r.store.LoadCachedImport(key)
	if !ok {
		return nil, false
	}
	if entry.Height > 0 && !mtime.After(entry.SourceMTime) && dependenciesUnchanged(entry) {
		r.cache.Set(key, entry)
		return entry, true
	}
	r.store.InvalidateByURI(entry.ResolvedURI)
	return nil, false
}

func dependenciesUnchanged(entry *domain.CachedImport) bool {
	for _, dep := range entry.Dependencies {
		path, err := domain.URIToPath(dep)
		if err != nil {
			return false
		}
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(entry.CachedAt) {
			return false
		}
	}
	return true
}

// locate maps importPath, relative to the document fromURI, onto an existing file.
// A missing file is retried with the .wdl extension appended.
func (r *Resolver) locate(importPath, fromURI string) (path, uri, msg string) {
	if domain.IsRemote(importPath) {
		return "", "", fmt.Sprintf("%s: %s", domain.ErrRemoteImport, importPath)
	}

	base, err := domain.URIToPath(fromURI)
	if err != nil {
		return "", "", fmt.Sprintf("%s: %s", domain.ErrInvalidURI, fromURI)
	}

	candidate := importPath
	if strings.HasPrefix(importPath, "file://") {
		if candidate, err = domain.URIToPath(importPath); err != nil {
			return "", "", fmt.Sprintf("%s: %s", domain.ErrInvalidURI, importPath)
		}
	}
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(filepath.Dir(base), filepath.FromSlash(candidate))
	}

	for _, p := range []string{candidate, candidate + domain.WDLExtension} {
		if info, statErr := os.Stat(p); statErr == nil && !info.IsDir() {
			return p, domain.PathToURI(p), ""
		}
	}
	return "", "", fmt.Sprintf("%s: %s from %s", domain.ErrImportNotFound, importPath, fromURI)
}

func (r *Resolver) load(uri string) (*domain.Document, error) {
	path, err := domain.URIToPath(uri)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // uri names a workspace document
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileReadFailed, uri)
	}
	doc, err := r.parser.Parse(uri, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrParseFailed, uri)
	}
	return doc, nil
}

func failure(msg string) ImportResult {
	return ImportResult{Errors: []string{msg}}
}
