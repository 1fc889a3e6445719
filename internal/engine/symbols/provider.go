// Package symbols builds and caches per-document symbol tables.
package symbols

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.trai.ch/wdlcache/internal/adapters/memcache"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// SpanName is the name of the span recorded for every analysis.
const SpanName = "symbols.analyze"

// Provider analyzes documents into symbol tables.
type Provider struct {
	parser ports.Parser
	store  ports.SymbolStore
	log    ports.Logger
	tracer ports.Tracer
	cache  *memcache.Cache[*domain.SymbolTable]
}

// New creates a Provider.
func New(parser ports.Parser, store ports.SymbolStore, log ports.Logger, tracer ports.Tracer, opts memcache.Options) *Provider {
	return &Provider{
		parser: parser,
		store:  store,
		log:    log,
		tracer: tracer,
		cache:  memcache.New[*domain.SymbolTable](opts),
	}
}

// Analyze returns the symbol table of the document at uri, rebuilding it when
// the file changed since the cached table was built.
func (p *Provider) Analyze(ctx context.Context, uri string) (*domain.SymbolTable, error) {
	_, span := p.tracer.Start(ctx, SpanName, ports.WithAttribute("document.uri", uri))
	defer span.End()

	table, cached, err := p.analyze(uri)
	span.SetAttribute("symbols.cached", cached)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("symbols.tasks", len(table.Tasks))
	return table, nil
}

func (p *Provider) analyze(uri string) (*domain.SymbolTable, bool, error) {
	path, err := domain.URIToPath(uri)
	if err != nil {
		return nil, false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "uri", uri)
	}
	mtime := info.ModTime()

	if table, ok := p.cache.Get(uri); ok {
		if table.FreshFor(uri, mtime) {
			return table, true, nil
		}
		p.cache.Delete(uri)
	}
	if table, ok := p.store.LoadSymbolTable(uri); ok {
		if table.FreshFor(uri, mtime) {
			p.cache.Set(uri, table)
			return table, true, nil
		}
		p.store.InvalidateByURI(uri)
	}

	//nolint:gosec // uri names a workspace document
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "uri", uri)
	}
	doc, err := p.parser.Parse(uri, content)
	if err != nil {
		return nil, false, err
	}

	table := Build(uri, doc, mtime)
	p.cache.Set(uri, table)
	if err := p.store.SaveSymbolTable(table, uri); err != nil {
		p.log.Warn(fmt.Sprintf("failed to persist symbols of %s: %v", uri, err))
	}
	return table, false, nil
}

// Build converts a parsed document into a symbol table stamped with mtime.
func Build(uri string, doc *domain.Document, mtime time.Time) *domain.SymbolTable {
	table := domain.NewSymbolTable(uri)
	for _, t := range doc.Tasks {
		table.Tasks[t.Name] = domain.TaskSymbol{
			Name:    t.Name,
			URI:     uri,
			Inputs:  t.Inputs,
			Outputs: t.Outputs,
			Range:   t.Range,
		}
	}
	for _, w := range doc.Workflows {
		table.Workflows[w.Name] = domain.WorkflowSymbol{
			Name:    w.Name,
			URI:     uri,
			Inputs:  w.Inputs,
			Outputs: w.Outputs,
			Calls:   w.Calls,
			Range:   w.Range,
		}
	}
	table.LastModifiedPerFile[uri] = mtime
	return table
}

// HandleFileChange drops every table built from the changed file and returns
// how many entries were removed from both layers.
func (p *Provider) HandleFileChange(_ context.Context, ev domain.FileChangeEvent) int {
	removed := p.cache.Invalidate(func(_ string, table *domain.SymbolTable) bool {
		return table.References(ev.URI)
	})
	removed += p.store.InvalidateByURI(ev.URI)
	return removed
}

// Store returns the persistent symbol store.
func (p *Provider) Store() ports.SymbolStore {
	return p.store
}

// Cache returns statistics of the in-memory layer.
func (p *Provider) Cache() memcache.Stats {
	return p.cache.Stats()
}

// Close releases the in-memory layer.
func (p *Provider) Close() {
	p.cache.Close()
}
