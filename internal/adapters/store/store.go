// Package store implements the durable, checksummed cache store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.PersistentStore on top of one JSON file per domain.
// Mutations only touch memory and mark the domain dirty; Save writes dirty
// domains with write-then-rename, so a crash keeps the previous generation.
type Store struct {
	cfg domain.Config
	log ports.Logger

	mu      sync.Mutex
	records map[domain.StoreDomain]map[string]domain.StoreRecord
	dirty   map[domain.StoreDomain]bool
	rawSize map[domain.StoreDomain]int64
	// held maps domains whose file is at another format version to that
	// version. Their files are left untouched until migrated or cleared.
	held    map[domain.StoreDomain]string
	persist bool
	closed  bool

	lastSave   time.Time
	lastLoad   time.Time
	saveCount  int
	loadCount  int
	errorCount int

	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

var _ ports.PersistentStore = (*Store)(nil)

// New creates a store rooted at cfg.CacheDir. Call Initialize before use.
func New(cfg domain.Config, log ports.Logger) *Store {
	s := &Store{
		cfg:     cfg,
		log:     log,
		dirty:   make(map[domain.StoreDomain]bool),
		rawSize: make(map[domain.StoreDomain]int64),
		held:    make(map[domain.StoreDomain]string),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.resetLocked()
	return s
}

// Dir returns the cache root directory.
func (s *Store) Dir() string {
	return s.cfg.CacheDir
}

// CompressionEnabled reports whether files are written gzip-compressed.
func (s *Store) CompressionEnabled() bool {
	return s.cfg.CompressionEnabled
}

// Initialize creates the cache directory, loads existing files and starts the
// auto-save timer. It never fails: problems are logged and the affected
// domain starts empty.
func (s *Store) Initialize(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.cfg.CacheDir, domain.DirPerm); err != nil {
		s.persist = false
		s.errorCount++
		s.log.Warn(fmt.Sprintf("cache directory %s is not usable, continuing without persistence: %v", s.cfg.CacheDir, err))
		return
	}
	s.persist = true
	s.loadLocked()

	if s.cfg.AutoSave && s.cfg.SaveInterval > 0 && !s.started {
		s.started = true
		go s.autoSave(s.cfg.SaveInterval)
	}
}

// Reload discards the in-memory view and loads the files again.
func (s *Store) Reload(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}
	s.resetLocked()
	if s.persist {
		s.loadLocked()
	}
	return nil
}

// SaveSymbolTable records table as the symbols of uri.
func (s *Store) SaveSymbolTable(table *domain.SymbolTable, uri string) error {
	if table == nil || uri == "" {
		return zerr.With(domain.ErrInvalidCacheEntry, "uri", uri)
	}
	return s.put(domain.StoreRecord{Domain: domain.DomainSymbols, Key: uri, Symbols: table})
}

// LoadSymbolTable returns the table recorded for uri, if any.
func (s *Store) LoadSymbolTable(uri string) (*domain.SymbolTable, bool) {
	rec, ok := s.get(domain.DomainSymbols, uri)
	if !ok {
		return nil, false
	}
	return rec.Symbols, true
}

// SaveCachedImport records entry under key.
func (s *Store) SaveCachedImport(key string, entry *domain.CachedImport) error {
	if entry == nil || key == "" || entry.ResolvedURI == "" {
		return zerr.With(domain.ErrInvalidCacheEntry, "key", key)
	}
	return s.put(domain.StoreRecord{Domain: domain.DomainImports, Key: key, Import: entry})
}

// LoadCachedImport returns the entry recorded under key, if any.
func (s *Store) LoadCachedImport(key string) (*domain.CachedImport, bool) {
	rec, ok := s.get(domain.DomainImports, key)
	if !ok {
		return nil, false
	}
	return rec.Import, true
}

// SaveImportCache replaces the whole import domain and writes it.
func (s *Store) SaveImportCache(entries map[string]*domain.CachedImport) error {
	now := time.Now()
	next := make(map[string]domain.StoreRecord, len(entries))
	for key, entry := range entries {
		if entry == nil || key == "" || entry.ResolvedURI == "" {
			return zerr.With(domain.ErrInvalidCacheEntry, "key", key)
		}
		next[key] = domain.StoreRecord{Domain: domain.DomainImports, Key: key, WrittenAt: now, Import: entry}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}
	s.records[domain.DomainImports] = next
	s.dirty[domain.DomainImports] = true
	return s.saveLocked([]domain.StoreDomain{domain.DomainImports})
}

// LoadImportCache returns a copy of the import domain, or false when empty.
func (s *Store) LoadImportCache() (map[string]*domain.CachedImport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.records[domain.DomainImports]
	if len(recs) == 0 {
		return nil, false
	}
	out := make(map[string]*domain.CachedImport, len(recs))
	for key, rec := range recs {
		out[key] = rec.Import
	}
	return out, true
}

// InvalidateEntries removes every record matching pred. pred runs under the
// store lock and must not call back into the store.
func (s *Store) InvalidateEntries(pred func(key string, rec domain.StoreRecord) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, d := range domain.StoreDomains() {
		for key, rec := range s.records[d] {
			if pred(key, rec) {
				delete(s.records[d], key)
				s.dirty[d] = true
				removed++
			}
		}
	}
	return removed
}

// InvalidateOlderThan removes every record written before t.
func (s *Store) InvalidateOlderThan(t time.Time) int {
	return s.InvalidateEntries(func(_ string, rec domain.StoreRecord) bool {
		return rec.WrittenAt.Before(t)
	})
}

// InvalidateByURI removes every record identified by uri or depending on it.
func (s *Store) InvalidateByURI(uri string) int {
	return s.InvalidateEntries(func(_ string, rec domain.StoreRecord) bool {
		return rec.References(uri)
	})
}

// Records returns a snapshot of every live record ordered by domain and key.
func (s *Store) Records() []domain.StoreRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.StoreRecord
	for _, d := range domain.StoreDomains() {
		for _, key := range slices.Sorted(maps.Keys(s.records[d])) {
			out = append(out, s.records[d][key])
		}
	}
	return out
}

// Stats summarizes the store.
func (s *Store) Stats() domain.StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var onDisk, raw int64
	for _, name := range domain.CacheFiles() {
		if info, err := os.Stat(filepath.Join(s.cfg.CacheDir, name)); err == nil {
			onDisk += info.Size()
		}
	}
	for _, n := range s.rawSize {
		raw += n
	}

	ratio := 1.0
	if raw > 0 && onDisk > 0 {
		ratio = float64(onDisk) / float64(raw)
	}

	total := 0
	for _, recs := range s.records {
		total += len(recs)
	}

	return domain.StoreStats{
		TotalEntries:     total,
		TotalSize:        onDisk,
		RawSize:          raw,
		CompressionRatio: ratio,
		LastSave:         s.lastSave,
		LastLoad:         s.lastLoad,
		SaveCount:        s.saveCount,
		LoadCount:        s.loadCount,
		ErrorCount:       s.errorCount,
		Compression:      s.cfg.CompressionEnabled,
	}
}

// Save writes every domain changed since the last save.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}
	var pending []domain.StoreDomain
	for _, d := range domain.StoreDomains() {
		if s.dirty[d] {
			pending = append(pending, d)
		}
	}
	return s.saveLocked(pending)
}

// SaveAll rewrites every domain, reapplying the configured compression.
func (s *Store) SaveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}
	return s.saveLocked(domain.StoreDomains())
}

// Clear removes every record and cache file. Backups and history are kept.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}
	s.resetLocked()

	var errs []error
	for _, name := range domain.CacheFiles() {
		if err := os.Remove(filepath.Join(s.cfg.CacheDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "file", name))
		}
	}
	return errors.Join(errs...)
}

// Close flushes pending changes and stops the auto-save timer.
// It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	started := s.started
	s.mu.Unlock()

	if started {
		s.stopOnce.Do(func() {
			close(s.stop)
			<-s.done
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []domain.StoreDomain
	for _, d := range domain.StoreDomains() {
		if s.dirty[d] {
			pending = append(pending, d)
		}
	}
	err := s.saveLocked(pending)
	s.closed = true
	return err
}

func (s *Store) autoSave(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.Save(); err != nil {
				s.log.Error(err)
			}
		}
	}
}

func (s *Store) put(rec domain.StoreRecord) error {
	rec.WrittenAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}
	s.records[rec.Domain][rec.Key] = rec
	s.dirty[rec.Domain] = true
	return nil
}

func (s *Store) get(d domain.StoreDomain, key string) (domain.StoreRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[d][key]
	return rec, ok
}

func (s *Store) resetLocked() {
	s.records = make(map[domain.StoreDomain]map[string]domain.StoreRecord, 2)
	for _, d := range domain.StoreDomains() {
		s.records[d] = make(map[string]domain.StoreRecord)
		s.dirty[d] = false
		s.rawSize[d] = 0
		delete(s.held, d)
	}
}

func (s *Store) saveLocked(domains []domain.StoreDomain) error {
	if !s.persist || len(domains) == 0 {
		return nil
	}

	var errs []error
	for _, d := range domains {
		if version, ok := s.held[d]; ok {
			s.log.Warn(fmt.Sprintf(
				"not writing the %s cache over a file at format %q; run `wdlcache migrate` first",
				d, version,
			))
			continue
		}
		if err := s.writeDomainLocked(d); err != nil {
			s.errorCount++
			errs = append(errs, zerr.With(err, "domain", string(d)))
			continue
		}
		s.dirty[d] = false
	}

	s.saveCount++
	s.lastSave = time.Now()
	return errors.Join(errs...)
}

func (s *Store) writeDomainLocked(d domain.StoreDomain) error {
	recs := s.records[d]
	file := domain.StoreFile{
		Metadata: domain.StoreMetadata{
			FormatVersion:   domain.CurrentFormatVersion,
			WrittenAt:       time.Now(),
			CompressionKind: domain.CompressionNone,
		},
		Entries: make([]domain.PersistedEntry, 0, len(recs)),
	}

	for _, key := range slices.Sorted(maps.Keys(recs)) {
		rec := recs[key]
		payload, err := encodeRecord(rec)
		if err != nil {
			return zerr.With(err, "key", key)
		}
		file.Entries = append(file.Entries, domain.PersistedEntry{
			Key:       key,
			Payload:   payload,
			WrittenAt: rec.WrittenAt,
			Checksum:  Checksum(payload),
		})
		file.Metadata.TotalBytes += int64(len(payload))
	}
	file.Metadata.EntryCount = len(file.Entries)
	file.Metadata.Checksum = HeaderChecksum(file.Entries)

	name, stale := d.FileName(), d.FileName()+domain.GzipSuffix
	if s.cfg.CompressionEnabled {
		name, stale = stale, name
		file.Metadata.CompressionKind = domain.CompressionGzip
	}

	raw, err := json.Marshal(file)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	if err := WriteCacheFile(filepath.Join(s.cfg.CacheDir, name), raw); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.cfg.CacheDir, stale)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn(fmt.Sprintf("failed to remove stale cache file %s: %v", stale, err))
	}

	s.rawSize[d] = int64(len(raw))
	return nil
}

func (s *Store) loadLocked() {
	for _, d := range domain.StoreDomains() {
		s.loadDomainLocked(d)
	}
	s.loadCount++
	s.lastLoad = time.Now()
}

func (s *Store) loadDomainLocked(d domain.StoreDomain) {
	path, raw, err := s.readDomainFile(d)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		s.errorCount++
		s.log.Warn(fmt.Sprintf("cache file %s is unreadable, starting with an empty %s cache: %v", path, d, err))
		return
	}

	if version := FormatVersion(raw); version != "" && version != domain.CurrentFormatVersion {
		s.held[d] = version
		s.log.Warn(fmt.Sprintf(
			"cache file %s has format %q, expected %s; run `wdlcache migrate` to upgrade it",
			path, version, domain.CurrentFormatVersion,
		))
		return
	}

	var file domain.StoreFile
	if err := json.Unmarshal(raw, &file); err != nil {
		s.errorCount++
		s.log.Warn(fmt.Sprintf("cache file %s is malformed, starting with an empty %s cache: %v", path, d, err))
		return
	}

	if s.cfg.ChecksumValidation && HeaderChecksum(file.Entries) != file.Metadata.Checksum {
		s.errorCount++
		s.log.Warn(fmt.Sprintf("cache file %s has an inconsistent header checksum", path))
	}

	for _, e := range file.Entries {
		if s.cfg.ChecksumValidation && Checksum(e.Payload) != e.Checksum {
			s.errorCount++
			s.log.Warn(fmt.Sprintf("skipping corrupted %s entry %s: %s", d, e.Key, domain.ErrChecksumMismatch))
			continue
		}
		rec, err := decodeRecord(d, e)
		if err != nil {
			s.errorCount++
			s.log.Warn(fmt.Sprintf("skipping undecodable %s entry %s: %v", d, e.Key, err))
			continue
		}
		s.records[d][e.Key] = rec
	}
	s.rawSize[d] = int64(len(raw))
}

// readDomainFile reads the configured file variant of d, falling back to the other one.
func (s *Store) readDomainFile(d domain.StoreDomain) (string, []byte, error) {
	for _, path := range s.domainPaths(d) {
		raw, err := ReadCacheFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return path, nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}
		return path, raw, nil
	}
	return "", nil, fs.ErrNotExist
}

func (s *Store) domainPaths(d domain.StoreDomain) []string {
	plain := filepath.Join(s.cfg.CacheDir, d.FileName())
	compressed := plain + domain.GzipSuffix
	if s.cfg.CompressionEnabled {
		return []string{compressed, plain}
	}
	return []string{plain, compressed}
}

func encodeRecord(rec domain.StoreRecord) (json.RawMessage, error) {
	var value any
	switch rec.Domain {
	case domain.DomainSymbols:
		value = rec.Symbols
	default:
		value = rec.Import
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	return payload, nil
}

func decodeRecord(d domain.StoreDomain, e domain.PersistedEntry) (domain.StoreRecord, error) {
	rec := domain.StoreRecord{Domain: d, Key: e.Key, WrittenAt: e.WrittenAt}
	switch d {
	case domain.DomainSymbols:
		var table domain.SymbolTable
		if err := json.Unmarshal(e.Payload, &table); err != nil {
			return rec, zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())
		}
		rec.Symbols = &table
	default:
		var entry domain.CachedImport
		if err := json.Unmarshal(e.Payload, &entry); err != nil {
			return rec, zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())
		}
		rec.Import = &entry
	}
	return rec, nil
}
