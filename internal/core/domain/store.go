package domain

import (
	"encoding/json"
	"time"
)

// StoreDomain names one of the independently serialized cache domains.
type StoreDomain string

const (
	// DomainSymbols holds per-file symbol tables.
	DomainSymbols StoreDomain = "symbols"
	// DomainImports holds import resolutions.
	DomainImports StoreDomain = "imports"
)

// StoreDomains lists every domain in serialization order.
func StoreDomains() []StoreDomain {
	return []StoreDomain{DomainSymbols, DomainImports}
}

// FileName returns the uncompressed cache file name of the domain.
func (d StoreDomain) FileName() string {
	if d == DomainSymbols {
		return SymbolsCacheFile
	}
	return ImportsCacheFile
}

// CompressionKind describes how a cache file is encoded on disk.
type CompressionKind string

const (
	// CompressionNone is plain JSON.
	CompressionNone CompressionKind = "none"
	// CompressionGzip is gzip-compressed JSON.
	CompressionGzip CompressionKind = "gzip"
)

// StoreMetadata is the header of each on-disk cache file.
type StoreMetadata struct {
	FormatVersion   string          `json:"formatVersion"`
	WrittenAt       time.Time       `json:"writtenAt"`
	Checksum        string          `json:"checksum"`
	CompressionKind CompressionKind `json:"compressionKind"`
	EntryCount      int             `json:"entryCount"`
	TotalBytes      int64           `json:"totalBytes"`
}

// PersistedEntry is one entry of an on-disk cache file.
type PersistedEntry struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	WrittenAt time.Time       `json:"writtenAt"`
	Checksum  string          `json:"checksum"`
}

// StoreFile is the on-disk representation of one cache domain.
type StoreFile struct {
	Metadata StoreMetadata    `json:"metadata"`
	Entries  []PersistedEntry `json:"entries"`
}

// StoreRecord is a live entry of the persistent store as seen by predicates.
// Exactly one of Symbols and Import is set, matching Domain.
type StoreRecord struct {
	Domain    StoreDomain
	Key       string
	WrittenAt time.Time
	Symbols   *SymbolTable
	Import    *CachedImport
}

// References reports whether the record is identified by uri or depends on it.
func (r StoreRecord) References(uri string) bool {
	if r.Key == uri {
		return true
	}
	switch {
	case r.Symbols != nil:
		return r.Symbols.References(uri)
	case r.Import != nil:
		return r.Import.DependsOn(uri)
	default:
		return false
	}
}

// StoreStats summarizes the persistent store.
type StoreStats struct {
	TotalEntries int   `json:"totalEntries"`
	TotalSize    int64 `json:"totalSize"`
	RawSize      int64 `json:"rawSize"`
	// CompressionRatio is bytes on disk divided by uncompressed bytes.
	// Lower is better; 1.0 means no reduction.
	CompressionRatio float64   `json:"compressionRatio"`
	LastSave         time.Time `json:"lastSave"`
	LastLoad         time.Time `json:"lastLoad"`
	SaveCount        int       `json:"saveCount"`
	LoadCount        int       `json:"loadCount"`
	ErrorCount       int       `json:"errorCount"`
	Compression      bool      `json:"compression"`
}

// IntegrityResult is the outcome of re-verifying every persisted checksum.
type IntegrityResult struct {
	IsValid          bool       `json:"isValid"`
	Errors           []string   `json:"errors"`
	TotalEntries     int        `json:"totalEntries"`
	CorruptedEntries int        `json:"corruptedEntries"`
	Corrupted        []EntryRef `json:"corrupted,omitempty"`
}

// EntryRef names one persisted entry.
type EntryRef struct {
	Domain StoreDomain `json:"domain"`
	Key    string      `json:"key"`
}
