package migration

import (
	"encoding/json"
	"fmt"
	"time"

	"go.trai.ch/wdlcache/internal/adapters/store"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/zerr"
)

// Format versions of the on-disk cache files.
const (
	Version0_9 = "0.9.0"
	Version1_0 = "1.0.0"
	Version1_1 = "1.1.0"
)

// Schema is one generation of the cache file format.
type Schema interface {
	// FormatVersion returns the version the document declares.
	FormatVersion() string
	// Validate rejects structurally invalid documents.
	Validate() error
}

// V0_9 is the legacy format: a map of entries keyed by cache key, without
// checksums.
type V0_9 struct {
	Version   string               `json:"version"`
	Timestamp time.Time            `json:"timestamp"`
	Entries   map[string]V0_9Entry `json:"entries"`
}

// V0_9Entry is one legacy entry.
type V0_9Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// FormatVersion returns the declared version.
func (v V0_9) FormatVersion() string { return v.Version }

// Validate checks the legacy document.
func (v V0_9) Validate() error {
	if v.Entries == nil {
		return invalid(v.Version, "missing entries")
	}
	for key, e := range v.Entries {
		if key == "" {
			return invalid(v.Version, "empty entry key")
		}
		if !json.Valid(e.Data) {
			return invalid(v.Version, fmt.Sprintf("entry %s has malformed data", key))
		}
	}
	return nil
}

// V1_0Metadata is the header introduced in 1.0.0.
type V1_0Metadata struct {
	FormatVersion string    `json:"formatVersion"`
	WrittenAt     time.Time `json:"writtenAt"`
	EntryCount    int       `json:"entryCount"`
}

// V1_0Entry is one entry of a 1.0.0 document.
type V1_0Entry struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	WrittenAt time.Time       `json:"writtenAt"`
}

// V1_0 has a metadata header and an ordered entry list, without checksums.
type V1_0 struct {
	Metadata V1_0Metadata `json:"metadata"`
	Entries  []V1_0Entry  `json:"entries"`
}

// FormatVersion returns the declared version.
func (v V1_0) FormatVersion() string { return v.Metadata.FormatVersion }

// Validate checks the 1.0.0 document.
func (v V1_0) Validate() error {
	if v.Metadata.EntryCount != len(v.Entries) {
		return invalid(Version1_0, fmt.Sprintf("header counts %d entries, found %d", v.Metadata.EntryCount, len(v.Entries)))
	}
	return validateEntries(Version1_0, len(v.Entries), func(i int) (string, json.RawMessage) {
		return v.Entries[i].Key, v.Entries[i].Payload
	})
}

// V1_1 is the current format written by the store.
type V1_1 domain.StoreFile

// FormatVersion returns the declared version.
func (v V1_1) FormatVersion() string { return v.Metadata.FormatVersion }

// Validate checks the 1.1.0 document including every checksum.
func (v V1_1) Validate() error {
	if v.Metadata.EntryCount != len(v.Entries) {
		return invalid(Version1_1, fmt.Sprintf("header counts %d entries, found %d", v.Metadata.EntryCount, len(v.Entries)))
	}
	if store.HeaderChecksum(v.Entries) != v.Metadata.Checksum {
		return invalid(Version1_1, "header "+domain.ErrChecksumMismatch.Error())
	}
	for _, e := range v.Entries {
		if store.Checksum(e.Payload) != e.Checksum {
			return invalid(Version1_1, fmt.Sprintf("entry %s: %s", e.Key, domain.ErrChecksumMismatch))
		}
	}
	return validateEntries(Version1_1, len(v.Entries), func(i int) (string, json.RawMessage) {
		return v.Entries[i].Key, v.Entries[i].Payload
	})
}

func validateEntries(version string, n int, at func(i int) (string, json.RawMessage)) error {
	seen := make(map[string]struct{}, n)
	for i := range n {
		key, payload := at(i)
		if key == "" {
			return invalid(version, "empty entry key")
		}
		if _, dup := seen[key]; dup {
			return invalid(version, "duplicate entry key "+key)
		}
		seen[key] = struct{}{}
		if !json.Valid(payload) {
			return invalid(version, fmt.Sprintf("entry %s has malformed payload", key))
		}
	}
	return nil
}

func invalid(version, reason string) error {
	return zerr.With(zerr.With(domain.ErrInvalidSchema, "version", version), "reason", reason)
}

// DetectVersion returns the format version declared by a cache document.
func DetectVersion(raw []byte) (string, error) {
	var header struct {
		Version  string `json:"version"`
		Metadata struct {
			FormatVersion string `json:"formatVersion"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return "", zerr.Wrap(err, domain.ErrInvalidSchema.Error())
	}

	version := header.Metadata.FormatVersion
	if version == "" {
		version = header.Version
	}
	if err := domain.ValidateVersion(version); err != nil {
		return "", err
	}
	return version, nil
}
