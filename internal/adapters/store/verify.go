package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"go.trai.ch/wdlcache/internal/core/domain"
)

// VerifyCacheIntegrity re-reads every cache file and recomputes each entry
// checksum. Mismatches are reported, never repaired here.
func (s *Store) VerifyCacheIntegrity() domain.IntegrityResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result domain.IntegrityResult
	for _, d := range domain.StoreDomains() {
		s.verifyDomainLocked(d, &result)
	}
	result.IsValid = len(result.Errors) == 0 && result.CorruptedEntries == 0
	return result
}

func (s *Store) verifyDomainLocked(d domain.StoreDomain, result *domain.IntegrityResult) {
	path, raw, err := s.readDomainFile(d)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		return
	}

	var file domain.StoreFile
	if err := json.Unmarshal(raw, &file); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s: %v", path, domain.ErrStoreUnmarshalFailed, err))
		return
	}
	if file.Metadata.FormatVersion != domain.CurrentFormatVersion {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s %q", path, domain.ErrUnsupportedFormat, file.Metadata.FormatVersion))
		return
	}
	if HeaderChecksum(file.Entries) != file.Metadata.Checksum {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: header %s", path, domain.ErrChecksumMismatch))
	}

	for _, e := range file.Entries {
		result.TotalEntries++

		var reason string
		if Checksum(e.Payload) != e.Checksum {
			reason = domain.ErrChecksumMismatch.Error()
		} else if _, err := decodeRecord(d, e); err != nil {
			reason = err.Error()
		}
		if reason == "" {
			continue
		}

		result.CorruptedEntries++
		result.Corrupted = append(result.Corrupted, domain.EntryRef{Domain: d, Key: e.Key})
		result.Errors = append(result.Errors, fmt.Sprintf("%s entry %s: %s", d, e.Key, reason))
	}
}
