package migration

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"go.trai.ch/wdlcache/internal/adapters/store"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/zerr"
)

// History returns the retained migration records, oldest first.
func (e *Engine) History() ([]domain.MigrationRecord, error) {
	path := domain.MigrationHistoryPath(e.store.Dir())

	//nolint:gosec // path is under the configured cache directory
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.MigrationRecord{}, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var records []domain.MigrationRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "path", path)
	}
	return records, nil
}

func (e *Engine) appendHistory(record domain.MigrationRecord) error {
	records, err := e.History()
	if err != nil {
		// An unreadable history is replaced.
		records = nil
	}

	records = append(records, record)
	if n := len(records); n > domain.MaxMigrationHistory {
		records = records[n-domain.MaxMigrationHistory:]
	}

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	if err := store.WriteFileAtomic(domain.MigrationHistoryPath(e.store.Dir()), raw); err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	return nil
}
