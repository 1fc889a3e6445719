package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/zerr"
)

const backupTimeLayout = "20060102T150405.000000000Z"

var unsafeLabelChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CreateBackup flushes pending changes and copies every cache file into
// backups/<label>-<timestamp>/ under the cache root.
func (s *Store) CreateBackup(label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", domain.ErrStoreClosed
	}
	if !s.persist {
		return "", zerr.With(domain.ErrBackupFailed, "reason", "persistence is disabled")
	}

	var pending []domain.StoreDomain
	for _, d := range domain.StoreDomains() {
		if s.dirty[d] {
			pending = append(pending, d)
		}
	}
	if err := s.saveLocked(pending); err != nil {
		return "", zerr.Wrap(err, domain.ErrBackupFailed.Error())
	}

	name := sanitizeLabel(label) + "-" + time.Now().UTC().Format(backupTimeLayout)
	dest := filepath.Join(domain.BackupsPath(s.cfg.CacheDir), name)
	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrBackupFailed.Error()), "path", dest)
	}

	for _, file := range domain.CacheFiles() {
		if err := copyIfExists(filepath.Join(s.cfg.CacheDir, file), filepath.Join(dest, file)); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrBackupFailed.Error()), "file", file)
		}
	}

	s.log.Info(fmt.Sprintf("created cache backup %s", dest))
	return dest, nil
}

// RestoreFromBackup replaces the current cache files with the ones in path
// and reloads the in-memory view from them.
func (s *Store) RestoreFromBackup(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return zerr.With(domain.ErrBackupNotFound, "path", path)
	}

	for _, file := range domain.CacheFiles() {
		current := filepath.Join(s.cfg.CacheDir, file)
		if err := os.Remove(current); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, domain.ErrRestoreFailed.Error()), "file", file)
		}
		if err := copyIfExists(filepath.Join(path, file), current); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrRestoreFailed.Error()), "file", file)
		}
	}

	s.resetLocked()
	s.loadLocked()
	s.log.Info(fmt.Sprintf("restored cache from backup %s", path))
	return nil
}

func copyIfExists(src, dst string) error {
	//nolint:gosec // src is a cache or backup file under the configured root
	data, err := os.ReadFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return WriteFileAtomic(dst, data)
}

func sanitizeLabel(label string) string {
	clean := unsafeLabelChars.ReplaceAllString(label, "-")
	if clean == "" || clean == "." || clean == ".." {
		return "backup"
	}
	return clean
}
