// Package migration upgrades the on-disk cache format between versions.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/wdlcache/internal/adapters/store"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// NoStepsWarning is reported when a migration has nothing to do.
const NoStepsWarning = "no migration steps required"

// Engine applies migration steps to the files of a persistent store.
type Engine struct {
	store ports.PersistentStore
	log   ports.Logger
	steps []Step
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithSteps replaces the built-in step table.
func WithSteps(steps ...Step) Option {
	return func(e *Engine) {
		e.steps = sortSteps(steps)
	}
}

// NewEngine creates an Engine operating on the files of s.
func NewEngine(s ports.PersistentStore, log ports.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		log:   log,
		steps: sortSteps(DefaultSteps()),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Steps describes every known step in application order.
func (e *Engine) Steps() []domain.MigrationStepInfo {
	out := make([]domain.MigrationStepInfo, 0, len(e.steps))
	for _, s := range e.steps {
		out = append(out, s.Info)
	}
	return out
}

// ValidateMigration rejects malformed versions and downgrades.
func (e *Engine) ValidateMigration(from, to string) error {
	if err := domain.ValidateVersion(from); err != nil {
		return err
	}
	if err := domain.ValidateVersion(to); err != nil {
		return err
	}
	if domain.CompareVersions(from, to) > 0 {
		return zerr.With(zerr.With(domain.ErrDowngradeRejected, "from", from), "to", to)
	}
	return nil
}

// GetMigrationSteps returns the steps whose source version lies in [from, to),
// in order. When any step applies, the steps must chain from from to to
// without gaps.
func (e *Engine) GetMigrationSteps(from, to string) ([]Step, error) {
	if err := e.ValidateMigration(from, to); err != nil {
		return nil, err
	}

	var selected []Step
	for _, s := range e.steps {
		if domain.CompareVersions(s.Info.From, from) >= 0 && domain.CompareVersions(s.Info.From, to) < 0 {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return nil, nil
	}

	at := from
	for _, s := range selected {
		if s.Info.From != at {
			break
		}
		at = s.Info.To
	}
	if at != to {
		return nil, zerr.With(zerr.With(domain.ErrNoMigrationPath, "from", from), "to", to)
	}
	return selected, nil
}

// CurrentVersion reports the format version of the cache files on disk.
// It returns false when there are no cache files.
func (e *Engine) CurrentVersion() (string, bool, error) {
	var found string
	for _, name := range domain.CacheFiles() {
		raw, err := store.ReadCacheFile(filepath.Join(e.store.Dir(), name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", false, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "file", name)
		}

		version, err := DetectVersion(raw)
		if err != nil {
			return "", false, zerr.With(err, "file", name)
		}
		if found != "" && found != version {
			return "", false, zerr.With(zerr.With(domain.ErrVersionMismatch, "want", found), "got", version)
		}
		found = version
	}
	return found, found != "", nil
}

// Migrate upgrades every cache file from one format version to another.
// A backup is taken first and restored when a step fails.
func (e *Engine) Migrate(ctx context.Context, from, to string) (domain.MigrationResult, error) {
	result := domain.MigrationResult{
		From:         from,
		To:           to,
		AppliedSteps: []domain.MigrationStepInfo{},
		Warnings:     []string{},
		Errors:       []string{},
	}

	steps, err := e.GetMigrationSteps(from, to)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}
	if len(steps) == 0 {
		result.Success = true
		result.Warnings = append(result.Warnings, NoStepsWarning)
		return result, nil
	}

	record := domain.MigrationRecord{
		ID:        e.newID(),
		From:      from,
		To:        to,
		Steps:     []string{},
		StartedAt: e.now().UTC(),
	}

	backup, err := e.store.CreateBackup(fmt.Sprintf("migration-%s-to-%s", from, to))
	if err != nil {
		return e.fail(&result, &record, err)
	}
	result.BackupPath = backup

	for _, step := range steps {
		if err := e.applyStep(step); err != nil {
			stepErr := zerr.With(zerr.Wrap(err, domain.ErrMigrationStepFailed.Error()), "step", step.Info.From+" -> "+step.Info.To)
			if restoreErr := e.store.RestoreFromBackup(backup); restoreErr != nil {
				e.log.Warn("migration failed and the backup could not be restored, the cache is left partially migrated")
				return e.fail(&result, &record, errors.Join(stepErr, restoreErr))
			}
			return e.fail(&result, &record, stepErr)
		}

		result.AppliedSteps = append(result.AppliedSteps, step.Info)
		record.Steps = append(record.Steps, step.Info.From+" -> "+step.Info.To)
		e.log.Info(fmt.Sprintf("migrated cache from %s to %s", step.Info.From, step.Info.To))
	}

	if err := e.store.Reload(ctx); err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}

	result.Success = true
	record.Success = true
	record.CompletedAt = e.now().UTC()
	e.record(&result, record)
	return result, nil
}

func (e *Engine) applyStep(step Step) error {
	for _, name := range domain.CacheFiles() {
		path := filepath.Join(e.store.Dir(), name)

		raw, err := store.ReadCacheFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "file", name)
		}

		out, err := step.Apply(raw, File{Name: name, Compressed: store.IsCompressed(path)})
		if err != nil {
			return zerr.With(err, "file", name)
		}
		if err := store.WriteCacheFile(path, out); err != nil {
			return zerr.With(err, "file", name)
		}
	}
	return nil
}

func (e *Engine) fail(result *domain.MigrationResult, record *domain.MigrationRecord, err error) (domain.MigrationResult, error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, inner := range joined.Unwrap() {
			result.Errors = append(result.Errors, inner.Error())
		}
	} else {
		result.Errors = append(result.Errors, err.Error())
	}

	record.Error = err.Error()
	record.CompletedAt = e.now().UTC()
	e.record(result, *record)
	return *result, err
}

func (e *Engine) record(result *domain.MigrationResult, record domain.MigrationRecord) {
	if err := e.appendHistory(record); err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
}
