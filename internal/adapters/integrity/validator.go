// Package integrity validates, repairs and reports on the persistent cache.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
)

// Validator checks the persistent store against its structural invariants.
type Validator struct {
	store ports.PersistentStore
	log   ports.Logger
	now   func() time.Time
}

// NewValidator creates a Validator over store.
func NewValidator(store ports.PersistentStore, log ports.Logger) *Validator {
	return &Validator{store: store, log: log, now: time.Now}
}

// ValidateCache checks the cache directory, verifies every persisted checksum
// and checks every live record.
func (v *Validator) ValidateCache(_ context.Context) domain.ValidationResult {
	result := domain.ValidationResult{Errors: []string{}, Warnings: []string{}}

	v.checkDirectory(&result)

	integrity := v.store.VerifyCacheIntegrity()
	result.Errors = append(result.Errors, integrity.Errors...)
	result.Stats.CorruptedEntries = integrity.CorruptedEntries

	records := v.store.Records()
	live := make(map[domain.EntryRef]struct{}, len(records))
	for _, rec := range records {
		live[domain.EntryRef{Domain: rec.Domain, Key: rec.Key}] = struct{}{}

		if problems := checkRecord(rec); len(problems) > 0 {
			result.Stats.InvalidEntries++
			for _, p := range problems {
				result.Errors = append(result.Errors, fmt.Sprintf("%s entry %s: %s", rec.Domain, rec.Key, p))
			}
			continue
		}
		if path, ok := missingSource(rec); ok {
			result.Stats.MissingFiles++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s entry %s: source file %s no longer exists", rec.Domain, rec.Key, path))
		}
	}

	// Corrupted entries are excluded from reads, so they are usually not live.
	result.Stats.TotalEntries = len(records)
	for _, ref := range integrity.Corrupted {
		if _, ok := live[ref]; !ok {
			result.Stats.TotalEntries++
		}
	}
	result.Stats.ValidEntries = max(0,
		result.Stats.TotalEntries-result.Stats.InvalidEntries-result.Stats.CorruptedEntries)

	result.IsValid = len(result.Errors) == 0 && result.Stats.CorruptedEntries == 0
	return result
}

func (v *Validator) checkDirectory(result *domain.ValidationResult) {
	dir := v.store.Dir()

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Warnings = append(result.Warnings, fmt.Sprintf("cache directory %s does not exist", dir))
		return
	case err != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("cache directory %s is not accessible: %v", dir, err))
		return
	case !info.IsDir():
		result.Errors = append(result.Errors, fmt.Sprintf("cache directory %s is not a directory", dir))
		return
	}

	if _, err := os.ReadDir(dir); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cache directory %s is not readable: %v", dir, err))
	}

	tmp, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cache directory %s is not writable: %v", dir, err))
		return
	}
	_ = tmp.Close()
	_ = os.Remove(tmp.Name())
}

// checkRecord returns the structural problems of rec.
func checkRecord(rec domain.StoreRecord) []string {
	var problems []string

	switch rec.Domain {
	case domain.DomainSymbols:
		t := rec.Symbols
		if t == nil {
			return []string{"missing symbol table"}
		}
		if t.URI == "" {
			problems = append(problems, "empty document uri")
		}
		for name, task := range t.Tasks {
			if task.Name != name {
				problems = append(problems, fmt.Sprintf("task %q is stored under %q", task.Name, name))
			}
		}
		for name, wf := range t.Workflows {
			if wf.Name != name {
				problems = append(problems, fmt.Sprintf("workflow %q is stored under %q", wf.Name, name))
			}
		}
	case domain.DomainImports:
		imp := rec.Import
		if imp == nil {
			return []string{"missing import"}
		}
		if imp.ResolvedURI == "" {
			problems = append(problems, "empty resolved uri")
		} else if !slices.Contains(imp.Dependencies, imp.ResolvedURI) {
			problems = append(problems, "dependency set does not contain the import itself")
		}
		if imp.CachedAt.IsZero() {
			problems = append(problems, "missing cachedAt timestamp")
		}
	default:
		problems = append(problems, "unknown domain")
	}
	return problems
}

// missingSource reports the source path of rec when it no longer exists.
func missingSource(rec domain.StoreRecord) (string, bool) {
	uri := rec.Key
	switch {
	case rec.Symbols != nil:
		uri = rec.Symbols.URI
	case rec.Import != nil:
		uri = rec.Import.ResolvedURI
	}

	path, err := domain.URIToPath(uri)
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return path, true
	}
	return "", false
}

// RepairCache removes structurally invalid records and rewrites the store so
// entries failing checksum verification are dropped from disk. Failures are
// reported in the result.
func (v *Validator) RepairCache(_ context.Context) domain.RepairResult {
	result := domain.RepairResult{Errors: []string{}}

	invalid := make(map[domain.EntryRef]struct{})
	for _, rec := range v.store.Records() {
		if len(checkRecord(rec)) > 0 {
			invalid[domain.EntryRef{Domain: rec.Domain, Key: rec.Key}] = struct{}{}
		}
	}
	result.Removed = v.store.InvalidateEntries(func(key string, rec domain.StoreRecord) bool {
		_, ok := invalid[domain.EntryRef{Domain: rec.Domain, Key: key}]
		return ok
	})

	integrity := v.store.VerifyCacheIntegrity()
	corrupted := make(map[domain.EntryRef]struct{}, len(integrity.Corrupted))
	for _, ref := range integrity.Corrupted {
		corrupted[ref] = struct{}{}
	}
	v.store.InvalidateEntries(func(key string, rec domain.StoreRecord) bool {
		_, ok := corrupted[domain.EntryRef{Domain: rec.Domain, Key: key}]
		return ok
	})
	result.Repaired = len(corrupted)

	if result.Removed > 0 || result.Repaired > 0 {
		if err := v.store.SaveAll(); err != nil {
			v.log.Error(err)
			result.Errors = append(result.Errors, err.Error())
		}
	}

	if after := v.store.VerifyCacheIntegrity(); after.CorruptedEntries > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%d corrupted entries remain after repair", after.CorruptedEntries))
	}

	v.log.Info(fmt.Sprintf("repaired cache: %d corrupted dropped, %d invalid removed", result.Repaired, result.Removed))
	return result
}

// OptimizeCache drops records older than the retention window and rewrites
// every cache file.
func (v *Validator) OptimizeCache(_ context.Context) (domain.OptimizeResult, error) {
	result := domain.OptimizeResult{SizeBefore: v.store.Stats().TotalSize}

	result.RemovedEntries = v.store.InvalidateOlderThan(v.now().Add(-domain.RetentionWindow))
	if err := v.store.SaveAll(); err != nil {
		return result, err
	}

	result.SizeAfter = v.store.Stats().TotalSize
	return result, nil
}
