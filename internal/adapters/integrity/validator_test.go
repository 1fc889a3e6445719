package integrity_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wdlcache/internal/adapters/integrity"
	"go.trai.ch/wdlcache/internal/adapters/store"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func openStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.CacheDir = dir
	cfg.CompressionEnabled = false
	cfg.AutoSave = false
	s := store.New(cfg, quietLogger(t))
	s.Initialize(t.Context())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// sourceFile creates a WDL file and returns its URI.
func sourceFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("version 1.0\n"), domain.FilePerm))
	return domain.PathToURI(path)
}

func validImport(uri string) *domain.CachedImport {
	return &domain.CachedImport{
		ResolvedURI:  uri,
		OriginalPath: filepath.Base(uri),
		SourceMTime:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Dependencies: []string{uri},
		CachedAt:     time.Date(2026, 1, 2, 3, 5, 0, 0, time.UTC),
	}
}

func TestValidateCache_Clean(t *testing.T) {
	work := t.TempDir()
	s := openStore(t, filepath.Join(work, domain.CacheDirName))

	a := sourceFile(t, work, "a.wdl")
	table := domain.NewSymbolTable(a)
	table.Tasks["align"] = domain.TaskSymbol{Name: "align", URI: a}
	require.NoError(t, s.SaveSymbolTable(table, a))
	require.NoError(t, s.SaveCachedImport(a, validImport(a)))
	require.NoError(t, s.Save())

	result := integrity.NewValidator(s, quietLogger(t)).ValidateCache(t.Context())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, domain.ValidationStats{TotalEntries: 2, ValidEntries: 2}, result.Stats)
}

func TestValidateCache_MissingDirectoryIsWarning(t *testing.T) {
	dir := filepath.Join(t.TempDir(), domain.CacheDirName)
	s := openStore(t, dir)
	require.NoError(t, os.RemoveAll(dir))

	result := integrity.NewValidator(s, quietLogger(t)).ValidateCache(t.Context())

	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "does not exist")
}

func TestValidateCache_StructuralProblems(t *testing.T) {
	work := t.TempDir()
	s := openStore(t, filepath.Join(work, domain.CacheDirName))
	a := sourceFile(t, work, "a.wdl")

	noSelf := validImport(a)
	noSelf.Dependencies = []string{"file:///other.wdl"}
	require.NoError(t, s.SaveCachedImport("no-self", noSelf))

	noTime := validImport(a)
	noTime.CachedAt = time.Time{}
	require.NoError(t, s.SaveCachedImport("no-time", noTime))

	misfiled := domain.NewSymbolTable(a)
	misfiled.Tasks["align"] = domain.TaskSymbol{Name: "sort", URI: a}
	require.NoError(t, s.SaveSymbolTable(misfiled, a))

	result := integrity.NewValidator(s, quietLogger(t)).ValidateCache(t.Context())

	assert.False(t, result.IsValid)
	assert.Equal(t, 3, result.Stats.TotalEntries)
	assert.Equal(t, 3, result.Stats.InvalidEntries)
	assert.Equal(t, 0, result.Stats.ValidEntries)
	assert.Len(t, result.Errors, 3)
}

func TestValidateCache_MissingSourceFile(t *testing.T) {
	work := t.TempDir()
	s := openStore(t, filepath.Join(work, domain.CacheDirName))

	gone := domain.PathToURI(filepath.Join(work, "gone.wdl"))
	require.NoError(t, s.SaveCachedImport(gone, validImport(gone)))

	result := integrity.NewValidator(s, quietLogger(t)).ValidateCache(t.Context())

	assert.True(t, result.IsValid)
	assert.Equal(t, 1, result.Stats.MissingFiles)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no longer exists")
}

func corruptSymbols(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, domain.SymbolsCacheFile)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var file domain.StoreFile
	require.NoError(t, json.Unmarshal(raw, &file))
	require.NotEmpty(t, file.Entries)
	file.Entries[0].Payload = json.RawMessage(`{"uri":"file:///tampered.wdl"}`)

	raw, err = json.Marshal(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, domain.FilePerm))
}

func TestRepairCache_DropsCorruptedAndInvalid(t *testing.T) {
	work := t.TempDir()
	dir := filepath.Join(work, domain.CacheDirName)
	a := sourceFile(t, work, "a.wdl")
	b := sourceFile(t, work, "b.wdl")

	seed := openStore(t, dir)
	require.NoError(t, seed.SaveSymbolTable(domain.NewSymbolTable(a), a))
	require.NoError(t, seed.SaveSymbolTable(domain.NewSymbolTable(b), b))
	require.NoError(t, seed.Close())
	corruptSymbols(t, dir)

	s := openStore(t, dir)
	broken := validImport(b)
	broken.CachedAt = time.Time{}
	require.NoError(t, s.SaveCachedImport(b, broken))

	v := integrity.NewValidator(s, quietLogger(t))
	before := v.ValidateCache(t.Context())
	require.False(t, before.IsValid)
	assert.Equal(t, 1, before.Stats.CorruptedEntries)
	assert.Equal(t, 1, before.Stats.InvalidEntries)
	assert.Equal(t, 3, before.Stats.TotalEntries)

	repaired := v.RepairCache(t.Context())
	assert.Equal(t, 1, repaired.Repaired)
	assert.Equal(t, 1, repaired.Removed)
	assert.Empty(t, repaired.Errors)

	after := v.ValidateCache(t.Context())
	assert.True(t, after.IsValid)
	assert.Equal(t, 1, after.Stats.TotalEntries)
	assert.True(t, s.VerifyCacheIntegrity().IsValid)
}

func TestRepairCache_NothingToDo(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), domain.CacheDirName))

	repaired := integrity.NewValidator(s, quietLogger(t)).RepairCache(t.Context())

	assert.Equal(t, domain.RepairResult{Errors: []string{}}, repaired)
}

func TestOptimizeCache_DropsExpiredEntries(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		work := t.TempDir()
		cfg := domain.DefaultConfig()
		cfg.CacheDir = filepath.Join(work, domain.CacheDirName)
		cfg.AutoSave = false
		s := store.New(cfg, quietLogger(t))
		s.Initialize(t.Context())
		defer func() { _ = s.Close() }()

		a := sourceFile(t, work, "a.wdl")
		b := sourceFile(t, work, "b.wdl")
		require.NoError(t, s.SaveCachedImport(a, validImport(a)))
		require.NoError(t, s.Save())

		time.Sleep(domain.RetentionWindow + time.Hour)
		require.NoError(t, s.SaveCachedImport(b, validImport(b)))

		result, err := integrity.NewValidator(s, quietLogger(t)).OptimizeCache(t.Context())
		require.NoError(t, err)

		assert.Equal(t, 1, result.RemovedEntries)
		assert.Positive(t, result.SizeBefore)
		assert.Positive(t, result.SizeAfter)
		_, ok := s.LoadCachedImport(a)
		assert.False(t, ok)
		_, ok = s.LoadCachedImport(b)
		assert.True(t, ok)
	})
}
