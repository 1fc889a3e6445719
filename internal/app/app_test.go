package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/wdlcache/internal/adapters/integrity"
	"go.trai.ch/wdlcache/internal/adapters/memcache"
	"go.trai.ch/wdlcache/internal/adapters/migration"
	"go.trai.ch/wdlcache/internal/adapters/store"
	"go.trai.ch/wdlcache/internal/adapters/telemetry"
	"go.trai.ch/wdlcache/internal/adapters/watcher"
	"go.trai.ch/wdlcache/internal/adapters/wdl"
	"go.trai.ch/wdlcache/internal/app"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports/mocks"
	"go.trai.ch/wdlcache/internal/engine/resolver"
	"go.trai.ch/wdlcache/internal/engine/symbols"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	app      *app.App
	out      *bytes.Buffer
	store    *store.Store
	cacheDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	cfg := domain.DefaultConfig()
	cfg.CacheDir = filepath.Join(t.TempDir(), domain.CacheDirName)
	cfg.AutoSave = false

	s := store.New(cfg, log)
	s.Initialize(t.Context())

	rec := telemetry.NewRecorder()
	tracer := telemetry.NewOTelTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	parser := wdl.New()
	w, err := watcher.NewWatcher(log, 10*time.Millisecond)
	require.NoError(t, err)

	a := app.New(
		log,
		s,
		resolver.New(parser, s, log, tracer, resolver.Options{}),
		symbols.New(parser, s, log, tracer, memcache.Options{}),
		integrity.NewValidator(s, log),
		migration.NewEngine(s, log),
		w,
		rec,
	)
	out := new(bytes.Buffer)
	a.WithOutput(out)
	t.Cleanup(func() {
		_ = w.Stop()
		_ = a.Close()
	})
	return &fixture{app: a, out: out, store: s, cacheDir: cfg.CacheDir}
}

func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"lib.wdl":  "version 1.0\n\ntask align {\n  command <<<\n    bwa\n  >>>\n}\n",
		"main.wdl": "version 1.0\n\nimport \"lib.wdl\" as lib\n\nworkflow main {\n  call lib.align\n}\n",
		"bad.wdl":  "version 1.0\n\nimport \"missing.wdl\"\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), domain.FilePerm))
	}
	return dir
}

func TestApp_Resolve(t *testing.T) {
	dir := writeWorkspace(t)
	f := newFixture(t)

	require.NoError(t, f.app.Resolve(t.Context(), filepath.Join(dir, "main.wdl")))
	assert.Contains(t, f.out.String(), "1 imports")
	assert.Contains(t, f.out.String(), "✓ "+domain.PathToURI(filepath.Join(dir, "lib.wdl"))+" (resolved, 1 tasks, 1 files)")
	assert.Contains(t, f.out.String(), "lib.align")

	f.out.Reset()
	require.NoError(t, f.app.Resolve(t.Context(), filepath.Join(dir, "main.wdl")))
	assert.Contains(t, f.out.String(), "(cached, 1 tasks, 1 files)")

	f.out.Reset()
	err := f.app.Resolve(t.Context(), filepath.Join(dir, "bad.wdl"))
	require.ErrorContains(t, err, domain.ErrImportsUnresolved.Error())
	assert.Contains(t, f.out.String(), "✗ unresolved")
}

func TestApp_Analyze(t *testing.T) {
	dir := writeWorkspace(t)
	f := newFixture(t)

	require.NoError(t, f.app.Analyze(t.Context(), filepath.Join(dir, "main.wdl")))
	assert.Contains(t, f.out.String(), "workflow main calls [lib.align]")

	f.out.Reset()
	require.NoError(t, f.app.Analyze(t.Context(), filepath.Join(dir, "lib.wdl")))
	assert.Contains(t, f.out.String(), "task align (0 inputs, 0 outputs) lines 3-7")
}

func TestApp_ValidateAndRepair(t *testing.T) {
	dir := writeWorkspace(t)
	f := newFixture(t)
	require.NoError(t, f.app.Analyze(t.Context(), filepath.Join(dir, "lib.wdl")))

	require.NoError(t, f.app.Validate(t.Context()))
	assert.Contains(t, f.out.String(), "✓ 1 entries: 1 valid")

	f.out.Reset()
	require.NoError(t, f.app.Repair(t.Context()))
	assert.Equal(t, "repaired 0, removed 0 entries\n", f.out.String())
}

func TestApp_ValidateFailsOnInvalidEntries(t *testing.T) {
	f := newFixture(t)
	table := domain.NewSymbolTable("file:///gone.wdl")
	table.Tasks["align"] = domain.TaskSymbol{Name: "other", URI: "file:///gone.wdl"}
	require.NoError(t, f.store.SaveSymbolTable(table, "file:///gone.wdl"))

	err := f.app.Validate(t.Context())

	require.ErrorContains(t, err, domain.ErrCacheInvalid.Error())
	assert.Contains(t, f.out.String(), "✗ 1 entries")
}

func TestApp_HealthAndStats(t *testing.T) {
	dir := writeWorkspace(t)
	f := newFixture(t)
	require.NoError(t, f.app.Resolve(t.Context(), filepath.Join(dir, "main.wdl")))

	require.NoError(t, f.app.Health(t.Context()))
	assert.Contains(t, f.out.String(), "Cache health: healthy")

	f.out.Reset()
	require.NoError(t, f.app.Stats(t.Context()))
	assert.Contains(t, f.out.String(), "persistent: 1 entries")
	assert.Contains(t, f.out.String(), "memory imports: 1/100 entries")
	assert.Contains(t, f.out.String(), "memory symbols: 0/100 entries")
}

func TestApp_BackupRestoreAndClear(t *testing.T) {
	dir := writeWorkspace(t)
	f := newFixture(t)
	require.NoError(t, f.app.Analyze(t.Context(), filepath.Join(dir, "lib.wdl")))
	require.NoError(t, f.store.Save())

	require.NoError(t, f.app.Backup(t.Context(), "before clear"))
	backupPath := filepath.Clean(f.out.String()[:len(f.out.String())-1])
	assert.Equal(t, domain.BackupsPath(f.cacheDir), filepath.Dir(backupPath))

	require.NoError(t, f.app.Clear(t.Context()))
	assert.Empty(t, f.store.Records())

	require.NoError(t, f.app.Restore(t.Context(), filepath.Base(backupPath)))
	assert.Len(t, f.store.Records(), 1)
}

func TestApp_Migrate(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.app.Migrate(t.Context(), domain.CurrentFormatVersion))
	assert.Empty(t, f.out.String())

	require.NoError(t, f.app.MigrationHistory(t.Context()))
	assert.Equal(t, "no migrations recorded\n", f.out.String())
}

func TestApp_MigrateCurrentCacheIsNoOp(t *testing.T) {
	dir := writeWorkspace(t)
	f := newFixture(t)
	require.NoError(t, f.app.Analyze(t.Context(), filepath.Join(dir, "lib.wdl")))
	require.NoError(t, f.store.Save())

	require.NoError(t, f.app.Migrate(t.Context(), domain.CurrentFormatVersion))

	assert.Contains(t, f.out.String(), "✓ migration 1.1.0 -> 1.1.0")
	assert.Contains(t, f.out.String(), migration.NoStepsWarning)
}

func TestApp_Optimize(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.app.Optimize(t.Context()))
	assert.Contains(t, f.out.String(), "✓ removed 0 entries")
}

func TestApp_WatchInvalidatesChangedFiles(t *testing.T) {
	dir := writeWorkspace(t)
	f := newFixture(t)
	require.NoError(t, f.app.Resolve(t.Context(), filepath.Join(dir, "main.wdl")))
	require.Len(t, f.store.Records(), 1)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- f.app.Watch(ctx, dir) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "lib.wdl"), []byte("version 1.0\n"), domain.FilePerm)
		return len(f.store.Records()) == 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestApp_WriteTrace(t *testing.T) {
	dir := writeWorkspace(t)
	f := newFixture(t)
	require.NoError(t, f.app.Resolve(t.Context(), filepath.Join(dir, "main.wdl")))

	var trace bytes.Buffer
	require.NoError(t, f.app.WriteTrace(&trace))
	assert.Contains(t, trace.String(), resolver.SpanName)
}
