package symbols_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wdlcache/internal/adapters/memcache"
	"go.trai.ch/wdlcache/internal/adapters/store"
	"go.trai.ch/wdlcache/internal/adapters/telemetry"
	"go.trai.ch/wdlcache/internal/adapters/wdl"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports/mocks"
	"go.trai.ch/wdlcache/internal/engine/symbols"
	"go.uber.org/mock/gomock"
)

const pipelineWDL = `version 1.0

task align {
  input {
    File reads
    Int? threads
  }
  command <<<
    bwa mem ~{reads}
  >>>
  output {
    File bam = "out.bam"
  }
}

workflow pipeline {
  input {
    File reads
  }
  call align { input: reads = reads }
}
`

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
	cfg.AutoSave = false
	s := store.New(cfg, quietLogger(t))
	s.Initialize(t.Context())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newProvider(t *testing.T, s *store.Store) *symbols.Provider {
	t.Helper()
	p := symbols.New(wdl.New(), s, quietLogger(t), telemetry.NewNoOpTracer(), memcache.Options{})
	t.Cleanup(p.Close)
	return p
}

func writeDoc(t *testing.T, content string) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.wdl")
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path, domain.PathToURI(path)
}

func TestAnalyze_BuildsTable(t *testing.T) {
	path, uri := writeDoc(t, pipelineWDL)
	p := newProvider(t, openStore(t, t.TempDir()))

	table, err := p.Analyze(t.Context(), uri)

	require.NoError(t, err)
	assert.Equal(t, uri, table.URI)
	require.Contains(t, table.Tasks, "align")
	align := table.Tasks["align"]
	assert.Equal(t, uri, align.URI)
	assert.Equal(t, []domain.Param{
		{Name: "reads", Type: "File"},
		{Name: "threads", Type: "Int?", Optional: true},
	}, align.Inputs)
	require.Contains(t, table.Workflows, "pipeline")
	assert.Equal(t, []string{"align"}, table.Workflows["pipeline"].Calls)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, table.LastModifiedPerFile[uri].Equal(info.ModTime()))
}

func TestAnalyze_ServesFreshTableFromMemory(t *testing.T) {
	_, uri := writeDoc(t, pipelineWDL)
	p := newProvider(t, openStore(t, t.TempDir()))

	first, err := p.Analyze(t.Context(), uri)
	require.NoError(t, err)
	second, err := p.Analyze(t.Context(), uri)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), p.Cache().Hits)
}

func TestAnalyze_RebuildsAfterModification(t *testing.T) {
	path, uri := writeDoc(t, pipelineWDL)
	p := newProvider(t, openStore(t, t.TempDir()))

	first, err := p.Analyze(t.Context(), uri)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("version 1.0\n\ntask sort {\n  command <<<\n    sort\n  >>>\n}\n"), domain.FilePerm))
	later := first.LastModifiedPerFile[uri].Add(time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := p.Analyze(t.Context(), uri)
	require.NoError(t, err)
	assert.NotContains(t, second.Tasks, "align")
	assert.Contains(t, second.Tasks, "sort")
}

func TestAnalyze_UsesPersistentLayer(t *testing.T) {
	_, uri := writeDoc(t, pipelineWDL)
	cacheDir := t.TempDir()

	s := openStore(t, cacheDir)
	_, err := newProvider(t, s).Analyze(t.Context(), uri)
	require.NoError(t, err)
	require.NoError(t, s.Save())

	reopened := openStore(t, cacheDir)
	p := newProvider(t, reopened)
	table, err := p.Analyze(t.Context(), uri)

	require.NoError(t, err)
	assert.Contains(t, table.Tasks, "align")
	assert.Equal(t, 1, p.Cache().Size)
	assert.Same(t, reopened, p.Store())
}

func TestAnalyze_Errors(t *testing.T) {
	_, broken := writeDoc(t, "version 1.0\n\ntask broken {\n")
	p := newProvider(t, openStore(t, t.TempDir()))

	tests := []struct {
		name    string
		uri     string
		wantErr error
	}{
		{name: "missing file", uri: domain.PathToURI(filepath.Join(t.TempDir(), "nope.wdl")), wantErr: domain.ErrFileReadFailed},
		{name: "unsupported scheme", uri: "https://example.com/a.wdl", wantErr: domain.ErrInvalidURI},
		{name: "unterminated block", uri: broken, wantErr: domain.ErrParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := p.Analyze(t.Context(), tt.uri)

			assert.Nil(t, table)
			assert.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}

func TestHandleFileChange_DropsBothLayers(t *testing.T) {
	_, uri := writeDoc(t, pipelineWDL)
	s := openStore(t, t.TempDir())
	p := newProvider(t, s)

	_, err := p.Analyze(t.Context(), uri)
	require.NoError(t, err)

	removed := p.HandleFileChange(t.Context(), domain.FileChangeEvent{URI: uri, Type: domain.ChangeDeleted})

	assert.Equal(t, 2, removed)
	assert.Zero(t, p.Cache().Size)
	_, ok := s.LoadSymbolTable(uri)
	assert.False(t, ok)
}

func TestAnalyze_ParsesOncePerModification(t *testing.T) {
	path, uri := writeDoc(t, pipelineWDL)
	parser := mocks.NewMockParser(gomock.NewController(t))
	parser.EXPECT().
		Parse(uri, []byte(pipelineWDL)).
		Return(&domain.Document{Tasks: []domain.TaskDecl{{Name: "align"}}}, nil).
		Times(1)

	p := symbols.New(parser, openStore(t, t.TempDir()), quietLogger(t), telemetry.NewNoOpTracer(), memcache.Options{})
	t.Cleanup(p.Close)

	for range 3 {
		table, err := p.Analyze(t.Context(), uri)
		require.NoError(t, err)
		assert.Contains(t, table.Tasks, "align")
	}

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	parser.EXPECT().
		Parse(uri, gomock.Any()).
		Return(nil, domain.ErrParseFailed).
		Times(1)

	_, err := p.Analyze(t.Context(), uri)
	require.ErrorContains(t, err, domain.ErrParseFailed.Error())
}
