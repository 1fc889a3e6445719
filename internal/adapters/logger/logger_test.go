package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wdlcache/internal/adapters/logger"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/ui/style"
	"go.trai.ch/zerr"
)

// newTestLogger creates a pretty logger writing to a buffer without ANSI codes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*logger.Logger)
		goldenName string
	}{
		{
			name:       "info",
			log:        func(l *logger.Logger) { l.Info("loaded 12 cached imports") },
			goldenName: "info_basic",
		},
		{
			name:       "warn",
			log:        func(l *logger.Logger) { l.Warn("cache file imports.cache.gz is malformed") },
			goldenName: "warn_basic",
		},
		{
			name: "error chain",
			log: func(l *logger.Logger) {
				l.Error(zerr.Wrap(errors.New("permission denied"), "failed to write cache file"))
			},
			goldenName: "error_chain",
		},
		{
			name: "nested zerr chain",
			log: func(l *logger.Logger) {
				l.Error(zerr.Wrap(zerr.Wrap(errors.New("disk full"), "failed to write cache file"), "migration step failed"))
			},
			goldenName: "error_nested",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSONMode(t *testing.T) {
	buf := &bytes.Buffer{}
	lg := logger.NewWithWriter(buf, true)

	lg.Warn("cache directory missing")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "cache directory missing", record["msg"])
}

func TestLogger_SetJSONKeepsOutput(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Error(errors.New("boom"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "boom", record["error"])
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	lg := slog.New(handler).With("domain", "imports").WithGroup("store")

	lg.Info("saved", "entries", 3)
	lg.Debug("filtered")

	assert.Equal(t, "saved store.domain=imports store.entries=3\n", buf.String())
}

func TestPrettyHandler_WorkspaceRelativeURIs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	root := t.TempDir()
	inside := domain.PathToURI(filepath.Join(root, "lib", "align.wdl"))
	outside := domain.PathToURI(filepath.Join(t.TempDir(), "other.wdl"))

	buf := &bytes.Buffer{}
	handler := logger.NewPrettyHandler(buf, nil).WithRoot(root)
	slog.New(handler).Warn("failed to persist import "+inside, "from", outside, "uri", inside)

	assert.Equal(t, style.Warning+" failed to persist import lib/align.wdl from="+outside+" uri=lib/align.wdl\n", buf.String())
}

func TestPrettyHandler_FilesystemRootKeepsURIs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	handler := logger.NewPrettyHandler(buf, nil).WithRoot("/")
	slog.New(handler).Info("invalidated file:///w/a.wdl")

	assert.Equal(t, "invalidated file:///w/a.wdl\n", buf.String())
}
