package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wdlcache/internal/adapters/watcher"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func startWatcher(t *testing.T, root string) <-chan domain.FileChangeEvent {
	t.Helper()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(log, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx, root))
	t.Cleanup(func() { _ = w.Stop() })

	got := make(chan domain.FileChangeEvent, 16)
	go func() {
		defer close(got)
		for ev := range w.Events() {
			got <- ev
		}
	}()
	return got
}

func next(t *testing.T, events <-chan domain.FileChangeEvent) domain.FileChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event stream closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for file change event")
		return domain.FileChangeEvent{}
	}
}

func TestWatcher_ReportsWDLChanges(t *testing.T) {
	root := t.TempDir()
	events := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), domain.FilePerm))
	path := filepath.Join(root, "main.wdl")
	require.NoError(t, os.WriteFile(path, []byte("version 1.0\n"), domain.FilePerm))

	ev := next(t, events)
	assert.Equal(t, domain.PathToURI(path), ev.URI)
	assert.Equal(t, domain.ChangeCreated, ev.Type)
	assert.False(t, ev.Timestamp.IsZero())

	require.NoError(t, os.Remove(path))

	ev = next(t, events)
	assert.Equal(t, domain.PathToURI(path), ev.URI)
	assert.Equal(t, domain.ChangeDeleted, ev.Type)
}

func TestWatcher_SkipsCacheDirectory(t *testing.T) {
	root := t.TempDir()
	cacheDir := filepath.Join(root, domain.CacheDirName)
	require.NoError(t, os.Mkdir(cacheDir, domain.DirPerm))
	events := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "stale.wdl"), []byte("x"), domain.FilePerm))
	path := filepath.Join(root, "visible.wdl")
	require.NoError(t, os.WriteFile(path, []byte("x"), domain.FilePerm))

	ev := next(t, events)
	assert.Equal(t, domain.PathToURI(path), ev.URI)
}

func TestWatcher_StopEndsEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	w, err := watcher.NewWatcher(log, 0)
	require.NoError(t, err)
	require.NoError(t, w.Stop())

	for range w.Events() {
		t.Fatal("unexpected event")
	}
}
