package ml

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatchArtifactReportsChanges(t *testing.T) {
	path := writeArtifact(t, "model.json", linearArtifact())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- WatchArtifact(ctx, path, zap.NewNop(), func(fsnotify.Event) { seen.Add(1) })
	}()

	require.Eventually(t, func() bool {
		// Keep touching the file until the watcher is registered.
		_ = os.WriteFile(path, []byte(`{}`), 0o600)
		return seen.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
