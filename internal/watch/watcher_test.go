package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// collector is a Rebuilder that records every batch it receives.
type collector struct {
	mu      sync.Mutex
	batches [][]string
}

func (c *collector) rebuild(_ context.Context, changed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, changed)
}

func (c *collector) batchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func (c *collector) allChanged() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, b := range c.batches {
		out = append(out, b...)
	}
	return out
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), func(context.Context, []string) {})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	// Second Start is a no-op.
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	// Second Stop is a no-op.
	w.Stop()
}

func TestWatcher_DebouncedRebuild(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}

	w, err := NewWatcher(dir, c.rebuild)
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	pagePath := filepath.Join(dir, "about.md")
	require.NoError(t, os.WriteFile(pagePath, []byte("---\nlayout: about\n---\n"), 0644))
	// A quick second save lands in the same debounce window.
	require.NoError(t, os.WriteFile(pagePath, []byte("---\nlayout: about\ntitle: t\n---\n"), 0644))

	require.Eventually(t, func() bool {
		return c.batchCount() >= 1
	}, 5*time.Second, 20*time.Millisecond, "expected a rebuild after the debounce window")

	assert.Contains(t, c.allChanged(), pagePath)

	stats := w.GetStats()
	assert.NotZero(t, stats.FilesCreated+stats.FilesModified)
	assert.Equal(t, pagePath, stats.LastEventPath)
}

func TestWatcher_SubdirectoryEdits(t *testing.T) {
	dir := t.TempDir()
	subdir := filepath.Join(dir, "projects")
	require.NoError(t, os.MkdirAll(subdir, 0755))
	c := &collector{}

	w, err := NewWatcher(dir, c.rebuild)
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	pagePath := filepath.Join(subdir, "alpha.md")
	require.NoError(t, os.WriteFile(pagePath, []byte("---\nlayout: page\n---\n"), 0644))

	require.Eventually(t, func() bool {
		return c.batchCount() >= 1
	}, 5*time.Second, 20*time.Millisecond, "expected a rebuild for a page in a subdirectory")
	assert.Contains(t, c.allChanged(), pagePath)

	// Directories created while watching are picked up too.
	newDir := filepath.Join(dir, "talks")
	require.NoError(t, os.MkdirAll(newDir, 0755))
	time.Sleep(100 * time.Millisecond)

	nestedPath := filepath.Join(newDir, "beta.md")
	require.NoError(t, os.WriteFile(nestedPath, []byte("---\nlayout: page\n---\n"), 0644))

	require.Eventually(t, func() bool {
		for _, p := range c.allChanged() {
			if p == nestedPath {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond, "expected a rebuild for a page in a directory created mid-session")
}

func TestWatcher_IgnoresNonPageFiles(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}

	w, err := NewWatcher(dir, c.rebuild)
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".about.md.swp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, c.batchCount(), "non-page files must not trigger rebuilds")
}
