package fsnotify

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// File-set watcher: detect changes to watched files only, debounce bursts
// =============================================================================

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

func startWatcher(t *testing.T, paths ...string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	changed := make(chan string, 10)
	require.NoError(t, w.Watch(paths, func(path string) { changed <- path }))

	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "main.pld")
	require.NoError(t, os.WriteFile(testFile, []byte("/* original */"), 0644))

	_, changed := startWatcher(t, testFile)

	require.NoError(t, os.WriteFile(testFile, []byte("/* modified */"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for file change")
	assert.Equal(t, testFile, path)
}

func TestWatcher_DetectsReplacedFile(t *testing.T) {
	// Editors often save by writing a temp file and renaming it over the original.
	dir := t.TempDir()
	testFile := filepath.Join(dir, "defs.inc")
	require.NoError(t, os.WriteFile(testFile, []byte("$define A 1\n"), 0644))

	_, changed := startWatcher(t, testFile)

	tmp := filepath.Join(dir, "defs.inc.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("$define A 2\n"), 0644))
	require.NoError(t, os.Rename(tmp, testFile))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for replaced file")
	assert.Equal(t, testFile, path)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "main.pld")
	require.NoError(t, os.WriteFile(watched, []byte("x"), 0644))

	_, changed := startWatcher(t, watched)

	os.WriteFile(filepath.Join(dir, "other.pld"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "main.pld.swp"), []byte("x"), 0644)

	_, ok := waitForCallback(changed, 300*time.Millisecond)
	assert.False(t, ok, "should not have received callback for unwatched files")
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "burst.pld")
	require.NoError(t, os.WriteFile(testFile, nil, 0644))

	_, changed := startWatcher(t, testFile)

	for i := 0; i < 5; i++ {
		f, err := os.OpenFile(testFile, os.O_APPEND|os.O_WRONLY, 0644)
		require.NoError(t, err)
		f.WriteString("line\n")
		f.Close()
	}

	_, ok := waitForCallback(changed, 2*time.Second)
	require.True(t, ok)
	_, again := waitForCallback(changed, 300*time.Millisecond)
	assert.False(t, again, "a burst of writes fires once")
}

func TestWatcher_WatchReplacesFileSet(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pld")
	b := filepath.Join(dir, "b.pld")
	require.NoError(t, os.WriteFile(a, nil, 0644))
	require.NoError(t, os.WriteFile(b, nil, 0644))

	w, changed := startWatcher(t, a)
	assert.Equal(t, 1, w.Files())

	changed2 := make(chan string, 10)
	require.NoError(t, w.Watch([]string{b}, func(path string) { changed2 <- path }))

	require.NoError(t, os.WriteFile(a, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("x"), 0644))

	path, ok := waitForCallback(changed2, 2*time.Second)
	assert.True(t, ok)
	assert.Equal(t, b, path)

	_, ok = waitForCallback(changed, 200*time.Millisecond)
	assert.False(t, ok, "old callback no longer fires")
}

func TestWatcher_StopCleanup(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "stop.pld")
	require.NoError(t, os.WriteFile(testFile, nil, 0644))

	w, err := NewWatcher()
	require.NoError(t, err)

	callCount := 0
	var mu sync.Mutex
	err = w.Watch([]string{testFile}, func(path string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Stop())

	os.WriteFile(testFile, []byte("nope"), 0644)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 0, callCount, "callbacks fired after Stop()")
	mu.Unlock()

	// Double-stop should be safe
	assert.NoError(t, w.Stop())
	assert.Error(t, w.Watch([]string{testFile}, func(string) {}))
}
