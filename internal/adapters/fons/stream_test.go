package fons

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Layered source stream: nested inputs, pop on EOF, positions
// =============================================================================

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readAll(t *testing.T, s *Stream) []string {
	t.Helper()
	var lines []string
	for {
		line, err := s.ReadLine()
		if err == io.EOF {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, string(line))
	}
}

func TestStream_ReadsLinesWithNewlines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.pld", "one\ntwo\nthree")

	s, err := Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"one\n", "two\n", "three"}, readAll(t, s))
	assert.Equal(t, 0, s.Depth(), "exhausted inputs are popped")

	_, err = s.ReadLine()
	assert.Equal(t, io.EOF, err, "EOF is sticky")
}

func TestStream_PushResumesAfterInclude(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.pld", "a\nb\n")
	writeFile(t, dir, "inc.pld", "x\ny\n")

	s, err := Open(main, Options{})
	require.NoError(t, err)
	defer s.Close()

	line, err := s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(line))

	require.NoError(t, s.Push("inc.pld"))
	assert.Equal(t, 2, s.Depth())

	line, _ = s.ReadLine()
	assert.Equal(t, "x\n", string(line))
	path, n := s.Position()
	assert.Equal(t, filepath.Join(dir, "inc.pld"), path)
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{"y\n", "b\n"}, readAll(t, s))
	assert.Len(t, s.Files(), 2)
}

func TestStream_IncludeDirs(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "src/main.pld", "")
	writeFile(t, dir, "lib/common.inc", "shared\n")

	s, err := Open(main, Options{IncludeDirs: []string{filepath.Join(dir, "lib")}})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Push("common.inc"))
	assert.Equal(t, []string{"shared\n"}, readAll(t, s))
}

func TestStream_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.pld", "a\n")

	s, err := Open(main, Options{})
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Push("main.pld"), ErrIncludeCycle)
}

func TestStream_TooDeep(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a", "")
	writeFile(t, dir, "b", "")

	s, err := Open(filepath.Join(dir, "a"), Options{MaxDepth: 1})
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Push("b"), ErrTooDeep)
}

func TestStream_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.pld"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStream_LongLine(t *testing.T) {
	long := strings.Repeat("x", 10000)
	s := OpenReader("<stdin>", strings.NewReader(long+"\nshort\n"), Options{})
	defer s.Close()

	assert.Equal(t, []string{long + "\n", "short\n"}, readAll(t, s))
	path, n := s.Position()
	assert.Equal(t, "<stdin>", path)
	assert.Equal(t, 2, n)
}
