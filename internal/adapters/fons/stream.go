// Package fons implements ports.LineSource over a stack of open inputs.
//
// The first input is opened by Open (or OpenReader); every Push places a new
// file on top of the stack. ReadLine always reads from the top input. When
// it is exhausted the input is closed, popped, and reading resumes in the
// input below, right after the line that pushed it. Once the stack is empty
// ReadLine reports io.EOF.
package fons

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/corey/dakota/internal/domain/blob"
	"github.com/corey/dakota/internal/ports"
)

var (
	// ErrIncludeCycle is returned when pushing a file that is already open
	// further down the stack.
	ErrIncludeCycle = errors.New("fons: include cycle")

	// ErrTooDeep is returned when the stack would exceed MaxDepth.
	ErrTooDeep = errors.New("fons: include nesting too deep")
)

// DefaultMaxDepth bounds include nesting when Options.MaxDepth is zero.
const DefaultMaxDepth = 32

// Options configures path resolution and nesting limits.
type Options struct {
	// IncludeDirs are searched, in order, for relative paths that are not
	// found next to the including file.
	IncludeDirs []string

	// MaxDepth limits the number of simultaneously open inputs.
	MaxDepth int
}

type input struct {
	path   string
	closer io.Closer
	r      *bufio.Reader
	line   int
}

// Stream is a stack of line-oriented inputs.
type Stream struct {
	stack []*input
	line  blob.Blob
	opts  Options
	files []string

	lastPath string
	lastLine int
}

var _ ports.LineSource = (*Stream)(nil)

// Open creates a stream whose first input is the file at path.
func Open(path string, opts Options) (*Stream, error) {
	s := newStream(opts)
	if err := s.Push(path); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenReader creates a stream whose first input is r. name is used in
// positions and error messages; relative includes resolve against the
// current directory and the include directories.
func OpenReader(name string, r io.Reader, opts Options) *Stream {
	s := newStream(opts)
	in := &input{path: name, r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		in.closer = c
	}
	s.stack = append(s.stack, in)
	return s
}

func newStream(opts Options) *Stream {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Stream{opts: opts}
}

// resolve maps an include path to an absolute file path. Relative paths are
// tried next to the including file first, then in each include directory.
// If nothing exists the first candidate is returned so that opening it
// reports a meaningful error.
func (s *Stream) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	var candidates []string
	if top := s.top(); top != nil && filepath.IsAbs(top.path) {
		candidates = append(candidates, filepath.Join(filepath.Dir(top.path), path))
	} else {
		candidates = append(candidates, path)
	}
	for _, dir := range s.opts.IncludeDirs {
		candidates = append(candidates, filepath.Join(dir, path))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return absPath(c)
		}
	}
	return absPath(candidates[0])
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (s *Stream) top() *input {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Push opens path and makes it the current input.
func (s *Stream) Push(path string) error {
	if len(s.stack) >= s.opts.MaxDepth {
		return fmt.Errorf("%w: %s (max %d)", ErrTooDeep, path, s.opts.MaxDepth)
	}
	resolved := s.resolve(path)
	for _, in := range s.stack {
		if in.path == resolved {
			return fmt.Errorf("%w: %s", ErrIncludeCycle, resolved)
		}
	}

	f, err := os.Open(resolved)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	s.stack = append(s.stack, &input{path: resolved, closer: f, r: bufio.NewReader(f)})
	s.files = append(s.files, resolved)
	return nil
}

// Pop closes the current input and removes it from the stack.
func (s *Stream) Pop() {
	in := s.top()
	if in == nil {
		return
	}
	if in.closer != nil {
		_ = in.closer.Close()
	}
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]
}

// Close closes every open input.
func (s *Stream) Close() error {
	for len(s.stack) > 0 {
		s.Pop()
	}
	return nil
}

// Depth returns the number of open inputs.
func (s *Stream) Depth() int { return len(s.stack) }

// Files returns every file opened by the stream so far, in open order.
func (s *Stream) Files() []string { return s.files }

// Position reports the input path and line number of the last line read.
func (s *Stream) Position() (string, int) { return s.lastPath, s.lastLine }

// ReadLine returns the next line from the top input, including its newline.
// The returned slice is reused by the next call.
func (s *Stream) ReadLine() ([]byte, error) {
	for {
		in := s.top()
		if in == nil {
			return nil, io.EOF
		}

		s.line.Reset()
		for {
			chunk, err := in.r.ReadSlice('\n')
			if _, werr := s.line.Write(chunk); werr != nil {
				return nil, fmt.Errorf("read %s: %w", in.path, werr)
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			if err == nil || (errors.Is(err, io.EOF) && s.line.Len() > 0) {
				in.line++
				s.lastPath, s.lastLine = in.path, in.line
				return s.line.Bytes(), nil
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read %s: %w", in.path, err)
		}
		s.Pop()
	}
}
