// Package cupl implements the CUPL line preprocessor.
//
// Lines are pulled from a ports.LineSource. Two directives are recognized
// at the start of a line (after optional white space, keyword matched
// without regard to ASCII case):
//
//	$include <path>          push a file onto the source
//	$define  <name> [value]  add a literal pattern
//
// Directive lines are consumed. Every other line, including unknown
// $-lines, is passed through, with defined names expanded by the
// substitution engine when Options.Expand is set.
package cupl

import (
	"errors"
	"fmt"
	"io"

	"github.com/corey/dakota/internal/domain/blob"
	"github.com/corey/dakota/internal/domain/patset"
	"github.com/corey/dakota/internal/domain/patsub"
	"github.com/corey/dakota/internal/ports"
)

// ErrDirective is wrapped by every malformed directive error.
var ErrDirective = errors.New("cupl: bad directive")

const (
	kwInclude = "$include"
	kwDefine  = "$define"
)

// DirectiveError reports a directive that could not be executed.
type DirectiveError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *DirectiveError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, ErrDirective) {
		return fmt.Sprintf("%s:%d: %s: %v", e.Path, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

func (e *DirectiveError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDirective
}

// Options configures a Preprocessor.
type Options struct {
	// Expand substitutes defined names in every emitted line.
	Expand bool

	// Defines are added to the table before the first line is read.
	Defines []ports.Pattern

	// MaxLine caps the length of an expanded line. Zero means no limit.
	MaxLine int
}

// Preprocessor reads directive-free lines from a source.
type Preprocessor struct {
	src    ports.LineSource
	table  *patset.Table
	engine *patsub.Engine
	line   blob.Blob
	opts   Options
}

// New returns a preprocessor over src. It fails if a predefined pattern is
// rejected by the table.
func New(src ports.LineSource, opts Options) (*Preprocessor, error) {
	table := patset.New()
	for _, d := range opts.Defines {
		if err := table.Add(d.Name, d.Value); err != nil {
			return nil, fmt.Errorf("define %q: %w", d.Name, err)
		}
	}
	engine := patsub.New(table)
	engine.Limit = opts.MaxLine
	return &Preprocessor{src: src, table: table, engine: engine, opts: opts}, nil
}

// Table returns the pattern table fed by $define.
func (p *Preprocessor) Table() *patset.Table { return p.table }

// Defines returns the defined patterns in name order.
func (p *Preprocessor) Defines() []ports.Pattern {
	sorted := p.table.Sorted()
	out := make([]ports.Pattern, len(sorted))
	for i, d := range sorted {
		out[i] = ports.Pattern{Name: d.Name, Value: d.Value}
	}
	return out
}

// ReadLine returns the next non-directive line. The slice is reused by the
// next call. io.EOF is returned once the source is exhausted.
func (p *Preprocessor) ReadLine() ([]byte, error) {
	for {
		line, err := p.src.ReadLine()
		if err != nil {
			return nil, err
		}

		s := skip(line, 0, isSpace)
		switch {
		case hasKeyword(line[s:], kwInclude):
			if err := p.include(line, s+len(kwInclude)); err != nil {
				return nil, err
			}
			continue
		case hasKeyword(line[s:], kwDefine):
			if err := p.define(line, s+len(kwDefine)); err != nil {
				return nil, err
			}
			continue
		}

		p.line.Reset()
		if p.opts.Expand && p.table.Len() > 0 {
			err = p.engine.ApplyTo(&p.line, string(line))
		} else {
			_, err = p.line.Write(line)
		}
		if err != nil {
			path, n := p.src.Position()
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		return p.line.Bytes(), nil
	}
}

// Run drains the preprocessor into w.
func (p *Preprocessor) Run(w io.Writer) error {
	for {
		line, err := p.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
}

func (p *Preprocessor) fail(msg string, err error) error {
	path, n := p.src.Position()
	return &DirectiveError{Path: path, Line: n, Msg: msg, Err: err}
}

func (p *Preprocessor) include(line []byte, s int) error {
	ps := skip(line, s, isSpace)
	pe := skip(line, ps, isGraph)
	e := skip(line, pe, isSpace)

	if ps == pe {
		return p.fail("include directive requires a path", nil)
	}
	if e != len(line) {
		return p.fail("too many arguments for include directive", nil)
	}
	path := string(line[ps:pe])
	if err := p.src.Push(path); err != nil {
		return p.fail("include "+path, err)
	}
	return nil
}

func (p *Preprocessor) define(line []byte, s int) error {
	ns := skip(line, s, isSpace)
	ne := skip(line, ns, isWord)
	vs := skip(line, ne, isSpace)
	ve := skip(line, vs, isGraph)
	e := skip(line, ve, isSpace)

	if ns == ne {
		return p.fail("define directive requires a name", nil)
	}
	if e != len(line) {
		return p.fail("too many arguments for define directive", nil)
	}
	name := string(line[ns:ne])
	if err := p.table.Add(name, string(line[vs:ve])); err != nil {
		return p.fail("define "+name, err)
	}
	return nil
}

// hasKeyword reports whether s starts with kw, ignoring ASCII case, and the
// keyword is followed by white space or the end of the line.
func hasKeyword(s []byte, kw string) bool {
	if len(s) < len(kw) {
		return false
	}
	for i := 0; i < len(kw); i++ {
		if lower(s[i]) != kw[i] {
			return false
		}
	}
	return len(s) == len(kw) || isSpace(s[len(kw)])
}

func skip(s []byte, i int, class func(byte) bool) int {
	for i < len(s) && class(s[i]) {
		i++
	}
	return i
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

func isGraph(c byte) bool { return c > ' ' && c < 0x7f }

func isWord(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
