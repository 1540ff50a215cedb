// Package patsub implements multi-pattern literal substitution with a
// longest-match policy.
//
// The engine does not build a trie or an automaton. On every call it sorts
// the suffixes of the source string, makes sure the pattern table is sorted
// (the table memoizes its sort until the next mutation) and merges the two
// sorted sequences to find, for every source offset, the longest pattern
// name that starts there. The output is then produced left to right,
// copying unmatched bytes and splicing in replacement values; a matched
// span is consumed whole, so spans never overlap.
package patsub

import (
	"errors"
	"fmt"
	"io"
	"math/bits"
	"sort"
	"unsafe"

	"github.com/corey/dakota/internal/domain/blob"
	"github.com/corey/dakota/internal/domain/patset"
	"github.com/corey/dakota/internal/ports"
)

var (
	// ErrOutOfMemory is returned when the source exceeds the engine limit.
	ErrOutOfMemory = errors.New("patsub: out of memory")

	// ErrOverflow is returned when the working storage size cannot be
	// represented.
	ErrOverflow = errors.New("patsub: size overflow")
)

const noMatch = -1

// workArrays is the number of int arrays of source length kept as
// working storage (suffix array, two rank arrays, match marks).
const workArrays = 4

// Sink receives substitution output. *blob.Blob, *strings.Builder,
// *bytes.Buffer and *bufio.Writer all satisfy it.
type Sink = io.StringWriter

// Match is one span of the source chosen for replacement.
type Match struct {
	Start   int
	End     int
	Pattern patset.Pattern
}

// Engine applies the patterns of one table to source strings.
//
// The suffix array and match marks are working storage kept between calls
// as a capacity cache only; their contents are rebuilt on every call. An
// Engine is not safe for concurrent use, and neither is its table.
type Engine struct {
	table *patset.Table

	sa    []int
	rank  []int
	tmp   []int
	marks []int

	// Limit caps the source length in bytes. Zero means no limit.
	Limit int
}

var _ ports.Substituter = (*Engine)(nil)

// New returns an engine over table. A nil table is replaced by an empty one.
func New(table *patset.Table) *Engine {
	if table == nil {
		table = patset.New()
	}
	return &Engine{table: table}
}

// Table returns the engine's pattern table. Mutating it between calls is
// allowed; the next call re-sorts as needed.
func (e *Engine) Table() *patset.Table { return e.table }

// Rebuild replaces the table content with patterns. The table is left
// untouched if any pattern is rejected.
func (e *Engine) Rebuild(patterns []ports.Pattern) error {
	next := &patset.Table{Limit: e.table.Limit}
	for _, p := range patterns {
		if err := next.Add(p.Name, p.Value); err != nil {
			return fmt.Errorf("pattern %q: %w", p.Name, err)
		}
	}
	*e.table = *next
	return nil
}

// reserve sizes the working storage for a source of n bytes.
func (e *Engine) reserve(n int) error {
	if e.Limit > 0 && n > e.Limit {
		return ErrOutOfMemory
	}
	if n <= cap(e.sa) {
		e.sa, e.rank, e.tmp, e.marks = e.sa[:n], e.rank[:n], e.tmp[:n], e.marks[:n]
		return nil
	}
	hi, lo := bits.Mul(uint(n), uint(workArrays*unsafe.Sizeof(int(0))))
	if hi != 0 || lo > uint(^uint(0)>>1) {
		return ErrOverflow
	}
	e.sa = make([]int, n)
	e.rank = make([]int, n)
	e.tmp = make([]int, n)
	e.marks = make([]int, n)
	return nil
}

// mark records in e.marks, for every offset of src, the index into the
// returned sorted pattern slice of the longest pattern starting there.
func (e *Engine) mark(src string) ([]patset.Pattern, error) {
	n := len(src)
	if err := e.reserve(n); err != nil {
		return nil, err
	}
	for i := range e.marks {
		e.marks[i] = noMatch
	}

	pats := e.table.Sorted()
	if len(pats) == 0 || n == 0 {
		return pats, nil
	}
	sortSuffixes(src, e.sa, e.rank, e.tmp)

	// Merge: p walks the sorted patterns, s the sorted suffixes. s only
	// moves forward, to the first suffix not below pattern p. Every suffix
	// in the run that has p as a prefix gets p recorded. A pattern that
	// extends another sorts after it, so a longer match at the same offset
	// always overwrites a shorter one.
	s := 0
	for p := range pats {
		name := pats[p].Name
		s += sort.Search(n-s, func(i int) bool {
			return compare(name, src[e.sa[s+i]:]) <= 0
		})
		if s == n {
			break
		}
		for t := s; t < n && compare(name, src[e.sa[t]:]) == 0; t++ {
			e.marks[e.sa[t]] = p
		}
	}
	return pats, nil
}

// ApplyTo writes src with all substitutions applied to w. On error w holds
// partial output which the caller must discard.
func (e *Engine) ApplyTo(w Sink, src string) error {
	pats, err := e.mark(src)
	if err != nil {
		return err
	}

	last := 0
	for i := 0; i < len(src); {
		m := e.marks[i]
		if m == noMatch {
			i++
			continue
		}
		if last < i {
			if _, err := w.WriteString(src[last:i]); err != nil {
				return fmt.Errorf("patsub: write output: %w", err)
			}
		}
		if _, err := w.WriteString(pats[m].Value); err != nil {
			return fmt.Errorf("patsub: write output: %w", err)
		}
		i += pats[m].Len
		last = i
	}
	if last < len(src) {
		if _, err := w.WriteString(src[last:]); err != nil {
			return fmt.Errorf("patsub: write output: %w", err)
		}
	}
	return nil
}

// Apply returns src with all substitutions applied.
func (e *Engine) Apply(src string) (string, error) {
	out := blob.New(len(src))
	if err := e.ApplyTo(out, src); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Substitute implements ports.Substituter.
func (e *Engine) Substitute(src string) (string, error) {
	return e.Apply(src)
}

// Matches returns the spans Apply would replace, in source order.
func (e *Engine) Matches(src string) ([]Match, error) {
	pats, err := e.mark(src)
	if err != nil {
		return nil, err
	}
	var out []Match
	for i := 0; i < len(src); {
		m := e.marks[i]
		if m == noMatch {
			i++
			continue
		}
		out = append(out, Match{Start: i, End: i + pats[m].Len, Pattern: pats[m]})
		i += pats[m].Len
	}
	return out, nil
}
