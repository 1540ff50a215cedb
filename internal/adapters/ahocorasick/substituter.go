// Package ahocorasick provides literal substitution using an Aho-Corasick
// automaton. It wraps the petar-dambovaliev/aho-corasick library with
// leftmost-longest match semantics, which picks the same non-overlapping
// spans as the merge engine in domain/patsub; it serves as an alternative
// engine and as a cross-check.
package ahocorasick

import (
	"fmt"
	"strings"

	aho "github.com/petar-dambovaliev/aho-corasick"

	"github.com/corey/dakota/internal/domain/patset"
	"github.com/corey/dakota/internal/ports"
)

// Substituter implements ports.Substituter on a compiled automaton.
// Rebuild compiles; Substitute scans the source once.
type Substituter struct {
	automaton aho.AhoCorasick
	names     []string
	values    []string
	built     bool
}

var _ ports.Substituter = (*Substituter)(nil)

// New returns a substituter compiled from patterns.
func New(patterns []ports.Pattern) (*Substituter, error) {
	s := &Substituter{}
	if err := s.Rebuild(patterns); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild replaces the automaton with one built from patterns. Names must
// be unique and non-empty; on error the previous automaton is kept.
func (s *Substituter) Rebuild(patterns []ports.Pattern) error {
	table := patset.New()
	for _, p := range patterns {
		if err := table.Add(p.Name, p.Value); err != nil {
			return fmt.Errorf("pattern %q: %w", p.Name, err)
		}
	}

	sorted := table.Sorted()
	names := make([]string, len(sorted))
	values := make([]string, len(sorted))
	for i, p := range sorted {
		names[i], values[i] = p.Name, p.Value
	}

	if len(names) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			MatchKind: aho.LeftMostLongestMatch,
			DFA:       true,
		})
		s.automaton = builder.Build(names)
	}
	s.names, s.values = names, values
	s.built = len(names) > 0
	return nil
}

// Len returns the number of compiled patterns.
func (s *Substituter) Len() int { return len(s.names) }

// Substitute replaces every leftmost-longest match in src with its value.
func (s *Substituter) Substitute(src string) (string, error) {
	if !s.built {
		return src, nil
	}
	matches := s.automaton.FindAll(src)
	if len(matches) == 0 {
		return src, nil
	}

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, m := range matches {
		// FindAll may report a match inside one already taken.
		if m.Start() < last {
			continue
		}
		b.WriteString(src[last:m.Start()])
		b.WriteString(s.values[m.Pattern()])
		last = m.End()
	}
	b.WriteString(src[last:])
	return b.String(), nil
}
