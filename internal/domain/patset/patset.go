// Package patset holds the pattern table: an insertion-ordered array of
// literal name -> value pairs that is sorted by name on demand.
//
// The table sorts lazily. Any Add clears the sorted flag; the next Find,
// Remove or Sorted call re-sorts by byte-lexicographic name order. A
// compacting Remove keeps the array sorted.
//
// The table is not safe for concurrent use.
package patset

import (
	"errors"
	"math/bits"
	"slices"
	"strings"
	"unsafe"
)

var (
	// ErrEmptyName is returned when adding a pattern with an empty name.
	ErrEmptyName = errors.New("patset: empty pattern name")

	// ErrDuplicate is returned when adding a name that is already present.
	ErrDuplicate = errors.New("patset: duplicate pattern name")

	// ErrNotFound is returned when removing an absent name.
	ErrNotFound = errors.New("patset: pattern not found")

	// ErrOverflow is returned when the next capacity or its byte size
	// cannot be represented.
	ErrOverflow = errors.New("patset: capacity overflow")

	// ErrOutOfMemory is returned when growth would exceed the table limit.
	ErrOutOfMemory = errors.New("patset: out of memory")
)

// GrowBatch is the number of elements added to the backing array each time
// it fills up.
const GrowBatch = 4

const patternSize = int(unsafe.Sizeof(Pattern{}))

// Pattern is a literal name and its replacement. Len caches len(Name).
type Pattern struct {
	Name  string
	Value string
	Len   int
}

// Table is a set of patterns with unique, non-empty names.
// The zero value is an empty, usable table.
type Table struct {
	set    []Pattern
	names  map[string]struct{}
	sorted bool

	// Limit caps the number of patterns. Zero means no limit.
	Limit int
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// nextCapacity computes the capacity after one growth step and checks that
// neither the element count nor the byte size wraps.
func nextCapacity(have, batch, elemSize int) (int, error) {
	next := have + batch
	if batch <= 0 || next < have {
		return 0, ErrOverflow
	}
	hi, lo := bits.Mul(uint(next), uint(elemSize))
	if hi != 0 || lo > uint(^uint(0)>>1) {
		return 0, ErrOverflow
	}
	return next, nil
}

func (t *Table) grow() error {
	next, err := nextCapacity(cap(t.set), GrowBatch, patternSize)
	if err != nil {
		return err
	}
	if t.Limit > 0 && next > t.Limit {
		next = t.Limit
	}
	set := make([]Pattern, len(t.set), next)
	copy(set, t.set)
	t.set = set
	return nil
}

// Add appends a new pattern and invalidates the sort order.
func (t *Table) Add(name, value string) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := t.names[name]; ok {
		return ErrDuplicate
	}
	if t.Limit > 0 && len(t.set) >= t.Limit {
		return ErrOutOfMemory
	}
	if len(t.set) >= cap(t.set) {
		if err := t.grow(); err != nil {
			return err
		}
	}

	t.set = append(t.set, Pattern{Name: name, Value: value, Len: len(name)})
	if t.names == nil {
		t.names = make(map[string]struct{})
	}
	t.names[name] = struct{}{}
	t.sorted = false
	return nil
}

// Set adds the pattern or replaces the value of an existing one.
func (t *Table) Set(name, value string) error {
	if i, ok := t.index(name); ok {
		t.set[i].Value = value
		return nil
	}
	return t.Add(name, value)
}

// Remove deletes the pattern with the given name.
func (t *Table) Remove(name string) error {
	i, ok := t.index(name)
	if !ok {
		return ErrNotFound
	}
	t.set = slices.Delete(t.set, i, i+1)
	delete(t.names, name)
	return nil
}

// Find returns the pattern with the given name.
func (t *Table) Find(name string) (Pattern, bool) {
	i, ok := t.index(name)
	if !ok {
		return Pattern{}, false
	}
	return t.set[i], true
}

func (t *Table) index(name string) (int, bool) {
	if _, ok := t.names[name]; !ok {
		return 0, false
	}
	t.Sort()
	return slices.BinarySearchFunc(t.set, name, func(p Pattern, name string) int {
		return strings.Compare(p.Name, name)
	})
}

// Sort orders the patterns by name. It is a no-op when already sorted.
func (t *Table) Sort() {
	if t.sorted {
		return
	}
	slices.SortFunc(t.set, func(a, b Pattern) int {
		return strings.Compare(a.Name, b.Name)
	})
	t.sorted = true
}

// IsSorted reports whether the table is currently in name order.
func (t *Table) IsSorted() bool { return t.sorted }

// Sorted sorts the table if needed and returns its patterns in name order.
// The slice aliases the table and is valid until the next mutation.
func (t *Table) Sorted() []Pattern {
	t.Sort()
	return t.set
}

// Patterns returns a sorted copy of the table.
func (t *Table) Patterns() []Pattern {
	return slices.Clone(t.Sorted())
}

// At returns the i-th pattern in name order.
func (t *Table) At(i int) Pattern {
	return t.Sorted()[i]
}

// Len returns the number of patterns.
func (t *Table) Len() int { return len(t.set) }

// Cap returns the capacity of the backing array.
func (t *Table) Cap() int { return cap(t.set) }

// Reset removes every pattern but keeps the backing array.
func (t *Table) Reset() {
	clear(t.set)
	t.set = t.set[:0]
	clear(t.names)
	t.sorted = true
}
