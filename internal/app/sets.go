package app

import (
	"errors"
	"fmt"

	"github.com/corey/dakota/internal/adapters/bbolt"
	"github.com/corey/dakota/internal/domain/patset"
	"github.com/corey/dakota/internal/ports"
)

// ErrNoSet is returned when a named pattern set does not exist.
var ErrNoSet = errors.New("no such pattern set")

// SetSummary is one row of ListSets.
type SetSummary struct {
	Name  string
	Count int
	Info  *bbolt.SetInfo // nil when the store keeps no bookkeeping
}

// ListSets returns every stored set with its pattern count.
func (a *App) ListSets() ([]SetSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	store, err := a.store()
	if err != nil {
		return nil, err
	}
	names, err := store.ListSets()
	if err != nil {
		return nil, err
	}

	infos, _ := store.(interface {
		Info(string) (*bbolt.SetInfo, error)
	})
	out := make([]SetSummary, 0, len(names))
	for _, name := range names {
		row := SetSummary{Name: name}
		if infos != nil {
			if row.Info, err = infos.Info(name); err != nil {
				return nil, err
			}
		}
		if row.Info != nil {
			row.Count = row.Info.Count
		} else {
			set, err := store.LoadSet(name)
			if err != nil {
				return nil, err
			}
			row.Count = len(set)
		}
		out = append(out, row)
	}
	return out, nil
}

// ShowSet returns the patterns of a stored set in name order.
func (a *App) ShowSet(name string) ([]ports.Pattern, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadSetLocked(name, false)
}

// AddToSet adds patterns to a set, creating it if needed. Existing names
// are rejected unless replace is set.
func (a *App) AddToSet(name string, patterns []ports.Pattern, replace bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.loadSetLocked(name, true)
	if err != nil {
		return err
	}
	table := patset.New()
	for _, p := range set {
		if err := table.Add(p.Name, p.Value); err != nil {
			return fmt.Errorf("set %s: pattern %q: %w", name, p.Name, err)
		}
	}
	for _, p := range patterns {
		if replace {
			err = table.Set(p.Name, p.Value)
		} else {
			err = table.Add(p.Name, p.Value)
		}
		if err != nil {
			return fmt.Errorf("pattern %q: %w", p.Name, err)
		}
	}
	return a.saveSetLocked(name, toPorts(table.Sorted()))
}

// RemoveFromSet removes the named patterns from a set.
func (a *App) RemoveFromSet(name string, names ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.loadSetLocked(name, false)
	if err != nil {
		return err
	}
	table := patset.New()
	for _, p := range set {
		if err := table.Add(p.Name, p.Value); err != nil {
			return fmt.Errorf("set %s: pattern %q: %w", name, p.Name, err)
		}
	}
	for _, n := range names {
		if err := table.Remove(n); err != nil {
			return fmt.Errorf("pattern %q: %w", n, err)
		}
	}
	return a.saveSetLocked(name, toPorts(table.Sorted()))
}

// DropSet deletes a stored set.
func (a *App) DropSet(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.loadSetLocked(name, false); err != nil {
		return err
	}
	store, err := a.store()
	if err != nil {
		return err
	}
	return store.DeleteSet(name)
}

// ImportSet stores patterns as the complete content of a set, replacing any
// previous content. Duplicate names in patterns are rejected.
func (a *App) ImportSet(name string, patterns []ports.Pattern) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	table := patset.New()
	for _, p := range patterns {
		if err := table.Add(p.Name, p.Value); err != nil {
			return fmt.Errorf("pattern %q: %w", p.Name, err)
		}
	}
	return a.saveSetLocked(name, toPorts(table.Sorted()))
}

func (a *App) loadSetLocked(name string, allowMissing bool) ([]ports.Pattern, error) {
	store, err := a.store()
	if err != nil {
		return nil, err
	}
	set, err := store.LoadSet(name)
	if err != nil {
		return nil, err
	}
	if set == nil && !allowMissing {
		return nil, fmt.Errorf("%w: %s", ErrNoSet, name)
	}
	return set, nil
}

func (a *App) saveSetLocked(name string, patterns []ports.Pattern) error {
	store, err := a.store()
	if err != nil {
		return err
	}
	return store.SaveSet(name, patterns)
}
