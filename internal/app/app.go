// Package app wires together all adapters and domain logic.
// It provides the operations behind the dakota CLI: preprocessing, whole-input
// substitution, stored pattern sets and watch mode.
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	aho "github.com/corey/dakota/internal/adapters/ahocorasick"
	"github.com/corey/dakota/internal/adapters/bbolt"
	fsw "github.com/corey/dakota/internal/adapters/fsnotify"
	"github.com/corey/dakota/internal/config"
	"github.com/corey/dakota/internal/domain/patset"
	"github.com/corey/dakota/internal/domain/patsub"
	"github.com/corey/dakota/internal/log"
	"github.com/corey/dakota/internal/ports"
)

// App is the top-level object holding all dependencies.
type App struct {
	ProjectRoot string
	Paths       *Paths
	Config      config.Config

	// Store is opened on first use; commands that never touch stored sets
	// do not create the database.
	Store ports.PatternStore

	mu     sync.Mutex // serializes substitution and store access
	closer io.Closer
	dbPath string

	engine *patsub.Engine
	aho    *aho.Substituter

	newWatcher func() (ports.Watcher, error)
	runs       int
}

// Options holds initialization parameters for the App.
type Options struct {
	ProjectRoot string
	DBPath      string // path to bbolt file (default: .dakota/dakota.db)
	Config      config.Config

	// Store replaces the bbolt store, mainly for tests.
	Store ports.PatternStore
}

// New creates an App with all dependencies wired.
func New(opts Options) (*App, error) {
	if opts.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	root, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	paths := NewPaths(root)
	if opts.DBPath == "" {
		opts.DBPath = paths.DB
	}

	engine := patsub.New(nil)
	engine.Limit = opts.Config.MaxSource

	return &App{
		ProjectRoot: root,
		Paths:       paths,
		Config:      opts.Config,
		Store:       opts.Store,
		dbPath:      opts.DBPath,
		engine:      engine,
		newWatcher: func() (ports.Watcher, error) {
			return fsw.NewWatcher()
		},
	}, nil
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	a.Store = nil
	return err
}

// store returns the pattern store, opening the bbolt database on first use.
// Callers hold a.mu.
func (a *App) store() (ports.PatternStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(a.dbPath), err)
	}
	s, err := bbolt.NewStore(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debugf("Opened pattern store: %s", a.dbPath)
	a.Store, a.closer = s, s
	return s, nil
}

// SubstOptions selects the patterns and engine for Substitute.
type SubstOptions struct {
	Set      string          // stored set; falls back to Config.Set
	Patterns []ports.Pattern // applied over the set, later entries win
	Engine   string          // "merge" or "aho"; falls back to Config.Engine
}

// Substitute applies the selected patterns to src as a whole.
func (a *App) Substitute(src string, opts SubstOptions) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	patterns, err := a.patternsLocked(opts.Set, opts.Patterns)
	if err != nil {
		return "", err
	}
	sub, err := a.substituterLocked(opts.Engine)
	if err != nil {
		return "", err
	}
	if err := sub.Rebuild(patterns); err != nil {
		return "", err
	}
	log.Debugf("Substituting %d bytes with %d patterns", len(src), len(patterns))
	return sub.Substitute(src)
}

// Explain returns the spans the merge engine replaces in src.
func (a *App) Explain(src string, opts SubstOptions) ([]patsub.Match, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	patterns, err := a.patternsLocked(opts.Set, opts.Patterns)
	if err != nil {
		return nil, err
	}
	if err := a.engine.Rebuild(patterns); err != nil {
		return nil, err
	}
	return a.engine.Matches(src)
}

func (a *App) substituterLocked(name string) (ports.Substituter, error) {
	if name == "" {
		name = a.Config.EngineName()
	}
	switch name {
	case config.EngineMerge:
		return a.engine, nil
	case config.EngineAho:
		if a.aho == nil {
			a.aho = &aho.Substituter{}
		}
		return a.aho, nil
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

// patternsLocked layers the stored set (if any) and extra patterns. Later
// layers override earlier ones by name.
func (a *App) patternsLocked(set string, extra []ports.Pattern) ([]ports.Pattern, error) {
	if set == "" {
		set = a.Config.Set
	}
	var base []ports.Pattern
	if set != "" {
		store, err := a.store()
		if err != nil {
			return nil, err
		}
		base, err = store.LoadSet(set)
		if err != nil {
			return nil, err
		}
		if base == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoSet, set)
		}
	}
	return layer(base, extra)
}

// layer merges pattern lists; a later pattern replaces an earlier one with
// the same name. The result is in name order.
func layer(lists ...[]ports.Pattern) ([]ports.Pattern, error) {
	table := patset.New()
	for _, list := range lists {
		for _, p := range list {
			if err := table.Set(p.Name, p.Value); err != nil {
				return nil, fmt.Errorf("pattern %q: %w", p.Name, err)
			}
		}
	}
	return toPorts(table.Sorted()), nil
}

func toPorts(sorted []patset.Pattern) []ports.Pattern {
	out := make([]ports.Pattern, len(sorted))
	for i, p := range sorted {
		out[i] = ports.Pattern{Name: p.Name, Value: p.Value}
	}
	return out
}
