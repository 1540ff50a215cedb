package app

import (
	"os"
	"path/filepath"
)

// Dir is the name of the per-project state directory.
const Dir = ".dakota"

// Paths holds all resolved filesystem paths for the .dakota/ project directory.
// All fields are pre-computed strings.
type Paths struct {
	Root   string // .dakota/
	DB     string // .dakota/dakota.db
	Status string // .dakota/status.json
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, Dir)
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "dakota.db"),
		Status: filepath.Join(root, "status.json"),
	}
}

// EnsureDirs creates the .dakota/ directory. Idempotent.
func (p *Paths) EnsureDirs() error {
	return os.MkdirAll(p.Root, 0755)
}

// FindRoot walks up from dir looking for an existing .dakota/ directory and
// returns the directory containing it. The home directory is skipped since
// its .dakota/ holds the global configuration. When none is found dir itself
// is returned.
func FindRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	for d := abs; ; {
		if info, err := os.Stat(filepath.Join(d, Dir)); err == nil && info.IsDir() && d != home {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			return abs
		}
		d = parent
	}
}
