package app

import (
	"fmt"
	"io"

	"github.com/corey/dakota/internal/adapters/fons"
	"github.com/corey/dakota/internal/domain/cupl"
	"github.com/corey/dakota/internal/log"
	"github.com/corey/dakota/internal/ports"
)

// PreprocessOptions configures one preprocessing run. Include directories
// and definitions are added to those of the configuration.
type PreprocessOptions struct {
	IncludeDirs []string
	Defines     []ports.Pattern
	Set         string // stored set of predefined names; falls back to Config.Set
	NoExpand    bool
}

// Result describes a preprocessing run.
type Result struct {
	Files   []string        // every file read, in open order
	Defines []ports.Pattern // the table after the run, in name order
	Bytes   int64           // bytes written
}

// Preprocess runs the CUPL preprocessor over the file at path and writes the
// result to w. Predefined names come from the stored set, the configuration
// and opts, later sources overriding earlier ones. The result lists the
// files read so far even when the run fails.
func (a *App) Preprocess(path string, w io.Writer, opts PreprocessOptions) (Result, error) {
	a.mu.Lock()
	defines, err := a.patternsLocked(opts.Set, append(a.Config.DefinePatterns(), opts.Defines...))
	a.mu.Unlock()
	if err != nil {
		return Result{Files: []string{path}}, err
	}

	dirs := append(append([]string(nil), opts.IncludeDirs...), a.Config.IncludeDirs...)
	stream, err := fons.Open(path, fons.Options{IncludeDirs: dirs})
	if err != nil {
		return Result{Files: []string{path}}, err
	}
	defer stream.Close()

	pp, err := cupl.New(stream, cupl.Options{
		Expand:  !opts.NoExpand,
		Defines: defines,
		MaxLine: a.Config.MaxSource,
	})
	if err != nil {
		return Result{Files: stream.Files()}, err
	}

	cw := &countWriter{w: w}
	err = pp.Run(cw)
	res := Result{Files: stream.Files(), Defines: pp.Defines(), Bytes: cw.n}
	if err != nil {
		return res, err
	}
	log.Debugf("Preprocessed %s: %d files, %d defines, %d bytes", path, len(res.Files), len(res.Defines), res.Bytes)
	return res, nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil {
		return n, fmt.Errorf("write output: %w", err)
	}
	return n, nil
}
