package app

import (
	"context"
	"io"
	"time"

	"github.com/corey/dakota/internal/domain/status"
	"github.com/corey/dakota/internal/log"
)

// Watch runs Preprocess once, then again whenever one of the files it read
// changes, until ctx is cancelled. Each run writes to a fresh writer from
// out. onRun, if non-nil, is called after every run. A failed run does not
// stop watching: the files it managed to read stay watched.
func (a *App) Watch(ctx context.Context, path string, opts PreprocessOptions,
	out func() (io.WriteCloser, error), onRun func(Result, error)) error {

	w, err := a.newWatcher()
	if err != nil {
		return err
	}
	defer w.Stop()

	changes := make(chan string, 1)
	notify := func(file string) {
		select {
		case changes <- file:
		default: // a run is already pending
		}
	}

	run := func() []string {
		started := time.Now()
		res, err := a.runOnce(path, opts, out)
		a.writeStatus(path, res, err, started)
		if onRun != nil {
			onRun(res, err)
		}
		return res.Files
	}

	if err := w.Watch(run(), notify); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case file := <-changes:
			log.Debugf("Changed: %s", file)
			if err := w.Watch(run(), notify); err != nil {
				return err
			}
		}
	}
}

func (a *App) runOnce(path string, opts PreprocessOptions, out func() (io.WriteCloser, error)) (Result, error) {
	wc, err := out()
	if err != nil {
		return Result{Files: []string{path}}, err
	}
	res, err := a.Preprocess(path, wc, opts)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return res, err
}

// writeStatus records the run in .dakota/status.json. Failures are logged,
// not returned.
func (a *App) writeStatus(path string, res Result, runErr error, started time.Time) {
	a.mu.Lock()
	a.runs++
	runs := a.runs
	a.mu.Unlock()

	data := status.Generate(status.Run{
		Input:    path,
		Files:    res.Files,
		Defines:  len(res.Defines),
		Bytes:    res.Bytes,
		Err:      runErr,
		Started:  started,
		Finished: time.Now(),
	}, runs)

	if err := a.Paths.EnsureDirs(); err != nil {
		log.Debugf("status: %v", err)
		return
	}
	if err := status.WriteJSON(a.Paths.Status, data); err != nil {
		log.Debugf("status: %v", err)
	}
}
