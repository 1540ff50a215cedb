package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corey/dakota/internal/app"
	"github.com/corey/dakota/internal/log"
)

var (
	ppIncludeDirs []string
	ppDefines     []string
	ppSet         string
	ppNoExpand    bool
	ppOutput      string
	ppWatch       bool
)

var ppCmd = &cobra.Command{
	Use:   "pp [flags] <file>",
	Short: "Preprocess a CUPL source",
	Long: `Expands $include and $define directives and substitutes defined names
in the remaining lines. Predefined names come from the stored set, the
configuration and -D flags, later sources winning.

With --watch the source is preprocessed again whenever it or any file it
includes changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runPP,
}

func init() {
	f := ppCmd.Flags()
	f.StringArrayVarP(&ppIncludeDirs, "include", "I", nil, "Add an include directory (repeatable)")
	f.StringArrayVarP(&ppDefines, "define", "D", nil, "Predefine NAME=VALUE (repeatable)")
	f.StringVar(&ppSet, "set", "", "Stored pattern set of predefined names")
	f.BoolVar(&ppNoExpand, "no-expand", false, "Process directives without substituting names")
	f.StringVarP(&ppOutput, "output", "o", "", "Output file (default: stdout)")
	f.BoolVarP(&ppWatch, "watch", "w", false, "Re-run when an input file changes")
}

func runPP(cmd *cobra.Command, args []string) error {
	defines, err := parseDefines(ppDefines)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := app.PreprocessOptions{
		IncludeDirs: ppIncludeDirs,
		Defines:     defines,
		Set:         ppSet,
		NoExpand:    ppNoExpand,
	}
	if ppWatch {
		return watchPP(cmd, a, args[0], opts)
	}

	out, err := createOutput(cmd, ppOutput)
	if err != nil {
		return err
	}
	res, err := a.Preprocess(args[0], out, opts)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		removeOutput(ppOutput)
		return err
	}
	log.Debugf("%d files, %d names, %d bytes", len(res.Files), len(res.Defines), res.Bytes)
	return nil
}

func watchPP(cmd *cobra.Command, a *app.App, path string, opts app.PreprocessOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Messages interleave with the output when it goes to the terminal.
	if ppOutput == "" || ppOutput == "-" {
		log.SetPrefix(true)
		defer log.SetPrefix(false)
	}

	out := func() (io.WriteCloser, error) { return createOutput(cmd, ppOutput) }
	onRun := func(res app.Result, err error) {
		if err != nil {
			log.Errorf("%v", err)
			return
		}
		log.Success(fmt.Sprintf("%s: %d bytes, watching %d files", path, res.Bytes, len(res.Files)))
		if log.GetLevel() <= log.LevelDebug {
			for _, f := range res.Files {
				log.Debug("  " + f)
			}
		}
	}

	log.Infof("Watching %s %s", path, log.Style.Dim("(Ctrl-C to stop)"))
	return a.Watch(ctx, path, opts, out, onRun)
}
