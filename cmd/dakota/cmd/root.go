// Package cmd defines the dakota command-line interface using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/dakota/internal/app"
	"github.com/corey/dakota/internal/config"
	"github.com/corey/dakota/internal/log"
	"github.com/corey/dakota/internal/ports"
)

var (
	rootVerbose bool
	rootQuiet   bool
	rootConfig  string
)

// State resolved by the root command before any subcommand runs.
var (
	projectRoot string
	cfg         config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dakota",
	Short: "CUPL preprocessor, pattern substitution and JEDEC tools",
	Long: `dakota expands $include and $define directives in CUPL sources,
substitutes literal patterns (longest match wins) and reads, verifies
and rewrites JEDEC fuse maps.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&rootVerbose, "verbose", "v", false, "Show debug output")
	pf.BoolVarP(&rootQuiet, "quiet", "q", false, "Suppress all messages (exit code only)")
	pf.StringVar(&rootConfig, "config", "", "Config file (default: dakota.yaml in the project)")

	rootCmd.AddCommand(ppCmd)
	rootCmd.AddCommand(substCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(jedecCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command. Errors are logged before being returned.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Error(err.Error())
	}
	return err
}

// setup resolves the project root, loads configuration and applies the log
// level. Flags win over the configured level.
func setup(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	projectRoot = app.FindRoot(dir)

	log.DisableQuietMode()
	log.SetLevel(log.LevelInfo)
	switch {
	case rootQuiet:
		log.EnableQuietMode()
	case rootVerbose:
		log.SetLevel(log.LevelDebug)
	}

	cfg, err = config.LoadConfig(projectRoot, rootConfig)
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" && !rootQuiet && !rootVerbose {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		log.SetLevel(level)
	}
	return nil
}

// openApp builds the application for the resolved project. Callers close it.
func openApp() (*app.App, error) {
	return app.New(app.Options{ProjectRoot: projectRoot, Config: cfg})
}

// parseDefines converts NAME=VALUE flags into patterns.
func parseDefines(defs []string) ([]ports.Pattern, error) {
	out := make([]ports.Pattern, 0, len(defs))
	for _, d := range defs {
		p, err := config.ParseDefine(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
