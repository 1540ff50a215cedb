package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/corey/dakota/internal/app"
	"github.com/corey/dakota/internal/config"
	"github.com/corey/dakota/internal/log"
)

var configYAML bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the project root, the config files that were loaded, the resolved settings and state paths.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configYAML, "yaml", false, "Print the merged configuration as YAML")
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if configYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}

	paths := app.NewPaths(projectRoot)
	sources := "none"
	if len(cfg.Sources) > 0 {
		sources = strings.Join(cfg.Sources, ", ")
	}

	fmt.Fprintln(out, log.Style.Bold("dakota config"))
	fmt.Fprintf(out, "  Root:       %s\n", projectRoot)
	fmt.Fprintf(out, "  Global:     %s\n", config.GlobalPath())
	fmt.Fprintf(out, "  Loaded:     %s\n", sources)
	fmt.Fprintf(out, "  DB:         %s\n", paths.DB)
	fmt.Fprintf(out, "  Status:     %s\n", paths.Status)
	fmt.Fprintf(out, "  Engine:     %s\n", cfg.EngineName())
	fmt.Fprintf(out, "  Set:        %s\n", orNone(cfg.Set))
	fmt.Fprintf(out, "  Includes:   %s\n", orNone(strings.Join(cfg.IncludeDirs, ", ")))
	fmt.Fprintf(out, "  Defines:    %d\n", len(cfg.Defines))
	if cfg.MaxSource > 0 {
		fmt.Fprintf(out, "  Max source: %d bytes\n", cfg.MaxSource)
	}
	if cfg.LogLevel != "" {
		fmt.Fprintf(out, "  Log level:  %s\n", cfg.LogLevel)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
