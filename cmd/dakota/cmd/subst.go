package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/dakota/internal/app"
	"github.com/corey/dakota/internal/config"
	"github.com/corey/dakota/internal/ports"
)

var (
	substPatternFiles []string
	substDefines      []string
	substSet          string
	substEngine       string
	substExplain      bool
	substOutput       string
)

var substCmd = &cobra.Command{
	Use:   "subst [flags] [file|-]",
	Short: "Substitute patterns in a whole input",
	Long: `Replaces every occurrence of a pattern name with its value, scanning the
input left to right and preferring the longest name at each position.
Replacement text is never rescanned. Reads stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSubst,
}

func init() {
	f := substCmd.Flags()
	f.StringArrayVarP(&substPatternFiles, "patterns", "p", nil, "YAML pattern file (repeatable)")
	f.StringArrayVarP(&substDefines, "define", "D", nil, "Pattern NAME=VALUE (repeatable)")
	f.StringVar(&substSet, "set", "", "Stored pattern set")
	f.StringVar(&substEngine, "engine", "", "Matching engine: merge or aho (default from config)")
	f.BoolVar(&substExplain, "explain", false, "List the replaced spans instead of the output")
	f.StringVarP(&substOutput, "output", "o", "", "Output file (default: stdout)")
}

func runSubst(cmd *cobra.Command, args []string) error {
	var patterns []ports.Pattern
	for _, path := range substPatternFiles {
		list, err := config.LoadPatterns(path)
		if err != nil {
			return err
		}
		patterns = append(patterns, list...)
	}
	defines, err := parseDefines(substDefines)
	if err != nil {
		return err
	}
	patterns = append(patterns, defines...)

	var input string
	if len(args) > 0 {
		input = args[0]
	}
	src, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := app.SubstOptions{Set: substSet, Patterns: patterns, Engine: substEngine}
	if substExplain {
		matches, err := a.Explain(string(src), opts)
		if err != nil {
			return err
		}
		var b strings.Builder
		for _, m := range matches {
			fmt.Fprintf(&b, "%d-%d\t%s\t%s\n", m.Start, m.End, m.Pattern.Name, m.Pattern.Value)
		}
		return writeOutput(cmd, substOutput, b.String())
	}

	result, err := a.Substitute(string(src), opts)
	if err != nil {
		return err
	}
	return writeOutput(cmd, substOutput, result)
}
