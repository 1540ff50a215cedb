package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/dakota/internal/config"
	"github.com/corey/dakota/internal/log"
	"github.com/corey/dakota/internal/ports"
)

var setAddReplace bool

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Manage stored pattern sets",
	Long:  "Pattern sets are stored in .dakota/dakota.db and selected with --set or the set config field.",
}

var setListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored sets",
	Args:    cobra.NoArgs,
	RunE:    runSetList,
}

var setShowCmd = &cobra.Command{
	Use:   "show <set>",
	Short: "Print a set as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetShow,
}

var setAddCmd = &cobra.Command{
	Use:   "add <set> NAME=VALUE...",
	Short: "Add patterns to a set, creating it if needed",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSetAdd,
}

var setRemoveCmd = &cobra.Command{
	Use:   "rm <set> NAME...",
	Short: "Remove patterns from a set",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSetRemove,
}

var setDropCmd = &cobra.Command{
	Use:   "drop <set>",
	Short: "Delete a set",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetDrop,
}

var setImportCmd = &cobra.Command{
	Use:   "import <set> <file|->",
	Short: "Replace a set with the patterns of a YAML file",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetImport,
}

func init() {
	setAddCmd.Flags().BoolVar(&setAddReplace, "replace", false, "Overwrite existing names")

	setCmd.AddCommand(setListCmd)
	setCmd.AddCommand(setShowCmd)
	setCmd.AddCommand(setAddCmd)
	setCmd.AddCommand(setRemoveCmd)
	setCmd.AddCommand(setDropCmd)
	setCmd.AddCommand(setImportCmd)
}

func runSetList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.ListSets()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		log.Info("no stored sets")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, r := range rows {
		updated := ""
		if r.Info != nil && !r.Info.Updated.IsZero() {
			updated = r.Info.Updated.Local().Format(time.DateTime)
		}
		fmt.Fprintf(out, "%-24s %6d  %s\n", r.Name, r.Count, updated)
	}
	return nil
}

func runSetShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	set, err := a.ShowSet(args[0])
	if err != nil {
		return err
	}
	return config.EncodePatterns(cmd.OutOrStdout(), set)
}

func runSetAdd(cmd *cobra.Command, args []string) error {
	patterns, err := parseDefines(args[1:])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.AddToSet(args[0], patterns, setAddReplace); err != nil {
		return err
	}
	log.Success(fmt.Sprintf("%s: added %d", args[0], len(patterns)))
	return nil
}

func runSetRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.RemoveFromSet(args[0], args[1:]...); err != nil {
		return err
	}
	log.Success(fmt.Sprintf("%s: removed %d", args[0], len(args)-1))
	return nil
}

func runSetDrop(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.DropSet(args[0]); err != nil {
		return err
	}
	log.Success(args[0] + ": dropped")
	return nil
}

func runSetImport(cmd *cobra.Command, args []string) error {
	var (
		patterns []ports.Pattern
		err      error
	)
	if args[1] == "-" {
		patterns, err = config.DecodePatterns(cmd.InOrStdin())
	} else {
		patterns, err = config.LoadPatterns(args[1])
	}
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ImportSet(args[0], patterns); err != nil {
		return err
	}
	log.Success(fmt.Sprintf("%s: imported %d", args[0], len(patterns)))
	return nil
}
