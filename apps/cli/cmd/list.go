package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/core/parser"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>",
	Short: "List the steps of scripts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return &ExitError{Code: ExitInvalid, Err: err}
	}

	if len(files) == 0 {
		return &ExitError{Code: ExitInvalid, Err: errNoScripts}
	}

	for _, file := range files {
		script, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, step := range script.Steps {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s: %s %s\n", step.Label, step.Method, step.URL)
			if len(step.Tests) > 0 {
				names := make([]string, len(step.Tests))
				for i, t := range step.Tests {
					names[i] = t.Name()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "    tests: %s\n", strings.Join(names, ", "))
			}
		}
	}

	return nil
}
