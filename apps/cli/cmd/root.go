package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "resting",
	Short: "Declarative HTTP scripts. One step at a time.",
	Long: `resting runs YAML or JSON scripts of HTTP requests in order. Each step
can reference earlier responses and environment values through {placeholders},
and its tests decide whether the script goes on or stops right there.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err unless it was already reported and returns the exit
// code for it.
func reportError(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitInvalid
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
