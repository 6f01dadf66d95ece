package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/resting/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateSchemaFlag bool

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>",
	Short: "Validate scripts without executing them",
	Long: `Parse and schema-check scripts without sending any request. No test runs,
so sleep and print have no effect.

Examples:
  resting validate login.yaml
  resting validate ./scripts/
  resting validate --schema > resting.schema.json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if validateSchemaFlag {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().BoolVar(&validateSchemaFlag, "schema", false, "Print the JSON schema scripts are checked against and exit")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	if validateSchemaFlag {
		schema := parser.Schema()
		cmd.OutOrStdout().Write(schema)
		if !bytes.HasSuffix(schema, []byte("\n")) {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	}

	files, err := collectFiles(args)
	if err != nil {
		return &ExitError{Code: ExitInvalid, Err: err}
	}

	if len(files) == 0 {
		return &ExitError{Code: ExitInvalid, Err: errNoScripts}
	}

	hasErrors := false
	for _, file := range files {
		if _, err := parser.ParseFile(file); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return &ExitError{Code: ExitInvalid, Err: errors.New("validation failed")}
	}

	return nil
}
