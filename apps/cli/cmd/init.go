package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/resting/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new resting project",
	Long: `Initialize a new resting project in the current directory.

This creates:
  - .resting.yaml  - Configuration file
  - example.yaml   - Example script

Examples:
  resting init
  resting init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleScript = `environment:
  base: https://httpbin.org

steps:
  - label: create
    method: POST
    url: "{environment.base}/anything/users"
    headers:
      - name: Accept
        value: application/json
    json:
      name: ada
    tests:
      - status: 200
      - eq: ["{history.create.json.json.name}", ada]
      - update_environment:
          user: "{history.create.json.json.name}"

  - label: fetch
    method: GET
    url: "{environment.base}/anything/users/{environment.user}"
    tests:
      - status: 200
      - print: "fetched {history.last.json.url}"
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	exampleFile := filepath.Join(cwd, "example.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return &ExitError{Code: ExitInvalid, Err: fmt.Errorf("file already exists: %s (use --force to overwrite)", f)}
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{"User-Agent": "resting/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleScript), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nresting project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'resting run example.yaml' to execute the example script.\n")

	return nil
}
