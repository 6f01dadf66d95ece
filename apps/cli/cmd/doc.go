// Package cmd implements the resting CLI commands using Cobra.
//
// Available commands:
//   - run: Execute scripts, optionally watching them for changes
//   - validate: Parse and schema-check scripts without executing
//   - list: Display the steps of scripts
//   - init: Create a config file and an example script
//   - version: Show version information
//
// Exit codes are 0 when every script completes, 1 for malformed scripts or
// unusable input, and 2 when a script ran but aborted on a step.
package cmd
