// Package env holds the variable Environment of a resting run.
//
// It provides functionality for:
//   - The mutable key/value store shared by all steps of one run
//   - Seeding it from the script's environment map
//   - Loading .env files (KEY=value, quoted values, export prefix)
//   - Importing prefixed OS environment variables
package env
