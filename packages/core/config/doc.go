// Package config loads resting settings from .resting.yaml (or .yml/.json)
// in the working directory, or from an explicit path.
//
// Values missing from the file keep their defaults. Command line flags are
// applied on top with Merge, and the result is converted to runner and
// logger configurations.
package config
