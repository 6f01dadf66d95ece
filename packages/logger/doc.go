// Package logger builds the zap loggers used by resting.
package logger
