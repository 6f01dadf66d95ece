// Package output renders what a resting run does.
//
// Printer writes each exchange as it happens, with growing detail per
// verbosity level (status lines, then headers, then bodies).
//
// Run results can be formatted as:
//   - Console: Human-readable colored terminal output with a latency summary
//   - JSON: Machine-readable JSON output
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol format
//
// Formatters that accumulate results write them on Flush.
package output
