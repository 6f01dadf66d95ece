// Package assertions runs the tests attached to a resting step.
//
// Supported tests:
//   - sleep: pause the run for a number of seconds
//   - status: compare the status code of the last response
//   - eq: compare two templated values
//   - update_environment: set run variables from templated values
//   - print: write a templated message to the run output
//
// Every operand goes through the converter first, so tests can reference
// {environment.*} and {history.*} placeholders.
package assertions
