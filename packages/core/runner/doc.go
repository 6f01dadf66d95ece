// Package runner executes resting scripts.
//
// A run owns a fresh Environment and History. Steps are processed strictly
// in order: the request is templated, sent through a session, and the step's
// tests run against the updated state. The first error aborts the run and is
// reported as a *StepError naming the step and its position.
package runner
