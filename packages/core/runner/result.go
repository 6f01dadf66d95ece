package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/value"
)

// State is the lifecycle of one run. StepFailed and Completed are final.
type State int

const (
	NotStarted State = iota
	Running
	StepFailed
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case StepFailed:
		return "step failed"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

type RunResult struct {
	ID    string
	File  string
	State State
	// Current is the 1-based number of the running or failed step.
	Current  int
	Total    int
	Steps    []*StepResult
	// Pending lists the labels of the steps never reached.
	Pending  []string
	Duration time.Duration
	// Environment holds the variables as the run left them.
	Environment *value.Object
	// Err is a *StepError when State is StepFailed.
	Err error
}

func (r *RunResult) Passed() bool {
	return r.State == Completed
}

// Skipped is the number of steps never reached.
func (r *RunResult) Skipped() int {
	return len(r.Pending)
}

type StepResult struct {
	// Label is the label the response was stored under.
	Label       string
	Number      int
	Method      string
	URL         string
	StatusCode  int
	Duration    time.Duration
	TestsPassed int
	TestsTotal  int
	Passed      bool
	Err         error
}

// StepError aborts a run. It wraps whatever stopped the step: a test
// failure, an unresolved placeholder or a transport error.
type StepError struct {
	Label  string
	Number int
	Total  int
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("abort on step %q (%d of %d):\n  %s",
		e.Label, e.Number, e.Total, strings.ReplaceAll(e.Err.Error(), "\n", "\n  "))
}

func (e *StepError) Unwrap() error {
	return e.Err
}
