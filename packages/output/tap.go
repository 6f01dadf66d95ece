package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/core/runner"
)

// TAPFormatter formats run results in TAP (Test Anything Protocol) format,
// one test point per step.
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
}

type tapResult struct {
	number  int
	name    string
	passed  bool
	skipped bool
	status  int
	error   string
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	for _, s := range result.Steps {
		f.testCount++
		tr := tapResult{
			number: f.testCount,
			name:   s.Label,
			passed: s.Passed,
			status: s.StatusCode,
		}
		if s.Err != nil {
			tr.error = s.Err.Error()
		}
		f.results = append(f.results, tr)
	}

	for _, label := range result.Pending {
		f.testCount++
		f.results = append(f.results, tapResult{
			number:  f.testCount,
			name:    label,
			skipped: true,
		})
	}
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	for _, r := range f.results {
		if r.skipped {
			fmt.Fprintf(f.writer, "ok %d - %s # SKIP not run\n", r.number, r.name)
			continue
		}

		if r.passed {
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
			continue
		}

		fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
		fmt.Fprintf(f.writer, "  ---\n")
		fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.error))
		if r.status != 0 {
			fmt.Fprintf(f.writer, "  status: %d\n", r.status)
		}
		fmt.Fprintf(f.writer, "  ...\n")
	}

	fmt.Fprintln(f.writer)

	return nil
}

func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		return "\"" + s + "\""
	}
	return s
}
