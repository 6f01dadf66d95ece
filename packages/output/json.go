package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/core/runner"
	"github.com/abdul-hamid-achik/resting/packages/value"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary  `json:"summary"`
	Runs     []JSONRun    `json:"runs"`
	Latency  *JSONLatency `json:"latency,omitempty"`
	Duration float64      `json:"duration"`
	Time     string       `json:"time"`
}

// JSONSummary counts runs and steps across all scripts
type JSONSummary struct {
	Runs    int `json:"runs"`
	Failed  int `json:"failed"`
	Steps   int `json:"steps"`
	Passed  int `json:"passed"`
	Skipped int `json:"skipped"`
}

// JSONRun represents a single script run
type JSONRun struct {
	ID          string        `json:"id"`
	File        string        `json:"file"`
	State       string        `json:"state"`
	Passed      bool          `json:"passed"`
	Steps       []JSONStep    `json:"steps"`
	Pending     []string      `json:"pending,omitempty"`
	Error       string        `json:"error,omitempty"`
	Environment *value.Object `json:"environment,omitempty"`
	Duration    float64       `json:"duration"`
}

// JSONStep represents one step of a run
type JSONStep struct {
	Label       string  `json:"label"`
	Number      int     `json:"number"`
	Method      string  `json:"method,omitempty"`
	URL         string  `json:"url,omitempty"`
	StatusCode  int     `json:"statusCode,omitempty"`
	Passed      bool    `json:"passed"`
	TestsPassed int     `json:"testsPassed"`
	TestsTotal  int     `json:"testsTotal"`
	Duration    float64 `json:"duration"`
	Error       string  `json:"error,omitempty"`
}

// JSONLatency holds response time percentiles in milliseconds
type JSONLatency struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer  io.Writer
	runs    []JSONRun
	latency *LatencyCollector
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		runs:    make([]JSONRun, 0),
		latency: NewLatencyCollector(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	run := JSONRun{
		ID:          result.ID,
		File:        result.File,
		State:       result.State.String(),
		Passed:      result.Passed(),
		Steps:       make([]JSONStep, 0, len(result.Steps)),
		Pending:     result.Pending,
		Environment: result.Environment,
		Duration:    ms(result.Duration),
	}
	if result.Err != nil {
		run.Error = result.Err.Error()
	}

	for _, s := range result.Steps {
		step := JSONStep{
			Label:       s.Label,
			Number:      s.Number,
			Method:      s.Method,
			URL:         s.URL,
			StatusCode:  s.StatusCode,
			Passed:      s.Passed,
			TestsPassed: s.TestsPassed,
			TestsTotal:  s.TestsTotal,
			Duration:    ms(s.Duration),
		}
		if s.Err != nil {
			step.Error = s.Err.Error()
		}
		run.Steps = append(run.Steps, step)
	}

	f.latency.RecordRun(result)
	f.runs = append(f.runs, run)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual run results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	summary.Runs = len(f.runs)
	for _, r := range f.runs {
		if !r.Passed {
			summary.Failed++
		}
		summary.Steps += len(r.Steps) + len(r.Pending)
		summary.Skipped += len(r.Pending)
		for _, s := range r.Steps {
			if s.Passed {
				summary.Passed++
			}
		}
	}

	output := JSONOutput{
		Summary:  summary,
		Runs:     f.runs,
		Duration: ms(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
	}
	if l := f.latency.Summary(); l != nil {
		output.Latency = &JSONLatency{
			Count: l.Count,
			Min:   ms(l.Min),
			Max:   ms(l.Max),
			Mean:  ms(l.Mean),
			P50:   ms(l.P50),
			P95:   ms(l.P95),
			P99:   ms(l.P99),
		}
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
