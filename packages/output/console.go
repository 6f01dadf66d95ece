package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/core/parser"
	"github.com/abdul-hamid-achik/resting/packages/core/runner"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Running: "+result.File))
	if f.verbose {
		fmt.Fprintf(f.writer, "Run:     %s\n", result.ID)
	}
	fmt.Fprintf(f.writer, "\n")

	for _, s := range result.Steps {
		symbol := green("✓")
		if !s.Passed {
			symbol = red("✗")
		}

		fmt.Fprintf(f.writer, "  %s %s", symbol, s.Label)
		if s.Method != "" {
			fmt.Fprintf(f.writer, " %s %s", s.Method, s.URL)
		}
		if s.StatusCode != 0 {
			fmt.Fprintf(f.writer, " %s", cyan(fmt.Sprintf("%d (%dms)", s.StatusCode, s.Duration.Milliseconds())))
		}
		if s.TestsTotal > 0 {
			fmt.Fprintf(f.writer, " %d/%d tests", s.TestsPassed, s.TestsTotal)
		}
		fmt.Fprintf(f.writer, "\n")
	}

	for _, label := range result.Pending {
		fmt.Fprintf(f.writer, "  %s %s (not run)\n", yellow("-"), label)
	}

	if result.Err != nil {
		fmt.Fprintf(f.writer, "\n")
		for _, line := range strings.Split(result.Err.Error(), "\n") {
			fmt.Fprintf(f.writer, "  %s\n", red(line))
		}
	}

	passed, failed := 0, 0
	for _, s := range result.Steps {
		if s.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Steps:   ")
	if passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", failed)))
	}
	if result.Skipped() > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d not run", result.Skipped())))
	}
	fmt.Fprintf(f.writer, "%d total\n", result.Total)

	if latency := LatencyOf(result); latency != nil {
		fmt.Fprintf(f.writer, "Latency: min %dms, p50 %dms, p95 %dms, p99 %dms, max %dms\n",
			latency.Min.Milliseconds(), latency.P50.Milliseconds(), latency.P95.Milliseconds(),
			latency.P99.Milliseconds(), latency.Max.Milliseconds())
	}
	fmt.Fprintf(f.writer, "Time:    %dms\n", result.Duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

// FormatPlan lists what a run of script would do without sending anything.
func (f *ConsoleFormatter) FormatPlan(script *parser.Script) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Plan: "+script.Path))
	if script.Environment != nil && script.Environment.Len() > 0 {
		fmt.Fprintf(f.writer, "  environment: %s\n", strings.Join(script.Environment.Keys(), ", "))
	}
	for i, step := range script.Steps {
		fmt.Fprintf(f.writer, "  %d. %s %s %s\n", i+1, step.Label, cyan(step.Method), step.URL)
		for _, t := range step.Tests {
			fmt.Fprintf(f.writer, "       - %s\n", t.Name())
		}
	}
	fmt.Fprintf(f.writer, "\n%d steps\n", len(script.Steps))
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("resting"), version)
}
