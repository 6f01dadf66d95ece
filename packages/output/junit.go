package output

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/assertions"
	"github.com/abdul-hamid-achik/resting/packages/core/runner"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents one script run
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	ID         string          `xml:"id,attr,omitempty"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr,omitempty"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitProperty is a name/value pair attached to a suite
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// JUnitTestCase represents a single step. A failed test is reported as a
// failure; a step that never got a response is an error.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitProblem `xml:"failure,omitempty"`
	Error     *JUnitProblem `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type JUnitProblem struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitSkipped represents a step never reached
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitFormatter formats run results as JUnit XML
type JUnitFormatter struct {
	writer     io.Writer
	testSuites []JUnitTestSuite
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer:     os.Stdout,
		testSuites: make([]JUnitTestSuite, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatResult(result *runner.RunResult) {
	suite := JUnitTestSuite{
		Name:      result.File,
		ID:        result.ID,
		Tests:     result.Total,
		Skipped:   result.Skipped(),
		Time:      result.Duration.Seconds(),
		Timestamp: time.Now().Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "state", Value: result.State.String()},
			{Name: "steps.run", Value: strconv.Itoa(result.Current)},
		},
		TestCases: make([]JUnitTestCase, 0, result.Total),
	}

	for _, s := range result.Steps {
		tc := JUnitTestCase{
			Name:      s.Label,
			ClassName: result.File,
			Time:      s.Duration.Seconds(),
		}
		if s.StatusCode != 0 {
			tc.SystemOut = fmt.Sprintf("%s %s -> %d (%d/%d tests)", s.Method, s.URL, s.StatusCode, s.TestsPassed, s.TestsTotal)
		}

		if s.Err != nil {
			var failure *assertions.Failure
			if errors.As(s.Err, &failure) {
				suite.Failures++
				tc.Failure = &JUnitProblem{
					Message: fmt.Sprintf("test %q failed", failure.Test),
					Type:    "AssertionError",
					Content: s.Err.Error(),
				}
			} else {
				suite.Errors++
				tc.Error = &JUnitProblem{
					Message: s.Err.Error(),
					Type:    "Error",
				}
			}
		}

		suite.TestCases = append(suite.TestCases, tc)
	}

	for _, label := range result.Pending {
		suite.TestCases = append(suite.TestCases, JUnitTestCase{
			Name:      label,
			ClassName: result.File,
			Skipped: &JUnitSkipped{
				Message: fmt.Sprintf("aborted on step %d", result.Current),
			},
		})
	}

	f.testSuites = append(f.testSuites, suite)
}

func (f *JUnitFormatter) FormatError(err error) {
	// Errors are included in individual test cases
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	var totalTests, totalFailures, totalErrors, totalSkipped int
	for _, suite := range f.testSuites {
		totalTests += suite.Tests
		totalFailures += suite.Failures
		totalErrors += suite.Errors
		totalSkipped += suite.Skipped
	}

	suites := JUnitTestSuites{
		Name:       "resting",
		Tests:      totalTests,
		Failures:   totalFailures,
		Errors:     totalErrors,
		Skipped:    totalSkipped,
		Time:       totalDuration.Seconds(),
		Timestamp:  time.Now().Format(time.RFC3339),
		TestSuites: f.testSuites,
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	return encoder.Encode(suites)
}
