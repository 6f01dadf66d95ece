package parser

import (
	"strconv"

	"github.com/abdul-hamid-achik/resting/packages/value"
)

// DefaultLabel names steps that do not set one. History suffixes repeats
// (unnamed, unnamed2, ...).
const DefaultLabel = "unnamed"

// Test tags as they appear in scripts.
const (
	TagSleep             = "sleep"
	TagStatus            = "status"
	TagEqual             = "eq"
	TagUpdateEnvironment = "update_environment"
	TagPrint             = "print"
)

// Tags lists every accepted test tag.
var Tags = []string{TagSleep, TagStatus, TagEqual, TagUpdateEnvironment, TagPrint}

type Script struct {
	Path        string
	Environment *value.Object
	Steps       []*Step
}

type Step struct {
	Label   string
	Method  string
	URL     string
	Headers []*Header
	// JSON is nil when the step has no body.
	JSON  value.Value
	Tests []Test
	Line  int
}

type Header struct {
	Name  string
	Value string
	Line  int
}

// Test is one of Sleep, Status, Equal, UpdateEnvironment or Print.
type Test interface {
	// Name returns the tag the test was written with.
	Name() string
	// Position returns the script line of the test.
	Position() int
	test()
}

// Sleep pauses the run. Duration is in seconds and may be templated.
type Sleep struct {
	Duration value.Value
	Line     int
}

// Status checks the status code of the last response.
type Status struct {
	Expected value.Value
	Line     int
}

// Equal compares the two templated members of Pair.
type Equal struct {
	Pair value.Array
	Line int
}

// UpdateEnvironment sets run variables in declaration order.
type UpdateEnvironment struct {
	Values *value.Object
	Line   int
}

// Print writes a templated message to the run output.
type Print struct {
	Message value.Value
	Line    int
}

func (Sleep) Name() string             { return TagSleep }
func (Status) Name() string            { return TagStatus }
func (Equal) Name() string             { return TagEqual }
func (UpdateEnvironment) Name() string { return TagUpdateEnvironment }
func (Print) Name() string             { return TagPrint }

func (t Sleep) Position() int             { return t.Line }
func (t Status) Position() int            { return t.Line }
func (t Equal) Position() int             { return t.Line }
func (t UpdateEnvironment) Position() int { return t.Line }
func (t Print) Position() int             { return t.Line }

func (Sleep) test()             {}
func (Status) test()            {}
func (Equal) test()             {}
func (UpdateEnvironment) test() {}
func (Print) test()             {}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	var pos string
	if e.Line > 0 {
		pos = strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column)
	}
	switch {
	case e.File != "" && pos != "":
		return e.File + ":" + pos + ": " + e.Message
	case e.File != "":
		return e.File + ": " + e.Message
	case pos != "":
		return "line " + pos + ": " + e.Message
	default:
		return e.Message
	}
}
