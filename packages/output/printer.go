package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/http"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Verbosity levels of the exchange printer.
const (
	VerboseNone    = 0
	VerboseStatus  = 1
	VerboseHeaders = 2
	VerboseBodies  = 3
)

// DefaultMaxHeaderWidth is the width header values are truncated to.
const DefaultMaxHeaderWidth = 80

// Printer renders requests and responses as they happen.
type Printer struct {
	writer         io.Writer
	verbose        int
	noColor        bool
	maxHeaderWidth int
}

type PrinterOption func(*Printer)

func NewPrinter(opts ...PrinterOption) *Printer {
	p := &Printer{
		writer:         os.Stdout,
		maxHeaderWidth: DefaultMaxHeaderWidth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func PrinterWithWriter(w io.Writer) PrinterOption {
	return func(p *Printer) {
		p.writer = w
	}
}

func PrinterWithVerbose(level int) PrinterOption {
	return func(p *Printer) {
		p.verbose = level
	}
}

func PrinterWithNoColor(nc bool) PrinterOption {
	return func(p *Printer) {
		p.noColor = nc
	}
}

// PrinterWithMaxHeaderWidth sets the header value width; 0 disables truncation.
func PrinterWithMaxHeaderWidth(n int) PrinterOption {
	return func(p *Printer) {
		p.maxHeaderWidth = n
	}
}

func (p *Printer) PrintExchange(label string, req *http.Request, resp *http.Response) {
	if p.verbose <= VerboseNone {
		return
	}

	bold := p.paint(color.Bold)
	cyan := p.paint(color.FgCyan)
	faint := p.paint(color.Faint)

	fmt.Fprintf(p.writer, "%s %s %s %s\n", cyan("→"), bold(label), req.Method, req.URL)
	if p.verbose >= VerboseHeaders {
		p.printHeaders(req.Sent)
	}
	if p.verbose >= VerboseBodies && len(req.SentBody) > 0 {
		p.printBody(req.SentBody, true)
	}

	fmt.Fprintf(p.writer, "%s %s %s\n", cyan("←"), p.status(resp), faint(fmt.Sprintf("(%dms)", resp.DurationMs())))
	if p.verbose >= VerboseHeaders {
		p.printHeaders(resp.Headers)
	}
	if p.verbose >= VerboseBodies && len(resp.Body) > 0 {
		p.printBody(resp.Body, resp.IsJSON())
	}
}

func (p *Printer) status(resp *http.Response) string {
	text := fmt.Sprintf("%d %s", resp.StatusCode, resp.Reason())
	switch {
	case resp.IsSuccess():
		return p.paint(color.FgGreen, color.Bold)(text)
	case resp.IsRedirect():
		return p.paint(color.FgCyan, color.Bold)(text)
	case resp.StatusCode >= 500:
		return p.paint(color.FgRed, color.Bold)(text)
	case resp.StatusCode >= 400:
		return p.paint(color.FgYellow, color.Bold)(text)
	default:
		return p.paint(color.Bold)(text)
	}
}

func (p *Printer) printHeaders(headers map[string][]string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	key := p.paint(color.FgBlue)
	for _, name := range names {
		for _, v := range headers[name] {
			fmt.Fprintf(p.writer, "  %s: %s\n", key(name), truncate(v, p.maxHeaderWidth))
		}
	}
}

func (p *Printer) printBody(body []byte, isJSON bool) {
	if isJSON && gjson.ValidBytes(body) {
		formatted := pretty.Pretty(body)
		if !p.noColor && !color.NoColor {
			formatted = pretty.Color(formatted, nil)
		}
		p.writer.Write(indentLines(formatted))
		return
	}
	p.writer.Write(indentLines(body))
	if body[len(body)-1] != '\n' {
		fmt.Fprintln(p.writer)
	}
}

// paint returns a sprint func for attrs. fatih/color turns itself off when
// stdout is not a terminal.
func (p *Printer) paint(attrs ...color.Attribute) func(a ...interface{}) string {
	if p.noColor {
		return fmt.Sprint
	}
	return color.New(attrs...).SprintFunc()
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func indentLines(b []byte) []byte {
	lines := strings.SplitAfter(string(b), "\n")
	var sb strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		sb.WriteString("  ")
		sb.WriteString(line)
	}
	return []byte(sb.String())
}
