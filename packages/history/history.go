package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/http"
	"github.com/abdul-hamid-achik/resting/packages/value"
	"github.com/tidwall/gjson"
)

// LastAlias addresses the most recent entry.
const LastAlias = "last"

var (
	// ErrNotFound is returned when a label, index or field cannot be found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidLabel is returned by Add for labels that would be ambiguous.
	ErrInvalidLabel = errors.New("invalid label")
)

// LookupError describes a failed History query.
type LookupError struct {
	Key    string
	Path   string
	Reason string
}

func (e *LookupError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("history %q: %s", e.Key+"."+e.Path, e.Reason)
	}
	return fmt.Sprintf("history %q: %s", e.Key, e.Reason)
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

// Entry is one recorded exchange.
type Entry struct {
	Label    string
	Response *http.Response

	parsed  bool
	json    value.Value
	jsonErr error
}

func (e *Entry) Status() int {
	return e.Response.StatusCode
}

func (e *Entry) Reason() string {
	return e.Response.Reason()
}

// JSON parses the body on first use and caches the result.
func (e *Entry) JSON() (value.Value, error) {
	if !e.parsed {
		e.parsed = true
		if !gjson.ValidBytes(e.Response.Body) {
			e.jsonErr = fmt.Errorf("response %q body is not valid JSON", e.Label)
		} else {
			e.json = FromJSON(gjson.ParseBytes(e.Response.Body))
		}
	}
	return e.json, e.jsonErr
}

// History is the ordered record of the exchanges of one run. It is owned by a
// single run and is not safe for concurrent use.
type History struct {
	entries []*Entry
	byLabel map[string]*Entry
}

func New() *History {
	return &History{byLabel: make(map[string]*Entry)}
}

// Add records resp under label and returns the label actually used: a label
// already taken gets the first free numeric suffix starting at 2.
func (h *History) Add(label string, resp *http.Response) (string, error) {
	if err := ValidateLabel(label); err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("history: nil response for %q", label)
	}

	label = h.uniqueLabel(label)
	entry := &Entry{Label: label, Response: resp}
	h.entries = append(h.entries, entry)
	h.byLabel[label] = entry
	return label, nil
}

// ValidateLabel rejects labels that could not be told apart from an index or
// the last alias in a path.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidLabel)
	}
	if label == LastAlias {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidLabel, label)
	}
	if _, err := strconv.Atoi(label); err == nil {
		return fmt.Errorf("%w: %q is numeric", ErrInvalidLabel, label)
	}
	return nil
}

func (h *History) uniqueLabel(prefix string) string {
	if _, taken := h.byLabel[prefix]; !taken {
		return prefix
	}
	counter := 2
	for {
		candidate := prefix + strconv.Itoa(counter)
		if _, taken := h.byLabel[candidate]; !taken {
			return candidate
		}
		counter++
	}
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) Labels() []string {
	labels := make([]string, len(h.entries))
	for i, e := range h.entries {
		labels[i] = e.Label
	}
	return labels
}

// Last returns the most recent entry, or nil before the first exchange.
func (h *History) Last() *Entry {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[len(h.entries)-1]
}

func (h *History) LastLabel() string {
	if last := h.Last(); last != nil {
		return last.Label
	}
	return ""
}

// Get finds an entry by label, integer index (negative counts from the end)
// or the last alias.
func (h *History) Get(key string) (*Entry, bool) {
	if key == LastAlias {
		last := h.Last()
		return last, last != nil
	}
	if i, err := strconv.Atoi(key); err == nil {
		if i < 0 {
			i += len(h.entries)
		}
		if i < 0 || i >= len(h.entries) {
			return nil, false
		}
		return h.entries[i], true
	}
	e, ok := h.byLabel[key]
	return e, ok
}

// Query resolves a dotted path whose first segment selects an entry:
//
//	<key>.status
//	<key>.reason
//	<key>.headers.<name>
//	<key>.cookies.<name>
//	<key>.json[.<segment>...]
func (h *History) Query(ctx context.Context, segments []string) (value.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(segments) == 0 || segments[0] == "" {
		return nil, &LookupError{Reason: "empty path"}
	}

	key, rest := segments[0], segments[1:]
	entry, ok := h.Get(key)
	if !ok {
		return nil, &LookupError{Key: key, Reason: fmt.Sprintf("no response %q found", key)}
	}
	path := strings.Join(rest, ".")

	switch {
	case len(rest) == 1 && rest[0] == "status":
		return value.Number(entry.Status()), nil
	case len(rest) == 1 && rest[0] == "reason":
		return value.String(entry.Reason()), nil
	case len(rest) == 2 && rest[0] == "headers":
		values := entry.Response.Headers.Values(rest[1])
		if len(values) == 0 {
			return nil, &LookupError{Key: key, Path: path, Reason: fmt.Sprintf("no header %q", rest[1])}
		}
		return value.String(values[0]), nil
	case len(rest) == 2 && rest[0] == "cookies":
		v, found := entry.Response.Cookie(rest[1])
		if !found {
			return nil, &LookupError{Key: key, Path: path, Reason: fmt.Sprintf("no cookie %q", rest[1])}
		}
		return value.String(v), nil
	case len(rest) >= 1 && rest[0] == "json":
		body, err := entry.JSON()
		if err != nil {
			return nil, &LookupError{Key: key, Path: path, Reason: err.Error()}
		}
		v, failed, ok := value.Walk(body, rest[1:])
		if !ok {
			return nil, &LookupError{Key: key, Path: path, Reason: fmt.Sprintf("unknown item %s", rest[1+failed])}
		}
		return v, nil
	default:
		return nil, &LookupError{Key: key, Path: path, Reason: "unsupported response field"}
	}
}

// FromJSON converts a parsed gjson document, keeping object member order.
func FromJSON(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Null{}
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		if n := value.ParseNumber(r.Raw); n.Kind() == value.KindNumber {
			return n
		}
		return value.Number(r.Num)
	case gjson.String:
		return value.String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			arr := value.Array{}
			r.ForEach(func(_, item gjson.Result) bool {
				arr = append(arr, FromJSON(item))
				return true
			})
			return arr
		}
		obj := value.NewObject()
		r.ForEach(func(key, item gjson.Result) bool {
			obj.Set(key.Str, FromJSON(item))
			return true
		})
		return obj
	default:
		return value.Null{}
	}
}
