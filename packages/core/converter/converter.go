package converter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/core/env"
	"github.com/abdul-hamid-achik/resting/packages/value"
)

const (
	NamespaceEnvironment = "environment"
	NamespaceHistory     = "history"

	// PathPrefix marks a string leaf that is replaced by the raw value at
	// the path that follows it, e.g. "_path_:history.last.json.id".
	PathPrefix = "_path_:"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_.-]+)\}`)

var (
	// ErrInvalidPath matches every unresolved placeholder.
	ErrInvalidPath = errors.New("invalid path")
	// ErrEmptyEnvironment is raised when environment.* is used but the run
	// has no variables. It also matches ErrInvalidPath.
	ErrEmptyEnvironment = errors.New("empty environment")
)

// PathError reports a placeholder that could not be resolved.
type PathError struct {
	Path    string
	Segment string
	Err     error
}

func (e *PathError) Error() string {
	if errors.Is(e.Err, ErrEmptyEnvironment) {
		return fmt.Sprintf("empty environment: invalid path %q", e.Path)
	}
	msg := fmt.Sprintf("invalid path %q", e.Path)
	if e.Segment != "" {
		msg += ": unknown item " + e.Segment
	}
	return msg
}

func (e *PathError) Is(target error) bool {
	return target == ErrInvalidPath
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// HistoryQuerier answers history.* paths. The segments exclude the namespace.
type HistoryQuerier interface {
	Query(ctx context.Context, segments []string) (value.Value, error)
}

// Converter substitutes {namespace.path} placeholders inside values. It only
// reads from its sources; it is bound to a single run.
type Converter struct {
	environment *env.Environment
	history     HistoryQuerier
}

func New(environment *env.Environment, history HistoryQuerier) *Converter {
	return &Converter{
		environment: environment,
		history:     history,
	}
}

// Convert returns a copy of v with every string leaf and object key templated.
// Containers keep their shape and order; non-string scalars are returned as is.
// A string leaf starting with PathPrefix resolves to the value at its path
// without being stringified.
func (c *Converter) Convert(ctx context.Context, v value.Value) (value.Value, error) {
	switch x := v.(type) {
	case *value.Object:
		result := value.NewObject()
		var err error
		x.Range(func(k string, member value.Value) bool {
			var key string
			key, err = c.ConvertString(ctx, k)
			if err != nil {
				return false
			}
			var converted value.Value
			converted, err = c.Convert(ctx, member)
			if err != nil {
				return false
			}
			result.Set(key, converted)
			return true
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	case value.Array:
		result := make(value.Array, len(x))
		for i, item := range x {
			converted, err := c.Convert(ctx, item)
			if err != nil {
				return nil, err
			}
			result[i] = converted
		}
		return result, nil
	case value.String:
		if path, ok := strings.CutPrefix(string(x), PathPrefix); ok {
			return c.Resolve(ctx, path)
		}
		s, err := c.ConvertString(ctx, string(x))
		if err != nil {
			return nil, err
		}
		return value.String(s), nil
	default:
		return v, nil
	}
}

// ConvertString resolves every placeholder of s before substituting any of
// them, so a failing path leaves nothing half-applied.
func (c *Converter) ConvertString(ctx context.Context, s string) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	substitutes := make(map[string]string, len(matches))
	for _, m := range matches {
		if _, done := substitutes[m[0]]; done {
			continue
		}
		resolved, err := c.Resolve(ctx, m[1])
		if err != nil {
			return "", err
		}
		substitutes[m[0]] = value.Stringify(resolved)
	}

	return placeholderPattern.ReplaceAllStringFunc(s, func(placeholder string) string {
		return substitutes[placeholder]
	}), nil
}

// Resolve looks up one dotted path such as environment.user.name or
// history.last.json.id.
func (c *Converter) Resolve(ctx context.Context, path string) (value.Value, error) {
	namespace, rest, _ := strings.Cut(path, ".")

	switch namespace {
	case NamespaceEnvironment:
		if rest == "" || c.environment.IsEmpty() {
			return nil, &PathError{Path: path, Err: ErrEmptyEnvironment}
		}
		segments := strings.Split(rest, ".")
		v, failed, ok := value.Walk(c.environment.Root(), segments)
		if !ok {
			return nil, &PathError{Path: path, Segment: segments[failed]}
		}
		return v, nil
	case NamespaceHistory:
		if c.history == nil || rest == "" {
			return nil, &PathError{Path: path}
		}
		return c.history.Query(ctx, strings.Split(rest, "."))
	default:
		return nil, &PathError{Path: path}
	}
}
