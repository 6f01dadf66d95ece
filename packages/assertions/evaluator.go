package assertions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/core/converter"
	"github.com/abdul-hamid-achik/resting/packages/core/env"
	"github.com/abdul-hamid-achik/resting/packages/core/parser"
	"github.com/abdul-hamid-achik/resting/packages/history"
	"github.com/abdul-hamid-achik/resting/packages/value"
	"go.uber.org/zap"
)

var (
	ErrNoLastRequest = errors.New("no last request found")
	ErrArity         = errors.New("eq expects exactly 2 values")
)

type StatusError struct {
	Actual   int
	Expected int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("response status %d but %d expected", e.Actual, e.Expected)
}

type NotEqualError struct {
	Left  value.Value
	Right value.Value
}

func (e *NotEqualError) Error() string {
	return fmt.Sprintf("%s is not equal to %s", describe(e.Left), describe(e.Right))
}

// Failure reports the test that stopped a step.
type Failure struct {
	Test  string
	Index int
	Total int
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("test %q (%d of %d) failed:\n%s", f.Test, f.Index, f.Total, indent(f.Err.Error()))
}

func (f *Failure) Unwrap() error {
	return f.Err
}

type Evaluator struct {
	converter   *converter.Converter
	environment *env.Environment
	history     *history.History
	out         io.Writer
	logger      *zap.Logger
}

// EvaluatorOption is a functional option for configuring an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithOutput sets where print tests write. Defaults to stderr.
func WithOutput(w io.Writer) EvaluatorOption {
	return func(e *Evaluator) {
		e.out = w
	}
}

func WithLogger(logger *zap.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

func NewEvaluator(conv *converter.Converter, environment *env.Environment, hist *history.History, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		converter:   conv,
		environment: environment,
		history:     hist,
		out:         os.Stderr,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunAll runs tests in order and stops at the first failure, which is
// returned as a *Failure. The number of passed tests is always returned.
func (e *Evaluator) RunAll(ctx context.Context, tests []parser.Test) (int, error) {
	for i, t := range tests {
		if err := e.Run(ctx, t); err != nil {
			return i, &Failure{
				Test:  t.Name(),
				Index: i + 1,
				Total: len(tests),
				Err:   err,
			}
		}
	}
	return len(tests), nil
}

func (e *Evaluator) Run(ctx context.Context, test parser.Test) error {
	e.logger.Debug("running test", zap.String("test", test.Name()), zap.Int("line", test.Position()))

	switch t := test.(type) {
	case parser.Sleep:
		return e.sleep(ctx, t)
	case parser.Status:
		return e.status(ctx, t)
	case parser.Equal:
		return e.equal(ctx, t)
	case parser.UpdateEnvironment:
		return e.updateEnvironment(ctx, t)
	case parser.Print:
		return e.print(ctx, t)
	default:
		return fmt.Errorf("unknown test %q", test.Name())
	}
}

func (e *Evaluator) sleep(ctx context.Context, t parser.Sleep) error {
	v, err := e.converter.Convert(ctx, t.Duration)
	if err != nil {
		return err
	}
	seconds, err := value.AsFloat(v)
	if err != nil {
		return fmt.Errorf("invalid sleep duration: %w", err)
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("invalid sleep duration %s", value.Stringify(v))
	}

	d := time.Duration(seconds * float64(time.Second))
	e.logger.Debug("sleeping", zap.Duration("duration", d))

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Evaluator) status(ctx context.Context, t parser.Status) error {
	last := e.history.Last()
	if last == nil {
		return ErrNoLastRequest
	}

	v, err := e.converter.Convert(ctx, t.Expected)
	if err != nil {
		return err
	}
	expected, err := value.AsInt(v)
	if err != nil {
		return fmt.Errorf("invalid expected status: %w", err)
	}

	if last.Status() != expected {
		return &StatusError{Actual: last.Status(), Expected: expected}
	}
	return nil
}

func (e *Evaluator) equal(ctx context.Context, t parser.Equal) error {
	if len(t.Pair) != 2 {
		return fmt.Errorf("%w, got %d", ErrArity, len(t.Pair))
	}

	left, err := e.converter.Convert(ctx, t.Pair[0])
	if err != nil {
		return err
	}
	right, err := e.converter.Convert(ctx, t.Pair[1])
	if err != nil {
		return err
	}

	if !value.Equal(left, right) {
		return &NotEqualError{Left: left, Right: right}
	}
	return nil
}

func (e *Evaluator) updateEnvironment(ctx context.Context, t parser.UpdateEnvironment) error {
	if t.Values == nil {
		return nil
	}

	var err error
	t.Values.Range(func(k string, v value.Value) bool {
		var key string
		key, err = e.converter.ConvertString(ctx, k)
		if err != nil {
			return false
		}
		var converted value.Value
		converted, err = e.converter.Convert(ctx, v)
		if err != nil {
			return false
		}
		e.environment.Set(key, converted)
		e.logger.Debug("environment updated", zap.String("key", key))
		return true
	})
	return err
}

func (e *Evaluator) print(ctx context.Context, t parser.Print) error {
	v, err := e.converter.Convert(ctx, t.Message)
	if err != nil {
		return err
	}
	message := value.Stringify(v)
	e.logger.Info("print", zap.String("message", message))
	fmt.Fprintln(e.out, message)
	return nil
}

// describe renders v for failure messages. Strings are quoted so "1" and 1
// can be told apart.
func describe(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return value.Stringify(v)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
