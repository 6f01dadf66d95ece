package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/assertions"
	"github.com/abdul-hamid-achik/resting/packages/core/converter"
	"github.com/abdul-hamid-achik/resting/packages/core/env"
	"github.com/abdul-hamid-achik/resting/packages/core/parser"
	"github.com/abdul-hamid-achik/resting/packages/history"
	"github.com/abdul-hamid-achik/resting/packages/http"
	"github.com/abdul-hamid-achik/resting/packages/session"
	"github.com/abdul-hamid-achik/resting/packages/value"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Runner struct {
	client  *http.Client
	config  *Config
	logger  *zap.Logger
	printer session.Printer
	out     io.Writer
}

// Exchanger performs one exchange under a label and registers it in the
// run's history. *session.Session is the implementation used by Run.
type Exchanger interface {
	Request(ctx context.Context, label string, req *http.Request) (*http.Response, error)
}

type Config struct {
	Timeout         time.Duration
	FollowRedirects bool
	MaxRedirects    int
	ValidateSSL     bool
	Proxy           string
	Headers         map[string]string
	// Rate caps requests per second; zero disables the limit.
	Rate float64

	// EnvFile is a .env file seeding the environment.
	EnvFile string
	// EnvPrefix imports OS variables starting with it, prefix removed.
	EnvPrefix string
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithPrinter sets the printer every exchange is rendered with.
func WithPrinter(p session.Printer) Option {
	return func(r *Runner) {
		r.printer = p
	}
}

// WithOutput sets where print tests write. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithClient replaces the client built from Config.
func WithClient(c *http.Client) Option {
	return func(r *Runner) {
		r.client = c
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{FollowRedirects: true, ValidateSSL: true}
	}

	r := &Runner{
		config: cfg,
		logger: zap.NewNop(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		clientOpts := []http.ClientOption{
			http.WithFollowRedirects(cfg.FollowRedirects),
			http.WithValidateSSL(cfg.ValidateSSL),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
		}
		if cfg.MaxRedirects > 0 {
			clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		if len(cfg.Headers) > 0 {
			clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.Headers))
		}
		if cfg.Rate > 0 {
			clientOpts = append(clientOpts, http.WithRateLimit(cfg.Rate))
		}
		r.client = http.NewClient(clientOpts...)
	}

	return r
}

// RunFile parses and runs the script at path. The error is only set when the
// script could not be loaded; a failed run is reported through the result.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	script, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	seeds, err := r.seeds()
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	return r.Run(ctx, script, seeds...), nil
}

// seeds returns the environment layers configured outside the script, lowest
// precedence first.
func (r *Runner) seeds() ([]*value.Object, error) {
	var seeds []*value.Object
	if r.config.EnvPrefix != "" {
		seeds = append(seeds, env.LoadSystemEnv(r.config.EnvPrefix))
	}
	if r.config.EnvFile != "" {
		vars, err := env.LoadDotEnv(r.config.EnvFile)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, vars)
	}
	return seeds, nil
}

// Run executes script with a fresh Environment and History. Steps run one at
// a time in order; the first failing step aborts the run.
func (r *Runner) Run(ctx context.Context, script *parser.Script, seeds ...*value.Object) *RunResult {
	start := time.Now()

	result := &RunResult{
		ID:    uuid.NewString(),
		File:  script.Path,
		Total: len(script.Steps),
	}

	logger := r.logger.With(zap.String("run", result.ID))
	logger.Info("run started", zap.String("file", script.Path), zap.Int("steps", result.Total))

	layers := append(append([]*value.Object{}, seeds...), script.Environment)
	environment := env.New(layers...)
	hist := history.New()
	conv := converter.New(environment, hist)
	sess := session.New(r.client, hist, session.WithPrinter(r.printer), session.WithLogger(logger))
	evaluator := assertions.NewEvaluator(conv, environment, hist,
		assertions.WithOutput(r.out),
		assertions.WithLogger(logger),
	)

	result.State = Running
	for i, step := range script.Steps {
		result.Current = i + 1
		logger.Info("step started",
			zap.String("label", step.Label),
			zap.Int("number", i+1),
			zap.Int("total", result.Total),
		)

		stepResult, err := r.runStep(ctx, step, conv, sess, hist, evaluator)
		stepResult.Number = i + 1
		result.Steps = append(result.Steps, stepResult)

		if err != nil {
			stepErr := &StepError{
				Label:  step.Label,
				Number: i + 1,
				Total:  result.Total,
				Err:    err,
			}
			stepResult.Err = err
			result.State = StepFailed
			result.Err = stepErr

			var failure *assertions.Failure
			if errors.As(err, &failure) {
				logger.Warn("step failed", zap.String("label", step.Label), zap.String("test", failure.Test), zap.Error(err))
			} else {
				logger.Error("step aborted", zap.String("label", step.Label), zap.Error(err))
			}
			break
		}
		stepResult.Passed = true
	}

	if result.State == Running {
		result.State = Completed
	}
	for _, step := range script.Steps[len(result.Steps):] {
		result.Pending = append(result.Pending, step.Label)
	}
	result.Environment = environment.Root()
	result.Duration = time.Since(start)

	logger.Info("run finished",
		zap.String("state", result.State.String()),
		zap.Duration("duration", result.Duration),
	)
	return result
}

func (r *Runner) runStep(ctx context.Context, step *parser.Step, conv *converter.Converter, ex Exchanger, hist *history.History, evaluator *assertions.Evaluator) (*StepResult, error) {
	result := &StepResult{
		Label:      step.Label,
		TestsTotal: len(step.Tests),
	}

	req, err := r.buildRequest(ctx, step, conv)
	if err != nil {
		return result, err
	}
	result.Method = req.Method
	result.URL = req.URL

	resp, err := ex.Request(ctx, step.Label, req)
	if err != nil {
		return result, err
	}
	result.Label = hist.LastLabel()
	result.StatusCode = resp.StatusCode
	result.Duration = resp.Duration

	passed, err := evaluator.RunAll(ctx, step.Tests)
	result.TestsPassed = passed
	return result, err
}

func (r *Runner) buildRequest(ctx context.Context, step *parser.Step, conv *converter.Converter) (*http.Request, error) {
	method, err := conv.ConvertString(ctx, step.Method)
	if err != nil {
		return nil, err
	}
	url, err := conv.ConvertString(ctx, step.URL)
	if err != nil {
		return nil, err
	}

	req := http.NewRequest(method, url)
	for _, h := range step.Headers {
		name, err := conv.ConvertString(ctx, h.Name)
		if err != nil {
			return nil, err
		}
		v, err := conv.ConvertString(ctx, h.Value)
		if err != nil {
			return nil, err
		}
		req.AddHeader(name, v)
	}

	if step.JSON != nil {
		body, err := conv.Convert(ctx, step.JSON)
		if err != nil {
			return nil, err
		}
		req.SetJSON(body)
	}

	return req, nil
}
