package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/core/config"
	"github.com/abdul-hamid-achik/resting/packages/core/parser"
	"github.com/abdul-hamid-achik/resting/packages/core/runner"
	"github.com/abdul-hamid-achik/resting/packages/logger"
	"github.com/abdul-hamid-achik/resting/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>",
	Short: "Run scripts",
	Long: `Run the steps of YAML or JSON scripts in order, stopping a script at the
first step that fails.

Examples:
  resting run login.yaml
  resting run login.yaml --env-file .env.staging
  resting run ./scripts/ -vv
  resting run login.yaml --output junit --output-file report.xml
  resting run login.yaml --wait-for http://localhost:8080/health
  resting run login.yaml --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var errNoScripts = errors.New("no .yaml, .yml or .json scripts found")

var (
	envFileFlag     string
	envPrefixFlag   string
	configFlag      string
	verboseFlag     int // 0=off, 1=-v, 2=-vv, 3=-vvv
	noColorFlag     bool
	outputFlag      string
	outputFileFlag  string
	timeoutFlag     string
	dryRunFlag      bool
	watchFlag       bool
	proxyFlag       string
	insecureFlag    bool
	rateFlag        float64
	logLevelFlag    string
	logFormatFlag   string
	waitForFlag     string
	waitStatusFlag  int
	waitTimeoutFlag string
)

func init() {
	// Core flags
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("RESTING_ENV_FILE", ""), "Path to .env file seeding the environment (env: RESTING_ENV_FILE)")
	runCmd.Flags().StringVar(&envPrefixFlag, "env-prefix", getEnvString("RESTING_ENV_PREFIX", ""), "Seed the environment with OS variables starting with this prefix (env: RESTING_ENV_PREFIX)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("RESTING_CONFIG", ""), "Path to config file (env: RESTING_CONFIG)")

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Print exchanges (-v status, -vv headers, -vvv bodies)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("RESTING_NO_COLOR", false), "Disable colored output (env: RESTING_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("RESTING_OUTPUT", ""), "Output format: console, json, junit, tap (env: RESTING_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("RESTING_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: RESTING_OUTPUT_FILE)")
	runCmd.Flags().StringVar(&logLevelFlag, "log-level", getEnvString("RESTING_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: RESTING_LOG_LEVEL)")
	runCmd.Flags().StringVar(&logFormatFlag, "log-format", getEnvString("RESTING_LOG_FORMAT", ""), "Log format: console, json (env: RESTING_LOG_FORMAT)")

	// Execution flags
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("RESTING_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: RESTING_TIMEOUT)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Parse and show what would run without executing")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch scripts for changes and re-run them")
	runCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("RESTING_RATE", 0), "Maximum requests per second, 0 for no limit (env: RESTING_RATE)")
	runCmd.Flags().StringVar(&waitForFlag, "wait-for", getEnvString("RESTING_WAIT_FOR", ""), "URL to poll until ready before running (env: RESTING_WAIT_FOR)")
	runCmd.Flags().IntVar(&waitStatusFlag, "wait-status", getEnvInt("RESTING_WAIT_STATUS", 200), "Status --wait-for expects (env: RESTING_WAIT_STATUS)")
	runCmd.Flags().StringVar(&waitTimeoutFlag, "wait-timeout", getEnvString("RESTING_WAIT_TIMEOUT", "30s"), "How long to wait for --wait-for (env: RESTING_WAIT_TIMEOUT)")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("RESTING_PROXY", ""), "Proxy URL for HTTP requests (env: RESTING_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("RESTING_INSECURE", false), "Disable SSL certificate validation (env: RESTING_INSECURE)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func newFormatter(format string, w io.Writer, verbose int, noColor bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w)), nil
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w)), nil
	case "console", "":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(verbose > 0),
			output.WithNoColor(noColor),
		), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use console, json, junit or tap)", format)
	}
}

// buildConfig loads the config file and applies the command line on top.
func buildConfig() (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	flags := &config.Config{
		Proxy:     proxyFlag,
		Rate:      rateFlag,
		EnvFile:   envFileFlag,
		EnvPrefix: envPrefixFlag,
		Output:    outputFlag,
		Verbose:   verboseFlag,
		LogLevel:  logLevelFlag,
		LogFormat: logFormatFlag,
	}
	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		flags.Timeout = int(timeout.Milliseconds())
	}
	if insecureFlag {
		flags.ValidateSSL = config.BoolPtr(false)
	}
	if noColorFlag {
		flags.NoColor = config.BoolPtr(true)
	}

	return fileConfig.Merge(flags), nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return &ExitError{Code: ExitInvalid, Err: err}
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return &ExitError{Code: ExitInvalid, Err: err}
	}
	defer func() { _ = logger.Sync(log) }()

	files, err := collectFiles(args)
	if err != nil {
		return &ExitError{Code: ExitInvalid, Err: err}
	}
	if len(files) == 0 {
		return &ExitError{Code: ExitInvalid, Err: errNoScripts}
	}

	out := cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return &ExitError{Code: ExitInvalid, Err: fmt.Errorf("cannot create output file: %w", err)}
		}
		defer f.Close()
		out = f
	}

	if dryRunFlag {
		return dryRun(cmd, files, out, cfg)
	}

	// Exchanges and print tests share stdout with the console report only;
	// machine readable reports keep stdout to themselves.
	stream := out
	if outputFileFlag != "" || !isConsole(cfg.Output) {
		stream = cmd.ErrOrStderr()
	}

	printer := output.NewPrinter(
		output.PrinterWithWriter(stream),
		output.PrinterWithVerbose(cfg.Verbose),
		output.PrinterWithNoColor(cfg.GetNoColor()),
	)
	r := runner.NewRunner(cfg.RunnerConfig(),
		runner.WithLogger(log),
		runner.WithPrinter(printer),
		runner.WithOutput(stream),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if waitForFlag != "" {
		waitTimeout, err := time.ParseDuration(waitTimeoutFlag)
		if err != nil {
			return &ExitError{Code: ExitInvalid, Err: fmt.Errorf("invalid wait timeout %q: %w", waitTimeoutFlag, err)}
		}
		err = r.WaitFor(ctx, runner.WaitConfig{
			URL:     waitForFlag,
			Status:  waitStatusFlag,
			Timeout: waitTimeout,
		})
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
	}

	runScripts := func() (int, error) {
		formatter, err := newFormatter(cfg.Output, out, cfg.Verbose, cfg.GetNoColor())
		if err != nil {
			return ExitInvalid, err
		}
		formatter.FormatHeader(version)

		code := ExitSuccess
		startTime := time.Now()
		for _, file := range files {
			result, err := r.RunFile(ctx, file)
			if err != nil {
				formatter.FormatError(fmt.Errorf("%s: %w", file, err))
				if !isConsole(cfg.Output) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s: %v\n", file, err)
				}
				if code == ExitSuccess {
					code = ExitInvalid
				}
				continue
			}

			formatter.FormatResult(result)
			if !result.Passed() && code == ExitSuccess {
				code = ExitFailure
			}
			if ctx.Err() != nil {
				break
			}
		}

		// Flush output for formatters that accumulate results
		if flushable, ok := formatter.(Flushable); ok {
			if err := flushable.Flush(time.Since(startTime)); err != nil {
				return ExitInvalid, fmt.Errorf("error writing output: %w", err)
			}
		}
		return code, nil
	}

	code, err := runScripts()
	if err != nil {
		return &ExitError{Code: code, Err: err}
	}

	if !watchFlag {
		if code != ExitSuccess {
			return &ExitError{Code: code}
		}
		return nil
	}

	return watch(ctx, cmd, files, func() {
		if _, err := runScripts(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	})
}

// watch re-runs the scripts whenever one of them is written, until ctx is
// done. Bursts of events within WatchDebounceDelay trigger a single run.
func watch(ctx context.Context, cmd *cobra.Command, files []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(files))
	watchedDirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			abs = file
		}
		watched[abs] = true

		// Editors often replace files, so watch the directory
		dir := filepath.Dir(abs)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounce <-chan time.Time
	var changed string
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			changed = event.Name
			debounce = time.After(WatchDebounceDelay)
		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running scripts...\n\n", changed)
			rerun()
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}

// dryRun parses every script and prints its plan without sending anything.
func dryRun(cmd *cobra.Command, files []string, out io.Writer, cfg *config.Config) error {
	plan := output.NewConsoleFormatter(output.WithWriter(out), output.WithNoColor(cfg.GetNoColor()))

	failed := false
	for _, file := range files {
		script, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			failed = true
			continue
		}
		plan.FormatPlan(script)
	}

	if failed {
		return &ExitError{Code: ExitInvalid}
	}
	return nil
}

func isConsole(format string) bool {
	return format == "" || strings.EqualFold(format, "console")
}

func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isScriptFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			// Named files are taken as scripts whatever their extension
			files = append(files, arg)
		}
	}

	return files, nil
}

func isScriptFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range config.ConfigFilenames {
		if base == name {
			return false
		}
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
