package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/resting/packages/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with fresh flag values and returns what it
// wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	envFileFlag, envPrefixFlag, outputFlag, outputFileFlag = "", "", "", ""
	timeoutFlag, proxyFlag, logLevelFlag, logFormatFlag, waitForFlag = "", "", "", "", ""
	verboseFlag, rateFlag = 0, 0
	dryRunFlag, watchFlag, insecureFlag, validateSchemaFlag = false, false, false, false
	configFlag = writeFile(t, t.TempDir(), "config.yaml", "logLevel: error\n")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "steps: []")
	writeFile(t, dir, "b.json", "{}")
	writeFile(t, dir, ".resting.yaml", "timeout: 1")
	writeFile(t, dir, "notes.txt", "")
	writeFile(t, dir, "sub/c.yml", "steps: []")

	files, err := collectFiles([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "sub", "c.yml"),
	}, files)

	explicit, err := collectFiles([]string{filepath.Join(dir, "notes.txt")})
	require.NoError(t, err)
	assert.Len(t, explicit, 1)

	_, err = collectFiles([]string{filepath.Join(dir, "missing")})
	assert.ErrorContains(t, err, "cannot access")
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  string
		want    any
		wantErr bool
	}{
		{format: "", want: &output.ConsoleFormatter{}},
		{format: "console", want: &output.ConsoleFormatter{}},
		{format: "JSON", want: &output.JSONFormatter{}},
		{format: "junit", want: &output.JUnitFormatter{}},
		{format: "tap", want: &output.TAPFormatter{}},
		{format: "html", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := newFormatter(tt.format, &bytes.Buffer{}, 0, true)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown output format")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit status 2", (&ExitError{Code: ExitFailure}).Error())

	cause := errors.New("validation failed")
	err := &ExitError{Code: ExitInvalid, Err: cause}
	assert.Equal(t, "validation failed", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "steps:\n  - method: GET\n    url: http://x\n")
	bad := writeFile(t, dir, "bad.yaml", "steps:\n  - method: GET\n")

	stdout, stderr, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Valid: "+good)
	assert.Empty(t, stderr)

	stdout, stderr, err = execute(t, "validate", good, bad)
	assert.Equal(t, ExitInvalid, exitCode(err))
	assert.Contains(t, stdout, "Valid: "+good)
	assert.Contains(t, stderr, "Error in "+bad)
}

func TestValidateCommand_Schema(t *testing.T) {
	stdout, _, err := execute(t, "validate", "--schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &schema))
	assert.Contains(t, schema, "properties")

	_, _, err = execute(t, "validate", "--schema", "extra.yaml")
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "s.yaml", `
steps:
  - label: login
    method: post
    url: http://x/login
    tests:
      - status: 200
      - print: hi
`)

	stdout, _, err := execute(t, "list", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "  - login: POST http://x/login\n")
	assert.Contains(t, stdout, "    tests: status, print\n")
}

func TestRunCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	passing := writeFile(t, dir, "pass.yaml", `
environment:
  base: `+server.URL+`
steps:
  - label: health
    method: GET
    url: "{environment.base}/health"
    tests:
      - status: 200
      - eq: ["{history.health.json.ok}", "true"]
`)
	failing := writeFile(t, dir, "fail.yaml", `
steps:
  - label: missing
    method: GET
    url: `+server.URL+`/missing
    tests:
      - status: 200
  - label: never
    method: GET
    url: `+server.URL+`
`)
	malformed := writeFile(t, dir, "malformed.yaml", "steps: 3\n")

	t.Run("passing script", func(t *testing.T) {
		stdout, _, err := execute(t, "run", passing, "--output", "json")
		require.NoError(t, err)

		var out output.JSONOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.Equal(t, output.JSONSummary{Runs: 1, Steps: 1, Passed: 1}, out.Summary)
		assert.Equal(t, "completed", out.Runs[0].State)
	})

	t.Run("failing script exits 2", func(t *testing.T) {
		stdout, _, err := execute(t, "run", failing, "--no-color")
		assert.Equal(t, ExitFailure, exitCode(err))
		assert.Contains(t, stdout, `abort on step "missing" (1 of 2):`)
		assert.Contains(t, stdout, "response status 404 but 200 expected")
		assert.Contains(t, stdout, "- never (not run)")
	})

	t.Run("malformed script exits 1", func(t *testing.T) {
		_, stderr, err := execute(t, "run", malformed, "--output", "tap")
		assert.Equal(t, ExitInvalid, exitCode(err))
		assert.Contains(t, stderr, "parsing file")
	})

	t.Run("dry run sends nothing", func(t *testing.T) {
		stdout, _, err := execute(t, "run", failing, "--dry-run", "--no-color")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Plan: "+failing)
		assert.Contains(t, stdout, "1. missing GET "+server.URL+"/missing")
	})

	t.Run("output file", func(t *testing.T) {
		report := filepath.Join(t.TempDir(), "report.xml")
		_, _, err := execute(t, "run", passing, "--output", "junit", "--output-file", report)
		require.NoError(t, err)

		data, err := os.ReadFile(report)
		require.NoError(t, err)
		assert.Contains(t, string(data), `<testcase name="health"`)
	})

	t.Run("unknown output format", func(t *testing.T) {
		_, _, err := execute(t, "run", passing, "--output", "html")
		assert.Equal(t, ExitInvalid, exitCode(err))
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, _, err := execute(t, "run", passing, "--timeout", "soon")
		assert.Equal(t, ExitInvalid, exitCode(err))
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "resting version dev")
}
