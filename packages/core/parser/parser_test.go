package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/resting/packages/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_FullScript(t *testing.T) {
	input := `
environment:
  host: api.local
  user:
    name: ada
    id: 7
steps:
  - label: login
    method: post
    url: http://{environment.host}/login
    headers:
      - name: X-Trace
        value: abc
      - name: X-Retry
        value: 5
    json:
      name: "{environment.user.name}"
      tags: [a, b]
    tests:
      - status: 200
      - eq: ["{history.last.json.name}", ada]
      - update_environment:
          token: "{history.login.json.token}"
          seen: true
      - print: logged in
      - sleep: 0.5
  - method: GET
    url: http://{environment.host}/me
`

	script, err := Parse([]byte(input), "script.yaml")
	require.NoError(t, err)

	assert.Equal(t, "script.yaml", script.Path)
	assert.Equal(t, []string{"host", "user"}, script.Environment.Keys())
	require.Len(t, script.Steps, 2)

	login := script.Steps[0]
	assert.Equal(t, "login", login.Label)
	assert.Equal(t, "POST", login.Method)
	assert.Equal(t, "http://{environment.host}/login", login.URL)
	require.Len(t, login.Headers, 2)
	assert.Equal(t, "X-Trace", login.Headers[0].Name)
	assert.Equal(t, "abc", login.Headers[0].Value)
	assert.Equal(t, "5", login.Headers[1].Value)

	body, ok := login.JSON.(*value.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "tags"}, body.Keys())

	require.Len(t, login.Tests, 5)
	names := make([]string, len(login.Tests))
	for i, tt := range login.Tests {
		names[i] = tt.Name()
	}
	assert.Equal(t, []string{"status", "eq", "update_environment", "print", "sleep"}, names)

	assert.Equal(t, Status{Expected: value.Int(200), Line: login.Tests[0].Position()}, login.Tests[0])

	eq := login.Tests[1].(Equal)
	assert.Equal(t, value.Array{value.String("{history.last.json.name}"), value.String("ada")}, eq.Pair)

	update := login.Tests[2].(UpdateEnvironment)
	assert.Equal(t, []string{"token", "seen"}, update.Values.Keys())

	assert.Equal(t, value.String("logged in"), login.Tests[3].(Print).Message)
	assert.Equal(t, value.Number(0.5), login.Tests[4].(Sleep).Duration)

	me := script.Steps[1]
	assert.Equal(t, DefaultLabel, me.Label)
	assert.Nil(t, me.JSON)
	assert.Empty(t, me.Tests)
}

func TestParser_JSONScript(t *testing.T) {
	input := "{\n\t\"steps\": [\n\t\t{\"method\": \"GET\", \"url\": \"http://x\", \"tests\": [{\"status\": \"{environment.code}\"}]}\n\t]\n}"

	script, err := Parse([]byte(input), "script.json")
	require.NoError(t, err)
	require.Len(t, script.Steps, 1)
	assert.Equal(t, 0, script.Environment.Len())
	assert.Equal(t, value.String("{environment.code}"), script.Steps[0].Tests[0].(Status).Expected)
}

func TestParser_EqualArityIsNotCheckedAtParseTime(t *testing.T) {
	input := `
steps:
  - method: GET
    url: http://x
    tests:
      - eq: [1, 2, 3]
`
	script, err := Parse([]byte(input), "")
	require.NoError(t, err)
	assert.Len(t, script.Steps[0].Tests[0].(Equal).Pair, 3)
}

func TestParser_Anchors(t *testing.T) {
	input := `
environment:
  base: &base http://api.local
steps:
  - method: GET
    url: *base
`
	script, err := Parse([]byte(input), "")
	require.NoError(t, err)
	assert.Equal(t, "http://api.local", script.Steps[0].URL)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "empty document",
			input:  "",
			errMsg: "empty script",
		},
		{
			name:   "invalid yaml",
			input:  "steps: [\n",
			errMsg: "yaml:",
		},
		{
			name:   "missing steps",
			input:  "environment: {}\n",
			errMsg: "steps",
		},
		{
			name:   "unknown top level key",
			input:  "steps: []\nhooks: []\n",
			errMsg: "invalid script",
		},
		{
			name:   "missing url",
			input:  "steps:\n  - method: GET\n",
			errMsg: "url",
		},
		{
			name:   "unknown test",
			input:  "steps:\n  - method: GET\n    url: http://x\n    tests:\n      - contains: x\n",
			errMsg: "invalid script",
		},
		{
			name:   "test with two tags",
			input:  "steps:\n  - method: GET\n    url: http://x\n    tests:\n      - status: 200\n        print: hi\n",
			errMsg: "invalid script",
		},
		{
			name:   "test with no tag",
			input:  "steps:\n  - method: GET\n    url: http://x\n    tests:\n      - {}\n",
			errMsg: "invalid script",
		},
		{
			name:   "reserved label",
			input:  "steps:\n  - label: last\n    method: GET\n    url: http://x\n",
			errMsg: "reserved",
		},
		{
			name:   "numeric label",
			input:  "steps:\n  - label: \"12\"\n    method: GET\n    url: http://x\n",
			errMsg: "numeric",
		},
		{
			name:   "blank method",
			input:  "steps:\n  - method: \" \"\n    url: http://x\n",
			errMsg: "no method",
		},
		{
			name:   "environment must be a mapping",
			input:  "environment: [1]\nsteps: []\n",
			errMsg: "environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "bad.yaml")
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Contains(t, err.Error(), "bad.yaml")
		})
	}
}

func TestParser_ErrorPosition(t *testing.T) {
	input := "steps:\n  - label: last\n    method: GET\n    url: http://x\n"

	_, err := Parse([]byte(input), "s.yaml")

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 2, parseErr.Line)
	assert.Equal(t, "s.yaml:2:12: "+parseErr.Message, err.Error())
}

func TestParser_IntegersStayExact(t *testing.T) {
	input := `
environment:
  id: 9007199254740993
  ratio: 0.25
steps:
  - method: GET
    url: http://x
    json:
      id: 9007199254740993
`

	script, err := Parse([]byte(input), "ids.yaml")
	require.NoError(t, err)

	id, _ := script.Environment.Get("id")
	assert.Equal(t, value.Int(9007199254740993), id)
	ratio, _ := script.Environment.Get("ratio")
	assert.Equal(t, value.Number(0.25), ratio)
	assert.Equal(t, `{"id":9007199254740993}`, value.Stringify(script.Steps[0].JSON))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.yml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - method: DELETE\n    url: http://x/1\n"), 0o644))

	script, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, script.Path)
	assert.Equal(t, "DELETE", script.Steps[0].Method)

	_, err = ParseFile(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestParseError_Format(t *testing.T) {
	assert.Equal(t, "f.yaml:3:1: boom", (&ParseError{File: "f.yaml", Line: 3, Column: 1, Message: "boom"}).Error())
	assert.Equal(t, "f.yaml: boom", (&ParseError{File: "f.yaml", Message: "boom"}).Error())
	assert.Equal(t, "line 3:1: boom", (&ParseError{Line: 3, Column: 1, Message: "boom"}).Error())
	assert.Equal(t, "boom", (&ParseError{Message: "boom"}).Error())
}
