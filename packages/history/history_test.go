package history

import (
	"context"
	"errors"
	nethttp "net/http"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/resting/packages/http"
	"github.com/abdul-hamid-achik/resting/packages/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createResponse(statusCode int, body string) *http.Response {
	headers := nethttp.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Add("X-Request-Id", "first")
	headers.Add("X-Request-Id", "second")
	return &http.Response{
		StatusCode: statusCode,
		Status:     "",
		Headers:    headers,
		Cookies:    []*nethttp.Cookie{{Name: "session", Value: "abc"}},
		Body:       []byte(body),
	}
}

func split(path string) []string {
	return strings.Split(path, ".")
}

func TestHistory_AddDeduplicatesLabels(t *testing.T) {
	h := New()

	first, err := h.Add("req", createResponse(200, `{}`))
	require.NoError(t, err)
	second, err := h.Add("req", createResponse(200, `{}`))
	require.NoError(t, err)
	third, err := h.Add("req", createResponse(200, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "req", first)
	assert.Equal(t, "req2", second)
	assert.Equal(t, "req3", third)
	assert.Equal(t, []string{"req", "req2", "req3"}, h.Labels())
}

func TestHistory_AddPicksFirstFreeSuffix(t *testing.T) {
	h := New()

	_, err := h.Add("req", createResponse(200, `{}`))
	require.NoError(t, err)
	_, err = h.Add("req3", createResponse(200, `{}`))
	require.NoError(t, err)

	label, err := h.Add("req", createResponse(200, `{}`))
	require.NoError(t, err)
	assert.Equal(t, "req2", label)
}

func TestHistory_AddRejectsAmbiguousLabels(t *testing.T) {
	h := New()

	for _, label := range []string{"last", "42", "-1", "0", ""} {
		t.Run(label, func(t *testing.T) {
			_, err := h.Add(label, createResponse(200, `{}`))
			assert.ErrorIs(t, err, ErrInvalidLabel)
		})
	}
	assert.Equal(t, 0, h.Len())

	_, err := h.Add("42nd", createResponse(200, `{}`))
	assert.NoError(t, err)
}

func TestHistory_LastBeforeAnyExchange(t *testing.T) {
	h := New()

	assert.Nil(t, h.Last())
	assert.Equal(t, "", h.LastLabel())

	_, err := h.Query(context.Background(), split("last.status"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "no response")
}

func TestHistory_Query(t *testing.T) {
	h := New()
	_, err := h.Add("login", createResponse(201, `{"token": "t0k", "user": {"roles": ["admin", "dev"]}}`))
	require.NoError(t, err)
	_, err = h.Add("profile", createResponse(404, `{"error": "missing"}`))
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		expected value.Value
	}{
		{"last status", "last.status", value.Number(404)},
		{"status by label", "login.status", value.Number(201)},
		{"status by index", "0.status", value.Number(201)},
		{"status by negative index", "-1.status", value.Number(404)},
		{"reason", "profile.reason", value.String("Not Found")},
		{"header case insensitive", "login.headers.content-type", value.String("application/json")},
		{"multi valued header returns first", "login.headers.X-Request-Id", value.String("first")},
		{"cookie", "login.cookies.session", value.String("abc")},
		{"json key", "login.json.token", value.String("t0k")},
		{"json nested index", "login.json.user.roles.1", value.String("dev")},
		{"json negative index", "login.json.user.roles.-1", value.String("dev")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Query(context.Background(), split(tt.path))
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.expected, got), "got %v", got)
		})
	}
}

func TestHistory_QueryWholeJSONBody(t *testing.T) {
	h := New()
	_, err := h.Add("list", createResponse(200, `[{"id": 1}, {"id": 2}]`))
	require.NoError(t, err)

	got, err := h.Query(context.Background(), split("list.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1},{"id":2}]`, value.Stringify(got))
}

func TestHistory_QueryErrors(t *testing.T) {
	h := New()
	_, err := h.Add("r", createResponse(200, `{"a": 1}`))
	require.NoError(t, err)
	_, err = h.Add("text", createResponse(200, `plain text`))
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		errMsg string
	}{
		{"unknown label", "missing.status", `no response "missing" found`},
		{"index out of range", "5.status", `no response "5" found`},
		{"unsupported field", "r.bogus", "unsupported response field"},
		{"status with trailing path", "r.status.code", "unsupported response field"},
		{"missing header", "r.headers.X-Nope", `no header "X-Nope"`},
		{"missing cookie", "r.cookies.nope", `no cookie "nope"`},
		{"missing json key", "r.json.b", "unknown item b"},
		{"body not json", "text.json.a", "not valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Query(context.Background(), split(tt.path))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			var lookupErr *LookupError
			assert.True(t, errors.As(err, &lookupErr))
		})
	}
}

func TestEntry_JSONIsParsedOnce(t *testing.T) {
	h := New()
	resp := createResponse(200, `{"a": 1}`)
	_, err := h.Add("r", resp)
	require.NoError(t, err)

	entry, ok := h.Get("r")
	require.True(t, ok)

	first, err := entry.JSON()
	require.NoError(t, err)

	// Mutating the buffer after the first parse must not change the cached value
	resp.Body = []byte(`{"a": 2}`)
	second, err := entry.JSON()
	require.NoError(t, err)
	assert.True(t, value.Equal(first, second))
}

func TestFromJSON_KeepsMemberOrder(t *testing.T) {
	h := New()
	_, err := h.Add("r", createResponse(200, `{"z": 1, "a": 2, "m": 3}`))
	require.NoError(t, err)

	got, err := h.Query(context.Background(), split("r.json"))
	require.NoError(t, err)

	obj, ok := got.(*value.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())
}

func TestFromJSON_KeepsLargeIntegersExact(t *testing.T) {
	h := New()
	_, err := h.Add("r", createResponse(200, `{"id": 9007199254740993, "ratio": 0.5, "ids": [9007199254740993]}`))
	require.NoError(t, err)

	id, err := h.Query(context.Background(), split("r.json.id"))
	require.NoError(t, err)
	assert.Equal(t, value.Int(9007199254740993), id)
	assert.Equal(t, "9007199254740993", value.Stringify(id))

	ratio, err := h.Query(context.Background(), split("r.json.ratio"))
	require.NoError(t, err)
	assert.Equal(t, value.Number(0.5), ratio)

	body, err := h.Query(context.Background(), split("r.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"id":9007199254740993,"ratio":0.5,"ids":[9007199254740993]}`, value.Stringify(body))
}

func TestHistory_QueryCancelled(t *testing.T) {
	h := New()
	_, err := h.Add("r", createResponse(200, `{}`))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Query(ctx, split("r.status"))
	assert.ErrorIs(t, err, context.Canceled)
}
