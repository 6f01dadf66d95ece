package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Headers    http.Header
	Cookies    []*http.Cookie
	Body       []byte
	Duration   time.Duration
}

// Reason returns the reason phrase of the status line, e.g. "Not Found".
func (r *Response) Reason() string {
	reason := strings.TrimPrefix(r.Status, strconv.Itoa(r.StatusCode))
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return http.StatusText(r.StatusCode)
	}
	return reason
}

// Header returns the first value of the named header, case-insensitively.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// Cookie returns the value of the last cookie set under name.
func (r *Response) Cookie(name string) (string, bool) {
	value, found := "", false
	for _, c := range r.Cookies {
		if c.Name == name {
			value, found = c.Value, true
		}
	}
	return value, found
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
