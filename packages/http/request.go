package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/value"
)

// Header is one request header. Requests keep headers as an ordered list and
// every entry is sent, so a repeated name goes out with several values.
type Header struct {
	Name  string
	Value string
}

type Request struct {
	Method  string
	URL     string
	Headers []Header
	JSON    value.Value

	// Sent and SentBody are filled in by Client.Do with the final wire form.
	Sent     http.Header
	SentBody []byte
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: strings.ToUpper(method),
		URL:    requestURL,
	}
}

// AddHeader appends a header; earlier headers with the same name are kept.
func (r *Request) AddHeader(name, v string) *Request {
	r.Headers = append(r.Headers, Header{Name: name, Value: v})
	return r
}

func (r *Request) SetJSON(body value.Value) *Request {
	r.JSON = body
	return r
}

// HasBody reports whether a JSON body is sent. A null body counts as none.
func (r *Request) HasBody() bool {
	if r.JSON == nil {
		return false
	}
	_, null := r.JSON.(value.Null)
	return !null
}

// EncodeBody returns the JSON encoding of the body, or nil when the request
// has none.
func (r *Request) EncodeBody() ([]byte, error) {
	if !r.HasBody() {
		return nil, nil
	}
	data, err := json.Marshal(r.JSON)
	if err != nil {
		return nil, fmt.Errorf("encoding json body: %w", err)
	}
	return data, nil
}
