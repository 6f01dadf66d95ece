package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
	limiter        *rate.Limiter
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	// Configure TLS verification
	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if c.proxyURL != "" {
		proxyURL, err := neturl.Parse(c.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		if max > 0 {
			c.maxRedirects = max
		}
	}
}

// WithDefaultHeaders sets headers sent with every request unless the request
// sets them itself
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithRateLimit caps the number of exchanges per second. Zero or negative
// disables the limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// Do performs one exchange and buffers the whole response body before
// returning, so the Response can be inspected any number of times.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := req.EncodeBody()
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, err
	}

	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}

	// Defaults only fill in names the step did not send itself
	for k, v := range c.defaultHeaders {
		if len(httpReq.Header.Values(k)) == 0 {
			httpReq.Header.Set(k, v)
		}
	}

	if req.HasBody() && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Record what actually went over the wire for the printer
	req.Sent = httpReq.Header.Clone()
	req.SentBody = body

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Proto:      httpResp.Proto,
		Headers:    httpResp.Header,
		Cookies:    httpResp.Cookies(),
		Body:       respBody,
		Duration:   duration,
	}, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	// Check for valid scheme
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	// Check for valid host
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
