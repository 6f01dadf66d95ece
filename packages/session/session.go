package session

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/resting/packages/history"
	"github.com/abdul-hamid-achik/resting/packages/http"
	"go.uber.org/zap"
)

// Printer renders one exchange. label is the label the response was stored
// under.
type Printer interface {
	PrintExchange(label string, req *http.Request, resp *http.Response)
}

type Session struct {
	client  *http.Client
	history *history.History
	printer Printer
	logger  *zap.Logger
}

type Option func(*Session)

func WithPrinter(p Printer) Option {
	return func(s *Session) {
		s.printer = p
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func New(client *http.Client, hist *history.History, opts ...Option) *Session {
	s := &Session{
		client:  client,
		history: hist,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request sends req and records the response under label. Labels already in
// use get a numeric suffix.
func (s *Session) Request(ctx context.Context, label string, req *http.Request) (*http.Response, error) {
	s.logger.Debug("sending request",
		zap.String("label", label),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
	)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	stored, err := s.history.Add(label, resp)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("response received",
		zap.String("label", stored),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
	)

	if s.printer != nil {
		s.printer.PrintExchange(stored, req, resp)
	}
	return resp, nil
}
