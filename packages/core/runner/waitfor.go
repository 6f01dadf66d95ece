package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/http"
	"go.uber.org/zap"
)

const (
	DefaultWaitTimeout  = 30 * time.Second
	DefaultWaitInterval = 500 * time.Millisecond
)

type WaitConfig struct {
	URL      string
	Status   int
	Timeout  time.Duration
	Interval time.Duration
}

// WaitFor polls cfg.URL until it answers with cfg.Status (200 when unset),
// the timeout elapses or ctx is done. Nothing is recorded in any history.
func (r *Runner) WaitFor(ctx context.Context, cfg WaitConfig) error {
	if cfg.URL == "" {
		return nil
	}
	if cfg.Status == 0 {
		cfg.Status = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWaitTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWaitInterval
	}

	r.logger.Info("waiting for service",
		zap.String("url", cfg.URL),
		zap.Int("status", cfg.Status),
		zap.Duration("timeout", cfg.Timeout),
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var lastErr error
	var lastStatus int
	for {
		resp, err := r.client.Do(ctx, http.NewRequest("GET", cfg.URL))
		if err != nil {
			if ctx.Err() == nil {
				lastErr = err
			}
		} else {
			lastErr = nil
			lastStatus = resp.StatusCode
			if resp.StatusCode == cfg.Status {
				r.logger.Info("service is ready", zap.String("url", cfg.URL))
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("service %s not ready after %v: %w", cfg.URL, cfg.Timeout, lastErr)
			}
			return fmt.Errorf("service %s not ready after %v: got status %d, expected %d",
				cfg.URL, cfg.Timeout, lastStatus, cfg.Status)
		case <-ticker.C:
		}
	}
}
