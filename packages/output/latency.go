package output

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/resting/packages/core/runner"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Latency summarizes the response times of the exchanges of one or more runs.
type Latency struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// LatencyCollector records exchange durations in microseconds.
type LatencyCollector struct {
	histogram *hdrhistogram.Histogram
}

func NewLatencyCollector() *LatencyCollector {
	return &LatencyCollector{
		// 1us to 60s, 3 significant digits
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
}

func (c *LatencyCollector) Record(d time.Duration) {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	_ = c.histogram.RecordValue(us)
}

// RecordRun records every step of result that got a response.
func (c *LatencyCollector) RecordRun(result *runner.RunResult) {
	for _, step := range result.Steps {
		if step.StatusCode != 0 {
			c.Record(step.Duration)
		}
	}
}

// Summary returns nil when nothing was recorded.
func (c *LatencyCollector) Summary() *Latency {
	if c.histogram.TotalCount() == 0 {
		return nil
	}
	us := func(v int64) time.Duration {
		return time.Duration(v) * time.Microsecond
	}
	return &Latency{
		Count: c.histogram.TotalCount(),
		Min:   us(c.histogram.Min()),
		Max:   us(c.histogram.Max()),
		Mean:  time.Duration(c.histogram.Mean() * float64(time.Microsecond)),
		P50:   us(c.histogram.ValueAtQuantile(50)),
		P95:   us(c.histogram.ValueAtQuantile(95)),
		P99:   us(c.histogram.ValueAtQuantile(99)),
	}
}

// LatencyOf summarizes a single run.
func LatencyOf(result *runner.RunResult) *Latency {
	c := NewLatencyCollector()
	c.RecordRun(result)
	return c.Summary()
}
