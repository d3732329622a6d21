// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package measurement

import (
	"io"
	"sync"
	"time"

	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/util"
	"go.uber.org/zap"
)

// Collector records the latencies of one client. It is safe for concurrent
// use, although a client records from a single goroutine.
type Collector struct {
	sync.Mutex

	logger  *zap.Logger
	metrics *Metrics

	latenciesMs []float64
	hists       map[bench.Kind]*histogram
	begin       time.Time
	end         time.Time
	// now is replaced in tests.
	now func() time.Time
}

// NewCollector returns an empty collector. metrics may be nil.
func NewCollector(logger *zap.Logger, metrics *Metrics) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger:  logger,
		metrics: metrics,
		hists:   make(map[bench.Kind]*histogram),
		now:     time.Now,
	}
	return c
}

func (c *Collector) hist(kind bench.Kind) *histogram {
	h, ok := c.hists[kind]
	if !ok {
		h = newHistogram()
		c.hists[kind] = h
	}
	return h
}

// Begin marks the start of the run.
func (c *Collector) Begin() {
	c.Lock()
	c.begin = c.now()
	c.end = time.Time{}
	c.Unlock()
}

// End marks the end of the run.
func (c *Collector) End() {
	c.Lock()
	defer c.Unlock()

	c.end = c.now()
	c.logger.Info("run finished",
		zap.Int("committed", len(c.latenciesMs)),
		zap.Duration("elapsed", c.elapsed()))
}

// Record adds the latency of a committed transaction.
func (c *Collector) Record(kind bench.Kind, latency time.Duration) {
	c.Lock()
	defer c.Unlock()

	c.latenciesMs = append(c.latenciesMs, float64(latency)/float64(time.Millisecond))
	c.hist(kind).Measure(latency)
	if c.metrics != nil {
		c.metrics.commit(kind, latency.Seconds())
	}
}

// Fail counts a transaction that failed with a non-conflict error. It is
// not part of the latency statistics.
func (c *Collector) Fail(kind bench.Kind) {
	c.Lock()
	defer c.Unlock()

	c.hist(kind).failed++
	if c.metrics != nil {
		c.metrics.fail(kind)
	}
}

// Conflicts counts n aborted attempts of a transaction.
func (c *Collector) Conflicts(kind bench.Kind, n int) {
	if n <= 0 {
		return
	}
	c.Lock()
	defer c.Unlock()

	c.hist(kind).conflicts += int64(n)
	if c.metrics != nil {
		c.metrics.conflict(kind, n)
	}
}

// Elapsed returns the wall clock length of the run. A run that has not
// ended is measured up to now.
func (c *Collector) Elapsed() time.Duration {
	c.Lock()
	defer c.Unlock()
	return c.elapsed()
}

func (c *Collector) elapsed() time.Duration {
	if c.begin.IsZero() {
		return 0
	}
	end := c.end
	if end.IsZero() {
		end = c.now()
	}
	return end.Sub(c.begin)
}

// Summary derives the run summary. Throughput uses the run length, not the
// sum of the latencies.
func (c *Collector) Summary() Summary {
	c.Lock()
	defer c.Unlock()

	samples := make([]float64, len(c.latenciesMs))
	copy(samples, c.latenciesMs)
	return Summarize(samples, c.elapsed().Seconds())
}

// Report writes the summary followed by the per kind breakdown.
func (c *Collector) Report(w io.Writer, style string) {
	c.Summary().WriteReport(w)

	c.Lock()
	defer c.Unlock()

	var lines [][]string
	for _, kind := range bench.Kinds {
		h, ok := c.hists[kind]
		if !ok {
			continue
		}
		lines = append(lines, append([]string{string(kind)}, h.Summary()...))
	}
	util.Render(w, style, header, lines)
}
