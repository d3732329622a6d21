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

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/measurement"
	"github.com/pingcap/go-wholesale/pkg/prop"
	"github.com/pingcap/go-wholesale/pkg/txn"
	"github.com/pingcap/go-wholesale/pkg/workload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Counters are shared by every worker of a client.
type Counters struct {
	Committed atomic.Int64
	Failed    atomic.Int64
	Conflicts atomic.Int64
}

type worker struct {
	threadID  int
	conn      bench.Conn
	env       *txn.Env
	retrier   *Retrier
	collector *measurement.Collector
	limiter   *rate.Limiter
	output    io.Writer
	logger    *zap.Logger
	counters  *Counters
}

// run replays requests one after another. A request starts only after the
// previous one committed or failed.
func (w *worker) run(ctx context.Context, requests []workload.Request) {
	w.collector.Begin()
	defer w.collector.End()

	for i, r := range requests {
		if ctx.Err() != nil {
			w.logger.Warn("run interrupted", zap.Int("done", i), zap.Int("total", len(requests)))
			return
		}
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
		}
		w.do(ctx, i+1, r)
	}
}

func (w *worker) do(ctx context.Context, seq int, r workload.Request) {
	kind := r.Kind()
	ex, err := w.env.Executor(r)
	if err != nil {
		w.fail(seq, kind, 0, err)
		return
	}

	start := time.Now()
	out, retries, err := w.retrier.Run(ctx, ex, w.conn)
	latency := time.Since(start)

	w.collector.Conflicts(kind, retries)
	w.counters.Conflicts.Add(int64(retries))
	if err != nil {
		w.fail(seq, kind, retries, err)
		return
	}
	w.collector.Record(kind, latency)
	w.counters.Committed.Inc()

	if w.output == nil {
		return
	}
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "=== %s #%d ===\n", kind, seq)
	if _, err = out.WriteTo(buf); err == nil {
		_, err = w.output.Write(buf.Bytes())
	}
	if err != nil {
		w.logger.Warn("write transaction output failed", zap.Error(err))
	}
}

func (w *worker) fail(seq int, kind bench.Kind, retries int, err error) {
	w.collector.Fail(kind)
	w.counters.Failed.Inc()
	w.logger.Error("transaction failed",
		zap.Int("seq", seq),
		zap.String("kind", string(kind)),
		zap.Int("retries", retries),
		zap.Error(err))
}

// Client runs the workload against a database with one worker per thread.
type Client struct {
	p       *properties.Properties
	backend bench.Backend
	db      *sqlx.DB
	logger  *zap.Logger
	output  io.Writer
	metrics *measurement.Metrics

	// RunID tags the log lines of this run.
	RunID    string
	Counters Counters
}

// NewClient returns a client. output receives the transaction outputs and
// may be nil; metrics may be nil.
func NewClient(p *properties.Properties, backend bench.Backend, db *sqlx.DB, logger *zap.Logger,
	output io.Writer, metrics *measurement.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.New().String()
	return &Client{
		p:       p,
		backend: backend,
		db:      db,
		logger:  logger.With(zap.String("run", runID)),
		output:  output,
		metrics: metrics,
		RunID:   runID,
	}
}

// Result is the outcome of one worker.
type Result struct {
	ThreadID  int
	Skipped   int
	Collector *measurement.Collector
}

func (c *Client) workloadPath(threadID int, threadCount int) string {
	if threadCount == 1 {
		return c.p.GetString(prop.WorkloadFile, prop.WorkloadFileDefault)
	}
	dir := c.p.GetString(prop.WorkloadDir, prop.WorkloadDirDefault)
	return filepath.Join(dir, strconv.Itoa(threadID)+".txt")
}

func (c *Client) loadWorkload(path string, logger *zap.Logger) ([]workload.Request, int, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, errors.Trace(err)
		}
		defer f.Close()
		r = f
	}
	parser := workload.NewParser(logger)
	requests, err := parser.Parse(r)
	if err != nil {
		return nil, 0, errors.Annotatef(err, "parse %s", path)
	}
	return requests, parser.Skipped(), nil
}

// metricsPath returns the summary file of a client. A single client uses
// measurement.output_file when it is set; otherwise client i writes
// <measurement.output_dir>/<i>.metrics.
func (c *Client) metricsPath(threadID int, threadCount int) string {
	if file := c.p.GetString(prop.MeasurementOutputFile, ""); file != "" && threadCount == 1 {
		return file
	}
	dir := c.p.GetString(prop.MeasurementOutputDir, prop.MeasurementOutputDirDefault)
	return filepath.Join(dir, strconv.Itoa(threadID)+".metrics")
}

func (c *Client) sink(threadID int, threadCount int, rdb redis.UniversalClient) measurement.Sink {
	sinks := measurement.MultiSink{measurement.FileSink{Path: c.metricsPath(threadID, threadCount)}}
	if rdb != nil {
		key := c.p.GetString(prop.MeasurementRedisKey, prop.MeasurementRedisKeyDefault)
		sinks = append(sinks, measurement.NewRedisSink(rdb, key))
	}
	return sinks
}

func (c *Client) limiter(threadCount int) *rate.Limiter {
	target := c.p.GetInt64(prop.Target, 0)
	if target <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(target)/float64(threadCount)), 1)
}

// Run parses every workload, runs the workers until they finish and writes
// their summaries to the configured sinks. It blocks until all workers end.
func (c *Client) Run(ctx context.Context) ([]Result, error) {
	threadCount := int(c.p.GetInt64(prop.ThreadCount, prop.ThreadCountDefault))
	if threadCount < 1 {
		return nil, errors.Errorf("invalid %s %d", prop.ThreadCount, threadCount)
	}

	if file := c.p.GetString(prop.MeasurementOutputFile, ""); file != "" && threadCount > 1 {
		c.logger.Warn("measurement output file ignored with more than one client, writing per client files",
			zap.String("file", file),
			zap.String("dir", c.p.GetString(prop.MeasurementOutputDir, prop.MeasurementOutputDirDefault)))
	}

	templates, err := txn.LoadTemplates(c.p)
	if err != nil {
		return nil, err
	}

	var rdb redis.UniversalClient
	if addr := c.p.GetString(prop.MeasurementRedisAddr, ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
	}

	workers := make([]*worker, threadCount)
	requests := make([][]workload.Request, threadCount)
	results := make([]Result, threadCount)
	retryCfg := RetryConfigFromProperties(c.p)
	for i := range workers {
		threadID := i + 1
		logger := c.logger.With(zap.Int("client", threadID))

		reqs, skipped, err := c.loadWorkload(c.workloadPath(threadID, threadCount), logger)
		if err != nil {
			return nil, err
		}
		requests[i] = reqs

		conn, err := c.db.Connx(ctx)
		if err != nil {
			return nil, errors.Annotatef(err, "connect client %d", threadID)
		}
		defer conn.Close()

		env := txn.NewEnv(c.backend, templates)
		w := &worker{
			threadID:  threadID,
			conn:      conn,
			env:       env,
			retrier:   NewRetrier(retryCfg, logger),
			collector: measurement.NewCollector(logger, c.metrics),
			limiter:   c.limiter(threadCount),
			output:    c.output,
			logger:    logger,
			counters:  &c.Counters,
		}
		workers[i] = w
		results[i] = Result{ThreadID: threadID, Skipped: skipped, Collector: w.collector}
		logger.Info("workload loaded", zap.Int("requests", len(reqs)), zap.Int("skipped", skipped))
	}

	var wg sync.WaitGroup
	wg.Add(threadCount)
	for i := range workers {
		go func(i int) {
			defer wg.Done()
			workers[i].run(ctx, requests[i])
		}(i)
	}
	wg.Wait()

	// Summaries are written even when the run was interrupted.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	var firstErr error
	for i, w := range workers {
		if err := c.sink(w.threadID, threadCount, rdb).Write(writeCtx, results[i].Collector.Summary()); err != nil {
			c.logger.Error("write summary failed", zap.Int("client", w.threadID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return results, firstErr
}
