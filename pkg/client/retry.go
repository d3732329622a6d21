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
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/prop"
	"go.uber.org/zap"
)

// RetryConfig controls how conflicting transactions are run again.
type RetryConfig struct {
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxExponent caps the doubling of the delay: the delay before retry k
	// is BaseDelay * 2^min(k, MaxExponent) scaled by a random factor in
	// [1-Jitter, 1+Jitter].
	MaxExponent int
	Jitter      float64
	// WarnThreshold is the number of retries after which a warning is
	// logged once per request.
	WarnThreshold int
	// MaxAttempts bounds the executions of one request. 0 retries forever.
	MaxAttempts int
}

// RetryConfigFromProperties reads the retry.* properties.
func RetryConfigFromProperties(p *properties.Properties) RetryConfig {
	return RetryConfig{
		BaseDelay:     time.Duration(p.GetInt64(prop.RetryBaseDelayMs, prop.RetryBaseDelayMsDefault)) * time.Millisecond,
		MaxExponent:   p.GetInt(prop.RetryMaxExponent, prop.RetryMaxExponentDefault),
		Jitter:        p.GetFloat64(prop.RetryJitterFraction, prop.RetryJitterFractionDefault),
		WarnThreshold: p.GetInt(prop.RetryWarnThreshold, prop.RetryWarnThresholdDefault),
		MaxAttempts:   p.GetInt(prop.RetryMaxAttempts, prop.RetryMaxAttemptsDefault),
	}
}

// Retrier runs an executor until it commits without a conflict.
type Retrier struct {
	cfg    RetryConfig
	logger *zap.Logger
}

// NewRetrier returns a retrier logging to logger.
func NewRetrier(cfg RetryConfig, logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{cfg: cfg, logger: logger}
}

func (r *Retrier) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = r.cfg.Jitter
	b.MaxInterval = time.Duration(float64(r.cfg.BaseDelay) * math.Pow(2, float64(r.cfg.MaxExponent)))
	b.MaxElapsedTime = 0
	b.Reset()

	var bo backoff.BackOff = b
	if r.cfg.MaxAttempts > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(r.cfg.MaxAttempts-1))
	}
	return backoff.WithContext(bo, ctx)
}

// Run executes ex until it returns something other than a conflict, and
// returns the output with the number of retries. Other errors are returned
// after the first attempt. The context is only checked between attempts.
func (r *Retrier) Run(ctx context.Context, ex bench.Executor, conn bench.Conn) (*bench.Output, int, error) {
	var (
		out     *bench.Output
		retries int
		warned  bool
	)
	op := func() error {
		var err error
		out, err = ex.Execute(ctx, conn)
		if err != nil && !bench.IsConflict(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		retries++
		if !warned && r.cfg.WarnThreshold > 0 && retries > r.cfg.WarnThreshold {
			warned = true
			r.logger.Warn("transaction retried too many times",
				zap.String("kind", string(ex.Kind())),
				zap.Int("retries", retries),
				zap.Duration("next-delay", delay),
				zap.Error(err))
		}
	}

	err := backoff.RetryNotify(op, r.newBackOff(ctx), notify)
	if err != nil {
		if bench.IsConflict(err) {
			err = errors.Annotatef(err, "%s gave up after %d attempts", ex.Kind(), retries+1)
		}
		return nil, retries, err
	}
	return out, retries, nil
}
