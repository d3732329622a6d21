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
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the live counters of every client of the process.
type Metrics struct {
	committed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// NewMetrics creates the counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		committed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wholesale",
				Subsystem: "txn",
				Name:      "committed_total",
				Help:      "Counter of committed transactions.",
			}, []string{"kind"}),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wholesale",
				Subsystem: "txn",
				Name:      "failed_total",
				Help:      "Counter of transactions failed with a non-conflict error.",
			}, []string{"kind"}),
		conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wholesale",
				Subsystem: "txn",
				Name:      "conflicts_total",
				Help:      "Counter of transaction attempts aborted by a conflict.",
			}, []string{"kind"}),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wholesale",
				Subsystem: "txn",
				Name:      "latency_seconds",
				Help:      "Bucketed histogram of client observed transaction latency.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 20),
			}, []string{"kind"}),
	}
	reg.MustRegister(m.committed, m.failed, m.conflicts, m.latency)
	return m
}

func (m *Metrics) commit(kind bench.Kind, seconds float64) {
	m.committed.WithLabelValues(string(kind)).Inc()
	m.latency.WithLabelValues(string(kind)).Observe(seconds)
}

func (m *Metrics) fail(kind bench.Kind) {
	m.failed.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) conflict(kind bench.Kind, n int) {
	m.conflicts.WithLabelValues(string(kind)).Add(float64(n))
}
