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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/pingcap/errors"
)

// Summary is the per-client result of a run. Latencies are in milliseconds.
type Summary struct {
	Count        int
	TotalSeconds float64
	Throughput   float64
	AvgMs        float64
	P50Ms        float64
	P95Ms        float64
	P99Ms        float64
}

// SummaryFields names the fields of a summary line in order.
var SummaryFields = []string{"count", "total_seconds", "throughput", "avg_ms", "p50_ms", "p95_ms", "p99_ms"}

// Percentile returns the nearest-rank percentile of samples: the element at
// ceil(n*p/100)-1 of the sorted samples. It returns 0 for no samples.
func Percentile(samples []float64, p float64) float64 {
	v, err := stats.PercentileNearestRank(samples, p)
	if err != nil {
		return 0
	}
	return v
}

// Summarize derives a summary from per-transaction latencies and the wall
// clock length of the whole run.
func Summarize(latenciesMs []float64, totalSeconds float64) Summary {
	s := Summary{
		Count:        len(latenciesMs),
		TotalSeconds: totalSeconds,
	}
	if totalSeconds > 0 {
		s.Throughput = float64(s.Count) / totalSeconds
	}
	if s.Count == 0 {
		return s
	}

	s.AvgMs, _ = stats.Mean(latenciesMs)
	s.P50Ms = Percentile(latenciesMs, 50)
	s.P95Ms = Percentile(latenciesMs, 95)
	s.P99Ms = Percentile(latenciesMs, 99)
	return s
}

// Values returns the summary fields in SummaryFields order.
func (s Summary) Values() []float64 {
	return []float64{float64(s.Count), s.TotalSeconds, s.Throughput, s.AvgMs, s.P50Ms, s.P95Ms, s.P99Ms}
}

// String returns the comma-joined summary line.
func (s Summary) String() string {
	return fmt.Sprintf("%d,%.3f,%.3f,%.3f,%.3f,%.3f,%.3f",
		s.Count, s.TotalSeconds, s.Throughput, s.AvgMs, s.P50Ms, s.P95Ms, s.P99Ms)
}

// ParseSummary parses a line written by Summary.String.
func ParseSummary(line string) (Summary, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != len(SummaryFields) {
		return Summary{}, errors.Errorf("summary %q has %d fields, want %d", line, len(parts), len(SummaryFields))
	}
	vals := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Summary{}, errors.Annotatef(err, "summary field %s", SummaryFields[i])
		}
		vals[i] = v
	}
	return fromValues(vals), nil
}

func fromValues(vals []float64) Summary {
	return Summary{
		Count:        int(vals[0]),
		TotalSeconds: vals[1],
		Throughput:   vals[2],
		AvgMs:        vals[3],
		P50Ms:        vals[4],
		P95Ms:        vals[5],
		P99Ms:        vals[6],
	}
}

// WriteReport writes the human readable form of the summary.
func (s Summary) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "Number of executed transactions: %d\n", s.Count)
	fmt.Fprintf(w, "Total elapsed time (in seconds): %.3f\n", s.TotalSeconds)
	fmt.Fprintf(w, "Transaction throughput (transactions / s): %.3f\n", s.Throughput)
	fmt.Fprintf(w, "Average transaction latency (in milliseconds): %.3f\n", s.AvgMs)
	fmt.Fprintf(w, "Median transaction latency (in milliseconds): %.3f\n", s.P50Ms)
	fmt.Fprintf(w, "95th percentile transaction latency (in milliseconds): %.3f\n", s.P95Ms)
	fmt.Fprintf(w, "99th percentile transaction latency (in milliseconds): %.3f\n", s.P99Ms)
}
