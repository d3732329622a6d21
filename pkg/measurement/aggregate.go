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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pingcap/errors"
)

// Aggregate is the column-wise min, average and max of client summaries.
type Aggregate struct {
	Clients int
	Min     Summary
	Avg     Summary
	Max     Summary
}

// AggregateSummaries combines the summaries of the clients of one run.
func AggregateSummaries(summaries []Summary) Aggregate {
	agg := Aggregate{Clients: len(summaries)}
	if len(summaries) == 0 {
		return agg
	}

	n := len(SummaryFields)
	min := summaries[0].Values()
	max := summaries[0].Values()
	sum := make([]float64, n)
	for _, s := range summaries {
		for i, v := range s.Values() {
			if v < min[i] {
				min[i] = v
			}
			if v > max[i] {
				max[i] = v
			}
			sum[i] += v
		}
	}
	avg := make([]float64, n)
	for i := range sum {
		avg[i] = sum[i] / float64(len(summaries))
	}

	agg.Min = fromValues(min)
	agg.Avg = fromValues(avg)
	agg.Max = fromValues(max)
	// The average count is not integral.
	agg.Avg.Count = int(avg[0] + 0.5)
	return agg
}

// Experiment is the set of client summaries of one run.
type Experiment struct {
	Name      string
	Summaries []Summary
	// Clients names the summaries, parallel to Summaries.
	Clients []string
}

// ReadExperiment reads every *.metrics file of dir.
func ReadExperiment(dir string) (Experiment, error) {
	exp := Experiment{Name: filepath.Base(filepath.Clean(dir))}
	paths, err := filepath.Glob(filepath.Join(dir, "*.metrics"))
	if err != nil {
		return exp, errors.Trace(err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return exp, errors.Trace(err)
		}
		s, err := ParseSummary(string(b))
		if err != nil {
			return exp, errors.Annotatef(err, "read %s", path)
		}
		exp.Summaries = append(exp.Summaries, s)
		exp.Clients = append(exp.Clients, strings.TrimSuffix(filepath.Base(path), ".metrics"))
	}
	if len(exp.Summaries) == 0 {
		return exp, errors.Errorf("no metrics files in %s", dir)
	}
	return exp, nil
}

func formatFloats(vals ...float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%.2f", v)
	}
	return out
}

// WriteReports writes throughput.csv, all_metrics.csv and clients.csv of
// the experiments into dir.
func WriteReports(dir string, experiments []Experiment) error {
	var throughput, all, clients bytes.Buffer
	for _, exp := range experiments {
		agg := AggregateSummaries(exp.Summaries)

		row := append([]string{exp.Name}, formatFloats(agg.Min.Throughput, agg.Avg.Throughput, agg.Max.Throughput)...)
		throughput.WriteString(strings.Join(row, ",") + "\n")

		row = []string{exp.Name}
		min, avg, max := agg.Min.Values(), agg.Avg.Values(), agg.Max.Values()
		// Use the exact average count.
		avg[0] = averageCount(exp.Summaries)
		for i := range min {
			row = append(row, formatFloats(min[i], avg[i], max[i])...)
		}
		all.WriteString(strings.Join(row, ",") + "\n")

		for i, s := range exp.Summaries {
			row = append([]string{exp.Name, exp.Clients[i]}, formatFloats(s.Values()...)...)
			clients.WriteString(strings.Join(row, ",") + "\n")
		}
	}

	for name, buf := range map[string]*bytes.Buffer{
		"throughput.csv":  &throughput,
		"all_metrics.csv": &all,
		"clients.csv":     &clients,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func averageCount(summaries []Summary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	total := 0
	for _, s := range summaries {
		total += s.Count
	}
	return float64(total) / float64(len(summaries))
}
