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
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/pingcap/go-wholesale/pkg/util"
)

// histogram keeps the latency distribution of one transaction kind in
// microseconds.
type histogram struct {
	hist      *hdrhistogram.Histogram
	failed    int64
	conflicts int64
}

var header = []string{"Kind", "Count", "Failed", "Conflicts", "Avg(ms)", "Min(ms)", "Max(ms)", "99th(ms)", "99.9th(ms)"}

func newHistogram() *histogram {
	h := new(histogram)
	h.hist = hdrhistogram.New(1, 24*60*60*1000*1000, 3)
	return h
}

func (h *histogram) Measure(latency time.Duration) {
	us := latency.Microseconds()
	if us < 1 {
		us = 1
	}
	_ = h.hist.RecordValue(us)
}

func usToMs(us int64) string {
	return util.FloatToString(float64(us) / 1000)
}

func (h *histogram) Summary() []string {
	return []string{
		util.IntToString(h.hist.TotalCount()),
		util.IntToString(h.failed),
		util.IntToString(h.conflicts),
		util.FloatToString(h.hist.Mean() / 1000),
		usToMs(h.hist.Min()),
		usToMs(h.hist.Max()),
		usToMs(h.hist.ValueAtQuantile(99)),
		usToMs(h.hist.ValueAtQuantile(99.9)),
	}
}
