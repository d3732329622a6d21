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

package workload

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func parse(t *testing.T, input string) ([]Request, *Parser, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewParser(zap.New(core))
	reqs, err := p.Parse(strings.NewReader(input))
	require.NoError(t, err)
	return reqs, p, logs
}

func TestParseAllKinds(t *testing.T) {
	input := strings.Join([]string{
		"N,5,1,2,2",
		"100,1,5",
		"101,2,3",
		"P,1,2,5,42.50",
		"D,1,7",
		"O,1,2,5",
		"S,1,2,15,20",
		"I,1,2,30",
		"T",
		"R,1,2,5",
	}, "\n")
	reqs, p, logs := parse(t, input)
	require.Len(t, reqs, 8)
	assert.Equal(t, 0, p.Skipped())
	assert.Equal(t, 0, logs.Len())

	no := reqs[0].(NewOrder)
	assert.Equal(t, NewOrder{
		WarehouseID: 1, DistrictID: 2, CustomerID: 5,
		Items: []OrderItem{{100, 1, 5}, {101, 2, 3}},
	}, no)
	assert.False(t, no.AllLocal())

	pay := reqs[1].(Payment)
	assert.Equal(t, 1, pay.WarehouseID)
	assert.Equal(t, 2, pay.DistrictID)
	assert.Equal(t, 5, pay.CustomerID)
	assert.True(t, decimal.RequireFromString("42.5").Equal(pay.Amount))

	assert.Equal(t, Delivery{WarehouseID: 1, CarrierID: 7}, reqs[2])
	assert.Equal(t, OrderStatus{1, 2, 5}, reqs[3])
	assert.Equal(t, StockLevel{1, 2, 15, 20}, reqs[4])
	assert.Equal(t, PopularItem{1, 2, 30}, reqs[5])
	assert.Equal(t, TopBalance{}, reqs[6])
	assert.Equal(t, RelatedCustomer{1, 2, 5}, reqs[7])

	kinds := make([]bench.Kind, len(reqs))
	for i, r := range reqs {
		kinds[i] = r.Kind()
	}
	assert.Equal(t, bench.Kinds, kinds)
}

func TestNewOrderConsumesDeclaredLines(t *testing.T) {
	// The item lines look like records on purpose.
	input := strings.Join([]string{
		"N,1,1,1,3",
		"P,1,1,1,10",
		"D,1,1",
		"T",
		"O,1,1,1",
	}, "\n")
	reqs, p, _ := parse(t, input)
	assert.Equal(t, 1, p.Skipped())
	require.Len(t, reqs, 1)
	assert.Equal(t, OrderStatus{1, 1, 1}, reqs[0])

	input = strings.Join([]string{
		"N,1,1,1,3",
		"1,1,1",
		"2,1,1",
		"3,1,1",
		"O,1,1,1",
	}, "\n")
	reqs, p, _ = parse(t, input)
	assert.Equal(t, 0, p.Skipped())
	require.Len(t, reqs, 2)
	no := reqs[0].(NewOrder)
	assert.Len(t, no.Items, 3)
	assert.True(t, no.AllLocal())
	assert.Equal(t, OrderStatus{1, 1, 1}, reqs[1])
}

func TestMalformedNewOrderHeaderConsumesDeclaredLines(t *testing.T) {
	// Wrong field count, the last field still declares two item lines.
	input := strings.Join([]string{
		"N,1,1,1,x,2",
		"P,1,1,1,5",
		"D,1,1",
		"O,1,1,1",
	}, "\n")
	reqs, p, logs := parse(t, input)
	assert.Equal(t, 1, p.Skipped())
	assert.Equal(t, 1, logs.Len())
	require.Len(t, reqs, 1)
	assert.Equal(t, OrderStatus{1, 1, 1}, reqs[0])

	// Too few header fields: the item lines are dropped with the header.
	input = strings.Join([]string{
		"N,1,1,2",
		"1,1,5",
		"2,1,5",
		"T",
	}, "\n")
	reqs, p, _ = parse(t, input)
	assert.Equal(t, 1, p.Skipped())
	require.Len(t, reqs, 1)
	assert.Equal(t, TopBalance{}, reqs[0])

	// A header without a count cannot claim any line.
	reqs, p, _ = parse(t, "N,1,1,1,x\nT")
	assert.Equal(t, 1, p.Skipped())
	assert.Equal(t, []Request{TopBalance{}}, reqs)
}

func TestItemCount(t *testing.T) {
	n, ok := ItemCount([]string{"1", "1", "1", "3"})
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	n, ok = ItemCount([]string{"1", "x", "2"})
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	_, ok = ItemCount([]string{"1", "1", "1", "-1"})
	assert.False(t, ok)
	_, ok = ItemCount([]string{"1", "1", "1", "x"})
	assert.False(t, ok)
	_, ok = ItemCount(nil)
	assert.False(t, ok)
}

func TestParseSkipsBadRecords(t *testing.T) {
	input := strings.Join([]string{
		"X,1,2",
		"",
		"P,1,2,x,3",
		"P,1,2,3,-1",
		"D,1",
		"Delivery,1,1",
		"N,1,1,1,zero",
		"N,1,1,1,1",
		"1,1,1000",
		"T",
		"N,1,1,1,2",
		"5,1,1",
	}, "\n")
	reqs, p, logs := parse(t, input)
	require.Len(t, reqs, 1)
	assert.Equal(t, TopBalance{}, reqs[0])
	assert.Equal(t, 8, p.Skipped())
	assert.Equal(t, 8, logs.Len())
	assert.Equal(t, int64(1), logs.All()[0].ContextMap()["line"])
}

func TestParsePreservesOrder(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "O,1,1,%d\n", i+1)
		fmt.Fprintf(&b, "D,%d,1\n", i)
	}
	reqs, _, _ := parse(t, b.String())
	require.Len(t, reqs, 100)
	for i := 0; i < 50; i++ {
		assert.Equal(t, OrderStatus{1, 1, i + 1}, reqs[2*i])
		assert.Equal(t, Delivery{WarehouseID: i, CarrierID: 1}, reqs[2*i+1])
	}
}
