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

package state

import (
	"bytes"
	"context"
	"testing"

	"github.com/pingcap/go-wholesale/pkg/testutil"
	"github.com/pingcap/go-wholesale/pkg/txn"
	"github.com/pingcap/go-wholesale/pkg/workload"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeeded(t *testing.T) {
	_, db := testutil.OpenSQLite(t)

	s, err := Read(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, s, len(Names))
	assert.Equal(t, "0,0,20,-600,600,60,0,0,0,0,0,2000,0,0,0", s.String())

	var buf bytes.Buffer
	_, err = s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.String()+"\n", buf.String())
}

func TestReadAfterTransactions(t *testing.T) {
	backend, db := testutil.OpenSQLite(t)
	ctx := context.Background()
	env := txn.NewEnv(backend, txn.DefaultTemplates())

	for _, r := range []workload.Request{
		workload.Payment{WarehouseID: 1, DistrictID: 1, CustomerID: 1, Amount: decimal.RequireFromString("5.5")},
		workload.NewOrder{WarehouseID: 1, DistrictID: 2, CustomerID: 1, Items: []workload.OrderItem{
			{ItemID: 3, SupplyWarehouseID: 2, Quantity: 4},
		}},
	} {
		ex, err := env.Executor(r)
		require.NoError(t, err)
		_, err = ex.Execute(ctx, db)
		require.NoError(t, err)
	}

	s, err := Read(ctx, db)
	require.NoError(t, err)

	expect := map[string]string{
		"w_ytd":          "5.5",
		"d_ytd":          "5.5",
		"d_next_o_id":    "21",
		"c_balance":      "-605.5",
		"c_ytd_payment":  "605.5",
		"c_payment_cnt":  "61",
		"o_id":           "1",
		"o_ol_cnt":       "1",
		"ol_amount":      "14",
		"ol_quantity":    "4",
		"s_quantity":     "1996",
		"s_ytd":          "4",
		"s_order_cnt":    "1",
		"s_remote_cnt":   "1",
		"c_delivery_cnt": "0",
	}
	for name, want := range expect {
		v, ok := s.Get(name)
		require.True(t, ok, name)
		assert.True(t, decimal.RequireFromString(want).Equal(v), "%s: %s", name, v)
	}
	_, ok := s.Get("missing")
	assert.False(t, ok)
}
