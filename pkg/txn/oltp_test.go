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

package txn

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/schema"
	"github.com/pingcap/go-wholesale/pkg/testutil"
	"github.com/pingcap/go-wholesale/pkg/workload"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Env, *sqlx.DB) {
	b, db := testutil.OpenSQLite(t)
	return NewEnv(b, nil), db
}

func execute(t *testing.T, env *Env, db *sqlx.DB, r workload.Request) *bench.Output {
	ex, err := env.Executor(r)
	require.NoError(t, err)
	require.Equal(t, r.Kind(), ex.Kind())
	out, err := ex.Execute(context.Background(), db)
	require.NoError(t, err)
	return out
}

func mustGet(t *testing.T, out *bench.Output, name string) interface{} {
	v, ok := out.Get(name)
	require.True(t, ok, name)
	return v
}

func queryInt(t *testing.T, db *sqlx.DB, query string, args ...interface{}) int {
	var n int
	require.NoError(t, db.Get(&n, query, args...))
	return n
}

func queryDecimal(t *testing.T, db *sqlx.DB, query string, args ...interface{}) decimal.Decimal {
	var d decimal.Decimal
	require.NoError(t, db.QueryRow(query, args...).Scan(&d))
	return d
}

func items(specs ...[3]int) []workload.OrderItem {
	out := make([]workload.OrderItem, len(specs))
	for i, s := range specs {
		out[i] = workload.OrderItem{ItemID: s[0], SupplyWarehouseID: s[1], Quantity: s[2]}
	}
	return out
}

func TestNewOrder(t *testing.T) {
	env, db := setup(t)
	req := workload.NewOrder{WarehouseID: 1, DistrictID: 3, CustomerID: 2, Items: items(
		[3]int{4, 1, 5},
		[3]int{7, 2, 45},
		[3]int{9, 1, 1},
	)}
	out := execute(t, env, db, req)

	assert.Equal(t, testutil.InitialNextOrderID, mustGet(t, out, "Order number"))
	assert.Equal(t, 3, mustGet(t, out, "Num items"))
	assert.Equal(t, "329.09", mustGet(t, out, "Total amount"))
	assert.Equal(t, "last-1-3-2", mustGet(t, out, "Customer last name"))
	assert.Len(t, mustGet(t, out, "Items"), 3)

	assert.Equal(t, testutil.InitialNextOrderID+1,
		queryInt(t, db, "SELECT d_next_o_id FROM district WHERE d_w_id = 1 AND d_id = 3"))
	assert.Equal(t, 3, queryInt(t, db, "SELECT o_ol_cnt FROM orders WHERE o_w_id = 1 AND o_d_id = 3 AND o_id = 1"))
	assert.Equal(t, 0, queryInt(t, db, "SELECT o_all_local FROM orders WHERE o_w_id = 1 AND o_d_id = 3 AND o_id = 1"))

	rows, err := db.Query("SELECT ol_number, ol_i_id, ol_amount, ol_dist_info, ol_delivery_d FROM order_line " +
		"WHERE ol_w_id = 1 AND ol_d_id = 3 AND ol_o_id = 1 ORDER BY ol_number")
	require.NoError(t, err)
	defer rows.Close()
	var numbers []int
	for rows.Next() {
		var (
			number, itemID int
			amount         decimal.Decimal
			distInfo       string
			delivered      sql.NullTime
		)
		require.NoError(t, rows.Scan(&number, &itemID, &amount, &distInfo, &delivered))
		numbers = append(numbers, number)
		it := req.Items[number]
		assert.Equal(t, it.ItemID, itemID)
		assert.True(t, testutil.ItemPrice(itemID).Mul(decimal.NewFromInt(int64(it.Quantity))).Equal(amount))
		assert.Equal(t, testutil.DistInfo(1, itemID, 3), distInfo)
		assert.False(t, delivered.Valid)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int{0, 1, 2}, numbers)

	stock := func(i int) (qty, orderCnt, remoteCnt int) {
		require.NoError(t, db.QueryRow("SELECT s_quantity, s_order_cnt, s_remote_cnt FROM stock WHERE s_w_id = 1 AND s_i_id = ?", i).
			Scan(&qty, &orderCnt, &remoteCnt))
		return
	}
	qty, orderCnt, remoteCnt := stock(4)
	assert.Equal(t, []int{45, 1, 0}, []int{qty, orderCnt, remoteCnt})
	// 50 - 45 drops below the floor and is restocked.
	qty, orderCnt, remoteCnt = stock(7)
	assert.Equal(t, []int{105, 1, 1}, []int{qty, orderCnt, remoteCnt})
	qty, _, _ = stock(9)
	assert.Equal(t, 49, qty)
	assert.Equal(t, testutil.InitialStock, queryInt(t, db, "SELECT s_quantity FROM stock WHERE s_w_id = 2 AND s_i_id = 7"))
}

func TestNewOrderSameItemTwice(t *testing.T) {
	env, db := setup(t)
	execute(t, env, db, workload.NewOrder{WarehouseID: 2, DistrictID: 1, CustomerID: 1, Items: items(
		[3]int{4, 2, 5},
		[3]int{4, 2, 6},
	)})

	assert.Equal(t, 39, queryInt(t, db, "SELECT s_quantity FROM stock WHERE s_w_id = 2 AND s_i_id = 4"))
	assert.Equal(t, 2, queryInt(t, db, "SELECT s_order_cnt FROM stock WHERE s_w_id = 2 AND s_i_id = 4"))
	assert.True(t, decimal.NewFromInt(11).Equal(
		queryDecimal(t, db, "SELECT s_ytd FROM stock WHERE s_w_id = 2 AND s_i_id = 4")))
	assert.Equal(t, 2, queryInt(t, db, "SELECT COUNT(*) FROM order_line WHERE ol_w_id = 2 AND ol_d_id = 1 AND ol_o_id = 1"))
	assert.Equal(t, 1, queryInt(t, db, "SELECT o_all_local FROM orders WHERE o_w_id = 2 AND o_d_id = 1 AND o_id = 1"))
}

func TestNewOrderRollsBack(t *testing.T) {
	env, db := setup(t)
	ex, err := env.Executor(workload.NewOrder{WarehouseID: 1, DistrictID: 1, CustomerID: 99, Items: items(
		[3]int{4, 1, 5},
	)})
	require.NoError(t, err)

	_, err = ex.Execute(context.Background(), db)
	require.Error(t, err)
	assert.Equal(t, bench.ErrNotFound, errors.Cause(err))
	assert.False(t, bench.IsConflict(err))

	assert.Equal(t, testutil.InitialNextOrderID,
		queryInt(t, db, "SELECT d_next_o_id FROM district WHERE d_w_id = 1 AND d_id = 1"))
	assert.Equal(t, 0, queryInt(t, db, "SELECT COUNT(*) FROM orders"))
	assert.Equal(t, testutil.InitialStock, queryInt(t, db, "SELECT s_quantity FROM stock WHERE s_w_id = 1 AND s_i_id = 4"))
}

func TestConcurrentNewOrders(t *testing.T) {
	env, db := setup(t)
	const n = 8

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex, err := env.Executor(workload.NewOrder{WarehouseID: 1, DistrictID: 5, CustomerID: i%3 + 1, Items: items(
				[3]int{i + 1, 1, 1},
				[3]int{testutil.Items, 1, 1},
			)})
			if !assert.NoError(t, err) {
				return
			}
			for {
				out, err := ex.Execute(context.Background(), db)
				if bench.IsConflict(err) {
					continue
				}
				if !assert.NoError(t, err) {
					return
				}
				id, _ := out.Get("Order number")
				mu.Lock()
				ids = append(ids, id.(int))
				mu.Unlock()
				return
			}
		}(i)
	}
	wg.Wait()

	sort.Ints(ids)
	want := make([]int, n)
	for i := range want {
		want[i] = testutil.InitialNextOrderID + i
	}
	assert.Equal(t, want, ids)
	assert.Equal(t, testutil.InitialNextOrderID+n,
		queryInt(t, db, "SELECT d_next_o_id FROM district WHERE d_w_id = 1 AND d_id = 5"))
	assert.Equal(t, n, queryInt(t, db, "SELECT s_order_cnt FROM stock WHERE s_w_id = 1 AND s_i_id = ?", testutil.Items))
}

func TestPayment(t *testing.T) {
	env, db := setup(t)
	amount := decimal.RequireFromString("12.5")
	before := queryDecimal(t, db, "SELECT SUM(c_balance) FROM customer")

	out := execute(t, env, db, workload.Payment{WarehouseID: 1, DistrictID: 2, CustomerID: 3, Amount: amount})

	assert.Equal(t, schema.CustomerKey{WarehouseID: 1, DistrictID: 2, CustomerID: 3}, mustGet(t, out, "Customer identifier"))
	assert.Equal(t, "first3 OE last-1-2-3", mustGet(t, out, "Customer name"))
	balance := mustGet(t, out, "Customer balance").(decimal.Decimal)
	assert.True(t, testutil.CustomerBalance.Sub(amount).Equal(balance), balance.String())

	after := queryDecimal(t, db, "SELECT SUM(c_balance) FROM customer")
	assert.True(t, before.Sub(amount).Equal(after))
	assert.True(t, amount.Equal(queryDecimal(t, db, "SELECT SUM(w_ytd) FROM warehouse")))
	assert.True(t, amount.Equal(queryDecimal(t, db, "SELECT SUM(d_ytd) FROM district")))
	assert.True(t, amount.Equal(queryDecimal(t, db, "SELECT w_ytd FROM warehouse WHERE w_id = 1")))
	assert.True(t, amount.Equal(queryDecimal(t, db, "SELECT d_ytd FROM district WHERE d_w_id = 1 AND d_id = 2")))
	assert.True(t, decimal.NewFromInt(10).Add(amount).Equal(
		queryDecimal(t, db, "SELECT c_ytd_payment FROM customer WHERE c_w_id = 1 AND c_d_id = 2 AND c_id = 3")))
	assert.Equal(t, 2, queryInt(t, db, "SELECT c_payment_cnt FROM customer WHERE c_w_id = 1 AND c_d_id = 2 AND c_id = 3"))
}

func TestPaymentMissingCustomer(t *testing.T) {
	env, db := setup(t)
	ex, err := env.Executor(workload.Payment{WarehouseID: 1, DistrictID: 2, CustomerID: 42, Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	_, err = ex.Execute(context.Background(), db)
	assert.Equal(t, bench.ErrNotFound, errors.Cause(err))
	assert.True(t, decimal.Zero.Equal(queryDecimal(t, db, "SELECT SUM(w_ytd) FROM warehouse")))
}

func TestDelivery(t *testing.T) {
	env, db := setup(t)
	execute(t, env, db, workload.NewOrder{WarehouseID: 1, DistrictID: 1, CustomerID: 1, Items: items([3]int{2, 1, 3})})
	execute(t, env, db, workload.NewOrder{WarehouseID: 1, DistrictID: 1, CustomerID: 2, Items: items([3]int{3, 1, 1})})
	execute(t, env, db, workload.NewOrder{WarehouseID: 1, DistrictID: 2, CustomerID: 1, Items: items([3]int{5, 1, 2}, [3]int{6, 1, 2})})

	out := execute(t, env, db, workload.Delivery{WarehouseID: 1, CarrierID: 7})
	districts := mustGet(t, out, "Districts").([]bench.Row)
	require.Len(t, districts, schema.DistrictsPerWarehouse)
	assert.Equal(t, 1, districts[0][1].Value)
	assert.Equal(t, 1, districts[1][1].Value)
	assert.Equal(t, "none", districts[2][1].Value)

	carrier := func(d, o int) sql.NullInt64 {
		var c sql.NullInt64
		require.NoError(t, db.QueryRow("SELECT o_carrier_id FROM orders WHERE o_w_id = 1 AND o_d_id = ? AND o_id = ?", d, o).Scan(&c))
		return c
	}
	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, carrier(1, 1))
	assert.False(t, carrier(1, 2).Valid)
	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, carrier(2, 1))
	assert.Equal(t, 0, queryInt(t, db,
		"SELECT COUNT(*) FROM order_line WHERE ol_w_id = 1 AND ol_d_id = 2 AND ol_o_id = 1 AND ol_delivery_d IS NULL"))

	// 3 * 2.5 for (1, 1, 1) and 2 * 5.5 + 2 * 6.5 for (1, 2, 1).
	balance := func(d, c int) decimal.Decimal {
		return queryDecimal(t, db, "SELECT c_balance FROM customer WHERE c_w_id = 1 AND c_d_id = ? AND c_id = ?", d, c)
	}
	assert.True(t, testutil.CustomerBalance.Add(decimal.RequireFromString("7.5")).Equal(balance(1, 1)))
	assert.True(t, testutil.CustomerBalance.Add(decimal.NewFromInt(24)).Equal(balance(2, 1)))
	assert.True(t, testutil.CustomerBalance.Equal(balance(1, 2)))
	assert.Equal(t, 1, queryInt(t, db, "SELECT c_delivery_cnt FROM customer WHERE c_w_id = 1 AND c_d_id = 1 AND c_id = 1"))

	execute(t, env, db, workload.Delivery{WarehouseID: 1, CarrierID: 8})
	assert.Equal(t, sql.NullInt64{Int64: 8, Valid: true}, carrier(1, 2))
	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, carrier(1, 1))

	out = execute(t, env, db, workload.Delivery{WarehouseID: 1, CarrierID: 9})
	for _, row := range mustGet(t, out, "Districts").([]bench.Row) {
		assert.Equal(t, "none", row[1].Value)
	}
}

func TestOrderStatus(t *testing.T) {
	env, db := setup(t)
	status := workload.OrderStatus{WarehouseID: 2, DistrictID: 4, CustomerID: 1}

	out := execute(t, env, db, status)
	assert.Equal(t, "first1 OE last-2-4-1", mustGet(t, out, "Customer name"))
	assert.Equal(t, "no orders", mustGet(t, out, "Last order"))

	execute(t, env, db, workload.NewOrder{WarehouseID: 2, DistrictID: 4, CustomerID: 1, Items: items([3]int{1, 2, 1})})
	execute(t, env, db, workload.NewOrder{WarehouseID: 2, DistrictID: 4, CustomerID: 1, Items: items([3]int{2, 2, 1}, [3]int{3, 1, 4})})

	out = execute(t, env, db, status)
	assert.Contains(t, mustGet(t, out, "Last order"), "Order 2 ordered at")
	assert.Contains(t, mustGet(t, out, "Last order"), "with carrier none")
	lines := mustGet(t, out, "Order items").([]bench.Row)
	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[1][0].Value)
	assert.Equal(t, 1, lines[1][1].Value)
	assert.Equal(t, "not delivered", lines[1][4].Value)

	execute(t, env, db, workload.Delivery{WarehouseID: 2, CarrierID: 3})
	execute(t, env, db, workload.Delivery{WarehouseID: 2, CarrierID: 4})
	out = execute(t, env, db, status)
	assert.Contains(t, mustGet(t, out, "Last order"), "with carrier 4")
	lines = mustGet(t, out, "Order items").([]bench.Row)
	assert.NotEqual(t, "not delivered", lines[0][4].Value)
}

func TestStockLevel(t *testing.T) {
	env, db := setup(t)
	execute(t, env, db, workload.NewOrder{WarehouseID: 1, DistrictID: 6, CustomerID: 1, Items: items(
		[3]int{4, 1, 30},
		[3]int{7, 1, 45},
		[3]int{9, 1, 1},
	)})

	level := func(threshold, last int) int {
		out := execute(t, env, db, workload.StockLevel{WarehouseID: 1, DistrictID: 6, Threshold: threshold, LastOrders: last})
		return mustGet(t, out, "Number of items below stock threshold").(int)
	}
	// Stock is now 20, 105 and 49.
	assert.Equal(t, 1, level(25, 5))
	assert.Equal(t, 2, level(60, 5))
	assert.Equal(t, 3, level(200, 1))
	assert.Equal(t, 0, level(200, 0))
}

func TestRunInTxClassifies(t *testing.T) {
	env, db := setup(t)
	ctx := context.Background()

	err := runInTx(ctx, db, env.Dialect, func(tx *sqlx.Tx) error {
		return errors.Trace(sqlite3.Error{Code: sqlite3.ErrBusy})
	})
	assert.True(t, bench.IsConflict(err))

	boom := errors.New("boom")
	err = runInTx(ctx, db, env.Dialect, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE warehouse SET w_ytd = 100")
		require.NoError(t, err)
		return boom
	})
	assert.False(t, bench.IsConflict(err))
	assert.Equal(t, boom, errors.Cause(err))
	assert.True(t, decimal.Zero.Equal(queryDecimal(t, db, "SELECT SUM(w_ytd) FROM warehouse")))
}

func TestExecuteTxDiscardsOutputOnFailure(t *testing.T) {
	env, db := setup(t)
	ctx := context.Background()

	out, err := executeTx(ctx, db, env.Dialect, func(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
		_, err := tx.ExecContext(ctx, "UPDATE warehouse SET w_ytd = 100")
		require.NoError(t, err)
		out.Add("Partial", 1)
		return errors.Trace(sqlite3.Error{Code: sqlite3.ErrLocked})
	})
	assert.Nil(t, out)
	assert.True(t, bench.IsConflict(err))
	assert.True(t, decimal.Zero.Equal(queryDecimal(t, db, "SELECT SUM(w_ytd) FROM warehouse")))

	out, err = executeTx(ctx, db, env.Dialect, func(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
		out.Add("Warehouses", testutil.Warehouses)
		return nil
	})
	require.NoError(t, err)
	v, ok := out.Get("Warehouses")
	assert.True(t, ok)
	assert.Equal(t, testutil.Warehouses, v)
}
