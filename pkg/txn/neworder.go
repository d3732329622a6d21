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
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/schema"
	"github.com/pingcap/go-wholesale/pkg/util"
	"github.com/pingcap/go-wholesale/pkg/workload"
	"github.com/shopspring/decimal"
)

type newOrder struct {
	env *Env
	req workload.NewOrder
}

func (t *newOrder) Kind() bench.Kind {
	return bench.NewOrder
}

func (t *newOrder) Execute(ctx context.Context, conn bench.Conn) (*bench.Output, error) {
	return executeTx(ctx, conn, t.env.Dialect, t.run)
}

func (t *newOrder) run(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
	d := t.env.Dialect
	r := t.req
	if len(r.Items) == 0 {
		return errors.Errorf("new order %s has no items", r)
	}

	var (
		orderID int
		dTax    decimal.Decimal
	)
	// Claim the order id and bump the counter in one statement.
	err := update{
		table:     schema.TableDistrict,
		set:       "d_next_o_id = d_next_o_id + 1",
		where:     "d_w_id = ? AND d_id = ?",
		key:       [2]int{r.WarehouseID, r.DistrictID},
		whereArgs: []interface{}{r.WarehouseID, r.DistrictID},
		returning: "d_next_o_id - 1, d_tax",
	}.apply(ctx, tx, d, &orderID, &dTax)
	if err != nil {
		return err
	}

	allLocal := 0
	if r.AllLocal() {
		allLocal = 1
	}
	entryDate := t.env.Now()
	_, err = tx.ExecContext(ctx, tx.Rebind(
		"INSERT INTO orders (o_w_id, o_d_id, o_id, o_c_id, o_carrier_id, o_ol_cnt, o_all_local, o_entry_d) "+
			"VALUES (?, ?, ?, ?, NULL, ?, ?, ?)"),
		r.WarehouseID, r.DistrictID, orderID, r.CustomerID, len(r.Items), allLocal, entryDate)
	if err != nil {
		return errors.Annotatef(err, "insert order %d", orderID)
	}

	itemIDs := distinctItems(r.Items)
	stocks, err := t.readStocks(ctx, tx, itemIDs)
	if err != nil {
		return err
	}

	// Stage every deduction on the read rows; an item ordered twice is
	// deducted twice from the same row.
	remaining := make([]int, len(r.Items))
	for i, it := range r.Items {
		st := stocks[it.ItemID]
		st.Deduct(it.Quantity, it.SupplyWarehouseID != r.WarehouseID)
		remaining[i] = st.Quantity
	}
	if err = t.writeStocks(ctx, tx, itemIDs, stocks); err != nil {
		return err
	}

	items, err := readItems(ctx, tx, itemIDs)
	if err != nil {
		return err
	}

	subtotal := decimal.Zero
	lines := make([]schema.OrderLine, len(r.Items))
	for i, it := range r.Items {
		amount := items[it.ItemID].Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(amount)
		lines[i] = schema.OrderLine{
			WarehouseID:       r.WarehouseID,
			DistrictID:        r.DistrictID,
			OrderID:           orderID,
			Number:            i,
			ItemID:            it.ItemID,
			SupplyWarehouseID: it.SupplyWarehouseID,
			Quantity:          it.Quantity,
			Amount:            amount,
			DistInfo:          stocks[it.ItemID].DistInfo(r.DistrictID),
			DeliveryDate:      sql.NullTime{},
		}
	}
	if err = insertOrderLines(ctx, tx, lines); err != nil {
		return err
	}

	var (
		key  = schema.CustomerKey{WarehouseID: r.WarehouseID, DistrictID: r.DistrictID, CustomerID: r.CustomerID}
		c    schema.Customer
		wTax decimal.Decimal
	)
	err = getRow(ctx, tx, schema.TableCustomer, key,
		"SELECT c_last, c_credit, c_discount FROM customer WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
		[]interface{}{r.WarehouseID, r.DistrictID, r.CustomerID}, &c.Last, &c.Credit, &c.Discount)
	if err != nil {
		return err
	}
	err = getRow(ctx, tx, schema.TableWarehouse, r.WarehouseID,
		"SELECT w_tax FROM warehouse WHERE w_id = ?", []interface{}{r.WarehouseID}, &wTax)
	if err != nil {
		return err
	}

	total := schema.ChargedTotal(subtotal, dTax, wTax, c.Discount)

	out.Add("Customer identifier", key)
	out.Add("Customer last name", c.Last)
	out.Add("Customer credit", c.Credit)
	out.Add("Customer discount", c.Discount)
	out.Add("Warehouse tax rate", wTax)
	out.Add("District tax rate", dTax)
	out.Add("Order number", orderID)
	out.Add("Entry date", entryDate)
	out.Add("Num items", len(r.Items))
	out.Add("Total amount", total.StringFixed(2))
	rows := make([]bench.Row, len(lines))
	for i, l := range lines {
		rows[i] = bench.Row{
			{Name: "item", Value: l.ItemID},
			{Name: "name", Value: items[l.ItemID].Name},
			{Name: "supplying warehouse", Value: l.SupplyWarehouseID},
			{Name: "quantity", Value: l.Quantity},
			{Name: "amount", Value: l.Amount},
			{Name: "remaining stock", Value: remaining[i]},
		}
	}
	out.Add("Items", rows)
	return nil
}

func distinctItems(items []workload.OrderItem) []int {
	seen := make(map[int]struct{}, len(items))
	ids := make([]int, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ItemID]; ok {
			continue
		}
		seen[it.ItemID] = struct{}{}
		ids = append(ids, it.ItemID)
	}
	sort.Ints(ids)
	return ids
}

// readStocks reads the home warehouse stock of every item.
func (t *newOrder) readStocks(ctx context.Context, tx *sqlx.Tx, itemIDs []int) (map[int]*schema.Stock, error) {
	query := "SELECT " + strings.Join(schema.StockColumns(), ", ") +
		" FROM stock WHERE s_w_id = ? AND s_i_id IN (?)" + t.env.Dialect.ForUpdate()
	rows, err := selectIn(ctx, tx, query, t.req.WarehouseID, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stocks := make(map[int]*schema.Stock, len(itemIDs))
	for rows.Next() {
		st := new(schema.Stock)
		if err = rows.Scan(st.ScanDest()...); err != nil {
			return nil, errors.Trace(err)
		}
		stocks[st.ItemID] = st
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Trace(err)
	}

	for _, id := range itemIDs {
		if _, ok := stocks[id]; !ok {
			return nil, notFound(schema.TableStock, [2]int{t.req.WarehouseID, id})
		}
	}
	return stocks, nil
}

// writeStocks stores the staged stock rows with one upsert.
func (t *newOrder) writeStocks(ctx context.Context, tx *sqlx.Tx, itemIDs []int, stocks map[int]*schema.Stock) error {
	cols := schema.StockColumns()
	stmt := t.env.Dialect.Upsert(schema.TableStock, cols, schema.StockKeyColumns, len(itemIDs))
	args := make([]interface{}, 0, len(cols)*len(itemIDs))
	for _, id := range itemIDs {
		args = append(args, stocks[id].Values()...)
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(stmt), args...)
	return errors.Annotate(err, "update stock")
}

func readItems(ctx context.Context, tx *sqlx.Tx, itemIDs []int) (map[int]*schema.Item, error) {
	rows, err := selectIn(ctx, tx, "SELECT i_id, i_name, i_price FROM item WHERE i_id IN (?)", itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int]*schema.Item, len(itemIDs))
	for rows.Next() {
		it := new(schema.Item)
		if err = rows.Scan(&it.ID, &it.Name, &it.Price); err != nil {
			return nil, errors.Trace(err)
		}
		items[it.ID] = it
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Trace(err)
	}

	for _, id := range itemIDs {
		if _, ok := items[id]; !ok {
			return nil, notFound(schema.TableItem, id)
		}
	}
	return items, nil
}

func insertOrderLines(ctx context.Context, tx *sqlx.Tx, lines []schema.OrderLine) error {
	stmt := util.InsertValues("INSERT", schema.TableOrderLine, schema.OrderLineColumns, len(lines))
	args := make([]interface{}, 0, len(schema.OrderLineColumns)*len(lines))
	for i := range lines {
		args = append(args, lines[i].Values()...)
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(stmt), args...)
	return errors.Annotate(err, "insert order lines")
}
