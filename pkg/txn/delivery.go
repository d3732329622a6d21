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
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/schema"
	"github.com/pingcap/go-wholesale/pkg/workload"
	"github.com/shopspring/decimal"
)

type delivery struct {
	env *Env
	req workload.Delivery
}

func (t *delivery) Kind() bench.Kind {
	return bench.Delivery
}

func (t *delivery) Execute(ctx context.Context, conn bench.Conn) (*bench.Output, error) {
	return executeTx(ctx, conn, t.env.Dialect, t.run)
}

func (t *delivery) run(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
	deliveryDate := t.env.Now()
	rows := make([]bench.Row, 0, schema.DistrictsPerWarehouse)
	for d := 1; d <= schema.DistrictsPerWarehouse; d++ {
		row, err := t.deliverDistrict(ctx, tx, d, deliveryDate)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	out.Add("Warehouse", t.req.WarehouseID)
	out.Add("Carrier", t.req.CarrierID)
	out.Add("Delivery date", deliveryDate)
	out.Add("Districts", rows)
	return nil
}

// deliverDistrict delivers the oldest undelivered order of district d.
func (t *delivery) deliverDistrict(ctx context.Context, tx *sqlx.Tx, d int, deliveryDate time.Time) (bench.Row, error) {
	w := t.req.WarehouseID
	var orderID, customerID int
	err := tx.QueryRowxContext(ctx, tx.Rebind(
		"SELECT o_id, o_c_id FROM orders WHERE o_w_id = ? AND o_d_id = ? AND o_carrier_id IS NULL "+
			"ORDER BY o_id LIMIT 1"+t.env.Dialect.ForUpdate()), w, d).Scan(&orderID, &customerID)
	if err == sql.ErrNoRows {
		return bench.Row{{Name: "district", Value: d}, {Name: "order", Value: "none"}}, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}

	// A concurrent delivery of the same order matches no row here.
	res, err := tx.ExecContext(ctx, tx.Rebind(
		"UPDATE orders SET o_carrier_id = ? WHERE o_w_id = ? AND o_d_id = ? AND o_id = ? AND o_carrier_id IS NULL"),
		t.req.CarrierID, w, d, orderID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if n == 0 {
		return nil, bench.Conflict(errors.Errorf("order (%d, %d, %d) delivered concurrently", w, d, orderID))
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(
		"UPDATE order_line SET ol_delivery_d = ? WHERE ol_w_id = ? AND ol_d_id = ? AND ol_o_id = ?"),
		deliveryDate, w, d, orderID)
	if err != nil {
		return nil, errors.Annotatef(err, "stamp lines of order %d", orderID)
	}

	amount, err := orderAmount(ctx, tx, w, d, orderID)
	if err != nil {
		return nil, err
	}

	key := schema.CustomerKey{WarehouseID: w, DistrictID: d, CustomerID: customerID}
	err = execOne(ctx, tx, schema.TableCustomer, key,
		"UPDATE customer SET c_balance = c_balance + ?, c_delivery_cnt = c_delivery_cnt + 1 "+
			"WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
		amount, w, d, customerID)
	if err != nil {
		return nil, err
	}

	return bench.Row{
		{Name: "district", Value: d},
		{Name: "order", Value: orderID},
		{Name: "customer", Value: key},
		{Name: "amount", Value: amount},
	}, nil
}

// orderAmount sums the line amounts of an order.
func orderAmount(ctx context.Context, tx *sqlx.Tx, w, d, orderID int) (decimal.Decimal, error) {
	rows, err := tx.QueryxContext(ctx, tx.Rebind(
		"SELECT ol_amount FROM order_line WHERE ol_w_id = ? AND ol_d_id = ? AND ol_o_id = ?"), w, d, orderID)
	if err != nil {
		return decimal.Zero, errors.Trace(err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err = rows.Scan(&amount); err != nil {
			return decimal.Zero, errors.Trace(err)
		}
		sum = sum.Add(amount)
	}
	return sum, errors.Trace(rows.Err())
}
