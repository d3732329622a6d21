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
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/schema"
	"github.com/pingcap/go-wholesale/pkg/workload"
)

type orderStatus struct {
	env *Env
	req workload.OrderStatus
}

func (t *orderStatus) Kind() bench.Kind {
	return bench.OrderStatus
}

func (t *orderStatus) Execute(ctx context.Context, conn bench.Conn) (*bench.Output, error) {
	return executeTx(ctx, conn, t.env.Dialect, t.run)
}

func (t *orderStatus) run(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
	r := t.req
	c := schema.Customer{CustomerKey: schema.CustomerKey{
		WarehouseID: r.WarehouseID,
		DistrictID:  r.DistrictID,
		CustomerID:  r.CustomerID,
	}}
	err := getRow(ctx, tx, schema.TableCustomer, c.CustomerKey,
		"SELECT c_first, c_middle, c_last, c_balance FROM customer WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
		[]interface{}{r.WarehouseID, r.DistrictID, r.CustomerID}, &c.First, &c.Middle, &c.Last, &c.Balance)
	if err != nil {
		return err
	}
	out.Add("Customer name", c.Name())
	out.Add("Customer balance", c.Balance)

	var o schema.Order
	err = tx.QueryRowxContext(ctx, tx.Rebind(
		"SELECT o_id, o_entry_d, o_carrier_id FROM orders WHERE o_w_id = ? AND o_d_id = ? AND o_c_id = ? "+
			"ORDER BY o_id DESC LIMIT 1"), r.WarehouseID, r.DistrictID, r.CustomerID).
		Scan(&o.ID, &o.EntryDate, &o.CarrierID)
	if err == sql.ErrNoRows {
		out.Add("Last order", "no orders")
		return nil
	}
	if err != nil {
		return errors.Trace(err)
	}

	carrier := "none"
	if o.CarrierID.Valid {
		carrier = fmt.Sprint(o.CarrierID.Int64)
	}
	out.Add("Last order", fmt.Sprintf("Order %d ordered at %s with carrier %s",
		o.ID, o.EntryDate.Format(time.RFC3339Nano), carrier))

	rows, err := tx.QueryxContext(ctx, tx.Rebind(
		"SELECT ol_i_id, ol_supply_w_id, ol_quantity, ol_amount, ol_delivery_d FROM order_line "+
			"WHERE ol_w_id = ? AND ol_d_id = ? AND ol_o_id = ? ORDER BY ol_number"),
		r.WarehouseID, r.DistrictID, o.ID)
	if err != nil {
		return errors.Trace(err)
	}
	defer rows.Close()

	var items []bench.Row
	for rows.Next() {
		var l schema.OrderLine
		if err = rows.Scan(&l.ItemID, &l.SupplyWarehouseID, &l.Quantity, &l.Amount, &l.DeliveryDate); err != nil {
			return errors.Trace(err)
		}
		delivered := "not delivered"
		if l.DeliveryDate.Valid {
			delivered = l.DeliveryDate.Time.Format(time.RFC3339Nano)
		}
		items = append(items, bench.Row{
			{Name: "item", Value: l.ItemID},
			{Name: "supplying warehouse", Value: l.SupplyWarehouseID},
			{Name: "quantity", Value: l.Quantity},
			{Name: "amount", Value: l.Amount},
			{Name: "delivery date", Value: delivered},
		})
	}
	if err = rows.Err(); err != nil {
		return errors.Trace(err)
	}
	out.Add("Order items", items)
	return nil
}
