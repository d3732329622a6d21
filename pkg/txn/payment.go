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

	"github.com/jmoiron/sqlx"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/schema"
	"github.com/pingcap/go-wholesale/pkg/workload"
)

type payment struct {
	env *Env
	req workload.Payment
}

func (t *payment) Kind() bench.Kind {
	return bench.Payment
}

func (t *payment) Execute(ctx context.Context, conn bench.Conn) (*bench.Output, error) {
	return executeTx(ctx, conn, t.env.Dialect, t.run)
}

func (t *payment) run(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
	d := t.env.Dialect
	r := t.req

	var w schema.Warehouse
	err := update{
		table:     schema.TableWarehouse,
		set:       "w_ytd = w_ytd + ?",
		where:     "w_id = ?",
		key:       r.WarehouseID,
		setArgs:   []interface{}{r.Amount},
		whereArgs: []interface{}{r.WarehouseID},
		returning: "w_street_1, w_street_2, w_city, w_state, w_zip",
	}.apply(ctx, tx, d, &w.Street1, &w.Street2, &w.City, &w.State, &w.Zip)
	if err != nil {
		return err
	}

	var dist schema.District
	err = update{
		table:     schema.TableDistrict,
		set:       "d_ytd = d_ytd + ?",
		where:     "d_w_id = ? AND d_id = ?",
		key:       [2]int{r.WarehouseID, r.DistrictID},
		setArgs:   []interface{}{r.Amount},
		whereArgs: []interface{}{r.WarehouseID, r.DistrictID},
		returning: "d_street_1, d_street_2, d_city, d_state, d_zip",
	}.apply(ctx, tx, d, &dist.Street1, &dist.Street2, &dist.City, &dist.State, &dist.Zip)
	if err != nil {
		return err
	}

	c := schema.Customer{CustomerKey: schema.CustomerKey{
		WarehouseID: r.WarehouseID,
		DistrictID:  r.DistrictID,
		CustomerID:  r.CustomerID,
	}}
	err = update{
		table:     schema.TableCustomer,
		set:       "c_balance = c_balance - ?, c_ytd_payment = c_ytd_payment + ?, c_payment_cnt = c_payment_cnt + 1",
		where:     "c_w_id = ? AND c_d_id = ? AND c_id = ?",
		key:       c.CustomerKey,
		setArgs:   []interface{}{r.Amount, r.Amount},
		whereArgs: []interface{}{r.WarehouseID, r.DistrictID, r.CustomerID},
		returning: "c_first, c_middle, c_last, c_street_1, c_street_2, c_city, c_state, c_zip, " +
			"c_phone, c_since, c_credit, c_credit_lim, c_discount, c_balance",
	}.apply(ctx, tx, d,
		&c.First, &c.Middle, &c.Last, &c.Street1, &c.Street2, &c.City, &c.State, &c.Zip,
		&c.Phone, &c.Since, &c.Credit, &c.CreditLimit, &c.Discount, &c.Balance)
	if err != nil {
		return err
	}

	out.Add("Customer identifier", c.CustomerKey)
	out.Add("Customer name", c.Name())
	out.Add("Customer address", c.Address)
	out.Add("Customer phone", c.Phone)
	out.Add("Customer creation date", c.Since)
	out.Add("Customer credit", c.Credit)
	out.Add("Customer credit limit", c.CreditLimit)
	out.Add("Customer discount", c.Discount)
	out.Add("Customer balance", c.Balance)
	out.Add("Warehouse address", w.Address)
	out.Add("District address", dist.Address)
	out.Add("Payment", r.Amount)
	return nil
}
