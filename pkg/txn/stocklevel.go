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
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/schema"
	"github.com/pingcap/go-wholesale/pkg/workload"
)

type stockLevel struct {
	env *Env
	req workload.StockLevel
}

func (t *stockLevel) Kind() bench.Kind {
	return bench.StockLevel
}

func (t *stockLevel) Execute(ctx context.Context, conn bench.Conn) (*bench.Output, error) {
	return executeTx(ctx, conn, t.env.Dialect, t.run)
}

func (t *stockLevel) run(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
	r := t.req
	var next int
	err := getRow(ctx, tx, schema.TableDistrict, [2]int{r.WarehouseID, r.DistrictID},
		"SELECT d_next_o_id FROM district WHERE d_w_id = ? AND d_id = ?",
		[]interface{}{r.WarehouseID, r.DistrictID}, &next)
	if err != nil {
		return err
	}

	// Stock is kept per warehouse, so lines join the stock of their home
	// warehouse.
	var count int
	err = getRow(ctx, tx, schema.TableStock, [2]int{r.WarehouseID, r.DistrictID},
		"SELECT COUNT(DISTINCT s.s_i_id) FROM order_line ol "+
			"JOIN stock s ON s.s_w_id = ol.ol_w_id AND s.s_i_id = ol.ol_i_id "+
			"WHERE ol.ol_w_id = ? AND ol.ol_d_id = ? AND ol.ol_o_id >= ? AND ol.ol_o_id < ? AND s.s_quantity < ?",
		[]interface{}{r.WarehouseID, r.DistrictID, next - r.LastOrders, next, r.Threshold}, &count)
	if err != nil {
		return err
	}

	out.Add("District identifier", fmt.Sprintf("(%d, %d)", r.WarehouseID, r.DistrictID))
	out.Add("Number of items below stock threshold", count)
	return nil
}
