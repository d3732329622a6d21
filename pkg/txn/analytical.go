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
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/workload"
	"github.com/shopspring/decimal"
)

// params binds every template placeholder; templates use a subset.
func (e *Env) params(w, d, c, lastOrders int) map[string]interface{} {
	return map[string]interface{}{
		ParamWarehouseID:   w,
		ParamDistrictID:    d,
		ParamCustomerID:    c,
		ParamNumLastOrders: lastOrders,
		ParamCurrentTime:   e.Now(),
	}
}

// queryTemplate expands the named placeholders of a template for the
// dialect and runs it.
func queryTemplate(ctx context.Context, tx *sqlx.Tx, d bench.Dialect, tmpl string, params map[string]interface{}) (*sqlx.Rows, error) {
	query, args, err := sqlx.Named(tmpl, params)
	if err != nil {
		return nil, errors.Annotate(err, "bind template")
	}
	rows, err := tx.QueryxContext(ctx, sqlx.Rebind(d.BindType(), query), args...)
	return rows, errors.Trace(err)
}

// tuples renders every row as "(v1, v2, ...)".
func tuples(rows *sqlx.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, errors.Trace(err)
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = formatValue(v)
		}
		out = append(out, "("+strings.Join(parts, ", ")+")")
	}
	return out, errors.Trace(rows.Err())
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return fmt.Sprint(v)
	}
}

type popularItem struct {
	env *Env
	req workload.PopularItem
}

func (t *popularItem) Kind() bench.Kind {
	return bench.PopularItem
}

func (t *popularItem) Execute(ctx context.Context, conn bench.Conn) (*bench.Output, error) {
	return executeTx(ctx, conn, t.env.Dialect, t.run)
}

type popularOrder struct {
	id        int
	entryDate time.Time
	customer  string
	items     []string
	has       map[string]struct{}
}

func (t *popularItem) run(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
	r := t.req
	rows, err := queryTemplate(ctx, tx, t.env.Dialect, t.env.Templates.PopularItem,
		t.env.params(r.WarehouseID, r.DistrictID, 0, r.LastOrders))
	if err != nil {
		return err
	}
	defer rows.Close()

	var (
		orders   []*popularOrder
		byID     = make(map[int]*popularOrder)
		itemSeen = make(map[string]struct{})
		items    []string
	)
	for rows.Next() {
		var (
			id                  int
			entryDate           time.Time
			first, middle, last string
			itemName            string
			quantity            int
		)
		if err = rows.Scan(&id, &entryDate, &first, &middle, &last, &itemName, &quantity); err != nil {
			return errors.Trace(err)
		}
		o, ok := byID[id]
		if !ok {
			o = &popularOrder{
				id:        id,
				entryDate: entryDate,
				customer:  fmt.Sprintf("%s %s %s", first, middle, last),
				has:       make(map[string]struct{}),
			}
			byID[id] = o
			orders = append(orders, o)
		}
		o.items = append(o.items, fmt.Sprintf("%s (%d)", itemName, quantity))
		o.has[itemName] = struct{}{}
		if _, ok := itemSeen[itemName]; !ok {
			itemSeen[itemName] = struct{}{}
			items = append(items, itemName)
		}
	}
	if err = rows.Err(); err != nil {
		return errors.Trace(err)
	}

	orderRows := make([]bench.Row, len(orders))
	for i, o := range orders {
		orderRows[i] = bench.Row{
			{Name: "order", Value: o.id},
			{Name: "entry date", Value: o.entryDate.Format(time.RFC3339Nano)},
			{Name: "customer", Value: o.customer},
			{Name: "popular items", Value: strings.Join(o.items, "; ")},
		}
	}

	stats := make([]bench.Row, len(items))
	for i, name := range items {
		containing := 0
		for _, o := range orders {
			if _, ok := o.has[name]; ok {
				containing++
			}
		}
		pct := decimal.NewFromInt(int64(containing * 100)).Div(decimal.NewFromInt(int64(len(orders))))
		stats[i] = bench.Row{
			{Name: "item", Value: name},
			{Name: "orders", Value: pct.StringFixed(2) + "%"},
		}
	}

	out.Add("District identifier", fmt.Sprintf("(%d, %d)", r.WarehouseID, r.DistrictID))
	out.Add("Number of last orders examined", len(orders))
	out.Add("Orders with popular items", orderRows)
	out.Add("Popular item statistics", stats)
	return nil
}

type topBalance struct {
	env *Env
	req workload.TopBalance
}

func (t *topBalance) Kind() bench.Kind {
	return bench.TopBalance
}

func (t *topBalance) Execute(ctx context.Context, conn bench.Conn) (*bench.Output, error) {
	return executeTx(ctx, conn, t.env.Dialect, t.run)
}

func (t *topBalance) run(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
	rows, err := queryTemplate(ctx, tx, t.env.Dialect, t.env.Templates.TopBalance, t.env.params(0, 0, 0, 0))
	if err != nil {
		return err
	}
	customers, err := tuples(rows)
	if err != nil {
		return err
	}
	out.Add("Top customers with highest balance", customers)
	return nil
}

type relatedCustomer struct {
	env *Env
	req workload.RelatedCustomer
}

func (t *relatedCustomer) Kind() bench.Kind {
	return bench.RelatedCustomer
}

func (t *relatedCustomer) Execute(ctx context.Context, conn bench.Conn) (*bench.Output, error) {
	return executeTx(ctx, conn, t.env.Dialect, t.run)
}

func (t *relatedCustomer) run(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error {
	r := t.req
	rows, err := queryTemplate(ctx, tx, t.env.Dialect, t.env.Templates.RelatedCustomer,
		t.env.params(r.WarehouseID, r.DistrictID, r.CustomerID, 0))
	if err != nil {
		return err
	}
	related, err := tuples(rows)
	if err != nil {
		return err
	}
	out.Add("Input customer identifier", fmt.Sprintf("(%d, %d, %d)", r.WarehouseID, r.DistrictID, r.CustomerID))
	out.Add("Related customers", related)
	return nil
}
