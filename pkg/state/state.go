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

// Package state reads the aggregate database state used to check a run.
package state

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pingcap/errors"
	"github.com/shopspring/decimal"
)

type query struct {
	table   string
	columns []string
}

var queries = []query{
	{"warehouse", []string{"SUM(w_ytd)"}},
	{"district", []string{"SUM(d_ytd)", "SUM(d_next_o_id)"}},
	{"customer", []string{"SUM(c_balance)", "SUM(c_ytd_payment)", "SUM(c_payment_cnt)", "SUM(c_delivery_cnt)"}},
	{"orders", []string{"MAX(o_id)", "SUM(o_ol_cnt)"}},
	{"order_line", []string{"SUM(ol_amount)", "SUM(ol_quantity)"}},
	{"stock", []string{"SUM(s_quantity)", "SUM(s_ytd)", "SUM(s_order_cnt)", "SUM(s_remote_cnt)"}},
}

// Names labels the snapshot values in order.
var Names = []string{
	"w_ytd", "d_ytd", "d_next_o_id",
	"c_balance", "c_ytd_payment", "c_payment_cnt", "c_delivery_cnt",
	"o_id", "o_ol_cnt",
	"ol_amount", "ol_quantity",
	"s_quantity", "s_ytd", "s_order_cnt", "s_remote_cnt",
}

// Snapshot is the aggregate state of the database.
type Snapshot []decimal.Decimal

// Read collects the snapshot. Aggregates over empty tables are zero.
func Read(ctx context.Context, db sqlx.QueryerContext) (Snapshot, error) {
	s := make(Snapshot, 0, len(Names))
	for _, q := range queries {
		exprs := make([]string, len(q.columns))
		for i, c := range q.columns {
			exprs[i] = fmt.Sprintf("COALESCE(%s, 0)", c)
		}
		stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), q.table)

		vals := make([]decimal.Decimal, len(q.columns))
		dest := make([]interface{}, len(vals))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := db.QueryRowxContext(ctx, stmt).Scan(dest...); err != nil {
			return nil, errors.Annotatef(err, "read %s state", q.table)
		}
		s = append(s, vals...)
	}
	return s, nil
}

// String joins the values with commas.
func (s Snapshot) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

// Get returns the value labelled name.
func (s Snapshot) Get(name string) (decimal.Decimal, bool) {
	for i, n := range Names {
		if n == name && i < len(s) {
			return s[i], true
		}
	}
	return decimal.Zero, false
}

// WriteTo writes the comma joined line.
func (s Snapshot) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintln(w, s.String())
	return int64(n), errors.Trace(err)
}
