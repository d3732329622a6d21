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

// Package testutil builds small seeded SQLite databases for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/magiconair/properties"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	// register the sqlite backend
	_ "github.com/pingcap/go-wholesale/db/sqlite"
)

// Fixture sizes and seed values.
const (
	Warehouses           = 2
	CustomersPerDistrict = 3
	Items                = 20
	InitialStock         = 50
	InitialNextOrderID   = 1
)

// Seed rates. They are exact in binary floating point so SQLite arithmetic
// stays exact in tests.
var (
	WarehouseTax     = decimal.RequireFromString("0.125")
	DistrictTax      = decimal.RequireFromString("0.0625")
	CustomerDiscount = decimal.RequireFromString("0.25")
	CustomerBalance  = decimal.RequireFromString("-10")
)

// ItemPrice returns the seeded price of item i.
func ItemPrice(i int) decimal.Decimal {
	return decimal.NewFromInt(int64(i)).Add(decimal.RequireFromString("0.5"))
}

// DistInfo returns the seeded s_dist_XX string of stock (w, i) for district d.
func DistInfo(w, i, d int) string {
	return fmt.Sprintf("dist-%d-%d-%02d", w, i, d)
}

// DDL creates the workload tables.
var DDL = []string{
	`CREATE TABLE warehouse (
		w_id INTEGER NOT NULL PRIMARY KEY,
		w_name VARCHAR(10) NOT NULL,
		w_street_1 VARCHAR(20) NOT NULL,
		w_street_2 VARCHAR(20) NOT NULL,
		w_city VARCHAR(20) NOT NULL,
		w_state CHAR(2) NOT NULL,
		w_zip CHAR(9) NOT NULL,
		w_tax DECIMAL(4,4) NOT NULL,
		w_ytd DECIMAL(12,2) NOT NULL
	)`,
	`CREATE TABLE district (
		d_w_id INTEGER NOT NULL,
		d_id INTEGER NOT NULL,
		d_name VARCHAR(10) NOT NULL,
		d_street_1 VARCHAR(20) NOT NULL,
		d_street_2 VARCHAR(20) NOT NULL,
		d_city VARCHAR(20) NOT NULL,
		d_state CHAR(2) NOT NULL,
		d_zip CHAR(9) NOT NULL,
		d_tax DECIMAL(4,4) NOT NULL,
		d_ytd DECIMAL(12,2) NOT NULL,
		d_next_o_id INTEGER NOT NULL,
		PRIMARY KEY (d_w_id, d_id)
	)`,
	`CREATE TABLE customer (
		c_w_id INTEGER NOT NULL,
		c_d_id INTEGER NOT NULL,
		c_id INTEGER NOT NULL,
		c_first VARCHAR(16) NOT NULL,
		c_middle CHAR(2) NOT NULL,
		c_last VARCHAR(16) NOT NULL,
		c_street_1 VARCHAR(20) NOT NULL,
		c_street_2 VARCHAR(20) NOT NULL,
		c_city VARCHAR(20) NOT NULL,
		c_state CHAR(2) NOT NULL,
		c_zip CHAR(9) NOT NULL,
		c_phone CHAR(16) NOT NULL,
		c_since TIMESTAMP NOT NULL,
		c_credit CHAR(2) NOT NULL,
		c_credit_lim DECIMAL(12,2) NOT NULL,
		c_discount DECIMAL(5,4) NOT NULL,
		c_balance DECIMAL(12,2) NOT NULL,
		c_ytd_payment DECIMAL(12,2) NOT NULL,
		c_payment_cnt INTEGER NOT NULL,
		c_delivery_cnt INTEGER NOT NULL,
		c_data VARCHAR(500) NOT NULL,
		PRIMARY KEY (c_w_id, c_d_id, c_id)
	)`,
	`CREATE TABLE orders (
		o_w_id INTEGER NOT NULL,
		o_d_id INTEGER NOT NULL,
		o_id INTEGER NOT NULL,
		o_c_id INTEGER NOT NULL,
		o_carrier_id INTEGER,
		o_ol_cnt INTEGER NOT NULL,
		o_all_local INTEGER NOT NULL,
		o_entry_d TIMESTAMP NOT NULL,
		PRIMARY KEY (o_w_id, o_d_id, o_id)
	)`,
	`CREATE TABLE order_line (
		ol_w_id INTEGER NOT NULL,
		ol_d_id INTEGER NOT NULL,
		ol_o_id INTEGER NOT NULL,
		ol_number INTEGER NOT NULL,
		ol_i_id INTEGER NOT NULL,
		ol_supply_w_id INTEGER NOT NULL,
		ol_quantity INTEGER NOT NULL,
		ol_amount DECIMAL(7,2) NOT NULL,
		ol_dist_info CHAR(24) NOT NULL,
		ol_delivery_d TIMESTAMP,
		PRIMARY KEY (ol_w_id, ol_d_id, ol_o_id, ol_number)
	)`,
	`CREATE TABLE item (
		i_id INTEGER NOT NULL PRIMARY KEY,
		i_im_id INTEGER NOT NULL,
		i_name VARCHAR(24) NOT NULL,
		i_price DECIMAL(5,2) NOT NULL,
		i_data VARCHAR(50) NOT NULL
	)`,
	`CREATE TABLE stock (
		s_w_id INTEGER NOT NULL,
		s_i_id INTEGER NOT NULL,
		s_quantity INTEGER NOT NULL,
		s_ytd DECIMAL(8,2) NOT NULL,
		s_order_cnt INTEGER NOT NULL,
		s_remote_cnt INTEGER NOT NULL,
		s_dist_01 CHAR(24) NOT NULL,
		s_dist_02 CHAR(24) NOT NULL,
		s_dist_03 CHAR(24) NOT NULL,
		s_dist_04 CHAR(24) NOT NULL,
		s_dist_05 CHAR(24) NOT NULL,
		s_dist_06 CHAR(24) NOT NULL,
		s_dist_07 CHAR(24) NOT NULL,
		s_dist_08 CHAR(24) NOT NULL,
		s_dist_09 CHAR(24) NOT NULL,
		s_dist_10 CHAR(24) NOT NULL,
		s_data VARCHAR(50) NOT NULL,
		PRIMARY KEY (s_w_id, s_i_id)
	)`,
}

// OpenSQLite creates a seeded database file in a temporary directory and
// returns the backend with an open pool. The pool is closed when the test
// ends.
func OpenSQLite(t testing.TB) (bench.Backend, *sqlx.DB) {
	b := bench.GetBackend("sqlite")
	require.NotNil(t, b)

	p := properties.NewProperties()
	p.Set("sqlite.db", filepath.Join(t.TempDir(), "wholesale.db"))
	db, err := b.Open(p)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range DDL {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	seed(t, db)
	return b, db
}

func seed(t testing.TB, db *sqlx.DB) {
	tx := db.MustBegin()
	since := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= Items; i++ {
		tx.MustExec("INSERT INTO item VALUES (?, ?, ?, ?, ?)", i, i, fmt.Sprintf("item-%02d", i), ItemPrice(i), "data")
	}
	for w := 1; w <= Warehouses; w++ {
		tx.MustExec("INSERT INTO warehouse VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			w, fmt.Sprintf("w-%d", w), "w street 1", "w street 2", "w city", "WS", "111111111", WarehouseTax, 0)
		for d := 1; d <= 10; d++ {
			tx.MustExec("INSERT INTO district VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				w, d, fmt.Sprintf("d-%d-%d", w, d), "d street 1", "d street 2", "d city", "DS", "222222222",
				DistrictTax, 0, InitialNextOrderID)
			for c := 1; c <= CustomersPerDistrict; c++ {
				tx.MustExec("INSERT INTO customer VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
					w, d, c, fmt.Sprintf("first%d", c), "OE", fmt.Sprintf("last-%d-%d-%d", w, d, c),
					"c street 1", "c street 2", "c city", "CS", "333333333", "0123456789", since,
					"GC", 50000, CustomerDiscount, CustomerBalance, 10, 1, 0, "data")
			}
		}
		for i := 1; i <= Items; i++ {
			args := []interface{}{w, i, InitialStock, 0, 0, 0}
			for d := 1; d <= 10; d++ {
				args = append(args, DistInfo(w, i, d))
			}
			args = append(args, "data")
			tx.MustExec("INSERT INTO stock VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", args...)
		}
	}
	require.NoError(t, tx.Commit())
}
