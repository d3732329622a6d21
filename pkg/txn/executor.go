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

// Package txn implements the business transactions of the wholesale
// workload. Every executor runs its reads and writes in one serializable
// transaction and reports backend serialization failures as
// bench.ErrConflict so the caller can run it again.
package txn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/workload"
)

// Env is shared by the executors of one client.
type Env struct {
	Dialect   bench.Dialect
	Templates *Templates
	// Now stamps entry and delivery dates.
	Now func() time.Time
}

// NewEnv returns an Env using the default analytical templates when t is nil.
func NewEnv(d bench.Dialect, t *Templates) *Env {
	if t == nil {
		t = DefaultTemplates()
	}
	return &Env{
		Dialect:   d,
		Templates: t,
		Now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// Executor returns the executor of a parsed request.
func (e *Env) Executor(r workload.Request) (bench.Executor, error) {
	switch r := r.(type) {
	case workload.NewOrder:
		return &newOrder{env: e, req: r}, nil
	case workload.Payment:
		return &payment{env: e, req: r}, nil
	case workload.Delivery:
		return &delivery{env: e, req: r}, nil
	case workload.OrderStatus:
		return &orderStatus{env: e, req: r}, nil
	case workload.StockLevel:
		return &stockLevel{env: e, req: r}, nil
	case workload.PopularItem:
		return &popularItem{env: e, req: r}, nil
	case workload.TopBalance:
		return &topBalance{env: e, req: r}, nil
	case workload.RelatedCustomer:
		return &relatedCustomer{env: e, req: r}, nil
	default:
		return nil, errors.Errorf("unknown request %T", r)
	}
}

// runInTx runs fn in a serializable transaction and commits it. Any error
// rolls the transaction back; backend conflicts come back as
// bench.ErrConflict.
func runInTx(ctx context.Context, conn bench.Conn, d bench.Dialect, fn func(tx *sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return classify(d, err)
	}

	if err = fn(tx); err != nil {
		// The rollback error is useless once the transaction has failed.
		_ = tx.Rollback()
		return classify(d, err)
	}

	return classify(d, tx.Commit())
}

// executeTx runs fn in one transaction and returns the output it built. The
// output is discarded when the transaction does not commit.
func executeTx(ctx context.Context, conn bench.Conn, d bench.Dialect,
	fn func(ctx context.Context, tx *sqlx.Tx, out *bench.Output) error) (*bench.Output, error) {
	out := new(bench.Output)
	err := runInTx(ctx, conn, d, func(tx *sqlx.Tx) error {
		return fn(ctx, tx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func classify(d bench.Dialect, err error) error {
	switch {
	case err == nil:
		return nil
	case bench.IsConflict(err):
		return err
	case d.IsConflict(err):
		return bench.Conflict(err)
	default:
		return errors.Trace(err)
	}
}

func notFound(table string, key interface{}) error {
	return errors.Annotatef(bench.ErrNotFound, "%s %v", table, key)
}

// getRow scans one row into dest, mapping an empty result to ErrNotFound.
func getRow(ctx context.Context, tx *sqlx.Tx, table string, key interface{}, query string, args []interface{}, dest ...interface{}) error {
	err := tx.QueryRowxContext(ctx, tx.Rebind(query), args...).Scan(dest...)
	if err == sql.ErrNoRows {
		return notFound(table, key)
	}
	return errors.Trace(err)
}

// execOne runs a statement that must affect exactly one row.
func execOne(ctx context.Context, tx *sqlx.Tx, table string, key interface{}, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return errors.Trace(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Trace(err)
	}
	if n == 0 {
		return notFound(table, key)
	}
	return nil
}

// update describes a single row read-modify-write.
type update struct {
	table string
	set   string
	where string
	// key names the row in diagnostics.
	key       interface{}
	setArgs   []interface{}
	whereArgs []interface{}
	// returning lists the columns read back after the update.
	returning string
}

// apply changes the row and scans the returning columns of the new row into
// dest. Backends without RETURNING read the row back in the same
// transaction, which still holds its write lock.
func (u update) apply(ctx context.Context, tx *sqlx.Tx, d bench.Dialect, dest ...interface{}) error {
	args := make([]interface{}, 0, len(u.setArgs)+len(u.whereArgs))
	args = append(args, u.setArgs...)
	args = append(args, u.whereArgs...)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s", u.table, u.set, u.where)

	if d.Returning() {
		return getRow(ctx, tx, u.table, u.key, stmt+" RETURNING "+u.returning, args, dest...)
	}

	if err := execOne(ctx, tx, u.table, u.key, stmt, args...); err != nil {
		return err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", u.returning, u.table, u.where)
	return getRow(ctx, tx, u.table, u.key, query, u.whereArgs, dest...)
}

// selectIn runs a query holding one "IN (?)" list and returns its rows.
func selectIn(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (*sqlx.Rows, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rows, err := tx.QueryxContext(ctx, tx.Rebind(query), args...)
	return rows, errors.Trace(err)
}
