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

package bench

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/magiconair/properties"
)

// Dialect hides the SQL differences between the supported backends.
// Statements are written with '?' placeholders and rebound with BindType.
type Dialect interface {
	// Name returns the registered backend name.
	Name() string

	// BindType returns the sqlx bind type of the driver placeholders.
	BindType() int

	// Returning reports whether UPDATE ... RETURNING is supported. Backends
	// without it run the update first and read the row back in the same
	// transaction while holding its write lock.
	Returning() bool

	// ForUpdate is appended to SELECTs whose rows are modified later in the
	// same transaction. It may be empty.
	ForUpdate() string

	// Upsert builds a multi-row upsert of rows rows into table. keys are the
	// primary key columns and must be a prefix-free subset of cols.
	Upsert(table string, cols []string, keys []string, rows int) string

	// IsConflict reports whether a driver error is a serialization or
	// contention failure that aborted the whole transaction.
	IsConflict(err error) bool
}

// Backend opens connections to a database family and describes its dialect.
type Backend interface {
	Dialect

	// Open creates the connection pool described by the properties.
	Open(p *properties.Properties) (*sqlx.DB, error)
}

// Conn is the transactional handle a client drives. Both *sqlx.DB and the
// dedicated *sqlx.Conn of a client satisfy it.
type Conn interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

var backends = map[string]Backend{}

// RegisterBackend registers a backend under name.
func RegisterBackend(name string, b Backend) {
	_, ok := backends[name]
	if ok {
		panic(fmt.Sprintf("duplicate register backend %s", name))
	}

	backends[name] = b
}

// GetBackend gets the Backend registered under name.
func GetBackend(name string) Backend {
	return backends[name]
}

// Backends returns the sorted registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
