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

package pg

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	// pg package
	"github.com/lib/pq"
	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/prop"
	"github.com/pingcap/go-wholesale/pkg/util"
)

// pg properties
const (
	pgHost     = "pg.host"
	pgPort     = "pg.port"
	pgUser     = "pg.user"
	pgPassword = "pg.password"
	pgDBName   = "pg.db"
	pgSSLMode  = "pg.sslmode"
)

// SQLSTATE codes of an aborted serializable transaction.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type pgBackend struct {
	name        string
	defaultPort int
	defaultUser string
	// upsert selects CockroachDB's UPSERT INTO instead of INSERT ... ON CONFLICT.
	upsert bool
}

func (b pgBackend) Name() string {
	return b.name
}

func (b pgBackend) BindType() int {
	return sqlx.DOLLAR
}

func (b pgBackend) Returning() bool {
	return true
}

func (b pgBackend) ForUpdate() string {
	return " FOR UPDATE"
}

func (b pgBackend) Upsert(table string, cols []string, keys []string, rows int) string {
	if b.upsert {
		return util.InsertValues("UPSERT", table, cols, rows)
	}

	return util.OnConflictUpdate(table, cols, keys, rows)
}

func (b pgBackend) IsConflict(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
}

func (b pgBackend) dsn(p *properties.Properties) string {
	host := p.GetString(pgHost, "127.0.0.1")
	port := p.GetInt(pgPort, b.defaultPort)
	user := p.GetString(pgUser, b.defaultUser)
	password := p.GetString(pgPassword, "")
	dbName := p.GetString(pgDBName, "wholesale")
	sslMode := p.GetString(pgSSLMode, "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", user, password, host, port, dbName, sslMode)
}

func (b pgBackend) Open(p *properties.Properties) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", b.dsn(p))
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", b.name)
	}

	threadCount := int(p.GetInt64(prop.ThreadCount, prop.ThreadCountDefault))
	db.SetMaxIdleConns(threadCount + 1)
	db.SetMaxOpenConns(threadCount * 2)
	return db, nil
}

func init() {
	bench.RegisterBackend("cockroach", pgBackend{name: "cockroach", defaultPort: 26257, defaultUser: "root", upsert: true})
	bench.RegisterBackend("postgres", pgBackend{name: "postgres", defaultPort: 5432, defaultUser: "postgres"})
}
