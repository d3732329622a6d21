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

package mysql

import (
	"crypto/sha1"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/prop"
	"github.com/pingcap/go-wholesale/pkg/util"
)

// mysql properties
const (
	mysqlHost     = "mysql.host"
	mysqlPort     = "mysql.port"
	mysqlUser     = "mysql.user"
	mysqlPassword = "mysql.password"
	mysqlDBName   = "mysql.db"

	tidbInstances = "tidb.instances"
)

// Server error numbers that abort the transaction and are safe to retry.
const (
	errLockDeadlock    = 1213
	errLockWaitTimeout = 1205
	errTiDBWriteConfl  = 9007
	errTiDBTxnRetry    = 8002
)

type muxDriver struct {
	cursor    uint64
	instances []string
	internal  driver.Driver
}

func (drv *muxDriver) Open(name string) (driver.Conn, error) {
	k := atomic.AddUint64(&drv.cursor, 1)
	return drv.internal.Open(drv.instances[int(k)%len(drv.instances)])
}

func openTiDBInstances(addrs []string, user string, pass string, db string, params string) (*sql.DB, error) {
	instances := make([]string, len(addrs))
	hash := sha1.New()
	for i, addr := range addrs {
		hash.Write([]byte("+" + addr))
		instances[i] = fmt.Sprintf("%s:%s@tcp(%s)/%s?%s", user, pass, addr, db, params)
	}
	digest := hash.Sum(nil)
	driver := "tidb:" + hex.EncodeToString(digest[:])
	for _, n := range sql.Drivers() {
		if n == driver {
			return sql.Open(driver, "")
		}
	}
	sql.Register(driver, &muxDriver{instances: instances, internal: &mysql.MySQLDriver{}})
	return sql.Open(driver, "")
}

type mysqlBackend struct {
	name        string
	defaultPort int
}

func (b mysqlBackend) Name() string {
	return b.name
}

func (b mysqlBackend) BindType() int {
	return sqlx.QUESTION
}

func (b mysqlBackend) Returning() bool {
	return false
}

func (b mysqlBackend) ForUpdate() string {
	return " FOR UPDATE"
}

func (b mysqlBackend) Upsert(table string, cols []string, keys []string, rows int) string {
	rest := util.NonKeyColumns(cols, keys)
	sets := make([]string, len(rest))
	for i, c := range rest {
		sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
	}
	return fmt.Sprintf("%s ON DUPLICATE KEY UPDATE %s",
		util.InsertValues("INSERT", table, cols, rows), strings.Join(sets, ", "))
}

func (b mysqlBackend) IsConflict(err error) bool {
	myErr, ok := errors.Cause(err).(*mysql.MySQLError)
	if !ok {
		return false
	}
	switch myErr.Number {
	case errLockDeadlock, errLockWaitTimeout, errTiDBWriteConfl, errTiDBTxnRetry:
		return true
	}
	return false
}

func (b mysqlBackend) params() string {
	v := url.Values{}
	v.Set("parseTime", "true")
	// RowsAffected counts matched rows, not changed ones.
	v.Set("clientFoundRows", "true")
	if b.name == "tidb" {
		// TiDB refuses SERIALIZABLE unless the check is relaxed.
		v.Set("tidb_skip_isolation_level_check", "1")
	}
	return v.Encode()
}

func (b mysqlBackend) Open(p *properties.Properties) (*sqlx.DB, error) {
	host := p.GetString(mysqlHost, "127.0.0.1")
	port := p.GetInt(mysqlPort, b.defaultPort)
	user := p.GetString(mysqlUser, "root")
	password := p.GetString(mysqlPassword, "")
	dbName := p.GetString(mysqlDBName, "wholesale")
	tidbList := p.GetString(tidbInstances, "")

	var (
		db    *sql.DB
		err   error
		tidbs []string
	)
	for _, tidb := range strings.Split(tidbList, ",") {
		tidb = strings.TrimSpace(tidb)
		if len(tidb) > 0 {
			tidbs = append(tidbs, tidb)
		}
	}
	if len(tidbs) > 0 {
		db, err = openTiDBInstances(tidbs, user, password, dbName, b.params())
	} else {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", user, password, host, port, dbName, b.params())
		db, err = sql.Open("mysql", dsn)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", b.name)
	}

	threadCount := int(p.GetInt64(prop.ThreadCount, prop.ThreadCountDefault))
	db.SetMaxIdleConns(threadCount + 1)
	db.SetMaxOpenConns(threadCount * 2)
	return sqlx.NewDb(db, "mysql"), nil
}

func init() {
	bench.RegisterBackend("mysql", mysqlBackend{name: "mysql", defaultPort: 3306})
	bench.RegisterBackend("tidb", mysqlBackend{name: "tidb", defaultPort: 4000})
}
