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

package sqlite

import (
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	"github.com/magiconair/properties"
	// sqlite package
	"github.com/mattn/go-sqlite3"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/util"
)

// Sqlite properties
const (
	sqliteDBPath        = "sqlite.db"
	sqliteJournalMode   = "sqlite.journalmode"
	sqliteBusyTimeoutMs = "sqlite.busy_timeout_ms"
	sqliteMaxOpenConns  = "sqlite.maxopenconns"
	sqliteMaxIdleConns  = "sqlite.maxidleconns"
)

type sqliteBackend struct{}

func (sqliteBackend) Name() string {
	return "sqlite"
}

func (sqliteBackend) BindType() int {
	return sqlx.QUESTION
}

func (sqliteBackend) Returning() bool {
	return true
}

// ForUpdate is empty because transactions start with BEGIN IMMEDIATE and
// already hold the database write lock.
func (sqliteBackend) ForUpdate() string {
	return ""
}

func (sqliteBackend) Upsert(table string, cols []string, keys []string, rows int) string {
	return util.OnConflictUpdate(table, cols, keys, rows)
}

func (sqliteBackend) IsConflict(err error) bool {
	sqliteErr, ok := errors.Cause(err).(sqlite3.Error)
	if !ok {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// DSN returns the data source name of a database file.
func DSN(path string, journalMode string, busyTimeoutMs int) string {
	v := url.Values{}
	v.Set("_journal_mode", journalMode)
	v.Set("_busy_timeout", fmt.Sprint(busyTimeoutMs))
	v.Set("_txlock", "immediate")
	v.Set("_foreign_keys", "false")
	return fmt.Sprintf("file:%s?%s", path, v.Encode())
}

func (b sqliteBackend) Open(p *properties.Properties) (*sqlx.DB, error) {
	dbPath := p.GetString(sqliteDBPath, "/tmp/wholesale.db")
	journalMode := p.GetString(sqliteJournalMode, "WAL")
	busyTimeout := p.GetInt(sqliteBusyTimeoutMs, 5000)
	maxOpenConns := p.GetInt(sqliteMaxOpenConns, 8)
	maxIdleConns := p.GetInt(sqliteMaxIdleConns, 8)

	db, err := sqlx.Open("sqlite3", DSN(dbPath, journalMode, busyTimeout))
	if err != nil {
		return nil, errors.Annotate(err, "open sqlite")
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	return db, nil
}

func init() {
	bench.RegisterBackend("sqlite", sqliteBackend{})
}
