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

package util

import (
	"strings"
)

// ValuesPlaceholder returns rows comma separated tuples of args '?'
// placeholders, e.g. "(?,?),(?,?)" for args=2, rows=2.
func ValuesPlaceholder(args, rows int) string {
	if args <= 0 || rows <= 0 {
		return ""
	}
	row := "(" + strings.TrimSuffix(strings.Repeat("?,", args), ",") + ")"
	return strings.TrimSuffix(strings.Repeat(row+",", rows), ",")
}

// InsertValues builds "INSERT INTO table (cols) VALUES (...),(...)".
func InsertValues(verb, table string, cols []string, rows int) string {
	var b strings.Builder
	b.WriteString(verb)
	b.WriteString(" INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")
	b.WriteString(ValuesPlaceholder(len(cols), rows))
	return b.String()
}

// NonKeyColumns returns the columns of cols that are not in keys.
func NonKeyColumns(cols, keys []string) []string {
	isKey := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		isKey[k] = struct{}{}
	}
	rest := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, ok := isKey[c]; !ok {
			rest = append(rest, c)
		}
	}
	return rest
}

// OnConflictUpdate builds the INSERT ... ON CONFLICT DO UPDATE form of a
// multi-row upsert shared by PostgreSQL and SQLite.
func OnConflictUpdate(table string, cols []string, keys []string, rows int) string {
	rest := NonKeyColumns(cols, keys)
	sets := make([]string, len(rest))
	for i, c := range rest {
		sets[i] = c + " = excluded." + c
	}
	return InsertValues("INSERT", table, cols, rows) +
		" ON CONFLICT (" + strings.Join(keys, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")
}
