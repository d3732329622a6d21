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
	"bytes"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsConflict(t *testing.T) {
	err := Conflict(errors.New("pq: restart transaction"))
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "restart transaction")
	assert.True(t, IsConflict(errors.Trace(err)))
	assert.True(t, IsConflict(errors.Annotate(err, "new order")))

	assert.False(t, IsConflict(nil))
	assert.False(t, IsConflict(ErrNotFound))
	assert.False(t, IsConflict(errors.New("transaction conflict")))
}

func TestOutputWriteTo(t *testing.T) {
	out := new(Output)
	out.Add("Order number", 3001)
	out.Add("Items", []Row{
		{{Name: "item", Value: 4}, {Name: "quantity", Value: 5}},
		{{Name: "item", Value: 7}, {Name: "quantity", Value: 1}},
	})
	out.Add("Related customers", []string{"(1, 2, 3)"})

	v, ok := out.Get("Order number")
	assert.True(t, ok)
	assert.Equal(t, 3001, v)
	_, ok = out.Get("missing")
	assert.False(t, ok)
	assert.Len(t, out.Fields(), 3)

	var buf bytes.Buffer
	n, err := out.WriteTo(&buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "Order number: 3001\n"+
		"Items:\n"+
		"  item: 4, quantity: 5\n"+
		"  item: 7, quantity: 1\n"+
		"Related customers:\n"+
		"  (1, 2, 3)\n", buf.String())
}

type stubBackend struct {
	Backend
	name string
}

func TestRegisterBackend(t *testing.T) {
	RegisterBackend("stub-b", stubBackend{name: "b"})
	RegisterBackend("stub-a", stubBackend{name: "a"})
	defer func() {
		delete(backends, "stub-a")
		delete(backends, "stub-b")
	}()

	assert.Equal(t, stubBackend{name: "a"}, GetBackend("stub-a"))
	assert.Nil(t, GetBackend("stub-c"))
	names := Backends()
	assert.Contains(t, names, "stub-a")
	assert.Panics(t, func() { RegisterBackend("stub-a", stubBackend{}) })
}
