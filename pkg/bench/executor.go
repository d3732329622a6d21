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
	"context"
	"fmt"
	"io"
	"strings"
)

// Kind names a business transaction.
type Kind string

// Transaction kinds.
const (
	NewOrder        Kind = "NewOrder"
	Payment         Kind = "Payment"
	Delivery        Kind = "Delivery"
	OrderStatus     Kind = "OrderStatus"
	StockLevel      Kind = "StockLevel"
	PopularItem     Kind = "PopularItem"
	TopBalance      Kind = "TopBalance"
	RelatedCustomer Kind = "RelatedCustomer"
)

// Kinds lists every transaction kind in report order.
var Kinds = []Kind{NewOrder, Payment, Delivery, OrderStatus, StockLevel, PopularItem, TopBalance, RelatedCustomer}

// Executor runs one business transaction as a single atomic unit.
// Execute must be safe to call again after it returned a conflict: an
// aborted unit leaves nothing behind.
type Executor interface {
	Kind() Kind
	Execute(ctx context.Context, conn Conn) (*Output, error)
}

// Field is one named output value.
type Field struct {
	Name  string
	Value interface{}
}

// Row is an ordered group of fields, rendered on one line.
type Row []Field

func (r Row) String() string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = fmt.Sprintf("%s: %v", f.Name, f.Value)
	}
	return strings.Join(parts, ", ")
}

// Output holds the human readable fields of a committed transaction in the
// order they were added.
type Output struct {
	fields []Field
}

// Add appends a field.
func (o *Output) Add(name string, value interface{}) {
	o.fields = append(o.fields, Field{Name: name, Value: value})
}

// Fields returns the fields in insertion order.
func (o *Output) Fields() []Field {
	return o.fields
}

// Get returns the first field called name.
func (o *Output) Get(name string) (interface{}, bool) {
	for _, f := range o.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// WriteTo writes one "name: value" line per field. Row slices are written
// one row per indented line.
func (o *Output) WriteTo(w io.Writer) (int64, error) {
	buf := new(bytes.Buffer)
	for _, f := range o.fields {
		switch v := f.Value.(type) {
		case []Row:
			fmt.Fprintf(buf, "%s:\n", f.Name)
			for _, r := range v {
				fmt.Fprintf(buf, "  %s\n", r)
			}
		case []string:
			fmt.Fprintf(buf, "%s:\n", f.Name)
			for _, s := range v {
				fmt.Fprintf(buf, "  %s\n", s)
			}
		default:
			fmt.Fprintf(buf, "%s: %v\n", f.Name, v)
		}
	}
	return buf.WriteTo(w)
}
