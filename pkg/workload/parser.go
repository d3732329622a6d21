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

// Package workload decodes transaction scripts.
//
// Every record starts with a one character tag followed by comma separated
// fields. A new order record ends with an item count M and is followed by M
// item lines "item,supplying warehouse,quantity". Bad records are reported
// and skipped; parsing never stops on one.
package workload

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/schema"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxLineSize = 1 << 20

// Parser turns workload lines into requests.
type Parser struct {
	logger *zap.Logger

	sc      *bufio.Scanner
	line    int
	skipped int
}

// NewParser creates a parser that reports skipped records to logger.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Skipped returns the number of records dropped by the last Parse.
func (p *Parser) Skipped() int {
	return p.skipped
}

// Parse reads every record of r in file order. It only fails when r does.
func (p *Parser) Parse(r io.Reader) ([]Request, error) {
	p.sc = bufio.NewScanner(r)
	p.sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	p.line = 0
	p.skipped = 0

	var reqs []Request
	for {
		fields, ok := p.next()
		if !ok {
			break
		}
		if len(fields) == 1 && fields[0] == "" {
			continue
		}
		req, err := p.record(fields)
		if err != nil {
			p.skip(err)
			continue
		}
		reqs = append(reqs, req)
	}
	if err := p.sc.Err(); err != nil {
		return reqs, errors.Annotatef(err, "read workload line %d", p.line+1)
	}
	return reqs, nil
}

func (p *Parser) next() ([]string, bool) {
	if !p.sc.Scan() {
		return nil, false
	}
	p.line++
	fields := strings.Split(p.sc.Text(), ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, true
}

func (p *Parser) skip(err error) {
	p.skipped++
	p.logger.Warn("skip workload record", zap.Int("line", p.line), zap.Error(err))
}

func (p *Parser) record(fields []string) (Request, error) {
	if len(fields[0]) != 1 {
		return nil, errors.Errorf("bad record tag %q", fields[0])
	}
	args := fields[1:]
	switch tag := fields[0][0]; tag {
	case TagNewOrder:
		return p.newOrder(args)
	case TagPayment:
		var r Payment
		if err := ints(args, 4, &r.WarehouseID, &r.DistrictID, &r.CustomerID); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(args[3])
		if err != nil {
			return nil, errors.Annotatef(err, "bad payment amount %q", args[3])
		}
		if !amount.IsPositive() {
			return nil, errors.Errorf("payment amount %s must be positive", amount)
		}
		r.Amount = amount
		return r, nil
	case TagDelivery:
		var r Delivery
		return r, ints(args, 2, &r.WarehouseID, &r.CarrierID)
	case TagOrderStatus:
		var r OrderStatus
		return r, ints(args, 3, &r.WarehouseID, &r.DistrictID, &r.CustomerID)
	case TagStockLevel:
		var r StockLevel
		return r, ints(args, 4, &r.WarehouseID, &r.DistrictID, &r.Threshold, &r.LastOrders)
	case TagPopularItem:
		var r PopularItem
		return r, ints(args, 3, &r.WarehouseID, &r.DistrictID, &r.LastOrders)
	case TagTopBalance:
		return TopBalance{}, nil
	case TagRelatedCustomer:
		var r RelatedCustomer
		return r, ints(args, 3, &r.WarehouseID, &r.DistrictID, &r.CustomerID)
	default:
		return nil, errors.Errorf("unknown record tag %q", tag)
	}
}

// ItemCount returns the number of item lines declared by the last field of a
// New-Order header. ok is false when that field is not a count, in which case
// no item line can be attributed to the header.
func ItemCount(args []string) (count int, ok bool) {
	if len(args) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(args[len(args)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// newOrder always consumes the declared number of item lines, even when the
// header or one of the items is bad, so parsing resumes on the next record.
func (p *Parser) newOrder(args []string) (Request, error) {
	count, ok := ItemCount(args)
	if !ok {
		if len(args) == 0 {
			return nil, errors.New("new order has no item count")
		}
		return nil, errors.Errorf("bad item count %q", args[len(args)-1])
	}

	var (
		r         NewOrder
		headerErr error
	)
	switch {
	case len(args) != 4:
		headerErr = errors.Errorf("new order wants 4 fields, got %d", len(args))
	case count == 0:
		headerErr = errors.New("item count 0 must be positive")
	default:
		headerErr = ints(args[:3], 3, &r.CustomerID, &r.WarehouseID, &r.DistrictID)
	}

	var itemErr error
	r.Items = make([]OrderItem, 0, count)
	for i := 0; i < count; i++ {
		fields, ok := p.next()
		if !ok {
			return nil, errors.Errorf("new order declares %d items, input ended after %d", count, i)
		}
		var it OrderItem
		if err := ints(fields, 3, &it.ItemID, &it.SupplyWarehouseID, &it.Quantity); err != nil {
			if itemErr == nil {
				itemErr = errors.Annotatef(err, "item %d", i)
			}
			continue
		}
		if it.Quantity <= 0 || it.Quantity > schema.MaxOrderQuantity {
			if itemErr == nil {
				itemErr = errors.Errorf("item %d quantity %d out of range", i, it.Quantity)
			}
			continue
		}
		r.Items = append(r.Items, it)
	}
	if headerErr != nil {
		return nil, headerErr
	}
	if itemErr != nil {
		return nil, itemErr
	}
	return r, nil
}

func ints(fields []string, want int, dest ...*int) error {
	if len(fields) != want {
		return errors.Errorf("want %d fields, got %d", want, len(fields))
	}
	for i, d := range dest {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return errors.Annotatef(err, "field %d", i+1)
		}
		*d = v
	}
	return nil
}
