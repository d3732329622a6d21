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

package workload

import (
	"fmt"

	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/shopspring/decimal"
)

// Record tags of the workload file.
const (
	TagNewOrder        = 'N'
	TagPayment         = 'P'
	TagDelivery        = 'D'
	TagOrderStatus     = 'O'
	TagStockLevel      = 'S'
	TagPopularItem     = 'I'
	TagTopBalance      = 'T'
	TagRelatedCustomer = 'R'
)

// Request is one parsed transaction request. The set of implementations is
// closed; use a type switch to tell them apart.
type Request interface {
	Kind() bench.Kind
	isRequest()
}

// OrderItem is one continuation line of a new order record.
type OrderItem struct {
	ItemID            int
	SupplyWarehouseID int
	Quantity          int
}

// NewOrder places an order of Items for a customer.
type NewOrder struct {
	WarehouseID int
	DistrictID  int
	CustomerID  int
	Items       []OrderItem
}

// Payment records a customer payment.
type Payment struct {
	WarehouseID int
	DistrictID  int
	CustomerID  int
	Amount      decimal.Decimal
}

// Delivery delivers the oldest undelivered order of every district.
type Delivery struct {
	WarehouseID int
	CarrierID   int
}

// OrderStatus reports the last order of a customer.
type OrderStatus struct {
	WarehouseID int
	DistrictID  int
	CustomerID  int
}

// StockLevel counts low stock items among the last orders of a district.
type StockLevel struct {
	WarehouseID int
	DistrictID  int
	Threshold   int
	LastOrders  int
}

// PopularItem reports the most ordered items of the last orders of a district.
type PopularItem struct {
	WarehouseID int
	DistrictID  int
	LastOrders  int
}

// TopBalance lists the customers with the highest balance.
type TopBalance struct{}

// RelatedCustomer lists customers whose orders overlap the given customer's.
type RelatedCustomer struct {
	WarehouseID int
	DistrictID  int
	CustomerID  int
}

func (NewOrder) Kind() bench.Kind        { return bench.NewOrder }
func (Payment) Kind() bench.Kind         { return bench.Payment }
func (Delivery) Kind() bench.Kind        { return bench.Delivery }
func (OrderStatus) Kind() bench.Kind     { return bench.OrderStatus }
func (StockLevel) Kind() bench.Kind      { return bench.StockLevel }
func (PopularItem) Kind() bench.Kind     { return bench.PopularItem }
func (TopBalance) Kind() bench.Kind      { return bench.TopBalance }
func (RelatedCustomer) Kind() bench.Kind { return bench.RelatedCustomer }

func (NewOrder) isRequest()        {}
func (Payment) isRequest()         {}
func (Delivery) isRequest()        {}
func (OrderStatus) isRequest()     {}
func (StockLevel) isRequest()      {}
func (PopularItem) isRequest()     {}
func (TopBalance) isRequest()      {}
func (RelatedCustomer) isRequest() {}

// AllLocal reports whether every item is supplied by the home warehouse.
func (r NewOrder) AllLocal() bool {
	for _, it := range r.Items {
		if it.SupplyWarehouseID != r.WarehouseID {
			return false
		}
	}
	return true
}

func (r NewOrder) String() string {
	return fmt.Sprintf("N(%d,%d,%d,%d items)", r.WarehouseID, r.DistrictID, r.CustomerID, len(r.Items))
}
