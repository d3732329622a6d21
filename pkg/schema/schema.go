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

// Package schema describes the wholesale supplier tables the transactions
// read and write, and the invariants every transaction must preserve.
package schema

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Table names.
const (
	TableWarehouse = "warehouse"
	TableDistrict  = "district"
	TableCustomer  = "customer"
	TableOrder     = "orders"
	TableOrderLine = "order_line"
	TableStock     = "stock"
	TableItem      = "item"
)

// DistrictsPerWarehouse is the fixed number of districts of every warehouse.
const DistrictsPerWarehouse = 10

const (
	// RestockFloor is the lowest quantity a deduction may leave in stock.
	RestockFloor = 10
	// RestockAmount is added when a deduction would drop below RestockFloor.
	RestockAmount = 100
	// MaxOrderQuantity bounds one order line so a restocked quantity is never
	// negative.
	MaxOrderQuantity = RestockAmount
)

// Address is the street address shared by warehouses, districts and customers.
type Address struct {
	Street1 string
	Street2 string
	City    string
	State   string
	Zip     string
}

func (a Address) String() string {
	return fmt.Sprintf("%s %s %s %s %s", a.Street1, a.Street2, a.City, a.State, a.Zip)
}

// Warehouse is the root of the pricing hierarchy.
type Warehouse struct {
	ID   int
	Name string
	Address
	Tax decimal.Decimal
	YTD decimal.Decimal
}

// District belongs to a warehouse and hands out order ids.
type District struct {
	WarehouseID int
	ID          int
	Name        string
	Address
	Tax decimal.Decimal
	YTD decimal.Decimal
	// NextOrderID is incremented exactly once per committed new order and
	// never reused.
	NextOrderID int
}

// CustomerKey identifies a customer.
type CustomerKey struct {
	WarehouseID int
	DistrictID  int
	CustomerID  int
}

func (k CustomerKey) String() string {
	return fmt.Sprintf("(%d, %d, %d)", k.WarehouseID, k.DistrictID, k.CustomerID)
}

// Customer belongs to a district.
type Customer struct {
	CustomerKey
	First  string
	Middle string
	Last   string
	Address
	Phone       string
	Since       time.Time
	Credit      string
	CreditLimit decimal.Decimal
	Discount    decimal.Decimal
	// Balance decreases by the amount of a payment and increases by the
	// total of a delivered order.
	Balance       decimal.Decimal
	YTDPayment    decimal.Decimal
	PaymentCount  int
	DeliveryCount int
}

// Name returns "first middle last".
func (c *Customer) Name() string {
	return fmt.Sprintf("%s %s %s", c.First, c.Middle, c.Last)
}

// Order is created by a new order and delivered at most once.
type Order struct {
	WarehouseID int
	DistrictID  int
	ID          int
	CustomerID  int
	// CarrierID is null until the order is delivered.
	CarrierID sql.NullInt64
	LineCount int
	AllLocal  int
	EntryDate time.Time
}

// OrderLine is one item of an order. Line numbers start at 0 and are contiguous.
type OrderLine struct {
	WarehouseID       int
	DistrictID        int
	OrderID           int
	Number            int
	ItemID            int
	SupplyWarehouseID int
	Quantity          int
	Amount            decimal.Decimal
	DistInfo          string
	// DeliveryDate is null until the order is delivered.
	DeliveryDate sql.NullTime
}

// Stock is the quantity of one item held by one warehouse. It is shared by
// every district of the warehouse.
type Stock struct {
	WarehouseID int
	ItemID      int
	Quantity    int
	YTD         decimal.Decimal
	OrderCount  int
	RemoteCount int
	Dist        [DistrictsPerWarehouse]string
	Data        string
}

// DistInfo returns the descriptive string of district d (1 based).
func (s *Stock) DistInfo(d int) string {
	if d < 1 || d > DistrictsPerWarehouse {
		return ""
	}
	return s.Dist[d-1]
}

// Deduct takes qty units out of stock, restocks below the floor and counts
// the order. remote marks a line supplied by another warehouse.
func (s *Stock) Deduct(qty int, remote bool) {
	s.Quantity = Restock(s.Quantity, qty)
	s.YTD = s.YTD.Add(decimal.NewFromInt(int64(qty)))
	s.OrderCount++
	if remote {
		s.RemoteCount++
	}
}

// Restock returns the quantity left after ordering qty units from current.
// A result below RestockFloor is replenished by RestockAmount.
func Restock(current, qty int) int {
	left := current - qty
	if left < RestockFloor {
		left += RestockAmount
	}
	return left
}

// Item is read-only reference data.
type Item struct {
	ID    int
	Name  string
	Price decimal.Decimal
}

// StockDistColumn returns the s_dist_XX column name of district d.
func StockDistColumn(d int) string {
	return fmt.Sprintf("s_dist_%02d", d)
}

// StockColumns lists the stock columns in the order Stock values are scanned
// and written.
func StockColumns() []string {
	cols := []string{"s_w_id", "s_i_id", "s_quantity", "s_ytd", "s_order_cnt", "s_remote_cnt"}
	for d := 1; d <= DistrictsPerWarehouse; d++ {
		cols = append(cols, StockDistColumn(d))
	}
	return append(cols, "s_data")
}

// StockKeyColumns is the primary key of the stock table.
var StockKeyColumns = []string{"s_w_id", "s_i_id"}

// ScanDest returns the scan destinations matching StockColumns.
func (s *Stock) ScanDest() []interface{} {
	dest := []interface{}{&s.WarehouseID, &s.ItemID, &s.Quantity, &s.YTD, &s.OrderCount, &s.RemoteCount}
	for i := range s.Dist {
		dest = append(dest, &s.Dist[i])
	}
	return append(dest, &s.Data)
}

// Values returns the column values matching StockColumns.
func (s *Stock) Values() []interface{} {
	vals := []interface{}{s.WarehouseID, s.ItemID, s.Quantity, s.YTD, s.OrderCount, s.RemoteCount}
	for _, d := range s.Dist {
		vals = append(vals, d)
	}
	return append(vals, s.Data)
}

// OrderLineColumns lists the order_line columns written by a new order.
var OrderLineColumns = []string{
	"ol_w_id", "ol_d_id", "ol_o_id", "ol_number", "ol_i_id",
	"ol_supply_w_id", "ol_quantity", "ol_amount", "ol_dist_info", "ol_delivery_d",
}

// Values returns the column values matching OrderLineColumns.
func (l *OrderLine) Values() []interface{} {
	return []interface{}{
		l.WarehouseID, l.DistrictID, l.OrderID, l.Number, l.ItemID,
		l.SupplyWarehouseID, l.Quantity, l.Amount, l.DistInfo, l.DeliveryDate,
	}
}

// ChargedTotal is the amount a customer pays for an order:
// subtotal * (1 + districtTax + warehouseTax) * (1 - discount).
func ChargedTotal(subtotal, districtTax, warehouseTax, discount decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	return subtotal.Mul(one.Add(districtTax).Add(warehouseTax)).Mul(one.Sub(discount))
}
