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

package txn

import (
	"embed"
	"os"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
	"github.com/pingcap/go-wholesale/pkg/prop"
)

//go:embed templates/*.sql
var templateFS embed.FS

// Template placeholders. Every analytical request binds all of them.
const (
	ParamWarehouseID   = "input_warehouse_id"
	ParamDistrictID    = "input_district_id"
	ParamCustomerID    = "input_customer_id"
	ParamNumLastOrders = "input_num_last_orders"
	ParamCurrentTime   = "current_timestamp"
)

// Templates holds the statement text of the analytical transactions.
type Templates struct {
	PopularItem     string
	TopBalance      string
	RelatedCustomer string
}

func mustReadTemplate(name string) string {
	b, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() *Templates {
	return &Templates{
		PopularItem:     mustReadTemplate("popular_item.sql"),
		TopBalance:      mustReadTemplate("top_balance.sql"),
		RelatedCustomer: mustReadTemplate("related_customer.sql"),
	}
}

// LoadTemplates replaces the built-in templates with the files named by the
// template.* properties.
func LoadTemplates(p *properties.Properties) (*Templates, error) {
	t := DefaultTemplates()
	for _, o := range []struct {
		key  string
		dest *string
	}{
		{prop.TemplatePopularItem, &t.PopularItem},
		{prop.TemplateTopBalance, &t.TopBalance},
		{prop.TemplateRelatedCustomer, &t.RelatedCustomer},
	} {
		path := p.GetString(o.key, "")
		if path == "" {
			continue
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Annotatef(err, "read %s", o.key)
		}
		*o.dest = string(b)
	}
	return t, nil
}
