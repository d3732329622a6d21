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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// output styles
const (
	OutputStylePlain = "plain"
	OutputStyleTable = "table"
	OutputStyleJson  = "json"
)

// Fatalf prints the message and exits the program.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr, "")
	os.Exit(1)
}

// Render writes the rows in the given output style. Unknown styles fall
// back to plain.
func Render(w io.Writer, style string, headers []string, values [][]string) {
	switch style {
	case OutputStyleTable:
		RenderTable(w, headers, values)
	case OutputStyleJson:
		RenderJson(w, headers, values)
	default:
		RenderString(w, "%-16s - %s\n", headers, values)
	}
}

// RenderString renders headers and values according to the format provided
func RenderString(w io.Writer, format string, headers []string, values [][]string) {
	if len(values) == 0 {
		return
	}

	buf := new(bytes.Buffer)
	for _, value := range values {
		args := make([]string, len(headers)-1)
		for i, header := range headers[1:] {
			args[i] = header + ": " + value[i+1]
		}
		buf.WriteString(fmt.Sprintf(format, value[0], strings.Join(args, ", ")))
	}
	fmt.Fprint(w, buf.String())
}

// RenderTable will use given headers and values to render a table style output
func RenderTable(w io.Writer, headers []string, values [][]string) {
	if len(values) == 0 {
		return
	}
	tb := tablewriter.NewWriter(w)
	tb.SetHeader(headers)
	tb.AppendBulk(values)
	tb.Render()
}

// RenderJson will combine the headers and values and print a json string
func RenderJson(w io.Writer, headers []string, values [][]string) {
	if len(values) == 0 {
		return
	}
	data := make([]map[string]string, 0, len(values))
	for _, value := range values {
		line := make(map[string]string, len(headers))
		for i, header := range headers {
			line[header] = value[i]
		}
		data = append(data, line)
	}
	outStr, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintln(w, string(outStr))
}

// FloatToString formats a float with three digits after the dot.
func FloatToString(f float64) string {
	return fmt.Sprintf("%.3f", f)
}

// IntToString formats int value to string
func IntToString(i interface{}) string {
	return fmt.Sprintf("%d", i)
}
