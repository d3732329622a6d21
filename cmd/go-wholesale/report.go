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

package main

import (
	"fmt"
	"os"

	"github.com/pingcap/go-wholesale/pkg/measurement"
	"github.com/pingcap/go-wholesale/pkg/prop"
	"github.com/pingcap/go-wholesale/pkg/util"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func runReportCommandFunc(cmd *cobra.Command, args []string) {
	initialProps(func() {
		globalProps.Set(prop.Command, "report")
		if cmd.Flags().Changed("redis") {
			globalProps.Set(prop.MeasurementRedisAddr, reportRedisArg)
		}
	})

	var experiments []measurement.Experiment
	for _, dir := range args {
		exp, err := measurement.ReadExperiment(dir)
		if err != nil {
			util.Fatalf("read experiment failed %v", err)
		}
		experiments = append(experiments, exp)
	}

	if addr := globalProps.GetString(prop.MeasurementRedisAddr, ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()

		key := globalProps.GetString(prop.MeasurementRedisKey, prop.MeasurementRedisKeyDefault)
		summaries, err := measurement.ReadRedis(globalContext, rdb, key)
		if err != nil {
			util.Fatalf("read redis failed %v", err)
		}
		exp := measurement.Experiment{Name: key, Summaries: summaries}
		for i := range summaries {
			exp.Clients = append(exp.Clients, fmt.Sprint(i+1))
		}
		experiments = append(experiments, exp)
	}

	if len(experiments) == 0 {
		util.Fatalf("no experiment given, pass directories or --redis")
	}
	if err := os.MkdirAll(reportOutArg, 0755); err != nil {
		util.Fatalf("create %s failed %v", reportOutArg, err)
	}
	if err := measurement.WriteReports(reportOutArg, experiments); err != nil {
		util.Fatalf("write reports failed %v", err)
	}

	style := globalProps.GetString(prop.OutputStyle, util.OutputStylePlain)
	var values [][]string
	for _, exp := range experiments {
		agg := measurement.AggregateSummaries(exp.Summaries)
		values = append(values, []string{
			exp.Name,
			util.IntToString(agg.Clients),
			util.FloatToString(agg.Min.Throughput),
			util.FloatToString(agg.Avg.Throughput),
			util.FloatToString(agg.Max.Throughput),
		})
	}
	util.Render(os.Stdout, style, []string{"Experiment", "Clients", "Min TPS", "Avg TPS", "Max TPS"}, values)
}

var (
	reportOutArg   string
	reportRedisArg string
)

func newReportCommand() *cobra.Command {
	m := &cobra.Command{
		Use:   "report [experiment-dir ...]",
		Short: "Aggregate client metrics into csv reports",
		Run:   runReportCommandFunc,
	}
	m.Flags().StringSliceVarP(&propertyFiles, "property_file", "P", nil, "Specify a property file")
	m.Flags().StringArrayVarP(&propertyValues, "prop", "p", nil, "Specify a property value with name=value")
	m.Flags().StringVarP(&reportOutArg, "out", "o", ".", "Directory of the csv reports")
	m.Flags().StringVar(&reportRedisArg, "redis", "", "Also read the client summaries pushed to this redis - can also be specified as the \""+prop.MeasurementRedisAddr+"\" property")
	return m
}
