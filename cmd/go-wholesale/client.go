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
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pingcap/go-wholesale/pkg/client"
	"github.com/pingcap/go-wholesale/pkg/prop"
	"github.com/pingcap/go-wholesale/pkg/state"
	"github.com/pingcap/go-wholesale/pkg/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// lockedWriter keeps the output blocks of concurrent clients whole.
type lockedWriter struct {
	sync.Mutex
	w io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.Lock()
	defer l.Unlock()
	return l.w.Write(p)
}

func runClientCommandFunc(cmd *cobra.Command, args []string) {
	dbName := args[0]

	initialGlobal(dbName, func() {
		globalProps.Set(prop.Command, "run")

		if cmd.Flags().Changed("threads") {
			// We set the threadArg via command line.
			globalProps.Set(prop.ThreadCount, strconv.Itoa(threadsArg))
		}

		if cmd.Flags().Changed("target") {
			globalProps.Set(prop.Target, strconv.Itoa(targetArg))
		}

		if cmd.Flags().Changed("workload") {
			globalProps.Set(prop.WorkloadFile, workloadArg)
		}
	})

	if globalProps.GetBool(prop.Verbose, prop.VerboseDefault) {
		keys := globalProps.Keys()
		sort.Strings(keys)
		fmt.Fprintln(os.Stderr, "***************** properties *****************")
		for _, key := range keys {
			fmt.Fprintf(os.Stderr, "\"%s\"=\"%s\"\n", key, globalProps.MustGetString(key))
		}
		fmt.Fprintln(os.Stderr, "**********************************************")
	}

	var output io.Writer
	if !globalProps.GetBool(prop.Silence, prop.SilenceDefault) {
		output = &lockedWriter{w: os.Stdout}
	}

	c := client.NewClient(globalProps, globalBackend, globalDB, globalLogger, output, globalMetrics)
	start := time.Now()
	results, err := c.Run(globalContext)
	if results == nil && err != nil {
		util.Fatalf("run failed %v", err)
	}
	globalLogger.Info("run finished",
		zap.Duration("takes", time.Since(start)),
		zap.Int64("committed", c.Counters.Committed.Load()),
		zap.Int64("failed", c.Counters.Failed.Load()),
		zap.Int64("conflicts", c.Counters.Conflicts.Load()))

	style := globalProps.GetString(prop.OutputStyle, util.OutputStylePlain)
	for _, r := range results {
		fmt.Fprintf(os.Stderr, "Client %d (%d records skipped)\n", r.ThreadID, r.Skipped)
		r.Collector.Report(os.Stderr, style)
	}
	if err != nil {
		util.Fatalf("write summary failed %v", err)
	}

	if path := globalProps.GetString(prop.StateOutputFile, ""); path != "" {
		s, err := state.Read(globalContext, globalDB)
		if err != nil {
			util.Fatalf("read state failed %v", err)
		}
		if err = saveState(path, s); err != nil {
			util.Fatalf("write state failed %v", err)
		}
	}
}

var (
	threadsArg  int
	targetArg   int
	workloadArg string
)

func initClientCommand(m *cobra.Command) {
	m.Flags().StringSliceVarP(&propertyFiles, "property_file", "P", nil, "Specify a property file")
	m.Flags().StringArrayVarP(&propertyValues, "prop", "p", nil, "Specify a property value with name=value")
	m.Flags().IntVar(&threadsArg, "threads", 1, "Execute using n clients - can also be specified as the \"threadcount\" property")
	m.Flags().IntVar(&targetArg, "target", 0, "Attempt to do n transactions per second (default: unlimited) - can also be specified as the \"target\" property")
	m.Flags().StringVar(&workloadArg, "workload", prop.WorkloadFileDefault, "Workload file of a single client, - for stdin - can also be specified as the \"workload.file\" property")
}

func newRunCommand() *cobra.Command {
	m := &cobra.Command{
		Use:   "run db",
		Short: "Replay workload files against db",
		Args:  cobra.MinimumNArgs(1),
		Run:   runClientCommandFunc,
	}

	initClientCommand(m)
	return m
}
