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
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/magiconair/properties"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pingcap/go-wholesale/pkg/bench"
	"github.com/pingcap/go-wholesale/pkg/measurement"
	"github.com/pingcap/go-wholesale/pkg/prop"
	"github.com/pingcap/go-wholesale/pkg/util"

	// Register MySQL and TiDB
	_ "github.com/pingcap/go-wholesale/db/mysql"
	// Register CockroachDB and PostgreSQL
	_ "github.com/pingcap/go-wholesale/db/pg"
	// Register sqlite
	_ "github.com/pingcap/go-wholesale/db/sqlite"
)

var (
	propertyFiles  []string
	propertyValues []string

	globalContext context.Context
	globalCancel  context.CancelFunc

	globalProps   *properties.Properties
	globalLogger  *zap.Logger
	globalBackend bench.Backend
	globalDB      *sqlx.DB
	globalMetrics *measurement.Metrics
)

func initialProps(onProperties func()) {
	globalProps = properties.NewProperties()
	if len(propertyFiles) > 0 {
		globalProps = properties.MustLoadFiles(propertyFiles, properties.UTF8, false)
	}

	for _, prop := range propertyValues {
		seps := strings.SplitN(prop, "=", 2)
		if len(seps) != 2 {
			util.Fatalf("bad property: `%s`, expected format `name=value`", prop)
		}
		globalProps.Set(seps[0], seps[1])
	}

	if onProperties != nil {
		onProperties()
	}

	var err error
	globalLogger, err = util.InitLogger(
		globalProps.GetString(prop.LogLevel, prop.LogLevelDefault),
		globalProps.GetString(prop.LogFormat, prop.LogFormatDefault))
	if err != nil {
		util.Fatalf("init logger failed %v", err)
	}
}

func initialGlobal(dbName string, onProperties func()) {
	initialProps(onProperties)
	globalProps.Set(prop.DB, dbName)

	globalMetrics = measurement.NewMetrics(prometheus.DefaultRegisterer)
	http.Handle("/metrics", promhttp.Handler())
	addr := globalProps.GetString(prop.DebugPprof, prop.DebugPprofDefault)
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			globalLogger.Warn("debug server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()

	globalBackend = bench.GetBackend(dbName)
	if globalBackend == nil {
		util.Fatalf("%s is not registered, supported: %s", dbName, strings.Join(bench.Backends(), ", "))
	}
	var err error
	if globalDB, err = globalBackend.Open(globalProps); err != nil {
		util.Fatalf("open db %s failed %v", dbName, err)
	}
}

func main() {
	globalContext, globalCancel = context.WithCancel(context.Background())

	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	closeDone := make(chan struct{}, 1)
	go func() {
		sig := <-sc
		fmt.Fprintf(os.Stderr, "\nGot signal [%v] to exit.\n", sig)
		globalCancel()

		select {
		case <-sc:
			// send signal again, return directly
			fmt.Fprintf(os.Stderr, "\nGot signal [%v] again to exit.\n", sig)
			os.Exit(1)
		case <-time.After(10 * time.Second):
			fmt.Fprint(os.Stderr, "\nWait 10s for closed, force exit\n")
			os.Exit(1)
		case <-closeDone:
			return
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "go-wholesale",
		Short: "Wholesale supplier OLTP and analytical workload driver",
	}

	rootCmd.AddCommand(
		newShellCommand(),
		newRunCommand(),
		newStateCommand(),
		newReportCommand(),
	)

	cobra.EnablePrefixMatching = true

	exitCode := 0
	if err := rootCmd.Execute(); err != nil {
		exitCode = 1
	}

	globalCancel()
	if globalDB != nil {
		globalDB.Close()
	}
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}

	closeDone <- struct{}{}
	os.Exit(exitCode)
}
