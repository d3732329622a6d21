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
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/jmoiron/sqlx"
	"github.com/pingcap/go-wholesale/pkg/client"
	"github.com/pingcap/go-wholesale/pkg/prop"
	"github.com/pingcap/go-wholesale/pkg/txn"
	"github.com/pingcap/go-wholesale/pkg/util"
	"github.com/pingcap/go-wholesale/pkg/workload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newShellCommand() *cobra.Command {
	m := &cobra.Command{
		Use:   "shell db",
		Short: "Run workload records typed interactively",
		Args:  cobra.MinimumNArgs(1),
		Run:   runShellCommandFunc,
	}
	m.Flags().StringSliceVarP(&propertyFiles, "property_file", "P", nil, "Specify a property file")
	m.Flags().StringArrayVarP(&propertyValues, "prop", "p", nil, "Specify a property value with name=value")
	return m
}

type shell struct {
	conn    *sqlx.Conn
	env     *txn.Env
	retrier *client.Retrier
	parser  *workload.Parser
}

func runShellCommandFunc(cmd *cobra.Command, args []string) {
	initialGlobal(args[0], func() {
		globalProps.Set(prop.Command, "shell")
	})

	templates, err := txn.LoadTemplates(globalProps)
	if err != nil {
		util.Fatalf("load templates failed %v", err)
	}
	conn, err := globalDB.Connx(globalContext)
	if err != nil {
		util.Fatalf("connect failed %v", err)
	}
	defer conn.Close()

	s := &shell{
		conn:    conn,
		env:     txn.NewEnv(globalBackend, templates),
		retrier: client.NewRetrier(client.RetryConfigFromProperties(globalProps), globalLogger),
		parser:  workload.NewParser(globalLogger),
	}
	s.loop()
}

// itemLines returns how many item lines follow the header of a new order.
func itemLines(header string) int {
	fields := strings.Split(header, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[0] != string(workload.TagNewOrder) {
		return 0
	}
	n, _ := workload.ItemCount(fields[1:])
	return n
}

func (s *shell) run(record string) {
	reqs, err := s.parser.Parse(strings.NewReader(record))
	if err != nil || len(reqs) == 0 {
		fmt.Println("invalid record, expected a workload record such as `T` or `P,1,1,1,10.00`")
		return
	}

	for _, r := range reqs {
		ex, err := s.env.Executor(r)
		if err != nil {
			fmt.Printf("%s failed %v\n", r.Kind(), err)
			continue
		}
		start := time.Now()
		out, retries, err := s.retrier.Run(globalContext, ex, s.conn)
		if err != nil {
			fmt.Printf("%s failed after %d retries: %v\n", r.Kind(), retries, err)
			continue
		}
		if _, err = out.WriteTo(os.Stdout); err != nil {
			globalLogger.Warn("write transaction output failed", zap.Error(err))
		}
		fmt.Printf("%s ok, takes %s, %d retries\n", r.Kind(), time.Since(start), retries)
	}
}

type lineReader interface {
	Readline() (string, error)
}

// readRecordLine returns the next trimmed line. Any read error ends the
// shell; only interrupt and EOF end it quietly.
func readRecordLine(r lineReader, logger *zap.Logger) (string, bool) {
	line, err := r.Readline()
	if err != nil {
		if err != readline.ErrInterrupt && err != io.EOF {
			logger.Error("read line failed", zap.Error(err))
		}
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (s *shell) loop() {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[31m»\033[0m ",
		HistoryFile:       "/tmp/go-wholesale-readline.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "^D",
		HistorySearchFold: true,
	})
	if err != nil {
		util.Fatalf("init readline failed %v", err)
	}
	defer l.Close()

	readLine := func() (string, bool) {
		return readRecordLine(l, globalLogger)
	}

	for {
		line, ok := readLine()
		if !ok || line == "exit" {
			return
		}
		if line == "" {
			continue
		}

		record := []string{line}
		n := itemLines(line)
		l.SetPrompt("... ")
		for i := 0; i < n; i++ {
			item, ok := readLine()
			if !ok {
				return
			}
			record = append(record, item)
		}
		l.SetPrompt("\033[31m»\033[0m ")

		s.run(strings.Join(record, "\n"))
	}
}
