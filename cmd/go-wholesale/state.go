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

	"github.com/pingcap/go-wholesale/pkg/prop"
	"github.com/pingcap/go-wholesale/pkg/state"
	"github.com/pingcap/go-wholesale/pkg/util"
	"github.com/spf13/cobra"
)

func runStateCommandFunc(cmd *cobra.Command, args []string) {
	initialGlobal(args[0], func() {
		globalProps.Set(prop.Command, "state")
		if cmd.Flags().Changed("output") {
			globalProps.Set(prop.StateOutputFile, stateOutputArg)
		}
	})

	s, err := state.Read(globalContext, globalDB)
	if err != nil {
		util.Fatalf("read state failed %v", err)
	}

	if path := globalProps.GetString(prop.StateOutputFile, ""); path != "" {
		if err := saveState(path, s); err != nil {
			util.Fatalf("write state failed %v", err)
		}
	}

	if globalProps.GetBool(prop.Verbose, prop.VerboseDefault) {
		values := make([][]string, len(s))
		for i, v := range s {
			values[i] = []string{state.Names[i], v.String()}
		}
		util.Render(os.Stdout, globalProps.GetString(prop.OutputStyle, util.OutputStylePlain),
			[]string{"Aggregate", "Value"}, values)
		return
	}
	fmt.Println(s)
}

func saveState(path string, s state.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = s.WriteTo(f)
	return err
}

var stateOutputArg string

func newStateCommand() *cobra.Command {
	m := &cobra.Command{
		Use:   "state db",
		Short: "Print the aggregate database state",
		Args:  cobra.MinimumNArgs(1),
		Run:   runStateCommandFunc,
	}
	m.Flags().StringSliceVarP(&propertyFiles, "property_file", "P", nil, "Specify a property file")
	m.Flags().StringArrayVarP(&propertyValues, "prop", "p", nil, "Specify a property value with name=value")
	m.Flags().StringVarP(&stateOutputArg, "output", "o", "", "Also write the state to the file - can also be specified as the \""+prop.StateOutputFile+"\" property")
	return m
}
