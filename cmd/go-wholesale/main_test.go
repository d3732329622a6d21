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
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestItemLines(t *testing.T) {
	assert.Equal(t, 3, itemLines("N,1,2,3,3"))
	assert.Equal(t, 0, itemLines("P,1,2,3,4.00"))
	assert.Equal(t, 3, itemLines("N,1,2,3"))
	assert.Equal(t, 2, itemLines("N,1,1,1,x,2"))
	assert.Equal(t, 2, itemLines(" N , 1,1,1, 2 "))
	assert.Equal(t, 0, itemLines("N,1,2,3,x"))
	assert.Equal(t, 0, itemLines("T"))
}

func TestLockedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &lockedWriter{w: &buf}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Write([]byte("=== block ===\nline\n"))
		}()
	}
	wg.Wait()
	assert.Equal(t, strings.Repeat("=== block ===\nline\n", 8), buf.String())
}

type scriptedReader struct {
	lines []string
	errs  []error
	calls int
}

func (r *scriptedReader) Readline() (string, error) {
	i := r.calls
	r.calls++
	if i < len(r.lines) {
		return r.lines[i], r.errs[i]
	}
	return "", io.EOF
}

func TestReadRecordLine(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	r := &scriptedReader{lines: []string{" T "}, errs: []error{nil}}
	line, ok := readRecordLine(r, logger)
	assert.True(t, ok)
	assert.Equal(t, "T", line)

	for _, err := range []error{io.EOF, readline.ErrInterrupt} {
		r = &scriptedReader{lines: []string{""}, errs: []error{err}}
		_, ok = readRecordLine(r, logger)
		assert.False(t, ok)
		assert.Equal(t, 1, r.calls)
	}
	assert.Equal(t, 0, logs.Len())

	// Other errors end the shell after one read instead of reading again.
	r = &scriptedReader{lines: []string{"", "T"}, errs: []error{errors.New("bad terminal"), nil}}
	_, ok = readRecordLine(r, logger)
	assert.False(t, ok)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, 1, logs.FilterMessage("read line failed").Len())
}
