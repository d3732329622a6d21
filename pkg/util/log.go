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
	"os"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the process logger writing to stderr and installs it as
// the global logger. format is "text" or "json".
func InitLogger(level string, format string) (*zap.Logger, error) {
	cfg := &log.Config{
		Level:  level,
		Format: format,
	}
	stderr := zapcore.Lock(os.Stderr)
	lg, p, err := log.InitLoggerWithWriteSyncer(cfg, stderr, stderr, zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		return nil, errors.Annotatef(err, "init logger level=%s format=%s", level, format)
	}
	log.ReplaceGlobals(lg, p)
	return lg, nil
}
