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

package measurement

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pingcap/errors"
	"github.com/redis/go-redis/v9"
)

// Sink receives the summary of a finished client.
type Sink interface {
	Write(ctx context.Context, s Summary) error
}

// FileSink writes the summary line to a file, replacing it.
type FileSink struct {
	Path string
}

// Write implements Sink.
func (f FileSink) Write(_ context.Context, s Summary) error {
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(os.WriteFile(f.Path, []byte(s.String()), 0644))
}

// RedisSink appends the summary line to a Redis list so clients running on
// different hosts can be aggregated together.
type RedisSink struct {
	client redis.UniversalClient
	key    string
}

// NewRedisSink returns a sink pushing to key.
func NewRedisSink(client redis.UniversalClient, key string) *RedisSink {
	return &RedisSink{client: client, key: key}
}

// Write implements Sink.
func (r *RedisSink) Write(ctx context.Context, s Summary) error {
	return errors.Annotatef(r.client.RPush(ctx, r.key, s.String()).Err(), "rpush %s", r.key)
}

// ReadRedis returns every summary pushed to key.
func ReadRedis(ctx context.Context, client redis.UniversalClient, key string) ([]Summary, error) {
	lines, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.Annotatef(err, "lrange %s", key)
	}
	summaries := make([]Summary, 0, len(lines))
	for _, line := range lines {
		s, err := ParseSummary(line)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// MultiSink writes to every sink and returns the first error.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, s Summary) error {
	var first error
	for _, sink := range m {
		if err := sink.Write(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
