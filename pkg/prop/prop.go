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

package prop

// Properties
const (
	DB                 = "db"
	ThreadCount        = "threadcount"
	ThreadCountDefault = int64(1)
	Target             = "target"
	Command            = "command"

	// A single client replays WorkloadFile ("-" reads stdin). With more than one
	// thread, client i replays <WorkloadDir>/<i>.txt.
	WorkloadFile        = "workload.file"
	WorkloadFileDefault = "-"
	WorkloadDir         = "workload.dir"
	WorkloadDirDefault  = "."

	// Analytical query templates. Empty means the embedded default.
	TemplatePopularItem     = "template.popular_item"
	TemplateTopBalance      = "template.top_balance"
	TemplateRelatedCustomer = "template.related_customer"

	RetryBaseDelayMs           = "retry.base_delay_ms"
	RetryBaseDelayMsDefault    = int64(10)
	RetryMaxExponent           = "retry.max_exponent"
	RetryMaxExponentDefault    = 8
	RetryWarnThreshold         = "retry.warn_threshold"
	RetryWarnThresholdDefault  = 10
	RetryMaxAttempts           = "retry.max_attempts"
	RetryMaxAttemptsDefault    = 0
	RetryJitterFraction        = "retry.jitter"
	RetryJitterFractionDefault = float64(0.5)

	MeasurementOutputFile = "measurement.output_file"
	MeasurementOutputDir  = "measurement.output_dir"
	MeasurementRedisAddr  = "measurement.redis.addr"
	MeasurementRedisKey   = "measurement.redis.key"
	// MeasurementRedisKeyDefault is the list every client appends its summary to.
	MeasurementRedisKeyDefault = "wholesale:metrics"
	// MeasurementOutputDirDefault receives the per client summaries when no
	// output file applies.
	MeasurementOutputDirDefault = "."

	StateOutputFile = "state.output_file"

	// "plain", "table", "json"
	OutputStyle = "outputstyle"

	LogLevel         = "log.level"
	LogLevelDefault  = "info"
	LogFormat        = "log.format"
	LogFormatDefault = "text"

	DebugPprof        = "debug.pprof"
	DebugPprofDefault = ":6060"

	Verbose        = "verbose"
	VerboseDefault = false
	// Silence suppresses transaction outputs on stdout.
	Silence        = "silence"
	SilenceDefault = false
)
