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

package bench

import (
	"github.com/pingcap/errors"
)

var (
	// ErrConflict is the cause of every error that aborted a transaction
	// because of a serialization failure. The request may be run again.
	ErrConflict = errors.New("transaction conflict")

	// ErrNotFound is returned when a row the workload refers to does not exist.
	ErrNotFound = errors.New("row not found")
)

// IsConflict reports whether err was caused by a transaction conflict.
func IsConflict(err error) bool {
	return err != nil && errors.Cause(err) == ErrConflict
}

// Conflict annotates ErrConflict with the backend error that signalled it.
func Conflict(detail error) error {
	return errors.Annotate(ErrConflict, detail.Error())
}
