/*
 * Copyright 2023 Wyvern Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package wyvern

import (
	"github.com/lac-dcc/wyvern/internal/lazify"
	"github.com/lac-dcc/wyvern/internal/opts"
	"github.com/lac-dcc/wyvern/ir"
)

// CandidateSite selects one argument of one call instruction for
// lazification.
type CandidateSite = lazify.CandidateSite

// CalleeArg keys the set of (callee, argument index) pairs deemed safe to
// lazify by the upstream analysis.
type CalleeArg = lazify.CalleeArg

// Stats is a snapshot of the process-wide lazification counters taken at
// the end of a LazifyModule run: how many call sites and (function, value)
// pairs were rewritten, and the size distribution of the generated slices.
// The counters accumulate across runs; they are not reset per call.
type Stats = lazify.Stats

// LazifyModule rewrites every candidate call site whose callee/index pair
// is in the safe set, replacing the selected eager argument with a thunk
// record and the callee with a clone that forces the thunk at each use.
//
// The module is mutated in place. Candidates are independent: a candidate
// whose slice cannot be outlined is skipped and counted, never aborting
// the pass.
func LazifyModule(m *ir.Module, sites []CandidateSite, safe map[CalleeArg]bool, options ...Option) Stats {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	return lazify.Run(m, sites, safe, o)
}
