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

package lazify

import (
    `github.com/oleiade/lane`

    `github.com/lac-dcc/wyvern/internal/opts`
    `github.com/lac-dcc/wyvern/ir`
)

// CandidateSite selects one argument of one call instruction for
// lazification; the upstream analysis produces these.
type CandidateSite struct {
    Call     *ir.IrCall
    ArgIndex int
}

// CalleeArg keys the predicate set of (callee, argument index) pairs the
// upstream analysis deemed safe to lazify.
type CalleeArg struct {
    Callee   string
    ArgIndex int
}

/* Run applies the transformation to every candidate whose callee/index
 * pair is in the predicate set. Candidates are independent: a failure
 * skips that candidate, it never aborts the pass or leaves partial edits
 * behind. */
func Run(m *ir.Module, sites []CandidateSite, safe map[CalleeArg]bool, o opts.Options) Stats {
    q := lane.NewQueue()
    for _, s := range sites {
        q.Enqueue(s)
    }

    for !q.Empty() {
        s := q.Dequeue().(CandidateSite)

        /* only direct calls to functions on the safe list are rewritten */
        callee, ok := s.Call.Fn.(*ir.Func)
        if !ok {
            continue
        }
        if !safe[CalleeArg { Callee: callee.Nm, ArgIndex: s.ArgIndex }] {
            continue
        }

        /* each candidate is atomic, failures only count and log */
        if err := lazifyCallsite(m, s.Call, s.ArgIndex, o); err != nil {
            CandidatesRejected++
            debugf("cannot lazify argument %d of call to %s: %v", s.ArgIndex, callee.Name(), err)
        }
    }
    return Snapshot()
}
