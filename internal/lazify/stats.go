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
    `math`

    `github.com/lac-dcc/wyvern/ir`
)

/* process-wide transformation counters, the pass is single-threaded so
 * plain integers suffice. SmallestSlice starts at the maximum and is
 * reported as zero while nothing was lazified. */
var (
    CallsitesLazified  uint64
    FunctionsLazified  uint64
    LargestSlice       uint64
    SmallestSlice      uint64 = math.MaxUint64
    TotalSlice         uint64
    CandidatesRejected uint64
)

type _LazifiedValue struct {
    fn  *ir.Func
    val ir.IrNode
}

var lazifiedValues = make(map[_LazifiedValue]struct{})

// Stats is the numeric summary handed to downstream consumers.
type Stats struct {
    CallsitesLazified  uint64
    FunctionsLazified  uint64
    LargestSlice       uint64
    SmallestSlice      uint64
    TotalSlice         uint64
    CandidatesRejected uint64
}

func updateSliceStats(caller *ir.Func, initial ir.IrNode, size uint64) {
    CallsitesLazified++
    pair := _LazifiedValue { fn: caller, val: initial }
    if _, ok := lazifiedValues[pair]; !ok {
        lazifiedValues[pair] = struct{}{}
        FunctionsLazified++
    }
    TotalSlice += size
    if LargestSlice < size {
        LargestSlice = size
    }
    if SmallestSlice > size {
        SmallestSlice = size
    }
}

// Snapshot captures the current counters.
func Snapshot() Stats {
    ret := Stats {
        CallsitesLazified  : CallsitesLazified,
        FunctionsLazified  : FunctionsLazified,
        LargestSlice       : LargestSlice,
        SmallestSlice      : SmallestSlice,
        TotalSlice         : TotalSlice,
        CandidatesRejected : CandidatesRejected,
    }
    if ret.SmallestSlice == math.MaxUint64 {
        ret.SmallestSlice = 0
    }
    return ret
}

// ResetStatistics zeroes every counter, tests use it for isolation.
func ResetStatistics() {
    CallsitesLazified = 0
    FunctionsLazified = 0
    LargestSlice = 0
    SmallestSlice = math.MaxUint64
    TotalSlice = 0
    CandidatesRejected = 0
    lazifiedValues = make(map[_LazifiedValue]struct{})
}
