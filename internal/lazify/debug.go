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
    `fmt`
    `os`
    `sort`

    `github.com/davecgh/go-spew/spew`

    `github.com/lac-dcc/wyvern/ir`
)

/* slice dumps are gated by an environment variable so that production
 * builds pay nothing for them. */
var debugSlices = os.Getenv("WYVERN_DEBUG_SLICES") != ""

func debugf(format string, args ...interface{}) {
    if debugSlices {
        fmt.Fprintf(os.Stderr, format + "\n", args...)
    }
}

/* _SliceSummary is the spew-friendly digest of a computed slice. */
type _SliceSummary struct {
    Caller     string
    Initial    string
    CallSite   string
    DepArgs    []string
    Blocks     []int
    Attractors map[int]int
}

func (self *_ProgramSlice) summary() *_SliceSummary {
    ret := &_SliceSummary {
        Caller     : self.fn.Name(),
        Initial    : self.initial.Name(),
        CallSite   : self.callSite.String(),
        Attractors : make(map[int]int, len(self.attractors)),
    }
    for _, a := range self.depArgs {
        ret.DepArgs = append(ret.DepArgs, a.Name())
    }
    for id := range self.blocks {
        ret.Blocks = append(ret.Blocks, id)
    }
    sort.Ints(ret.Blocks)
    for id, bb := range self.attractors {
        ret.Attractors[id] = bb.Id
    }
    return ret
}

func (self *_ProgramSlice) printSlice() {
    if !debugSlices {
        return
    }
    debugf("==== slicing %s at %s ====", self.fn.Name(), self.initial.Name())
    debugf("%s", spew.Sdump(self.summary()))
    for _, bb := range self.fn.Blocks {
        if _, ok := self.blocks[bb.Id]; !ok {
            continue
        }
        debugf("  bb_%d:", bb.Id)
        for _, p := range bb.Phi {
            if _, ok := self.insts[ir.IrNode(p)]; ok {
                debugf("    %s", p.String())
            }
        }
        for _, p := range bb.Ins {
            if _, ok := self.insts[p]; ok {
                debugf("    %s", p.String())
            }
        }
        if bb.Term != nil {
            if _, ok := self.insts[ir.IrNode(bb.Term)]; ok {
                debugf("    %s", bb.Term.String())
            }
        }
    }
}

func (self *_ProgramSlice) printFunctions(thunk *ir.Func) {
    if !debugSlices {
        return
    }
    debugf("======== ORIGINAL FUNCTION ========\n%s", self.fn.String())
    debugf("======== SLICED FUNCTION ========\n%s", thunk.String())
}
