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
    `sort`

    `github.com/lac-dcc/wyvern/ir`
)

/* _ProgramSlice is the backward slice of one caller value: the instructions
 * that reproduce it, the formal parameters they depend on, the blocks that
 * carry them, and the attractor of every caller block for branch rerouting
 * during outlining. */
type _ProgramSlice struct {
    fn         *ir.Func
    cfg        *ir.CFG
    initial    ir.IrNode
    callSite   *ir.IrCall
    insts      map[ir.IrNode]struct{}
    depArgs    []*ir.Param
    blocks     map[int]*ir.BasicBlock
    attractors map[int]*ir.BasicBlock
    o2n        map[*ir.BasicBlock]*ir.BasicBlock
    n2o        map[*ir.BasicBlock]*ir.BasicBlock
    imap       map[ir.IrNode]ir.IrNode
}

func newProgramSlice(initial ir.IrNode, fn *ir.Func, callSite *ir.IrCall, cfg *ir.CFG) *_ProgramSlice {
    if initial.Parent().Func() != fn {
        panic("wyvern: slicing an instruction from a different function")
    }

    /* join data and control dependences */
    gates := computeGates(cfg)
    blocks, deps := dataDeps(initial, fn, gates)

    /* split the dependences into instructions and formal parameters */
    self := &_ProgramSlice {
        fn       : fn,
        cfg      : cfg,
        initial  : initial,
        callSite : callSite,
        blocks   : blocks,
        insts    : make(map[ir.IrNode]struct{}, len(deps)),
    }
    for v := range deps {
        switch p := v.(type) {
            case *ir.Param : self.depArgs = append(self.depArgs, p)
            case ir.IrNode : self.insts[p] = struct{}{}
        }
    }

    /* keep the captured parameters in declaration order */
    sort.Slice(self.depArgs, func(i int, j int) bool {
        return self.depArgs[i].Idx < self.depArgs[j].Idx
    })

    self.computeAttractorBlocks()
    self.printSlice()
    return self
}

/* computeAttractorBlocks maps every caller block to its nearest
 * post-dominator inside the slice; slice blocks attract themselves.
 * Blocks with no post-dominating slice block have no attractor. */
func (self *_ProgramSlice) computeAttractorBlocks() {
    self.attractors = make(map[int]*ir.BasicBlock, len(self.fn.Blocks))
    for _, bb := range self.fn.Blocks {
        if _, ok := self.blocks[bb.Id]; ok {
            self.attractors[bb.Id] = bb
            continue
        }
        cand := self.cfg.PostDominatedBy[bb.Id]
        for cand != nil {
            if _, ok := self.blocks[cand.Id]; ok {
                break
            }
            cand = self.cfg.PostDominatedBy[cand.Id]
        }
        if cand != nil {
            self.attractors[bb.Id] = cand
        }
    }
}

/* size is the slice size measure fed into the statistics. */
func (self *_ProgramSlice) size(thunk *ir.Func) uint64 {
    return uint64(thunk.NumInstrs())
}
