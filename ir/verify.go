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

package ir

import (
    `fmt`
)

type _DefPos struct {
    bb *BasicBlock
    ix int
}

/* Verify checks the structural invariants every well-formed function must
 * satisfy: one terminator per block, a unique entry block placed first,
 * Phi incoming lists matching the predecessors exactly, and every operand
 * defined before use along the dominance relation. */
func Verify(fn *Func) error {
    if len(fn.Blocks) == 0 {
        return fmt.Errorf("wyvern: verify %s: function has no blocks", fn.Name())
    }

    /* block-local checks */
    for _, bb := range fn.Blocks {
        if bb.Term == nil {
            return fmt.Errorf("wyvern: verify %s: bb_%d has no terminator", fn.Name(), bb.Id)
        }
        for _, p := range bb.Ins {
            if _, ok := p.(IrTerminator); ok {
                return fmt.Errorf("wyvern: verify %s: bb_%d holds terminator %q mid-block", fn.Name(), bb.Id, p.String())
            }
            if p.Parent() != bb {
                return fmt.Errorf("wyvern: verify %s: instruction %q has a stale parent", fn.Name(), p.String())
            }
        }
    }

    /* recompute the predecessor sets from the terminators */
    pred := make(map[int]map[int]*BasicBlock)
    for _, bb := range fn.Blocks {
        if pred[bb.Id] == nil {
            pred[bb.Id] = make(map[int]*BasicBlock)
        }
        for _, to := range bb.successors() {
            if pred[to.Id] == nil {
                pred[to.Id] = make(map[int]*BasicBlock)
            }
            pred[to.Id][bb.Id] = bb
        }
    }

    /* a unique entry block, placed first in the layout */
    entry := (*BasicBlock)(nil)
    for _, bb := range fn.Blocks {
        if len(pred[bb.Id]) == 0 {
            if entry != nil {
                return fmt.Errorf("wyvern: verify %s: bb_%d and bb_%d both lack predecessors", fn.Name(), entry.Id, bb.Id)
            }
            entry = bb
        }
    }
    if entry == nil {
        return fmt.Errorf("wyvern: verify %s: no entry block", fn.Name())
    }
    if entry != fn.Blocks[0] {
        return fmt.Errorf("wyvern: verify %s: entry bb_%d is not first in layout", fn.Name(), entry.Id)
    }

    /* Phi incoming lists must equal the predecessor sets */
    for _, bb := range fn.Blocks {
        for _, p := range bb.Phi {
            seen := make(map[int]struct{})
            for _, e := range p.E {
                if _, ok := pred[bb.Id][e.B.Id]; !ok {
                    return fmt.Errorf("wyvern: verify %s: %q has stale incoming bb_%d", fn.Name(), p.String(), e.B.Id)
                }
                if _, ok := seen[e.B.Id]; ok {
                    return fmt.Errorf("wyvern: verify %s: %q has duplicated incoming bb_%d", fn.Name(), p.String(), e.B.Id)
                }
                seen[e.B.Id] = struct{}{}
            }
            if len(seen) != len(pred[bb.Id]) {
                return fmt.Errorf("wyvern: verify %s: %q covers %d of %d predecessors", fn.Name(), p.String(), len(seen), len(pred[bb.Id]))
            }
        }
    }

    /* definition positions for the dominance check */
    defs := make(map[IrNode]_DefPos)
    for _, bb := range fn.Blocks {
        for _, p := range bb.Phi {
            defs[p] = _DefPos { bb: bb, ix: -1 }
        }
        for i, p := range bb.Ins {
            defs[p] = _DefPos { bb: bb, ix: i }
        }
        if bb.Term != nil {
            defs[bb.Term] = _DefPos { bb: bb, ix: len(bb.Ins) }
        }
    }

    /* dominator tree over the entry */
    domby, _ := buildDominatorTree(entry)
    dominates := func(a *BasicBlock, b *BasicBlock) bool {
        for b != nil {
            if a == b {
                return true
            }
            b = domby[b.Id]
        }
        return false
    }

    /* every operand must be defined before its use */
    var fail error
    fn.ForEachInstr(func(p IrNode) {
        if fail != nil {
            return
        }
        up := defs[p]
        for i, op := range p.Operands() {
            switch v := (*op).(type) {
                case *Param: {
                    if v.F != fn {
                        fail = fmt.Errorf("wyvern: verify %s: %q uses foreign parameter %s", fn.Name(), p.String(), v.Name())
                    }
                }
                case IrNode: {
                    dp, ok := defs[v]
                    if !ok {
                        fail = fmt.Errorf("wyvern: verify %s: %q uses foreign value %s", fn.Name(), p.String(), v.Name())
                        break
                    }

                    /* uses merged through a Phi must be available at the end
                     * of the corresponding incoming block instead */
                    if phi, isphi := p.(*IrPhi); isphi {
                        if !dominates(dp.bb, phi.E[i].B) {
                            fail = fmt.Errorf("wyvern: verify %s: %q incoming %s does not dominate bb_%d", fn.Name(), p.String(), v.Name(), phi.E[i].B.Id)
                        }
                        break
                    }

                    /* same-block uses follow layout order, Phis come first */
                    if dp.bb == up.bb {
                        if dp.ix >= up.ix && !(dp.ix == -1 && up.ix >= 0) {
                            fail = fmt.Errorf("wyvern: verify %s: %q uses %s before its definition", fn.Name(), p.String(), v.Name())
                        }
                    } else if !dominates(dp.bb, up.bb) {
                        fail = fmt.Errorf("wyvern: verify %s: %q uses %s from non-dominating bb_%d", fn.Name(), p.String(), v.Name(), dp.bb.Id)
                    }
                }
            }
        }
    })
    return fail
}
