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
    `github.com/lac-dcc/wyvern/ir`
)

/* _GateMap records, for every merge block, the branch values whose runtime
 * outcome decides whether the block is entered. */
type _GateMap map[int][]ir.Value

/* getGate extracts the controlling terminator of a gating block. A block
 * that decides whether a merge is reached always branches, so anything
 * else yields no gate. */
func getGate(bb *ir.BasicBlock) ir.Value {
    sw, ok := bb.Term.(*ir.IrSwitch)
    if !ok || !sw.IsConditional() {
        return nil
    }
    return sw
}

/* getController walks up the dominator chain of pred until it finds a node
 * that pred does not post-dominate; that node's terminator remotely
 * decides whether the merge is reached through pred. On a plain diamond
 * this finds the fork block for both arms. */
func getController(pred *ir.BasicBlock, cfg *ir.CFG) *ir.BasicBlock {
    for p := pred; p != nil; p = cfg.DominatedBy[p.Id] {
        if !cfg.PostDominates(pred, p) {
            return p
        }
    }
    return nil
}

/* computeGates derives the gating predicates of every block with more than
 * one predecessor: either the predecessor's own terminator when it branches
 * into the merge directly, or the terminator of its remote controller. */
func computeGates(cfg *ir.CFG) _GateMap {
    gates := make(_GateMap, len(cfg.Func.Blocks))

    /* blocks with a single predecessor have no gates */
    for _, bb := range cfg.Func.Blocks {
        var gg []ir.Value
        if len(bb.Pred) > 1 {
            for _, pred := range bb.Pred {
                if cfg.Dominates(pred, bb) && !cfg.PostDominates(bb, pred) {
                    if gate := getGate(pred); gate != nil {
                        gg = append(gg, gate)
                    }
                } else if ctrl := getController(pred, cfg); ctrl != nil {
                    if gate := getGate(ctrl); gate != nil {
                        gg = append(gg, gate)
                    }
                }
            }
        }
        gates[bb.Id] = gg
    }
    return gates
}
