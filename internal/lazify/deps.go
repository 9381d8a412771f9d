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

    `github.com/lac-dcc/wyvern/ir`
)

/* dataDeps walks the SSA operand edges backwards from initial, collecting
 * every value whose execution reproduces it and every block that houses
 * one. Phi nodes are where control dependence re-enters the data flow: a
 * visited Phi pulls in all of its incoming blocks plus the gating branches
 * of its parent block. Constants and values of other functions stop the
 * traversal. */
func dataDeps(initial ir.IrNode, fn *ir.Func, gates _GateMap) (map[int]*ir.BasicBlock, map[ir.Value]struct{}) {
    deps := make(map[ir.Value]struct{})
    blocks := make(map[int]*ir.BasicBlock)
    visited := make(map[ir.Value]struct{})

    /* breadth-first over the operand edges */
    q := lane.NewQueue()
    q.Enqueue(ir.Value(initial))
    deps[initial] = struct{}{}

    for !q.Empty() {
        cur := q.Dequeue().(ir.Value)
        deps[cur] = struct{}{}

        /* instructions contribute their parent block and their operands */
        if p, ok := cur.(ir.IrNode); ok {
            blocks[p.Parent().Id] = p.Parent()
            for _, op := range p.Operands() {
                if !isSliceable(*op, fn) {
                    continue
                }
                if _, seen := visited[*op]; seen {
                    continue
                }
                visited[*op] = struct{}{}
                q.Enqueue(*op)
            }
        }

        /* Phis additionally pull in their incoming blocks and the gating
         * branches of their parent block */
        if pn, ok := cur.(*ir.IrPhi); ok {
            for _, e := range pn.E {
                blocks[e.B.Id] = e.B
            }
            for _, gate := range gates[pn.Parent().Id] {
                if gate == nil {
                    continue
                }
                if _, seen := visited[gate]; seen {
                    continue
                }
                visited[gate] = struct{}{}
                q.Enqueue(gate)
            }
        }
    }
    return blocks, deps
}

/* isSliceable reports whether a value continues the backward traversal:
 * only instructions and formal parameters of the sliced function do. */
func isSliceable(v ir.Value, fn *ir.Func) bool {
    switch p := v.(type) {
        case *ir.Param : return p.F == fn
        case ir.IrNode : return p.Parent() != nil && p.Parent().Func() == fn
        default        : return false
    }
}
