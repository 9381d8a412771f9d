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
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/lac-dcc/wyvern/ir`
)

func TestDataDeps_StraightLine(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")
    fn, _, x := constFoldCaller(m, callee)
    cfg := ir.BuildCFG(fn)

    blocks, deps := dataDeps(x, fn, computeGates(cfg))

    /* x, the multiply feeding it, and both parameters */
    require.Len(t, deps, 4)
    require.Contains(t, deps, ir.Value(x))
    require.Contains(t, deps, ir.Value(fn.In[0]))
    require.Contains(t, deps, ir.Value(fn.In[1]))

    /* everything lives in the entry block */
    require.Len(t, blocks, 1)
    require.Contains(t, blocks, fn.Blocks[0].Id)

    /* the call result and the return never enter the slice */
    fn.ForEachInstr(func(p ir.IrNode) {
        if _, ok := p.(*ir.IrCall); ok {
            require.NotContains(t, deps, ir.Value(p))
        }
    })
}

func TestDataDeps_PhiPullsGatesAndBlocks(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")
    fn, _, x := branchyCaller(m, callee)
    cfg := ir.BuildCFG(fn)

    blocks, deps := dataDeps(x, fn, computeGates(cfg))
    bb := fn.Blocks

    /* the Phi pulls in both incoming blocks, the gate pulls in the fork */
    require.Len(t, blocks, 4)
    for _, p := range bb {
        require.Contains(t, blocks, p.Id)
    }

    /* the gate branch and its condition are dependences */
    require.Contains(t, deps, ir.Value(bb[0].Term))
    require.Contains(t, deps, ir.Value(fn.In[0]))

    /* both arms and their inputs too */
    require.Contains(t, deps, ir.Value(fn.In[1]))
    require.Contains(t, deps, ir.Value(fn.In[2]))
    require.Len(t, deps, 7)
}

func TestSlice_DepArgOrder(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")
    fn, call, x := branchyCaller(m, callee)
    cfg := ir.BuildCFG(fn)

    slice := newProgramSlice(x, fn, call, cfg)

    /* captured parameters come in declaration order regardless of the
     * traversal order that discovered them */
    require.Len(t, slice.depArgs, 3)
    require.Equal(t, fn.In[0], slice.depArgs[0])
    require.Equal(t, fn.In[1], slice.depArgs[1])
    require.Equal(t, fn.In[2], slice.depArgs[2])
}

func TestSlice_Attractors(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")
    fn, call, x := branchyCaller(m, callee)
    cfg := ir.BuildCFG(fn)

    slice := newProgramSlice(x, fn, call, cfg)

    /* every block is in the slice, so every block attracts itself */
    for _, bb := range fn.Blocks {
        require.Equal(t, bb, slice.attractors[bb.Id])
    }
}

func TestSlice_AttractorOfExcludedBlock(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")

    /* x does not depend on the diamond, only bb_3 is in the slice, so the
     * excluded fork and arms are attracted to the merge */
    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.I1, ir.I64 } }, "c", "a")
    b := ir.NewBuilder(fn)

    bb0 := b.NewBlock()
    bb1 := fn.NewBlock()
    bb2 := fn.NewBlock()
    bb3 := fn.NewBlock()

    b.SetBlock(bb0)
    b.CondBr(fn.In[0], bb1, bb2)
    b.SetBlock(bb1)
    b.Jump(bb3)
    b.SetBlock(bb2)
    b.Jump(bb3)

    b.SetBlock(bb3)
    x := b.Binary(ir.IrOpMul, fn.In[1], ir.Int(ir.I64, 5))
    call := b.Call(callee, x)
    b.Ret(call)

    require.NoError(t, ir.Verify(fn))
    cfg := ir.BuildCFG(fn)
    slice := newProgramSlice(x, fn, call, cfg)

    require.Len(t, slice.blocks, 1)
    require.Equal(t, bb3, slice.attractors[bb0.Id])
    require.Equal(t, bb3, slice.attractors[bb1.Id])
    require.Equal(t, bb3, slice.attractors[bb2.Id])
    require.Equal(t, bb3, slice.attractors[bb3.Id])
}
