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
    `testing`

    `github.com/stretchr/testify/require`
)

func TestVerify_MissingTerminator(t *testing.T) {
    m := NewModule("test")
    fn := m.NewFunc("broken", &FuncType { Ret: I64, In: []Type { I64 } }, "a")
    b := NewBuilder(fn)
    bb := b.NewBlock()
    b.Binary(IrOpAdd, fn.In[0], Int(I64, 1))
    _ = bb

    err := Verify(fn)
    require.Error(t, err)
    require.Contains(t, err.Error(), "no terminator")
}

func TestVerify_TwoEntries(t *testing.T) {
    m := NewModule("test")
    fn := m.NewFunc("broken", &FuncType { Ret: I64, In: []Type { I64 } }, "a")
    b := NewBuilder(fn)
    b.NewBlock()
    b.Ret(fn.In[0])
    b.NewBlock()
    b.Ret(fn.In[0])

    err := Verify(fn)
    require.Error(t, err)
    require.Contains(t, err.Error(), "lack predecessors")
}

func TestVerify_StalePhiIncoming(t *testing.T) {
    m := NewModule("test")
    fn := m.NewFunc("broken", &FuncType { Ret: I64, In: []Type { I1, I64 } }, "c", "a")
    b := NewBuilder(fn)

    bb0 := b.NewBlock()
    bb1 := fn.NewBlock()
    bb2 := fn.NewBlock()

    b.SetBlock(bb0)
    b.CondBr(fn.In[0], bb1, bb2)

    b.SetBlock(bb1)
    b.Jump(bb2)

    b.SetBlock(bb2)

    /* bb_0 and bb_1 are real predecessors, a third one is not */
    stale := &BasicBlock { Id: 99, F: fn }
    x := b.Phi(
        I64,
        PhiEdge { B: bb0, V: fn.In[1] },
        PhiEdge { B: bb1, V: fn.In[1] },
        PhiEdge { B: stale, V: fn.In[1] },
    )
    b.Ret(x)

    err := Verify(fn)
    require.Error(t, err)
    require.Contains(t, err.Error(), "stale incoming")

    /* dropping the stale edge repairs the function */
    x.RemoveEdge(stale)
    require.NoError(t, Verify(fn))
}

func TestVerify_UseBeforeDef(t *testing.T) {
    m := NewModule("test")
    fn := m.NewFunc("broken", &FuncType { Ret: I64, In: []Type { I64 } }, "a")
    b := NewBuilder(fn)
    b.NewBlock()

    u := b.Binary(IrOpAdd, fn.In[0], Int(I64, 1))
    v := b.Binary(IrOpMul, u, Int(I64, 2))
    b.Ret(v)

    /* swap the two instructions so the multiply reads a later value */
    bb := fn.Blocks[0]
    bb.Ins[0], bb.Ins[1] = bb.Ins[1], bb.Ins[0]

    err := Verify(fn)
    require.Error(t, err)
    require.Contains(t, err.Error(), "before its definition")
}

func TestVerify_ForeignValue(t *testing.T) {
    m := NewModule("test")
    other := m.NewFunc("other", &FuncType { Ret: I64, In: []Type { I64 } }, "x")
    ob := NewBuilder(other)
    ob.NewBlock()
    ov := ob.Binary(IrOpAdd, other.In[0], Int(I64, 1))
    ob.Ret(ov)

    fn := m.NewFunc("broken", &FuncType { Ret: I64, In: []Type{} })
    b := NewBuilder(fn)
    b.NewBlock()
    b.Ret(ov)

    err := Verify(fn)
    require.Error(t, err)
    require.Contains(t, err.Error(), "foreign value")
}

func TestClone_Independence(t *testing.T) {
    _, fn := buildDiamond(t)
    m := fn.M

    clone, vmap := CloneFunc(m, fn, "diamond_clone", fn.Ty)
    require.NoError(t, Verify(clone))
    require.Equal(t, fn.NumInstrs(), clone.NumInstrs())

    /* parameters are remapped */
    for i, p := range fn.In {
        require.Equal(t, Value(clone.In[i]), vmap[p])
    }

    /* no cloned operand still points into the original */
    clone.ForEachInstr(func(p IrNode) {
        for _, op := range p.Operands() {
            if q, ok := (*op).(IrNode); ok {
                require.Equal(t, clone, q.Parent().Func())
            }
            if q, ok := (*op).(*Param); ok {
                require.Equal(t, clone, q.F)
            }
        }
    })

    /* mutating the clone leaves the original intact */
    before := fn.String()
    clone.Blocks[0].TermBranch(clone.Blocks[2])
    require.Equal(t, before, fn.String())
}
