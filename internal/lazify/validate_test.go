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

func requireRejected(t *testing.T, err error, reason string) {
    require.Error(t, err)
    oe, ok := err.(NotOutlineableError)
    require.True(t, ok, "expected NotOutlineableError, got %v", err)
    require.Contains(t, oe.Reason, reason)
}

func TestValidate_PureSliceAccepted(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")
    fn, call, x := constFoldCaller(m, callee)
    cfg := ir.BuildCFG(fn)

    slice := newProgramSlice(x, fn, call, cfg)
    require.NoError(t, slice.canOutline())
}

func TestValidate_LoadRejected(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")

    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.PointerTo(ir.I64) } }, "p")
    b := ir.NewBuilder(fn)
    b.NewBlock()
    v := b.Load(fn.In[0])
    x := b.Binary(ir.IrOpAdd, v, ir.Int(ir.I64, 1))
    call := b.Call(callee, x)
    b.Ret(call)

    cfg := ir.BuildCFG(fn)
    slice := newProgramSlice(x, fn, call, cfg)
    requireRejected(t, slice.canOutline(), "read memory")
}

func TestValidate_ImpureCallRejected(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")

    impure := m.NewFunc("getenv", &ir.FuncType { Ret: ir.I64, In: []ir.Type{} })
    impure.Attr.ReadsMemory = true
    ib := ir.NewBuilder(impure)
    ib.NewBlock()
    ib.Ret(ir.Int(ir.I64, 0))

    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type{} })
    b := ir.NewBuilder(fn)
    b.NewBlock()
    v := b.Call(impure)
    x := b.Binary(ir.IrOpAdd, v, ir.Int(ir.I64, 1))
    call := b.Call(callee, x)
    b.Ret(call)

    cfg := ir.BuildCFG(fn)
    slice := newProgramSlice(x, fn, call, cfg)
    requireRejected(t, slice.canOutline(), "read or write memory")
}

func TestValidate_PureCallAccepted(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")
    helper := pureCallee(m, "g")

    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.I64 } }, "a")
    b := ir.NewBuilder(fn)
    b.NewBlock()
    v := b.Call(helper, fn.In[0])
    x := b.Binary(ir.IrOpAdd, v, ir.Int(ir.I64, 1))
    call := b.Call(callee, x)
    b.Ret(call)

    cfg := ir.BuildCFG(fn)
    slice := newProgramSlice(x, fn, call, cfg)
    require.NoError(t, slice.canOutline())
}

func TestValidate_InitialAllocaRejected(t *testing.T) {
    m := ir.NewModule("test")
    st := &ir.StructType { Name: "pair", Fields: []ir.Type { ir.I64, ir.I64 } }
    callee := m.NewFunc("f", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.PointerTo(st) } }, "p")
    cb := ir.NewBuilder(callee)
    cb.NewBlock()
    cb.Ret(ir.Int(ir.I64, 0))

    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type{} })
    b := ir.NewBuilder(fn)
    b.NewBlock()
    a := b.Alloca(st)
    call := b.Call(callee, a)
    b.Ret(call)

    cfg := ir.BuildCFG(fn)
    slice := newProgramSlice(a, fn, call, cfg)
    requireRejected(t, slice.canOutline(), "criterion is an alloca")
}

func TestValidate_EscapingAllocaRejected(t *testing.T) {
    m := ir.NewModule("test")
    st := &ir.StructType { Name: "pair", Fields: []ir.Type { ir.I64, ir.I64 } }
    callee := m.NewFunc("f", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.PointerTo(ir.I64) } }, "p")
    cb := ir.NewBuilder(callee)
    cb.NewBlock()
    cb.Ret(ir.Int(ir.I64, 0))

    /* the record's address is published through the out-parameter before
     * a pointer into it is passed to f */
    out := ir.PointerTo(ir.PointerTo(st))
    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type { out } }, "q")
    b := ir.NewBuilder(fn)
    b.NewBlock()
    a := b.Alloca(st)
    b.Store(a, fn.In[0])
    g := b.GEP(a, 0)
    call := b.Call(callee, g)
    b.Ret(call)

    cfg := ir.BuildCFG(fn)
    slice := newProgramSlice(g, fn, call, cfg)
    requireRejected(t, slice.canOutline(), "address taken")
}

func TestValidate_LoopDepthRejected(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")

    /* the call sits in a depth-1 loop and the slice includes the
     * induction variable at the same depth */
    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.I64 } }, "n")
    b := ir.NewBuilder(fn)

    bb0 := b.NewBlock()
    bb1 := fn.NewBlock()
    bb2 := fn.NewBlock()
    bb3 := fn.NewBlock()

    b.SetBlock(bb0)
    b.Jump(bb1)

    b.SetBlock(bb1)
    i := b.Phi(ir.I64, ir.PhiEdge { B: bb0, V: ir.Int(ir.I64, 0) })
    c := b.Binary(ir.IrCmpLt, i, fn.In[0])
    b.CondBr(c, bb2, bb3)

    b.SetBlock(bb2)
    i2 := b.Binary(ir.IrOpAdd, i, ir.Int(ir.I64, 1))
    i.E = append(i.E, ir.PhiEdge { B: bb2, V: i2 })
    x := b.Binary(ir.IrOpMul, i, ir.Int(ir.I64, 2))
    call := b.Call(callee, x)
    b.Jump(bb1)

    b.SetBlock(bb3)
    b.Ret(ir.Int(ir.I64, 0))

    require.NoError(t, ir.Verify(fn))
    cfg := ir.BuildCFG(fn)
    slice := newProgramSlice(x, fn, call, cfg)
    requireRejected(t, slice.canOutline(), "loop depth")
}

func TestValidate_LCSSAPhiRejected(t *testing.T) {
    m := ir.NewModule("test")
    callee := pureCallee(m, "f")

    /* x is a single-incoming Phi whose producing branch stays outside the
     * slice */
    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.I64, ir.I1 } }, "n", "c")
    b := ir.NewBuilder(fn)

    bb0 := b.NewBlock()
    bb1 := fn.NewBlock()
    bb2 := fn.NewBlock()

    b.SetBlock(bb0)
    b.Jump(bb1)

    b.SetBlock(bb1)
    b.CondBr(fn.In[1], bb1, bb2)

    b.SetBlock(bb2)
    x := b.Phi(ir.I64, ir.PhiEdge { B: bb1, V: fn.In[0] })
    call := b.Call(callee, x)
    b.Ret(call)

    require.NoError(t, ir.Verify(fn))
    cfg := ir.BuildCFG(fn)
    slice := newProgramSlice(x, fn, call, cfg)
    requireRejected(t, slice.canOutline(), "single-entry Phi")
}
