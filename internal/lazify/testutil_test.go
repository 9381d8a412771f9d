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
    `github.com/lac-dcc/wyvern/internal/opts`
    `github.com/lac-dcc/wyvern/ir`
)

/* seqNonce replaces the random symbol suffix with a deterministic counter
 * so generated names are stable across runs. */
func seqNonce() func() uint64 {
    n := uint64(0)
    return func() uint64 {
        n++
        return n
    }
}

func testOptions(memo bool) opts.Options {
    return opts.Options {
        Memoization : memo,
        Nonce       : seqNonce(),
    }
}

/* pureCallee builds `func name(p i64) i64 { return p + 7 }`. */
func pureCallee(m *ir.Module, name string) *ir.Func {
    fn := m.NewFunc(name, &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.I64 } }, "p")
    b := ir.NewBuilder(fn)
    b.NewBlock()
    d := b.Binary(ir.IrOpAdd, fn.In[0], ir.Int(ir.I64, 7))
    b.Ret(d)
    return fn
}

/* twoUseCallee builds `func name(p i64) i64 { return p*p + p }`, so the
 * lazified parameter has two using instructions and three uses. */
func twoUseCallee(m *ir.Module, name string) *ir.Func {
    fn := m.NewFunc(name, &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.I64 } }, "p")
    b := ir.NewBuilder(fn)
    b.NewBlock()
    u := b.Binary(ir.IrOpMul, fn.In[0], fn.In[0])
    w := b.Binary(ir.IrOpAdd, u, fn.In[0])
    b.Ret(w)
    return fn
}

/* constFoldCaller builds the classic candidate:
 *
 *   func caller(a i64, b i64) i64 {
 *       x := a*b + 1
 *       return f(x)
 *   }
 *
 * and returns the caller, the call and the instruction computing x. */
func constFoldCaller(m *ir.Module, callee *ir.Func) (*ir.Func, *ir.IrCall, ir.IrNode) {
    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.I64, ir.I64 } }, "a", "b")
    b := ir.NewBuilder(fn)
    b.NewBlock()
    x0 := b.Binary(ir.IrOpMul, fn.In[0], fn.In[1])
    x := b.Binary(ir.IrOpAdd, x0, ir.Int(ir.I64, 1))
    ir.Rename(x, "x")
    c := b.Call(callee, x)
    b.Ret(c)
    return fn, c, x
}

/* branchyCaller builds the conditional candidate:
 *
 *   func caller(c i1, a i64, b i64) i64 {
 *       x := c ? a*2 : b*3
 *       return f(x)
 *   }
 */
func branchyCaller(m *ir.Module, callee *ir.Func) (*ir.Func, *ir.IrCall, *ir.IrPhi) {
    fn := m.NewFunc("caller", &ir.FuncType { Ret: ir.I64, In: []ir.Type { ir.I1, ir.I64, ir.I64 } }, "c", "a", "b")
    b := ir.NewBuilder(fn)

    bb0 := b.NewBlock()
    bb1 := fn.NewBlock()
    bb2 := fn.NewBlock()
    bb3 := fn.NewBlock()

    b.SetBlock(bb0)
    b.CondBr(fn.In[0], bb1, bb2)

    b.SetBlock(bb1)
    t1 := b.Binary(ir.IrOpMul, fn.In[1], ir.Int(ir.I64, 2))
    b.Jump(bb3)

    b.SetBlock(bb2)
    t2 := b.Binary(ir.IrOpMul, fn.In[2], ir.Int(ir.I64, 3))
    b.Jump(bb3)

    b.SetBlock(bb3)
    x := b.Phi(ir.I64, ir.PhiEdge { B: bb1, V: t1 }, ir.PhiEdge { B: bb2, V: t2 })
    ir.Rename(x, "x")
    c := b.Call(callee, x)
    b.Ret(c)
    return fn, c, x
}

/* countCalls tallies the call instructions of fn. */
func countCalls(fn *ir.Func) (n int) {
    fn.ForEachInstr(func(p ir.IrNode) {
        if _, ok := p.(*ir.IrCall); ok {
            n++
        }
    })
    return
}
