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

/* canOutline decides whether the slice is legal to outline into a thunk:
 * every instruction must be pure, terminating and non-throwing; stack
 * allocations must not escape; the slice must not cross a loop that
 * contains the call site; and the slicing criterion itself must be neither
 * an allocation nor a degenerate loop-exit Phi. Instruction kinds the
 * validator does not recognize are refused. */
func (self *_ProgramSlice) canOutline() error {
    for p := range self.insts {
        switch v := p.(type) {
            case *ir.IrPhi        : break
            case *ir.IrUnaryExpr  : break
            case *ir.IrBinaryExpr : break
            case *ir.IrPtrToInt   : break
            case *ir.IrSwitch     : break

            /* field access must stay within the allocated layout */
            case *ir.IrGEP: {
                if st, ok := gepStruct(v); !ok || v.Off < 0 || v.Off >= int64(st.NumFields()) {
                    return reject("field access outside the allocated object", v)
                }
            }

            /* allocations are only tolerated while their address stays
             * inside the slice */
            case *ir.IrAlloca: {
                if hasAddressTaken(v, self.fn, make(map[ir.IrNode]struct{})) {
                    return reject("alloca has its address taken", v)
                }
            }

            /* calls are pure only when the target is a known function
             * marked free of memory, throw and divergence effects */
            case *ir.IrCall: {
                fn, ok := v.Fn.(*ir.Func)
                if !ok {
                    return reject("indirect call may have effects", v)
                }
                if fn.Attr.ReadsMemory {
                    return reject("call may read or write memory", v)
                }
                if fn.Attr.MayThrow {
                    return reject("call may throw", v)
                }
                if fn.Attr.NoReturn {
                    return reject("call may not return", v)
                }
            }

            case *ir.IrLoad  : return reject("instruction may read memory", v)
            case *ir.IrStore : return reject("instruction may write memory", v)

            /* everything else is refused by default */
            default: {
                return reject("unsupported instruction", p)
            }
        }
    }

    /* the slice must not lift work out of a loop that contains the call
     * site: every slice block has to sit strictly deeper */
    if d := self.cfg.LoopDepth(self.callSite.Parent()); d > 0 {
        for _, bb := range self.blocks {
            if self.cfg.LoopDepth(bb) <= d {
                return reject("slice block at call-site loop depth", bb.Term)
            }
        }
    }

    /* a slicing criterion that is itself an allocation cannot be returned
     * by value from the thunk */
    if _, ok := self.initial.(*ir.IrAlloca); ok {
        return reject("slicing criterion is an alloca", self.initial)
    }

    /* LCSSA inserts Phis with a single incoming edge; when the branch of
     * that edge's block is not itself in the slice, eliminating the Phi
     * would re-synthesize a value with no producer */
    if pn, ok := self.initial.(*ir.IrPhi); ok && len(pn.E) == 1 {
        if _, ok := self.insts[ir.IrNode(pn.E[0].B.Term)]; !ok {
            return reject("single-entry Phi with its branch outside the slice", pn)
        }
    }
    return nil
}

func gepStruct(v *ir.IrGEP) (*ir.StructType, bool) {
    pt, ok := v.Mem.Type().(*ir.PtrType)
    if !ok {
        return nil, false
    }
    st, ok := pt.Elem.(*ir.StructType)
    return st, ok
}

/* hasAddressTaken is the conservative escape walk over the users of a
 * stack allocation: storing the pointer itself, casting it to an integer,
 * passing it to a call with effects, or any unrecognized user counts as an
 * escape. Loads and well-bounded field accesses do not. */
func hasAddressTaken(ai ir.IrNode, fn *ir.Func, visited map[ir.IrNode]struct{}) bool {
    if _, ok := visited[ai]; ok {
        return false
    }
    visited[ai] = struct{}{}

    for _, user := range fn.UsersOf(ai) {
        switch v := user.(type) {
            /* storing through the pointer is fine, storing the pointer
             * itself publishes it */
            case *ir.IrStore: {
                if v.R == ir.Value(ai) {
                    return true
                }
            }

            case *ir.IrPtrToInt: {
                return true
            }

            /* an out-of-bounds derivation counts as an escape, an in-bounds
             * one escapes iff the derived pointer itself escapes */
            case *ir.IrGEP: {
                if st, ok := gepStruct(v); !ok || v.Off < 0 || v.Off >= int64(st.NumFields()) {
                    return true
                }
                if hasAddressTaken(v, fn, visited) {
                    return true
                }
            }

            /* merged pointers are tracked through the Phi */
            case *ir.IrPhi: {
                if hasAddressTaken(v, fn, visited) {
                    return true
                }
            }

            /* a call with effects may retain the pointer */
            case *ir.IrCall: {
                target, ok := v.Fn.(*ir.Func)
                if !ok || !target.Attr.IsPure() {
                    return true
                }
            }

            /* reading through the pointer is innocuous */
            case *ir.IrLoad  : break
            case *ir.IrReturn: break

            /* conservatively treat anything else as an escape */
            default: {
                return true
            }
        }
    }
    return false
}
