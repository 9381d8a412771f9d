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

/* CloneFunc copies src into a new function with the given name and type,
 * the parameter count must match. Every value defined by src is remapped to
 * its clone; the value map is returned so callers can locate particular
 * clones, e.g. the substituted thunk parameter. */
func CloneFunc(m *Module, src *Func, name string, ty *FuncType) (*Func, map[Value]Value) {
    if len(ty.In) != len(src.In) {
        panic("wyvern: clone with mismatched parameter count: " + src.Nm)
    }

    /* preserve the original parameter names */
    args := make([]string, 0, len(src.In))
    for _, p := range src.In {
        args = append(args, p.Nm)
    }

    /* create the new function, carry the effect attributes over */
    dst := m.NewFunc(name, ty, args...)
    dst.Attr = src.Attr
    dst.nval = src.nval

    /* map every formal parameter */
    vmap := make(map[Value]Value)
    bmap := make(map[*BasicBlock]*BasicBlock)
    for i, p := range src.In {
        vmap[p] = dst.In[i]
    }

    /* create the block skeleton */
    for _, bb := range src.Blocks {
        bmap[bb] = dst.NewBlock()
    }

    /* clone Phi nodes, instructions and terminators */
    for _, bb := range src.Blocks {
        nb := bmap[bb]
        for _, p := range bb.Phi {
            q := p.Clone().(*IrPhi)
            vmap[p] = q
            nb.AddPhi(q)
        }
        for _, p := range bb.Ins {
            q := p.Clone()
            vmap[p] = q
            nb.AddInstr(q)
        }
        if bb.Term != nil {
            q := bb.Term.Clone().(IrTerminator)
            vmap[bb.Term] = q
            nb.SetTerm(q)
        }
    }

    /* rewire operands, incoming blocks and branch targets */
    dst.ForEachInstr(func(p IrNode) {
        for _, op := range p.Operands() {
            if v, ok := vmap[*op]; ok {
                *op = v
            }
        }
        switch q := p.(type) {
            case *IrPhi: {
                for i := range q.E {
                    if nb, ok := bmap[q.E[i].B]; ok {
                        q.E[i].B = nb
                    }
                }
            }
            case *IrSwitch: {
                if nb, ok := bmap[q.Ln]; ok {
                    q.Ln = nb
                }
                for k, v := range q.Br {
                    if nb, ok := bmap[v]; ok {
                        q.Br[k] = nb
                    }
                }
            }
        }
    })
    return dst, vmap
}
