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
    `fmt`

    `github.com/lac-dcc/wyvern/ir`
)

/* field indices of the thunk record, the function pointer is field 0 in
 * both modes, memo mode interposes the cached value and the flag before
 * the captured arguments. */
const (
    _F_fnptr    = 0
    _F_memoval  = 1
    _F_memoflag = 2
)

func capturedBase(memo bool) int64 {
    if memo {
        return 3
    } else {
        return 1
    }
}

/* outline synthesizes a standalone function that recomputes the sliced
 * value from a thunk record, together with the record's struct type. The
 * caller is never mutated: a verification failure discards the partial
 * clone and leaves the module as it was. */
func (self *_ProgramSlice) outline(memo bool, nonce uint64) (*ir.Func, *ir.StructType, error) {
    m := self.fn.M

    /* the record type is self-referential through the thunk signature, so
     * tie the layout after both types exist */
    st := &ir.StructType { Name: "_wyvern_thunk_type" }
    ty := &ir.FuncType { Ret: valueType(self.initial), In: []ir.Type { ir.PointerTo(st) } }

    /* field 0 is the function pointer in both modes */
    fields := []ir.Type { ir.PointerTo(ty) }
    if memo {
        fields = append(fields, ty.Ret, ir.I1)
    }
    for _, arg := range self.depArgs {
        fields = append(fields, arg.T)
    }
    st.Fields = fields

    /* generated symbol, the nonce avoids collisions between slices of the
     * same value; an exhausted nonce is simply advanced */
    prefix := "_wyvern_slice_"
    if memo {
        prefix = "_wyvern_slice_memo_"
    }
    name := fmt.Sprintf("%s%s_%s%d", prefix, self.fn.Nm, valueName(self.initial.Name()), nonce)
    for m.GetFunc(name) != nil {
        nonce++
        name = fmt.Sprintf("%s%s_%s%d", prefix, self.fn.Nm, valueName(self.initial.Name()), nonce)
    }

    fn := m.NewFunc(name, ty, "_wyvern_thunkptr")
    self.populateBlocks(fn)
    self.populateInsts()
    self.reorganizeUses(fn)
    self.rerouteBranches(fn)
    ret := self.addReturnValue()
    self.reorderBlocks(fn)
    self.insertLoadForThunkParams(fn, memo)
    if memo {
        self.addMemoizationCode(fn, ret)
    }

    /* a malformed thunk is a bug in the slicer, drop the partial clone so
     * the module is left untouched */
    if err := ir.Verify(fn); err != nil {
        m.RemoveFunc(fn)
        return nil, nil, err
    }

    self.printFunctions(fn)
    return fn, st, nil
}

/* populateBlocks creates one empty block per slice block, in the caller's
 * layout order, and records the bijection both ways. */
func (self *_ProgramSlice) populateBlocks(fn *ir.Func) {
    self.o2n = make(map[*ir.BasicBlock]*ir.BasicBlock, len(self.blocks))
    self.n2o = make(map[*ir.BasicBlock]*ir.BasicBlock, len(self.blocks))
    for _, bb := range self.fn.Blocks {
        if _, ok := self.blocks[bb.Id]; ok {
            nb := fn.NewBlock()
            self.o2n[bb] = nb
            self.n2o[nb] = bb
        }
    }
}

/* populateInsts clones the slice instructions into their corresponding new
 * blocks, in original program order. A sliced terminator becomes the new
 * block's terminator. */
func (self *_ProgramSlice) populateInsts() {
    self.imap = make(map[ir.IrNode]ir.IrNode, len(self.insts))
    for _, bb := range self.fn.Blocks {
        nb, ok := self.o2n[bb]
        if !ok {
            continue
        }
        for _, p := range bb.Phi {
            if _, ok := self.insts[ir.IrNode(p)]; ok {
                q := p.Clone().(*ir.IrPhi)
                self.imap[p] = q
                nb.AddPhi(q)
            }
        }
        for _, p := range bb.Ins {
            if _, ok := self.insts[p]; ok {
                q := p.Clone()
                self.imap[p] = q
                nb.AddInstr(q)
            }
        }
        if bb.Term != nil {
            if _, ok := self.insts[ir.IrNode(bb.Term)]; ok {
                q := bb.Term.Clone().(ir.IrTerminator)
                self.imap[bb.Term] = q
                nb.SetTerm(q)
            }
        }
    }
}

/* reorganizeUses rewires every cloned instruction so that operands which
 * were themselves cloned now refer to the clone; Phi incoming blocks move
 * to their cloned counterparts when present. Caller parameters are left
 * dangling until insertLoadForThunkParams. */
func (self *_ProgramSlice) reorganizeUses(fn *ir.Func) {
    for orig, clone := range self.imap {
        if pn, ok := clone.(*ir.IrPhi); ok {
            for _, e := range pn.E {
                if nb, ok := self.o2n[e.B]; ok {
                    pn.ReplaceIncomingBlock(e.B, nb)
                }
            }
        }
        fn.ReplaceUses(orig, clone)
    }
}

/* addDomBranches visits the caller's dominator tree in pre-order; whenever
 * a slice-included node dominates a slice-included descendant and its
 * clone still lacks a terminator, the clone falls through to the
 * descendant's clone with an unconditional branch. */
func (self *_ProgramSlice) addDomBranches(cur *ir.BasicBlock, parent *ir.BasicBlock, visited map[int]struct{}) {
    if _, ok := self.blocks[cur.Id]; ok {
        parent = cur
    }
    for _, child := range self.cfg.DominatorOf[cur.Id] {
        if _, ok := visited[child.Id]; !ok {
            visited[child.Id] = struct{}{}
            self.addDomBranches(child, parent, visited)
        }
        if _, ok := self.blocks[child.Id]; ok && parent != nil {
            pb := self.o2n[parent]
            cb := self.o2n[child]
            if pb.Term == nil {
                pb.TermBranch(cb)
            }
        }
    }
}

/* rerouteBranches reconstructs a well-formed CFG for the thunk body even
 * though arbitrary caller blocks were omitted: any path through an omitted
 * block is equivalent to a jump straight to that block's attractor. */
func (self *_ProgramSlice) rerouteBranches(fn *ir.Func) {
    root := self.cfg.Root
    visited := map[int]struct{} { root.Id: {} }

    /* dominator-tree fallthrough branches first */
    if _, ok := self.blocks[root.Id]; ok {
        self.addDomBranches(root, root, visited)
    } else {
        self.addDomBranches(root, nil, visited)
    }

    /* branch targets that have no attractor inside the slice route into a
     * single shared trap block */
    ub := fn.NewBlock()
    ub.SetTerm(new(ir.IrUnreachable))
    used := false

    /* the block list grows while rerouting, freeze a copy */
    work := make([]*ir.BasicBlock, len(fn.Blocks))
    copy(work, fn.Blocks)

    for _, bb := range work {
        if bb == ub {
            continue
        }
        if bb.Term == nil {
            self.rerouteFallthrough(fn, bb)
        } else if sw, ok := bb.Term.(*ir.IrSwitch); ok {
            used = self.retargetSwitch(fn, bb, sw, ub) || used
        }
    }

    /* the trap block must not be mistaken for an entry later on */
    if !used {
        fn.RemoveBlock(ub)
    }

    self.updatePHINodes(fn)
}

/* rerouteFallthrough gives a still unterminated clone the branch of its
 * original block, redirected to the attractor of whichever successor still
 * has a clone to land on. */
func (self *_ProgramSlice) rerouteFallthrough(fn *ir.Func, bb *ir.BasicBlock) {
    orig := self.n2o[bb]
    sw, ok := orig.Term.(*ir.IrSwitch)
    if !ok {
        return
    }
    for it := sw.Successors(); it.Next(); {
        suc := it.Block()
        att := self.attractors[suc.Id]
        if att == nil {
            continue
        }
        nt := self.o2n[att]
        if nt == nil {
            continue
        }
        bb.TermBranch(nt)

        /* the new target may merge a path from a block this one dominated,
         * move those incoming entries over */
        for _, pn := range nt.Phi {
            for _, e := range pn.E {
                if e.B.Func() == fn {
                    continue
                }
                cand := self.cfg.DominatedBy[e.B.Id]
                for cand != nil && cand != orig {
                    cand = self.cfg.DominatedBy[cand.Id]
                }
                if cand == orig {
                    pn.ReplaceIncomingBlock(e.B, bb)
                }
            }
        }
        break
    }
}

/* retargetSwitch redirects every successor of a cloned terminator that
 * still points into the caller: to the clone of its attractor when one
 * exists, to the shared trap block otherwise. Reports whether the trap
 * block was used. */
func (self *_ProgramSlice) retargetSwitch(fn *ir.Func, bb *ir.BasicBlock, sw *ir.IrSwitch, ub *ir.BasicBlock) bool {
    used := false

    retarget := func(suc *ir.BasicBlock) *ir.BasicBlock {
        if suc.Func() == fn {
            return suc
        }
        var nt *ir.BasicBlock
        if att := self.attractors[suc.Id]; att != nil {
            nt = self.o2n[att]
        }
        if nt == nil {
            used = true
            return ub
        }
        for _, pn := range nt.Phi {
            pn.ReplaceIncomingBlock(suc, bb)
        }
        return nt
    }

    sw.Ln = retarget(sw.Ln)
    for k, v := range sw.Br {
        sw.Br[k] = retarget(v)
    }
    return used
}

/* updatePHINodes removes incoming entries that no longer correspond to an
 * actual predecessor after the CFG was reconstructed. */
func (self *_ProgramSlice) updatePHINodes(fn *ir.Func) {
    preds := make(map[int]map[int]struct{})
    for _, bb := range fn.Blocks {
        if bb.Term == nil {
            continue
        }
        for it := bb.Term.Successors(); it.Next(); {
            to := it.Block()
            if preds[to.Id] == nil {
                preds[to.Id] = make(map[int]struct{})
            }
            preds[to.Id][bb.Id] = struct{}{}
        }
    }
    for _, bb := range fn.Blocks {
        for _, pn := range bb.Phi {
            var stale []*ir.BasicBlock
            for _, e := range pn.E {
                if _, ok := preds[bb.Id][e.B.Id]; !ok || e.B.Func() != fn {
                    stale = append(stale, e.B)
                }
            }
            for _, b := range stale {
                pn.RemoveEdge(b)
            }
        }
    }
}

/* addReturnValue makes the block holding the clone of the slicing
 * criterion return it, discarding whatever terminator it had. */
func (self *_ProgramSlice) addReturnValue() *ir.IrReturn {
    exit := self.imap[self.initial].Parent()
    exit.TermReturn(self.imap[self.initial])
    return exit.Term.(*ir.IrReturn)
}

/* reorderBlocks moves the unique predecessor-less block to the front of
 * the layout so it becomes the entry. */
func (self *_ProgramSlice) reorderBlocks(fn *ir.Func) {
    preds := make(map[int]int)
    for _, bb := range fn.Blocks {
        if bb.Term == nil {
            continue
        }
        seen := make(map[int]struct{})
        for it := bb.Term.Successors(); it.Next(); {
            to := it.Block()
            if _, ok := seen[to.Id]; !ok {
                seen[to.Id] = struct{}{}
                preds[to.Id]++
            }
        }
    }
    var entry *ir.BasicBlock
    for _, bb := range fn.Blocks {
        if preds[bb.Id] == 0 {
            entry = bb
        }
    }
    if entry == nil {
        panic("wyvern: outlined function has no entry block")
    }
    fn.MoveToFront(entry)
}

/* insertLoadForThunkParams materializes every captured caller parameter at
 * the top of the entry block: compute the slot address, load it, and route
 * all former parameter uses through the load. Captured slots start at 1 in
 * call-by-name mode and at 3 in call-by-need mode. */
func (self *_ProgramSlice) insertLoadForThunkParams(fn *ir.Func, memo bool) {
    entry := fn.Entry()
    thunkptr := fn.In[0]

    b := ir.NewBuilder(fn)
    if len(entry.Ins) != 0 {
        b.SetInsertBefore(entry.Ins[0])
    } else {
        b.SetBlock(entry)
    }

    idx := capturedBase(memo)
    for _, arg := range self.depArgs {
        addr := b.GEP(thunkptr, idx)
        ir.Rename(addr, "_wyvern_arg_addr_" + arg.Nm)
        load := b.Load(addr)
        ir.Rename(load, "_wyvern_arg_" + arg.Nm)
        fn.ReplaceUsesIf(arg, load, func(user ir.IrNode) bool {
            return user != addr && user != load
        })
        idx++
    }
}

/* addMemoizationCode wraps the thunk body in the call-by-need prologue and
 * epilogue: a new entry loads the cached value and the flag, returning the
 * cache when the flag is set; the return site stores the computed value
 * and raises the flag. */
func (self *_ProgramSlice) addMemoizationCode(fn *ir.Func, ret *ir.IrReturn) {
    oldEntry := fn.Entry()
    thunkptr := fn.In[0]

    newEntry := fn.NewBlock()
    memoRet := fn.NewBlock()

    /* prologue: if the flag is set, return the cached value */
    b := ir.NewBuilder(fn)
    b.SetBlock(newEntry)
    valAddr := b.GEP(thunkptr, _F_memoval)
    ir.Rename(valAddr, "_wyvern_memo_val_addr")
    val := b.Load(valAddr)
    ir.Rename(val, "_wyvern_memo_val")
    flagAddr := b.GEP(thunkptr, _F_memoflag)
    ir.Rename(flagAddr, "_wyvern_memo_flag_addr")
    flag := b.Load(flagAddr)
    ir.Rename(flag, "_wyvern_memo_flag")
    b.CondBr(flag, memoRet, oldEntry)

    b.SetBlock(memoRet)
    b.Ret(val)

    /* epilogue: cache the computed value before returning it */
    b.SetBlock(ret.Parent())
    b.Store(ret.R, valAddr)
    b.Store(ir.Int(ir.I1, 1), flagAddr)

    fn.MoveToFront(newEntry)
}

/* valueType is the thunk's result type. */
func valueType(v ir.Value) ir.Type {
    return v.Type()
}
