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
    `strings`
)

type BasicBlock struct {
    Id   int
    F    *Func
    Phi  []*IrPhi
    Ins  []IrNode
    Pred []*BasicBlock
    Term IrTerminator
}

func (self *BasicBlock) Func() *Func {
    return self.F
}

/* NumPreds reports the predecessor count as recorded by the last CFG rebuild. */
func (self *BasicBlock) NumPreds() int {
    return len(self.Pred)
}

func (self *BasicBlock) AddPhi(p *IrPhi) {
    p.setParent(self)
    self.Phi = append(self.Phi, p)
}

func (self *BasicBlock) AddInstr(p IrNode) {
    p.(anchor).setParent(self)
    self.Ins = append(self.Ins, p)
}

func (self *BasicBlock) TermBranch(to *BasicBlock) {
    self.SetTerm(&IrSwitch { Ln: to })
}

func (self *BasicBlock) TermCondition(v Value, t *BasicBlock, f *BasicBlock) {
    self.SetTerm(&IrSwitch { V: v, Ln: f, Br: map[int64]*BasicBlock { 1: t } })
}

func (self *BasicBlock) TermReturn(v Value) {
    self.SetTerm(&IrReturn { R: v })
}

func (self *BasicBlock) SetTerm(tr IrTerminator) {
    tr.(anchor).setParent(self)
    self.Term = tr
}

/* InsertBefore places p immediately before the non-Phi instruction at,
 * or appends it when at is the block terminator or not present. */
func (self *BasicBlock) InsertBefore(at IrNode, p IrNode) {
    p.(anchor).setParent(self)
    for i, ins := range self.Ins {
        if ins == at {
            self.Ins = append(self.Ins, nil)
            copy(self.Ins[i + 1:], self.Ins[i:])
            self.Ins[i] = p
            return
        }
    }
    self.Ins = append(self.Ins, p)
}

/* InsertFront places p at the first insertion point of the block, which
 * is after its Phi nodes but before every ordinary instruction. */
func (self *BasicBlock) InsertFront(p IrNode) {
    p.(anchor).setParent(self)
    self.Ins = append([]IrNode { p }, self.Ins...)
}

/* successors lists the terminator targets in deterministic order, with
 * duplicates preserved. */
func (self *BasicBlock) successors() (r []*BasicBlock) {
    if self.Term == nil {
        return nil
    }
    for it := self.Term.Successors(); it.Next(); {
        r = append(r, it.Block())
    }
    return
}

func (self *BasicBlock) String() string {
    nb := len(self.Phi) + len(self.Ins) + 1
    ss := make([]string, 0, nb + 1)
    ss = append(ss, fmt.Sprintf("bb_%d:", self.Id))

    /* dump Phi nodes, then instructions, then the terminator */
    for _, p := range self.Phi {
        ss = append(ss, "    " + strings.ReplaceAll(p.String(), "\n", "\n    "))
    }
    for _, p := range self.Ins {
        ss = append(ss, "    " + strings.ReplaceAll(p.String(), "\n", "\n    "))
    }
    if self.Term != nil {
        ss = append(ss, "    " + strings.ReplaceAll(self.Term.String(), "\n", "\n    "))
    }

    /* join them together */
    return strings.Join(ss, "\n")
}
