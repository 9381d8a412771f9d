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

/* FuncAttrs describe the observable effects of calling a function, they are
 * supplied by the frontend and trusted by the purity validator. */
type FuncAttrs struct {
    ReadsMemory bool
    MayThrow    bool
    NoReturn    bool
}

func (self FuncAttrs) IsPure() bool {
    return !self.ReadsMemory && !self.MayThrow && !self.NoReturn
}

type Func struct {
    Nm     string
    Ty     *FuncType
    In     []*Param
    Blocks []*BasicBlock
    Attr   FuncAttrs
    M      *Module
    nval   int
    nblk   int
}

func newFunc(name string, ty *FuncType, args []string) *Func {
    fn := &Func {
        Nm: name,
        Ty: ty,
    }

    /* create the formal parameters */
    for i, t := range ty.In {
        nm := fmt.Sprintf("arg%d", i)
        if i < len(args) && args[i] != "" {
            nm = args[i]
        }
        fn.In = append(fn.In, &Param {
            Nm  : nm,
            T   : t,
            F   : fn,
            Idx : i,
        })
    }
    return fn
}

func (self *Func) Type() Type   { return PointerTo(self.Ty) }
func (self *Func) Name() string { return "@" + self.Nm }

func (self *Func) Entry() *BasicBlock {
    if len(self.Blocks) == 0 {
        panic("wyvern: function has no blocks: " + self.Nm)
    }
    return self.Blocks[0]
}

func (self *Func) NewBlock() *BasicBlock {
    bb := &BasicBlock { Id: self.nblk, F: self }
    self.nblk++
    self.Blocks = append(self.Blocks, bb)
    return bb
}

/* RemoveBlock unlinks bb from the block list, it does not touch any value
 * that may still reference the block. */
func (self *Func) RemoveBlock(bb *BasicBlock) {
    ret := self.Blocks[:0]
    for _, p := range self.Blocks {
        if p != bb {
            ret = append(ret, p)
        }
    }
    self.Blocks = ret
}

/* MoveToFront makes bb the entry block without renumbering. */
func (self *Func) MoveToFront(bb *BasicBlock) {
    self.RemoveBlock(bb)
    self.Blocks = append([]*BasicBlock { bb }, self.Blocks...)
}

/* Temp allocates a fresh function-unique value name. */
func (self *Func) Temp() string {
    nm := fmt.Sprintf("v%d", self.nval)
    self.nval++
    return nm
}

/* NumInstrs counts Phi nodes, instructions and terminators, this is the
 * slice size measure reported by the statistics. */
func (self *Func) NumInstrs() (n int) {
    for _, bb := range self.Blocks {
        n += len(bb.Phi) + len(bb.Ins)
        if bb.Term != nil {
            n++
        }
    }
    return
}

/* ForEachInstr visits every Phi node, instruction and terminator of the
 * function in layout order. */
func (self *Func) ForEachInstr(action func(p IrNode)) {
    for _, bb := range self.Blocks {
        for _, p := range bb.Phi {
            action(p)
        }
        for _, p := range bb.Ins {
            action(p)
        }
        if bb.Term != nil {
            action(bb.Term)
        }
    }
}

/* UsersOf collects every instruction of the function that takes v as an
 * operand, in layout order, each user listed once. */
func (self *Func) UsersOf(v Value) (r []IrNode) {
    seen := make(map[IrNode]struct{})
    self.ForEachInstr(func(p IrNode) {
        for _, op := range p.Operands() {
            if *op == v {
                if _, ok := seen[p]; !ok {
                    seen[p] = struct{}{}
                    r = append(r, p)
                }
                break
            }
        }
    })
    return
}

/* ReplaceUses rewrites every operand slot of the function that currently
 * holds old to hold new. */
func (self *Func) ReplaceUses(old Value, new Value) {
    self.ForEachInstr(func(p IrNode) {
        for _, op := range p.Operands() {
            if *op == old {
                *op = new
            }
        }
    })
}

/* ReplaceUsesIf rewrites operand slots holding old with new, but only for
 * users accepted by the predicate. */
func (self *Func) ReplaceUsesIf(old Value, new Value, pred func(user IrNode) bool) {
    self.ForEachInstr(func(p IrNode) {
        if !pred(p) {
            return
        }
        for _, op := range p.Operands() {
            if *op == old {
                *op = new
            }
        }
    })
}

func (self *Func) String() string {
    nb := len(self.Blocks)
    ss := make([]string, 0, nb + 2)
    ss = append(ss, fmt.Sprintf("func %s %s {", self.Name(), self.Ty))

    /* dump every block in layout order */
    for _, bb := range self.Blocks {
        ss = append(ss, bb.String())
    }

    /* join them together */
    ss = append(ss, "}")
    return strings.Join(ss, "\n")
}

/** Module **/

type Module struct {
    Nm    string
    Funcs []*Func
    fmap  map[string]*Func
}

func NewModule(name string) *Module {
    return &Module {
        Nm   : name,
        fmap : make(map[string]*Func),
    }
}

func (self *Module) NewFunc(name string, ty *FuncType, args ...string) *Func {
    if _, ok := self.fmap[name]; ok {
        panic("wyvern: duplicated function: " + name)
    }
    fn := newFunc(name, ty, args)
    fn.M = self
    self.fmap[name] = fn
    self.Funcs = append(self.Funcs, fn)
    return fn
}

func (self *Module) GetFunc(name string) *Func {
    return self.fmap[name]
}

/* RemoveFunc discards a function from the module, it is used to drop
 * partially built thunks when verification fails. */
func (self *Module) RemoveFunc(fn *Func) {
    ret := self.Funcs[:0]
    for _, p := range self.Funcs {
        if p != fn {
            ret = append(ret, p)
        }
    }
    self.Funcs = ret
    delete(self.fmap, fn.Nm)
}

func (self *Module) String() string {
    nb := len(self.Funcs)
    ss := make([]string, 0, nb)

    /* dump every function */
    for _, fn := range self.Funcs {
        ss = append(ss, fn.String())
    }

    /* join them together */
    return strings.Join(ss, "\n\n")
}
