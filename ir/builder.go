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

/* Builder emits instructions into a function block by block, it is the
 * construction surface used by frontends, by the tests, and by the
 * call-site rewriter. */
type Builder struct {
    f  *Func
    bb *BasicBlock
    at IrNode
}

func NewBuilder(fn *Func) *Builder {
    return &Builder { f: fn }
}

func (self *Builder) Func() *Func {
    return self.f
}

func (self *Builder) Block() *BasicBlock {
    return self.bb
}

func (self *Builder) NewBlock() *BasicBlock {
    bb := self.f.NewBlock()
    self.bb = bb
    self.at = nil
    return bb
}

func (self *Builder) SetBlock(bb *BasicBlock) {
    self.bb = bb
    self.at = nil
}

/* SetInsertBefore redirects emission to the slot immediately before p in
 * its parent block. */
func (self *Builder) SetInsertBefore(p IrNode) {
    self.bb = p.Parent()
    self.at = p
}

func (self *Builder) emit(p IrNode) IrNode {
    if self.bb == nil {
        panic("wyvern: builder has no insertion block")
    }
    if self.at != nil {
        self.bb.InsertBefore(self.at, p)
    } else {
        self.bb.AddInstr(p)
    }
    return p
}

func (self *Builder) Alloca(t Type) *IrAlloca {
    p := &IrAlloca { E: t }
    p.nm = self.f.Temp()
    self.emit(p)
    return p
}

func (self *Builder) Load(mem Value) *IrLoad {
    p := &IrLoad { Mem: mem }
    p.nm = self.f.Temp()
    self.emit(p)
    return p
}

func (self *Builder) Store(v Value, mem Value) *IrStore {
    p := &IrStore { R: v, Mem: mem }
    p.nm = self.f.Temp()
    self.emit(p)
    return p
}

func (self *Builder) GEP(mem Value, off int64) *IrGEP {
    p := &IrGEP { Mem: mem, Off: off }
    p.nm = self.f.Temp()
    self.emit(p)
    return p
}

func (self *Builder) PtrToInt(v Value) *IrPtrToInt {
    p := &IrPtrToInt { V: v }
    p.nm = self.f.Temp()
    self.emit(p)
    return p
}

func (self *Builder) Unary(op IrUnaryOp, v Value) *IrUnaryExpr {
    p := &IrUnaryExpr { Op: op, V: v }
    p.nm = self.f.Temp()
    self.emit(p)
    return p
}

func (self *Builder) Binary(op IrBinaryOp, x Value, y Value) *IrBinaryExpr {
    p := &IrBinaryExpr { Op: op, X: x, Y: y }
    p.nm = self.f.Temp()
    self.emit(p)
    return p
}

func (self *Builder) Call(fn Value, in ...Value) *IrCall {
    p := &IrCall { Fn: fn, In: in }
    p.nm = self.f.Temp()
    self.emit(p)
    return p
}

/* Phi nodes always go to the block's Phi section regardless of the
 * current insertion point. */
func (self *Builder) Phi(t Type, edges ...PhiEdge) *IrPhi {
    p := &IrPhi { T: t, E: edges }
    p.nm = self.f.Temp()
    self.bb.AddPhi(p)
    return p
}

func (self *Builder) Jump(to *BasicBlock) *IrSwitch {
    self.bb.TermBranch(to)
    return self.bb.Term.(*IrSwitch)
}

func (self *Builder) CondBr(v Value, t *BasicBlock, f *BasicBlock) *IrSwitch {
    self.bb.TermCondition(v, t, f)
    return self.bb.Term.(*IrSwitch)
}

func (self *Builder) Switch(v Value, ln *BasicBlock, br map[int64]*BasicBlock) *IrSwitch {
    self.bb.SetTerm(&IrSwitch { V: v, Ln: ln, Br: br })
    return self.bb.Term.(*IrSwitch)
}

func (self *Builder) Ret(v Value) *IrReturn {
    self.bb.TermReturn(v)
    return self.bb.Term.(*IrReturn)
}

func (self *Builder) Unreachable() *IrUnreachable {
    self.bb.SetTerm(new(IrUnreachable))
    return self.bb.Term.(*IrUnreachable)
}

/* Rename attaches a meaningful name to a value-producing instruction, the
 * name shows up in disassembly and in generated thunk symbols. */
func Rename(p IrNode, nm string) {
    p.(interface{ setName(string) }).setName(nm)
}
