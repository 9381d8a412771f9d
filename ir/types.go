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

type Type interface {
    fmt.Stringer
    irtype()
}

func (*VoidType)   irtype() {}
func (*IntType)    irtype() {}
func (*PtrType)    irtype() {}
func (*FuncType)   irtype() {}
func (*StructType) irtype() {}

type VoidType struct{}

func (self *VoidType) String() string {
    return "void"
}

type IntType struct {
    Bits uint8
}

func (self *IntType) String() string {
    return fmt.Sprintf("i%d", self.Bits)
}

type PtrType struct {
    Elem Type
}

func (self *PtrType) String() string {
    return self.Elem.String() + "*"
}

type FuncType struct {
    Ret Type
    In  []Type
}

func (self *FuncType) String() string {
    nb := len(self.In)
    in := make([]string, 0, nb)

    /* add every parameter type */
    for _, t := range self.In {
        in = append(in, t.String())
    }

    /* join them together */
    return fmt.Sprintf(
        "%s (%s)",
        self.Ret,
        strings.Join(in, ", "),
    )
}

/* StructType is identified by name, the field list is mutable so that
 * self-referential layouts can be tied after creation. */
type StructType struct {
    Name   string
    Fields []Type
}

func (self *StructType) String() string {
    return "%" + self.Name
}

func (self *StructType) NumFields() int {
    return len(self.Fields)
}

/* commonly used type singletons */
var (
    Void = &VoidType {}
    I1   = &IntType { Bits: 1 }
    I8   = &IntType { Bits: 8 }
    I32  = &IntType { Bits: 32 }
    I64  = &IntType { Bits: 64 }
)

func PointerTo(t Type) *PtrType {
    return &PtrType { Elem: t }
}

func isPointer(t Type) bool {
    _, ok := t.(*PtrType)
    return ok
}
