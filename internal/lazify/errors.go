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

// NotLazifiableError is reported when the selected call argument is not
// produced by an instruction of the caller, so there is nothing to slice.
type NotLazifiableError struct {
    Call     *ir.IrCall
    ArgIndex int
}

func (self NotLazifiableError) Error() string {
    return fmt.Sprintf("NotLazifiable(%s#%d): argument is not produced by an instruction", self.Call.Fn.Name(), self.ArgIndex)
}

// NotOutlineableError is reported when the slice of a candidate value
// cannot legally be outlined into a thunk; Reason names the failed check.
type NotOutlineableError struct {
    Reason string
    Value  string
}

func (self NotOutlineableError) Error() string {
    if self.Value == "" {
        return fmt.Sprintf("NotOutlineable: %s", self.Reason)
    } else {
        return fmt.Sprintf("NotOutlineable(%s): %s", self.Value, self.Reason)
    }
}

func reject(reason string, v ir.Value) error {
    ret := NotOutlineableError { Reason: reason }
    if v != nil {
        ret.Value = v.Name()
    }
    return ret
}
