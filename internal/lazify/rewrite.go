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

    `github.com/lac-dcc/wyvern/internal/opts`
    `github.com/lac-dcc/wyvern/ir`
)

/* cloneCallee copies the callee with the lazified parameter retyped to a
 * thunk record pointer, and rewrites every use of that parameter into a
 * forcing call. The clone's symbol carries the callee name and the
 * argument index; repeated clones of the same pair get a numeric suffix. */
func cloneCallee(m *ir.Module, callee *ir.Func, index int, recPtr *ir.PtrType, memo bool) *ir.Func {
    in := make([]ir.Type, len(callee.Ty.In))
    copy(in, callee.Ty.In)
    in[index] = recPtr

    /* best-effort stable name */
    name := fmt.Sprintf("_wyvern_calleeclone_%s_%d", callee.Nm, index)
    for n := 1; m.GetFunc(name) != nil; n++ {
        name = fmt.Sprintf("_wyvern_calleeclone_%s_%d_%d", callee.Nm, index, n)
    }

    dst, _ := ir.CloneFunc(m, callee, name, &ir.FuncType { Ret: callee.Ty.Ret, In: in })
    thunkArg := dst.In[index]
    thunkArg.Nm = "_wyvern_thunkptr"

    if memo {
        updateMemoizedThunkArgUses(dst, thunkArg)
    } else {
        updateThunkArgUses(dst, thunkArg)
    }
    return dst
}

/* forceThunk emits the forcing sequence immediately before the user: take
 * the address of the function-pointer slot, load it, and call it with the
 * record as its sole argument. */
func forceThunk(b *ir.Builder, user ir.IrNode, arg *ir.Param) *ir.IrCall {
    b.SetInsertBefore(user)
    addr := b.GEP(arg, _F_fnptr)
    ir.Rename(addr, "_wyvern_thunk_fptr_addr")
    fptr := b.Load(addr)
    ir.Rename(fptr, "_wyvern_thunk_fptr")
    call := b.Call(fptr, arg)
    ir.Rename(call, "_wyvern_thunk_call")
    return call
}

/* updateThunkArgUses implements call-by-name forcing: one call per using
 * instruction, shared by all of that instruction's uses of the parameter. */
func updateThunkArgUses(fn *ir.Func, arg *ir.Param) {
    b := ir.NewBuilder(fn)
    users := fn.UsersOf(arg)
    calls := make(map[ir.IrNode]*ir.IrCall, len(users))

    /* materialize one forcing call in front of every user */
    for _, user := range users {
        calls[user] = forceThunk(b, user, arg)
    }

    /* route the original uses through the calls, the forcing sequences
     * themselves keep their record-pointer operands */
    for _, user := range users {
        call := calls[user]
        for _, op := range user.Operands() {
            if *op == ir.Value(arg) {
                *op = call
            }
        }
    }
}

/* updateMemoizedThunkArgUses implements call-by-need forcing: one call per
 * use; the memoization test inside the thunk body makes the duplication
 * cheap. */
func updateMemoizedThunkArgUses(fn *ir.Func, arg *ir.Param) {
    b := ir.NewBuilder(fn)
    users := fn.UsersOf(arg)

    for _, user := range users {
        for _, op := range user.Operands() {
            if *op == ir.Value(arg) {
                *op = forceThunk(b, user, arg)
            }
        }
    }
}

/* lazifyCallsite applies the whole transformation to one candidate: slice,
 * validate, outline, clone the callee, materialize the record, and swap
 * the call. Any failure leaves the module untouched. */
func lazifyCallsite(m *ir.Module, ci *ir.IrCall, index int, o opts.Options) error {
    if index < 0 || index >= len(ci.In) {
        return NotLazifiableError { Call: ci, ArgIndex: index }
    }

    /* the argument must be computed by a caller instruction */
    initial, ok := ci.In[index].(ir.IrNode)
    if !ok {
        return NotLazifiableError { Call: ci, ArgIndex: index }
    }

    callee, ok := ci.Fn.(*ir.Func)
    if !ok {
        return NotLazifiableError { Call: ci, ArgIndex: index }
    }

    /* slice and validate */
    caller := ci.Parent().Func()
    cfg := ir.BuildCFG(caller)
    slice := newProgramSlice(initial, caller, ci, cfg)
    if err := slice.canOutline(); err != nil {
        return err
    }

    /* outline the thunk body */
    thunk, st, err := slice.outline(o.Memoization, o.Nonce())
    if err != nil {
        return err
    }

    debugf("lazifying %s in func %s, call to %s", initial.Name(), caller.Name(), callee.Name())

    /* clone the callee with forcing rewrites */
    recPtr := ir.PointerTo(st)
    newCallee := cloneCallee(m, callee, index, recPtr, o.Memoization)

    /* materialize the thunk record on the caller's stack right before the
     * call: function pointer first, a cleared flag in memo mode, then the
     * captured arguments in slot order */
    b := ir.NewBuilder(caller)
    b.SetInsertBefore(ci)
    rec := b.Alloca(st)
    ir.Rename(rec, "_wyvern_thunk_alloca")
    fptrAddr := b.GEP(rec, _F_fnptr)
    ir.Rename(fptrAddr, "_wyvern_thunk_fptr_addr")
    b.Store(thunk, fptrAddr)
    if o.Memoization {
        flagAddr := b.GEP(rec, _F_memoflag)
        ir.Rename(flagAddr, "_wyvern_thunk_flag_addr")
        b.Store(ir.Int(ir.I1, 0), flagAddr)
    }
    base := capturedBase(o.Memoization)
    for i, arg := range slice.depArgs {
        slot := b.GEP(rec, base + int64(i))
        ir.Rename(slot, "_wyvern_thunk_arg_" + arg.Nm)
        b.Store(arg, slot)
    }

    /* swap the call site */
    ci.Fn = newCallee
    ci.In[index] = rec

    /* statistics */
    updateSliceStats(caller, initial, slice.size(thunk))
    return nil
}
