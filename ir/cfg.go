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

/* CFG carries the per-function analysis results that the slicer reads many
 * times per candidate: predecessor lists, both dominator trees and the loop
 * depth of every block. It must be rebuilt after the function is mutated. */
type CFG struct {
    Func            *Func
    Root            *BasicBlock
    Depth           map[int]int
    DominatedBy     map[int]*BasicBlock
    DominatorOf     map[int][]*BasicBlock
    PostDominatedBy map[int]*BasicBlock
    PostDominatorOf map[int][]*BasicBlock
}

func BuildCFG(fn *Func) *CFG {
    ret := &CFG { Func: fn }
    ret.Rebuild()
    return ret
}

func (self *CFG) Rebuild() {
    fn := self.Func
    self.Root = fn.Entry()

    /* reset the predecessor lists */
    for _, bb := range fn.Blocks {
        bb.Pred = nil
    }

    /* link every terminator target back to its source, each edge once */
    for _, bb := range fn.Blocks {
        seen := make(map[int]struct{})
        for _, to := range bb.successors() {
            if _, ok := seen[to.Id]; !ok {
                seen[to.Id] = struct{}{}
                to.Pred = append(to.Pred, bb)
            }
        }
    }

    /* dominators, post-dominators, and loop depths */
    self.DominatedBy, self.DominatorOf = buildDominatorTree(self.Root)
    self.PostDominatedBy, self.PostDominatorOf = buildPostDominatorTree(fn)
    self.Depth = buildLoopDepth(fn)
}

/* Dominates reports whether a dominates b, every block dominates itself. */
func (self *CFG) Dominates(a *BasicBlock, b *BasicBlock) bool {
    for b != nil {
        if a == b {
            return true
        }
        b = self.DominatedBy[b.Id]
    }
    return false
}

/* PostDominates reports whether a post-dominates b. */
func (self *CFG) PostDominates(a *BasicBlock, b *BasicBlock) bool {
    for b != nil {
        if a == b {
            return true
        }
        b = self.PostDominatedBy[b.Id]
    }
    return false
}

/* LoopDepth returns the loop nesting depth of bb, blocks outside any loop
 * are at depth zero. */
func (self *CFG) LoopDepth(bb *BasicBlock) int {
    return self.Depth[bb.Id]
}
