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
    `sort`

    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/topo`
)

/* buildLoopDepth computes the loop nesting depth of every block by peeling
 * strongly connected components: each non-trivial SCC is a loop, its members
 * gain one level, then the component minus its header is searched again for
 * inner loops. */
func buildLoopDepth(fn *Func) map[int]int {
    depth := make(map[int]int, len(fn.Blocks))
    edges := make(map[int][]int, len(fn.Blocks))
    selfs := make(map[int]bool)
    ids := make(map[int]struct{}, len(fn.Blocks))

    /* extract the edge lists, self-loops are tracked separately since they
     * are single-block loops in their own right */
    for _, bb := range fn.Blocks {
        ids[bb.Id] = struct{}{}
        depth[bb.Id] = 0
        seen := make(map[int]struct{})
        for _, to := range bb.successors() {
            if to.Id == bb.Id {
                selfs[bb.Id] = true
            } else if _, ok := seen[to.Id]; !ok {
                seen[to.Id] = struct{}{}
                edges[bb.Id] = append(edges[bb.Id], to.Id)
            }
        }
    }

    markLoops(ids, edges, selfs, depth, 0)
    return depth
}

func markLoops(ids map[int]struct{}, edges map[int][]int, selfs map[int]bool, depth map[int]int, d int) {
    g := simple.NewDirectedGraph()

    /* mirror the current subgraph into gonum */
    for id := range ids {
        g.AddNode(simple.Node(id))
    }
    for from, tos := range edges {
        if _, ok := ids[from]; !ok {
            continue
        }
        for _, to := range tos {
            if _, ok := ids[to]; ok {
                g.SetEdge(simple.Edge { F: simple.Node(from), T: simple.Node(to) })
            }
        }
    }

    /* non-trivial SCCs are loops */
    looped := make(map[int]bool)
    for _, scc := range topo.TarjanSCC(g) {
        if len(scc) < 2 {
            continue
        }

        /* bump every member one level */
        members := make(map[int]struct{}, len(scc))
        for _, n := range scc {
            id := int(n.ID())
            members[id] = struct{}{}
            looped[id] = true
            depth[id] = d + 1
        }

        /* search the component minus its header for inner loops */
        hd := loopHeader(members, edges, selfs)
        delete(members, hd)
        markLoops(members, edges, selfs, depth, d + 1)
    }

    /* a self-looping block outside any larger SCC is a loop of its own */
    for id := range ids {
        if selfs[id] && !looped[id] {
            depth[id] = d + 1
        }
    }
}

/* loopHeader picks the component member with an incoming edge from outside
 * the component, preferring blocks without self-loops so their single-block
 * inner loops survive the peel; falls back to the lowest block ID. */
func loopHeader(members map[int]struct{}, edges map[int][]int, selfs map[int]bool) int {
    entries := make([]int, 0, len(members))
    for from, tos := range edges {
        if _, ok := members[from]; ok {
            continue
        }
        for _, to := range tos {
            if _, ok := members[to]; ok {
                entries = append(entries, to)
            }
        }
    }
    sort.Ints(entries)

    /* prefer an entry that does not carry its own self-loop */
    for _, id := range entries {
        if !selfs[id] {
            return id
        }
    }
    if len(entries) != 0 {
        return entries[0]
    }

    /* unreachable loops have no entry edge, fall back to the lowest ID */
    min := -1
    for id := range members {
        if min < 0 || id < min {
            min = id
        }
    }
    return min
}
