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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 *
 *  The same machinery computes both dominator trees: the post-dominator
 *  tree is the dominator tree of the edge-reversed graph rooted at a
 *  virtual exit that fans out to every returning or trapping block.
 */

package ir

type _LtNode struct {
    semi     int
    node     *BasicBlock
    dom      *_LtNode
    label    *_LtNode
    parent   *_LtNode
    ancestor *_LtNode
    pred     []*_LtNode
    bucket   map[*_LtNode]struct{}
}

type _LengauerTarjan struct {
    succ   func(*BasicBlock) []*BasicBlock
    nodes  []*_LtNode
    vertex map[int]int
}

func newLengauerTarjan(succ func(*BasicBlock) []*BasicBlock) *_LengauerTarjan {
    return &_LengauerTarjan {
        succ   : succ,
        vertex : make(map[int]int),
    }
}

func (self *_LengauerTarjan) dfs(bb *BasicBlock) {
    i := len(self.nodes)
    self.vertex[bb.Id] = i

    /* create a new node */
    p := &_LtNode {
        semi   : i,
        node   : bb,
        bucket : make(map[*_LtNode]struct{}),
    }

    /* add to node list */
    p.label = p
    self.nodes = append(self.nodes, p)

    /* traverse the successors */
    for _, w := range self.succ(bb) {
        idx, ok := self.vertex[w.Id]

        /* not visited yet */
        if !ok {
            self.dfs(w)
            idx = self.vertex[w.Id]
            self.nodes[idx].parent = p
        }

        /* add predecessors */
        q := self.nodes[idx]
        q.pred = append(q.pred, p)
    }
}

func (self *_LengauerTarjan) eval(p *_LtNode) *_LtNode {
    if p.ancestor == nil {
        return p
    } else {
        self.compress(p)
        return p.label
    }
}

func (self *_LengauerTarjan) link(p *_LtNode, q *_LtNode) {
    q.ancestor = p
}

func (self *_LengauerTarjan) compress(p *_LtNode) {
    if p.ancestor.ancestor != nil {
        self.compress(p.ancestor)
        if p.label.semi > p.ancestor.label.semi { p.label = p.ancestor.label }
        p.ancestor = p.ancestor.ancestor
    }
}

func minInt(a int, b int) int {
    if a < b {
        return a
    } else {
        return b
    }
}

func (self *_LengauerTarjan) build(root *BasicBlock) (map[int]*BasicBlock, map[int][]*BasicBlock) {
    domby := make(map[int]*BasicBlock)
    domof := make(map[int][]*BasicBlock)

    /* Step 1: Carry out a depth-first search of the problem graph. Number the vertices
     * from 1 to n as they are reached during the search. Initialize the variables used
     * in succeeding steps. */
    self.dfs(root)

    /* perform Step 2 and Step 3 simultaneously */
    for i := len(self.nodes) - 1; i > 0; i-- {
        p := self.nodes[i]
        q := (*_LtNode)(nil)

        /* Step 2: Compute the semidominators of all vertices by applying Theorem 4.
         * Carry out the computation vertex by vertex in decreasing order by number. */
        for _, v := range p.pred {
            q = self.eval(v)
            p.semi = minInt(p.semi, q.semi)
        }

        /* link the ancestor */
        self.link(p.parent, p)
        self.nodes[p.semi].bucket[p] = struct{}{}

        /* Step 3: Implicitly define the immediate dominator of each vertex by applying Corollary 1 */
        for v := range p.parent.bucket {
            if q = self.eval(v); q.semi < v.semi {
                v.dom = q
            } else {
                v.dom = p.parent
            }
        }

        /* clear the bucket */
        for v := range p.parent.bucket {
            delete(p.parent.bucket, v)
        }
    }

    /* Step 4: Explicitly define the immediate dominator of each vertex, carrying out the
     * computation vertex by vertex in increasing order by number. */
    for _, p := range self.nodes[1:] {
        if p.dom.node.Id != self.nodes[p.semi].node.Id {
            p.dom = p.dom.dom
        }
    }

    /* map the dominator relations */
    for _, p := range self.nodes[1:] {
        domby[p.node.Id] = p.dom.node
        domof[p.dom.node.Id] = append(domof[p.dom.node.Id], p.node)
    }
    return domby, domof
}

func buildDominatorTree(root *BasicBlock) (map[int]*BasicBlock, map[int][]*BasicBlock) {
    lt := newLengauerTarjan(func(bb *BasicBlock) []*BasicBlock {
        return bb.successors()
    })
    return lt.build(root)
}

/* virtual exit used to root the post-dominator tree, it never appears in
 * the resulting maps. */
const _VirtualExit = -1

func buildPostDominatorTree(fn *Func) (map[int]*BasicBlock, map[int][]*BasicBlock) {
    exit := &BasicBlock { Id: _VirtualExit }
    exits := make([]*BasicBlock, 0, 1)

    /* every returning or trapping block flows into the virtual exit */
    for _, bb := range fn.Blocks {
        switch bb.Term.(type) {
            case *IrReturn      : exits = append(exits, bb)
            case *IrUnreachable : exits = append(exits, bb)
        }
    }

    /* walk the reversed edges */
    lt := newLengauerTarjan(func(bb *BasicBlock) []*BasicBlock {
        if bb == exit {
            return exits
        } else {
            return bb.Pred
        }
    })

    /* drop the virtual exit from the result */
    domby, domof := lt.build(exit)
    for id, bb := range domby {
        if bb == exit {
            delete(domby, id)
        }
    }
    delete(domof, _VirtualExit)
    return domby, domof
}
