package graph

import (
	"github.com/LENAX/capability-tree/pkg/core/types"
)

// Node 按ID查找计算后的节点
func (t *ComputedTree) Node(id string) (*ComputedNode, bool) {
	i, ok := t.lookup(id)
	if !ok {
		return nil, false
	}
	return t.Nodes[i], true
}

// TierOf 返回节点层级，节点不存在返回0
func (t *ComputedTree) TierOf(id string) int {
	if n, ok := t.Node(id); ok {
		return n.ComputedTier
	}
	return 0
}

// MaxTier 最大层级
func (t *ComputedTree) MaxTier() int {
	m := 0
	for tier := range t.Tiers {
		m = max(m, tier)
	}
	return m
}

// TierIDs 层级 -> 节点ID列表（树中顺序）
func (t *ComputedTree) TierIDs() map[int][]string {
	out := make(map[int][]string, len(t.Tiers))
	for tier, nodes := range t.Tiers {
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}
		out[tier] = ids
	}
	return out
}

// CanStart 节点的全部前置都已完成时返回true；节点不存在时返回false
func (t *ComputedTree) CanStart(id string) bool {
	n, ok := t.Node(id)
	if !ok {
		return false
	}
	return t.prerequisitesDone(n)
}

// ReadyNodes 未完成且未进行中、且所有前置已完成的节点，按树中顺序
func (t *ComputedTree) ReadyNodes() []*ComputedNode {
	ready := make([]*ComputedNode, 0)
	for _, n := range t.Nodes {
		if n.Status.IsActive() {
			continue
		}
		if t.prerequisitesDone(n) {
			ready = append(ready, n)
		}
	}
	return ready
}

func (t *ComputedTree) prerequisitesDone(n *ComputedNode) bool {
	for _, id := range n.Prerequisites {
		p, ok := t.Node(id)
		if !ok || !p.Status.IsDone() {
			return false
		}
	}
	return true
}

// Ancestors 沿前置边的传递闭包；未知ID返回空集合
// 图中有环时同样会终止（起点位于环上时会出现在结果中）
func (t *ComputedTree) Ancestors(id string) IDSet {
	return t.walk(id, func(n *ComputedNode) []string { return n.Prerequisites })
}

// Descendants 沿依赖方边的传递闭包；未知ID返回空集合
func (t *ComputedTree) Descendants(id string) IDSet {
	return t.walk(id, func(n *ComputedNode) []string { return n.Dependents })
}

// walk 基于visited集合的迭代BFS，步数不超过节点数
func (t *ComputedTree) walk(id string, next func(*ComputedNode) []string) IDSet {
	visited := make(IDSet)
	start, ok := t.Node(id)
	if !ok {
		return visited
	}
	queue := []*ComputedNode{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nid := range next(cur) {
			if visited.Has(nid) {
				continue
			}
			n, ok := t.Node(nid)
			if !ok {
				continue
			}
			visited[nid] = struct{}{}
			queue = append(queue, n)
		}
	}
	return visited
}

// Roots 没有前置的节点ID
func (t *ComputedTree) Roots() []string {
	out := make([]string, 0)
	for _, n := range t.Nodes {
		if len(n.Prerequisites) == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// Leaves 没有依赖方的节点ID
func (t *ComputedTree) Leaves() []string {
	out := make([]string, 0)
	for _, n := range t.Nodes {
		if len(n.Dependents) == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// Edges 前置 -> 依赖方 的全部边，按依赖方在树中的顺序
func (t *ComputedTree) Edges() []Edge {
	edges := make([]Edge, 0)
	for _, n := range t.Nodes {
		seen := make(map[string]bool, len(n.Prerequisites))
		for _, p := range n.Prerequisites {
			if seen[p] {
				continue
			}
			seen[p] = true
			if _, ok := t.lookup(p); ok {
				edges = append(edges, Edge{From: p, To: n.ID})
			}
		}
	}
	return edges
}

// Progress 进度汇总
func (t *ComputedTree) Progress() Progress {
	p := Progress{
		TotalNodes:      len(t.Nodes),
		TotalEffort:     t.TotalEffortPoints,
		CompletedEffort: t.CompletedEffortPoints,
	}
	for _, n := range t.Nodes {
		switch n.Status {
		case types.StatusCompleted:
			p.CompletedNodes++
		case types.StatusInProgress:
			p.InProgressNodes++
		case types.StatusBlocked:
			p.BlockedNodes++
		}
	}
	switch {
	case p.TotalEffort > 0:
		p.Percent = float64(p.CompletedEffort) * 100 / float64(p.TotalEffort)
	case p.TotalNodes > 0:
		p.Percent = float64(p.CompletedNodes) * 100 / float64(p.TotalNodes)
	}
	return p
}

// ToTree 去除计算字段，还原为持久化形态
func (t *ComputedTree) ToTree() *types.Tree {
	tree := &types.Tree{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Nodes:       make([]types.Node, len(t.Nodes)),
	}
	for i, n := range t.Nodes {
		tree.Nodes[i] = n.Node.Clone()
	}
	return tree
}

func (t *ComputedTree) lookup(id string) (int, bool) {
	if t.index == nil {
		t.index = make(map[string]int, len(t.Nodes))
		for i, n := range t.Nodes {
			if _, ok := t.index[n.ID]; !ok {
				t.index[n.ID] = i
			}
		}
	}
	i, ok := t.index[id]
	return i, ok
}
