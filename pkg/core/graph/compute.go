// Package graph 能力树的层级计算与遍历查询
//
// 计算使用扁平节点表加下标索引（arena），避免指针密集的图结构；
// 层级解析为显式栈的迭代DFS，图规模再大也不会受递归深度限制。
package graph

import (
	"fmt"
	"strings"

	"github.com/LENAX/capability-tree/pkg/core/types"
)

const (
	stateUnvisited uint8 = iota
	stateInProgress
	stateDone
)

// frame DFS显式栈帧
type frame struct {
	idx  int // 节点下标
	next int // 下一个待处理的前置位置
	max  int // 已解析前置中的最大层级
}

// computer 单次计算的工作区
type computer struct {
	nodes    []types.Node
	index    map[string]int
	prereqs  [][]int // 前置下标（忽略无法解析的ID）
	tier     []int
	state    []uint8
	pos      []int // 处于解析中的节点在栈中的位置
	cyclic   []bool
	warnings []string
}

// Compute 计算整棵树的层级、依赖方与汇总统计
// 假定输入已通过validator，不会失败；循环依赖以告警形式记录在Warnings中
func Compute(tree *types.Tree) *ComputedTree {
	c := newComputer(tree.Nodes)
	for i := range c.nodes {
		c.resolve(i)
	}

	out := &ComputedTree{
		ID:          tree.ID,
		Name:        tree.Name,
		Description: tree.Description,
		Nodes:       make([]*ComputedNode, len(tree.Nodes)),
		Tiers:       make(map[int][]*ComputedNode),
		Warnings:    c.warnings,
		index:       c.index,
	}

	for i := range tree.Nodes {
		out.Nodes[i] = &ComputedNode{
			Node:         tree.Nodes[i].Clone(),
			ComputedTier: c.tier[i],
			Dependents:   []string{},
		}
	}

	// 反向邻接：单次遍历，依赖方按树中顺序排列
	for i, n := range out.Nodes {
		for _, p := range c.prereqs[i] {
			dep := out.Nodes[p]
			if !containsString(dep.Dependents, n.ID) {
				dep.Dependents = append(dep.Dependents, n.ID)
			}
		}
	}

	for _, n := range out.Nodes {
		effort := n.Effort()
		out.TotalEffortPoints += effort
		if n.Status.IsDone() {
			out.CompletedEffortPoints += effort
		}
		out.Tiers[n.ComputedTier] = append(out.Tiers[n.ComputedTier], n)
	}

	return out
}

func newComputer(nodes []types.Node) *computer {
	c := &computer{
		nodes:   nodes,
		index:   make(map[string]int, len(nodes)),
		prereqs: make([][]int, len(nodes)),
		tier:    make([]int, len(nodes)),
		state:   make([]uint8, len(nodes)),
		pos:     make([]int, len(nodes)),
		cyclic:  make([]bool, len(nodes)),
	}
	for i := range nodes {
		// 重复ID以首次出现为准
		if _, ok := c.index[nodes[i].ID]; !ok {
			c.index[nodes[i].ID] = i
		}
	}
	for i := range nodes {
		for _, id := range nodes[i].Prerequisites {
			if p, ok := c.index[id]; ok {
				c.prereqs[i] = append(c.prereqs[i], p)
			}
		}
	}
	return c
}

// settleExplicit 显式层级节点是递归的叶子，不查看其前置
func (c *computer) settleExplicit(i int) bool {
	if !c.nodes[i].HasExplicitTier() {
		return false
	}
	c.tier[i] = *c.nodes[i].ExplicitTier
	c.state[i] = stateDone
	return true
}

// resolve 迭代解析节点i及其所有未解析的前置
func (c *computer) resolve(start int) {
	if c.state[start] == stateDone || c.settleExplicit(start) {
		return
	}

	c.state[start] = stateInProgress
	c.pos[start] = 0
	stack := []frame{{idx: start}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.next < len(c.prereqs[top.idx]) {
			p := c.prereqs[top.idx][top.next]
			top.next++

			switch c.state[p] {
			case stateDone:
				top.max = max(top.max, c.tier[p])
			case stateInProgress:
				// 回到正在解析的节点：记录告警，该路径上把闭环节点的层级视为1
				c.breakCycle(stack, p)
				top.max = max(top.max, 1)
			default:
				if c.settleExplicit(p) {
					top.max = max(top.max, c.tier[p])
					continue
				}
				c.state[p] = stateInProgress
				c.pos[p] = len(stack)
				stack = append(stack, frame{idx: p})
			}
			continue
		}

		t := top.max + 1
		if c.cyclic[top.idx] {
			t = 1
		}
		c.tier[top.idx] = t
		c.state[top.idx] = stateDone
		stack = stack[:len(stack)-1]
	}
}

// breakCycle 将栈中从p到栈顶的节点标记为环上节点，并记录告警
func (c *computer) breakCycle(stack []frame, p int) {
	path := make([]string, 0, len(stack)-c.pos[p]+1)
	for _, f := range stack[c.pos[p]:] {
		c.cyclic[f.idx] = true
		path = append(path, c.nodes[f.idx].ID)
	}
	path = append(path, c.nodes[p].ID)
	c.warnings = append(c.warnings, fmt.Sprintf(
		"prerequisite cycle detected: %s; tier of %d node(s) forced to 1",
		strings.Join(path, " -> "), len(path)-1,
	))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
