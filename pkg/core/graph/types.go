package graph

import (
	"encoding/json"
	"sort"

	"github.com/LENAX/capability-tree/pkg/core/types"
)

// ComputedNode 带有派生信息的节点
type ComputedNode struct {
	types.Node   `yaml:",inline"`
	ComputedTier int      `json:"computed_tier" yaml:"computed_tier"`
	Dependents   []string `json:"dependents" yaml:"dependents"` // 反向邻接，永不为nil
}

// ComputedTree 计算结果，每次读取或变更后整体重算，不做持久化
type ComputedTree struct {
	ID                    string                  `json:"id"`
	Name                  string                  `json:"name"`
	Description           string                  `json:"description,omitempty"`
	Nodes                 []*ComputedNode         `json:"nodes"`
	Tiers                 map[int][]*ComputedNode `json:"-"` // 层级 -> 节点，只包含实际出现的层级
	TotalEffortPoints     int                     `json:"total_effort_points"`
	CompletedEffortPoints int                     `json:"completed_effort_points"`
	Warnings              []string                `json:"warnings,omitempty"`

	index map[string]int
}

// Edge 前置 -> 依赖方 的有向边，供渲染层使用
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Progress 进度汇总
type Progress struct {
	TotalNodes      int     `json:"total_nodes"`
	CompletedNodes  int     `json:"completed_nodes"`
	InProgressNodes int     `json:"in_progress_nodes"`
	BlockedNodes    int     `json:"blocked_nodes"`
	TotalEffort     int     `json:"total_effort"`
	CompletedEffort int     `json:"completed_effort"`
	Percent         float64 `json:"percent"` // 有工作量时按工作量计算，否则按节点数
}

// IDSet 节点ID集合
type IDSet map[string]struct{}

// Has 是否包含id
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len 集合大小
func (s IDSet) Len() int {
	return len(s)
}

// Sorted 返回排序后的ID列表
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON 以排序数组形式输出
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// MarshalJSON 输出时附带 tiers（层级 -> 节点ID 列表）与 edges
func (t *ComputedTree) MarshalJSON() ([]byte, error) {
	type plain ComputedTree
	tiers := make(map[int][]string, len(t.Tiers))
	for tier, nodes := range t.Tiers {
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}
		tiers[tier] = ids
	}
	return json.Marshal(struct {
		*plain
		Tiers map[int][]string `json:"tiers"`
		Edges []Edge           `json:"edges"`
	}{plain: (*plain)(t), Tiers: tiers, Edges: t.Edges()})
}
