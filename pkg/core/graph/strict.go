package graph

import (
	"fmt"
	"sort"

	"github.com/begmaroman/go-dag"

	"github.com/LENAX/capability-tree/pkg/core/types"
)

// vertex 实现 go-dag 的 Identifiable 接口
type vertex struct {
	id string
}

// ID 实现 Identifiable 接口
func (v *vertex) ID() string {
	return v.id
}

// EdgeError 严格模式下无法加入DAG的前置边
type EdgeError struct {
	From string // 前置节点
	To   string // 依赖方节点
	Err  error
}

// Error 实现error接口
func (e *EdgeError) Error() string {
	return fmt.Sprintf("prerequisite edge %s -> %s closes a cycle: %v", e.From, e.To, e.Err)
}

// Unwrap 返回底层错误
func (e *EdgeError) Unwrap() error {
	return e.Err
}

var errSelfReference = fmt.Errorf("node lists itself as a prerequisite")

// CheckAcyclic 严格模式：使用 go-dag 构建图，拒绝任何闭环的边
// 成功时返回根节点ID（排序）。Compute 的软告警策略不受影响
func CheckAcyclic(tree *types.Tree) ([]string, error) {
	d := dag.NewDAG[*vertex]()
	for i := range tree.Nodes {
		if _, err := d.AddVertex(&vertex{id: tree.Nodes[i].ID}); err != nil {
			return nil, fmt.Errorf("添加节点失败: %s: %w", tree.Nodes[i].ID, err)
		}
	}

	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		seen := make(map[string]bool, len(n.Prerequisites))
		for _, p := range n.Prerequisites {
			if seen[p] {
				continue
			}
			seen[p] = true
			if p == n.ID {
				return nil, &EdgeError{From: p, To: n.ID, Err: errSelfReference}
			}
			// 添加边：前置 -> 依赖方
			if err := d.AddEdge(p, n.ID); err != nil {
				return nil, &EdgeError{From: p, To: n.ID, Err: err}
			}
		}
	}

	roots := make([]string, 0)
	for id := range d.GetRoots() {
		roots = append(roots, id)
	}
	sort.Strings(roots)
	return roots, nil
}
