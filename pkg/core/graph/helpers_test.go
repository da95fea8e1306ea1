package graph

import (
	"fmt"
	"math/rand"

	"github.com/LENAX/capability-tree/pkg/core/types"
)

func node(id string, prereqs ...string) types.Node {
	return types.Node{ID: id, Name: "Node " + id, Status: types.StatusPlanned, Prerequisites: prereqs}
}

func withStatus(n types.Node, s types.Status) types.Node {
	n.Status = s
	return n
}

func withEffort(n types.Node, e int) types.Node {
	n.EffortPoints = types.IntPtr(e)
	return n
}

func withTier(n types.Node, t int) types.Node {
	n.ExplicitTier = types.IntPtr(t)
	return n
}

func tree(nodes ...types.Node) *types.Tree {
	return &types.Tree{ID: "t", Name: "test", Nodes: nodes}
}

// randomDAG 生成随机无环树：节点只依赖下标更小的节点，并打乱顺序
func randomDAG(r *rand.Rand, n int) *types.Tree {
	nodes := make([]types.Node, n)
	for i := 0; i < n; i++ {
		nodes[i] = node(fmt.Sprintf("n%d", i))
		for j := 0; j < i; j++ {
			if r.Float32() < 0.3 {
				nodes[i].Prerequisites = append(nodes[i].Prerequisites, nodes[j].ID)
			}
		}
		if r.Float32() < 0.5 {
			nodes[i].EffortPoints = types.IntPtr(r.Intn(10))
		}
		nodes[i].Status = types.AllStatuses()[r.Intn(4)]
	}
	r.Shuffle(len(nodes), func(a, b int) { nodes[a], nodes[b] = nodes[b], nodes[a] })
	return tree(nodes...)
}
