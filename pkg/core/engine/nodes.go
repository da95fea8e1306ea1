package engine

import (
	"context"
	"fmt"

	"github.com/LENAX/capability-tree/pkg/core/events"
	"github.com/LENAX/capability-tree/pkg/core/graph"
	"github.com/LENAX/capability-tree/pkg/core/validator"
	"github.com/LENAX/capability-tree/pkg/treefile"
)

// nodeMutation 在原始节点列表上做修改，返回新的列表
type nodeMutation func(nodes []any, index int) ([]any, error)

// AddNode 追加一个节点
// 节点ID重复、前置不存在等问题由校验报告
func (e *Engine) AddNode(ctx context.Context, treeID string, rawNode map[string]any) (*graph.ComputedTree, error) {
	nodeID, _ := rawNode[validator.FieldID].(string)
	return e.mutate(ctx, treeID, "", events.EventNodeAdded, nodeID, func(nodes []any, _ int) ([]any, error) {
		return append(nodes, treefile.MergeNode(rawNode, nil)), nil
	})
}

// UpdateNode 部分更新节点：patch中的键覆盖原值，值为null的键被清除
// patch 可以带 id，但必须与 nodeID 相同
func (e *Engine) UpdateNode(ctx context.Context, treeID, nodeID string, patch map[string]any) (*graph.ComputedTree, error) {
	if v, ok := patch[validator.FieldID]; ok && v != nil && v != nodeID {
		return nil, fmt.Errorf("%w: 节点 %s", ErrImmutableID, nodeID)
	}
	clean := make(map[string]any, len(patch))
	for k, v := range patch {
		if k != validator.FieldID {
			clean[k] = v
		}
	}

	return e.mutate(ctx, treeID, nodeID, events.EventNodeUpdated, nodeID, func(nodes []any, index int) ([]any, error) {
		base, _ := nodes[index].(map[string]any)
		nodes[index] = treefile.MergeNode(base, clean)
		return nodes, nil
	})
}

// RemoveNode 删除节点
// 仍被其他节点依赖时校验失败，树保持不变
func (e *Engine) RemoveNode(ctx context.Context, treeID, nodeID string) (*graph.ComputedTree, error) {
	return e.mutate(ctx, treeID, nodeID, events.EventNodeRemoved, nodeID, func(nodes []any, index int) ([]any, error) {
		return append(nodes[:index], nodes[index+1:]...), nil
	})
}

// mutate 树级锁内执行 读取 -> 修改 -> 校验 -> 保存
// target 非空时要求该节点存在，其下标传给 fn
func (e *Engine) mutate(ctx context.Context, treeID, target string, eventType events.EventType, nodeID string, fn nodeMutation) (*graph.ComputedTree, error) {
	unlock := e.lockTree(treeID)
	defer unlock()

	rec, err := e.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}

	index := -1
	if target != "" {
		index = rec.Tree.FindNode(target)
		if index < 0 {
			return nil, fmt.Errorf("%w: %s/%s", ErrNodeNotFound, treeID, target)
		}
	}

	raw := treefile.ToRaw(rec.Tree)
	nodes, err := fn(raw[validator.FieldNodes].([]any), index)
	if err != nil {
		return nil, err
	}
	raw[validator.FieldNodes] = nodes

	tree, err := validator.Validate(raw)
	if err != nil {
		return nil, err
	}

	return e.save(ctx, tree, events.NewTreeEvent(eventType, treeID, "").WithNode(nodeID))
}
