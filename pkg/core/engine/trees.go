package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/LENAX/capability-tree/pkg/core/events"
	"github.com/LENAX/capability-tree/pkg/core/graph"
	"github.com/LENAX/capability-tree/pkg/core/validator"
	"github.com/LENAX/capability-tree/pkg/storage"
	"github.com/LENAX/capability-tree/pkg/treefile"
)

// ListTrees 列出全部树摘要
func (e *Engine) ListTrees(ctx context.Context) ([]*storage.TreeSummary, error) {
	summaries, err := e.repo.ListTrees(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询树列表失败: %w", err)
	}
	return summaries, nil
}

// GetTree 获取持久化形态的树
func (e *Engine) GetTree(ctx context.Context, id string) (*storage.TreeRecord, error) {
	rec, err := e.repo.GetTree(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询树失败: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrTreeNotFound, id)
	}
	return rec, nil
}

// GetComputed 获取计算后的树，同一修订只计算一次
func (e *Engine) GetComputed(ctx context.Context, id string) (*graph.ComputedTree, error) {
	rec, err := e.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.compute(rec), nil
}

// CheckTree 严格模式检查：有环时返回首条闭合环的边，无环时返回根节点
func (e *Engine) CheckTree(ctx context.Context, id string) ([]string, error) {
	rec, err := e.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}
	return graph.CheckAcyclic(rec.Tree)
}

// CreateTree 由原始文档创建一棵新树
// 文档未提供id时自动生成
func (e *Engine) CreateTree(ctx context.Context, raw map[string]any) (*graph.ComputedTree, error) {
	doc := copyDocument(raw)
	if id, ok := doc[validator.FieldID]; !ok || id == nil || id == "" {
		doc[validator.FieldID] = uuid.NewString()
	}

	tree, err := validator.Validate(doc)
	if err != nil {
		return nil, err
	}

	unlock := e.lockTree(tree.ID)
	defer unlock()

	existing, err := e.repo.GetTree(ctx, tree.ID)
	if err != nil {
		return nil, fmt.Errorf("查询树失败: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrTreeExists, tree.ID)
	}

	return e.save(ctx, tree, events.NewTreeEvent(events.EventTreeCreated, tree.ID, ""))
}

// ReplaceTree 整体替换已存在的树
// 文档中的id可以省略，提供时必须与路径id一致
func (e *Engine) ReplaceTree(ctx context.Context, id string, raw map[string]any) (*graph.ComputedTree, error) {
	if err := checkDocumentID(raw, id); err != nil {
		return nil, err
	}
	doc := copyDocument(raw)
	doc[validator.FieldID] = id

	tree, err := validator.Validate(doc)
	if err != nil {
		return nil, err
	}

	unlock := e.lockTree(id)
	defer unlock()

	existing, err := e.repo.GetTree(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询树失败: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", ErrTreeNotFound, id)
	}

	return e.save(ctx, tree, events.NewTreeEvent(events.EventTreeReplaced, id, ""))
}

// ImportTree 导入YAML文档：id已存在时替换，否则创建
// id为空时使用文档内的id
func (e *Engine) ImportTree(ctx context.Context, id string, content []byte) (*graph.ComputedTree, error) {
	raw, err := treefile.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if id == "" {
		if docID, ok := raw[validator.FieldID].(string); ok {
			id = docID
		}
	}
	if id == "" {
		return e.CreateTree(ctx, raw)
	}
	if err := checkDocumentID(raw, id); err != nil {
		return nil, err
	}

	existing, err := e.repo.GetTree(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询树失败: %w", err)
	}
	if existing == nil {
		raw[validator.FieldID] = id
		return e.CreateTree(ctx, raw)
	}
	return e.ReplaceTree(ctx, id, raw)
}

// DeleteTree 删除树
func (e *Engine) DeleteTree(ctx context.Context, id string) error {
	unlock := e.lockTree(id)
	defer unlock()

	existing, err := e.repo.GetTree(ctx, id)
	if err != nil {
		return fmt.Errorf("查询树失败: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrTreeNotFound, id)
	}

	if err := e.repo.DeleteTree(ctx, id); err != nil {
		return fmt.Errorf("删除树失败: %w", err)
	}
	if err := e.cache.Invalidate(id); err != nil {
		return fmt.Errorf("清理缓存失败: %w", err)
	}
	e.publish(ctx, events.NewTreeEvent(events.EventTreeDeleted, id, ""))
	return nil
}

// checkDocumentID 文档中的id可以省略，提供时必须与目标id一致
func checkDocumentID(raw map[string]any, id string) error {
	if bodyID, ok := raw[validator.FieldID]; ok && bodyID != nil && bodyID != "" && bodyID != id {
		return fmt.Errorf("%w: 文档id %v 与 %s 不一致", ErrImmutableID, bodyID, id)
	}
	return nil
}

// copyDocument 浅拷贝顶层，避免修改调用方的map
func copyDocument(raw map[string]any) map[string]any {
	doc := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		doc[k] = v
	}
	return doc
}
