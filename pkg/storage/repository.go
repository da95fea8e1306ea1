// Package storage 能力树持久化接口
//
// 存储层只保存用户编写的Tree，派生数据（层级、依赖方）每次读取时重新计算。
// 具体实现见 file（YAML文件）与 sqldb（sqlx + 方言）。
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/capability-tree/pkg/core/types"
)

// ErrInvalidID 树ID不符合存储实现的要求
var ErrInvalidID = errors.New("invalid tree id")

// TreeRecord 已持久化的树及其修订信息
type TreeRecord struct {
	Tree      *types.Tree `json:"tree"`
	Revision  string      `json:"revision"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TreeSummary 列表展示用的树摘要
type TreeSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Revision  string    `json:"revision"`
	NodeCount int       `json:"node_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TreeRepository 树存储接口（对外导出）
type TreeRepository interface {
	// SaveTree 新增或整体覆盖一棵树，返回新的修订
	// tree.ID 不能为空
	SaveTree(ctx context.Context, tree *types.Tree) (*TreeRecord, error)

	// GetTree 读取一棵树，不存在时返回 nil, nil
	GetTree(ctx context.Context, id string) (*TreeRecord, error)

	// DeleteTree 删除一棵树，不存在时不报错
	DeleteTree(ctx context.Context, id string) error

	// ListTrees 列出全部树的摘要，按ID排序
	ListTrees(ctx context.Context) ([]*TreeSummary, error)

	// Close 释放底层资源
	Close() error
}

// revisionNamespace 修订号命名空间
var revisionNamespace = uuid.MustParse("0b6f3c52-7d8e-4c1a-9f5e-2a4d6c8e1b3f")

// RevisionOf 由文档内容派生修订号，内容相同则修订相同
func RevisionOf(document []byte) string {
	return uuid.NewSHA1(revisionNamespace, document).String()
}

// Summarize 由记录生成摘要
func Summarize(rec *TreeRecord) *TreeSummary {
	return &TreeSummary{
		ID:        rec.Tree.ID,
		Name:      rec.Tree.Name,
		Revision:  rec.Revision,
		NodeCount: len(rec.Tree.Nodes),
		UpdatedAt: rec.UpdatedAt,
	}
}
