// Package treefile 能力树文档的YAML编解码
//
// 文档先解码为原始map再交给validator，这样结构错误可以带字段路径报告；
// 写回时使用类型化的Tree，字段顺序固定，便于人工编辑与diff。
package treefile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LENAX/capability-tree/pkg/core/types"
	"github.com/LENAX/capability-tree/pkg/core/validator"
)

// Parse 将YAML（JSON是其子集）解析为原始文档
func Parse(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析树文档失败: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// Load 解析并校验树文档
func Load(data []byte) (*types.Tree, error) {
	raw, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return validator.Validate(raw)
}

// LoadFile 从文件加载并校验树文档
func LoadFile(path string) (*types.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取树文件失败: %w", err)
	}
	return Load(data)
}

// Marshal 将Tree编码为YAML
func Marshal(tree *types.Tree) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("编码树文档失败: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("编码树文档失败: %w", err)
	}
	return buf.Bytes(), nil
}

// ToRaw 将类型化的Tree转换回原始文档，用于在原始层面合并变更后重新校验
func ToRaw(tree *types.Tree) map[string]any {
	nodes := make([]any, len(tree.Nodes))
	for i := range tree.Nodes {
		nodes[i] = NodeToRaw(&tree.Nodes[i])
	}
	raw := map[string]any{
		validator.FieldName:  tree.Name,
		validator.FieldNodes: nodes,
	}
	if tree.ID != "" {
		raw[validator.FieldID] = tree.ID
	}
	if tree.Description != "" {
		raw[validator.FieldDescription] = tree.Description
	}
	return raw
}

// NodeToRaw 将节点转换为原始map，可选字段缺省时不输出
func NodeToRaw(n *types.Node) map[string]any {
	m := map[string]any{
		validator.FieldID:     n.ID,
		validator.FieldName:   n.Name,
		validator.FieldStatus: string(n.Status),
	}
	if n.Status == "" {
		m[validator.FieldStatus] = string(types.StatusPlanned)
	}
	if n.Prerequisites != nil {
		m[validator.FieldPrerequisites] = toAnyList(n.Prerequisites)
	}
	if n.ExplicitTier != nil {
		m[validator.FieldTier] = *n.ExplicitTier
	}
	if n.EffortPoints != nil {
		m[validator.FieldEffortPoints] = *n.EffortPoints
	}
	setIfNotEmpty(m, validator.FieldDescription, n.Description)
	if n.Tags != nil {
		m[validator.FieldTags] = toAnyList(n.Tags)
	}
	setIfNotEmpty(m, validator.FieldExternalRef, n.ExternalRef)
	setIfNotEmpty(m, validator.FieldSubtreeRef, n.SubtreeRef)
	setIfNotEmpty(m, validator.FieldBlockedReason, n.BlockedReason)
	return m
}

// MergeNode 对原始节点应用部分更新：值为nil的键被清除，其余覆盖
// 返回新的map，不修改入参
func MergeNode(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func toAnyList(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
