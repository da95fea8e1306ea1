// Package validator 校验能力树的结构完整性
//
// 校验分三类依次进行：结构schema、前置引用完整性、ID唯一性。
// 每一类内部累积所有违规项，遇到第一类失败即返回，后续类别不再检查。
// 循环依赖不在此处检查，由graph包以告警方式处理。
package validator

import (
	"fmt"

	"github.com/LENAX/capability-tree/pkg/core/types"
)

// Validate 将原始文档（YAML/JSON解码结果）校验并转换为Tree
// 校验失败返回 *ValidationError
func Validate(raw map[string]any) (*types.Tree, error) {
	if raw == nil {
		return nil, newError(SummarySchema, []string{"tree: must be an object"})
	}
	d := &decoder{}
	tree := d.decodeTree(raw)
	if len(d.errs) > 0 {
		return nil, newError(SummarySchema, d.errs)
	}
	if err := checkGraph(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// ValidateTree 对已是类型化的Tree执行同样的三类校验，不修改输入
func ValidateTree(tree *types.Tree) error {
	if tree == nil {
		return newError(SummarySchema, []string{"tree: must be an object"})
	}
	if errs := checkSchema(tree); len(errs) > 0 {
		return newError(SummarySchema, errs)
	}
	return checkGraph(tree)
}

// checkSchema 类型化Tree的字段约束检查
func checkSchema(tree *types.Tree) []string {
	var errs []string
	fail := func(path, desc string) {
		errs = append(errs, fmt.Sprintf("%s: %s", path, desc))
	}

	if tree.Name == "" {
		fail(FieldName, "must be a non-empty string")
	}
	if len(tree.Nodes) == 0 {
		fail(FieldNodes, "must contain at least one node")
	}
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		path := fmt.Sprintf("%s[%d]", FieldNodes, i)
		if n.ID == "" {
			fail(path+"."+FieldID, "must be a non-empty string")
		}
		if n.Name == "" {
			fail(path+"."+FieldName, "must be a non-empty string")
		}
		// 空状态视为缺省（Planned）
		if n.Status != "" && !n.Status.Valid() {
			fail(path+"."+FieldStatus, "must be one of "+statusChoices)
		}
		for j, p := range n.Prerequisites {
			if p == "" {
				fail(fmt.Sprintf("%s.%s[%d]", path, FieldPrerequisites, j), "must be a non-empty string")
			}
		}
		if n.ExplicitTier != nil && *n.ExplicitTier < 1 {
			fail(path+"."+FieldTier, "must be a positive integer")
		}
		if n.EffortPoints != nil && *n.EffortPoints < 0 {
			fail(path+"."+FieldEffortPoints, "must be a non-negative integer")
		}
	}
	return errs
}

// checkGraph 引用完整性与唯一性检查（结构已合法的前提下）
func checkGraph(tree *types.Tree) error {
	if errs := checkReferences(tree); len(errs) > 0 {
		return newError(SummaryReference, errs)
	}
	if errs := checkUniqueness(tree); len(errs) > 0 {
		return newError(SummaryDuplicate, errs)
	}
	return nil
}

// checkReferences 每个(节点, 缺失ID)组合只报告一次
func checkReferences(tree *types.Tree) []string {
	ids := make(map[string]struct{}, len(tree.Nodes))
	for i := range tree.Nodes {
		ids[tree.Nodes[i].ID] = struct{}{}
	}

	var errs []string
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		reported := make(map[string]bool)
		for _, p := range n.Prerequisites {
			if _, ok := ids[p]; ok || reported[p] {
				continue
			}
			reported[p] = true
			errs = append(errs, fmt.Sprintf(`Node "%s" has invalid prerequisite "%s"`, n.ID, p))
		}
	}
	return errs
}

// checkUniqueness 每个重复ID只报告一次，按首次出现重复的顺序
func checkUniqueness(tree *types.Tree) []string {
	seen := make(map[string]int, len(tree.Nodes))
	var errs []string
	for i := range tree.Nodes {
		id := tree.Nodes[i].ID
		seen[id]++
		if seen[id] == 2 {
			errs = append(errs, fmt.Sprintf(`Duplicate ID: "%s"`, id))
		}
	}
	return errs
}
