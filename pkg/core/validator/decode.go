package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/LENAX/capability-tree/pkg/core/types"
)

// 节点字段名（与YAML/JSON文档保持一致）
const (
	FieldID            = "id"
	FieldName          = "name"
	FieldStatus        = "status"
	FieldPrerequisites = "prerequisites"
	FieldTier          = "tier"
	FieldEffortPoints  = "effort_points"
	FieldDescription   = "description"
	FieldTags          = "tags"
	FieldExternalRef   = "external_ref"
	FieldSubtreeRef    = "subtree_ref"
	FieldBlockedReason = "blocked_reason"
	FieldNodes         = "nodes"
)

var statusChoices = func() string {
	parts := make([]string, 0, 4)
	for _, s := range types.AllStatuses() {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}()

// decoder 在解码原始文档的同时收集结构错误
type decoder struct {
	errs []string
}

func (d *decoder) fail(path, desc string) {
	d.errs = append(d.errs, fmt.Sprintf("%s: %s", path, desc))
}

func (d *decoder) decodeTree(raw map[string]any) *types.Tree {
	tree := &types.Tree{}
	tree.ID = d.optString(raw, FieldID, FieldID)
	tree.Name = d.requiredString(raw, FieldName, FieldName)
	tree.Description = d.optString(raw, FieldDescription, FieldDescription)

	rawNodes, ok := raw[FieldNodes]
	if !ok || rawNodes == nil {
		d.fail(FieldNodes, "must contain at least one node")
		return tree
	}
	list, ok := rawNodes.([]any)
	if !ok {
		d.fail(FieldNodes, "must be a list of nodes")
		return tree
	}
	if len(list) == 0 {
		d.fail(FieldNodes, "must contain at least one node")
		return tree
	}

	tree.Nodes = make([]types.Node, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("%s[%d]", FieldNodes, i)
		m, ok := asMap(item)
		if !ok {
			d.fail(path, "must be an object")
			continue
		}
		tree.Nodes = append(tree.Nodes, d.decodeNode(m, path))
	}
	return tree
}

func (d *decoder) decodeNode(m map[string]any, path string) types.Node {
	n := types.Node{Status: types.StatusPlanned}
	n.ID = d.requiredString(m, FieldID, path+"."+FieldID)
	n.Name = d.requiredString(m, FieldName, path+"."+FieldName)

	if v, ok := m[FieldStatus]; ok && v != nil {
		s, isStr := v.(string)
		st := types.Status(s)
		if !isStr || !st.Valid() {
			d.fail(path+"."+FieldStatus, "must be one of "+statusChoices)
		} else {
			n.Status = st
		}
	}

	n.Prerequisites = d.stringList(m, FieldPrerequisites, path+"."+FieldPrerequisites, "must be a list of node ids", true)
	n.ExplicitTier = d.optInt(m, FieldTier, path+"."+FieldTier, 1, "must be a positive integer")
	n.EffortPoints = d.optInt(m, FieldEffortPoints, path+"."+FieldEffortPoints, 0, "must be a non-negative integer")
	n.Description = d.optString(m, FieldDescription, path+"."+FieldDescription)
	n.Tags = d.stringList(m, FieldTags, path+"."+FieldTags, "must be a list of strings", false)
	n.ExternalRef = d.optString(m, FieldExternalRef, path+"."+FieldExternalRef)
	n.SubtreeRef = d.optString(m, FieldSubtreeRef, path+"."+FieldSubtreeRef)
	n.BlockedReason = d.optString(m, FieldBlockedReason, path+"."+FieldBlockedReason)
	return n
}

func (d *decoder) requiredString(m map[string]any, key, path string) string {
	s, ok := m[key].(string)
	if !ok || s == "" {
		d.fail(path, "must be a non-empty string")
		return ""
	}
	return s
}

func (d *decoder) optString(m map[string]any, key, path string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(path, "must be a string")
		return ""
	}
	return s
}

// stringList 解析字符串列表；nonEmpty为true时元素不能为空串
func (d *decoder) stringList(m map[string]any, key, path, desc string, nonEmpty bool) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		d.fail(path, desc)
		return nil
	}
	out := make([]string, 0, len(list))
	for j, item := range list {
		s, ok := item.(string)
		switch {
		case !ok && nonEmpty, ok && nonEmpty && s == "":
			d.fail(fmt.Sprintf("%s[%d]", path, j), "must be a non-empty string")
			continue
		case !ok:
			d.fail(fmt.Sprintf("%s[%d]", path, j), "must be a string")
			continue
		}
		out = append(out, s)
	}
	return out
}

// optInt 解析可选整数字段，缺省或null返回nil，小于min时记录错误
func (d *decoder) optInt(m map[string]any, key, path string, min int, desc string) *int {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	n, ok := toInt(v)
	if !ok || n < min {
		d.fail(path, desc)
		return nil
	}
	return &n
}

// toInt 接受各种整数类型，以及取值为整数的浮点数（JSON解码结果）
// 所有类型使用同一取值范围：int 可表示的整数
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int8:
		return int(x), true
	case int16:
		return int(x), true
	case int32:
		return int(x), true
	case int64:
		return int64ToInt(x)
	case uint:
		return uint64ToInt(uint64(x))
	case uint8:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return uint64ToInt(uint64(x))
	case uint64:
		return uint64ToInt(x)
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return 0, false
			}
			return floatToInt(f)
		}
		return int64ToInt(i)
	}
	return 0, false
}

func int64ToInt(x int64) (int, bool) {
	if x < math.MinInt || x > math.MaxInt {
		return 0, false
	}
	return int(x), true
}

func uint64ToInt(x uint64) (int, bool) {
	if x > math.MaxInt {
		return 0, false
	}
	return int(x), true
}

// floatToInt 区间为 [MinInt, -MinInt)，float64(MaxInt) 会进位到 2^63
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// asMap 兼容 map[string]any 与 map[any]any 两种解码结果
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
