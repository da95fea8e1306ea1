package types

// Node 能力单元（持久化形态）
// Prerequisites 中的ID必须能在同一棵树中解析，由validator保证
type Node struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Status        Status   `yaml:"status" json:"status"`
	Prerequisites []string `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	ExplicitTier  *int     `yaml:"tier,omitempty" json:"tier,omitempty"`                   // 显式层级，存在时覆盖计算值
	EffortPoints  *int     `yaml:"effort_points,omitempty" json:"effort_points,omitempty"` // 工作量点数，缺省不等同于0
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags          []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	ExternalRef   string   `yaml:"external_ref,omitempty" json:"external_ref,omitempty"`
	SubtreeRef    string   `yaml:"subtree_ref,omitempty" json:"subtree_ref,omitempty"`
	BlockedReason string   `yaml:"blocked_reason,omitempty" json:"blocked_reason,omitempty"`
}

// Effort 返回工作量点数，缺省为0
func (n *Node) Effort() int {
	if n.EffortPoints == nil {
		return 0
	}
	return *n.EffortPoints
}

// HasExplicitTier 是否声明了显式层级
func (n *Node) HasExplicitTier() bool {
	return n.ExplicitTier != nil
}

// Clone 深拷贝节点
func (n Node) Clone() Node {
	out := n
	if n.Prerequisites != nil {
		out.Prerequisites = append([]string(nil), n.Prerequisites...)
	}
	if n.Tags != nil {
		out.Tags = append([]string(nil), n.Tags...)
	}
	if n.ExplicitTier != nil {
		v := *n.ExplicitTier
		out.ExplicitTier = &v
	}
	if n.EffortPoints != nil {
		v := *n.EffortPoints
		out.EffortPoints = &v
	}
	return out
}

// Tree 命名的有序节点集合（持久化形态）
// 节点顺序仅用于展示，不影响计算
type Tree struct {
	ID          string `yaml:"id,omitempty" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Nodes       []Node `yaml:"nodes" json:"nodes"`
}

// FindNode 按ID查找节点，返回其下标；不存在返回-1
func (t *Tree) FindNode(id string) int {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone 深拷贝整棵树
func (t *Tree) Clone() *Tree {
	out := &Tree{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Nodes:       make([]Node, len(t.Nodes)),
	}
	for i := range t.Nodes {
		out.Nodes[i] = t.Nodes[i].Clone()
	}
	return out
}

// IntPtr 返回指向v的指针，便于构造可选数值字段
func IntPtr(v int) *int {
	return &v
}
