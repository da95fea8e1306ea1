package types

import "fmt"

// Status 能力节点的开发状态（封闭枚举）
type Status string

const (
	StatusCompleted  Status = "completed"   // 已完成
	StatusInProgress Status = "in_progress" // 进行中
	StatusPlanned    Status = "planned"     // 已规划（默认）
	StatusBlocked    Status = "blocked"     // 受阻
)

// AllStatuses 返回全部合法状态，顺序固定
func AllStatuses() []Status {
	return []Status{StatusCompleted, StatusInProgress, StatusPlanned, StatusBlocked}
}

// Valid 判断状态是否为合法枚举值
func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusInProgress, StatusPlanned, StatusBlocked:
		return true
	}
	return false
}

// IsDone 是否已完成
func (s Status) IsDone() bool {
	return s == StatusCompleted
}

// IsActive 是否已完成或进行中（不再是“待开始”的节点）
func (s Status) IsActive() bool {
	return s == StatusCompleted || s == StatusInProgress
}

// ParseStatus 将字符串解析为Status，空字符串返回默认值Planned
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusPlanned, nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// String 实现fmt.Stringer
func (s Status) String() string {
	return string(s)
}
