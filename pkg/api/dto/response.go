package dto

import (
	"github.com/LENAX/capability-tree/pkg/core/events"
	"github.com/LENAX/capability-tree/pkg/core/graph"
)

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// NewErrorResponseWithData 创建带数据的错误响应（如校验错误明细）
func NewErrorResponseWithData(code int, message string, data any) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
	// ReportNextRun 下一次进度报告时间，未启用报告时为空
	ReportNextRun string `json:"report_next_run,omitempty"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total   int  `json:"total"`
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}

// NodeSetResponse 祖先/后代查询结果
type NodeSetResponse struct {
	TreeID string   `json:"tree_id"`
	NodeID string   `json:"node_id"`
	IDs    []string `json:"ids"` // 已排序
}

// CanStartResponse 可开始判断结果
type CanStartResponse struct {
	TreeID   string `json:"tree_id"`
	NodeID   string `json:"node_id"`
	CanStart bool   `json:"can_start"`
}

// ReadyResponse 可开始节点列表，保持树内顺序
type ReadyResponse struct {
	TreeID string                `json:"tree_id"`
	Nodes  []*graph.ComputedNode `json:"nodes"`
}

// CheckResponse 严格无环检查结果
type CheckResponse struct {
	TreeID  string   `json:"tree_id"`
	Acyclic bool     `json:"acyclic"`
	Roots   []string `json:"roots,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ProgressResponse 进度汇总
type ProgressResponse struct {
	TreeID   string         `json:"tree_id"`
	Progress graph.Progress `json:"progress"`
	MaxTier  int            `json:"max_tier"`
	Warnings []string       `json:"warnings,omitempty"`
}

// WatchMessage websocket推送的消息
type WatchMessage struct {
	Event *events.TreeEvent   `json:"event,omitempty"` // 首条快照没有事件
	Tree  *graph.ComputedTree `json:"tree,omitempty"`  // 删除事件没有树
}
