// Package events 能力树变更事件
//
// 事件通过 watermill gochannel 在进程内广播，websocket 推送和日志订阅者各自独立消费。
package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicTreeChanged 所有树变更事件共用的主题
const TopicTreeChanged = "tree.changed"

// EventType 事件类型
type EventType string

const (
	EventTreeCreated  EventType = "tree.created"
	EventTreeReplaced EventType = "tree.replaced"
	EventTreeDeleted  EventType = "tree.deleted"
	EventNodeAdded    EventType = "node.added"
	EventNodeUpdated  EventType = "node.updated"
	EventNodeRemoved  EventType = "node.removed"
)

// TreeEvent 树变更事件
type TreeEvent struct {
	ID        string    `json:"id"`                // 事件ID（UUID）
	Type      EventType `json:"type"`              // 事件类型
	TreeID    string    `json:"tree_id"`           // 关联树ID
	NodeID    string    `json:"node_id,omitempty"` // 节点级事件的节点ID
	Revision  string    `json:"revision"`          // 变更后的修订号，删除事件为空
	Timestamp time.Time `json:"timestamp"`
}

// NewTreeEvent 创建树变更事件
func NewTreeEvent(eventType EventType, treeID, revision string) *TreeEvent {
	return &TreeEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		TreeID:    treeID,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// WithNode 设置节点ID
func (e *TreeEvent) WithNode(nodeID string) *TreeEvent {
	e.NodeID = nodeID
	return e
}
