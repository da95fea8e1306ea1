package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Bus 基于 watermill gochannel 的进程内事件总线
// 发布不等待订阅者确认，同一订阅者收到的顺序不保证与发布顺序一致
type Bus struct {
	pubsub *gochannel.GoChannel
	closed bool
	mu     sync.RWMutex
}

// NewBus 创建事件总线
func NewBus(debug bool) *Bus {
	logger := watermill.NewStdLogger(debug, false)
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            64,
				Persistent:                     false,
				BlockPublishUntilSubscriberAck: false,
			},
			logger,
		),
	}
}

// Publish 发布事件，总线关闭后静默丢弃
func (b *Bus) Publish(ctx context.Context, event *TreeEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("tree_id", event.TreeID)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339Nano))

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	if err := b.pubsub.Publish(TopicTreeChanged, msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅树变更事件，ctx 取消后返回的通道关闭
// treeID 非空时只投递该树的事件
func (b *Bus) Subscribe(ctx context.Context, treeID string) (<-chan *TreeEvent, error) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("事件总线已关闭")
	}

	messages, err := b.pubsub.Subscribe(ctx, TopicTreeChanged)
	if err != nil {
		return nil, fmt.Errorf("订阅事件失败: %w", err)
	}

	out := make(chan *TreeEvent, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var event TreeEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Printf("⚠️ [EventBus] 丢弃无法解析的事件 %s: %v", msg.UUID, err)
				msg.Ack()
				continue
			}
			msg.Ack()
			if treeID != "" && event.TreeID != treeID {
				continue
			}
			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close 关闭总线，所有订阅通道随之关闭
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}
