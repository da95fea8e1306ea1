package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/capability-tree/pkg/api/dto"
	"github.com/LENAX/capability-tree/pkg/core/engine"
	"github.com/LENAX/capability-tree/pkg/core/events"
)

const writeWait = 10 * time.Second

// WatchHandler websocket推送树的最新计算结果
type WatchHandler struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

// NewWatchHandler 创建WatchHandler
func NewWatchHandler(eng *engine.Engine) *WatchHandler {
	return &WatchHandler{
		engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Watch 连接后先推送当前快照，之后每次变更推送一次；树被删除时推送事件并关闭
// GET /api/v1/trees/:id/watch
func (h *WatchHandler) Watch(c *gin.Context) {
	treeID := c.Param("id")

	// 升级前确认树存在，不存在时仍可返回普通404
	current, err := h.engine.GetComputed(c.Request.Context(), treeID)
	if err != nil {
		respondError(c, err)
		return
	}
	bus := h.engine.Events()
	if bus == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "事件总线未启用"))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := bus.Subscribe(ctx, treeID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ [Watch] WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// 读循环只用于感知客户端断开
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("⚠️ [Watch] WebSocket read error: %v", err)
				}
				return
			}
		}
	}()

	if err := sendWatchMessage(conn, &dto.WatchMessage{Tree: current}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			msg := &dto.WatchMessage{Event: ev}
			if ev.Type == events.EventTreeDeleted {
				if err := sendWatchMessage(conn, msg); err != nil {
					log.Printf("⚠️ [Watch] 推送删除事件失败: tree=%s, err=%v", treeID, err)
					return
				}
				if err := conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "tree deleted"),
					time.Now().Add(writeWait)); err != nil {
					log.Printf("⚠️ [Watch] 发送关闭帧失败: tree=%s, err=%v", treeID, err)
				}
				return
			}

			ct, err := h.engine.GetComputed(ctx, treeID)
			if err != nil {
				log.Printf("⚠️ [Watch] 读取树 %s 失败: %v", treeID, err)
				continue
			}
			msg.Tree = ct
			if err := sendWatchMessage(conn, msg); err != nil {
				return
			}
		}
	}
}

// sendWatchMessage 发送消息
func sendWatchMessage(conn *websocket.Conn, msg *dto.WatchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
