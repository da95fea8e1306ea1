package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/capability-tree/pkg/api/dto"
	"github.com/LENAX/capability-tree/pkg/core/engine"
)

// NodeHandler 节点变更API处理器
type NodeHandler struct {
	engine *engine.Engine
}

// NewNodeHandler 创建NodeHandler
func NewNodeHandler(eng *engine.Engine) *NodeHandler {
	return &NodeHandler{engine: eng}
}

// Add 新增节点
// POST /api/v1/trees/:id/nodes
func (h *NodeHandler) Add(c *gin.Context) {
	var node map[string]any
	if err := c.ShouldBindJSON(&node); err != nil {
		respondBindError(c, err)
		return
	}

	ct, err := h.engine.AddNode(c.Request.Context(), c.Param("id"), node)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(ct))
}

// Update 部分更新节点，null清除可选字段
// PATCH /api/v1/trees/:id/nodes/:nodeId
func (h *NodeHandler) Update(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	ct, err := h.engine.UpdateNode(c.Request.Context(), c.Param("id"), c.Param("nodeId"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(ct))
}

// Remove 删除节点
// DELETE /api/v1/trees/:id/nodes/:nodeId
func (h *NodeHandler) Remove(c *gin.Context) {
	ct, err := h.engine.RemoveNode(c.Request.Context(), c.Param("id"), c.Param("nodeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(ct))
}
