package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/capability-tree/pkg/api/dto"
	"github.com/LENAX/capability-tree/pkg/core/engine"
	"github.com/LENAX/capability-tree/pkg/core/graph"
)

// QueryHandler 只读查询API处理器
type QueryHandler struct {
	engine *engine.Engine
}

// NewQueryHandler 创建QueryHandler
func NewQueryHandler(eng *engine.Engine) *QueryHandler {
	return &QueryHandler{engine: eng}
}

// computedWithNode 读取计算结果并确认节点存在
func (h *QueryHandler) computedWithNode(c *gin.Context) (*graph.ComputedTree, string, bool) {
	ct, err := h.engine.GetComputed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	nodeID := c.Param("nodeId")
	if _, ok := ct.Node(nodeID); !ok {
		respondError(c, fmt.Errorf("%w: %s/%s", engine.ErrNodeNotFound, ct.ID, nodeID))
		return nil, "", false
	}
	return ct, nodeID, true
}

// Ancestors 传递前置集合
// GET /api/v1/trees/:id/nodes/:nodeId/ancestors
func (h *QueryHandler) Ancestors(c *gin.Context) {
	ct, nodeID, ok := h.computedWithNode(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NodeSetResponse{
		TreeID: ct.ID,
		NodeID: nodeID,
		IDs:    ct.Ancestors(nodeID).Sorted(),
	}))
}

// Descendants 传递依赖方集合
// GET /api/v1/trees/:id/nodes/:nodeId/descendants
func (h *QueryHandler) Descendants(c *gin.Context) {
	ct, nodeID, ok := h.computedWithNode(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NodeSetResponse{
		TreeID: ct.ID,
		NodeID: nodeID,
		IDs:    ct.Descendants(nodeID).Sorted(),
	}))
}

// CanStart 节点是否可以开始
// GET /api/v1/trees/:id/nodes/:nodeId/can-start
func (h *QueryHandler) CanStart(c *gin.Context) {
	ct, nodeID, ok := h.computedWithNode(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CanStartResponse{
		TreeID:   ct.ID,
		NodeID:   nodeID,
		CanStart: ct.CanStart(nodeID),
	}))
}

// Ready 可开始的节点
// GET /api/v1/trees/:id/ready
func (h *QueryHandler) Ready(c *gin.Context) {
	ct, err := h.engine.GetComputed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ReadyResponse{
		TreeID: ct.ID,
		Nodes:  ct.ReadyNodes(),
	}))
}

// Progress 进度汇总
// GET /api/v1/trees/:id/progress
func (h *QueryHandler) Progress(c *gin.Context) {
	ct, err := h.engine.GetComputed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ProgressResponse{
		TreeID:   ct.ID,
		Progress: ct.Progress(),
		MaxTier:  ct.MaxTier(),
		Warnings: ct.Warnings,
	}))
}

// Check 严格无环检查，有环不算请求错误
// GET /api/v1/trees/:id/check
func (h *QueryHandler) Check(c *gin.Context) {
	id := c.Param("id")
	roots, err := h.engine.CheckTree(c.Request.Context(), id)
	if err != nil {
		var edgeErr *graph.EdgeError
		if errors.As(err, &edgeErr) {
			c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CheckResponse{
				TreeID:  id,
				Acyclic: false,
				Error:   edgeErr.Error(),
			}))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CheckResponse{
		TreeID:  id,
		Acyclic: true,
		Roots:   roots,
	}))
}
