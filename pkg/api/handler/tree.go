package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/capability-tree/pkg/api/dto"
	"github.com/LENAX/capability-tree/pkg/core/engine"
	"github.com/LENAX/capability-tree/pkg/storage"
	"github.com/LENAX/capability-tree/pkg/treefile"
)

// TreeHandler 能力树API处理器
type TreeHandler struct {
	engine *engine.Engine
}

// NewTreeHandler 创建TreeHandler
func NewTreeHandler(eng *engine.Engine) *TreeHandler {
	return &TreeHandler{engine: eng}
}

// List 列出所有树
// GET /api/v1/trees
func (h *TreeHandler) List(c *gin.Context) {
	var req dto.ListQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	summaries, err := h.engine.ListTrees(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	total := len(summaries)
	start := req.Offset
	if start > total {
		start = total
	}
	end := start + req.GetDefaultLimit()
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[*storage.TreeSummary]{
		Total:   total,
		Items:   summaries[start:end],
		HasMore: end < total,
	}))
}

// Create 由JSON文档创建树
// POST /api/v1/trees
func (h *TreeHandler) Create(c *gin.Context) {
	var doc map[string]any
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondBindError(c, err)
		return
	}

	ct, err := h.engine.CreateTree(c.Request.Context(), doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(ct))
}

// Import 导入YAML文档，存在则替换
// POST /api/v1/trees/import
func (h *TreeHandler) Import(c *gin.Context) {
	var req dto.ImportTreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ct, err := h.engine.ImportTree(c.Request.Context(), req.ID, []byte(req.Content))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(ct))
}

// Get 获取计算后的树
// GET /api/v1/trees/:id
func (h *TreeHandler) Get(c *gin.Context) {
	ct, err := h.engine.GetComputed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(ct))
}

// GetRaw 以YAML返回持久化形态
// GET /api/v1/trees/:id/raw
func (h *TreeHandler) GetRaw(c *gin.Context) {
	rec, err := h.engine.GetTree(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := treefile.Marshal(rec.Tree)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("ETag", `"`+rec.Revision+`"`)
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", data)
}

// Replace 整体替换
// PUT /api/v1/trees/:id
func (h *TreeHandler) Replace(c *gin.Context) {
	var doc map[string]any
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondBindError(c, err)
		return
	}

	ct, err := h.engine.ReplaceTree(c.Request.Context(), c.Param("id"), doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(ct))
}

// Delete 删除树
// DELETE /api/v1/trees/:id
func (h *TreeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.DeleteTree(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"id":      id,
		"message": "deleted",
	}))
}
