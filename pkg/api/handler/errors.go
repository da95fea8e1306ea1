package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/capability-tree/pkg/api/dto"
	"github.com/LENAX/capability-tree/pkg/core/engine"
	"github.com/LENAX/capability-tree/pkg/core/validator"
	"github.com/LENAX/capability-tree/pkg/storage"
)

// respondError 将引擎错误映射为HTTP状态码与统一响应
func respondError(c *gin.Context, err error) {
	if ve, ok := validator.AsValidationError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponseWithData(422, ve.Summary, ve))
		return
	}

	switch {
	case errors.Is(err, engine.ErrTreeNotFound), errors.Is(err, engine.ErrNodeNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, err.Error()))
	case errors.Is(err, engine.ErrTreeExists):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(409, err.Error()))
	case errors.Is(err, engine.ErrImmutableID), errors.Is(err, engine.ErrInvalidDocument), errors.Is(err, storage.ErrInvalidID):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
	}
}

// respondBindError 请求体或参数无法解析
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
}
