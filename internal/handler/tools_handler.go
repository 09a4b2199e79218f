package handler

import (
	"errors"
	"net/http"

	"github.com/brightsmile/engagebot-go/internal/tools"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ToolsHandler 预约查询接口
type ToolsHandler struct {
	registry *tools.Registry
	logger   *zap.Logger
}

// NewToolsHandler 创建工具处理器
func NewToolsHandler(registry *tools.Registry, logger *zap.Logger) *ToolsHandler {
	return &ToolsHandler{registry: registry, logger: logger}
}

// Register 注册路由
func (h *ToolsHandler) Register(r gin.IRouter) {
	r.GET("/api/tools", h.List)
	r.POST("/api/tools/execute", h.Execute)
}

// List 列出工具定义
func (h *ToolsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.registry.Definitions()})
}

// Execute 执行一次查询，参数错误 400，工具不存在 404
func (h *ToolsHandler) Execute(c *gin.Context) {
	var call tools.Call
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, tools.Result{Error: "invalid request"})
		return
	}

	result, err := h.registry.Invoke(call)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, tools.ErrToolNotFound):
			status = http.StatusNotFound
		case errors.Is(err, tools.ErrInvalidArguments):
			status = http.StatusBadRequest
		}
		c.JSON(status, tools.Result{CallID: call.ID, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, tools.Result{CallID: call.ID, Result: result})
}
