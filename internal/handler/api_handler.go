package handler

import (
	"errors"
	"net/http"

	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/brightsmile/engagebot-go/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIHandler 会话与引擎相关的 HTTP 接口
type APIHandler struct {
	conversations *service.ConversationService
	engine        *service.EngagementService
	connections   *service.ConnectionService
	logger        *zap.Logger
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(
	conversations *service.ConversationService,
	engine *service.EngagementService,
	connections *service.ConnectionService,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		conversations: conversations,
		engine:        engine,
		connections:   connections,
		logger:        logger,
	}
}

// Register 注册路由
func (h *APIHandler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.POST("/sessions/:id/messages", h.PostMessage)
	api.POST("/sessions/:id/contact", h.UpdateContact)
	api.POST("/sessions/:id/booking", h.ConfirmBooking)
	api.POST("/sessions/:id/close", h.CloseSession)
	api.POST("/classify", h.Classify)
	api.POST("/score", h.Score)
}

// CreateSession 新建会话
func (h *APIHandler) CreateSession(c *gin.Context) {
	sess, err := h.conversations.Start(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sess})
}

// GetSession 查询会话
func (h *APIHandler) GetSession(c *gin.Context) {
	sess, err := h.conversations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// PostMessage 用户发言，返回助手回复
func (h *APIHandler) PostMessage(c *gin.Context) {
	var req model.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reply, sess, err := h.conversations.HandleUserMessage(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TurnResponse{Reply: reply, Session: sess})
}

// UpdateContact 提交联系方式
func (h *APIHandler) UpdateContact(c *gin.Context) {
	var req model.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sess, err := h.conversations.UpdateContact(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// ConfirmBooking 外部预约确认
func (h *APIHandler) ConfirmBooking(c *gin.Context) {
	sess, err := h.conversations.ConfirmBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// CloseSession 关闭会话
func (h *APIHandler) CloseSession(c *gin.Context) {
	sess, err := h.conversations.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// Classify 单独调用情绪识别
func (h *APIHandler) Classify(c *gin.Context) {
	var req model.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	c.JSON(http.StatusOK, h.engine.Classify(c.Request.Context(), req.Text))
}

// Score 对传入的会话计算线索评分
func (h *APIHandler) Score(c *gin.Context) {
	var sess model.Session
	if err := c.ShouldBindJSON(&sess); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session"})
		return
	}
	c.JSON(http.StatusOK, model.ScoreResponse{Score: service.Score(&sess)})
}

// Health 健康检查
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "UP",
		"service":            c.GetString("service_name"),
		"online_connections": h.connections.OnlineCount(),
	})
}

func (h *APIHandler) writeError(c *gin.Context, err error) {
	switch {
	case service.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("请求处理失败",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
