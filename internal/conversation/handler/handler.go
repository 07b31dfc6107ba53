package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realty_agent_backend/internal/conversation/service"
	"realty_agent_backend/internal/conversation/transport"
	"realty_agent_backend/platform/httpkit"
	"realty_agent_backend/platform/validator"
)

const msgInvalidRequest = "invalid request body"

// Handler handles the public chat endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new conversation handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the chat routes (no auth middleware).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/session", h.StartSession)
	rg.POST("/message", h.Message)
}

// StartSession handles POST /api/v1/chat/session
func (h *Handler) StartSession(c *gin.Context) {
	result, err := h.svc.StartSession(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Message handles POST /api/v1/chat/message
func (h *Handler) Message(c *gin.Context) {
	var req transport.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.svc.HandleMessage(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
