// Package conversation provides the scripted lead-qualification chat module.
package conversation

import (
	"realty_agent_backend/internal/conversation/engine"
	"realty_agent_backend/internal/conversation/handler"
	"realty_agent_backend/internal/conversation/service"
	"realty_agent_backend/internal/events"
	apphttp "realty_agent_backend/internal/http"
	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/internal/search"
	"realty_agent_backend/internal/transcript"
	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"
	"realty_agent_backend/platform/validator"
)

// Module represents the conversation domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new conversation module with all dependencies wired.
// rephraser may be nil to serve the scripted replies verbatim.
func NewModule(
	store *leadstore.Store,
	provider search.Provider,
	transcripts *transcript.Writer,
	bus events.Bus,
	val *validator.Validator,
	rephraser service.Rephraser,
	cfg config.ConversationConfig,
	log *logger.Logger,
) *Module {
	eng := engine.New(provider, log)
	svc := service.New(eng, store, transcripts, bus, rephraser, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "conversation"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes. Chat is public; the
// per-IP rate limiter stands in for auth on this surface.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	chat := ctx.V1.Group("/chat")
	if ctx.ChatRateLimiter != nil {
		chat.Use(ctx.ChatRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(chat)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
