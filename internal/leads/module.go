// Package leads provides the operator-facing lead inspection module.
package leads

import (
	apphttp "realty_agent_backend/internal/http"
	"realty_agent_backend/internal/leads/handler"
	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/internal/transcript"
	"realty_agent_backend/platform/httpkit"
	"realty_agent_backend/platform/logger"
)

// RoleOperator is the JWT role required to read stored leads.
const RoleOperator = "operator"

// Module represents the leads domain module
type Module struct {
	handler *handler.Handler
}

// NewModule creates a new leads module with all dependencies wired
func NewModule(store *leadstore.Store, transcripts *transcript.Writer, log *logger.Logger) *Module {
	return &Module{handler: handler.New(store, transcripts, log)}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes registers the module's routes behind auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads")
	leads.Use(httpkit.RequireRole(RoleOperator))
	m.handler.RegisterRoutes(leads)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
