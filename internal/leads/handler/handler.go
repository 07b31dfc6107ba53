package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"realty_agent_backend/internal/leads/transport"
	"realty_agent_backend/internal/leadstore"
	apptranscript "realty_agent_backend/internal/transcript"
	"realty_agent_backend/platform/httpkit"
	"realty_agent_backend/platform/logger"
)

// Handler exposes the stored leads to authenticated operators. Every
// contact-data read is attributed to the operator who made it.
type Handler struct {
	store       *leadstore.Store
	transcripts *apptranscript.Writer
	log         *logger.Logger
}

// New creates a new leads handler.
func New(store *leadstore.Store, transcripts *apptranscript.Writer, log *logger.Logger) *Handler {
	return &Handler{store: store, transcripts: transcripts, log: log}
}

// RegisterRoutes registers the operator lead routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/stats", h.Stats)
	rg.GET("/:sessionId", h.Get)
	rg.GET("/:sessionId/transcript", h.Transcript)
}

// List handles GET /api/v1/leads?qualified=true&limit=50&offset=0
func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	h.log.Info("leads listed", "operator_id", id.UserID().String())

	var qualified *bool
	if raw := c.Query("qualified"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "qualified must be a boolean", nil)
			return
		}
		qualified = &v
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	leads, err := h.store.List(c.Request.Context(), qualified, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListResponse{Leads: make([]transport.LeadResponse, 0, len(leads)), Limit: limit, Offset: offset}
	for _, lead := range leads {
		resp.Leads = append(resp.Leads, transport.FromLead(lead))
	}
	httpkit.OK(c, resp)
}

// Stats handles GET /api/v1/leads/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

// Get handles GET /api/v1/leads/:sessionId
func (h *Handler) Get(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	h.log.Info("lead read", "operator_id", id.UserID().String(), "session_id", c.Param("sessionId"))

	lead, err := h.store.Get(c.Request.Context(), c.Param("sessionId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

// Transcript handles GET /api/v1/leads/:sessionId/transcript
func (h *Handler) Transcript(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	sessionID := c.Param("sessionId")
	h.log.Info("transcript read", "operator_id", id.UserID().String(), "session_id", sessionID)
	turns, err := h.transcripts.Read(sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.TranscriptResponse{SessionID: sessionID, Turns: turns})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
