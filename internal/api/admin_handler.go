package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminHandler handles taxonomy, audit, api key, scheduler and event endpoints
type AdminHandler struct {
	services *service.Services
	stream   EventStream
	timeout  time.Duration
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, stream EventStream, timeout time.Duration, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		stream:   stream,
		timeout:  timeout,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

type renameTagRequest struct {
	Old   string `json:"old" binding:"required"`
	New   string `json:"new" binding:"required"`
	Scope string `json:"scope"`
}

type mergeTagsRequest struct {
	Sources []string `json:"sources" binding:"required"`
	Target  string   `json:"target" binding:"required"`
	Scope   string   `json:"scope"`
}

type createAPIKeyRequest struct {
	Label string `json:"label" binding:"required"`
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// RenameTag handles POST /v1/admin/tags/rename
func (h *AdminHandler) RenameTag(c *gin.Context) {
	var req renameTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old and new are required"})
		return
	}
	scope, err := models.ParseScope(req.Scope)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be one of: media, articles, both"})
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	affected, err := h.services.Taxonomy.RenameTag(ctx, c.GetString(actorKey), req.Old, req.New, scope)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"affected": affected, "scope": scope})
}

// MergeTags handles POST /v1/admin/tags/merge
func (h *AdminHandler) MergeTags(c *gin.Context) {
	var req mergeTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sources and target are required"})
		return
	}
	scope, err := models.ParseScope(req.Scope)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be one of: media, articles, both"})
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	affected, err := h.services.Taxonomy.MergeTags(ctx, c.GetString(actorKey), req.Sources, req.Target, scope)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"affected": affected, "scope": scope})
}

// ListTags handles GET /v1/admin/tags?scope=
func (h *AdminHandler) ListTags(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	tags, err := h.services.Taxonomy.ListTags(ctx, scope)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scope": scope, "tags": tags})
}

// ListAudit handles GET /v1/admin/audit
func (h *AdminHandler) ListAudit(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	filter := models.AuditFilter{
		Actor:      c.Query("actor"),
		Action:     models.AuditAction(c.Query("action")),
		TargetType: models.TargetType(c.Query("target_type")),
	}
	entries, page, err := h.services.Audit.List(ctx, filter, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "pagination": page})
}

// PurgeAudit handles DELETE /v1/admin/audit?before=<unix seconds>
func (h *AdminHandler) PurgeAudit(c *gin.Context) {
	var before *int64
	if raw := c.Query("before"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be a unix timestamp"})
			return
		}
		before = &ts
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	deleted, err := h.services.Audit.Purge(ctx, c.GetString(actorKey), before)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// CreateAPIKey handles POST /v1/admin/api-keys
func (h *AdminHandler) CreateAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label is required"})
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	key, err := h.services.APIKey.Create(ctx, c.GetString(actorKey), req.Label)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, key)
}

// ListAPIKeys handles GET /v1/admin/api-keys
func (h *AdminHandler) ListAPIKeys(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	keys, err := h.services.APIKey.List(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// SetAPIKeyActive handles PATCH /v1/admin/api-keys/:id
func (h *AdminHandler) SetAPIKeyActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	if err := h.services.APIKey.SetActive(ctx, c.GetString(actorKey), id, *req.Active); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "active": *req.Active})
}

// DeleteAPIKey handles DELETE /v1/admin/api-keys/:id
func (h *AdminHandler) DeleteAPIKey(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	if err := h.services.APIKey.Delete(ctx, c.GetString(actorKey), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Tick handles POST /v1/admin/scheduler/tick
func (h *AdminHandler) Tick(c *gin.Context) {
	result, err := h.services.Scheduler.Tick(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if result.Skipped {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}

// StreamEvents handles GET /v1/admin/events as Server-Sent Events
func (h *AdminHandler) StreamEvents(c *gin.Context) {
	if h.stream == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream is not available"})
		return
	}

	id, events := h.stream.Subscribe()
	defer h.stream.Unsubscribe(id)

	h.log.Info().Str("subscriber", id).Str("actor", c.GetString(actorKey)).Msg("Event stream opened")

	// Streams outlive the server's write timeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Warn().Err(err).Str("subscriber", id).Msg("Could not clear write deadline for event stream")
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		}
	})

	h.log.Info().Str("subscriber", id).Msg("Event stream closed")
}
