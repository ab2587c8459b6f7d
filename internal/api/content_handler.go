package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ContentHandler handles the admin content and recycle bin endpoints
type ContentHandler struct {
	services *service.Services
	timeout  time.Duration
	log      zerolog.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(services *service.Services, timeout time.Duration, log zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		services: services,
		timeout:  timeout,
		log:      log.With().Str("handler", "content").Logger(),
	}
}

func parseKind(c *gin.Context) (models.Kind, bool) {
	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be one of: article, media"})
		return "", false
	}
	return kind, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func parseScope(c *gin.Context) (models.Scope, bool) {
	scope, err := models.ParseScope(c.Query("scope"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be one of: media, articles, both"})
		return "", false
	}
	return scope, true
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

func listOptions(c *gin.Context) models.ListOptions {
	return models.ListOptions{
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
		Tag:      c.Query("tag"),
		Category: c.Query("category"),
	}
}

// Create handles POST /v1/admin/content/:kind
func (h *ContentHandler) Create(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()
	actor := c.GetString(actorKey)

	var (
		item interface{}
		err  error
	)
	switch kind {
	case models.KindArticle:
		var in models.ArticleInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}
		item, err = h.services.Content.CreateArticle(ctx, actor, &in)
	case models.KindMedia:
		var in models.MediaInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}
		item, err = h.services.Content.CreateMedia(ctx, actor, &in)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// List handles GET /v1/admin/content/:kind
func (h *ContentHandler) List(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	items, page, err := h.services.Content.ListAdmin(ctx, kind, listOptions(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": page})
}

// Get handles GET /v1/admin/content/:kind/:id
func (h *ContentHandler) Get(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	item, err := h.services.Content.GetContent(ctx, kind, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item, "state": item.Base().State()})
}

// Update handles PATCH /v1/admin/content/:kind/:id
func (h *ContentHandler) Update(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()
	actor := c.GetString(actorKey)

	var (
		item interface{}
		err  error
	)
	switch kind {
	case models.KindArticle:
		var patch models.ArticlePatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}
		item, err = h.services.Content.UpdateArticle(ctx, actor, id, &patch)
	case models.KindMedia:
		var patch models.MediaPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}
		item, err = h.services.Content.UpdateMedia(ctx, actor, id, &patch)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /v1/admin/content/:kind/:id
// ?permanent=true purges instead of moving to the recycle bin
func (h *ContentHandler) Delete(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	permanent, _ := strconv.ParseBool(c.Query("permanent"))
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()
	actor := c.GetString(actorKey)

	var err error
	if permanent {
		err = h.services.Content.Purge(ctx, actor, kind, id)
	} else {
		err = h.services.Content.SoftDelete(ctx, actor, kind, id)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Restore handles POST /v1/admin/content/:kind/:id/restore
func (h *ContentHandler) Restore(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	item, err := h.services.Content.Restore(ctx, c.GetString(actorKey), kind, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// RecycleBin handles GET /v1/admin/recycle-bin?scope=
func (h *ContentHandler) RecycleBin(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	items, err := h.services.Content.ListRecycleBin(ctx, scope)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scope": scope, "items": items})
}

// EmptyRecycleBin handles DELETE /v1/admin/recycle-bin?scope=
func (h *ContentHandler) EmptyRecycleBin(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	purged, err := h.services.Content.PurgeAll(ctx, c.GetString(actorKey), scope)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scope": scope, "purged": purged})
}
