package api

import (
	"net/http"
	"time"

	"github.com/content-lifecycle-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PublicHandler serves published content to API key holders
type PublicHandler struct {
	services *service.Services
	timeout  time.Duration
	log      zerolog.Logger
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(services *service.Services, timeout time.Duration, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		services: services,
		timeout:  timeout,
		log:      log.With().Str("handler", "public").Logger(),
	}
}

// ListArticles handles GET /v1/public/articles
func (h *PublicHandler) ListArticles(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	articles, page, err := h.services.Content.ListPublishedArticles(ctx, listOptions(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"articles": articles, "pagination": page})
}

// GetArticle handles GET /v1/public/articles/:slug
func (h *PublicHandler) GetArticle(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	article, err := h.services.Content.GetArticleBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, article)
}

// ListMedia handles GET /v1/public/media
func (h *PublicHandler) ListMedia(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	media, page, err := h.services.Content.ListPublicMedia(ctx, listOptions(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"media": media, "pagination": page})
}

// Search handles GET /v1/public/search?q=&page=&limit=
func (h *PublicHandler) Search(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	resp, err := h.services.Search.Search(ctx, c.Query("q"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
