package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	actorKey     = "actor"
	apiKeyHeader = "X-API-Key"
	adminHeader  = "X-Admin-User"
)

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("actor", c.GetString(actorKey)).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+apiKeyHeader+", "+adminHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requireAdmin takes the acting administrator from X-Admin-User. Session
// handling lives in front of this service.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(adminHeader)
		if actor == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": adminHeader + " header is required"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// requireAPIKey admits public readers holding an active key
func requireAPIKey(keys service.APIKeyService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := keys.Authenticate(c.Request.Context(), c.GetHeader(apiKeyHeader))
		switch {
		case err == nil:
			c.Next()
		case apperrors.IsNotFound(err):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "valid " + apiKeyHeader + " header is required"})
		default:
			respondError(c, log, err)
			c.Abort()
		}
	}
}

// respondError maps the error taxonomy onto HTTP status codes
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	code := apperrors.CodeOf(err)

	var status int
	switch code {
	case apperrors.CodeValidation:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeConflict:
		status = http.StatusConflict
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": apperrors.CodeInternal})
		return
	}

	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}
