package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/estatevest/backend/internal/infrastructure/logger"
	"github.com/estatevest/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// BearerToken rejects requests whose Authorization header does not carry token.
func BearerToken(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			reject(c, "missing bearer token")
			return
		}
		got := []byte(strings.TrimSpace(header[len(bearerPrefix):]))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			reject(c, "invalid bearer token")
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, message string) {
	logger.GetGinLogger(c).Warn("Rejected ops request", zap.String("reason", message))
	c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeUnauthorized),
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, logger.GetRequestID(c.Request.Context())))
}
