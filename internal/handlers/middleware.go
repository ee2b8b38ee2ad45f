package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"
	userIDContextKey    = "userId"
)

// userIdMiddleware guards the API group: every request must carry a Bearer
// token issued by the auth service. The resolved user id is stored in the
// request context for downstream handlers.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	raw := c.GetHeader(authorizationHeader)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	scheme, token, found := strings.Cut(raw, " ")
	if !found || scheme != bearerScheme || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(userIDContextKey, userID)
	c.Next()
}
