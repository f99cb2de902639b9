package middleware

import (
	"net/http"
	"strings"

	"github.com/ErlanBelekov/stockbetting/internal/auth"
	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/ErlanBelekov/stockbetting/internal/metrics"
	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

// TokenVerifier is satisfied by *auth.TokenService.
type TokenVerifier interface {
	Verify(raw string) auth.Verification
}

// Auth validates a Bearer JWT and sets UserIDKey in the gin context.
// Rejections carry domain.ErrUnauthorized so the error stage renders them.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		rawToken, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(rawToken) == "" {
			reject(c)
			return
		}

		v := verifier.Verify(strings.TrimSpace(rawToken))
		if !v.Valid {
			metrics.TokensRejectedTotal.Inc()
			reject(c)
			return
		}

		c.Set(UserIDKey, v.UserID)
		c.Next()
	}
}

func reject(c *gin.Context) {
	_ = c.Error(domain.ErrUnauthorized)
	c.AbortWithStatus(http.StatusUnauthorized)
}
