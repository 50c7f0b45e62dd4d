package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "admin_claims"

func AuthMiddleware(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "kind": "unauthorized"})
			c.Abort()
			return
		}

		raw := strings.TrimSpace(h[len("Bearer "):])
		claims, err := tokens.Parse(raw)
		if err != nil || claims.Role != "admin" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "kind": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}
