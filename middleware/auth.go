package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-inventory/utils"
)

// JWTAuth accepts a bearer token signed with secret and exposes its claims
// as sub, role and username on the context.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthorized", "missing bearer token", false)
			return
		}
		claims, err := utils.ParseAdminToken(secret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthorized", "invalid or expired token", false)
			return
		}
		c.Set("sub", claims.Sub)
		c.Set("role", claims.Role)
		c.Set("username", claims.Username)
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString("role")
		if _, ok := allowed[role]; !ok {
			utils.JSONError(c, http.StatusForbidden, "error.forbidden", "insufficient role", false)
			return
		}
		c.Next()
	}
}
