package middleware

import (
	"net/http"

	"bookdesk/models"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only for the given roles. It must
// run after JWTAuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		for _, r := range roles {
			if principal.Role == r {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, "Forbidden", "role "+string(principal.Role)+" may not access this resource")
	}
}
