package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bookdesk/models"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PrincipalResolver maps a bearer token to its principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// JWTAuthMiddleware resolves the bearer token and stores the principal and
// raw token in the context.
func JWTAuthMiddleware(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header", "")
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, utils.ErrTokenExpired) {
				msg = "Session expired, please log in again"
			}
			utils.JSONError(c, http.StatusUnauthorized, msg, err.Error())
			return
		}

		c.Set(utils.PrincipalContextKey, principal)
		c.Set(utils.TokenContextKey, tokenString)
		if l, exists := c.Get(utils.LoggerContextKey); exists {
			if logger, ok := l.(*zap.Logger); ok {
				c.Set(utils.LoggerContextKey, logger.With(zap.String("email", principal.Email)))
			}
		}
		c.Next()
	}
}

// GetPrincipal returns the principal set by JWTAuthMiddleware.
func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	v, exists := c.Get(utils.PrincipalContextKey)
	if !exists {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}
