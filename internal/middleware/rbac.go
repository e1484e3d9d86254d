package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ward-mar-api/internal/models"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
	"github.com/noah-isme/ward-mar-api/pkg/response"
)

// RequireRoles allows the request through only when the authenticated role is listed.
func RequireRoles(roles ...models.WardRole) gin.HandlerFunc {
	allowed := make(map[models.WardRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
