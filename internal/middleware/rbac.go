package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

// RequireRoles allows only the listed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return authorize(func(role models.UserRole) bool {
		_, ok := allowed[role]
		return ok
	})
}

// RequireAtLeast allows min and every role ranked above it.
func RequireAtLeast(min models.UserRole) gin.HandlerFunc {
	return authorize(func(role models.UserRole) bool {
		return role.AtLeast(min)
	})
}

func authorize(permit func(models.UserRole) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !permit(claims.Role) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
