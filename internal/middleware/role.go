package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
)

// RequireRole lets the request through only when the authenticated caller
// holds one of the given roles. It must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "This action requires elevated privileges"))
	}
}

// RequireAdmin is RequireRole(models.RoleAdmin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
